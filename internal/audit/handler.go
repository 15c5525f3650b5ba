package audit

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"pidstore/pkg/domain"
	dErrors "pidstore/pkg/domain-errors"
	"pidstore/pkg/platform/httputil"
	"pidstore/pkg/platform/middleware/admin"
)

// Lister reads the recorded trail of one DOI.
type Lister interface {
	List(ctx context.Context, pidValue string) ([]Event, error)
}

// Handler exposes the audit trail to operators.
type Handler struct {
	events    Lister
	tokenHash string
	logger    *slog.Logger
}

// NewHandler builds the handler; tokenHash is the bcrypt hash of the
// operator token.
func NewHandler(events Lister, tokenHash string, logger *slog.Logger) *Handler {
	return &Handler{events: events, tokenHash: tokenHash, logger: logger}
}

// Register mounts GET /admin/audit/{value} behind the admin token.
func (h *Handler) Register(r chi.Router) {
	r.With(admin.RequireAdminToken(h.tokenHash, h.logger)).
		Get("/admin/audit/{value}", h.HandleList)
}

type listResponse struct {
	DOI    string  `json:"doi"`
	Events []Event `json:"events"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw, err := url.PathUnescape(chi.URLParam(r, "value"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed pid in path"))
		return
	}
	doi, err := domain.ParseDOI(raw)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.events.List(ctx, doi.String())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events", "pid", doi.String(), "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	if events == nil {
		events = []Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{DOI: doi.String(), Events: events})
}
