package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"pidstore/internal/pid/models"
	"pidstore/internal/pid/service"
	"pidstore/internal/pid/store"
	dErrors "pidstore/pkg/domain-errors"
	"pidstore/pkg/platform/httputil"
	"pidstore/pkg/platform/middleware/auth"
	"pidstore/pkg/platform/middleware/request"
)

// Scopes required by the identifier routes.
const (
	ScopeRead  = "pid:read"
	ScopeWrite = "pid:write"
)

// Service defines the identifier operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, req service.CreateRequest) (*models.PersistentIdentifier, error)
	Get(ctx context.Context, value string) (*models.PersistentIdentifier, error)
	Register(ctx context.Context, req service.DepositRequest) (*models.PersistentIdentifier, error)
	Update(ctx context.Context, req service.DepositRequest) (*models.PersistentIdentifier, error)
	Delete(ctx context.Context, value string) (*service.DeleteResult, error)
	SyncStatus(ctx context.Context, value string) (*models.PersistentIdentifier, error)
	LastSync(ctx context.Context, value string) (*store.SyncRecord, error)
}

// Handler handles identifier endpoints.
type Handler struct {
	service   Service
	logger    *slog.Logger
	validator auth.JWTValidator
}

// New creates a new identifier Handler.
func New(svc Service, validator auth.JWTValidator, logger *slog.Logger) *Handler {
	return &Handler{
		service:   svc,
		logger:    logger,
		validator: validator,
	}
}

// Register registers the identifier routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	read := auth.RequireAuth(h.validator, ScopeRead, h.logger)
	write := auth.RequireAuth(h.validator, ScopeWrite, h.logger)

	r.Route("/pids", func(r chi.Router) {
		r.With(write).Post("/", h.HandleCreate)
		r.With(read).Get("/{value}", h.HandleGet)
		r.With(write).Put("/{value}", h.HandleUpdate)
		r.With(write).Delete("/{value}", h.HandleDelete)
		r.With(write).Post("/{value}/register", h.HandleRegister)
		r.With(write).Post("/{value}/sync", h.HandleSync)
		r.With(read).Get("/{value}/sync", h.HandleLastSync)
	})
}

// HandleCreate stores a new DOI in status new.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeJSON[CreatePIDRequest](r)
	if err != nil {
		h.fail(ctx, w, "invalid create request", err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid create request", err)
		return
	}

	pid, err := h.service.Create(ctx, req.toService())
	if err != nil {
		h.fail(ctx, w, "failed to create pid", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toPIDResponse(pid))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	value, err := pathValue(r)
	if err != nil {
		h.fail(ctx, w, "invalid pid path", err)
		return
	}
	pid, err := h.service.Get(ctx, value)
	if err != nil {
		h.fail(ctx, w, "failed to get pid", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPIDResponse(pid))
}

// HandleRegister deposits metadata and mints the DOI.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	h.handleDeposit(w, r, "register", h.service.Register)
}

// HandleUpdate redeposits metadata; a deleted DOI is reactivated.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.handleDeposit(w, r, "update", h.service.Update)
}

func (h *Handler) handleDeposit(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	run func(context.Context, service.DepositRequest) (*models.PersistentIdentifier, error),
) {
	ctx := r.Context()
	value, err := pathValue(r)
	if err != nil {
		h.fail(ctx, w, "invalid pid path", err)
		return
	}
	req, err := httputil.DecodeJSON[DepositRequest](r)
	if err != nil {
		h.fail(ctx, w, "invalid "+op+" request", err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid "+op+" request", err)
		return
	}

	pid, err := run(ctx, req.toService(value))
	if err != nil {
		h.fail(ctx, w, "failed to "+op+" pid", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPIDResponse(pid))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	value, err := pathValue(r)
	if err != nil {
		h.fail(ctx, w, "invalid pid path", err)
		return
	}
	res, err := h.service.Delete(ctx, value)
	if err != nil {
		h.fail(ctx, w, "failed to delete pid", err)
		return
	}
	resp := DeleteResponse{DOI: res.PID.Value, Purged: res.Purged}
	if !res.Purged {
		resp.Status = string(res.PID.Status)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleSync refreshes the record's status from the registration service.
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	value, err := pathValue(r)
	if err != nil {
		h.fail(ctx, w, "invalid pid path", err)
		return
	}
	pid, err := h.service.SyncStatus(ctx, value)
	if err != nil {
		h.fail(ctx, w, "failed to sync pid", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPIDResponse(pid))
}

func (h *Handler) HandleLastSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	value, err := pathValue(r)
	if err != nil {
		h.fail(ctx, w, "invalid pid path", err)
		return
	}
	rec, err := h.service.LastSync(ctx, value)
	if err != nil {
		h.fail(ctx, w, "failed to read last sync", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSyncResponse(rec))
}

// pathValue returns the unescaped {value} segment. DOIs contain "/", so
// clients send it as %2F.
func pathValue(r *http.Request) (string, error) {
	value, err := url.PathUnescape(chi.URLParam(r, "value"))
	if err != nil {
		return "", dErrors.New(dErrors.CodeBadRequest, "malformed pid in path")
	}
	return value, nil
}

// fail logs at warn for caller mistakes and at error for everything else.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	args := []any{"error", err, "request_id", request.GetRequestID(ctx)}
	if httputil.StatusFor(dErrors.CodeOf(err)) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, args...)
	} else {
		h.logger.ErrorContext(ctx, msg, args...)
	}
	httputil.WriteError(w, err)
}
