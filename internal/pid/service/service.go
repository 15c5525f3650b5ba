package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"go.opentelemetry.io/otel/trace"

	"pidstore/internal/audit"
	"pidstore/internal/crossref"
	"pidstore/internal/pid/metrics"
	"pidstore/internal/pid/models"
	"pidstore/internal/pid/provider"
	"pidstore/internal/pid/store"
	"pidstore/internal/platform/tracing"
	"pidstore/pkg/attrs"
	"pidstore/pkg/domain"
	dErrors "pidstore/pkg/domain-errors"
	"pidstore/pkg/platform/sentinel"
	"pidstore/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, pid *models.PersistentIdentifier) error
	Find(ctx context.Context, pidType, value string) (*models.PersistentIdentifier, error)
	Save(ctx context.Context, pid *models.PersistentIdentifier) error
	Delete(ctx context.Context, pidType, value string) error
}

type SyncCache interface {
	Put(ctx context.Context, rec store.SyncRecord) error
	Get(ctx context.Context, value string) (*store.SyncRecord, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Provider is the registration adapter bound to one record.
type Provider interface {
	Register(ctx context.Context, url string, doc []byte) error
	Update(ctx context.Context, url string, doc []byte) error
	Delete(ctx context.Context) (purge bool, err error)
	SyncStatus(ctx context.Context) (models.Status, error)
}

// ProviderFactory binds a Provider to pid.
type ProviderFactory func(pid *models.PersistentIdentifier) (Provider, error)

// NewProviderFactory builds one registration client from cfg and shares it
// across every provider the factory creates.
func NewProviderFactory(cfg crossref.Config, opts ...provider.Option) (ProviderFactory, error) {
	client, err := crossref.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]provider.Option{provider.WithClient(client)}, opts...)
	return func(pid *models.PersistentIdentifier) (Provider, error) {
		return provider.New(pid, cfg, opts...)
	}, nil
}

// Service owns the identifier lifecycle around the registration adapter:
// loading, persisting on success, auditing and recording sync results.
type Service struct {
	store          Store
	newProvider    ProviderFactory
	syncCache      SyncCache
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	prefixes       []string
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithSyncCache(c SyncCache) Option {
	return func(s *Service) {
		s.syncCache = c
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithPrefixes restricts Create to DOIs under prefixes.
func WithPrefixes(prefixes []string) Option {
	return func(s *Service) {
		s.prefixes = prefixes
	}
}

// New constructs a Service.
func New(st Store, factory ProviderFactory, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if factory == nil {
		return nil, errors.New("provider factory is required")
	}
	s := &Service{
		store:       st,
		newProvider: factory,
		prefixes:    []string{crossref.DefaultPrefix},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateRequest describes a new DOI reservation in the local store.
type CreateRequest struct {
	Value      string
	ObjectType string
	ObjectID   string
}

// Create stores a new record in the provider's default status.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.PersistentIdentifier, error) {
	ctx, span := tracing.StartSpan(ctx, s.tracer, "pid.create")
	defer span.End()

	doi, err := domain.ParseDOI(req.Value)
	if err != nil {
		return nil, err
	}
	if !crossref.HasAllowedPrefix(doi.String(), s.prefixes) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "doi prefix is not managed by this service")
	}

	now := requestcontext.Now(ctx)
	pid, err := provider.NewPID(doi.String(), now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	if req.ObjectType != "" || req.ObjectID != "" {
		objectID, err := domain.ParseObjectID(req.ObjectID)
		if err != nil {
			return nil, err
		}
		if err := pid.Assign(req.ObjectType, objectID.String(), now); err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
	}

	if err := s.store.Create(ctx, pid); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "pid already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create pid")
	}

	s.logAudit(ctx, audit.Event{
		Action:   audit.ActionCreated,
		PIDType:  pid.Type,
		PIDValue: pid.Value,
		Provider: pid.Provider,
		ToStatus: string(pid.Status),
	})
	s.metrics.IncrementPIDCreated()
	return pid, nil
}

// Get loads a record.
func (s *Service) Get(ctx context.Context, value string) (*models.PersistentIdentifier, error) {
	doi, err := domain.ParseDOI(value)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, doi.String())
}

// DepositRequest carries the target URL and the metadata document for
// Register and Update.
type DepositRequest struct {
	Value    string
	URL      string
	Metadata []byte
}

func (r DepositRequest) validate() error {
	if r.URL == "" {
		return dErrors.New(dErrors.CodeValidation, "url is required")
	}
	u, err := url.Parse(r.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return dErrors.New(dErrors.CodeValidation, "url must be an absolute http(s) URL")
	}
	if len(r.Metadata) == 0 {
		return dErrors.New(dErrors.CodeValidation, "metadata is required")
	}
	return nil
}

// Register deposits metadata and mints the DOI. The record is persisted only
// when both remote calls succeed.
func (s *Service) Register(ctx context.Context, req DepositRequest) (*models.PersistentIdentifier, error) {
	return s.deposit(ctx, provider.OpRegister, audit.ActionRegistered, req,
		func(ctx context.Context, p Provider) error { return p.Register(ctx, req.URL, req.Metadata) })
}

// Update redeposits metadata and repoints the DOI, reactivating a deleted
// record on success.
func (s *Service) Update(ctx context.Context, req DepositRequest) (*models.PersistentIdentifier, error) {
	return s.deposit(ctx, provider.OpUpdate, audit.ActionUpdated, req,
		func(ctx context.Context, p Provider) error { return p.Update(ctx, req.URL, req.Metadata) })
}

func (s *Service) deposit(
	ctx context.Context,
	op, action string,
	req DepositRequest,
	run func(context.Context, Provider) error,
) (*models.PersistentIdentifier, error) {
	ctx, span := tracing.StartSpan(ctx, s.tracer, "pid."+op)
	defer span.End()

	doi, err := domain.ParseDOI(req.Value)
	if err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	pid, err := s.load(ctx, doi.String())
	if err != nil {
		return nil, err
	}
	from := pid.Status

	p, err := s.newProvider(pid)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build provider")
	}
	if err := run(ctx, p); err != nil {
		s.auditFailure(ctx, op, pid, from, err)
		return nil, translateRemote(err, op)
	}
	if err := s.store.Save(ctx, pid); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save pid")
	}
	s.logAudit(ctx, audit.Event{
		Action:     action,
		Operation:  op,
		PIDType:    pid.Type,
		PIDValue:   pid.Value,
		Provider:   pid.Provider,
		FromStatus: string(from),
		ToStatus:   string(pid.Status),
	})
	return pid, nil
}

// DeleteResult reports how a record was removed.
type DeleteResult struct {
	PID *models.PersistentIdentifier
	// Purged is true when a never-registered record was removed from the
	// store instead of being marked deleted.
	Purged bool
}

// Delete removes a new record from the store, or marks any other record
// deleted and withdraws its metadata remotely.
func (s *Service) Delete(ctx context.Context, value string) (*DeleteResult, error) {
	ctx, span := tracing.StartSpan(ctx, s.tracer, "pid.delete")
	defer span.End()

	doi, err := domain.ParseDOI(value)
	if err != nil {
		return nil, err
	}
	pid, err := s.load(ctx, doi.String())
	if err != nil {
		return nil, err
	}
	from := pid.Status

	p, err := s.newProvider(pid)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build provider")
	}
	purge, err := p.Delete(ctx)
	if err != nil {
		s.auditFailure(ctx, provider.OpDelete, pid, from, err)
		return nil, translateRemote(err, provider.OpDelete)
	}

	action := audit.ActionDeleted
	if purge {
		action = audit.ActionPurged
		if err := s.store.Delete(ctx, pid.Type, pid.Value); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to purge pid")
		}
	} else if err := s.store.Save(ctx, pid); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save pid")
	}

	s.logAudit(ctx, audit.Event{
		Action:     action,
		Operation:  provider.OpDelete,
		PIDType:    pid.Type,
		PIDValue:   pid.Value,
		Provider:   pid.Provider,
		FromStatus: string(from),
		ToStatus:   string(pid.Status),
	})
	return &DeleteResult{PID: pid, Purged: purge}, nil
}

// SyncStatus asks the registration service for the record's status and
// stores the answer. Failed probes are recorded in the sync cache too.
func (s *Service) SyncStatus(ctx context.Context, value string) (*models.PersistentIdentifier, error) {
	ctx, span := tracing.StartSpan(ctx, s.tracer, "pid.sync_status")
	defer span.End()

	doi, err := domain.ParseDOI(value)
	if err != nil {
		return nil, err
	}
	pid, err := s.load(ctx, doi.String())
	if err != nil {
		return nil, err
	}
	from := pid.Status
	checkedAt := requestcontext.Now(ctx).UTC()

	p, err := s.newProvider(pid)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build provider")
	}
	status, err := p.SyncStatus(ctx)
	if err != nil {
		s.recordSync(ctx, store.SyncRecord{Value: pid.Value, Previous: from, CheckedAt: checkedAt, Error: err.Error()})
		s.auditFailure(ctx, provider.OpSync, pid, from, err)
		return nil, translateRemote(err, provider.OpSync)
	}
	if status != from {
		if err := s.store.Save(ctx, pid); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save pid")
		}
	}
	s.recordSync(ctx, store.SyncRecord{Value: pid.Value, Status: status, Previous: from, CheckedAt: checkedAt})
	s.logAudit(ctx, audit.Event{
		Action:     audit.ActionSynced,
		Operation:  provider.OpSync,
		PIDType:    pid.Type,
		PIDValue:   pid.Value,
		Provider:   pid.Provider,
		FromStatus: string(from),
		ToStatus:   string(status),
	})
	return pid, nil
}

// LastSync returns the most recent sync result for value.
func (s *Service) LastSync(ctx context.Context, value string) (*store.SyncRecord, error) {
	doi, err := domain.ParseDOI(value)
	if err != nil {
		return nil, err
	}
	if s.syncCache == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "no sync recorded")
	}
	rec, err := s.syncCache.Get(ctx, doi.String())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no sync recorded")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read sync result")
	}
	return rec, nil
}

func (s *Service) load(ctx context.Context, value string) (*models.PersistentIdentifier, error) {
	pid, err := s.store.Find(ctx, provider.PIDType, value)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "pid not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pid")
	}
	return pid, nil
}

func (s *Service) recordSync(ctx context.Context, rec store.SyncRecord) {
	if s.syncCache == nil {
		return
	}
	if err := s.syncCache.Put(ctx, rec); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to record sync result", "pid", rec.Value, "error", err)
	}
}

func (s *Service) auditFailure(ctx context.Context, op string, pid *models.PersistentIdentifier, from models.Status, err error) {
	s.logAudit(ctx, audit.Event{
		Action:     audit.ActionFailed,
		Operation:  op,
		PIDType:    pid.Type,
		PIDValue:   pid.Value,
		Provider:   pid.Provider,
		FromStatus: string(from),
		Error:      err.Error(),
	})
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	args := []any{
		"event", event.Action,
		"log_type", "audit",
		"pid", event.PIDValue,
	}
	if event.Operation != "" {
		args = append(args, "operation", event.Operation)
	}
	if event.ToStatus != "" {
		args = append(args, "status", event.ToStatus)
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, event.Action, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = attrs.ExtractString(args, "request_id")
	if err := s.auditPublisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", event.Action, "error", err)
	}
}

