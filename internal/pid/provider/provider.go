// Package provider adapts a local DOI record to the Crossref registration
// service. It is synchronous and holds no locks; callers own persistence.
package provider

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"pidstore/internal/crossref"
	"pidstore/internal/pid/metrics"
	"pidstore/internal/pid/models"
	"pidstore/internal/platform/tracing"
)

const (
	// PIDType is the identifier scheme handled by this provider.
	PIDType = "doi"
	// Name identifies the provider on stored records.
	Name = "crossref"
	// DefaultStatus is the status of records created through this provider.
	DefaultStatus = models.StatusNew
)

// Operation names used in logs, spans and metrics.
const (
	OpRegister = "register"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpSync     = "sync_status"
)

// Client is the subset of the registration client the provider uses.
type Client interface {
	MetadataPost(ctx context.Context, doc []byte) error
	DOIPost(ctx context.Context, doi, url string) error
	DOIGet(ctx context.Context, doi string) (crossref.Probe, error)
	MetadataGet(ctx context.Context, doi string) (crossref.Probe, error)
	MetadataDelete(ctx context.Context, doi string) error
}

// Provider drives one identifier record through the registration service.
type Provider struct {
	pid     *models.PersistentIdentifier
	client  Client
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures a Provider.
type Option func(*Provider)

// WithClient supplies a pre-built client instead of one built from config.
func WithClient(c Client) Option {
	return func(p *Provider) {
		p.client = c
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics enables operation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Provider) {
		p.metrics = m
	}
}

// WithTracer enables spans for each operation.
func WithTracer(t trace.Tracer) Option {
	return func(p *Provider) {
		p.tracer = t
	}
}

// WithClock overrides the time source used for status timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// New binds pid to the registration service. Without WithClient a client is
// built from cfg.
func New(pid *models.PersistentIdentifier, cfg crossref.Config, opts ...Option) (*Provider, error) {
	if pid == nil {
		return nil, errors.New("provider: pid is required")
	}
	p := &Provider{
		pid:    pid,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		c, err := crossref.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		p.client = c
	}
	return p, nil
}

// NewPID creates a record for value with this provider's type, name and
// default status.
func NewPID(value string, now time.Time) (*models.PersistentIdentifier, error) {
	return models.New(PIDType, value, Name, DefaultStatus, now)
}

// PID returns the bound record.
func (p *Provider) PID() *models.PersistentIdentifier {
	return p.pid
}

// Register marks the record registered, deposits doc and mints the DOI to
// resolve to url.
//
// The local transition happens before any remote call and is not rolled back
// when a remote call fails. Callers that persist must only do so on success.
func (p *Provider) Register(ctx context.Context, url string, doc []byte) (err error) {
	ctx, span := p.start(ctx, OpRegister)
	defer p.finish(span, OpRegister, time.Now(), &err)

	if err = p.pid.Register(p.now()); err != nil {
		p.logger.ErrorContext(ctx, "Failed to register in Crossref", p.attrs(err)...)
		return err
	}
	if err = p.metadataPost(ctx, doc); err != nil {
		p.logger.ErrorContext(ctx, "Failed to register in Crossref", p.attrs(err)...)
		return err
	}
	if err = p.doiPost(ctx, url); err != nil {
		p.logger.ErrorContext(ctx, "Failed to register in Crossref", p.attrs(err)...)
		return err
	}
	p.logger.InfoContext(ctx, "Successfully registered in Crossref", p.attrs(nil)...)
	return nil
}

// Update redeposits doc and points the DOI at url. A deleted record is
// reactivated as registered once both calls succeed; on failure the record
// is left untouched.
func (p *Provider) Update(ctx context.Context, url string, doc []byte) (err error) {
	ctx, span := p.start(ctx, OpUpdate)
	defer p.finish(span, OpUpdate, time.Now(), &err)

	reactivate := p.pid.IsDeleted()
	if reactivate {
		p.logger.InfoContext(ctx, "Reactivate in Crossref", p.attrs(nil)...)
	}
	if err = p.metadataPost(ctx, doc); err != nil {
		p.logger.ErrorContext(ctx, "Failed to update in Crossref", p.attrs(err)...)
		return err
	}
	if err = p.doiPost(ctx, url); err != nil {
		p.logger.ErrorContext(ctx, "Failed to update in Crossref", p.attrs(err)...)
		return err
	}
	if reactivate {
		if err = p.pid.SyncStatus(models.StatusRegistered, p.now()); err != nil {
			return err
		}
	}
	p.logger.InfoContext(ctx, "Successfully updated in Crossref", p.attrs(nil)...)
	return nil
}

// Delete removes the record. A new record never reached the registration
// service and is only deleted locally (purge is true). Anything else is
// marked deleted and its metadata withdrawn remotely.
func (p *Provider) Delete(ctx context.Context) (purge bool, err error) {
	ctx, span := p.start(ctx, OpDelete)
	defer p.finish(span, OpDelete, time.Now(), &err)

	if p.pid.IsNew() {
		purge, err = p.pid.Delete(p.now())
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to delete in Crossref", p.attrs(err)...)
			return false, err
		}
		p.logger.InfoContext(ctx, "Successfully deleted in Crossref", p.attrs(nil)...)
		return purge, nil
	}

	if purge, err = p.pid.Delete(p.now()); err != nil {
		p.logger.ErrorContext(ctx, "Failed to delete in Crossref", p.attrs(err)...)
		return false, err
	}
	err = p.client.MetadataDelete(ctx, p.pid.Value)
	p.metrics.IncrementRemoteCall(crossref.OpMetadataDelete, callOutcome(err))
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to delete in Crossref", p.attrs(err)...)
		return false, err
	}
	p.logger.InfoContext(ctx, "Successfully deleted in Crossref", p.attrs(nil)...)
	return purge, nil
}

// SyncStatus infers the remote status and writes it to the record.
//
// The DOI endpoint is consulted first; only when it reports the DOI unknown
// is the metadata endpoint probed. Unknown on both means the DOI was never
// announced. Any probe error leaves the record unchanged.
func (p *Provider) SyncStatus(ctx context.Context) (status models.Status, err error) {
	ctx, span := p.start(ctx, OpSync)
	defer p.finish(span, OpSync, time.Now(), &err)

	status, err = p.inferStatus(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to sync status from Crossref", p.attrs(err)...)
		return "", err
	}
	if err = p.pid.SyncStatus(status, p.now()); err != nil {
		return "", err
	}
	span.SetAttributes(tracing.AttrPIDStatus.String(string(status)))
	p.metrics.IncrementSyncOutcome(string(status))
	p.logger.InfoContext(ctx, "Successfully synced status from Crossref", p.attrs(nil)...)
	return status, nil
}

func (p *Provider) inferStatus(ctx context.Context) (models.Status, error) {
	probe, err := p.probe(ctx, crossref.OpDOIGet, p.client.DOIGet)
	if err != nil {
		return "", err
	}
	switch probe.Outcome {
	case crossref.OutcomeFound, crossref.OutcomeNoContent:
		return models.StatusRegistered, nil
	case crossref.OutcomeGone:
		return models.StatusDeleted, nil
	}

	probe, err = p.probe(ctx, crossref.OpMetadataGet, p.client.MetadataGet)
	if err != nil {
		return "", err
	}
	switch probe.Outcome {
	case crossref.OutcomeFound:
		return models.StatusReserved, nil
	case crossref.OutcomeNoContent:
		return models.StatusRegistered, nil
	case crossref.OutcomeGone:
		return models.StatusDeleted, nil
	}
	return models.StatusNew, nil
}

func (p *Provider) probe(
	ctx context.Context,
	name string,
	fn func(context.Context, string) (crossref.Probe, error),
) (crossref.Probe, error) {
	res, err := fn(ctx, p.pid.Value)
	if err != nil {
		p.metrics.IncrementRemoteCall(name, "error")
		return crossref.Probe{}, err
	}
	p.metrics.IncrementRemoteCall(name, res.Outcome.String())
	trace.SpanFromContext(ctx).AddEvent(name,
		trace.WithAttributes(tracing.AttrProbe.String(name), tracing.AttrOutcome.String(res.Outcome.String())))
	return res, nil
}

func (p *Provider) metadataPost(ctx context.Context, doc []byte) error {
	err := p.client.MetadataPost(ctx, doc)
	p.metrics.IncrementRemoteCall(crossref.OpMetadataPost, callOutcome(err))
	return err
}

func (p *Provider) doiPost(ctx context.Context, url string) error {
	err := p.client.DOIPost(ctx, p.pid.Value, url)
	p.metrics.IncrementRemoteCall(crossref.OpDOIPost, callOutcome(err))
	return err
}

func (p *Provider) start(ctx context.Context, op string) (context.Context, trace.Span) {
	return tracing.StartSpan(ctx, p.tracer, "crossref."+op,
		trace.WithAttributes(
			tracing.AttrPIDValue.String(p.pid.Value),
			tracing.AttrPIDProvider.String(Name),
		))
}

func (p *Provider) finish(span trace.Span, op string, start time.Time, errp *error) {
	tracing.RecordError(span, *errp)
	p.metrics.ObserveOperation(op, start, *errp)
	span.End()
}

func (p *Provider) attrs(err error) []any {
	args := []any{"pid", p.pid.Value, "status", string(p.pid.Status)}
	if err != nil {
		args = append(args, "error", err)
	}
	return args
}

func callOutcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
