package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/resto-platform/core/internal/notify"
	"github.com/resto-platform/core/internal/realtime"
	"github.com/resto-platform/core/internal/tenant"
	"github.com/resto-platform/core/pkg/metrics"
)

// Enqueuer hands a per-channel delivery job to the job queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, ch notify.Channel, env notify.Envelope) error
}

// StatusRecorder tracks per-channel delivery lifecycle for observability.
type StatusRecorder interface {
	Update(ctx context.Context, requestID, channel, status, detail string) error
}

// Core is the routing core's public surface: tenant resolution, realtime
// event emission, and notification dispatch. Everything else is internal.
type Core struct {
	resolver *tenant.Resolver
	events   *realtime.Router
	router   *notify.Router
	queue    Enqueuer
	statuses StatusRecorder
	metrics  *metrics.Collector
	logger   *slog.Logger

	publishTimeout time.Duration
}

type Option func(*Core)

// WithQueue routes deliveries through the job queue instead of in-process
// senders.
func WithQueue(q Enqueuer) Option {
	return func(c *Core) { c.queue = q }
}

func WithStatusRecorder(s StatusRecorder) Option {
	return func(c *Core) { c.statuses = s }
}

func WithPublishTimeout(d time.Duration) Option {
	return func(c *Core) { c.publishTimeout = d }
}

func New(resolver *tenant.Resolver, events *realtime.Router, router *notify.Router, collector *metrics.Collector, logger *slog.Logger, opts ...Option) *Core {
	c := &Core{
		resolver:       resolver,
		events:         events,
		router:         router,
		metrics:        collector,
		logger:         logger,
		publishTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveTenant computes the active tenant from the layered signals.
func (c *Core) ResolveTenant(ctx context.Context, s tenant.Signals) (int64, error) {
	return c.resolver.Resolve(ctx, s)
}

// Emit validates the event synchronously so programming errors surface at the
// call site, then fans it out to the transport out of band. The triggering
// operation never blocks on transport I/O; a transport failure is logged and
// counted, not propagated.
func (c *Core) Emit(ctx context.Context, ev realtime.Event) error {
	if ev.TenantID <= 0 {
		return realtime.ErrIsolation
	}
	if !ev.Domain.Valid() {
		return realtime.ErrUnknownDomain
	}

	go func() {
		pctx, cancel := context.WithTimeout(context.Background(), c.publishTimeout)
		defer cancel()
		if err := c.events.Publish(pctx, ev); err != nil {
			c.metrics.IncEventFailed()
			return
		}
		c.metrics.IncEventPublished()
	}()
	return nil
}

// Receipt describes what Notify decided to do.
type Receipt struct {
	RequestID string
	Channels  []notify.Channel
}

// Notify resolves the channel list once, synchronously, then dispatches one
// independent delivery per channel: through the job queue when one is
// configured, otherwise in-process out of band. ErrNoChannels propagates to
// the caller, who decides whether a non-notifiable recipient is fatal.
func (c *Core) Notify(ctx context.Context, tenantID int64, kind string, rcpt notify.Recipient, subject map[string]interface{}) (Receipt, error) {
	channels, err := c.router.Route(kind, rcpt)
	if err != nil {
		return Receipt{}, err
	}

	env := notify.Envelope{
		Kind:          kind,
		TenantID:      tenantID,
		RequestID:     uuid.NewString(),
		CorrelationID: CorrelationFrom(ctx),
		Recipient:     notify.Snapshot(rcpt),
		SubjectData:   subject,
		Channels:      channels,
		CreatedAt:     time.Now().UTC(),
	}

	if c.queue != nil {
		for _, ch := range channels {
			job := env
			job.Channels = []notify.Channel{ch}
			if err := c.queue.Enqueue(ctx, ch, job); err != nil {
				// One channel's enqueue failure never blocks the others.
				c.logger.Error("delivery enqueue failed",
					slog.String("request_id", env.RequestID),
					slog.String("channel", string(ch)),
					slog.String("kind", kind),
					slog.Any("error", err))
				c.recordStatus(ctx, env.RequestID, ch, "failed", err.Error())
				continue
			}
			c.metrics.IncQueued()
			c.recordStatus(ctx, env.RequestID, ch, "queued", "")
		}
		return Receipt{RequestID: env.RequestID, Channels: channels}, nil
	}

	go func() {
		dctx, cancel := context.WithTimeout(context.Background(), c.publishTimeout)
		defer cancel()
		for _, res := range c.router.Deliver(dctx, env) {
			if res.Delivered() {
				c.metrics.IncDelivered()
				c.recordStatus(dctx, env.RequestID, res.Channel, "delivered", "")
				continue
			}
			c.metrics.IncFailed()
			c.recordStatus(dctx, env.RequestID, res.Channel, "failed", res.Err.Error())
		}
	}()
	return Receipt{RequestID: env.RequestID, Channels: channels}, nil
}

func (c *Core) recordStatus(ctx context.Context, requestID string, ch notify.Channel, status, detail string) {
	if c.statuses == nil {
		return
	}
	if err := c.statuses.Update(ctx, requestID, string(ch), status, detail); err != nil {
		c.logger.Error("failed to record delivery status",
			slog.String("request_id", requestID),
			slog.String("channel", string(ch)),
			slog.Any("error", err))
	}
}

type correlationKey struct{}

// WithCorrelation stores the request correlation id for envelopes created in
// this unit of work.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationFrom returns the correlation id bound to the context, if any.
func CorrelationFrom(ctx context.Context) string {
	if v, ok := ctx.Value(correlationKey{}).(string); ok {
		return v
	}
	return ""
}
