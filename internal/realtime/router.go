package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrIsolation marks an attempt to publish without a valid owning tenant.
	// It is a programming-error-class condition and must never be swallowed.
	ErrIsolation = errors.New("realtime: event is not bound to a valid tenant")

	// ErrUnknownDomain is returned for a domain outside the closed set.
	ErrUnknownDomain = errors.New("realtime: unknown event domain")
)

// ChannelFor computes the transport channel for a tenant and domain. It is a
// pure function of its two arguments and the tenant-isolation boundary: the
// event payload never participates in channel selection.
func ChannelFor(tenantID int64, domain Domain) string {
	return fmt.Sprintf("tenant.%d.%s", tenantID, domain)
}

// Transport is the injected pub/sub collaborator.
type Transport interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Router maps events onto tenant- and domain-scoped channels and forwards
// them to the transport.
type Router struct {
	transport Transport
	logger    *slog.Logger
}

func NewRouter(transport Transport, logger *slog.Logger) *Router {
	return &Router{
		transport: transport,
		logger:    logger,
	}
}

// Publish forwards the event envelope onto the channel computed from the
// event's own tenant and domain. Transport failures are reported to the
// caller; they are also logged so a fire-and-forget call site still leaves a
// trace.
func (r *Router) Publish(ctx context.Context, ev Event) error {
	if ev.TenantID <= 0 {
		return ErrIsolation
	}
	if !ev.Domain.Valid() {
		return ErrUnknownDomain
	}

	channel := ChannelFor(ev.TenantID, ev.Domain)
	emitted := ev.EmittedAt
	if emitted.IsZero() {
		emitted = time.Now().UTC()
	}
	body, err := json.Marshal(wireEnvelope{
		Event:     ev.Type,
		Data:      ev.Payload,
		Timestamp: emitted.UTC().Format(time.RFC3339),
		UserID:    ev.ActorUserID,
	})
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.Type, err)
	}

	if err := r.transport.Publish(ctx, channel, body); err != nil {
		r.logger.Error("realtime publish failed",
			slog.String("channel", channel),
			slog.String("event", ev.Type),
			slog.Any("error", err))
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}
