package orders

import (
	"context"
	"log/slog"

	"github.com/resto-platform/core/internal/notify"
	"github.com/resto-platform/core/internal/realtime"
)

// EventEmitter publishes staff-facing realtime events.
type EventEmitter interface {
	Emit(ctx context.Context, ev realtime.Event) error
}

// Notifier dispatches a guest-facing notification.
type Notifier interface {
	Notify(ctx context.Context, tenantID int64, kind string, rcpt notify.Recipient, subject map[string]interface{}) error
}

// RecipientLookup resolves the person behind an order: the registered
// customer when one is referenced, otherwise the inline guest.
type RecipientLookup interface {
	ForOrder(ctx context.Context, o Order) (notify.Recipient, error)
}

// statusKinds selects the guest notification for a new status. Statuses
// absent from the table notify nobody.
var statusKinds = map[Status]string{
	StatusCooking:    "order_cooking",
	StatusReady:      "order_ready",
	StatusDelivering: "order_delivering",
	StatusCompleted:  "order_completed",
	StatusCancelled:  "order_cancelled",
}

// KindCreated is the guest notification sent when a delivery order is placed.
const KindCreated = "order_created"

// Watcher observes order lifecycle transitions and fans each one out as a
// staff realtime event plus, for delivery orders, a guest notification. It is
// invoked explicitly from the point of transition, never from persistence
// hooks.
type Watcher struct {
	events     EventEmitter
	notifier   Notifier
	recipients RecipientLookup
	logger     *slog.Logger
}

func NewWatcher(events EventEmitter, notifier Notifier, recipients RecipientLookup, logger *slog.Logger) *Watcher {
	return &Watcher{
		events:     events,
		notifier:   notifier,
		recipients: recipients,
		logger:     logger,
	}
}

// OrderCreated handles entry into the initial status.
func (w *Watcher) OrderCreated(ctx context.Context, o Order) {
	if o.Type == TypeDelivery {
		w.notifyGuest(ctx, o, KindCreated, "", o.Status)
	}
	w.emitStaff(ctx, o, "order.created", map[string]interface{}{
		"order_id":   o.ID,
		"order_type": string(o.Type),
		"status":     string(o.Status),
	})
}

// StatusChanged handles a committed transition from old to new. Guest
// notification is best-effort: a failure is logged with the order identifier
// and both statuses, and neither blocks the staff event nor the transition
// itself.
func (w *Watcher) StatusChanged(ctx context.Context, o Order, old, next Status) {
	if old == next {
		return
	}

	if o.Type == TypeDelivery {
		if kind, ok := statusKinds[next.Canonical()]; ok {
			w.notifyGuest(ctx, o, kind, old, next)
		}
	}

	w.emitStaff(ctx, o, "order.status_changed", map[string]interface{}{
		"order_id":   o.ID,
		"order_type": string(o.Type),
		"old_status": string(old),
		"new_status": string(next.Canonical()),
	})
}

func (w *Watcher) notifyGuest(ctx context.Context, o Order, kind string, old, next Status) {
	rcpt, err := w.recipients.ForOrder(ctx, o)
	if err != nil {
		w.logger.Error("order recipient lookup failed",
			slog.Int64("order_id", o.ID),
			slog.String("old_status", string(old)),
			slog.String("new_status", string(next)),
			slog.Any("error", err))
		return
	}

	subject := map[string]interface{}{
		"order_id": o.ID,
		"status":   string(next.Canonical()),
	}
	if err := w.notifier.Notify(ctx, o.RestaurantID, kind, rcpt, subject); err != nil {
		w.logger.Error("guest notification failed",
			slog.Int64("order_id", o.ID),
			slog.String("kind", kind),
			slog.String("old_status", string(old)),
			slog.String("new_status", string(next)),
			slog.Any("error", err))
	}
}

func (w *Watcher) emitStaff(ctx context.Context, o Order, eventType string, payload map[string]interface{}) {
	ev := realtime.NewEvent(o.RestaurantID, realtime.DomainOrders, eventType, payload)
	if actor, ok := actorFrom(ctx); ok {
		ev = ev.WithActor(actor)
	}
	if err := w.events.Emit(ctx, ev); err != nil {
		w.logger.Error("staff event emit failed",
			slog.Int64("order_id", o.ID),
			slog.String("event", eventType),
			slog.Any("error", err))
	}
}

type actorKey struct{}

// WithActor records the acting user for staff events emitted in this unit of
// work.
func WithActor(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

func actorFrom(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(actorKey{}).(int64)
	return v, ok
}
