package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/resto-platform/core/internal/notify"
	"github.com/resto-platform/core/internal/realtime"
)

type fakeEmitter struct {
	events []realtime.Event
	err    error
}

func (f *fakeEmitter) Emit(_ context.Context, ev realtime.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

type sentNotification struct {
	tenantID int64
	kind     string
	rcpt     notify.Recipient
}

type fakeNotifier struct {
	sent []sentNotification
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, tenantID int64, kind string, rcpt notify.Recipient, _ map[string]interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentNotification{tenantID: tenantID, kind: kind, rcpt: rcpt})
	return nil
}

type fakeRecipients struct {
	rcpt notify.Recipient
	err  error
}

func (f *fakeRecipients) ForOrder(_ context.Context, _ Order) (notify.Recipient, error) {
	return f.rcpt, f.err
}

func newTestWatcher(em *fakeEmitter, n *fakeNotifier, rl *fakeRecipients) *Watcher {
	return NewWatcher(em, n, rl, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func deliveryOrder() Order {
	return Order{
		ID:           17,
		RestaurantID: 3,
		Type:         TypeDelivery,
		Status:       StatusNew,
		GuestName:    "walk-in",
		GuestPhone:   "+15550001",
		GuestEmail:   "g@example.com",
	}
}

func TestStatusChangedDeliveryNotifiesGuest(t *testing.T) {
	t.Parallel()

	emitter := &fakeEmitter{}
	notifier := &fakeNotifier{}
	watcher := newTestWatcher(emitter, notifier, &fakeRecipients{rcpt: notify.GuestRecipient{Email: "g@example.com"}})

	watcher.StatusChanged(context.Background(), deliveryOrder(), StatusNew, StatusCooking)

	if len(notifier.sent) != 1 {
		t.Fatalf("expected exactly one guest notification, got %d", len(notifier.sent))
	}
	if notifier.sent[0].kind != "order_cooking" {
		t.Fatalf("expected kind order_cooking, got %q", notifier.sent[0].kind)
	}
	if notifier.sent[0].tenantID != 3 {
		t.Fatalf("notification must carry the order's tenant, got %d", notifier.sent[0].tenantID)
	}

	if len(emitter.events) != 1 {
		t.Fatalf("expected exactly one staff event, got %d", len(emitter.events))
	}
	ev := emitter.events[0]
	if ev.Type != "order.status_changed" || ev.Domain != realtime.DomainOrders || ev.TenantID != 3 {
		t.Fatalf("unexpected staff event: %+v", ev)
	}
	if ev.Payload["old_status"] != "new" || ev.Payload["new_status"] != "cooking" {
		t.Fatalf("staff event must carry both statuses: %v", ev.Payload)
	}
}

func TestStatusChangedNonDeliverySkipsGuest(t *testing.T) {
	t.Parallel()

	emitter := &fakeEmitter{}
	notifier := &fakeNotifier{}
	watcher := newTestWatcher(emitter, notifier, &fakeRecipients{rcpt: notify.GuestRecipient{}})

	o := deliveryOrder()
	o.Type = TypeDineIn
	watcher.StatusChanged(context.Background(), o, StatusNew, StatusCooking)

	if len(notifier.sent) != 0 {
		t.Fatalf("dine-in orders must not notify guests, got %d", len(notifier.sent))
	}
	if len(emitter.events) != 1 {
		t.Fatalf("staff event still expected, got %d", len(emitter.events))
	}
}

func TestStatusChangedRegressionUsesCanonicalKind(t *testing.T) {
	t.Parallel()

	emitter := &fakeEmitter{}
	notifier := &fakeNotifier{}
	watcher := newTestWatcher(emitter, notifier, &fakeRecipients{rcpt: notify.GuestRecipient{Email: "g@example.com"}})

	watcher.StatusChanged(context.Background(), deliveryOrder(), StatusReady, StatusReturnToCooking)

	if len(notifier.sent) != 1 || notifier.sent[0].kind != "order_cooking" {
		t.Fatalf("regression into cooking should send order_cooking, got %+v", notifier.sent)
	}
}

func TestStatusChangedIntoNewNotifiesNobody(t *testing.T) {
	t.Parallel()

	emitter := &fakeEmitter{}
	notifier := &fakeNotifier{}
	watcher := newTestWatcher(emitter, notifier, &fakeRecipients{rcpt: notify.GuestRecipient{Email: "g@example.com"}})

	watcher.StatusChanged(context.Background(), deliveryOrder(), StatusCooking, StatusReturnToNew)

	if len(notifier.sent) != 0 {
		t.Fatalf("re-entering new has no notification kind, got %d", len(notifier.sent))
	}
	if len(emitter.events) != 1 {
		t.Fatalf("staff event still expected, got %d", len(emitter.events))
	}
}

func TestStatusChangedNoOpWhenUnchanged(t *testing.T) {
	t.Parallel()

	emitter := &fakeEmitter{}
	notifier := &fakeNotifier{}
	watcher := newTestWatcher(emitter, notifier, &fakeRecipients{rcpt: notify.GuestRecipient{}})

	watcher.StatusChanged(context.Background(), deliveryOrder(), StatusCooking, StatusCooking)

	if len(notifier.sent) != 0 || len(emitter.events) != 0 {
		t.Fatal("unchanged status must produce no fan-out")
	}
}

func TestStatusChangedNotifierFailureDoesNotBlockStaffEvent(t *testing.T) {
	t.Parallel()

	emitter := &fakeEmitter{}
	notifier := &fakeNotifier{err: errors.New("broker down")}
	watcher := newTestWatcher(emitter, notifier, &fakeRecipients{rcpt: notify.GuestRecipient{Email: "g@example.com"}})

	watcher.StatusChanged(context.Background(), deliveryOrder(), StatusNew, StatusCooking)

	if len(emitter.events) != 1 {
		t.Fatalf("staff event must survive notification failure, got %d", len(emitter.events))
	}
}

func TestStatusChangedRecipientLookupFailure(t *testing.T) {
	t.Parallel()

	emitter := &fakeEmitter{}
	notifier := &fakeNotifier{}
	watcher := newTestWatcher(emitter, notifier, &fakeRecipients{err: errors.New("db down")})

	watcher.StatusChanged(context.Background(), deliveryOrder(), StatusNew, StatusCooking)

	if len(notifier.sent) != 0 {
		t.Fatal("no recipient means no notification")
	}
	if len(emitter.events) != 1 {
		t.Fatalf("staff event still expected, got %d", len(emitter.events))
	}
}

func TestOrderCreatedDelivery(t *testing.T) {
	t.Parallel()

	emitter := &fakeEmitter{}
	notifier := &fakeNotifier{}
	watcher := newTestWatcher(emitter, notifier, &fakeRecipients{rcpt: notify.GuestRecipient{Email: "g@example.com"}})

	watcher.OrderCreated(context.Background(), deliveryOrder())

	if len(notifier.sent) != 1 || notifier.sent[0].kind != KindCreated {
		t.Fatalf("expected one %s notification, got %+v", KindCreated, notifier.sent)
	}
	if len(emitter.events) != 1 || emitter.events[0].Type != "order.created" {
		t.Fatalf("expected one order.created staff event, got %+v", emitter.events)
	}
}

func TestOrderCreatedDineIn(t *testing.T) {
	t.Parallel()

	emitter := &fakeEmitter{}
	notifier := &fakeNotifier{}
	watcher := newTestWatcher(emitter, notifier, &fakeRecipients{rcpt: notify.GuestRecipient{}})

	o := deliveryOrder()
	o.Type = TypeDineIn
	watcher.OrderCreated(context.Background(), o)

	if len(notifier.sent) != 0 {
		t.Fatal("dine-in creation must not notify the guest")
	}
	if len(emitter.events) != 1 {
		t.Fatalf("staff event expected, got %d", len(emitter.events))
	}
}

func TestStatusChangedCarriesActor(t *testing.T) {
	t.Parallel()

	emitter := &fakeEmitter{}
	watcher := newTestWatcher(emitter, &fakeNotifier{}, &fakeRecipients{rcpt: notify.GuestRecipient{}})

	ctx := WithActor(context.Background(), 42)
	o := deliveryOrder()
	o.Type = TypeTakeout
	watcher.StatusChanged(ctx, o, StatusNew, StatusCooking)

	if len(emitter.events) != 1 {
		t.Fatalf("expected one event, got %d", len(emitter.events))
	}
	actor := emitter.events[0].ActorUserID
	if actor == nil || *actor != 42 {
		t.Fatalf("expected actor 42 on staff event, got %v", actor)
	}
}
