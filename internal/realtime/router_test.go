package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakeTransport struct {
	mu       sync.Mutex
	messages map[string][][]byte
	err      error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{messages: make(map[string][][]byte)}
}

func (f *fakeTransport) Publish(_ context.Context, channel string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[channel] = append(f.messages[channel], payload)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChannelFor(t *testing.T) {
	t.Parallel()

	if got := ChannelFor(12, DomainKitchen); got != "tenant.12.kitchen" {
		t.Fatalf("unexpected channel name %q", got)
	}
	// Different tenants never share a channel, same domain or not.
	if ChannelFor(1, DomainOrders) == ChannelFor(2, DomainOrders) {
		t.Fatal("channels for different tenants must differ")
	}
	if ChannelFor(1, DomainOrders) == ChannelFor(1, DomainKitchen) {
		t.Fatal("channels for different domains must differ")
	}
}

func TestPublishWireEnvelope(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	router := NewRouter(transport, discardLogger())

	ev := NewEvent(3, DomainOrders, "order.created", map[string]interface{}{"order_id": float64(17)})
	ev = ev.WithActor(99)

	if err := router.Publish(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := transport.messages["tenant.3.orders"]
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message on tenant.3.orders, got %d", len(msgs))
	}

	var env struct {
		Event     string                 `json:"event"`
		Data      map[string]interface{} `json:"data"`
		Timestamp string                 `json:"timestamp"`
		UserID    *int64                 `json:"user_id"`
	}
	if err := json.Unmarshal(msgs[0], &env); err != nil {
		t.Fatalf("bad wire payload: %v", err)
	}
	if env.Event != "order.created" {
		t.Fatalf("unexpected event name %q", env.Event)
	}
	if env.Data["order_id"] != float64(17) {
		t.Fatalf("unexpected payload: %v", env.Data)
	}
	if env.UserID == nil || *env.UserID != 99 {
		t.Fatalf("expected actor 99, got %v", env.UserID)
	}
	if _, err := time.Parse(time.RFC3339, env.Timestamp); err != nil {
		t.Fatalf("timestamp not RFC3339: %q", env.Timestamp)
	}
}

func TestPublishRejectsMissingTenant(t *testing.T) {
	t.Parallel()

	router := NewRouter(newFakeTransport(), discardLogger())
	ev := Event{Domain: DomainOrders, Type: "order.created"}
	if err := router.Publish(context.Background(), ev); !errors.Is(err, ErrIsolation) {
		t.Fatalf("expected ErrIsolation, got %v", err)
	}
}

func TestPublishRejectsUnknownDomain(t *testing.T) {
	t.Parallel()

	router := NewRouter(newFakeTransport(), discardLogger())
	ev := NewEvent(1, Domain("payroll"), "whatever", nil)
	if err := router.Publish(context.Background(), ev); !errors.Is(err, ErrUnknownDomain) {
		t.Fatalf("expected ErrUnknownDomain, got %v", err)
	}
}

func TestPublishTransportError(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	transport.err = errors.New("broker down")
	router := NewRouter(transport, discardLogger())

	ev := NewEvent(1, DomainOrders, "order.created", nil)
	if err := router.Publish(context.Background(), ev); err == nil {
		t.Fatal("expected transport error to surface")
	}
}

func TestPublishConcurrentTenantsStayIsolated(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	router := NewRouter(transport, discardLogger())

	const perTenant = 20
	var wg sync.WaitGroup
	for tenant := int64(1); tenant <= 5; tenant++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for i := 0; i < perTenant; i++ {
				ev := NewEvent(id, DomainOrders, "order.updated", map[string]interface{}{"tenant": id})
				if err := router.Publish(context.Background(), ev); err != nil {
					t.Errorf("publish for tenant %d: %v", id, err)
				}
			}
		}(tenant)
	}
	wg.Wait()

	for tenant := int64(1); tenant <= 5; tenant++ {
		channel := ChannelFor(tenant, DomainOrders)
		msgs := transport.messages[channel]
		if len(msgs) != perTenant {
			t.Fatalf("channel %s: expected %d messages, got %d", channel, perTenant, len(msgs))
		}
		for _, raw := range msgs {
			var env struct {
				Data map[string]interface{} `json:"data"`
			}
			if err := json.Unmarshal(raw, &env); err != nil {
				t.Fatalf("bad payload on %s: %v", channel, err)
			}
			if env.Data["tenant"] != float64(tenant) {
				t.Fatalf("cross-tenant leak on %s: %v", channel, env.Data)
			}
		}
	}
}
