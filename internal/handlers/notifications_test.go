package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/resto-platform/core/internal/core"
	"github.com/resto-platform/core/internal/middleware"
	"github.com/resto-platform/core/internal/notify"
	"github.com/resto-platform/core/internal/realtime"
	"github.com/resto-platform/core/internal/repository"
	"github.com/resto-platform/core/internal/tenant"
	"github.com/resto-platform/core/pkg/metrics"
)

const testSecret = "test-secret"

type nullTransport struct{}

func (nullTransport) Publish(context.Context, string, []byte) error { return nil }

type nullQueue struct{}

func (nullQueue) Enqueue(context.Context, notify.Channel, notify.Envelope) error { return nil }

type fakeRecipientSource struct {
	rcpt notify.Recipient
	err  error
}

func (f *fakeRecipientSource) ForUser(context.Context, int64) (notify.Recipient, error) {
	return f.rcpt, f.err
}

type markReadCall struct {
	tenantID, userID, notificationID int64
}

type fakeInbox struct {
	markReadErr error
	markedRead  []markReadCall
}

func (f *fakeInbox) List(context.Context, int64, int64, int) ([]repository.InboxNotification, error) {
	return nil, nil
}

func (f *fakeInbox) MarkRead(_ context.Context, tenantID, userID, notificationID int64) error {
	if f.markReadErr != nil {
		return f.markReadErr
	}
	f.markedRead = append(f.markedRead, markReadCall{tenantID, userID, notificationID})
	return nil
}

type fakeStatuses struct{}

func (fakeStatuses) ForRequest(context.Context, string) ([]repository.DeliveryStatus, error) {
	return nil, nil
}

type fakeIdempotency struct {
	dup       bool
	forgotten []string
}

func (f *fakeIdempotency) IsDuplicate(context.Context, string) (bool, error) {
	return f.dup, nil
}

func (f *fakeIdempotency) Forget(_ context.Context, requestID string) error {
	f.forgotten = append(f.forgotten, requestID)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCore() *core.Core {
	logr := discardLogger()
	resolver := tenant.NewResolver(nil, logr)
	events := realtime.NewRouter(nullTransport{}, logr)
	router := notify.NewRouter(logr)
	return core.New(resolver, events, router, metrics.New(), logr, core.WithQueue(nullQueue{}))
}

func notificationTestRouter(h *NotificationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	resolver := tenant.NewResolver(nil, discardLogger())

	r := gin.New()
	v1 := r.Group("/v1")
	v1.Use(middleware.Auth(testSecret))
	v1.Use(middleware.Tenant(resolver, false))
	v1.POST("/notifications", h.SendNotification)
	v1.PATCH("/notifications/:id/read", h.MarkRead)
	return r
}

func signToken(t *testing.T, userID, restaurantID int64, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id":       userID,
		"restaurant_id": restaurantID,
		"role":          role,
		"exp":           time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestSendNotificationClearsIdempotencyMarkOnFailedDispatch(t *testing.T) {
	idem := &fakeIdempotency{}
	h := NewNotificationHandler(testCore(), &fakeRecipientSource{}, &fakeInbox{}, fakeStatuses{}, idem)
	router := notificationTestRouter(h)

	// A guest with no contact fields cannot be routed, so the dispatch fails
	// after the request id was marked seen.
	requestID := "7f9c24e8-3b12-4a6b-9d0e-5f1c2a3b4d5e"
	body := `{"request_id":"` + requestID + `","kind":"order_ready","guest":{"name":"walk-in"}}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/notifications", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+signToken(t, 7, 5, "waiter"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	if len(idem.forgotten) != 1 || idem.forgotten[0] != requestID {
		t.Fatalf("failed dispatch must clear the idempotency mark, forgotten=%v", idem.forgotten)
	}
}

func TestSendNotificationDuplicate(t *testing.T) {
	idem := &fakeIdempotency{dup: true}
	h := NewNotificationHandler(testCore(), &fakeRecipientSource{}, &fakeInbox{}, fakeStatuses{}, idem)
	router := notificationTestRouter(h)

	body := `{"request_id":"7f9c24e8-3b12-4a6b-9d0e-5f1c2a3b4d5e","kind":"order_ready","guest":{"email":"g@example.com"}}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/notifications", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+signToken(t, 7, 5, "waiter"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for a duplicate request, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "duplicate") {
		t.Fatalf("expected duplicate response, got %s", w.Body.String())
	}
	if len(idem.forgotten) != 0 {
		t.Fatalf("duplicate short-circuit must not clear the mark, forgotten=%v", idem.forgotten)
	}
}

func TestMarkRead(t *testing.T) {
	inbox := &fakeInbox{}
	h := NewNotificationHandler(testCore(), &fakeRecipientSource{}, inbox, fakeStatuses{}, &fakeIdempotency{})
	router := notificationTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/v1/notifications/12/read", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, 7, 5, "waiter"))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	want := markReadCall{tenantID: 5, userID: 7, notificationID: 12}
	if len(inbox.markedRead) != 1 || inbox.markedRead[0] != want {
		t.Fatalf("expected %+v, got %+v", want, inbox.markedRead)
	}
}

func TestMarkReadNotFound(t *testing.T) {
	inbox := &fakeInbox{markReadErr: gorm.ErrRecordNotFound}
	h := NewNotificationHandler(testCore(), &fakeRecipientSource{}, inbox, fakeStatuses{}, &fakeIdempotency{})
	router := notificationTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/v1/notifications/999/read", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, 7, 5, "waiter"))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
