package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/resto-platform/core/internal/tenant"
)

func TestRateLimitKeyPerUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/v1/orders", nil)
	c.Set(identityKey, &tenant.Identity{UserID: 42, RestaurantID: 5, Role: "waiter"})

	if got := rateLimitKey(c); got != "rate_limit:user:42" {
		t.Fatalf("authenticated callers should be keyed per user, got %q", got)
	}
}

func TestRateLimitKeyPerIPWhenAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/v1/public/orders/1", nil)
	c.Request.RemoteAddr = "203.0.113.7:4711"

	if got := rateLimitKey(c); got != "rate_limit:ip:203.0.113.7" {
		t.Fatalf("anonymous callers should be keyed per IP, got %q", got)
	}
}
