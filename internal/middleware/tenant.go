package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/resto-platform/core/internal/orders"
	"github.com/resto-platform/core/internal/tenant"
)

const tenantKey = "tenant_id"

// Tenant resolves the active tenant for the request and binds it to the
// request context. The binding lives and dies with the request; no process
// state is touched, so concurrent requests can never observe each other's
// tenant.
func Tenant(resolver *tenant.Resolver, public bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := IdentityFrom(c)

		var explicit int64
		if raw := c.Query("restaurant_id"); raw != "" {
			explicit, _ = strconv.ParseInt(raw, 10, 64)
		}
		ambient, _ := tenant.FromContext(c.Request.Context())

		id, err := resolver.Resolve(c.Request.Context(), tenant.Signals{
			Explicit: explicit,
			Identity: ident,
			Ambient:  ambient,
			Public:   public && ident == nil,
		})
		if err != nil {
			if errors.Is(err, tenant.ErrNotResolved) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "tenant could not be resolved"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "tenant resolution failed"})
			return
		}

		ctx, err := tenant.WithTenant(c.Request.Context(), id)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "tenant context conflict"})
			return
		}
		if ident != nil {
			ctx = orders.WithActor(ctx, ident.UserID)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Set(tenantKey, id)
		c.Next()
	}
}

// TenantFrom returns the tenant resolved for this request.
func TenantFrom(c *gin.Context) (int64, bool) {
	return tenant.FromContext(c.Request.Context())
}
