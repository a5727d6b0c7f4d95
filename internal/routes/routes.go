package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/resto-platform/core/internal/handlers"
	"github.com/resto-platform/core/internal/middleware"
	"github.com/resto-platform/core/internal/tenant"
)

// SetupRoutes configures the routes for the API server.
func SetupRoutes(
	router *gin.Engine,
	resolver *tenant.Resolver,
	orderHandler *handlers.OrderHandler,
	eventHandler *handlers.EventHandler,
	notificationHandler *handlers.NotificationHandler,
	redisClient *redis.Client,
	jwtSecret string,
	rateLimit int,
) {
	router.Use(middleware.Correlation())

	v1 := router.Group("/v1")
	v1.Use(middleware.Auth(jwtSecret))
	v1.Use(middleware.RateLimit(redisClient, rateLimit, time.Minute))
	v1.Use(middleware.Tenant(resolver, false))
	{
		orders := v1.Group("/orders")
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.PATCH("/:id/status", orderHandler.UpdateStatus)
		}

		v1.POST("/events", eventHandler.EmitEvent)

		notifications := v1.Group("/notifications")
		{
			notifications.POST("", notificationHandler.SendNotification)
			notifications.GET("", notificationHandler.ListInbox)
			notifications.GET("/:request_id/status", notificationHandler.GetStatus)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
		}
	}

	// Public, unauthenticated order tracking. The explicit restaurant_id
	// parameter is accepted here without the authorization gate.
	public := router.Group("/v1/public")
	public.Use(middleware.RateLimit(redisClient, rateLimit, time.Minute))
	public.Use(middleware.Tenant(resolver, true))
	{
		public.GET("/orders/:id", orderHandler.TrackOrder)
	}

	router.GET("/health", handlers.HealthCheck)
}
