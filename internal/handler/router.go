package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/surajpaudel2/sports-ticketing/pkg/logger"
	"github.com/surajpaudel2/sports-ticketing/pkg/middleware"
)

// RouterConfig bundles the handlers and cross-cutting pieces the router needs
type RouterConfig struct {
	Events   *EventHandler
	Bookings *BookingHandler
	Payments *PaymentHandler
	Health   *HealthHandler

	Logger *logger.Logger
	// Idempotency guards the mutating booking routes; nil disables it
	// (dev mode without redis)
	Idempotency gin.HandlerFunc
	// Registry backs the /metrics endpoint
	Registry *prometheus.Registry
}

// NewRouter builds the gin engine with all routes and middleware
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(cfg.Logger))

	router.GET("/health", cfg.Health.Health)
	if cfg.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")

	events := v1.Group("/events")
	{
		events.POST("", cfg.Events.Create)
		events.GET("", cfg.Events.List)
		events.GET("/:id", cfg.Events.Get)
		events.PATCH("/:id", cfg.Events.Update)
	}

	bookings := v1.Group("/bookings")
	if cfg.Idempotency != nil {
		bookings.Use(cfg.Idempotency)
	}
	{
		bookings.POST("", cfg.Bookings.Create)
		bookings.GET("/:id", cfg.Bookings.Get)
		bookings.POST("/:id/cancel", cfg.Bookings.Cancel)
		bookings.POST("/:id/retry-payment", cfg.Bookings.RetryPayment)
		bookings.POST("/:id/rebook", cfg.Bookings.Rebook)
		bookings.GET("/:id/payment", cfg.Payments.GetByBooking)
	}

	v1.GET("/users/:id/bookings", cfg.Bookings.ListByUser)

	payments := v1.Group("/payments")
	{
		payments.GET("/:id", cfg.Payments.Get)
		payments.POST("/:id/refund", cfg.Payments.Refund)
	}

	return router
}
