package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventix/internal/container"
	"github.com/joshua-takyi/eventix/internal/handlers"
	"github.com/joshua-takyi/eventix/internal/middleware"
	"github.com/joshua-takyi/eventix/internal/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     container.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", middleware.IdempotencyKeyHeader, "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Idempotent-Replayed", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
	}))

	// Add middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := container.Auth
	checkout := container.CheckoutService

	// Checkout widget endpoints. The paths are fixed by the frontend.
	paymentGuards := []gin.HandlerFunc{auth.RequireAuth(), rateLimit(container, "checkout")}
	createPayment := append(append([]gin.HandlerFunc{}, paymentGuards...), idempotency(container), handlers.CreatePayment(checkout))
	verifyPayment := append(append([]gin.HandlerFunc{}, paymentGuards...), handlers.VerifyPayment(checkout))

	api := r.Group("/api")
	{
		api.POST("/create-payment", createPayment...)
		api.POST("/verify-payment", verifyPayment...)
	}

	// API version 1
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", handlers.Health())

		v1.GET("/events", handlers.ListEvents(container.CatalogService))
		v1.GET("/events/:id", auth.OptionalAuth(), handlers.GetEvent(container.CatalogService))
		v1.GET("/venues", handlers.ListVenues(container.CatalogService))
		v1.POST("/cart/quote", handlers.QuoteCart(checkout))

		v1.POST("/auth/refresh", handlers.RefreshSession(container.UserService, container.Config.IsProduction()))
		v1.POST("/auth/logout", handlers.Logout(container.Config.IsProduction()))

		payments := v1.Group("/payments")
		{
			payments.POST("/create", createPayment...)
			payments.POST("/verify", verifyPayment...)
			if checkout.StripeEnabled() {
				payments.POST("/stripe/intent", auth.RequireAuth(), handlers.CreateStripeIntent(checkout))
				payments.POST("/stripe/webhook", handlers.StripeWebhook(checkout))
			}
		}
	}

	protected := v1.Group("/")
	protected.Use(auth.RequireAuth())
	{
		protected.GET("/profile", handlers.GetProfile(container.UserService))
		protected.POST("/role-requests", handlers.RequestRole(container.UserService))

		protected.GET("/bookings", handlers.ListBookings(container.DashboardService))
		protected.GET("/bookings/:id", handlers.GetBooking(container.DashboardService))
		protected.GET("/bookings/:id/history", handlers.BookingHistory(container.DashboardService))
		protected.POST("/bookings/:id/abandon", handlers.AbandonBooking(checkout))
	}

	organizer := protected.Group("/")
	organizer.Use(middleware.RequireRole(models.RoleOrganizer, models.RoleAdmin))
	{
		organizer.POST("/events", handlers.CreateEvent(container.CatalogService))
		organizer.PATCH("/events/:id/publish", handlers.PublishEvent(container.CatalogService))
		organizer.POST("/venues", handlers.CreateVenue(container.CatalogService))
	}

	drafts := protected.Group("/booking-drafts")
	{
		flow := container.BookingFlowService
		drafts.POST("", handlers.StartBookingDraft(flow))
		drafts.GET("/:id", handlers.GetBookingDraft(flow))
		drafts.PUT("/:id/tickets", handlers.SelectDraftTickets(flow))
		drafts.PUT("/:id/customer", handlers.EnterDraftCustomer(flow))
		drafts.POST("/:id/pay", idempotency(container), handlers.PayBookingDraft(flow))
		drafts.POST("/:id/confirm", handlers.ConfirmBookingDraft(flow))
		drafts.DELETE("/:id", handlers.DiscardBookingDraft(flow))
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/role-requests", handlers.ListRoleRequests(container.UserService))
		admin.POST("/role-requests/:id/approve", handlers.ReviewRoleRequest(container.UserService, true))
		admin.POST("/role-requests/:id/reject", handlers.ReviewRoleRequest(container.UserService, false))
		admin.PUT("/users/:id/role", handlers.SetUserRole(container.UserService))
		admin.POST("/bookings/expire", handlers.ExpirePendingBookings(checkout))
	}

	return r
}

func rateLimit(container *container.Container, scope string) gin.HandlerFunc {
	if container.Redis == nil {
		return passThrough
	}
	return middleware.RateLimit(container.Redis, scope, container.Config.RateLimitPerMinute, time.Minute, container.Logger)
}

func idempotency(container *container.Container) gin.HandlerFunc {
	if container.Redis == nil {
		return passThrough
	}
	return middleware.Idempotency(container.Redis, container.Config.IdempotencyTTL, container.Logger)
}

func passThrough(c *gin.Context) {
	c.Next()
}
