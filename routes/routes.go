package routes

import (
	"foodshare-api/config"
	"foodshare-api/handlers"
	"foodshare-api/httpx"
	"foodshare-api/middleware"
	"foodshare-api/models"
	"foodshare-api/service"
	"foodshare-api/web"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter builds the engine with the global middleware chain and every route.
func NewRouter(cfg *config.Config, svc *service.Services, logger *zap.Logger) (*gin.Engine, error) {
	r := gin.New()
	r.Use(
		middleware.Recovery(logger),
		middleware.RequestLogger(logger),
		middleware.Metrics(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.FrontendURL),
		middleware.BodyLimit(cfg.BodyLimitBytes),
	)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window, logger)
	if err := SetupRoutes(r, handlers.New(svc), svc.Auth, limiter, logger); err != nil {
		return nil, err
	}
	return r, nil
}

// SetupRoutes mounts the probes, the JSON API, the web pages and /metrics.
// Protected groups are limited per user after authentication; requests that
// fail authentication share the client IP bucket with the public routes.
func SetupRoutes(r *gin.Engine, h *handlers.Handler, auth middleware.Authenticator, limiter *middleware.RateLimiter, logger *zap.Logger) error {
	httpx.UseJSONFieldNames()

	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready(logger))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := web.Register(r); err != nil {
		return err
	}

	authed := []gin.HandlerFunc{limiter.Anonymous(), middleware.AuthRequired(auth), limiter.Handler()}

	// ── Public API ─────────────────────────────────────────────────
	public := r.Group("/api", limiter.Handler())
	{
		public.GET("", h.Welcome)
		public.GET("/state-machine", h.StateMachine)
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)
	}

	// ── Any signed-in account ──────────────────────────────────────
	account := r.Group("/api", authed...)
	{
		account.GET("/auth/me", h.Me)
		account.PUT("/auth/profile", h.UpdateProfile)

		account.GET("/notifications", h.Notifications)
		account.PUT("/notifications/read-all", h.MarkAllNotificationsRead)
		account.PUT("/notifications/:id/read", h.MarkNotificationRead)
	}

	// ── Donations ──────────────────────────────────────────────────
	donations := r.Group("/api/donations", authed...)
	{
		donor := middleware.CapabilityRequired(models.CapPostDonation)

		donations.GET("", h.ListDonations)
		donations.GET("/available", h.AvailableDonations)
		donations.GET("/my-donations/list", donor, h.MyDonations)
		donations.GET("/:id", h.GetDonation)
		donations.POST("", donor, h.CreateDonation)
		donations.PUT("/:id", donor, h.UpdateDonation)
		donations.DELETE("/:id", donor, h.DeleteDonation)
	}

	// ── Claims ─────────────────────────────────────────────────────
	claims := r.Group("/api/claims", authed...)
	{
		ngo := middleware.CapabilityRequired(models.CapClaimDonation)

		claims.POST("/claim/:donationId", ngo, h.Claim)
		claims.GET("/my-claims", ngo, h.MyClaims)
		claims.GET("/:id", h.GetClaim)
		claims.PUT("/:id/status", middleware.RoleRequired(models.RoleNGO, models.RoleAdmin), h.UpdateClaimStatus)
	}

	// ── Pickups ────────────────────────────────────────────────────
	pickups := r.Group("/api/pickups", authed...)
	{
		carrier := middleware.CapabilityRequired(models.CapAcceptPickup)

		pickups.GET("/available", carrier, h.AvailablePickups)
		pickups.GET("/my-pickups/list", carrier, h.MyPickups)
		pickups.POST("/:id/accept", carrier, h.AcceptPickup)
		pickups.PUT("/:id/status", middleware.RoleRequired(models.RoleVolunteer, models.RoleNGO, models.RoleAdmin), h.UpdatePickupStatus)
	}

	// ── Admin ──────────────────────────────────────────────────────
	admin := r.Group("/api/admin", append(authed, middleware.RoleRequired(models.RoleAdmin))...)
	{
		admin.GET("/stats", middleware.CapabilityRequired(models.CapViewStatistics), h.Stats)
		admin.GET("/users", middleware.CapabilityRequired(models.CapListAllAccounts), h.Users)
	}

	r.NoRoute(h.NotFound)
	return nil
}
