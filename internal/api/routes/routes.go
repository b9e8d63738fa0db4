package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/anishLS3/Placify-sub001/internal/api/handlers"
	"github.com/anishLS3/Placify-sub001/internal/api/middleware"
	"github.com/anishLS3/Placify-sub001/internal/cache"
	"github.com/anishLS3/Placify-sub001/internal/config"
	"github.com/anishLS3/Placify-sub001/internal/contentgate"
	"github.com/anishLS3/Placify-sub001/internal/eventbus"
	"github.com/anishLS3/Placify-sub001/internal/models"
	"github.com/anishLS3/Placify-sub001/internal/realtime"
	"github.com/anishLS3/Placify-sub001/internal/repository"
	"github.com/anishLS3/Placify-sub001/internal/services"
)

// Services holds the application services built once at startup.
type Services struct {
	Audit         *services.AuditService
	Moderation    *services.ModerationService
	Contacts      *services.ContactService
	Submissions   *services.SubmissionService
	Auth          *services.AuthService
	Notifications *services.NotificationService
}

// NewServices wires repositories into services. bus and stats may be nil.
func NewServices(db *gorm.DB, cfg config.Config, bus *eventbus.Bus, stats cache.StatsCache) *Services {
	var pub services.Publisher
	if bus != nil {
		pub = bus
	}
	if stats == nil {
		stats = cache.Noop{}
	}
	experiences := repository.NewExperienceRepository(db)
	contacts := repository.NewContactRepository(db)
	audit := services.NewAuditService(repository.NewAuditRepository(db), stats)

	return &Services{
		Audit: audit,
		Moderation: services.NewModerationService(experiences, audit, pub,
			services.WithBatchLimit(cfg.Moderation.BatchLimit),
			services.WithStatsCache(stats)),
		Contacts:      services.NewContactService(contacts, audit, pub, stats, cfg.Moderation.BatchLimit),
		Submissions:   services.NewSubmissionService(experiences, contacts, contentgate.New(cfg.Gate), pub),
		Auth:          services.NewAuthService(db, cfg, audit),
		Notifications: services.NewNotificationService(db),
	}
}

// Deps are the shared dependencies Register attaches handlers to.
type Deps struct {
	DB       *gorm.DB
	Config   config.Config
	Services *Services
	Hub      *realtime.Hub
	Stats    cache.StatsCache
	// Registry serves /metrics when set.
	Registry *prometheus.Registry
}

// Register wires up API routes.
func Register(router *gin.Engine, d Deps) {
	svc := d.Services
	health := handlers.NewHealthHandler(d.DB, d.Stats)
	router.GET("/api/v1/health", health.Check)
	if d.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")

	authHandler := handlers.NewAuthHandler(svc.Auth)
	authMiddleware := middleware.AuthMiddleware(svc.Auth)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("/")
	protected.Use(authMiddleware)
	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/auth/me", authHandler.Me)

	admin := api.Group("/admin")
	admin.Use(authMiddleware, middleware.RequireRole(models.RoleAdmin))

	handlers.NewExperienceHandler(svc.Submissions).RegisterRoutes(api)
	handlers.NewContactHandler(svc.Submissions, svc.Contacts).RegisterRoutes(api, admin)
	handlers.NewModerationHandler(svc.Moderation).RegisterRoutes(admin)
	handlers.NewAuditHandler(svc.Audit, d.Config.Audit.Retention).RegisterRoutes(admin)

	// Notifications
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)
	admin.GET("/notifications", notificationHandler.List)
	admin.POST("/notifications/:id/read", notificationHandler.MarkAsRead)
	admin.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)

	// Notification Providers
	providerHandler := handlers.NewNotificationProviderHandler(svc.Notifications)
	admin.GET("/notification-providers", providerHandler.List)
	admin.POST("/notification-providers", providerHandler.Create)
	admin.PUT("/notification-providers/:id", providerHandler.Update)
	admin.DELETE("/notification-providers/:id", providerHandler.Delete)
	admin.POST("/notification-providers/test", providerHandler.Test)

	if d.Hub != nil {
		admin.GET("/ws", handlers.NewRealtimeHandler(d.Hub).Serve)
	}
}
