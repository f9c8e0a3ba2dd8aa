// Package router mounts every handler on a gin engine.
package router

import (
	"net/http"
	"time"

	"github.com/Baaaki/community-hub/internal/config"
	"github.com/Baaaki/community-hub/internal/handler"
	"github.com/Baaaki/community-hub/internal/middleware"
	"github.com/Baaaki/community-hub/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	Profile      *handler.ProfileHandler
	Discussion   *handler.DiscussionHandler
	Event        *handler.EventHandler
	Resource     *handler.ResourceHandler
	Message      *handler.MessageHandler
	Announcement *handler.AnnouncementHandler
	Admin        *handler.AdminHandler
	Notification *handler.NotificationHandler
}

// Options carries what the router needs beyond the handlers. Redis is
// optional; without it the auth routes are not rate limited.
type Options struct {
	Config      *config.Config
	AuthService *service.AuthService
	Redis       *redis.Client
	UploadRoot  string
}

// New builds the engine with middleware and every route mounted
func New(h Handlers, opts Options) *gin.Engine {
	cfg := opts.Config
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.HSTSMiddleware(cfg.IsProduction()))
	r.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))
	r.MaxMultipartMemory = cfg.MaxUploadSize

	r.GET("/healthz", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if h.Notification != nil {
			body["websocket_clients"] = h.Notification.ConnectedClients()
		}
		c.JSON(http.StatusOK, body)
	})
	r.Static(handler.UploadsPrefix, opts.UploadRoot)

	api := r.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	if opts.Redis != nil {
		limiter := middleware.NewRateLimiter(opts.Redis, middleware.RateLimiterConfig{
			MaxRequests: cfg.RateLimitMaxRequests,
			Window:      cfg.RateLimitWindow,
			Scope:       "auth",
		})
		auth.Use(limiter.Middleware())
	}
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/logout", h.Auth.Logout)

	// Protected routes (require JWT)
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(opts.AuthService))
	{
		protected.GET("/auth/me", h.Auth.Me)
		protected.GET("/ws", h.Notification.Stream)

		protected.GET("/profile", h.Profile.GetMine)
		protected.PUT("/profile", h.Profile.Update)
		protected.POST("/profile/photo", h.Profile.UploadPhoto)
		protected.GET("/users/:id/profile", h.Profile.GetUser)

		protected.GET("/discussions", h.Discussion.List)
		protected.GET("/discussions/categories", h.Discussion.Categories)
		protected.GET("/discussions/:id", h.Discussion.Get)
		protected.POST("/discussions", h.Discussion.Create)
		protected.DELETE("/discussions/:id", h.Discussion.Delete)
		protected.POST("/discussions/:id/comments", h.Discussion.AddComment)
		protected.DELETE("/comments/:id", h.Discussion.DeleteComment)

		protected.GET("/events", h.Event.List)
		protected.GET("/events/:id", h.Event.Get)
		protected.POST("/events", h.Event.Create)
		protected.DELETE("/events/:id", h.Event.Delete)
		protected.GET("/events/:id/rsvp", h.Event.MyRSVP)
		protected.PUT("/events/:id/rsvp", h.Event.RSVP)

		protected.GET("/resources", h.Resource.List)
		protected.GET("/resources/types", h.Resource.Types)
		protected.GET("/resources/:id", h.Resource.Get)
		protected.POST("/resources", h.Resource.Create)
		protected.POST("/resources/file", h.Resource.CreateFile)
		protected.DELETE("/resources/:id", h.Resource.Delete)

		protected.GET("/messages", h.Message.Conversations)
		protected.GET("/messages/unread", h.Message.UnreadCount)
		protected.GET("/messages/:userId", h.Message.Conversation)
		protected.POST("/messages", h.Message.Send)
		protected.DELETE("/messages/:id", h.Message.Delete)

		protected.GET("/announcements", h.Announcement.List)
		protected.GET("/announcements/:id", h.Announcement.Get)
	}

	admin := protected.Group("")
	admin.Use(middleware.AdminMiddleware())
	{
		admin.POST("/announcements", h.Announcement.Create)
		admin.DELETE("/announcements/:id", h.Announcement.Delete)

		admin.GET("/admin/users", h.Admin.ListUsers)
		admin.POST("/admin/users", h.Admin.CreateUser)
		admin.PUT("/admin/users/:id/role", h.Admin.SetRole)
		admin.PUT("/admin/users/:id/password", h.Admin.ResetPassword)
		admin.DELETE("/admin/users/:id", h.Admin.DeleteUser)
		admin.GET("/admin/integrity", h.Admin.IntegrityCheck)
		admin.POST("/admin/vacuum", h.Admin.Vacuum)
		admin.GET("/admin/stats", h.Admin.Stats)
		admin.GET("/admin/analytics", h.Admin.Analytics)
		admin.GET("/admin/audit", h.Admin.AuditLog)
		admin.POST("/admin/audit/prune", h.Admin.PruneAudit)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	cfg.AllowCredentials = true
	cfg.MaxAge = 12 * time.Hour

	for _, o := range origins {
		if o == "*" {
			// credentials cannot be combined with a wildcard origin
			cfg.AllowCredentials = false
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
