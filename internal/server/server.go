// Package server assembles the HTTP router shared by the serve command and HTTP tests.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventhub/backend/config"
	"github.com/eventhub/backend/internal/auth"
	"github.com/eventhub/backend/internal/comments"
	"github.com/eventhub/backend/internal/events"
	"github.com/eventhub/backend/internal/metrics"
	"github.com/eventhub/backend/internal/middleware"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/internal/realtime"
	"github.com/eventhub/backend/internal/rsvps"
	"github.com/eventhub/backend/pkg/response"
)

// Stores bundles the persistence backends the API runs on.
type Stores struct {
	Users    auth.UserStore
	Events   events.Store
	RSVPs    rsvps.Store
	Comments comments.Store
}

// Pinger reports backend health for GET /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries optional collaborators. Nil fields disable the feature.
type Deps struct {
	Notifier rsvps.Notifier
	Hub      *realtime.Hub
	DB       Pinger
}

// Server owns the router and the background state of its middleware.
type Server struct {
	router  *gin.Engine
	limiter *middleware.RateLimiter
	hub     *realtime.Hub
}

// New wires services and handlers onto a gin router.
func New(cfg *config.Config, stores Stores, deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	hub := deps.Hub
	if hub == nil {
		hub = realtime.NewHub(logger, nil, nil)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	hasher := auth.NewHasher(cfg.Server.BcryptCost)

	authSvc := auth.NewService(stores.Users, hasher, jwtService, logger)
	eventSvc := events.NewService(stores.Events, logger)
	rsvpSvc := rsvps.NewService(stores.RSVPs, stores.Events, deps.Notifier, logger)
	commentSvc := comments.NewService(stores.Comments, stores.Events, stores.Users, hub, logger)

	authHandler := auth.NewHandler(authSvc, logger)
	eventHandler := events.NewHandler(eventSvc, logger)
	rsvpHandler := rsvps.NewHandler(rsvpSvc, logger)
	commentHandler := comments.NewHandler(commentSvc, logger)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.PublicPerMinute, cfg.RateLimit.LoginPer15Minutes)
	requireAuth := middleware.JWT(jwtService.Caller)
	organizerOnly := func(message string) gin.HandlerFunc {
		return middleware.RequireRole(message, models.RoleOrganizer)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(metrics.Middleware())

	router.GET("/health", healthHandler(deps.DB))
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api")
	api.Use(limiter.Limit(middleware.TierPublic))
	{
		// Auth
		api.POST("/register", limiter.Limit(middleware.TierLogin), authHandler.Register)
		api.POST("/login", limiter.Limit(middleware.TierLogin), authHandler.Login)
		api.GET("/profile", requireAuth, authHandler.Profile)

		// Events
		api.GET("/events", eventHandler.List)
		api.POST("/events", requireAuth, organizerOnly(events.ErrOrganizersOnly.Message), eventHandler.Create)
		api.GET("/events/:id", eventHandler.Get)
		api.PUT("/events/:id", requireAuth, eventHandler.Update)
		api.DELETE("/events/:id", requireAuth, eventHandler.Delete)

		// RSVPs
		api.POST("/rsvp", requireAuth, rsvpHandler.Create)
		api.GET("/rsvp/:event_id", requireAuth, rsvpHandler.Status)
		api.DELETE("/rsvp/:event_id", requireAuth, rsvpHandler.Cancel)

		// Comments (live feed takes its token from the query string)
		api.GET("/events/:id/comments", commentHandler.List)
		api.POST("/events/:id/comments", requireAuth, commentHandler.Create)
		api.GET("/events/:id/comments/ws", realtime.ServeWs(hub, stores.Events, jwtService.Caller, logger))
		api.DELETE("/comments/:id", requireAuth, commentHandler.Delete)

		// Organizer dashboard
		api.GET("/organizer/events", requireAuth, organizerOnly(events.ErrOrganizerArea.Message), eventHandler.ListMine)
		api.GET("/organizer/events/:id/rsvps", requireAuth, rsvpHandler.Roster)
	}

	return &Server{router: router, limiter: limiter, hub: hub}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.limiter.Close()
	s.hub.Close()
}

func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
				return
			}
		}
		response.OK(c, gin.H{"status": "ok"})
	}
}
