package api

import (
	"net/http"

	"github.com/Rrens/collab-gateway/internal/api/handler"
	customMiddleware "github.com/Rrens/collab-gateway/internal/api/middleware"
	"github.com/Rrens/collab-gateway/internal/config"
	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/Rrens/collab-gateway/internal/realtime"
	"github.com/Rrens/collab-gateway/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxRequestBody leaves room for hex-wrapped snapshots of the largest accepted size
const maxRequestBody = 6 << 20

// Services groups the components the HTTP and realtime surfaces dispatch to
type Services struct {
	Gate        *service.IdentityGate
	Oracle      *service.MembershipOracle
	Documents   *service.DocumentStore
	Whiteboard  *service.WhiteboardCache
	Chat        *service.ChatService
	Boards      *service.BoardService
	Profiles    *service.ProfileService
	Hub         *realtime.Hub
	HTTPBuckets domain.BucketStore
	Ready       map[string]handler.Pinger
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, svc *Services) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(customMiddleware.SecurityHeaders)
	if cfg.Metrics.Enabled {
		r.Use(customMiddleware.Metrics)
	}

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Handlers
	documentHandler := handler.NewDocumentHandler(svc.Documents)
	messageHandler := handler.NewMessageHandler(svc.Chat)
	profileHandler := handler.NewProfileHandler(svc.Profiles)
	boardHandler := handler.NewBoardHandler(svc.Boards)
	realtimeRouter := realtime.NewRouter(
		cfg.Realtime,
		svc.Gate,
		svc.Oracle,
		svc.Chat,
		svc.Boards,
		svc.Whiteboard,
		svc.Hub,
	)

	authMiddleware := customMiddleware.NewAuthMiddleware(svc.Gate)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(
		svc.HTTPBuckets,
		cfg.Limits.HTTPRequests,
		cfg.Limits.HTTPWindow,
	)

	// Public routes
	r.Get("/health", handler.HealthCheck)
	r.Get("/ready", handler.ReadyCheck(svc.Ready))
	r.Get("/version", handler.Version(cfg.Version))
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	// Realtime authenticates its own handshake and outlives request timeouts
	r.Get("/ws", realtimeRouter.ServeHTTP)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))
		r.Use(customMiddleware.MaxBodySize(maxRequestBody))
		r.Use(authMiddleware.Authenticate)
		r.Use(rateLimitMiddleware.Limit)

		r.Get("/profiles", profileHandler.List)

		r.Route("/workspaces/{workspaceID}", func(r chi.Router) {
			r.Use(customMiddleware.WorkspaceMember(svc.Oracle))

			r.Get("/messages", messageHandler.List)
			r.Get("/board", boardHandler.Get)
			r.Post("/documents/{documentID}/snapshots", documentHandler.CreateSnapshot)
			r.Get("/documents/{documentID}/snapshots/latest", documentHandler.LatestSnapshot)
		})

		r.Route("/documents/{documentID}", func(r chi.Router) {
			r.Use(customMiddleware.DocumentMember(svc.Documents, svc.Oracle))

			r.Get("/state", documentHandler.GetState)
			r.Post("/state", documentHandler.PostState)
			r.Get("/state/vector", documentHandler.GetStateVector)
		})
	})

	return r
}
