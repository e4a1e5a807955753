package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/collab-gateway/internal/api"
	"github.com/Rrens/collab-gateway/internal/api/handler"
	"github.com/Rrens/collab-gateway/internal/config"
	"github.com/Rrens/collab-gateway/internal/crdt"
	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/Rrens/collab-gateway/internal/realtime"
	"github.com/Rrens/collab-gateway/internal/repository/memory"
	"github.com/Rrens/collab-gateway/internal/repository/postgres"
	"github.com/Rrens/collab-gateway/internal/repository/redis"
	"github.com/Rrens/collab-gateway/internal/security"
	"github.com/Rrens/collab-gateway/internal/service"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.Logging)

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("version", cfg.Version).
		Msg("Starting collaboration gateway")

	// Initialize database
	db, err := postgres.NewDB(context.Background(), cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Initialize Redis when enabled; otherwise every shared structure stays process-local
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
	} else {
		log.Warn().Msg("Redis disabled: rate limits, whiteboard cache and broadcasts are per process")
	}

	svc, err := buildServices(cfg, db, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	// Whiteboard sweeper lives as long as the server
	svc.Whiteboard.Start(context.Background())
	defer svc.Whiteboard.Stop()

	// Initialize router
	router := api.NewRouter(cfg, svc)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func setupLogger(cfg config.LoggingConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func buildServices(cfg *config.Config, db *postgres.DB, redisClient *redis.Client) (*api.Services, error) {
	// Identity
	var verifier service.Verifier
	switch cfg.Auth.Provider {
	case config.AuthProviderRemote:
		verifier = security.NewRemoteVerifier(cfg.Auth.IdentityURL, cfg.Auth.IdentityAPIKey, cfg.Auth.IdentityTimeout)
	case config.AuthProviderJWT:
		verifier = security.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTAudience, cfg.Auth.JWTIssuer)
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Auth.Provider)
	}

	// Repositories
	workspaceRepo := postgres.NewWorkspaceRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	boardRepo := postgres.NewBoardRepository(db)
	documentRepo := postgres.NewDocumentRepository(db)

	// Shared stores
	var (
		chatBuckets domain.BucketStore
		httpBuckets domain.BucketStore
		whiteboards domain.WhiteboardStore
		broker      domain.Broker
	)
	ready := map[string]handler.Pinger{"postgres": db}

	if redisClient != nil {
		chatBuckets = redis.NewBucketStore(redisClient, "chat")
		httpBuckets = redis.NewBucketStore(redisClient, "http")
		whiteboards = redis.NewWhiteboardStore(redisClient)
		broker = redis.NewBroker(redisClient, cfg.Redis.ChannelPrefix)
		ready["redis"] = redisClient
	} else {
		chatBuckets = memory.NewBucketStore()
		httpBuckets = memory.NewBucketStore()
		whiteboards = memory.NewWhiteboardStore()
		broker = realtime.NewLocalBroker()
	}

	limiter := service.NewChatRateLimiter(chatBuckets, cfg.Limits.ChatMessages, cfg.Limits.ChatWindow)

	return &api.Services{
		Gate:        service.NewIdentityGate(verifier),
		Oracle:      service.NewMembershipOracle(workspaceRepo),
		Documents:   service.NewDocumentStore(documentRepo, crdt.UpdateSet{}, cfg.Limits.SnapshotRetention),
		Whiteboard:  service.NewWhiteboardCache(whiteboards, cfg.Limits.WhiteboardTTL, cfg.Limits.WhiteboardSweepInterval),
		Chat:        service.NewChatService(messageRepo, limiter, cfg.Limits.MessagePageDefault, cfg.Limits.MessagePageMax),
		Boards:      service.NewBoardService(boardRepo),
		Profiles:    service.NewProfileService(profileRepo),
		Hub:         realtime.NewHub(broker),
		HTTPBuckets: httpBuckets,
		Ready:       ready,
	}, nil
}
