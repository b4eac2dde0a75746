// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/omnidesk-io/omnichannel-engine/internal/bot"
	"github.com/omnidesk-io/omnichannel-engine/internal/callback"
	"github.com/omnidesk-io/omnichannel-engine/internal/closing"
	"github.com/omnidesk-io/omnichannel-engine/internal/config"
	"github.com/omnidesk-io/omnichannel-engine/internal/events"
	"github.com/omnidesk-io/omnichannel-engine/internal/handler"
	"github.com/omnidesk-io/omnichannel-engine/internal/messaging"
	"github.com/omnidesk-io/omnichannel-engine/internal/middleware"
	"github.com/omnidesk-io/omnichannel-engine/internal/model"
	natsclient "github.com/omnidesk-io/omnichannel-engine/internal/nats"
	"github.com/omnidesk-io/omnichannel-engine/internal/routing"
	"github.com/omnidesk-io/omnichannel-engine/internal/store"
	"github.com/omnidesk-io/omnichannel-engine/internal/transcript"
	"github.com/omnidesk-io/omnichannel-engine/pkg/logger"
	"github.com/omnidesk-io/omnichannel-engine/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting omnichannel engine")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "omnichannel-engine", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS
	nc, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer nc.Close()

	// Ensure JetStream stream exists
	streamManager := natsclient.NewStreamManager(nc)
	if err := streamManager.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure stream", zap.Error(err))
		os.Exit(1)
	}

	// Initialize stores (in-memory; swapped for a database in production)
	mem := store.NewMemory()
	if err := mem.Users.Save(ctx, &model.User{
		ID:       uuid.Must(uuid.NewV7()).String(),
		Username: cfg.Omnichannel.SystemUsername,
		Name:     "Omnidesk Bot",
		Roles:    []string{"bot"},
	}); err != nil {
		log.Error("failed to seed system account", zap.Error(err))
		os.Exit(1)
	}

	// Initialize bot reply client, if configured
	var botClient bot.Client
	if cfg.AnthropicAPIKey != "" || cfg.OpenAIAPIKey != "" {
		apiKey := cfg.AnthropicAPIKey
		provider := bot.Provider(cfg.BotProvider)
		if provider == bot.ProviderOpenAI {
			apiKey = cfg.OpenAIAPIKey
		}
		botClient, err = bot.NewClient(provider, apiKey)
		if err != nil {
			log.Warn("failed to create bot client, bot replies disabled", zap.Error(err))
		}
	}

	// Initialize core services
	callbacks := callback.New(log)
	callbacks.Register(events.HookCloseRoom, func(ctx context.Context, payload any) error {
		if p, ok := payload.(events.CloseRoomPayload); ok {
			log.Debug("close callback", zap.String("room_id", p.Room.ID))
		}
		return nil
	})
	callbacks.Register(events.HookTranscriptSent, func(ctx context.Context, payload any) error {
		if p, ok := payload.(events.TranscriptSentPayload); ok {
			log.Debug("transcript callback", zap.String("room_id", p.RoomID))
		}
		return nil
	})

	messenger := messaging.NewService(mem.Messages, streamManager, log)
	resolver := routing.NewResolver(mem.Departments, mem.Agents, log)
	coordinator := closing.NewCoordinator(
		mem.Rooms,
		mem.Inquiries,
		mem.Subscriptions,
		closing.NewTagResolver(mem.Departments),
		messenger,
		streamManager,
		callbacks,
		log,
	)
	generator := transcript.NewGenerator(
		mem.Visitors,
		mem.Rooms,
		mem.Messages,
		mem.Users,
		streamManager,
		messenger,
		callbacks,
		cfg.Omnichannel,
		log,
	)
	responder := bot.NewResponder(botClient, mem.Agents, mem.Messages, messenger, cfg.BotModel, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(nc)
	roomHandler := handler.NewRoomHandler(coordinator, mem.Users, log)
	livechatHandler := handler.NewLivechatHandler(
		coordinator,
		resolver,
		generator,
		messenger,
		responder,
		mem.Rooms,
		mem.Visitors,
		callbacks,
		cfg.Omnichannel,
		log,
	)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Agent surface, JWT-authenticated
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

			r.Post("/rooms/{id}/close", roomHandler.Close)
		})

		// Visitor surface, token-authenticated per request
		r.Route("/livechat", func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

			r.Get("/availability", livechatHandler.Availability)
			r.Post("/room.close", livechatHandler.CloseRoom)
			r.Post("/message", livechatHandler.SendMessage)
			r.Post("/transcript", livechatHandler.SendTranscript)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	// Drain deferred callbacks and bridge emissions before exit
	callbacks.Wait()

	log.Info("server stopped")
}
