package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/adapter/ai/groq"
	"github.com/bafoka-labs/voicebank/internal/adapter/ai/whisper"
	"github.com/bafoka-labs/voicebank/internal/adapter/bank"
	"github.com/bafoka-labs/voicebank/internal/adapter/cache"
	"github.com/bafoka-labs/voicebank/internal/adapter/http/fiber/handlers"
	"github.com/bafoka-labs/voicebank/internal/adapter/http/fiber/middleware"
	"github.com/bafoka-labs/voicebank/internal/adapter/queue"
	filestore "github.com/bafoka-labs/voicebank/internal/adapter/storage/file"
	"github.com/bafoka-labs/voicebank/internal/adapter/storage/postgres"
	"github.com/bafoka-labs/voicebank/internal/adapter/vault"
	wsAdapter "github.com/bafoka-labs/voicebank/internal/adapter/websocket"
	"github.com/bafoka-labs/voicebank/internal/observability/telemetry"
	"github.com/bafoka-labs/voicebank/internal/ports"
	"github.com/bafoka-labs/voicebank/internal/service/assistant"
	"github.com/bafoka-labs/voicebank/internal/service/auth"
	"github.com/bafoka-labs/voicebank/internal/service/conversation"
	"github.com/bafoka-labs/voicebank/internal/service/email"
	"github.com/bafoka-labs/voicebank/internal/service/health"
	"github.com/bafoka-labs/voicebank/internal/service/whatsapp"
	"github.com/bafoka-labs/voicebank/pkg/config"
)

const serviceName = "voicebank"

func main() {
	// 1. Initialize Logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// 2. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Starting Bafoka voice banking service",
		zap.String("service", serviceName),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// 3. Vault overrides for secrets, when enabled
	if cfg.Vault.Enabled {
		applyVaultSecrets(cfg, logger)
	}

	// 4. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(serviceName, cfg.App.Version, cfg.OpenTelemetry.Jaeger.Endpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 5. Durable session backend (file or redis)
	sessionRepo := newSessionRepository(cfg, logger)
	defer sessionRepo.Close()

	// 6. Optional PostgreSQL turn archive
	var turnArchive ports.TurnArchive
	var turnAudit ports.TurnAuditLog
	if cfg.Database.URL != "" {
		db, err := postgres.NewConnection(cfg.Database.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer postgres.Close(db)

		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(db); err != nil {
				logger.Fatal("Failed to run migrations", zap.Error(err))
			}
		}
		archive := postgres.NewTurnArchive(db, logger)
		turnArchive = archive
		turnAudit = archive
	}

	// 7. Message Queue (NATS, RabbitMQ or disabled)
	messageQueue := newMessageQueue(cfg, logger)
	defer messageQueue.Close()

	// 8. Session core
	store := conversation.NewStore(sessionRepo, cfg.Session.Timeout, cfg.Session.IOTimeout, logger)
	conversationService := conversation.NewService(store, messageQueue, turnArchive, logger)

	// 9. External collaborators
	whisperClient := whisper.NewClient(cfg.Groq.APIKey, cfg.Groq.BaseURL, cfg.Whisper.Model, logger)
	groqClient := groq.NewClient(cfg.Groq.APIKey, cfg.Groq.BaseURL, cfg.Groq.Model, logger)
	bankClient := bank.NewClient(cfg.Bafoka.BaseURL, cfg.Bafoka.APIKey, cfg.Bafoka.Timeout, logger)

	// 10. Outbound channels
	replySender, err := whatsapp.NewService(whatsapp.Config{
		Provider:   cfg.WhatsApp.Provider,
		AccountSID: cfg.WhatsApp.AccountSID,
		AuthToken:  cfg.WhatsApp.AuthToken,
		FromPhone:  cfg.WhatsApp.FromPhone,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize WhatsApp service", zap.Error(err))
	}

	var alertNotifier ports.AlertNotifier
	if cfg.Notification.Email.Provider != "" {
		emailService, err := email.NewService(&email.Config{
			Provider:       cfg.Notification.Email.Provider,
			FromEmail:      cfg.Notification.Email.From,
			FromName:       cfg.Notification.Email.FromName,
			AlertEmail:     cfg.Notification.Email.AlertEmail,
			SendGridAPIKey: cfg.Notification.Email.APIKey,
			SMTPHost:       cfg.Notification.Email.SMTPHost,
			SMTPPort:       cfg.Notification.Email.SMTPPort,
			SMTPUsername:   cfg.Notification.Email.SMTPUsername,
			SMTPPassword:   cfg.Notification.Email.SMTPPassword,
			SMTPUseTLS:     cfg.Notification.Email.SMTPUseTLS,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize email service", zap.Error(err))
		}
		alertNotifier = emailService
	}

	// 11. Services (Business Logic Layer)
	assistantService := assistant.NewService(
		whisperClient, groqClient, bankClient,
		conversationService, replySender, alertNotifier,
		messageQueue, logger,
	)

	authClients := make([]auth.Client, 0, len(cfg.Auth.Clients))
	for _, c := range cfg.Auth.Clients {
		authClients = append(authClients, auth.Client{ID: c.ID, Name: c.Name, Secret: c.Secret, Role: c.Role})
	}
	authService := auth.NewService(authClients, cfg.JWT.Secret, cfg.JWT.TokenDuration, logger)

	healthService := health.NewService(&health.Config{
		Version:          cfg.App.Version,
		Sessions:         sessionRepo,
		QueueURL:         cfg.Queue.URL,
		GroqConfigured:   cfg.Groq.APIKey != "",
		BafokaConfigured: cfg.Bafoka.APIKey != "",
	}, logger)

	// 12. WebSocket hub for session event streaming
	wsHub := wsAdapter.NewHub()
	go wsHub.Run()
	sessionStream := wsAdapter.NewSessionStreamHandler(wsHub, logger)
	if err := sessionStream.BridgeQueue(messageQueue); err != nil {
		logger.Error("Failed to bridge queue to websocket hub", zap.Error(err))
	}

	// 13. Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		BodyLimit:             cfg.HTTP.BodyLimit,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	} else {
		app.Use(middleware.DefaultCORS())
	}
	if cfg.CircuitBreaker.Enabled {
		app.Use(middleware.CircuitBreaker(logger))
	}

	// Health Check Endpoints
	health.NewFiberHandler(healthService).RegisterRoutes(app)

	// Metrics endpoint for Prometheus
	if cfg.Prometheus.Enabled {
		promHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			promHandler(c.Context())
			return nil
		})
	}

	// API v1 Routes
	v1 := app.Group("/api/v1")

	// Auth routes (public)
	authHandler := handlers.NewAuthHandler(authService, logger)
	v1.Post("/auth/token", authHandler.IssueToken)

	// Protected routes
	protected := v1.Group("", middleware.AuthRequired(authService))
	protected.Get("/auth/me", authHandler.Me)

	// Voice routes
	voiceHandler := handlers.NewVoiceHandler(assistantService, logger)
	protected.Post("/voice/transcribe", voiceHandler.Transcribe)
	protected.Post("/voice/analyze", voiceHandler.Analyze)
	protected.Post("/voice/process-text", voiceHandler.ProcessText)
	protected.Post("/voice/process", voiceHandler.ProcessVoice)
	protected.Post("/voice/execute", voiceHandler.Execute)

	// Session routes
	sessionHandler := handlers.NewSessionHandler(conversationService, turnAudit, logger)
	protected.Get("/sessions/:user_id", sessionHandler.Get)
	protected.Get("/sessions/:user_id/pending", sessionHandler.GetPending)
	protected.Get("/sessions/:user_id/history", sessionHandler.History)
	protected.Delete("/sessions/:user_id", sessionHandler.Delete)

	// Session event stream WebSocket
	wsAdapter.SetupSessionRoutes(app, sessionStream)

	// 14. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 15. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

// newSessionRepository picks the durable session backend from config.
func newSessionRepository(cfg *config.Config, logger *zap.Logger) ports.SessionRepository {
	switch cfg.Session.Backend {
	case "redis":
		repo, err := cache.NewSessionRepository(cfg.Redis.URL, cfg.Session.Timeout, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis session backend", zap.Error(err))
		}
		return repo
	case "file", "":
		repo, err := filestore.NewSessionRepository(cfg.Session.Dir, logger)
		if err != nil {
			logger.Fatal("Failed to open file session backend", zap.Error(err))
		}
		return repo
	default:
		logger.Fatal("Unknown session backend", zap.String("backend", cfg.Session.Backend))
		return nil
	}
}

// newMessageQueue picks the event bus driver from config.
func newMessageQueue(cfg *config.Config, logger *zap.Logger) queue.MessageQueue {
	switch cfg.Queue.Driver {
	case "nats":
		mq, err := queue.NewNATSQueue(cfg.Queue.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		return mq
	case "rabbitmq":
		mq, err := queue.NewRabbitMQQueue(cfg.Queue.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		return mq
	case "none", "":
		logger.Info("Eventing disabled")
		return queue.NewNoop()
	default:
		logger.Fatal("Unknown queue driver", zap.String("driver", cfg.Queue.Driver))
		return nil
	}
}

// applyVaultSecrets overrides secret config values from Vault. A missing
// secret keeps whatever the environment provided.
func applyVaultSecrets(cfg *config.Config, logger *zap.Logger) {
	sm, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token)
	if err != nil {
		logger.Fatal("Failed to connect to Vault", zap.Error(err))
	}

	if key, err := sm.GetGroqAPIKey(); err == nil && key != "" {
		cfg.Groq.APIKey = key
	} else if err != nil {
		logger.Warn("Vault: groq key not available", zap.Error(err))
	}
	if key, err := sm.GetBafokaAPIKey(); err == nil && key != "" {
		cfg.Bafoka.APIKey = key
	} else if err != nil {
		logger.Warn("Vault: bafoka key not available", zap.Error(err))
	}
	if secret, err := sm.GetJWTSecret(); err == nil && secret != "" {
		cfg.JWT.Secret = secret
	} else if err != nil {
		logger.Warn("Vault: jwt secret not available", zap.Error(err))
	}
	if dsn, err := sm.GetDatabaseCredentials(); err == nil && dsn != "" {
		cfg.Database.URL = dsn
	} else if err != nil {
		logger.Warn("Vault: database credentials not available", zap.Error(err))
	}
}
