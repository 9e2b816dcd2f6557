package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/sparkreply/internal/config"
	"github.com/benvon/sparkreply/internal/database"
	"github.com/benvon/sparkreply/internal/generation"
	"github.com/benvon/sparkreply/internal/handlers"
	"github.com/benvon/sparkreply/internal/logger"
	"github.com/benvon/sparkreply/internal/metrics"
	"github.com/benvon/sparkreply/internal/middleware"
	"github.com/benvon/sparkreply/internal/queue"
	"github.com/benvon/sparkreply/internal/services/completion"
	"github.com/benvon/sparkreply/internal/services/identity"
	"github.com/benvon/sparkreply/internal/services/profile"
	"github.com/benvon/sparkreply/internal/telemetry"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const (
	dlqGCInterval  = time.Hour
	dlqGCRetention = 24 * time.Hour
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewForService(serviceName, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	if err := run(cfg, zapLogger, debugMode); err != nil {
		zapLogger.Fatal("server_failed", zap.Error(err))
	}
}

func run(cfg *config.Config, zapLogger *zap.Logger, debugMode bool) error {
	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("completion_model", cfg.CompletionModel),
		zap.Bool("completion_enabled", cfg.CompletionAPIKey != ""),
		zap.Bool("profile_enabled", cfg.ProfileAPIToken != ""),
		zap.Bool("persistence_enabled", cfg.PersistenceEnabled()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracerProvider := initTracing(ctx, cfg, zapLogger)
	if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := telemetry.Shutdown(shutdownCtx, tracerProvider); err != nil {
				zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
			}
		}()
	}

	collector := metrics.NewCollector()
	deps := routerDeps{
		cfg:     cfg,
		logger:  zapLogger,
		metrics: collector,
		tracing: tracerProvider != nil,
	}
	var checks []handlers.DependencyCheck

	// Persistence
	var sink generation.Sink
	var settingsStore generation.SettingsStore
	if cfg.PersistenceEnabled() {
		dsn, err := cfg.PersistenceDSN()
		if err != nil {
			return err
		}
		db, err := database.New(dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_database")

		generations := database.NewGenerationRepository(db)
		saved := database.NewSavedContentRepository(db)
		settings := database.NewUserSettingsRepository(db)

		deps.generations = generations
		deps.saved = saved
		deps.settings = settings
		deps.stats = database.NewStatsRepository(db)
		deps.users = database.NewUserRepository(db)
		settingsStore = settings
		sink = &generation.StoreSink{Generations: generations, Saved: saved}

		checks = append(checks, handlers.DependencyCheck{Name: "database", Critical: true, Check: db.PingContext})
	} else {
		zapLogger.Warn("persistence_not_configured_history_disabled")
	}

	// Persistence queue
	if cfg.RabbitMQURL != "" {
		jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_rabbitmq")

		sink = queue.NewSink(jobQueue)
		checks = append(checks, handlers.DependencyCheck{Name: "rabbitmq", Check: jobQueue.HealthCheck})

		dlqGC := queue.NewGarbageCollector(jobQueue, queue.SweepConfig{Interval: dlqGCInterval, Retention: dlqGCRetention}, zapLogger, collector)
		go func() {
			if err := dlqGC.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
	}

	var recorder *generation.AsyncRecorder
	if sink != nil {
		recorder = generation.NewAsyncRecorder(sink, zapLogger, collector)
	}

	// Rate limiting
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := middleware.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() {
			if err := client.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		redisClient = client
		zapLogger.Info("connected_to_redis")
		checks = append(checks, handlers.DependencyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
	}
	rateLimit, err := middleware.RateLimit(cfg.RateLimit, redisClient)
	if err != nil {
		return fmt.Errorf("failed to create rate limiter: %w", err)
	}
	deps.rateLimit = rateLimit

	// Identity
	var keys identity.KeySource
	if cfg.AuthJWKSURL != "" {
		keys = identity.NewJWKSCache(cfg.AuthJWKSURL, nil)
	}
	verifier, err := identity.NewVerifier(identity.Options{
		Keys:     keys,
		Secret:   cfg.AuthJWTSecret,
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
	})
	if err != nil {
		return fmt.Errorf("failed to create token verifier: %w", err)
	}
	deps.verifier = verifier

	// Generation
	completionProvider, err := newCompletionProvider(cfg, zapLogger, debugMode)
	if err != nil {
		return err
	}
	profileProvider := profile.NewTwitterClient(cfg.ProfileAPIToken, cfg.ProfileBaseURL, cfg.ProfileTimeout, zapLogger)
	checks = append(checks,
		handlers.DependencyCheck{Name: "completion", Check: configured(completionProvider.Name() != "disabled", "COMPLETION_API_KEY")},
		handlers.DependencyCheck{Name: "profile", Check: configured(cfg.ProfileAPIToken != "", "PROFILE_API_TOKEN")},
	)

	templates, err := generation.LoadTemplates(cfg.PromptTemplatesPath)
	if err != nil {
		return err
	}

	pipelineCfg := generation.Config{
		Profile:           generation.NewEnricher(profileProvider, cfg.ProfileTimeout, zapLogger, collector),
		Completion:        completionProvider,
		Templates:         templates,
		CompletionTimeout: cfg.CompletionTimeout,
		Logger:            zapLogger,
		Metrics:           collector,
	}
	if recorder != nil {
		pipelineCfg.Recorder = recorder
	}
	if settingsStore != nil {
		pipelineCfg.Settings = settingsStore
	}
	deps.generator = generation.NewPipeline(pipelineCfg)
	deps.health = handlers.NewHealthChecker(checks...)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout() + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	zapLogger.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}
	if recorder != nil {
		if err := recorder.Wait(shutdownCtx); err != nil {
			zapLogger.Warn("pending_persistence_writes_abandoned", zap.Error(err))
		}
	}

	zapLogger.Info("server_exited")
	return nil
}

func initTracing(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) *sdktrace.TracerProvider {
	if !cfg.OTELEnabled {
		return nil
	}
	if cfg.OTELEndpoint == "" {
		zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		return nil
	}
	tp, err := telemetry.InitTracer(ctx, serviceName, cfg.OTELEndpoint)
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		return nil
	}
	zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
	return tp
}

// newCompletionProvider returns the configured provider, or completion.Disabled when no
// API key is set so generate requests fail with generation_failed instead of at startup.
func newCompletionProvider(cfg *config.Config, zapLogger *zap.Logger, debugMode bool) (completion.Provider, error) {
	provider, err := completion.NewProviderRegistry().GetProvider("openrouter", completion.Settings{
		APIKey:    cfg.CompletionAPIKey,
		BaseURL:   cfg.CompletionBaseURL,
		Model:     cfg.CompletionModel,
		Referer:   cfg.CompletionReferer,
		Timeout:   cfg.CompletionTimeout,
		DebugMode: debugMode,
	}, completion.WithLogger(zapLogger))
	if errors.Is(err, completion.ErrNotConfigured) {
		zapLogger.Warn("completion_not_configured_generation_disabled")
		return completion.Disabled{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create completion provider: %w", err)
	}
	return provider, nil
}

func configured(ok bool, envVar string) func(context.Context) error {
	return func(context.Context) error {
		if !ok {
			return fmt.Errorf("%s is not set", envVar)
		}
		return nil
	}
}
