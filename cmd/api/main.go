package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viepratiqueservice-arch/Visela/internal/api"
	"github.com/viepratiqueservice-arch/Visela/internal/api/middleware"
	"github.com/viepratiqueservice-arch/Visela/internal/assistant"
	"github.com/viepratiqueservice-arch/Visela/internal/auth"
	"github.com/viepratiqueservice-arch/Visela/internal/checkout"
	"github.com/viepratiqueservice-arch/Visela/internal/command"
	"github.com/viepratiqueservice-arch/Visela/internal/config"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/kafka"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"github.com/viepratiqueservice-arch/Visela/internal/lock"
	"github.com/viepratiqueservice-arch/Visela/internal/logger"
	"github.com/viepratiqueservice-arch/Visela/internal/metrics"
	"github.com/viepratiqueservice-arch/Visela/internal/projection"
	"github.com/viepratiqueservice-arch/Visela/internal/query"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	log, err := logger.Init(logger.Config{Service: "api", Env: cfg.Server.Env, Level: cfg.Log.Level})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New(cfg.Metrics.Namespace)

	log.Info("starting",
		zap.Strings("kafka_brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("redis", cfg.Redis.Addr),
		zap.Bool("admin_gate", cfg.Debug.AdminGate),
	)

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	defer producer.Close()

	// Write side: events table
	db, err := store.ConnectPostgres(cfg.Database.URL)
	if err != nil {
		log.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer db.Close()

	eventStore := store.NewPostgresEventStore(db, producer, log)
	if err := eventStore.EnsureSchema(ctx); err != nil {
		log.Fatal("failed to prepare event schema", zap.Error(err))
	}

	// Read side: read_models documents
	gdb, err := store.OpenGorm(store.GormConfig{
		DSN:             cfg.Database.URL,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        store.GormLogLevel(cfg.Database.LogLevel),
	})
	if err != nil {
		log.Fatal("failed to open read database", zap.Error(err))
	}
	readStore := store.NewGormReadStore(gdb)
	if err := readStore.Migrate(); err != nil {
		log.Fatal("failed to migrate read database", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}

	cmdHandler := command.NewHandler(
		eventStore,
		readStore,
		command.NewServices(eventStore, log),
		checkout.NewRedisSessionStore(rdb, cfg.Redis.SessionTTL),
		lock.NewRedisLocker(rdb, cfg.Redis.LockTTL, log),
		m,
		log,
	)
	queryHandler := query.NewHandler(readStore, log)
	projector := projection.NewProjector(readStore, m, log)

	if err := replayEvents(ctx, eventStore, projector, log); err != nil {
		log.Fatal("failed to replay events", zap.Error(err))
	}

	if cfg.Admin.ClientID != "" {
		if _, _, err := cmdHandler.EnsureAdmin(ctx, cfg.Admin.ClientID, cfg.Admin.Name, cfg.Admin.PIN); err != nil {
			log.Fatal("failed to create admin", zap.Error(err))
		}
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, "api-projector", log)
	defer consumer.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := consumer.Consume(ctx, projector.HandleEvent); err != nil && ctx.Err() == nil {
			log.Error("projection consumer stopped", zap.Error(err))
		}
	}()

	var gen assistant.Generator
	if cfg.AI.APIKey != "" {
		gemini, err := assistant.NewGeminiGenerator(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			log.Fatal("failed to create Gemini client", zap.Error(err))
		}
		defer gemini.Close()
		gen = gemini
	} else {
		log.Warn("GEMINI_API_KEY not set, assistant answers with fallbacks")
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)

	router := api.NewRouter(api.RouterConfig{
		Handlers:       api.NewHandlers(cmdHandler, queryHandler, assistant.New(gen, cfg.AI.Timeout, log, m)),
		AuthHandlers:   api.NewAuthHandlers(cmdHandler, jwtService, readStore, cfg.JWT.SecureCookies, cfg.Debug.GateTTL),
		JWTService:     jwtService,
		Metrics:        m,
		Log:            log,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimiter:    middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
		AdminGate:      cfg.Debug.AdminGate,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server started", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}

	cancel()
	wg.Wait()
}

// replayEvents rebuilds the read models from the full event history.
func replayEvents(ctx context.Context, eventStore *store.PostgresEventStore, projector *projection.Projector, log *zap.Logger) error {
	start := time.Now()
	events, err := eventStore.GetAllEvents(ctx)
	if err != nil {
		return err
	}

	failed := 0
	for _, event := range events {
		if err := projector.Project(event); err != nil {
			failed++
			log.Error("replay failed", zap.String("event_id", event.ID), zap.String("type", event.EventType), zap.Error(err))
		}
	}
	log.Info("replay completed",
		zap.Int("events", len(events)),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}
