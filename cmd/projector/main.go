package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/viepratiqueservice-arch/Visela/internal/config"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/kafka"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"github.com/viepratiqueservice-arch/Visela/internal/logger"
	"github.com/viepratiqueservice-arch/Visela/internal/metrics"
	"github.com/viepratiqueservice-arch/Visela/internal/projection"
	"go.uber.org/zap"
)

// The projector keeps the shared read models current for deployments that
// run more than one API instance.
func main() {
	cfg := config.Load()
	log, err := logger.Init(logger.Config{Service: "projector", Env: cfg.Server.Env, Level: cfg.Log.Level})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumerGroup := os.Getenv("KAFKA_CONSUMER_GROUP")
	if consumerGroup == "" {
		consumerGroup = "projector"
	}
	log.Info("starting",
		zap.Strings("kafka_brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group", consumerGroup),
	)

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

	projector := projection.NewProjector(readStore, metrics.New(cfg.Metrics.Namespace), log)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, consumerGroup, log)
	defer consumer.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Consume(ctx, projector.HandleEvent); err != nil && ctx.Err() == nil {
			log.Error("consumer stopped", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-done:
	}

	log.Info("shutting down")
	cancel()
	<-done
}
