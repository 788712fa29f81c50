package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/viepratiqueservice-arch/Visela/internal/config"
	"github.com/viepratiqueservice-arch/Visela/internal/email"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/kafka"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"github.com/viepratiqueservice-arch/Visela/internal/logger"
	"github.com/viepratiqueservice-arch/Visela/internal/metrics"
	"github.com/viepratiqueservice-arch/Visela/internal/notification"
	"github.com/viepratiqueservice-arch/Visela/internal/settings"
	"go.uber.org/zap"
)

const consumerGroup = "email-notifier"

func main() {
	cfg := config.Load()
	log, err := logger.Init(logger.Config{Service: "notifier", Env: cfg.Server.Env, Level: cfg.Log.Level})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting",
		zap.Strings("kafka_brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group", consumerGroup),
		zap.String("smtp_host", cfg.SMTP.Host),
		zap.Int("smtp_port", cfg.SMTP.Port),
	)

	// Recipients are looked up in the user read models.
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

	sender := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, cfg.SMTP.FromName)
	emailSvc := email.NewService(sender, settings.Defaults().CurrencySymbol)
	handler := notification.NewHandler(emailSvc, readStore, metrics.New(cfg.Metrics.Namespace), log)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, consumerGroup, log)
	defer consumer.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && ctx.Err() == nil {
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
