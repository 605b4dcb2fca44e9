package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Pesokrava/perfume_storefront/internal/config"
	"github.com/Pesokrava/perfume_storefront/internal/delivery/events"
	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

const kafkaGroup = "storefront-notifier"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env).Component("notifier")
	appLogger.Infof("Starting notifier service on %s...", cfg.Events.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle := events.LoggingHandler(appLogger)

	if cfg.Events.Driver == config.EventsKafka {
		runKafka(ctx, cfg, appLogger, handle)
	} else {
		runNATS(ctx, cfg, appLogger, handle)
	}

	appLogger.Info("Notifier service stopped")
}

func runNATS(ctx context.Context, cfg *config.Config, log *logger.Logger, handle func([]byte) error) {
	consumer, err := events.NewConsumer(cfg, log)
	if err != nil {
		log.Fatal("Failed to create NATS consumer", err)
	}
	defer consumer.Close()

	if err := consumer.Subscribe(events.StreamSubjects, handle); err != nil {
		log.Fatalf(err, "Failed to subscribe to %s", events.StreamSubjects)
	}

	<-ctx.Done()
}

// runKafka reads both storefront topics until ctx ends
func runKafka(ctx context.Context, cfg *config.Config, log *logger.Logger, handle func([]byte) error) {
	subjects := []string{domain.SubjectCart, domain.SubjectReviews}
	done := make(chan struct{}, len(subjects))

	for _, subject := range subjects {
		subject := subject
		consumer := events.NewKafkaConsumer(cfg.Kafka.Brokers, kafkaGroup, subject, log)
		go func() {
			defer func() { done <- struct{}{} }()
			defer consumer.Close()

			if err := consumer.Run(ctx, handle); err != nil {
				log.Errorf(err, "Kafka consumer for %s stopped", subject)
			}
		}()
	}

	for range subjects {
		<-done
	}
}
