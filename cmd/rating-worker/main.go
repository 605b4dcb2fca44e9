package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/Pesokrava/perfume_storefront/internal/catalog"
	"github.com/Pesokrava/perfume_storefront/internal/config"
	"github.com/Pesokrava/perfume_storefront/internal/delivery/events"
	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/cache"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/database"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
	cacheRepo "github.com/Pesokrava/perfume_storefront/internal/repository/cache"
	"github.com/Pesokrava/perfume_storefront/internal/repository/postgres"
	"github.com/Pesokrava/perfume_storefront/internal/usecase/review"
	"github.com/Pesokrava/perfume_storefront/internal/worker"
)

const (
	connectAttempts = 10
	connectDelay    = 2 * time.Second
	shutdownTimeout = 30 * time.Second
)

var errUnsharedStore = errors.New("STORAGE_BACKEND=memory lives inside the API process")

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env).Component("rating-worker")
	appLogger.Info("Starting rating worker...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := cache.WaitForRedis(ctx, cfg, connectAttempts, connectDelay, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()

	redisCache := cacheRepo.NewRedisCache(
		redisClient,
		cfg.Cache.ProductListTTL,
		cfg.Cache.ProductTTL,
		cfg.Cache.RatingSummaryTTL,
	)

	reviews := reviewSource(ctx, cfg, redisClient, appLogger)
	ratingWorker := worker.NewRatingWorker(worker.NewCalculator(reviews, redisCache, appLogger), appLogger)

	if cfg.Events.Driver == config.EventsKafka {
		consumer := events.NewKafkaConsumer(cfg.Kafka.Brokers, events.RatingConsumer, domain.SubjectReviews, appLogger)
		defer consumer.Close()

		if err := consumer.Run(ctx, ratingWorker.HandleEvent); err != nil {
			appLogger.Error("Kafka consumer stopped", err)
		}
	} else {
		consumeNATS(ctx, cfg, ratingWorker, appLogger)
	}

	appLogger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := ratingWorker.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Error during shutdown", err)
	}

	appLogger.Info("Rating worker stopped")
}

// reviewSource reads reviews from wherever the API persists them
func reviewSource(ctx context.Context, cfg *config.Config, redisClient *redis.Client, log *logger.Logger) domain.ReviewBackend {
	if cfg.Reviews.Mode == config.ReviewsRemote {
		return review.NewRemoteBackend(catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, log), log)
	}

	switch cfg.Storage.Backend {
	case config.StorageRedis:
		return review.NewLocalBackend(cacheRepo.NewRedisStateStore(redisClient), log)
	case config.StoragePostgres:
		db, err := database.WaitForDB(ctx, cfg, connectAttempts, connectDelay, log)
		if err != nil {
			log.Fatal("Failed to connect to database", err)
		}
		return review.NewLocalBackend(postgres.NewStateStore(db), log)
	default:
		log.Fatal("Rating worker needs a shared review store", errUnsharedStore)
		return nil
	}
}

func consumeNATS(ctx context.Context, cfg *config.Config, ratingWorker *worker.RatingWorker, log *logger.Logger) {
	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("storefront-rating-worker"))
	if err != nil {
		log.Fatal("Failed to connect to NATS", err)
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		log.Fatal("Failed to create JetStream context", err)
	}

	streams := events.NewStreamConfig(js, log)
	if err := streams.EnsureStream(); err != nil {
		log.Fatal("Failed to ensure stream", err)
	}
	if err := streams.EnsureRatingConsumer(); err != nil {
		log.Fatal("Failed to ensure consumer", err)
	}

	sub, err := js.PullSubscribe(domain.SubjectReviews, events.RatingConsumer, nats.ManualAck())
	if err != nil {
		log.Fatal("Failed to subscribe to JetStream consumer", err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			log.Error("Failed to unsubscribe from JetStream", err)
		}
	}()

	log.WithFields(map[string]any{
		"stream":   events.StreamName,
		"consumer": events.RatingConsumer,
	}).Info("Subscribed to JetStream consumer")

	worker.ConsumeJetStream(ctx, sub, ratingWorker.HandleEvent, log)
}
