package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/Pesokrava/perfume_storefront/internal/catalog"
	"github.com/Pesokrava/perfume_storefront/internal/config"
	"github.com/Pesokrava/perfume_storefront/internal/delivery/events"
	httpDelivery "github.com/Pesokrava/perfume_storefront/internal/delivery/http"
	"github.com/Pesokrava/perfume_storefront/internal/delivery/http/handler"
	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/auth"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/cache"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/database"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
	cacheRepo "github.com/Pesokrava/perfume_storefront/internal/repository/cache"
	"github.com/Pesokrava/perfume_storefront/internal/repository/memory"
	"github.com/Pesokrava/perfume_storefront/internal/repository/postgres"
	catalogusecase "github.com/Pesokrava/perfume_storefront/internal/usecase/catalog"
	"github.com/Pesokrava/perfume_storefront/internal/usecase/review"
	"github.com/Pesokrava/perfume_storefront/internal/usecase/session"

	_ "github.com/Pesokrava/perfume_storefront/docs"
)

// @title Fragrance Storefront API
// @version 1.0
// @description Catalog browsing, session carts and product reviews for a fragrance storefront.

// @contact.name API Support
// @contact.url http://github.com/Pesokrava/perfume_storefront

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @tag.name Products
// @tag.description Catalog browsing endpoints

// @tag.name Cart
// @tag.description Session cart endpoints

// @tag.name Reviews
// @tag.description Product review endpoints

const (
	connectAttempts = 10
	connectDelay    = 2 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env)
	logger.SetGlobalLogger(appLogger)
	appLogger.Info("Starting storefront API...")

	ctx := context.Background()

	appLogger.Info("Connecting to Redis...")
	redisClient, err := cache.WaitForRedis(ctx, cfg, connectAttempts, connectDelay, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()

	stateStore, closeStore, err := openStateStore(ctx, cfg, redisClient, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open state store", err)
	}
	defer closeStore()

	appLogger.Infof("Connecting to %s event broker...", cfg.Events.Driver)
	publisher, err := events.NewPublisher(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create event publisher", err)
	}
	defer publisher.Close()

	redisCache := cacheRepo.NewRedisCache(
		redisClient,
		cfg.Cache.ProductListTTL,
		cfg.Cache.ProductTTL,
		cfg.Cache.RatingSummaryTTL,
	)

	catalogClient := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, appLogger.Component("catalog"))
	catalogService := catalogusecase.NewService(catalogClient, redisCache, appLogger)

	var reviewBackend domain.ReviewBackend
	if cfg.Reviews.Mode == config.ReviewsRemote {
		reviewBackend = review.NewRemoteBackend(catalogClient, appLogger)
	} else {
		reviewBackend = review.NewLocalBackend(stateStore, appLogger)
	}
	reviewService := review.NewService(reviewBackend, redisCache, publisher, appLogger.Component("reviews"))

	sessions := session.NewManager(
		stateStore,
		catalogService,
		publisher,
		appLogger.Component("sessions"),
		session.WithIdleTTL(cfg.Session.IdleTTL),
	)
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go sessions.RunJanitor(janitorCtx, cfg.Session.SweepInterval)
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)

	catalogHandler := handler.NewCatalogHandler(catalogService, appLogger)
	cartHandler := handler.NewCartHandler(catalogService, sessions, appLogger)
	reviewHandler := handler.NewReviewHandler(reviewService, catalogService, appLogger)

	router := httpDelivery.NewRouter(catalogHandler, cartHandler, reviewHandler, sessions, verifier, cfg, appLogger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.WithFields(map[string]interface{}{
			"port":         cfg.Server.Port,
			"storage":      cfg.Storage.Backend,
			"reviews_mode": cfg.Reviews.Mode,
			"catalog":      cfg.Catalog.BaseURL,
		}).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	stopJanitor()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}

	appLogger.Info("Server stopped gracefully")
}

// openStateStore returns the configured session state backend and its cleanup
func openStateStore(ctx context.Context, cfg *config.Config, redisClient *redis.Client, log *logger.Logger) (domain.StateStore, func(), error) {
	switch cfg.Storage.Backend {
	case config.StorageRedis:
		log.Info("Using Redis state store")
		return cacheRepo.NewRedisStateStore(redisClient), func() {}, nil

	case config.StoragePostgres:
		log.Info("Connecting to PostgreSQL...")
		db, err := database.WaitForDB(ctx, cfg, connectAttempts, connectDelay, log)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(ctx, db, database.DefaultMigrationsDir); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info("Using PostgreSQL state store")
		return postgres.NewStateStore(db), closeDB(db, log), nil

	default:
		log.Warn("Using in-memory state store; carts and reviews are lost on restart")
		return memory.NewStateStore(), func() {}, nil
	}
}

func closeDB(db *sqlx.DB, log *logger.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", err)
		}
	}
}
