package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Pesokrava/perfume_storefront/internal/config"
	"github.com/Pesokrava/perfume_storefront/internal/delivery/http/handler"
	"github.com/Pesokrava/perfume_storefront/internal/delivery/http/middleware"
	"github.com/Pesokrava/perfume_storefront/internal/delivery/http/response"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

const requestTimeout = 30 * time.Second

// Router holds HTTP handlers and router configuration
type Router struct {
	catalogHandler *handler.CatalogHandler
	cartHandler    *handler.CartHandler
	reviewHandler  *handler.ReviewHandler
	sessions       middleware.SessionSource
	tokens         middleware.TokenParser
	logger         *logger.Logger
	cfg            *config.Config
}

// NewRouter creates a new HTTP router
func NewRouter(
	catalogHandler *handler.CatalogHandler,
	cartHandler *handler.CartHandler,
	reviewHandler *handler.ReviewHandler,
	sessions middleware.SessionSource,
	tokens middleware.TokenParser,
	cfg *config.Config,
	log *logger.Logger,
) *Router {
	return &Router{
		catalogHandler: catalogHandler,
		cartHandler:    cartHandler,
		reviewHandler:  reviewHandler,
		sessions:       sessions,
		tokens:         tokens,
		logger:         log,
		cfg:            cfg,
	}
}

// Setup configures and returns the HTTP router
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logger(rt.logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.SessionHeader},
		ExposedHeaders:   []string{middleware.SessionHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", rt.healthCheck)
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(rt.tokens, rt.logger))

		r.Get("/collections", rt.catalogHandler.Collections)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", rt.catalogHandler.List)
			r.Get("/{id}", rt.catalogHandler.GetByID)
			r.Get("/{id}/reviews", rt.reviewHandler.GetByProductID)
			r.Get("/{id}/reviews/summary", rt.reviewHandler.Summary)
			r.With(middleware.RequireIdentity).Post("/{id}/reviews", rt.reviewHandler.Create)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(rt.sessions, rt.logger))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", rt.cartHandler.Get)
				r.Delete("/", rt.cartHandler.Clear)
				r.Post("/items", rt.cartHandler.AddItem)
				r.Put("/items/{productID}/{size}", rt.cartHandler.UpdateItem)
				r.Delete("/items/{productID}/{size}", rt.cartHandler.RemoveItem)
			})

			r.Delete("/session", rt.cartHandler.CloseSession)
		})
	})

	return r
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
