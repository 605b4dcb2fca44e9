package handler

import (
	"errors"
	"net/http"

	"github.com/Pesokrava/perfume_storefront/internal/catalog"
	"github.com/Pesokrava/perfume_storefront/internal/delivery/http/middleware"
	"github.com/Pesokrava/perfume_storefront/internal/delivery/http/response"
	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

// writeError maps service errors to HTTP responses
func writeError(w http.ResponseWriter, log *logger.Logger, err error, notFound string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, notFound)
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, domain.ErrUnauthenticated):
		response.Error(w, http.StatusUnauthorized, middleware.SignInPrompt)
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		log.Error("Catalog API unavailable", err)
		response.Error(w, http.StatusBadGateway, "Product catalog is unavailable")
	default:
		log.Error("Internal error", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
