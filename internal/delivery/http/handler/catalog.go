package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Pesokrava/perfume_storefront/internal/catalog"
	"github.com/Pesokrava/perfume_storefront/internal/delivery/http/request"
	"github.com/Pesokrava/perfume_storefront/internal/delivery/http/response"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
	catalogusecase "github.com/Pesokrava/perfume_storefront/internal/usecase/catalog"
)

// CatalogHandler handles HTTP requests for products and collections
type CatalogHandler struct {
	service *catalogusecase.Service
	logger  *logger.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service *catalogusecase.Service, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  log,
	}
}

// List handles GET /api/v1/products
// @Summary List products
// @Description List catalog products filtered by category, collection and search text, in the requested order.
// @Tags Products
// @Produce json
// @Param category query string false "men, women, unisex or all" default(all)
// @Param collection query string false "Collection id (signature, seasonal, luxury, ...)" default(all)
// @Param search query string false "Case-insensitive match on name or brand"
// @Param sort query string false "featured, price-asc, price-desc or new" default(featured)
// @Success 200 {object} map[string]interface{} "Filtered products"
// @Failure 502 {object} map[string]string "Product catalog is unavailable"
// @Router /products [get]
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := catalog.Query{
		Category:   q.Get("category"),
		Collection: q.Get("collection"),
		Search:     q.Get("search"),
		Sort:       q.Get("sort"),
	}

	products, err := h.service.ListProducts(r.Context(), query)
	if err != nil {
		writeError(w, h.logger, err, "Products not found")
		return
	}

	response.Success(w, products)
}

// GetByID handles GET /api/v1/products/:id
// @Summary Get a product
// @Description Get a single catalog product. Results are cached.
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} map[string]interface{} "Product details"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 502 {object} map[string]string "Product catalog is unavailable"
// @Router /products/{id} [get]
func (h *CatalogHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err, "Product not found")
		return
	}

	response.Success(w, product)
}

// Collections handles GET /api/v1/collections
// @Summary List collections
// @Description List the curated collections with a few sample products each.
// @Tags Products
// @Produce json
// @Param per_collection query int false "Sample products per collection" default(2)
// @Success 200 {object} map[string]interface{} "Collections with samples"
// @Failure 502 {object} map[string]string "Product catalog is unavailable"
// @Router /collections [get]
func (h *CatalogHandler) Collections(w http.ResponseWriter, r *http.Request) {
	perCollection := request.GetIntQuery(r, "per_collection", 2)

	samples, err := h.service.Collections(r.Context(), perCollection)
	if err != nil {
		writeError(w, h.logger, err, "Collections not found")
		return
	}

	response.Success(w, samples)
}
