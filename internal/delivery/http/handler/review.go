package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Pesokrava/perfume_storefront/internal/delivery/http/middleware"
	"github.com/Pesokrava/perfume_storefront/internal/delivery/http/request"
	"github.com/Pesokrava/perfume_storefront/internal/delivery/http/response"
	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
	"github.com/Pesokrava/perfume_storefront/internal/usecase/review"
)

// ReviewHandler handles HTTP requests for reviews
type ReviewHandler struct {
	service  *review.Service
	products ProductLookup
	logger   *logger.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service *review.Service, products ProductLookup, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service:  service,
		products: products,
		logger:   log,
	}
}

// productID resolves the {id} path parameter against the catalog. On failure
// the error response has been written and ok is false.
func (h *ReviewHandler) productID(w http.ResponseWriter, r *http.Request) (id string, ok bool) {
	id = chi.URLParam(r, "id")
	if _, err := h.products.GetProduct(r.Context(), id); err != nil {
		writeError(w, h.logger, err, "Product not found")
		return "", false
	}
	return id, true
}

// CreateReviewRequest represents the request body for creating a review
type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

// ReviewListResponse holds a product's reviews, newest first, and their summary
type ReviewListResponse struct {
	Reviews []domain.ReviewEntry `json:"reviews"`
	Summary domain.ReviewSummary `json:"summary"`
}

// Create handles POST /api/v1/products/:id/reviews
// @Summary Submit a review
// @Description Submit a review as the signed-in user. Publishes an event and invalidates the cached rating summary.
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param review body CreateReviewRequest true "Review"
// @Success 201 {object} map[string]interface{} "Review created successfully"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Sign in to leave a review"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 502 {object} map[string]string "Product catalog is unavailable"
// @Router /products/{id}/reviews [post]
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	author := middleware.IdentityFrom(r.Context())
	if !author.Authenticated() {
		writeError(w, h.logger, domain.ErrUnauthenticated, "")
		return
	}

	var req CreateReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	input := domain.ReviewInput{
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
	}

	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	entry, err := h.service.Submit(r.Context(), productID, author, input)
	if err != nil {
		writeError(w, h.logger, err, "Product not found")
		return
	}

	response.Created(w, entry)
}

// GetByProductID handles GET /api/v1/products/:id/reviews
// @Summary Get reviews for a product
// @Description Get every review of a product, newest first, with the average rating.
// @Tags Reviews
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} map[string]interface{} "Reviews and summary"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 502 {object} map[string]string "Product catalog is unavailable"
// @Router /products/{id}/reviews [get]
func (h *ReviewHandler) GetByProductID(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	entries, summary, err := h.service.List(r.Context(), productID)
	if err != nil {
		writeError(w, h.logger, err, "Product not found")
		return
	}

	response.Success(w, ReviewListResponse{Reviews: entries, Summary: summary})
}

// Summary handles GET /api/v1/products/:id/reviews/summary
// @Summary Get a product's rating summary
// @Description Average rating, review count and rounded stars. Served from the rating cache when warm.
// @Tags Reviews
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} map[string]interface{} "Rating summary"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 502 {object} map[string]string "Product catalog is unavailable"
// @Router /products/{id}/reviews/summary [get]
func (h *ReviewHandler) Summary(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Summary(r.Context(), productID)
	if err != nil {
		writeError(w, h.logger, err, "Product not found")
		return
	}

	response.Success(w, summary)
}
