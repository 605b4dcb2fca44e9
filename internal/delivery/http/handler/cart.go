package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Pesokrava/perfume_storefront/internal/delivery/http/middleware"
	"github.com/Pesokrava/perfume_storefront/internal/delivery/http/request"
	"github.com/Pesokrava/perfume_storefront/internal/delivery/http/response"
	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/validator"
)

// NoSize stands in for an empty size in item paths
const NoSize = "-"

// ProductLookup resolves a product id to the current catalog product
type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// SessionCloser ends a shopper session
type SessionCloser interface {
	Close(ctx context.Context, id string) error
}

// CartHandler handles HTTP requests for the session cart
type CartHandler struct {
	products ProductLookup
	sessions SessionCloser
	logger   *logger.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(products ProductLookup, sessions SessionCloser, log *logger.Logger) *CartHandler {
	return &CartHandler{
		products: products,
		sessions: sessions,
		logger:   log,
	}
}

// AddItemRequest represents the request body for adding a cart item
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Size      string `json:"size" validate:"max=50"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=99"`
}

// UpdateQuantityRequest represents the request body for changing a line quantity
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=99"`
}

// CartResponse is the cart state plus the notifications produced since the last response
type CartResponse struct {
	Cart          domain.CartSnapshot   `json:"cart"`
	Notifications []domain.Notification `json:"notifications"`
}

// Get handles GET /api/v1/cart
// @Summary Get the cart
// @Description Get the session cart with its totals and pending notifications.
// @Tags Cart
// @Produce json
// @Param X-Session-ID header string false "Shopper session id"
// @Success 200 {object} map[string]interface{} "Cart"
// @Router /cart [get]
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK)
}

// AddItem handles POST /api/v1/cart/items
// @Summary Add an item to the cart
// @Description Add a product in a size; an existing line for the same product and size is incremented.
// @Tags Cart
// @Accept json
// @Produce json
// @Param X-Session-ID header string false "Shopper session id"
// @Param item body AddItemRequest true "Item to add"
// @Success 201 {object} map[string]interface{} "Updated cart"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 502 {object} map[string]string "Product catalog is unavailable"
// @Router /cart/items [post]
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validator.Get().Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid input: "+strings.Join(validator.Fields(err), ", "))
		return
	}

	product, err := h.products.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, h.logger, err, "Product not found")
		return
	}

	sess := middleware.SessionFrom(r.Context())
	if err := sess.Cart.AddItem(r.Context(), product, req.Size, req.Quantity); err != nil {
		writeError(w, h.logger, err, "Product not found")
		return
	}

	h.respond(w, r, http.StatusCreated)
}

// UpdateItem handles PUT /api/v1/cart/items/:productID/:size
// @Summary Change an item quantity
// @Description Replace the quantity of a cart line. A quantity of 0 removes the line. Use "-" for an item without size.
// @Tags Cart
// @Accept json
// @Produce json
// @Param X-Session-ID header string false "Shopper session id"
// @Param productID path string true "Product ID"
// @Param size path string true "Size, or - for none"
// @Param item body UpdateQuantityRequest true "New quantity"
// @Success 200 {object} map[string]interface{} "Updated cart"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Router /cart/items/{productID}/{size} [put]
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validator.Get().Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid input: "+strings.Join(validator.Fields(err), ", "))
		return
	}

	productID, size := itemParams(r)
	middleware.SessionFrom(r.Context()).Cart.UpdateQuantity(r.Context(), productID, size, req.Quantity)

	h.respond(w, r, http.StatusOK)
}

// RemoveItem handles DELETE /api/v1/cart/items/:productID/:size
// @Summary Remove an item
// @Description Remove a cart line. Removing an absent line succeeds without changes. Use "-" for an item without size.
// @Tags Cart
// @Produce json
// @Param X-Session-ID header string false "Shopper session id"
// @Param productID path string true "Product ID"
// @Param size path string true "Size, or - for none"
// @Success 200 {object} map[string]interface{} "Updated cart"
// @Router /cart/items/{productID}/{size} [delete]
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, size := itemParams(r)
	middleware.SessionFrom(r.Context()).Cart.RemoveItem(r.Context(), productID, size)

	h.respond(w, r, http.StatusOK)
}

// Clear handles DELETE /api/v1/cart
// @Summary Clear the cart
// @Description Remove every line from the session cart.
// @Tags Cart
// @Produce json
// @Param X-Session-ID header string false "Shopper session id"
// @Success 200 {object} map[string]interface{} "Empty cart"
// @Router /cart [delete]
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	middleware.SessionFrom(r.Context()).Cart.ClearCart(r.Context())

	h.respond(w, r, http.StatusOK)
}

// CloseSession handles DELETE /api/v1/session
// @Summary End the session
// @Description Forget the live session. The persisted cart stays available under the same id.
// @Tags Cart
// @Param X-Session-ID header string true "Shopper session id"
// @Success 204 "Session closed"
// @Router /session [delete]
func (h *CartHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFrom(r.Context())
	if err := h.sessions.Close(r.Context(), sess.ID); err != nil {
		writeError(w, h.logger, err, "Session not found")
		return
	}

	w.Header().Del(middleware.SessionHeader)
	response.NoContent(w)
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, status int) {
	sess := middleware.SessionFrom(r.Context())

	body := CartResponse{
		Cart:          sess.Cart.Snapshot(),
		Notifications: sess.Notifications(),
	}

	if status == http.StatusCreated {
		response.Created(w, body)
		return
	}
	response.Success(w, body)
}

func itemParams(r *http.Request) (productID, size string) {
	productID = chi.URLParam(r, "productID")
	size = chi.URLParam(r, "size")
	if size == NoSize {
		size = ""
	}
	return productID, size
}
