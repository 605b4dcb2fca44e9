package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

const productJSON = `{
	"_id": "65f1c0",
	"name": "Midnight Oud",
	"brand": "Noir Collection",
	"price": 199.99,
	"sizes": [{"size": "50ml", "price": 199.99, "_id": "s1"}, {"size": "100ml", "price": 299.99}],
	"images": ["https://example.com/oud.jpg"],
	"category": "unisex",
	"featured": true,
	"new": false,
	"ratings": [{"username": "jd", "gmail": "jd@gmail.com", "rating": 5}],
	"avgRating": 5,
	"numRatings": 1,
	"__v": 0
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/api", 2*time.Second, logger.New("test"))
}

func TestClient_ListProducts_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"products": [`+productJSON+`]}`)
	})

	products, err := client.ListProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "65f1c0", products[0].ID)
	assert.Equal(t, domain.CategoryUnisex, products[0].Category)
	assert.True(t, decimal.RequireFromString("299.99").Equal(products[0].UnitPrice("100ml")))
	assert.Equal(t, "jd", products[0].Ratings[0].Username)
}

func TestClient_ListProducts_EmptyIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"products": []}`)
	})

	products, err := client.ListProducts(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, products)
}

func TestClient_ListProducts_MissingField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"items": []}`)
	})

	_, err := client.ListProducts(context.Background())

	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestClient_ListProducts_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	products, err := client.ListProducts(context.Background())

	assert.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.Nil(t, products)
}

func TestClient_ListProducts_MalformedJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"products": [`)
	})

	_, err := client.ListProducts(context.Background())

	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestClient_ListProducts_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client := NewClient(server.URL, time.Second, logger.New("test"))

	_, err := client.ListProducts(context.Background())

	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestClient_GetProduct_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/65f1c0", r.URL.Path)
		_, _ = io.WriteString(w, `{"product": `+productJSON+`}`)
	})

	product, err := client.GetProduct(context.Background(), "65f1c0")

	require.NoError(t, err)
	assert.Equal(t, "Midnight Oud", product.Name)
}

func TestClient_GetProduct_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetProduct(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_GetProduct_NullProduct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"product": null}`)
	})

	_, err := client.GetProduct(context.Background(), "gone")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_AddRating(t *testing.T) {
	var received RatingRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/products/65f1c0/rating", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"message": "ok"}`)
	})

	err := client.AddRating(context.Background(), "65f1c0", RatingRequest{
		Username: "jd",
		Gmail:    "jd@gmail.com",
		Rating:   4,
		Comment:  "Lovely",
	})

	require.NoError(t, err)
	assert.Equal(t, 4, received.Rating)
	assert.Equal(t, "jd@gmail.com", received.Gmail)
}

func TestClient_AddRating_Rejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	err := client.AddRating(context.Background(), "65f1c0", RatingRequest{Rating: 9})

	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}
