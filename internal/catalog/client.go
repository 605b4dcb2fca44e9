package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

// ErrCatalogUnavailable wraps every failure to reach or understand the remote catalog.
// Callers get it instead of an empty collection, so "no products" and
// "catalog down" stay distinguishable.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

const maxResponseBodySize = 4 << 20 // 4MB

// RatingRequest is the body of POST /products/{id}/rating
type RatingRequest struct {
	Username string `json:"username"`
	Gmail    string `json:"gmail"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

type listResponse struct {
	Products *[]domain.Product `json:"products"`
}

type productResponse struct {
	Product *domain.Product `json:"product"`
}

// Client talks to the remote product catalog API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a catalog client for baseURL (e.g. https://host/api)
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// ListProducts fetches the whole product collection
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var body listResponse
	if err := c.do(ctx, http.MethodGet, "/products", nil, &body); err != nil {
		return nil, err
	}

	if body.Products == nil {
		return nil, fmt.Errorf("%w: response has no products field", ErrCatalogUnavailable)
	}

	return *body.Products, nil
}

// GetProduct fetches a single product; unknown ids yield domain.ErrNotFound
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}

	var body productResponse
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &body); err != nil {
		return nil, err
	}

	if body.Product == nil {
		return nil, domain.ErrNotFound
	}

	return body.Product, nil
}

// AddRating relays a rating to the catalog
func (c *Client) AddRating(ctx context.Context, productID string, rating RatingRequest) error {
	payload, err := json.Marshal(rating)
	if err != nil {
		return fmt.Errorf("failed to encode rating: %w", err)
	}

	path := "/products/" + url.PathEscape(productID) + "/rating"
	return c.do(ctx, http.MethodPost, path, payload, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%w: failed to build request: %v", ErrCatalogUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorf(err, "Catalog request %s %s failed", method, path)
		return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warnf("Catalog request %s %s returned %d", method, path, resp.StatusCode)
		return fmt.Errorf("%w: unexpected status %d", ErrCatalogUnavailable, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodySize))
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodySize)).Decode(out); err != nil {
		c.logger.Errorf(err, "Failed to decode catalog response for %s %s", method, path)
		return fmt.Errorf("%w: failed to decode response: %v", ErrCatalogUnavailable, err)
	}

	return nil
}
