package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/makerforge/api/internal/config"
	"github.com/makerforge/api/internal/model"
)

// StorefrontClient handles communication with the Shopify Admin products API
type StorefrontClient struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	limit       int

	// products change rarely, cache the first successful fetch for the
	// process lifetime; failed fetches are retried on the next call
	mu       sync.Mutex
	cached   []model.Product
	cachedAt time.Time
}

// NewStorefrontClient creates a new storefront API client
func NewStorefrontClient(cfg *config.StorefrontConfig) *StorefrontClient {
	return &StorefrontClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		limit:       cfg.ProductLimit,
	}
}

type storefrontProductsResponse struct {
	Products []struct {
		ID     int64  `json:"id"`
		Title  string `json:"title"`
		Handle string `json:"handle"`
		Image  struct {
			Src string `json:"src"`
		} `json:"image"`
		Variants []struct {
			Price             string `json:"price"`
			InventoryQuantity int    `json:"inventory_quantity"`
		} `json:"variants"`
	} `json:"products"`
}

// ListProducts returns the active product catalog. The first successful
// fetch is served from cache afterwards; errors are never cached.
func (c *StorefrontClient) ListProducts(ctx context.Context) ([]model.Product, time.Time, error) {
	if !c.IsConfigured() {
		log.Println("[Storefront API] not configured, returning mock catalog")
		return mockProducts(), time.Now(), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil {
		return c.cached, c.cachedAt, nil
	}

	products, err := c.fetchProducts(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	c.cached = products
	c.cachedAt = time.Now()
	return c.cached, c.cachedAt, nil
}

func (c *StorefrontClient) fetchProducts(ctx context.Context) ([]model.Product, error) {
	url := fmt.Sprintf("%s/products.json?status=active&limit=%d", c.baseURL, c.limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("storefront API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp storefrontProductsResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal products: %w", err)
	}

	products := make([]model.Product, 0, len(apiResp.Products))
	for _, p := range apiResp.Products {
		product := model.Product{
			ID:       fmt.Sprintf("%d", p.ID),
			Title:    p.Title,
			Handle:   p.Handle,
			ImageURL: p.Image.Src,
		}
		if len(p.Variants) > 0 {
			product.Price = p.Variants[0].Price
			product.Inventory = p.Variants[0].InventoryQuantity
		}
		products = append(products, product)
	}

	log.Printf("[Storefront API] → fetched %d products", len(products))
	return products, nil
}

func mockProducts() []model.Product {
	return []model.Product{
		{ID: "mock-1", Title: "Custom Funnel", Handle: "custom-funnel", Price: "12.00", Inventory: 25},
		{ID: "mock-2", Title: "L-Bracket Mount", Handle: "l-bracket-mount", Price: "8.50", Inventory: 40},
		{ID: "mock-3", Title: "Storage Box with Lid", Handle: "storage-box-lid", Price: "15.00", Inventory: 12},
	}
}

// IsConfigured returns true if the client has valid configuration
func (c *StorefrontClient) IsConfigured() bool {
	return c.baseURL != "" && c.accessToken != ""
}
