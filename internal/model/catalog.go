package model

import "time"

// Product is a storefront catalog item surfaced to the chat UI
type Product struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Handle    string `json:"handle"`
	Price     string `json:"price,omitempty"`
	Inventory int    `json:"inventory"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// CatalogResponse wraps the cached product list
type CatalogResponse struct {
	Products []Product `json:"products"`
	CachedAt time.Time `json:"cachedAt"`
}
