package service

import (
	"context"

	"github.com/makerforge/api/internal/client"
	"github.com/makerforge/api/internal/model"
)

// CatalogService exposes the storefront's printed-goods catalog
type CatalogService struct {
	storefront *client.StorefrontClient
}

func NewCatalogService(storefront *client.StorefrontClient) *CatalogService {
	return &CatalogService{storefront: storefront}
}

// ListProducts returns the catalog, served from the storefront cache
func (s *CatalogService) ListProducts(ctx context.Context) (*model.CatalogResponse, error) {
	products, cachedAt, err := s.storefront.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	return &model.CatalogResponse{
		Products: products,
		CachedAt: cachedAt,
	}, nil
}
