package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wtsr/backend/internal/domain"
)

// Resolver turns a product id into images: cache first, then the product API.
// Store failures are logged and swallowed here so rendering never fails.
type Resolver struct {
	cache  *ProductCache
	api    domain.ProductAPI
	logger *slog.Logger
}

// NewResolver creates a resolver over cache and api
func NewResolver(cache *ProductCache, api domain.ProductAPI, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		cache:  cache,
		api:    api,
		logger: logger.With("component", "resolver"),
	}
}

// Resolve returns the images for asin, or false when nothing is available.
// A negative cache entry short-circuits without an upstream call.
func (r *Resolver) Resolve(ctx context.Context, asin string) (*domain.ProductImages, bool) {
	if !domain.IsValidASIN(asin) {
		return nil, false
	}

	entry, err := r.cache.Get(ctx, asin)
	switch {
	case err == nil:
		if entry.Negative {
			return nil, false
		}
		return entry.Images(), true
	case !errors.Is(err, domain.ErrCacheMiss):
		r.logger.Warn("product cache lookup failed", "asin", asin, "error", err)
	}

	return r.fetchAndStore(ctx, asin)
}

// ForceRefresh skips the cache read and always asks the product API.
// A failed refresh never overwrites a stored image; only products with no
// image on record get a miss written.
func (r *Resolver) ForceRefresh(ctx context.Context, asin string) (*domain.ProductImages, bool) {
	if !domain.IsValidASIN(asin) {
		return nil, false
	}

	if images, ok := r.fetch(ctx, asin); ok {
		r.storeImages(ctx, asin, images)
		return images, true
	}

	record, err := r.cache.Stored(ctx, asin)
	switch {
	case err == nil && record.HasImage():
		r.logger.Info("refresh failed, keeping stored image", "asin", asin)
		return nil, false
	case err != nil && !errors.Is(err, domain.ErrProductNotFound):
		r.logger.Warn("product store lookup failed", "asin", asin, "error", err)
		return nil, false
	}

	r.storeMiss(ctx, asin)
	return nil, false
}

// Invalidate drops the ephemeral entry for asin
func (r *Resolver) Invalidate(ctx context.Context, asin string) error {
	if !domain.IsValidASIN(asin) {
		return domain.ErrInvalidASIN
	}
	return r.cache.Invalidate(ctx, asin)
}

func (r *Resolver) fetchAndStore(ctx context.Context, asin string) (*domain.ProductImages, bool) {
	if images, ok := r.fetch(ctx, asin); ok {
		r.storeImages(ctx, asin, images)
		return images, true
	}
	r.storeMiss(ctx, asin)
	return nil, false
}

func (r *Resolver) fetch(ctx context.Context, asin string) (*domain.ProductImages, bool) {
	images, ok := r.api.FetchImages(ctx, asin)
	if !ok || images == nil || images.Src == "" {
		return nil, false
	}
	return images, true
}

func (r *Resolver) storeImages(ctx context.Context, asin string, images *domain.ProductImages) {
	if err := r.cache.Put(ctx, asin, &images.Src, &images.Src2x, &images.Title, domain.FetchStatusOK); err != nil {
		r.logger.Warn("failed to store product", "asin", asin, "error", err)
	}
}

func (r *Resolver) storeMiss(ctx context.Context, asin string) {
	if err := r.cache.Put(ctx, asin, nil, nil, nil, domain.FetchStatusMiss); err != nil {
		r.logger.Warn("failed to store product miss", "asin", asin, "error", err)
	}
	if err := r.cache.MarkNegative(ctx, asin, 0); err != nil {
		r.logger.Warn("failed to mark product negative", "asin", asin, "error", err)
	}
}
