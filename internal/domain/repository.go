package domain

//go:generate mockgen -source=repository.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"
)

// EphemeralCache is the short-TTL, process-wide accelerator tier keyed by string
type EphemeralCache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ProductRepository is the durable store of product records, the source of truth
type ProductRepository interface {
	Get(ctx context.Context, asin string) (*ProductRecord, error)
	Upsert(ctx context.Context, record *ProductRecord) error
	ListMissingImages(ctx context.Context, limit int) ([]ProductRecord, error)
}

// ArticleRepository reads articles; writes belong to the admin surface
type ArticleRepository interface {
	GetBySlug(ctx context.Context, slug string) (*Article, error)
	ListModifiedSince(ctx context.Context, since time.Time) ([]Article, error)
}

// ProductAPI fetches product images from the upstream catalog.
// Every failure collapses to (nil, false).
type ProductAPI interface {
	FetchImages(ctx context.Context, asin string) (*ProductImages, bool)
}

// ProductResolver resolves product ids to images through the cache.
// ForceRefresh skips the cache read and always asks upstream.
type ProductResolver interface {
	Resolve(ctx context.Context, asin string) (*ProductImages, bool)
	ForceRefresh(ctx context.Context, asin string) (*ProductImages, bool)
}
