package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wtsr/backend/internal/domain"
)

const (
	// DefaultPositiveTTL is how long a resolved product stays in the ephemeral tier
	DefaultPositiveTTL = time.Hour

	// DefaultNegativeTTL throttles repeated upstream calls for products that currently fail
	DefaultNegativeTTL = 5 * time.Minute

	productCacheKeyPrefix = "amazon:product:"
)

// ProductCacheConfig holds the ephemeral tier TTLs
type ProductCacheConfig struct {
	PositiveTTL time.Duration
	NegativeTTL time.Duration
}

// ProductCache is a two-tier product lookup: an ephemeral tier in front of the
// durable product store. The durable store is the source of truth.
type ProductCache struct {
	ephemeral   domain.EphemeralCache
	store       domain.ProductRepository
	positiveTTL time.Duration
	negativeTTL time.Duration
	logger      *slog.Logger
	nowFunc     func() time.Time
}

// NewProductCache creates a product cache over the given tiers
func NewProductCache(
	ephemeral domain.EphemeralCache,
	store domain.ProductRepository,
	config ProductCacheConfig,
	logger *slog.Logger,
) *ProductCache {
	positiveTTL := config.PositiveTTL
	if positiveTTL == 0 {
		positiveTTL = DefaultPositiveTTL
	}
	negativeTTL := config.NegativeTTL
	if negativeTTL == 0 {
		negativeTTL = DefaultNegativeTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ProductCache{
		ephemeral:   ephemeral,
		store:       store,
		positiveTTL: positiveTTL,
		negativeTTL: negativeTTL,
		logger:      logger.With("component", "product_cache"),
		nowFunc:     time.Now,
	}
}

// NegativeTTL returns the configured negative-entry lifetime
func (c *ProductCache) NegativeTTL() time.Duration {
	return c.negativeTTL
}

// Get returns the cached entry for asin.
// Flow: ephemeral tier -> fresh durable record (repopulates ephemeral) -> ErrCacheMiss
func (c *ProductCache) Get(ctx context.Context, asin string) (*domain.CacheEntry, error) {
	key := productCacheKey(asin)

	entry, err := c.ephemeral.Get(ctx, key)
	switch {
	case err == nil && entry != nil:
		return entry, nil
	case err != nil && !errors.Is(err, domain.ErrCacheMiss):
		// Ephemeral tier is only an accelerator; fall through to the store
		c.logger.Warn("ephemeral cache read failed", "asin", asin, "error", err)
	}

	record, err := c.store.Get(ctx, asin)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("read product %s: %w", asin, err)
	}

	if !record.HasImage() || !record.IsFresh(c.nowFunc()) {
		return nil, domain.ErrCacheMiss
	}

	entry = domain.CacheEntryFromRecord(record)
	if err := c.ephemeral.Set(ctx, key, entry, c.positiveTTL); err != nil {
		c.logger.Warn("ephemeral cache write failed", "asin", asin, "error", err)
	}
	return entry, nil
}

// Stored returns the durable record for asin regardless of freshness.
// A missing record is reported as domain.ErrProductNotFound.
func (c *ProductCache) Stored(ctx context.Context, asin string) (*domain.ProductRecord, error) {
	record, err := c.store.Get(ctx, asin)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("read product %s: %w", asin, err)
	}
	return record, nil
}

// Put records the outcome of a resolution attempt. The durable write happens
// first; the positive ephemeral entry is written only after it succeeds.
func (c *ProductCache) Put(
	ctx context.Context,
	asin string,
	imageURL, imageURL2x, title *string,
	status domain.FetchStatus,
) error {
	now := c.nowFunc().UTC()
	record := &domain.ProductRecord{
		ASIN:          asin,
		Title:         nonEmpty(title),
		ImageURL:      nonEmpty(imageURL),
		ImageURL2x:    nonEmpty(imageURL2x),
		LastFetchedAt: &now,
		FetchStatus:   status,
	}
	if status == domain.FetchStatusOK && !record.HasImage() {
		return fmt.Errorf("%w: status ok without image for %s", domain.ErrInvalidRequest, asin)
	}

	if err := c.store.Upsert(ctx, record); err != nil {
		return fmt.Errorf("upsert product %s: %w", asin, err)
	}

	if !record.HasImage() {
		return nil
	}

	if err := c.ephemeral.Set(ctx, productCacheKey(asin), domain.CacheEntryFromRecord(record), c.positiveTTL); err != nil {
		c.logger.Warn("ephemeral cache write failed", "asin", asin, "error", err)
	}
	return nil
}

// MarkNegative writes a short-lived "no result" entry. A zero ttl uses the configured default.
func (c *ProductCache) MarkNegative(ctx context.Context, asin string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.negativeTTL
	}
	if err := c.ephemeral.Set(ctx, productCacheKey(asin), &domain.CacheEntry{Negative: true}, ttl); err != nil {
		return fmt.Errorf("mark negative %s: %w", asin, err)
	}
	return nil
}

// Invalidate evicts the ephemeral entry for a single product
func (c *ProductCache) Invalidate(ctx context.Context, asin string) error {
	if err := c.ephemeral.Delete(ctx, productCacheKey(asin)); err != nil {
		return fmt.Errorf("invalidate %s: %w", asin, err)
	}
	return nil
}

func productCacheKey(asin string) string {
	return productCacheKeyPrefix + asin
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
