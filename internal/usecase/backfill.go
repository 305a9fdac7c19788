package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/wtsr/backend/internal/domain"
)

const (
	// DefaultProductBatch is how many product rows one product-mode run handles
	DefaultProductBatch = 10

	BackfillModeArticles = "articles"
	BackfillModeProducts = "products"
)

// BackfillOptions selects the mode and bounds of one backfill run
type BackfillOptions struct {
	Refetch   bool
	SinceDays int
	Limit     int
	Products  bool
	Sleep     time.Duration
}

// BackfillJob pre-populates the product cache from article content or from
// stored product rows still missing an image. Each record is committed as it
// is resolved, so an interrupted run keeps its progress.
type BackfillJob struct {
	articles domain.ArticleRepository
	products domain.ProductRepository
	resolver domain.ProductResolver
	logger   *slog.Logger
	nowFunc  func() time.Time
}

// NewBackfillJob creates a backfill job
func NewBackfillJob(
	articles domain.ArticleRepository,
	products domain.ProductRepository,
	resolver domain.ProductResolver,
	logger *slog.Logger,
) *BackfillJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackfillJob{
		articles: articles,
		products: products,
		resolver: resolver,
		logger:   logger.With("component", "backfill"),
		nowFunc:  time.Now,
	}
}

// Run executes one backfill pass. An error is returned only when the work
// list cannot be built or the context ends mid-run; per-product failures are
// counted as processed without an update.
func (j *BackfillJob) Run(ctx context.Context, opts BackfillOptions) (*domain.BackfillStats, error) {
	startTime := j.nowFunc()

	mode := BackfillModeArticles
	if opts.Products {
		mode = BackfillModeProducts
	}
	j.logger.Info("starting backfill",
		"mode", mode,
		"refetch", opts.Refetch,
		"since_days", opts.SinceDays,
		"limit", opts.Limit,
		"sleep", opts.Sleep,
	)

	var (
		ids   []string
		force bool
		err   error
	)
	if opts.Products {
		ids, err = j.productIDs(ctx, opts.Limit)
		force = true
	} else {
		ids, err = j.articleIDs(ctx, opts.SinceDays, opts.Limit)
		force = opts.Refetch
	}
	if err != nil {
		return nil, err
	}

	j.logger.Info("products to process", "count", len(ids))

	stats := &domain.BackfillStats{Mode: mode}

	var limiter *rate.Limiter
	if opts.Sleep > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Sleep), 1)
	}

	for _, asin := range ids {
		if err := ctx.Err(); err != nil {
			stats.Duration = j.nowFunc().Sub(startTime)
			return stats, fmt.Errorf("backfill interrupted: %w", err)
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				stats.Duration = j.nowFunc().Sub(startTime)
				return stats, fmt.Errorf("backfill interrupted: %w", err)
			}
		}

		var ok bool
		if force {
			_, ok = j.resolver.ForceRefresh(ctx, asin)
		} else {
			_, ok = j.resolver.Resolve(ctx, asin)
		}

		stats.Processed++
		if ok {
			stats.Updated++
			j.logger.Info("product resolved", "asin", asin)
		} else {
			j.logger.Info("product unresolved", "asin", asin)
		}
	}

	stats.Duration = j.nowFunc().Sub(startTime)

	j.logger.Info("backfill completed",
		"mode", mode,
		"processed", stats.Processed,
		"updated", stats.Updated,
		"duration", stats.Duration,
	)

	return stats, nil
}

// articleIDs collects distinct product ids across articles in first-seen order,
// truncated to limit when limit > 0.
func (j *BackfillJob) articleIDs(ctx context.Context, sinceDays, limit int) ([]string, error) {
	var since time.Time
	if sinceDays > 0 {
		since = j.nowFunc().AddDate(0, 0, -sinceDays)
	}

	articles, err := j.articles.ListModifiedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	j.logger.Debug("scanning articles", "count", len(articles))

	seen := make(map[string]struct{})
	var ids []string
	for _, article := range articles {
		for _, asin := range ExtractProductIDs(article.Content) {
			if _, ok := seen[asin]; ok {
				continue
			}
			seen[asin] = struct{}{}
			ids = append(ids, asin)
			if limit > 0 && len(ids) >= limit {
				return ids, nil
			}
		}
	}
	return ids, nil
}

func (j *BackfillJob) productIDs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultProductBatch
	}

	records, err := j.products.ListMissingImages(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list products missing images: %w", err)
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ASIN)
	}
	return ids, nil
}
