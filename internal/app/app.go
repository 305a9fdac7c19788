// Package app assembles the product image stack from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/wtsr/backend/config"
	"github.com/wtsr/backend/internal/domain"
	"github.com/wtsr/backend/internal/infrastructure/cache"
	"github.com/wtsr/backend/internal/infrastructure/dynamo"
	"github.com/wtsr/backend/internal/infrastructure/paapi"
	"github.com/wtsr/backend/internal/infrastructure/postgres"
	"github.com/wtsr/backend/internal/usecase"
)

// App holds the wired components shared by the server and the backfill job
type App struct {
	Client   *paapi.Client
	Cache    *usecase.ProductCache
	Resolver *usecase.Resolver
	Rewriter *usecase.ContentRewriter
	Articles domain.ArticleRepository
	Products domain.ProductRepository

	closers []func() error
}

type ephemeralCache interface {
	domain.EphemeralCache
	Close() error
}

// New connects the configured stores and builds the resolver and rewriter
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{}

	ephemeral, err := newEphemeralCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, ephemeral.Close)
	logger.Info("ephemeral cache ready", "type", cfg.Cache.Type)

	// Articles always live in Postgres
	db, err := postgres.Connect(ctx, cfg.Database.DSN)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	a.Articles = postgres.NewArticleStore(db)

	a.Products, err = newProductStore(ctx, cfg.Store, db)
	if err != nil {
		a.Close()
		return nil, err
	}
	logger.Info("product store ready", "type", cfg.Store.Type)

	a.Client = paapi.NewClient(paapi.Config{
		Credentials: paapi.Credentials{
			AccessKey:  cfg.PAAPI.AccessKey,
			SecretKey:  cfg.PAAPI.SecretKey,
			PartnerTag: cfg.PAAPI.PartnerTag,
			Region:     cfg.PAAPI.Region,
		},
		Endpoint:          cfg.PAAPI.Endpoint,
		Timeout:           cfg.PAAPI.Timeout,
		RequestsPerSecond: cfg.PAAPI.RequestsPerSecond,
		Verbose:           cfg.PAAPI.Verbose,
	}, logger)
	if !a.Client.Enabled() {
		logger.Warn("PA-API credentials not configured, product images will not be fetched")
	}

	a.Cache = usecase.NewProductCache(ephemeral, a.Products, usecase.ProductCacheConfig{
		PositiveTTL: cfg.Cache.TTL,
		NegativeTTL: cfg.Cache.NegativeTTL,
	}, logger)
	a.Resolver = usecase.NewResolver(a.Cache, a.Client, logger)

	links := usecase.NewLinkBuilder(a.Client.Region().Marketplace, cfg.Content.AffiliateTag)
	a.Rewriter = usecase.NewContentRewriter(a.Resolver, links, logger)

	return a, nil
}

// Close releases every connection opened by New
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newEphemeralCache(ctx context.Context, cfg config.CacheConfig) (ephemeralCache, error) {
	switch cfg.Type {
	case "redis":
		c, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	default:
		return cache.NewMemoryCache(), nil
	}
}

func newProductStore(ctx context.Context, cfg config.StoreConfig, db *sqlx.DB) (domain.ProductRepository, error) {
	switch cfg.Type {
	case "dynamodb":
		client, err := dynamo.NewClient(ctx, cfg.DynamoDBRegion, cfg.DynamoDBEndpoint)
		if err != nil {
			return nil, err
		}
		return dynamo.NewProductStore(client, cfg.DynamoDBTable), nil
	default:
		return postgres.NewProductStore(db), nil
	}
}
