package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/wtsr/backend/internal/domain"
)

// ProductStore persists product records in the amazon_products table
type ProductStore struct {
	db *sqlx.DB
}

func NewProductStore(db *sqlx.DB) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = `asin, title, image_url, image_url_2x, last_fetched_at, COALESCE(fetch_status, '') AS fetch_status`

func (s *ProductStore) Get(ctx context.Context, asin string) (*domain.ProductRecord, error) {
	var record domain.ProductRecord
	query := `SELECT ` + productColumns + ` FROM amazon_products WHERE asin = $1`

	err := s.db.GetContext(ctx, &record, query, asin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", domain.ErrStoreUnavailable, asin, err)
	}
	return &record, nil
}

// Upsert creates the row on first sight and overwrites every field afterwards.
// Concurrent writers for the same ASIN resolve last-writer-wins.
func (s *ProductStore) Upsert(ctx context.Context, record *domain.ProductRecord) error {
	query := `
		INSERT INTO amazon_products (asin, title, image_url, image_url_2x, last_fetched_at, fetch_status)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		ON CONFLICT (asin) DO UPDATE SET
			title = EXCLUDED.title,
			image_url = EXCLUDED.image_url,
			image_url_2x = EXCLUDED.image_url_2x,
			last_fetched_at = EXCLUDED.last_fetched_at,
			fetch_status = EXCLUDED.fetch_status`

	_, err := s.db.ExecContext(ctx, query,
		record.ASIN,
		record.Title,
		record.ImageURL,
		record.ImageURL2x,
		record.LastFetchedAt,
		string(record.FetchStatus),
	)
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", domain.ErrStoreUnavailable, record.ASIN, err)
	}
	return nil
}

// ListMissingImages returns rows without a primary image, least recently fetched first
func (s *ProductStore) ListMissingImages(ctx context.Context, limit int) ([]domain.ProductRecord, error) {
	query := `
		SELECT ` + productColumns + `
		FROM amazon_products
		WHERE image_url IS NULL OR image_url = ''
		ORDER BY last_fetched_at ASC NULLS FIRST, asin ASC
		LIMIT $1`

	var records []domain.ProductRecord
	if err := s.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("%w: list missing images: %v", domain.ErrStoreUnavailable, err)
	}
	return records, nil
}
