package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wtsr/backend/internal/domain"
)

// ArticleStore reads blog articles
type ArticleStore struct {
	db *sqlx.DB
}

func NewArticleStore(db *sqlx.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

const articleColumns = `id, slug, title, markup, content, published_at, created_at, modified_at`

func (s *ArticleStore) GetBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	var article domain.Article
	err := s.db.GetContext(ctx, &article, `SELECT `+articleColumns+` FROM articles WHERE slug = $1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrArticleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// ListModifiedSince returns articles modified at or after since; a zero since returns all
func (s *ArticleStore) ListModifiedSince(ctx context.Context, since time.Time) ([]domain.Article, error) {
	var articles []domain.Article
	var err error

	if since.IsZero() {
		err = s.db.SelectContext(ctx, &articles, `SELECT `+articleColumns+` FROM articles ORDER BY id`)
	} else {
		err = s.db.SelectContext(ctx, &articles,
			`SELECT `+articleColumns+` FROM articles WHERE modified_at >= $1 ORDER BY id`, since)
	}
	if err != nil {
		return nil, err
	}
	return articles, nil
}
