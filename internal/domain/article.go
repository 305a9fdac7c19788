package domain

import "time"

// Markup is the declared markup mode of an article body
type Markup string

const (
	MarkupMarkdown Markup = "markdown"
	MarkupHTML     Markup = "html"
)

// Article is a blog article as read by the rendering and backfill paths
type Article struct {
	ID          int64      `json:"id" db:"id"`
	Slug        string     `json:"slug" db:"slug"`
	Title       string     `json:"title" db:"title"`
	Markup      Markup     `json:"markup" db:"markup"`
	Content     string     `json:"content" db:"content"`
	PublishedAt *time.Time `json:"publishedAt,omitempty" db:"published_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	ModifiedAt  time.Time  `json:"modifiedAt" db:"modified_at"`
}

// IsPublished reports whether the article is visible at the given time
func (a *Article) IsPublished(now time.Time) bool {
	return a.PublishedAt != nil && !a.PublishedAt.After(now)
}

// BackfillStats summarizes one backfill run
type BackfillStats struct {
	Mode      string
	Processed int
	Updated   int
	Duration  time.Duration
}
