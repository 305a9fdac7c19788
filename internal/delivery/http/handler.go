package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wtsr/backend/internal/domain"
)

// Version is reported by the health check
const Version = "1.0.0"

// ProductService resolves and evicts products
type ProductService interface {
	Resolve(ctx context.Context, asin string) (*domain.ProductImages, bool)
	Invalidate(ctx context.Context, asin string) error
}

// ContentRenderer turns article markup into HTML
type ContentRenderer interface {
	Rewrite(ctx context.Context, content string, markup domain.Markup) string
	RenderArticle(ctx context.Context, article *domain.Article) string
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	products ProductService
	renderer ContentRenderer
	articles domain.ArticleRepository
	logger   *slog.Logger
	nowFunc  func() time.Time
}

// NewHandler creates a new HTTP handler
func NewHandler(
	products ProductService,
	renderer ContentRenderer,
	articles domain.ArticleRepository,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		products: products,
		renderer: renderer,
		articles: articles,
		logger:   logger.With("component", "http"),
		nowFunc:  time.Now,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "wtsr-backend",
		"version": Version,
	})
}

type renderRequest struct {
	Content string `json:"content" binding:"required"`
	Markup  string `json:"markup"`
}

// RenderPreview rewrites posted content without storing it
func (h *Handler) RenderPreview(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidRequest.Error()})
		return
	}

	markup := domain.Markup(req.Markup)
	switch markup {
	case "":
		markup = domain.MarkupMarkdown
	case domain.MarkupMarkdown, domain.MarkupHTML:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "markup must be 'markdown' or 'html'"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"html": h.renderer.Rewrite(c.Request.Context(), req.Content, markup),
	})
}

// GetProduct resolves a single product
func (h *Handler) GetProduct(c *gin.Context) {
	asin := c.Param("asin")
	if !domain.IsValidASIN(asin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidASIN.Error()})
		return
	}

	images, ok := h.products.Resolve(c.Request.Context(), asin)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrProductNotFound.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"asin":  asin,
		"src":   images.Src,
		"src2x": images.Src2x,
		"title": images.Title,
	})
}

// InvalidateProduct evicts one product from the ephemeral cache
func (h *Handler) InvalidateProduct(c *gin.Context) {
	asin := c.Param("asin")
	if !domain.IsValidASIN(asin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidASIN.Error()})
		return
	}

	if err := h.products.Invalidate(c.Request.Context(), asin); err != nil {
		h.logger.Error("cache invalidation failed", "asin", asin, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.ErrCacheUnavailable.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetArticleHTML renders a published article body
func (h *Handler) GetArticleHTML(c *gin.Context) {
	slug := c.Param("slug")

	article, err := h.articles.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, domain.ErrArticleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrArticleNotFound.Error()})
			return
		}
		h.logger.Error("article lookup failed", "slug", slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if !article.IsPublished(h.nowFunc()) {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrArticleNotFound.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slug":  article.Slug,
		"title": article.Title,
		"html":  h.renderer.RenderArticle(c.Request.Context(), article),
	})
}
