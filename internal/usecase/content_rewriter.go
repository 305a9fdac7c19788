package usecase

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/wtsr/backend/internal/domain"
)

// ContentRewriter turns article markup into HTML, expanding product directives,
// mentions and links. It never fails: anything it cannot handle passes through.
type ContentRewriter struct {
	resolver domain.ProductResolver
	links    LinkBuilder
	markdown goldmark.Markdown
	logger   *slog.Logger
}

// NewContentRewriter creates a rewriter that resolves products through resolver
func NewContentRewriter(resolver domain.ProductResolver, links LinkBuilder, logger *slog.Logger) *ContentRewriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentRewriter{
		resolver: resolver,
		links:    links,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		logger: logger.With("component", "content_rewriter"),
	}
}

// Rewrite runs the full pass pipeline over content:
// deck -> paragraph -> bare reference -> mention -> markup -> offsite target -> click tracking
func (rw *ContentRewriter) Rewrite(ctx context.Context, content string, markup domain.Markup) string {
	tokens := Tokenize(content)
	tokens = rw.ThumbnailDeckPass(ctx, tokens)
	tokens = rw.ProductParagraphPass(ctx, tokens, markup)
	tokens = rw.BareReferencePass(tokens)
	tokens = MentionPass(tokens)

	document := rw.RenderMarkup(tokens, markup)
	document = InjectOffsiteTargets(document)
	return InjectClickTracking(document)
}

// RenderArticle rewrites an article body according to its declared markup
func (rw *ContentRewriter) RenderArticle(ctx context.Context, article *domain.Article) string {
	return rw.Rewrite(ctx, article.Content, article.Markup)
}

// RenderMarkup converts the token stream to HTML. Markdown goes through the
// markdown renderer; any other markup is joined as-is.
func (rw *ContentRewriter) RenderMarkup(tokens []Token, markup domain.Markup) string {
	if markup != domain.MarkupMarkdown {
		return JoinTokens(tokens)
	}

	source := joinForMarkdown(tokens)
	var buf bytes.Buffer
	if err := rw.markdown.Convert([]byte(source), &buf); err != nil {
		rw.logger.Warn("markdown conversion failed", "error", err)
		return source
	}
	return buf.String()
}

func (rw *ContentRewriter) renderFragment(text string, markup domain.Markup) string {
	if markup != domain.MarkupMarkdown {
		return text
	}
	var buf bytes.Buffer
	if err := rw.markdown.Convert([]byte(text), &buf); err != nil {
		rw.logger.Warn("markdown conversion failed", "error", err)
		return text
	}
	return strings.TrimSpace(buf.String())
}
