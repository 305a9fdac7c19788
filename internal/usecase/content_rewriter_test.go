package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtsr/backend/internal/domain"
)

func newTestRewriter() (*ContentRewriter, *staticResolver) {
	resolver := &staticResolver{results: map[string]*domain.ProductImages{
		"B000123ABC": {Src: "https://img/a.jpg", Src2x: "https://img/a2.jpg", Title: "Dune"},
	}}
	return NewContentRewriter(resolver, NewLinkBuilder("", ""), discardLogger), resolver
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("one\r\ntwo\nthree")
	require.Len(t, tokens, 3)
	assert.Equal(t, Token{Kind: TokenText, Value: "two"}, tokens[1])
	assert.Equal(t, "one\ntwo\nthree", JoinTokens(tokens))
}

func TestThumbnailDeckPass_Grouping(t *testing.T) {
	rw, _ := newTestRewriter()

	tokens := rw.ThumbnailDeckPass(context.Background(), Tokenize("ASIN B000123ABC Foo\nASIN B000456XYZ Bar\nSome text"))

	require.Len(t, tokens, 5)
	assert.Equal(t, Token{Kind: TokenHTML, Value: `<div class="amazon-deck">`}, tokens[0])
	assert.Equal(t, TokenHTML, tokens[1].Kind)
	assert.Contains(t, tokens[1].Value, `data-index="1"`)
	assert.Contains(t, tokens[1].Value, `alt="Foo"`)
	assert.Equal(t, TokenHTML, tokens[2].Kind)
	assert.Contains(t, tokens[2].Value, `data-index="2"`)
	assert.Contains(t, tokens[2].Value, "Bar")
	assert.Equal(t, Token{Kind: TokenHTML, Value: `</div>`}, tokens[3])
	assert.Equal(t, Token{Kind: TokenText, Value: "Some text"}, tokens[4])
}

func TestThumbnailDeckPass_NumberingResetsPerRun(t *testing.T) {
	rw, _ := newTestRewriter()

	tokens := rw.ThumbnailDeckPass(context.Background(), Tokenize(
		"ASIN B000123ABC One\nbreak\nASIN B000456XYZ Two\nASIN B000789XYZ Three"))

	var opens, closes int
	var indices []string
	for _, tok := range tokens {
		switch {
		case tok.Value == `<div class="amazon-deck">`:
			opens++
		case tok.Value == `</div>`:
			closes++
		case strings.HasPrefix(tok.Value, "<figure"):
			start := strings.Index(tok.Value, `data-index="`) + len(`data-index="`)
			indices = append(indices, tok.Value[start:start+1])
		}
	}
	assert.Equal(t, 2, opens)
	assert.Equal(t, 2, closes)
	assert.Equal(t, []string{"1", "1", "2"}, indices)
	assert.Equal(t, `</div>`, tokens[len(tokens)-1].Value, "deck open at end of input is closed")
}

func TestThumbnailDeckPass_MalformedLinesPassThrough(t *testing.T) {
	rw, resolver := newTestRewriter()
	input := "ASIN b000123abc lower\nASIN B000123AB short\nASIN B000123ABCD long\nASINB000123ABC\n ASIN B000123ABC indented"

	tokens := rw.ThumbnailDeckPass(context.Background(), Tokenize(input))

	assert.Equal(t, input, JoinTokens(tokens))
	for _, tok := range tokens {
		assert.Equal(t, TokenText, tok.Kind)
	}
	assert.Empty(t, resolver.calls)
}

func TestRenderCard(t *testing.T) {
	link := "https://www.amazon.com/dp/B000123ABC/?tag=wtsr-20"

	t.Run("resolved with label", func(t *testing.T) {
		html := renderCard(link, "B000123ABC", "Foo & Bar", 2, &domain.ProductImages{Src: "https://img/a.jpg", Src2x: "https://img/a2.jpg"})
		assert.Equal(t, `<figure class="amazon-card" data-index="2">`+
			`<a href="https://www.amazon.com/dp/B000123ABC/?tag=wtsr-20" class="amazon-card-link">`+
			`<img src="https://img/a.jpg" srcset="https://img/a2.jpg 2x" alt="Foo &amp; Bar" loading="lazy"></a>`+
			`<figcaption><span class="amazon-card-index">2.</span> Foo &amp; Bar</figcaption></figure>`, html)
	})

	t.Run("label falls back to title then id", func(t *testing.T) {
		html := renderCard(link, "B000123ABC", "", 0, &domain.ProductImages{Src: "https://img/a.jpg", Title: "Dune"})
		assert.Contains(t, html, `alt="Dune"`)
		assert.Contains(t, html, `srcset="https://img/a.jpg 2x"`)
		assert.NotContains(t, html, "data-index")

		html = renderCard(link, "B000123ABC", "", 0, nil)
		assert.Contains(t, html, ">B000123ABC</a>")
	})

	t.Run("unresolved renders link-only fallback", func(t *testing.T) {
		html := renderCard(link, "B000456XYZ", "Bar", 1, nil)
		assert.True(t, strings.HasPrefix(html, `<figure class="amazon-card amazon-card-unavailable" data-index="1">`))
		assert.True(t, strings.HasSuffix(html, `</figure>`))
		assert.Contains(t, html, `<a href="https://www.amazon.com/dp/B000123ABC/?tag=wtsr-20" class="amazon-card-link">Bar</a>`)
		assert.Contains(t, html, "Image unavailable")
		assert.NotContains(t, html, "<img")
	})
}

func TestProductParagraphPass(t *testing.T) {
	rw, _ := newTestRewriter()
	ctx := context.Background()

	t.Run("markdown body", func(t *testing.T) {
		tokens := rw.ProductParagraphPass(ctx, Tokenize("<ASINP B000123ABC Dune cover> Read *this* first."), domain.MarkupMarkdown)
		require.Len(t, tokens, 1)
		assert.Equal(t, TokenHTML, tokens[0].Kind)
		assert.True(t, strings.HasPrefix(tokens[0].Value, `<div class="amazon-paragraph"><div class="amazon-paragraph-thumb"><figure class="amazon-card">`))
		assert.Contains(t, tokens[0].Value, `alt="Dune cover"`)
		assert.Contains(t, tokens[0].Value, `<div class="amazon-paragraph-body"><p>Read <em>this</em> first.</p></div></div>`)
	})

	t.Run("html body without label", func(t *testing.T) {
		tokens := rw.ProductParagraphPass(ctx, Tokenize("<ASINP B000456XYZ>Some <b>text</b>"), domain.MarkupHTML)
		require.Len(t, tokens, 1)
		assert.Contains(t, tokens[0].Value, "amazon-card-unavailable")
		assert.Contains(t, tokens[0].Value, `<div class="amazon-paragraph-body">Some <b>text</b></div>`)
	})

	t.Run("malformed directive", func(t *testing.T) {
		tokens := rw.ProductParagraphPass(ctx, Tokenize("<ASINP B00012> nope"), domain.MarkupMarkdown)
		assert.Equal(t, Token{Kind: TokenText, Value: "<ASINP B00012> nope"}, tokens[0])
	})
}

func TestBareReferencePass(t *testing.T) {
	rw, _ := newTestRewriter()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "single reference",
			input: "Check out ASIN B000123ABC today",
			want:  "Check out https://www.amazon.com/dp/B000123ABC/?tag=wtsr-20 today",
		},
		{
			name:  "two references",
			input: "ASIN B000123ABC or ASIN B000456XYZ.",
			want:  "https://www.amazon.com/dp/B000123ABC/?tag=wtsr-20 or https://www.amazon.com/dp/B000456XYZ/?tag=wtsr-20.",
		},
		{
			name:  "too long",
			input: "see ASIN B000123ABCD",
			want:  "see ASIN B000123ABCD",
		},
		{
			name:  "lowercase",
			input: "see ASIN b000123abc",
			want:  "see ASIN b000123abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := rw.BareReferencePass(Tokenize(tt.input))
			assert.Equal(t, tt.want, tokens[0].Value)
		})
	}

	t.Run("html tokens are untouched", func(t *testing.T) {
		tokens := rw.BareReferencePass([]Token{{Kind: TokenHTML, Value: "ASIN B000123ABC"}})
		assert.Equal(t, "ASIN B000123ABC", tokens[0].Value)
	})
}

func TestBareReference_ThumbnailPrecedence(t *testing.T) {
	rw, _ := newTestRewriter()

	tokens := rw.BareReferencePass(rw.ThumbnailDeckPass(context.Background(), Tokenize("ASIN B000123ABC Dune")))

	require.Len(t, tokens, 3)
	assert.Contains(t, tokens[1].Value, "<figure")
	assert.NotContains(t, JoinTokens(tokens), "ASIN B000123ABC")
}

func TestMentionPass(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"hi @alice", `hi <a href="https://twitter.com/alice">@alice</a>`},
		{"@bob_2, and (@carol)", `<a href="https://twitter.com/bob_2">@bob_2</a>, and (<a href="https://twitter.com/carol">@carol</a>)`},
		{"mail me@example.com", "mail me@example.com"},
		{"see https://x.com/@dave", "see https://x.com/@dave"},
		{"double @@eve", "double @@eve"},
		{"lonely @ sign", "lonely @ sign"},
		{"See [@golang](https://go.dev) now", "See [@golang](https://go.dev) now"},
		{"ref [@golang][1] and @gopher", `ref [@golang][1] and <a href="https://twitter.com/gopher">@gopher</a>`},
		{`<a href="https://go.dev">@golang</a> @rob`, `<a href="https://go.dev">@golang</a> <a href="https://twitter.com/rob">@rob</a>`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := MentionPass(Tokenize(tt.input))
			assert.Equal(t, tt.want, tokens[0].Value)
		})
	}
}

func TestInjectOffsiteTargets(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "external link",
			input: `<p><a href="https://example.com/x">x</a></p>`,
			want:  `<p><a href="https://example.com/x" target="_blank" rel="noopener">x</a></p>`,
		},
		{
			name:  "existing rel kept",
			input: `<a href="http://example.com" rel="nofollow">x</a>`,
			want:  `<a href="http://example.com" rel="nofollow" target="_blank">x</a>`,
		},
		{
			name:  "existing target untouched",
			input: `<a href="https://example.com" target="_self">x</a>`,
			want:  `<a href="https://example.com" target="_self">x</a>`,
		},
		{
			name:  "relative link untouched",
			input: `<a href="/articles/dune/">x</a>`,
			want:  `<a href="/articles/dune/">x</a>`,
		},
		{
			name:  "other markup preserved byte for byte",
			input: `<img src="a.jpg" ALT='x'><br/>text &amp; more`,
			want:  `<img src="a.jpg" ALT='x'><br/>text &amp; more`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InjectOffsiteTargets(tt.input))
		})
	}
}

func TestInjectClickTracking(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "dp link",
			input: `<a href="https://www.amazon.com/dp/B000123ABC/?tag=wtsr-20">x</a>`,
			want:  `<a href="https://www.amazon.com/dp/B000123ABC/?tag=wtsr-20" onclick="trackProductClick('B000123ABC')">x</a>`,
		},
		{
			name:  "slugged dp link on another storefront",
			input: `<a href="https://www.amazon.co.uk/Dune-Frank-Herbert/dp/B000456XYZ">x</a>`,
			want:  `<a href="https://www.amazon.co.uk/Dune-Frank-Herbert/dp/B000456XYZ" onclick="trackProductClick('B000456XYZ')">x</a>`,
		},
		{
			name:  "gp product link",
			input: `<a href="http://amazon.com/gp/product/B000789XYZ?ie=UTF8">x</a>`,
			want:  `<a href="http://amazon.com/gp/product/B000789XYZ?ie=UTF8" onclick="trackProductClick('B000789XYZ')">x</a>`,
		},
		{
			name:  "existing onclick untouched",
			input: `<a href="https://www.amazon.com/dp/B000123ABC" onclick="go()">x</a>`,
			want:  `<a href="https://www.amazon.com/dp/B000123ABC" onclick="go()">x</a>`,
		},
		{
			name:  "non product link untouched",
			input: `<a href="https://www.amazon.com/gp/help">x</a>`,
			want:  `<a href="https://www.amazon.com/gp/help">x</a>`,
		},
		{
			name:  "lookalike host untouched",
			input: `<a href="https://notamazon.example/dp/B000123ABC">x</a>`,
			want:  `<a href="https://notamazon.example/dp/B000123ABC">x</a>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InjectClickTracking(tt.input))
		})
	}
}

func TestExtractProductIDs(t *testing.T) {
	content := "ASIN B000123ABC first\nthen ASIN B000456XYZ and again ASIN B000123ABC\nASIN bad0000000 ASIN B000789XYZ"

	assert.Equal(t, []string{"B000123ABC", "B000456XYZ", "B000789XYZ"}, ExtractProductIDs(content))
	assert.Empty(t, ExtractProductIDs("no products here"))
}

func TestContentRewriter_Rewrite_Markdown(t *testing.T) {
	rw, _ := newTestRewriter()

	out := rw.Rewrite(context.Background(), "ASIN B000123ABC Foo\nASIN B000456XYZ Bar\nSome text\n\nCheck out ASIN B000123ABC today, @alice.", domain.MarkupMarkdown)

	assert.Contains(t, out, `<div class="amazon-deck">`)
	assert.Contains(t, out, `<img src="https://img/a.jpg"`)
	assert.Contains(t, out, "Image unavailable")
	assert.Contains(t, out, "<p>Some text</p>")
	assert.Contains(t, out, `onclick="trackProductClick('B000123ABC')"`)
	assert.Contains(t, out, `onclick="trackProductClick('B000456XYZ')"`)
	assert.Contains(t, out, `target="_blank"`)
	assert.Contains(t, out, `<a href="https://twitter.com/alice" target="_blank" rel="noopener">@alice</a>`)
	assert.NotContains(t, out, "ASIN B000123ABC")
	assert.Less(t, strings.Index(out, `<div class="amazon-deck">`), strings.Index(out, "<p>Some text</p>"))
}

func TestContentRewriter_Rewrite_HTMLPassthrough(t *testing.T) {
	rw, _ := newTestRewriter()

	out := rw.Rewrite(context.Background(), "<p>*not markdown* @bob</p>\n<a href=\"https://example.com\">x</a>", domain.MarkupHTML)

	assert.Equal(t,
		`<p>*not markdown* <a href="https://twitter.com/bob" target="_blank" rel="noopener">@bob</a></p>`+"\n"+
			`<a href="https://example.com" target="_blank" rel="noopener">x</a>`,
		out)
}

func TestContentRewriter_RenderArticle(t *testing.T) {
	rw, resolver := newTestRewriter()

	out := rw.RenderArticle(context.Background(), &domain.Article{
		Slug:    "dune",
		Markup:  domain.MarkupMarkdown,
		Content: "# Dune\n\nASIN B000123ABC",
	})

	assert.Contains(t, out, "<h1>Dune</h1>")
	assert.Contains(t, out, `data-index="1"`)
	assert.Equal(t, []string{"B000123ABC"}, resolver.calls)
}
