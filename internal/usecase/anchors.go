package usecase

import (
	"errors"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// productURLRegex matches Amazon product detail links on any storefront. The
// host is case-insensitive, the product id is not.
var productURLRegex = regexp.MustCompile(`^(?i:(?:https?:)?//(?:[a-z0-9-]+\.)*amazon\.[a-z]{2,3}(?:\.[a-z]{2})?/)(?:[^?#]*/)?(?:dp|gp/product)/([0-9A-Z]{10})(?:[/?#]|$)`)

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;", `>`, "&gt;")

// anchorRewrite edits the attributes of one <a> start tag and reports whether it changed
type anchorRewrite func(attrs []html.Attribute) ([]html.Attribute, bool)

// InjectOffsiteTargets opens external links in a new tab. Anchors that already
// carry a target are left alone; rel is only added when absent.
func InjectOffsiteTargets(document string) string {
	return rewriteAnchors(document, func(attrs []html.Attribute) ([]html.Attribute, bool) {
		href, ok := attrValue(attrs, "href")
		if !ok || !isExternal(href) {
			return attrs, false
		}
		if _, ok := attrValue(attrs, "target"); ok {
			return attrs, false
		}
		attrs = append(attrs, html.Attribute{Key: "target", Val: "_blank"})
		if _, ok := attrValue(attrs, "rel"); !ok {
			attrs = append(attrs, html.Attribute{Key: "rel", Val: "noopener"})
		}
		return attrs, true
	})
}

// InjectClickTracking tags links to product detail pages with a click handler
// naming the product id.
func InjectClickTracking(document string) string {
	return rewriteAnchors(document, func(attrs []html.Attribute) ([]html.Attribute, bool) {
		href, ok := attrValue(attrs, "href")
		if !ok {
			return attrs, false
		}
		if _, ok := attrValue(attrs, "onclick"); ok {
			return attrs, false
		}
		m := productURLRegex.FindStringSubmatch(strings.TrimSpace(href))
		if m == nil {
			return attrs, false
		}
		attrs = append(attrs, html.Attribute{Key: "onclick", Val: "trackProductClick('" + m[1] + "')"})
		return attrs, true
	})
}

// rewriteAnchors streams document through the HTML tokenizer, re-rendering only
// the <a> start tags that fn changes. Everything else is copied byte for byte.
// A tokenizer error returns document unchanged.
func rewriteAnchors(document string, fn anchorRewrite) string {
	z := html.NewTokenizer(strings.NewReader(document))
	var b strings.Builder
	b.Grow(len(document))

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				return b.String()
			}
			return document
		}

		raw := z.Raw()
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			b.Write(raw)
			continue
		}

		// Copy before Token() touches the tokenizer buffer
		rawCopy := string(raw)
		tok := z.Token()
		if tok.Data != "a" {
			b.WriteString(rawCopy)
			continue
		}

		attrs, changed := fn(tok.Attr)
		if !changed {
			b.WriteString(rawCopy)
			continue
		}
		b.WriteString(renderStartTag(tok.Data, attrs, tt == html.SelfClosingTagToken))
	}
}

func renderStartTag(name string, attrs []html.Attribute, selfClosing bool) string {
	var b strings.Builder
	b.WriteString("<" + name)
	for _, a := range attrs {
		b.WriteString(" " + a.Key + `="` + attrEscaper.Replace(a.Val) + `"`)
	}
	if selfClosing {
		b.WriteString("/")
	}
	b.WriteString(">")
	return b.String()
}

func attrValue(attrs []html.Attribute, key string) (string, bool) {
	for _, a := range attrs {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func isExternal(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
