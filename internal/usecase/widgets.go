package usecase

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/wtsr/backend/internal/domain"
)

const (
	// DefaultAffiliateTag is appended to every product link
	DefaultAffiliateTag = "wtsr-20"

	defaultMarketplace = "www.amazon.com"
	imageUnavailable   = "Image unavailable"
)

// LinkBuilder builds affiliate-tagged product URLs for one marketplace
type LinkBuilder struct {
	marketplace string
	tag         string
}

// NewLinkBuilder returns a LinkBuilder, defaulting to the US storefront and the house tag
func NewLinkBuilder(marketplace, tag string) LinkBuilder {
	if marketplace == "" {
		marketplace = defaultMarketplace
	}
	if tag == "" {
		tag = DefaultAffiliateTag
	}
	return LinkBuilder{marketplace: marketplace, tag: tag}
}

// ProductURL is the affiliate product page for asin
func (b LinkBuilder) ProductURL(asin string) string {
	return fmt.Sprintf("https://%s/dp/%s/?tag=%s", b.marketplace, asin, url.QueryEscape(b.tag))
}

// card renders one product thumbnail. index 0 renders an un-numbered card.
// When the product cannot be resolved a link-only card is rendered instead.
func (rw *ContentRewriter) card(ctx context.Context, asin, label string, index int) string {
	images, ok := rw.resolver.Resolve(ctx, asin)
	if !ok || images == nil || images.Src == "" {
		images = nil
	}
	return renderCard(rw.links.ProductURL(asin), asin, label, index, images)
}

func renderCard(link, asin, label string, index int, images *domain.ProductImages) string {
	if label == "" && images != nil {
		label = images.Title
	}
	if label == "" {
		label = asin
	}
	label = html.EscapeString(label)
	link = html.EscapeString(link)

	class := "amazon-card"
	if images == nil {
		class += " amazon-card-unavailable"
	}

	var b strings.Builder
	b.WriteString(`<figure class="` + class + `"`)
	if index > 0 {
		b.WriteString(` data-index="` + strconv.Itoa(index) + `"`)
	}
	b.WriteString(`>`)

	if images != nil {
		src2x := images.Src2x
		if src2x == "" {
			src2x = images.Src
		}
		b.WriteString(`<a href="` + link + `" class="amazon-card-link">`)
		b.WriteString(`<img src="` + html.EscapeString(images.Src) + `" srcset="` + html.EscapeString(src2x) + ` 2x" alt="` + label + `" loading="lazy">`)
		b.WriteString(`</a>`)
	} else {
		b.WriteString(`<a href="` + link + `" class="amazon-card-link">` + label + `</a>`)
		b.WriteString(`<span class="amazon-card-missing">` + imageUnavailable + `</span>`)
	}

	b.WriteString(`<figcaption>`)
	if index > 0 {
		b.WriteString(`<span class="amazon-card-index">` + strconv.Itoa(index) + `.</span> `)
	}
	b.WriteString(label + `</figcaption></figure>`)
	return b.String()
}

func productParagraph(thumb, body string) string {
	return `<div class="amazon-paragraph">` +
		`<div class="amazon-paragraph-thumb">` + thumb + `</div>` +
		`<div class="amazon-paragraph-body">` + body + `</div>` +
		`</div>`
}
