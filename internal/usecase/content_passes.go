package usecase

import (
	"context"
	"regexp"
	"strings"

	"github.com/wtsr/backend/internal/domain"
)

// TokenKind tags a line of content as still-raw text or already-rendered HTML
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenHTML
)

// Token is one line of article content flowing through the rewrite passes.
// Passes only rewrite TokenText; TokenHTML is passed through untouched.
type Token struct {
	Kind  TokenKind
	Value string
}

var (
	deckLineRegex      = regexp.MustCompile(`^ASIN ([0-9A-Z]{10})(?: +(.*))?$`)
	paragraphLineRegex = regexp.MustCompile(`^<ASINP ([0-9A-Z]{10})(?: +([^>]*))?>\s*(.*)$`)
	bareReferenceRegex = regexp.MustCompile(`\bASIN ([0-9A-Z]{10})\b`)
	mentionRegex       = regexp.MustCompile(`@([A-Za-z0-9_]+)`)

	// Existing links: markdown inline/reference links and inline <a> elements
	linkSpanRegex = regexp.MustCompile(`\[[^\]]*\](?:\([^)]*\)|\[[^\]]*\])|(?is:<a\b[^>]*>.*?</a>)`)
)

const (
	deckOpen  = `<div class="amazon-deck">`
	deckClose = `</div>`

	mentionBaseURL = "https://twitter.com/"
)

// Tokenize splits content into text tokens, one per line
func Tokenize(content string) []Token {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	tokens := make([]Token, len(lines))
	for i, line := range lines {
		tokens[i] = Token{Kind: TokenText, Value: line}
	}
	return tokens
}

// JoinTokens reassembles tokens into a single document
func JoinTokens(tokens []Token) string {
	values := make([]string, len(tokens))
	for i, t := range tokens {
		values[i] = t.Value
	}
	return strings.Join(values, "\n")
}

// joinForMarkdown separates each run of HTML tokens from surrounding text with
// blank lines so the markdown renderer treats it as a closed raw HTML block.
func joinForMarkdown(tokens []Token) string {
	var b strings.Builder
	for i, t := range tokens {
		if i > 0 {
			b.WriteByte('\n')
			prev := tokens[i-1].Kind
			if prev != t.Kind && (prev == TokenHTML || t.Kind == TokenHTML) {
				b.WriteByte('\n')
			}
		}
		b.WriteString(t.Value)
	}
	return b.String()
}

// ThumbnailDeckPass turns runs of consecutive "ASIN <id> <label>" lines into a
// deck of numbered cards. Numbering restarts with every run.
func (rw *ContentRewriter) ThumbnailDeckPass(ctx context.Context, tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	index := 0

	closeDeck := func() {
		if index > 0 {
			out = append(out, Token{Kind: TokenHTML, Value: deckClose})
			index = 0
		}
	}

	for _, t := range tokens {
		var m []string
		if t.Kind == TokenText {
			m = deckLineRegex.FindStringSubmatch(t.Value)
		}
		if m == nil {
			closeDeck()
			out = append(out, t)
			continue
		}

		if index == 0 {
			out = append(out, Token{Kind: TokenHTML, Value: deckOpen})
		}
		index++
		out = append(out, Token{Kind: TokenHTML, Value: rw.card(ctx, m[1], strings.TrimSpace(m[2]), index)})
	}
	closeDeck()

	return out
}

// ProductParagraphPass renders "<ASINP <id> [label]> text" lines as a thumbnail
// beside the rendered text.
func (rw *ContentRewriter) ProductParagraphPass(ctx context.Context, tokens []Token, markup domain.Markup) []Token {
	out := make([]Token, len(tokens))
	for i, t := range tokens {
		out[i] = t
		if t.Kind != TokenText {
			continue
		}
		m := paragraphLineRegex.FindStringSubmatch(t.Value)
		if m == nil {
			continue
		}
		thumb := rw.card(ctx, m[1], strings.TrimSpace(m[2]), 0)
		body := rw.renderFragment(m[3], markup)
		out[i] = Token{Kind: TokenHTML, Value: productParagraph(thumb, body)}
	}
	return out
}

// BareReferencePass replaces "ASIN <id>" anywhere in a text line with the
// affiliate product URL.
func (rw *ContentRewriter) BareReferencePass(tokens []Token) []Token {
	out := make([]Token, len(tokens))
	for i, t := range tokens {
		out[i] = t
		if t.Kind != TokenText {
			continue
		}
		out[i].Value = bareReferenceRegex.ReplaceAllStringFunc(t.Value, func(match string) string {
			return rw.links.ProductURL(match[len("ASIN "):])
		})
	}
	return out
}

// MentionPass links "@name" tokens to the social profile. An "@" directly after
// a word character, another "@" or a "/" is left alone (emails, URLs), as is
// one inside an existing markdown or HTML link.
func MentionPass(tokens []Token) []Token {
	out := make([]Token, len(tokens))
	for i, t := range tokens {
		out[i] = t
		if t.Kind == TokenText {
			out[i].Value = linkMentions(t.Value)
		}
	}
	return out
}

func linkMentions(line string) string {
	matches := mentionRegex.FindAllStringSubmatchIndex(line, -1)
	if matches == nil {
		return line
	}

	links := linkSpanRegex.FindAllStringIndex(line, -1)

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 && !mentionBoundary(line[start-1]) {
			continue
		}
		if insideSpan(start, links) {
			continue
		}
		name := line[m[2]:m[3]]
		b.WriteString(line[last:start])
		b.WriteString(`<a href="` + mentionBaseURL + name + `">@` + name + `</a>`)
		last = end
	}
	b.WriteString(line[last:])
	return b.String()
}

func insideSpan(pos int, spans [][]int) bool {
	for _, span := range spans {
		if pos >= span[0] && pos < span[1] {
			return true
		}
	}
	return false
}

func mentionBoundary(c byte) bool {
	switch {
	case c == '@' || c == '/' || c == '_':
		return false
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return false
	}
	return true
}

// ExtractProductIDs returns the distinct bare-reference product ids in content,
// in order of first appearance.
func ExtractProductIDs(content string) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, m := range bareReferenceRegex.FindAllStringSubmatch(content, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		ids = append(ids, m[1])
	}
	return ids
}
