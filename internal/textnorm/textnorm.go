// Package textnorm cleans feed-derived text into a bounded, HTML-free,
// URL-free form suitable for language filtering and persistence.
package textnorm

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	htmlTagExpr   = regexp.MustCompile(`<[^>]+>`)
	urlExpr       = regexp.MustCompile(`https?://\S+`)
	zeroWidthExpr = regexp.MustCompile("[\u200B\u200C\u200D\uFEFF]")
	specialExpr   = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?\-:;()]`)
	ellipsisExpr  = regexp.MustCompile(`\.{3,}`)
	spaceExpr     = regexp.MustCompile(`\s+`)
)

// Clean strips HTML tags, URLs and zero-width characters, drops special
// characters while keeping basic punctuation, collapses ellipsis runs and
// whitespace, and trims. Clean is idempotent and never fails; empty input
// yields an empty string.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	clean := htmlTagExpr.ReplaceAllString(text, "")
	clean = urlExpr.ReplaceAllString(clean, "")
	clean = zeroWidthExpr.ReplaceAllString(clean, "")
	clean = specialExpr.ReplaceAllString(clean, "")
	clean = ellipsisExpr.ReplaceAllString(clean, "...")
	clean = spaceExpr.ReplaceAllString(clean, " ")

	return strings.TrimSpace(clean)
}

// Truncate cuts text to maxLen runes, appending "..." when a cut happened.
func Truncate(text string, maxLen int) string {
	if maxLen <= 3 {
		return text
	}

	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}

	return string(runes[:maxLen-3]) + "..."
}

// StripHTML extracts plain text from an HTML fragment. Feeds are inconsistent
// about which field carries markup, so body extraction goes through a real
// parser rather than the tag regexp used by Clean.
func StripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return Clean(fragment)
	}

	return strings.TrimSpace(doc.Text())
}
