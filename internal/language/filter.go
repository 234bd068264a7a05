// Package language decides whether feed text is acceptable English content.
//
// A pure character-ratio check passes many non-English Latin-script languages,
// and statistical detection alone is unreliable on short noisy snippets, so
// the filter requires both to agree. Any detector ambiguity counts as a
// rejection, never an error.
package language

import (
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
)

const minTextLen = 10

// Filter holds the acceptance thresholds for English content.
type Filter struct {
	minRatio      float64
	minConfidence float64
}

// NewFilter builds a filter; zero thresholds fall back to 0.7 / 0.6.
func NewFilter(minRatio, minConfidence float64) *Filter {
	if minRatio <= 0 {
		minRatio = 0.7
	}
	if minConfidence <= 0 {
		minConfidence = 0.6
	}
	return &Filter{minRatio: minRatio, minConfidence: minConfidence}
}

// IsEnglish reports whether text is primarily English. Texts shorter than ten
// characters after whitespace normalization are rejected outright.
func (f *Filter) IsEnglish(text string, minRatio float64) bool {
	clean := normalizeSpace(text)
	if len([]rune(clean)) < minTextLen {
		return false
	}

	ratio, ok := englishCharRatio(clean)
	if !ok {
		return false
	}

	info := whatlanggo.Detect(clean)

	return ratio >= minRatio && info.Lang == whatlanggo.Eng
}

// ShouldInclude decides whether a title/summary pair passes the language
// gate. Pairs whose combined length is under twenty characters are rejected.
func (f *Filter) ShouldInclude(title, summary string) bool {
	return f.ShouldIncludeWithConfidence(title, summary, f.minConfidence)
}

// ShouldIncludeWithConfidence is ShouldInclude with an explicit ratio
// threshold, used by sources carrying short-form content.
func (f *Filter) ShouldIncludeWithConfidence(title, summary string, minConfidence float64) bool {
	combined := strings.TrimSpace(title + " " + summary)
	if len([]rune(combined)) < 20 {
		return false
	}

	return f.IsEnglish(combined, minConfidence)
}

// MinRatio exposes the default acceptance ratio.
func (f *Filter) MinRatio() float64 {
	return f.minRatio
}

func normalizeSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// englishCharRatio returns ASCII letters over non-space characters. The
// second return is false when the text has no countable characters.
func englishCharRatio(text string) (float64, bool) {
	var letters, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			letters++
		}
	}

	if total == 0 {
		return 0, false
	}

	return float64(letters) / float64(total), true
}
