package feed

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
)

// displayText returns the first present of the entry's content, summary and
// description fields. Feeds are inconsistent about which field carries the
// body, so the lookup is an ordered fallback over the parsed item.
func displayText(item *gofeed.Item) string {
	candidates := []string{item.Content, item.Description, item.Custom["summary"]}
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return ""
}

// publishedAt extracts the best-effort publication time: parsed published,
// parsed updated, then lenient parses of the raw strings. A bad date never
// drops the entry; the fallback is the given current time.
func publishedAt(item *gofeed.Item, now time.Time) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	if raw := strings.TrimSpace(item.Published); raw != "" {
		if t, err := dateparse.ParseAny(raw); err == nil {
			return t
		}
	}
	if raw := strings.TrimSpace(item.Updated); raw != "" {
		if t, err := dateparse.ParseAny(raw); err == nil {
			return t
		}
	}
	return now
}
