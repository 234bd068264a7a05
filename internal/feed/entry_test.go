package feed

import (
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
)

func TestDisplayTextFallbackOrder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		item *gofeed.Item
		want string
	}{
		{"content wins", &gofeed.Item{Content: "body", Description: "desc"}, "body"},
		{"description second", &gofeed.Item{Description: "desc"}, "desc"},
		{"custom summary last", &gofeed.Item{Custom: map[string]string{"summary": "sum"}}, "sum"},
		{"blank content skipped", &gofeed.Item{Content: "   ", Description: "desc"}, "desc"},
		{"nothing present", &gofeed.Item{}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := displayText(tc.item); got != tc.want {
				t.Fatalf("displayText = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPublishedAtFallbackOrder(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	published := time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)
	updated := time.Date(2026, time.February, 12, 9, 0, 0, 0, time.UTC)

	if got := publishedAt(&gofeed.Item{PublishedParsed: &published, UpdatedParsed: &updated}, now); !got.Equal(published) {
		t.Fatalf("parsed published should win, got %v", got)
	}

	if got := publishedAt(&gofeed.Item{UpdatedParsed: &updated}, now); !got.Equal(updated) {
		t.Fatalf("parsed updated should be second, got %v", got)
	}

	got := publishedAt(&gofeed.Item{Published: "February 14, 2026"}, now)
	if got.Year() != 2026 || got.Month() != time.February || got.Day() != 14 {
		t.Fatalf("lenient parse of raw published failed, got %v", got)
	}

	got = publishedAt(&gofeed.Item{Updated: "2026-02-16"}, now)
	if got.Year() != 2026 || got.Month() != time.February || got.Day() != 16 {
		t.Fatalf("lenient parse of raw updated failed, got %v", got)
	}

	if got := publishedAt(&gofeed.Item{Published: "not a date"}, now); !got.Equal(now) {
		t.Fatalf("unparsable date must fall back to now, got %v", got)
	}
}
