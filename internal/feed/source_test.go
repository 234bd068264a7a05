package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"chainbrief/internal/config"
	"chainbrief/internal/domain"
	"chainbrief/internal/scanner"
)

type stubScanner struct {
	name    string
	entries []domain.RawEntry
	err     error
	panics  bool
}

func (s *stubScanner) Name() string { return s.name }

func (s *stubScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawEntry, error) {
	if s.panics {
		panic("scanner exploded")
	}
	return s.entries, s.err
}

func entry(url string) domain.RawEntry {
	return domain.RawEntry{
		Title:       "title for " + url,
		URL:         url,
		RawText:     "text",
		PublishedAt: time.Now(),
	}
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	t.Parallel()

	registry := scanner.NewRegistry()
	registry.Register(&stubScanner{name: "ok", entries: []domain.RawEntry{entry("https://a.example/1")}})
	registry.Register(&stubScanner{name: "broken", err: errors.New("connection refused")})
	registry.Register(&stubScanner{name: "crashy", panics: true})

	source := NewAggregatorSource(registry, []config.SourceConfig{
		{Name: "good", Kind: "ok"},
		{Name: "bad", Kind: "broken"},
		{Name: "worse", Kind: "crashy"},
		{Name: "unregistered", Kind: "missing"},
	}, nil)

	entries, err := source.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll returned error: %v", err)
	}

	if len(entries) != 1 || entries[0].URL != "https://a.example/1" {
		t.Fatalf("expected only the healthy source's entry, got %+v", entries)
	}
}

func TestFetchAllDeduplicatesByURL(t *testing.T) {
	t.Parallel()

	dup := "https://shared.example/story"

	registry := scanner.NewRegistry()
	registry.Register(&stubScanner{name: "first", entries: []domain.RawEntry{
		entry(dup), entry("https://a.example/only"),
	}})
	registry.Register(&stubScanner{name: "second", entries: []domain.RawEntry{
		entry(dup), entry("https://b.example/only"),
	}})

	source := NewAggregatorSource(registry, []config.SourceConfig{
		{Name: "one", Kind: "first"},
		{Name: "two", Kind: "second"},
	}, nil)

	entries, err := source.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll returned error: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("expected 3 unique entries, got %d", len(entries))
	}

	seen := map[string]int{}
	for _, e := range entries {
		seen[e.URL]++
	}
	for url, count := range seen {
		if count > 1 {
			t.Fatalf("url %s appears %d times", url, count)
		}
	}

	// First occurrence wins: config order puts source "one" first.
	if entries[0].URL != dup {
		t.Fatalf("expected first source's duplicate to win, got %s", entries[0].URL)
	}
}

func TestFetchAllEmptyRegistry(t *testing.T) {
	t.Parallel()

	source := NewAggregatorSource(nil, nil, nil)
	if _, err := source.FetchAll(context.Background()); err == nil {
		t.Fatal("expected error when registry is not configured")
	}
}
