package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"chainbrief/internal/domain"
	"chainbrief/internal/ecosystem"
	"chainbrief/internal/language"
	"chainbrief/internal/scanner"
	"chainbrief/internal/textnorm"
)

const (
	maxTitleLen = 200
	maxTextLen  = 3000
)

// RSSScanner fetches and filters RSS/Atom feeds. A failure on one feed URL is
// logged and yields no entries for that URL; it never fails the source.
type RSSScanner struct {
	client *http.Client
	filter *language.Filter
	parser *gofeed.Parser
	logger *slog.Logger
	now    func() time.Time
}

var _ scanner.Scanner = (*RSSScanner)(nil)

// NewRSSScanner wires the IPv4-only HTTP client and the language filter.
func NewRSSScanner(client *http.Client, filter *language.Filter, logger *slog.Logger) *RSSScanner {
	if client == nil {
		client = NewHTTPClient(fetchTimeout)
	}
	return &RSSScanner{
		client: client,
		filter: filter,
		parser: gofeed.NewParser(),
		logger: logger,
		now:    time.Now,
	}
}

// Name identifies the strategy inside the registry.
func (s *RSSScanner) Name() string {
	return "rss"
}

// Scan walks the source's feed URLs and returns surviving entries.
func (s *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawEntry, error) {
	var entries []domain.RawEntry
	for _, feedURL := range req.URLs {
		fetched, err := s.fetchFeed(ctx, feedURL, req)
		if err != nil {
			s.debugf("feed fetch failed", "source", req.SourceName, "url", feedURL, "error", err)
			continue
		}
		entries = append(entries, fetched...)
	}
	return entries, nil
}

func (s *RSSScanner) fetchFeed(ctx context.Context, feedURL string, req scanner.Request) ([]domain.RawEntry, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	parsed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	limit := req.Limit
	if limit <= 0 || limit > len(parsed.Items) {
		limit = len(parsed.Items)
	}

	entries := make([]domain.RawEntry, 0, limit)
	for _, item := range parsed.Items[:limit] {
		entry, ok := s.buildEntry(item, req)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *RSSScanner) buildEntry(item *gofeed.Item, req scanner.Request) (domain.RawEntry, bool) {
	title := item.Title
	text := textnorm.StripHTML(displayText(item))

	if !s.filter.ShouldInclude(title, text) {
		s.debugf("skipping non-English entry", "source", req.SourceName, "title", textnorm.Truncate(title, 50))
		return domain.RawEntry{}, false
	}

	cleanTitle := textnorm.Truncate(textnorm.Clean(title), maxTitleLen)
	cleanText := textnorm.Truncate(textnorm.Clean(text), maxTextLen)

	tag := strings.ToLower(req.Tag)
	if tag == "" {
		tag = ecosystem.DetectTag(cleanTitle + " " + cleanText)
	}

	return domain.RawEntry{
		Title:        cleanTitle,
		URL:          item.Link,
		RawText:      cleanText,
		Source:       req.SourceName,
		EcosystemTag: tag,
		PublishedAt:  publishedAt(item, s.now()),
	}, item.Link != ""
}

func (s *RSSScanner) debugf(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
