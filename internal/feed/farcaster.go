package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"chainbrief/internal/domain"
	"chainbrief/internal/language"
	"chainbrief/internal/scanner"
	"chainbrief/internal/textnorm"
)

// Casts shorter than this carry too little signal to score or summarize.
const minCastLen = 50

// Short-form casts need a laxer ratio than long-form articles.
const castMinConfidence = 0.5

// FarcasterScanner pulls trending casts from a Neynar-compatible API.
type FarcasterScanner struct {
	client *http.Client
	filter *language.Filter
	logger *slog.Logger
	now    func() time.Time
}

var _ scanner.Scanner = (*FarcasterScanner)(nil)

// NewFarcasterScanner wires the shared fetch client.
func NewFarcasterScanner(client *http.Client, filter *language.Filter, logger *slog.Logger) *FarcasterScanner {
	if client == nil {
		client = NewHTTPClient(fetchTimeout)
	}
	return &FarcasterScanner{client: client, filter: filter, logger: logger, now: time.Now}
}

// Name identifies the strategy inside the registry.
func (s *FarcasterScanner) Name() string {
	return "farcaster"
}

type neynarCast struct {
	Hash   string `json:"hash"`
	Text   string `json:"text"`
	Author struct {
		Username string `json:"username"`
	} `json:"author"`
	Timestamp int64 `json:"timestamp"`
}

type neynarResponse struct {
	Casts []neynarCast `json:"casts"`
}

// Scan fetches each configured endpoint and converts casts into candidates.
func (s *FarcasterScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawEntry, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 15
	}

	var entries []domain.RawEntry
	for _, endpoint := range req.URLs {
		casts, err := s.fetchCasts(ctx, endpoint, req.Options["apiKey"])
		if err != nil {
			if s.logger != nil {
				s.logger.Debug("farcaster fetch failed", "url", endpoint, "error", err)
			}
			continue
		}

		for _, cast := range casts {
			if len(entries) >= limit {
				break
			}
			entry, ok := s.buildEntry(cast, req)
			if !ok {
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

func (s *FarcasterScanner) fetchCasts(ctx context.Context, endpoint, apiKey string) ([]neynarCast, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", browserUserAgent)
	if apiKey != "" {
		httpReq.Header.Set("api_key", apiKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request casts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api returned %s", resp.Status)
	}

	var decoded neynarResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return decoded.Casts, nil
}

func (s *FarcasterScanner) buildEntry(cast neynarCast, req scanner.Request) (domain.RawEntry, bool) {
	text := strings.TrimSpace(cast.Text)
	if len(text) < minCastLen || cast.Author.Username == "" {
		return domain.RawEntry{}, false
	}

	title := "Farcaster: " + cast.Author.Username
	if !s.filter.ShouldIncludeWithConfidence(title, text, castMinConfidence) {
		return domain.RawEntry{}, false
	}

	published := s.now()
	if cast.Timestamp > 0 {
		published = time.UnixMilli(cast.Timestamp).UTC()
	}

	tag := strings.ToLower(req.Tag)
	if tag == "" {
		tag = "farcaster"
	}

	return domain.RawEntry{
		Title:        textnorm.Truncate(textnorm.Clean(title), maxTitleLen),
		URL:          fmt.Sprintf("https://warpcast.com/%s/%s", cast.Author.Username, cast.Hash),
		RawText:      textnorm.Truncate(textnorm.Clean(text), maxTextLen),
		Source:       req.SourceName,
		EcosystemTag: tag,
		PublishedAt:  published,
	}, cast.Hash != ""
}
