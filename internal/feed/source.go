package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"chainbrief/internal/config"
	"chainbrief/internal/domain"
	"chainbrief/internal/ports"
	"chainbrief/internal/scanner"
)

// AggregatorSource runs the fetch strategy for every configured source
// concurrently. Sources are isolated from each other: a failed or panicking
// source contributes nothing and is logged, siblings are unaffected. The
// merged output is deduplicated by exact URL, first occurrence wins.
type AggregatorSource struct {
	registry *scanner.Registry
	sources  []config.SourceConfig
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*AggregatorSource)(nil)

// NewAggregatorSource wires the scanner registry with config-defined sources.
func NewAggregatorSource(reg *scanner.Registry, sources []config.SourceConfig, logger *slog.Logger) *AggregatorSource {
	return &AggregatorSource{registry: reg, sources: sources, logger: logger}
}

// FetchAll fans out one fetch per source and merges the survivors. Output
// order follows config order, not task completion order; callers must not
// read priority into it.
func (s *AggregatorSource) FetchAll(ctx context.Context) ([]domain.RawEntry, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	results := make([][]domain.RawEntry, len(s.sources))

	var wg sync.WaitGroup
	for i, src := range s.sources {
		wg.Add(1)
		go func(i int, src config.SourceConfig) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logf(slog.LevelError, "source panicked", "source", src.Name, "panic", r)
				}
			}()

			entries, err := s.fetchOne(ctx, src)
			if err != nil {
				s.logf(slog.LevelError, "source failed", "source", src.Name, "error", err)
				return
			}

			s.logf(slog.LevelDebug, "source done", "source", src.Name, "count", len(entries))
			results[i] = entries
		}(i, src)
	}
	wg.Wait()

	merged := make([]domain.RawEntry, 0)
	seen := make(map[string]struct{})
	for _, entries := range results {
		for _, entry := range entries {
			if _, ok := seen[entry.URL]; ok {
				continue
			}
			seen[entry.URL] = struct{}{}
			merged = append(merged, entry)
		}
	}

	s.logf(slog.LevelInfo, "aggregation done", "sources", len(s.sources), "unique_entries", len(merged))
	return merged, nil
}

func (s *AggregatorSource) fetchOne(ctx context.Context, src config.SourceConfig) ([]domain.RawEntry, error) {
	strategy, err := s.registry.Resolve(src.Kind)
	if err != nil {
		return nil, err
	}

	req := scanner.Request{
		SourceName: src.Name,
		Tag:        src.Tag,
		URLs:       src.URLs,
		Limit:      src.Limit,
		Options:    src.Options,
	}

	return strategy.Scan(ctx, req)
}

func (s *AggregatorSource) logf(level slog.Level, msg string, args ...any) {
	if s.logger != nil {
		s.logger.Log(context.Background(), level, msg, args...)
	}
}
