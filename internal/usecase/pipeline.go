package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"chainbrief/internal/config"
	"chainbrief/internal/domain"
	"chainbrief/internal/ecosystem"
	"chainbrief/internal/infrastructure/storage"
	"chainbrief/internal/legitimacy"
	"chainbrief/internal/ports"
	"chainbrief/internal/textnorm"
)

// ErrCycleRunning is returned when an ingestion cycle is requested while a
// previous one is still executing. Cycles never run concurrently against the
// store.
var ErrCycleRunning = errors.New("ingestion cycle already running")

// Persisted summaries are bounded tighter than in-flight fetch text.
const maxSummaryLen = 1000

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Source     ports.ArticleSource
	Repository ports.ArticleRepository
	Enricher   ports.Enricher
	Checker    *legitimacy.Checker
	Notifier   ports.Notifier
	Enrichment config.EnrichmentConfig
	Digest     config.DigestConfig
	Logger     *slog.Logger
}

// Pipeline implements one ingestion cycle: aggregate, dedup against the
// store, enrich, persist, report.
type Pipeline struct {
	source     ports.ArticleSource
	repository ports.ArticleRepository
	enricher   ports.Enricher
	checker    *legitimacy.Checker
	notifier   ports.Notifier
	enrichment config.EnrichmentConfig
	digest     config.DigestConfig
	logger     *slog.Logger

	runMu sync.Mutex
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	checker := deps.Checker
	if checker == nil {
		checker = legitimacy.NewChecker()
	}
	return &Pipeline{
		source:     deps.Source,
		repository: deps.Repository,
		enricher:   deps.Enricher,
		checker:    checker,
		notifier:   deps.Notifier,
		enrichment: deps.Enrichment,
		digest:     deps.Digest,
		logger:     deps.Logger,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// RunCycle executes one full ingestion cycle and returns the number of newly
// stored records. At most one cycle runs at a time; an overlapping request
// gets ErrCycleRunning immediately instead of queueing.
func (p *Pipeline) RunCycle(ctx context.Context) (int, error) {
	if !p.runMu.TryLock() {
		return 0, ErrCycleRunning
	}
	defer p.runMu.Unlock()

	if p.source == nil || p.repository == nil {
		return 0, fmt.Errorf("pipeline not fully wired")
	}

	entries, err := p.source.FetchAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("aggregate sources: %w", err)
	}

	if len(entries) == 0 {
		p.logInfo("no articles found this cycle")
		return 0, nil
	}

	stored := 0
	enrichCalls := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return stored, err
		}

		existing, err := p.repository.FindByURL(ctx, entry.URL)
		if err != nil {
			p.logError("dedup lookup failed", "url", entry.URL, "error", err)
			continue
		}
		if existing != nil {
			p.logDebug("already stored", "url", entry.URL)
			continue
		}

		record, called := p.buildRecord(ctx, entry, enrichCalls)
		if called {
			enrichCalls++
		}

		if err := p.repository.Insert(ctx, record); err != nil {
			if errors.Is(err, storage.ErrDuplicateURL) {
				p.logDebug("lost insert race", "url", entry.URL)
			} else {
				p.logError("insert failed", "url", entry.URL, "error", err)
			}
			continue
		}

		stored++
		p.logInfo("stored article",
			"title", textnorm.Truncate(record.Title, 60),
			"score", record.LegitimacyScore,
			"tag", record.EcosystemTag)
	}

	p.logInfo("cycle complete", "candidates", len(entries), "stored", stored)

	if stored > 0 {
		p.report(ctx)
	}

	return stored, nil
}

// buildRecord scores and optionally enriches one candidate. The second
// return reports whether an enrichment call was actually made, which drives
// the inter-call throttle.
func (p *Pipeline) buildRecord(ctx context.Context, entry domain.RawEntry, priorCalls int) (domain.EnrichedRecord, bool) {
	heuristicScore := p.checker.Score(entry)
	heuristicTag := strings.ToLower(entry.EcosystemTag)
	if heuristicTag == "" {
		heuristicTag = ecosystem.DetectTag(entry.Title + " " + entry.RawText)
	}

	record := domain.EnrichedRecord{
		ID:              uuid.NewString(),
		Title:           entry.Title,
		URL:             entry.URL,
		Summary:         textnorm.Truncate(entry.RawText, maxSummaryLen),
		Source:          entry.Source,
		EcosystemTag:    heuristicTag,
		LegitimacyScore: heuristicScore,
		SentimentScore:  5,
		IsProcessed:     false,
		CreatedAt:       p.now().UTC(),
		PublishedAt:     entry.PublishedAt,
	}

	if p.enricher == nil || p.skipEnrichment(entry, heuristicTag) {
		return record, false
	}

	// Throttle between successive calls, never before the first one.
	if priorCalls > 0 && p.enrichment.CallDelay > 0 {
		if err := p.sleep(ctx, p.enrichment.CallDelay.Std()); err != nil {
			return record, false
		}
	}

	analysis, err := p.enricher.Analyze(ctx, entry.Title, entry.RawText)
	if err != nil {
		// Defaults from the gateway, heuristic tag from the fetcher.
		p.logError("enrichment failed", "url", entry.URL, "error", err)
		fallback := domain.DefaultAnalysis()
		record.Summary = fallback.Summary
		record.SentimentScore = fallback.SentimentScore
		record.LegitimacyScore = fallback.LegitimacyScore
		record.EcosystemTag = heuristicTag
		return record, true
	}

	record.Summary = textnorm.Truncate(analysis.Summary, maxSummaryLen)
	record.SentimentScore = analysis.SentimentScore
	record.LegitimacyScore = analysis.LegitimacyScore
	record.EcosystemTag = strings.ToLower(analysis.EcosystemTag)
	record.IsProcessed = true
	return record, true
}

// skipEnrichment applies the configured call-volume optimization: candidates
// whose heuristic tag is already specific and whose summary is long enough
// do not need the LLM round-trip.
func (p *Pipeline) skipEnrichment(entry domain.RawEntry, tag string) bool {
	if !p.enrichment.SkipSpecific {
		return false
	}

	minLen := p.enrichment.MinSummaryLen
	if minLen <= 0 {
		minLen = 160
	}

	return ecosystem.IsSpecific(tag) && len([]rune(entry.RawText)) >= minLen
}

func (p *Pipeline) report(ctx context.Context) {
	if p.notifier == nil {
		return
	}

	window := p.digest.Window.Std()
	if window <= 0 {
		window = 48 * time.Hour
	}
	limit := p.digest.Limit
	if limit <= 0 {
		limit = 10
	}

	records, err := p.repository.TopRecent(ctx, p.now().Add(-window), p.digest.MinScore, limit)
	if err != nil {
		p.logError("digest query failed", "error", err)
		return
	}
	if len(records) == 0 {
		return
	}

	if err := p.notifier.PublishDigest(ctx, buildDigestMessage(records)); err != nil {
		p.logError("digest delivery failed", "error", err)
	}
}

func buildDigestMessage(records []domain.EnrichedRecord) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ChainBrief: %d notable articles\n\n", len(records)))

	for _, record := range records {
		trust := "Unverified"
		if record.LegitimacyScore > 0.8 {
			trust = "Verified"
		}
		sb.WriteString(fmt.Sprintf("- %s\n[%s] Sentiment %d/10, %s\n%s\n%s\n\n",
			record.Title,
			record.EcosystemTag,
			record.SentimentScore,
			trust,
			record.Summary,
			record.URL))
	}

	return sb.String()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) logInfo(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) logDebug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) logError(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
