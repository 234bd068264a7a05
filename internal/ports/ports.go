package ports

import (
	"context"
	"time"

	"chainbrief/internal/domain"
)

// ArticleSource pulls candidate articles from all configured upstreams.
type ArticleSource interface {
	FetchAll(ctx context.Context) ([]domain.RawEntry, error)
}

// ArticleRepository persists enriched records and answers dedup queries.
// FindByURL returns (nil, nil) when no record exists.
type ArticleRepository interface {
	FindByURL(ctx context.Context, url string) (*domain.EnrichedRecord, error)
	Insert(ctx context.Context, record domain.EnrichedRecord) error
	Recent(ctx context.Context, ecosystemTag string, limit int) ([]domain.EnrichedRecord, error)
	Search(ctx context.Context, query string, limit int) ([]domain.EnrichedRecord, error)
	TopRecent(ctx context.Context, since time.Time, minScore float64, limit int) ([]domain.EnrichedRecord, error)
}

// Enricher sends an article to the LLM analysis service.
type Enricher interface {
	Analyze(ctx context.Context, title, text string) (domain.Analysis, error)
}

// Notifier delivers post-cycle digests to an outbound channel.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when ingestion cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
