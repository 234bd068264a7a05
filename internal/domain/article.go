package domain

import "time"

// RawEntry is a single candidate article produced by a source fetch. It is
// transient: it exists only within one ingestion cycle and is never persisted
// directly. Title and RawText are already cleaned and bounded by the fetcher.
type RawEntry struct {
	Title        string
	URL          string
	RawText      string
	Source       string
	EcosystemTag string
	PublishedAt  time.Time
}

// Analysis is the structured output of the enrichment call.
type Analysis struct {
	Summary         string  `json:"summary"`
	SentimentScore  int     `json:"sentiment_score"`
	EcosystemTag    string  `json:"ecosystem_tag"`
	LegitimacyScore float64 `json:"legitimacy_score"`
}

// DefaultAnalysis is the fallback used when the enrichment service is
// unreachable or produces unusable output.
func DefaultAnalysis() Analysis {
	return Analysis{
		Summary:         "Analysis unavailable.",
		SentimentScore:  5,
		EcosystemTag:    "general",
		LegitimacyScore: 0.5,
	}
}

// EnrichedRecord is the final persisted article shape. A record is created
// once per unique URL and never updated in place by the ingestion pipeline.
type EnrichedRecord struct {
	ID              string
	Title           string
	URL             string
	Summary         string
	Source          string
	EcosystemTag    string
	LegitimacyScore float64
	SentimentScore  int
	IsProcessed     bool
	CreatedAt       time.Time
	PublishedAt     time.Time
}
