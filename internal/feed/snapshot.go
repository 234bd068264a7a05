package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"chainbrief/internal/domain"
	"chainbrief/internal/ecosystem"
	"chainbrief/internal/language"
	"chainbrief/internal/scanner"
	"chainbrief/internal/textnorm"
)

const defaultSnapshotSpaces = "ens.eth,aave.eth,uniswap"

const snapshotQuery = `query Proposals($spaces: [String]!, $first: Int!) {
  proposals(first: $first, skip: 0, where: {space_in: $spaces}, orderBy: "created", orderDirection: desc) {
    id
    title
    body
    start
    state
    author
    space { id name }
  }
}`

// SnapshotScanner pulls recent governance proposals from a Snapshot GraphQL
// hub and turns them into article candidates.
type SnapshotScanner struct {
	client *http.Client
	filter *language.Filter
	logger *slog.Logger
}

var _ scanner.Scanner = (*SnapshotScanner)(nil)

// NewSnapshotScanner wires the shared fetch client.
func NewSnapshotScanner(client *http.Client, filter *language.Filter, logger *slog.Logger) *SnapshotScanner {
	if client == nil {
		client = NewHTTPClient(fetchTimeout)
	}
	return &SnapshotScanner{client: client, filter: filter, logger: logger}
}

// Name identifies the strategy inside the registry.
func (s *SnapshotScanner) Name() string {
	return "snapshot"
}

type snapshotProposal struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Start  int64  `json:"start"`
	State  string `json:"state"`
	Author string `json:"author"`
	Space  struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"space"`
}

type snapshotResponse struct {
	Data struct {
		Proposals []snapshotProposal `json:"proposals"`
	} `json:"data"`
}

// Scan queries each configured hub URL for proposals of the configured spaces.
func (s *SnapshotScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawEntry, error) {
	spaces := strings.Split(defaultSnapshotSpaces, ",")
	if raw := req.Options["spaces"]; raw != "" {
		spaces = strings.Split(raw, ",")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	var entries []domain.RawEntry
	for _, hubURL := range req.URLs {
		proposals, err := s.queryProposals(ctx, hubURL, spaces, limit)
		if err != nil {
			if s.logger != nil {
				s.logger.Debug("snapshot query failed", "url", hubURL, "error", err)
			}
			continue
		}

		for _, proposal := range proposals {
			entry, ok := s.buildEntry(proposal, req.SourceName)
			if !ok {
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

func (s *SnapshotScanner) queryProposals(ctx context.Context, hubURL string, spaces []string, limit int) ([]snapshotProposal, error) {
	payload, err := json.Marshal(map[string]any{
		"query": snapshotQuery,
		"variables": map[string]any{
			"spaces": spaces,
			"first":  limit,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, hubURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request hub: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hub returned %s", resp.Status)
	}

	var decoded snapshotResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return decoded.Data.Proposals, nil
}

func (s *SnapshotScanner) buildEntry(proposal snapshotProposal, sourceName string) (domain.RawEntry, bool) {
	title := "Governance: " + proposal.Title
	if !s.filter.ShouldInclude(title, proposal.Body) {
		return domain.RawEntry{}, false
	}

	cleanTitle := textnorm.Truncate(textnorm.Clean(title), maxTitleLen)
	cleanBody := textnorm.Truncate(textnorm.Clean(proposal.Body), maxTextLen)

	return domain.RawEntry{
		Title:        cleanTitle,
		URL:          fmt.Sprintf("https://snapshot.org/#/%s/proposal/%s", proposal.Space.ID, proposal.ID),
		RawText:      cleanBody,
		Source:       sourceName,
		EcosystemTag: ecosystem.DetectDAOTag(proposal.Space.ID),
		PublishedAt:  time.Unix(proposal.Start, 0).UTC(),
	}, proposal.ID != ""
}
