package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chainbrief/internal/config"
	"chainbrief/internal/domain"
	"chainbrief/internal/ports"
)

const analysisPrompt = `You are Lexi, a Web3 Intelligence Agent. Analyze this article.

Title: %s
Content: %s (truncated)

Respond ONLY with a valid JSON object containing:
1. "summary": A 2-sentence summary.
2. "sentiment_score": Integer 1-10 (1=Bearish, 10=Bullish).
3. "ecosystem_tag": One of [Ethereum, Solana, Base, DeFi, NFT, Regulation, General].
4. "legitimacy_score": Float 0.0 to 1.0 (0.0 = Scam/Spam, 1.0 = Highly Trusted Source).`

// GeminiClient implements ports.Enricher against the Gemini REST API. Every
// failure path returns the default analysis alongside the error so callers
// always have a usable result.
type GeminiClient struct {
	endpoint      string
	model         string
	apiKey        string
	maxInputChars int
	httpClient    *http.Client
}

var _ ports.Enricher = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.EnrichmentConfig) *GeminiClient {
	maxInput := cfg.MaxInputChars
	if maxInput <= 0 {
		maxInput = 4000
	}
	return &GeminiClient{
		endpoint:      strings.TrimSuffix(cfg.Endpoint, "/"),
		model:         cfg.Model,
		apiKey:        cfg.APIKey,
		maxInputChars: maxInput,
		httpClient:    &http.Client{Timeout: 20 * time.Second},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze sends the title and truncated text for analysis. On any failure it
// returns domain.DefaultAnalysis() together with the cause.
func (c *GeminiClient) Analyze(ctx context.Context, title, text string) (domain.Analysis, error) {
	if c.apiKey == "" || c.model == "" || c.endpoint == "" {
		return domain.DefaultAnalysis(), fmt.Errorf("gemini client misconfigured")
	}

	prompt := fmt.Sprintf(analysisPrompt, title, truncateRunes(text, c.maxInputChars))

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return domain.DefaultAnalysis(), fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.endpoint, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.DefaultAnalysis(), fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.DefaultAnalysis(), fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.DefaultAnalysis(), fmt.Errorf("gemini error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.DefaultAnalysis(), fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != nil {
		return domain.DefaultAnalysis(), fmt.Errorf("gemini error: %s", decoded.Error.Message)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return domain.DefaultAnalysis(), fmt.Errorf("gemini returned no candidates")
	}

	return parseAnalysis(decoded.Candidates[0].Content.Parts[0].Text)
}

// parseAnalysis strips code-fence markers from the model output and decodes
// the structured fields, clamping them into their contractual ranges.
func parseAnalysis(raw string) (domain.Analysis, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.ReplaceAll(clean, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	var analysis domain.Analysis
	if err := json.Unmarshal([]byte(clean), &analysis); err != nil {
		return domain.DefaultAnalysis(), fmt.Errorf("non-JSON model output: %w", err)
	}

	if analysis.Summary == "" {
		analysis.Summary = domain.DefaultAnalysis().Summary
	}
	if analysis.SentimentScore < 1 || analysis.SentimentScore > 10 {
		analysis.SentimentScore = 5
	}
	if analysis.LegitimacyScore < 0 || analysis.LegitimacyScore > 1 {
		analysis.LegitimacyScore = 0.5
	}

	analysis.EcosystemTag = strings.ToLower(strings.TrimSpace(analysis.EcosystemTag))
	if analysis.EcosystemTag == "" {
		analysis.EcosystemTag = "general"
	}

	return analysis, nil
}

func truncateRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
