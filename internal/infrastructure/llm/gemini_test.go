package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chainbrief/internal/config"
	"chainbrief/internal/domain"
)

func newTestClient(endpoint string) *GeminiClient {
	return NewGeminiClient(config.EnrichmentConfig{
		Endpoint:      endpoint,
		Model:         "gemini-flash-latest",
		APIKey:        "test-key",
		MaxInputChars: 4000,
	})
}

func modelReply(text string) string {
	payload := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestAnalyzeParsesFencedJSON(t *testing.T) {
	t.Parallel()

	reply := "```json\n{\"summary\": \"Two sentences.\", \"sentiment_score\": 8, \"ecosystem_tag\": \"Ethereum\", \"legitimacy_score\": 0.9}\n```"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-flash-latest") {
			t.Errorf("model missing from path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("api key missing from query")
		}
		fmt.Fprint(w, modelReply(reply))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	analysis, err := client.Analyze(context.Background(), "Title", "Body text")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if analysis.Summary != "Two sentences." {
		t.Fatalf("unexpected summary: %q", analysis.Summary)
	}
	if analysis.SentimentScore != 8 {
		t.Fatalf("unexpected sentiment: %d", analysis.SentimentScore)
	}
	if analysis.EcosystemTag != "ethereum" {
		t.Fatalf("tag must be lowercased, got %q", analysis.EcosystemTag)
	}
	if analysis.LegitimacyScore != 0.9 {
		t.Fatalf("unexpected legitimacy: %v", analysis.LegitimacyScore)
	}
}

func TestAnalyzeNonJSONFallsBack(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, modelReply("I am sorry, I cannot produce JSON today."))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	analysis, err := client.Analyze(context.Background(), "Title", "Body")
	if err == nil {
		t.Fatal("expected error for non-JSON output")
	}
	if analysis != domain.DefaultAnalysis() {
		t.Fatalf("expected default analysis, got %+v", analysis)
	}
}

func TestAnalyzeHTTPErrorFallsBack(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	analysis, err := client.Analyze(context.Background(), "Title", "Body")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if analysis != domain.DefaultAnalysis() {
		t.Fatalf("expected default analysis, got %+v", analysis)
	}
}

func TestAnalyzeClampsOutOfRangeFields(t *testing.T) {
	t.Parallel()

	reply := `{"summary": "ok", "sentiment_score": 42, "ecosystem_tag": "", "legitimacy_score": 3.5}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, modelReply(reply))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	analysis, err := client.Analyze(context.Background(), "Title", "Body")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if analysis.SentimentScore != 5 {
		t.Fatalf("out-of-range sentiment must reset to 5, got %d", analysis.SentimentScore)
	}
	if analysis.LegitimacyScore != 0.5 {
		t.Fatalf("out-of-range legitimacy must reset to 0.5, got %v", analysis.LegitimacyScore)
	}
	if analysis.EcosystemTag != "general" {
		t.Fatalf("empty tag must default to general, got %q", analysis.EcosystemTag)
	}
}

func TestAnalyzeMisconfigured(t *testing.T) {
	t.Parallel()

	client := NewGeminiClient(config.EnrichmentConfig{})
	analysis, err := client.Analyze(context.Background(), "Title", "Body")
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if analysis != domain.DefaultAnalysis() {
		t.Fatalf("expected default analysis, got %+v", analysis)
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	if got := truncateRunes("hello", 10); got != "hello" {
		t.Fatalf("short input changed: %q", got)
	}
	if got := truncateRunes("hello world", 5); got != "hello" {
		t.Fatalf("truncation wrong: %q", got)
	}
}
