// Package legitimacy estimates how trustworthy an article is from its domain,
// content and freshness. Scoring is deterministic and must never abort the
// pipeline: any internal failure yields the neutral 0.5.
package legitimacy

import (
	"math"
	"net/url"
	"strings"
	"time"
	"unicode"

	"chainbrief/internal/domain"
)

var scamKeywords = []string{
	"free", "giveaway", "airdrop", "limited time", "urgent",
	"guaranteed", "100% return", "double your", "secret",
	"don't miss", "last chance", "exclusive", "click here",
	"sign up now", "limited supply", "once in a lifetime", "discount",
}

var trustedAuthors = []string{
	"vitalik", "buterin", "paradigm", "a16z", "coinbase",
	"base", "ethereum", "official", "foundation", "solana",
	"farcaster", "snapshot", "governance",
}

var trustedDomains = []string{
	"ethereum.org", "blog.ethereum.org", "vitalik.ca",
	"base.org", "docs.base.org", "mirror.xyz",
	"farcaster.xyz", "warpcast.com", "snapshot.org",
	"medium.com", "research.paradigm.xyz", "a16zcrypto.com",
	"solana.com", "solana.org", "solana.foundation",
	"arbitrum.io", "optimism.io", "polygon.technology",
}

var technicalTerms = []string{
	"tutorial", "guide", "explained", "research", "analysis", "technical",
}

// Disposable TLDs frequently abused by scam mirrors.
var suspiciousTLDs = []string{".tk", ".ml", ".ga", ".cf"}

// Checker computes legitimacy scores. The zero value is not usable; construct
// with NewChecker.
type Checker struct {
	now func() time.Time
}

// NewChecker builds a checker using the wall clock for freshness.
func NewChecker() *Checker {
	return &Checker{now: time.Now}
}

// DomainScore rates the article host: 1.0 for curated trusted domains (exact
// or subdomain), 0.8 for Medium publications, 0.1 for disposable TLDs, 0.5
// for anything else. An unparsable URL rates 0.3.
func (c *Checker) DomainScore(rawURL string) float64 {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return 0.3
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")

	for _, trusted := range trustedDomains {
		if host == trusted || strings.HasSuffix(host, "."+trusted) {
			return 1.0
		}
	}

	if strings.Contains(host, "medium.com") {
		return 0.8
	}

	for _, tld := range suspiciousTLDs {
		if strings.Contains(host, tld) {
			return 0.1
		}
	}

	return 0.5
}

// ContentScore rates title+summary quality: each scam-keyword hit costs 0.15,
// a trusted-author token adds 0.2, a technical/educational term adds 0.1, and
// a shouty title (uppercase ratio above 0.7) costs 0.2. Clamped to [0.1, 1.0].
func (c *Checker) ContentScore(title, summary string) float64 {
	score := 1.0
	text := strings.ToLower(title + " " + summary)

	for _, keyword := range scamKeywords {
		if strings.Contains(text, keyword) {
			score -= 0.15
		}
	}

	for _, author := range trustedAuthors {
		if strings.Contains(text, author) {
			score += 0.2
			break
		}
	}

	for _, term := range technicalTerms {
		if strings.Contains(text, term) {
			score += 0.1
			break
		}
	}

	if uppercaseRatio(title) > 0.7 {
		score -= 0.2
	}

	return clamp(score, 0.1, 1.0)
}

// FreshnessScore rates recency in tiers: up to a day 1.0, a week 0.8, a month
// 0.6, older 0.4. A zero (unparsable) timestamp rates 0.5.
func (c *Checker) FreshnessScore(publishedAt time.Time) float64 {
	if publishedAt.IsZero() {
		return 0.5
	}

	days := int(c.now().Sub(publishedAt).Hours() / 24)
	switch {
	case days <= 1:
		return 1.0
	case days <= 7:
		return 0.8
	case days <= 30:
		return 0.6
	default:
		return 0.4
	}
}

// Score combines domain, content and freshness as 0.5/0.4/0.1 weights,
// rounded to two decimals.
func (c *Checker) Score(entry domain.RawEntry) float64 {
	domainScore := c.DomainScore(entry.URL)
	contentScore := c.ContentScore(entry.Title, entry.RawText)
	freshness := c.FreshnessScore(entry.PublishedAt)

	final := domainScore*0.5 + contentScore*0.4 + freshness*0.1
	return math.Round(final*100) / 100
}

func uppercaseRatio(title string) float64 {
	runes := []rune(title)
	if len(runes) == 0 {
		return 0
	}

	var upper int
	for _, r := range runes {
		if unicode.IsUpper(r) {
			upper++
		}
	}

	return float64(upper) / float64(len(runes))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
