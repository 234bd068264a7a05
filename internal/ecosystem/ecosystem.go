// Package ecosystem assigns coarse Web3 category tags used for feed
// filtering. Tags are always lowercase.
package ecosystem

import "strings"

// DefaultTag is used when no marker matches.
const DefaultTag = "web3"

var tagMarkers = []struct {
	tag     string
	markers []string
}{
	{"ethereum", []string{"ethereum", "eth", "solidity", "evm"}},
	{"solana", []string{"solana", "sol", "rust", "sealevel"}},
	{"base", []string{"base", "coinbase", "optimism"}},
	{"farcaster", []string{"farcaster", "warpcast", "cast"}},
	{"bitcoin", []string{"bitcoin", "btc", "lightning"}},
	{"polygon", []string{"polygon", "matic", "pos"}},
	{"arbitrum", []string{"arbitrum", "rollup"}},
}

var daoSpaceTags = []struct {
	marker string
	tag    string
}{
	{"ens", "ethereum"},
	{"aave", "defi"},
	{"uniswap", "defi"},
	{"compound", "defi"},
	{"maker", "defi"},
	{"opcollective", "optimism"},
}

// DetectTag infers an ecosystem tag from article text.
func DetectTag(text string) string {
	lower := strings.ToLower(text)

	for _, entry := range tagMarkers {
		for _, marker := range entry.markers {
			if strings.Contains(lower, marker) {
				return entry.tag
			}
		}
	}

	return DefaultTag
}

// DetectDAOTag infers an ecosystem tag from a governance space identifier.
func DetectDAOTag(spaceID string) string {
	lower := strings.ToLower(spaceID)

	for _, entry := range daoSpaceTags {
		if strings.Contains(lower, entry.marker) {
			return entry.tag
		}
	}

	return DefaultTag
}

// IsSpecific reports whether a tag is concrete enough that the heuristic
// classification can stand on its own without LLM confirmation.
func IsSpecific(tag string) bool {
	switch strings.ToLower(tag) {
	case "", DefaultTag, "general":
		return false
	default:
		return true
	}
}
