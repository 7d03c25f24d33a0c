// Package intent implements the Query Intent Analyzer of spec.md §4.6:
// tag parsing ahead of analysis, LLM-assisted database-intent detection,
// and the confidence-to-strategy mapping consumed by the router.
// Grounded on unified-rag-service's parseQueryTags/stripTags pass and
// go-enhanced-rag-service's analyzeIntent prompt-and-parse shape.
package intent

import (
	"regexp"
	"strings"

	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

var (
	langTag  = regexp.MustCompile(`(?i)-lang:([a-z]{2})`)
	tagToken = regexp.MustCompile(`(?i)^-(d|db|a|i|mcp|lang:[a-z]{2})$`)
)

// ParseTags extracts directive tags from a raw query, returning the parsed
// Tags and the query with every tag token removed (spec.md §6: "-lang:xx
// sets PreferredLanguage without affecting mode").
//
// Tags are stripped token-by-token (via strings.Fields) rather than with a
// whitespace-boundary regex: ReplaceAllString only produces non-overlapping
// matches, so adjacent tags separated by a single space (e.g. "-d -a") each
// consume their surrounding whitespace and the next tag's "(^|\s)" boundary
// goes unmatched. Splitting on fields sidesteps that entirely.
func ParseTags(raw string) (ragtypes.Tags, string) {
	var tags ragtypes.Tags
	if m := langTag.FindStringSubmatch(raw); m != nil {
		tags.PreferredLanguage = strings.ToLower(m[1])
	}
	lower := strings.ToLower(raw)
	tags.DocumentOnly = hasTag(lower, "-d")
	tags.DatabaseOnly = hasTag(lower, "-db")
	tags.Audio = hasTag(lower, "-a")
	tags.Image = hasTag(lower, "-i")
	tags.MCP = hasTag(lower, "-mcp")

	var kept []string
	for _, f := range strings.Fields(raw) {
		if tagToken.MatchString(f) {
			continue
		}
		kept = append(kept, f)
	}
	return tags, strings.Join(kept, " ")
}

func hasTag(lowerQuery, tag string) bool {
	for _, f := range strings.Fields(lowerQuery) {
		if f == tag {
			return true
		}
	}
	return false
}

// StrategyFromConfidence applies the router's confidence→strategy mapping
// (spec.md §4.6): >0.7 → DatabaseOnly if ≥1 DB query else DocumentOnly;
// 0.3–0.7 → Hybrid; <0.3 → DocumentOnly.
func StrategyFromConfidence(intent *ragtypes.QueryIntent) ragtypes.Strategy {
	if intent == nil {
		return ragtypes.StrategyDocumentOnly
	}
	switch {
	case intent.Confidence > 0.7:
		if intent.HasDatabaseQueries() {
			return ragtypes.StrategyDatabaseOnly
		}
		return ragtypes.StrategyDocumentOnly
	case intent.Confidence >= 0.3:
		return ragtypes.StrategyHybrid
	default:
		return ragtypes.StrategyDocumentOnly
	}
}
