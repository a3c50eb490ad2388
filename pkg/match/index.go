package match

import (
	"sort"
	"strings"

	"github.com/riskdesk/ews-console/pkg/models"
)

const (
	// MatchedThreshold separates "matched" from "low-confidence".
	MatchedThreshold = 0.15
	// CandidateThreshold is the tolerance budget; candidates at or beyond it
	// are not returned at all.
	CandidateThreshold = 0.35
	// MinQueryLength is the minimum non-whitespace length of a query.
	MinQueryLength = 2
	// DefaultSuggestions is the K used for interactive suggestion lists.
	DefaultSuggestions = 6
)

// Candidate is one ranked result of a fuzzy query. Lower distance is better.
type Candidate struct {
	Rule     *models.RuleRecord
	Distance float64
}

type entry struct {
	key  string
	rule *models.RuleRecord
}

// Index is a searchable view over a rule catalog's reportedChangeText.
// Rebuilding is cheap and must happen whenever the catalog changes; between
// rebuilds the index is immutable.
type Index struct {
	entries []entry
}

// NewIndex builds the index. Rules with an empty reported-change phrase are
// unmatchable and skipped.
func NewIndex(rules []*models.RuleRecord) *Index {
	ix := &Index{entries: make([]entry, 0, len(rules))}
	for _, r := range rules {
		key := Fold(r.ReportedChangeText)
		if key == "" {
			continue
		}
		ix.entries = append(ix.entries, entry{key: key, rule: r})
	}
	return ix
}

// Query returns up to k candidates within the tolerance budget, best first.
// Queries shorter than MinQueryLength non-whitespace characters return nil.
func (ix *Index) Query(text string, k int) []Candidate {
	folded := Fold(text)
	if len(strings.ReplaceAll(folded, " ", "")) < MinQueryLength {
		return nil
	}

	var candidates []Candidate
	for _, e := range ix.entries {
		d := Distance(folded, e.key)
		if d < CandidateThreshold {
			candidates = append(candidates, Candidate{Rule: e.rule, Distance: d})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})

	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// Best classifies free text against the catalog: the single best candidate
// plus its confidence tier. No candidate within the budget, or input too
// short, yields (nil, unmatched).
func (ix *Index) Best(text string) (*Candidate, string) {
	candidates := ix.Query(text, 1)
	if len(candidates) == 0 {
		return nil, models.TierUnmatched
	}
	best := candidates[0]
	return &best, ClassifyDistance(best.Distance)
}

// ClassifyDistance maps a distance onto exactly one confidence tier.
func ClassifyDistance(d float64) string {
	switch {
	case d < MatchedThreshold:
		return models.TierMatched
	case d < CandidateThreshold:
		return models.TierLowConfidence
	default:
		return models.TierUnmatched
	}
}

// FilterSubstring is the manual-override path: an exact-substring
// case-insensitive filter over the catalog, bypassing the distance budget so
// a reviewer can pick any rule directly. It is deliberately not fuzzy; the
// two behaviors are kept as separate code paths.
func FilterSubstring(rules []*models.RuleRecord, query string) []*models.RuleRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []*models.RuleRecord
	for _, r := range rules {
		if q == "" || strings.Contains(strings.ToLower(r.ReportedChangeText), q) {
			out = append(out, r)
		}
	}
	return out
}
