package match

import (
	"sort"
)

// Option is a named vocabulary entry that an unknown name can be matched against.
type Option struct {
	// Key is the stable identifier (a term URL or column id).
	Key string
	// Label is the human-readable name.
	Label string
}

// Candidate represents a potential match between an unknown name and an option.
type Candidate struct {
	Option Option

	// Score is the best of key and label similarity (0-1).
	Score float64

	// NormalizedQuery is kept for explanation in diagnostics.
	NormalizedQuery string
}

// CandidateList is a list of candidates with ranking functionality.
type CandidateList []Candidate

// RankCandidates scores every option against query and returns them sorted
// by score (descending).
func RankCandidates(query string, options []Option) CandidateList {
	candidates := make(CandidateList, 0, len(options))
	normalized := NormalizeKey(StripNamespace(query))

	for _, opt := range options {
		score := KeySimilarity(query, opt.Key)
		if opt.Label != "" {
			if byLabel := KeySimilarity(query, opt.Label); byLabel > score {
				score = byLabel
			}
		}

		candidates = append(candidates, Candidate{
			Option:          opt,
			Score:           score,
			NormalizedQuery: normalized,
		})
	}

	sort.Sort(candidates)

	return candidates
}

// Len implements sort.Interface.
func (c CandidateList) Len() int { return len(c) }

// Swap implements sort.Interface.
func (c CandidateList) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

// Less implements sort.Interface.
// Sorts by score descending, then by key for determinism.
func (c CandidateList) Less(i, j int) bool {
	if c[i].Score != c[j].Score {
		return c[i].Score > c[j].Score
	}

	return c[i].Option.Key < c[j].Option.Key
}

// Top returns the top n candidates.
func (c CandidateList) Top(n int) CandidateList {
	if n >= len(c) {
		return c
	}

	return c[:n]
}

// AboveThreshold returns candidates with a score of at least threshold.
func (c CandidateList) AboveThreshold(threshold float64) CandidateList {
	var result CandidateList

	for _, cand := range c {
		if cand.Score >= threshold {
			result = append(result, cand)
		}
	}

	return result
}

// Keys returns the option keys in ranked order.
func (c CandidateList) Keys() []string {
	keys := make([]string, len(c))
	for i, cand := range c {
		keys[i] = cand.Option.Key
	}

	return keys
}

// Suggest returns up to n option keys scoring at least DefaultSuggestionScore.
func Suggest(query string, options []Option, n int) []string {
	return RankCandidates(query, options).AboveThreshold(DefaultSuggestionScore).Top(n).Keys()
}

// DefaultSuggestionScore is the minimum similarity for an option to be
// offered as a "did you mean" suggestion.
const DefaultSuggestionScore = 0.6
