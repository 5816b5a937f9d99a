package match

import (
	"strings"
	"unicode"
)

// NormalizeKey normalizes a header, dictionary key or identifier for fuzzy matching.
// The normalization pipeline:
// 1. Trim surrounding whitespace and a leading byte order mark.
// 2. Expand CamelCase into tokens.
// 3. Case-fold to lower.
// 4. Strip separators (_, -, ., spaces).
func NormalizeKey(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "\ufeff")

	tokens := tokenizeCamelCase(s)

	return strings.ToLower(stripSeparators(strings.Join(tokens, "")))
}

// NormalizeKeyWithSuffixStrip normalizes and strips tokens that commonly
// decorate the same concept in column headers ("participant_id" vs "participant").
func NormalizeKeyWithSuffixStrip(s string) string {
	normalized := NormalizeKey(s)

	// Longer suffixes first so "ids" is not cut down to "i"+"ds"
	suffixes := []string{"score", "total", "ids", "id"}
	for _, suffix := range suffixes {
		if strings.HasSuffix(normalized, suffix) && len(normalized) > len(suffix) {
			normalized = strings.TrimSuffix(normalized, suffix)

			break
		}
	}

	return normalized
}

// StripNamespace returns the local part of a prefixed term URL ("nb:Age" -> "Age").
// Full URLs are reduced to their last path or fragment segment.
func StripNamespace(termURL string) string {
	if i := strings.LastIndexAny(termURL, "#/"); i >= 0 && i < len(termURL)-1 {
		return termURL[i+1:]
	}

	if i := strings.Index(termURL, ":"); i >= 0 {
		return termURL[i+1:]
	}

	return termURL
}

// tokenizeCamelCase splits a CamelCase or camelCase string into tokens.
// Examples:
//   - "ParticipantID" -> ["Participant", "ID"]
//   - "ageAtScan" -> ["age", "At", "Scan"]
//   - "UPDRSPartIII" -> ["UPDRS", "Part", "III"]
func tokenizeCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var tokens []string

	var current strings.Builder

	runes := []rune(s)
	for i := range runes {
		r := runes[i]

		if isSeparator(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

			continue
		}

		if i > 0 && shouldStartNewToken(runes, i) && current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
}

// shouldStartNewToken reports whether a new token starts at position i.
func shouldStartNewToken(runes []rune, i int) bool {
	r := runes[i]
	prev := runes[i-1]

	if unicode.IsUpper(r) && !unicode.IsUpper(prev) && !isSeparator(prev) {
		return true
	}

	// End of an acronym: "UPDRSPart" splits before 'P'
	hasNextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

	return unicode.IsUpper(r) && unicode.IsUpper(prev) && hasNextLower
}

func stripSeparators(s string) string {
	var result strings.Builder

	result.Grow(len(s))

	for _, r := range s {
		if !isSeparator(r) {
			result.WriteRune(r)
		}
	}

	return result.String()
}
