package match

// Levenshtein returns the edit distance between a and b counted in bytes.
// Headers and identifiers are overwhelmingly ASCII, so byte distance is
// close enough for ranking suggestions.
func Levenshtein(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return len(b)
	case b == "":
		return len(a)
	}

	if len(a) > len(b) {
		a, b = b, a
	}

	// row[i] holds the distance between a[:i] and the current prefix of b.
	row := make([]int, len(a)+1)
	for i := range row {
		row[i] = i
	}

	for j := 1; j <= len(b); j++ {
		diag := row[0]
		row[0] = j

		for i := 1; i <= len(a); i++ {
			up := row[i]

			sub := diag
			if a[i-1] != b[j-1] {
				sub++
			}

			row[i] = min(up+1, row[i-1]+1, sub)
			diag = up
		}
	}

	return row[len(a)]
}

// LevenshteinNormalized maps the distance onto a 0..1 similarity, 1 meaning
// identical.
func LevenshteinNormalized(a, b string) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}

	return 1 - float64(Levenshtein(a, b))/float64(longest)
}

// KeySimilarity compares two headers or identifiers after normalizing them
// and dropping any namespace prefix. The better of the plain and
// suffix-stripped comparisons wins.
func KeySimilarity(a, b string) float64 {
	a, b = StripNamespace(a), StripNamespace(b)

	return max(
		LevenshteinNormalized(NormalizeKey(a), NormalizeKey(b)),
		LevenshteinNormalized(NormalizeKeyWithSuffixStrip(a), NormalizeKeyWithSuffixStrip(b)),
	)
}
