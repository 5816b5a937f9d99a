// Package match provides name normalization, Levenshtein distance calculation,
// and candidate ranking used to reconcile table headers, dictionary keys and
// vocabulary identifiers that differ only in casing, separators or namespace.
//
// Key functions:
//   - NormalizeKey: normalizes a header or identifier for fuzzy matching
//   - StripNamespace: drops a "prefix:" namespace from a term URL
//   - Levenshtein: computes edit distance between strings
//   - RankCandidates: ranks vocabulary options against an unknown name
package match
