// Package diagnostic provides structured infos and warnings produced
// while reconciling an uploaded table and data dictionary with the active
// vocabulary.
//
// Reconciliation never fails on structural mismatches; instead it records
// what it dropped or rebuilt so callers can show the user why an annotation
// from an older dictionary did not survive:
//   - Stale dictionary levels dropped in favour of table values
//   - Dictionary entries that match no table column
//   - Vocabulary identifiers unknown to the active configuration, with suggestions
package diagnostic
