// Package annotation holds the editable annotation state of one uploaded table.
//
// The Model is the single owner of that state: columns, multi-column measure
// cards and the active vocabulary configuration. Every mutation goes through
// a Model method and affects only the column (or card) it names, apart from
// the documented side effects:
//
//   - changing a column's data type discards the other type's fields
//   - changing a column's standardized variable clears vocabulary-bound
//     fields and unmaps the column from measure cards
//   - marking a value missing clears its term and description
//   - mapping a column to a card unmaps it from every other card of the
//     same variable
//
// Everything derived from the state (disabled variables, option lists,
// progress) is computed by the pure functions in availability.go from a
// State snapshot, so nothing is cached and nothing can go stale.
//
// Free-text edits are debounced by an Editor. Each editable text carries a
// Version; a queued commit applies only if the version it captured is still
// current, so any intervening mutation of the same value wins over it.
package annotation
