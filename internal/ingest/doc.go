// Package ingest reconciles an uploaded table and an optional data
// dictionary into a fresh annotation state.
//
// Ingestion is all-or-nothing: it either returns a complete State or an
// error, and never touches a live model. Mismatches between the table and
// the dictionary are resolved deterministically (the table wins for the set
// of levels and missing values) and reported as diagnostics.
package ingest
