// Package table parses uploaded tabular files into a header row and data rows.
//
// Tab-separated (.tsv, and anything without a recognized extension),
// comma-separated (.csv) and Excel (.xlsx, first sheet) inputs are supported.
// Every line-ending variant is normalized before values are extracted, so no
// returned value ever contains a carriage return.
package table
