package diagnostic

import (
	"fmt"
	"strings"
)

// Diagnostics holds all diagnostic information from one reconciliation pass.
type Diagnostics struct {
	Warnings []Diagnostic `json:"warnings,omitempty"`
	Infos    []Diagnostic `json:"infos,omitempty"`
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity Severity `json:"severity"`
	// Code is a unique identifier for this type of diagnostic.
	Code string `json:"code"`
	// Message is the human-readable description.
	Message string `json:"message"`
	// Column is the table header this relates to (if any).
	Column string `json:"column,omitempty"`
	// Value is the raw cell value this relates to (if any).
	Value string `json:"value,omitempty"`
	// Suggestions are potential fixes or alternatives.
	Suggestions []string `json:"suggestions,omitempty"`
}

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// MarshalText renders the severity by name in JSON output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic codes emitted during ingestion.
const (
	CodeStaleLevel          = "stale_level"
	CodeNewLevel            = "new_level"
	CodeStaleMissingValue   = "stale_missing_value"
	CodeUnmatchedEntry      = "unmatched_entry"
	CodeFuzzyHeaderMatch    = "fuzzy_header_match"
	CodeDuplicateHeader     = "duplicate_header"
	CodeUnknownVariable     = "unknown_variable"
	CodeUnknownTerm         = "unknown_term"
	CodeUnknownFormat       = "unknown_format"
	CodeMissingValueTerm    = "missing_value_term"
	CodeLegacyShape         = "legacy_shape"
	CodeUnsupportedDataType = "unsupported_data_type"
)

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, column, value string, suggestions ...string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity:    SeverityWarning,
		Code:        code,
		Message:     message,
		Column:      column,
		Value:       value,
		Suggestions: suggestions,
	})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, column, value string) {
	d.Infos = append(d.Infos, Diagnostic{
		Severity: SeverityInfo,
		Code:     code,
		Message:  message,
		Column:   column,
		Value:    value,
	})
}

// Len returns the number of diagnostics of every severity.
func (d *Diagnostics) Len() int {
	return len(d.Warnings) + len(d.Infos)
}

// ByCode returns all diagnostics with the given code, warnings first.
func (d *Diagnostics) ByCode(code string) []Diagnostic {
	var out []Diagnostic

	for _, group := range [][]Diagnostic{d.Warnings, d.Infos} {
		for _, diag := range group {
			if diag.Code == code {
				out = append(out, diag)
			}
		}
	}

	return out
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Column != "" {
		prefix = append(prefix, "["+d.Column+"]")
	}

	if d.Value != "" {
		prefix = append(prefix, fmt.Sprintf("%q", d.Value))
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}
