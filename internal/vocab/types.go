package vocab

import (
	"fmt"
	"strings"
)

// DataType is the value kind of an annotated column.
type DataType string

const (
	DataTypeNone        DataType = ""
	DataTypeCategorical DataType = "Categorical"
	DataTypeContinuous  DataType = "Continuous"
)

// IsValid returns true if the data type is a recognized value.
func (d DataType) IsValid() bool {
	return d == DataTypeNone || d == DataTypeCategorical || d == DataTypeContinuous
}

// ParseDataType accepts the serialized spellings case-insensitively.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null", "none":
		return DataTypeNone, nil
	case "categorical":
		return DataTypeCategorical, nil
	case "continuous":
		return DataTypeContinuous, nil
	default:
		return DataTypeNone, fmt.Errorf("unknown data type %q", s)
	}
}

// StandardizedVariable is a vocabulary concept a column can be mapped to.
type StandardizedVariable struct {
	Identifier string `json:"identifier"`
	Label      string `json:"label"`

	// IsMultiColumnMeasure variables group their columns under term cards.
	IsMultiColumnMeasure bool `json:"isMultiColumnMeasure"`
	// CanHaveMultipleColumns lifts the one-column-per-variable restriction.
	CanHaveMultipleColumns bool `json:"canHaveMultipleColumns"`

	// DataType, when set, is forced onto columns mapped to this variable.
	DataType DataType `json:"dataType,omitempty"`
	// Identifies is copied into Annotations.Identifies on export ("participant", "session").
	Identifies string `json:"identifies,omitempty"`
	// Required variables must be mapped before an export is considered complete.
	Required bool `json:"required,omitempty"`
	// PinnedTerms are term labels listed ahead of the alphabetical order.
	PinnedTerms []string `json:"pinnedTerms,omitempty"`
}

// IsExclusive reports whether at most one column may be mapped to the variable.
func (v StandardizedVariable) IsExclusive() bool {
	return !v.CanHaveMultipleColumns && !v.IsMultiColumnMeasure
}

// Term is a controlled-vocabulary value belonging to exactly one variable.
type Term struct {
	Identifier             string `json:"identifier"`
	Label                  string `json:"label"`
	StandardizedVariableID string `json:"standardizedVariableId"`
}

// TermFormat is an allowed value format of a continuous variable.
type TermFormat struct {
	TermURL  string   `json:"termURL"`
	Label    string   `json:"label"`
	Examples []string `json:"examples,omitempty"`
}

// DefaultPinnedTerm is pinned first in term lists of variables that do not
// configure pinned terms themselves.
const DefaultPinnedTerm = "Healthy Control"

// Suffixes of the variable identifiers behind the well-known term groups.
const (
	assessmentSuffix = "Assessment"
	diagnosisSuffix  = "Diagnosis"
	sexSuffix        = "Sex"
)
