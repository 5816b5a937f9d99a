// Package dictionary reads and writes the data-dictionary JSON artifact.
//
// A dictionary is a JSON object keyed by column header. Each entry is parsed
// once into the normalized Entry shape regardless of which of the two
// historical nesting conventions produced it:
//
//	current: "Levels": {"pd": "Parkinson's"}
//	         "Annotations": {"Levels": {"pd": {"TermURL": ..., "Label": ...}}, "Format": {...}}
//	legacy:  "Levels": {"pd": {"Description": "Parkinson's"}}
//	         "Annotations": {"Levels": {"pd": {"TermURL": ..., "Description": ...}}, "Transformation": {...}}
//	         "IsAbout": "nb:Diagnosis"
//
// Keys the model does not represent are kept verbatim in Extra maps and
// written back unchanged. Marshalling is deterministic: entries keep their
// document order, known keys are written in a fixed order followed by extra
// keys sorted by name.
package dictionary
