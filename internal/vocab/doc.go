// Package vocab loads controlled-vocabulary configurations and exposes them
// as immutable lookup structures.
//
// A configuration names the standardized variables a table column can be
// mapped to, the terms each categorical variable allows, and the value
// formats each continuous variable allows. Configurations come from a
// Provider: the bundled provider reads the copies embedded in the binary,
// the remote provider fetches the same layout over HTTP.
//
// # Layout
//
// Every configuration is a directory holding config.json and the term files
// it references:
//
//	Neurobagel/
//	  config.json       standardized_variables, formats, pinned terms
//	  diagnosis.json    {"namespace_prefix": "snomed", "terms": [...]}
//	  assessment.json
//
// # Resolution
//
// A Resolver tracks the configuration selected by one annotation session.
// Select tries the remote provider first and silently falls back to the
// bundled copy on any failure; Status reports whether that happened. When
// selections overlap, only the most recent one may become active: an older
// response that arrives late is discarded with ErrSuperseded.
package vocab
