package dictionary

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// parseEntry decodes one entry in either shape and normalizes it.
func parseEntry(data []byte) (*Entry, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, malformed("entry is not an object")
	}

	e := &Entry{Shape: ShapeCurrent}

	// Top-level Levels are read first so their descriptions take precedence
	// over legacy descriptions nested in Annotations.Levels.
	keys := sortedKeys(fields)
	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i] == keyLevels && keys[j] != keyLevels
	})

	for _, key := range keys {
		raw := fields[key]

		var err error

		switch key {
		case keyDescription:
			e.Description, err = optionalString(key, raw)
		case keyLevels:
			err = parseLevels(e, raw)
		case keyUnits:
			var units *string

			units, err = optionalString(key, raw)
			if units != nil {
				e.Units = *units
			}
		case keyAnnotations:
			err = parseAnnotations(e, raw)
		default:
			if e.Extra == nil {
				e.Extra = make(map[string]json.RawMessage)
			}

			e.Extra[key] = raw
		}

		if err != nil {
			return nil, err
		}
	}

	return e, nil
}

// parseLevels reads top-level Levels. Current values are plain strings;
// legacy values are {"Description": ...} objects.
func parseLevels(e *Entry, raw json.RawMessage) error {
	if isNull(raw) {
		return nil
	}

	var levels map[string]json.RawMessage
	if err := json.Unmarshal(raw, &levels); err != nil {
		return malformed("Levels is not an object")
	}

	if e.Levels == nil {
		e.Levels = make(map[string]string, len(levels))
	}

	for value, lr := range levels {
		switch firstByte(lr) {
		case '"':
			var s string
			if err := json.Unmarshal(lr, &s); err != nil {
				return malformed("Levels[%q]: %v", value, err)
			}

			e.setLevelDescription(value, s)
		case '{':
			var legacy struct {
				Description *string `json:"Description"`
				TermURL     string  `json:"TermURL"`
				Label       string  `json:"Label"`
			}
			if err := json.Unmarshal(lr, &legacy); err != nil {
				return malformed("Levels[%q]: %v", value, err)
			}

			e.Shape = ShapeLegacy

			desc := ""
			if legacy.Description != nil {
				desc = *legacy.Description
			}

			e.setLevelDescription(value, desc)

			if legacy.TermURL != "" {
				a := e.ensureAnnotations()
				if _, ok := a.Levels[value]; !ok {
					a.Levels[value] = TermRef{TermURL: legacy.TermURL, Label: legacy.Label}
				}
			}
		case 'n':
			e.setLevelDescription(value, "")
		default:
			return malformed("Levels[%q] has unsupported type", value)
		}
	}

	return nil
}

func parseAnnotations(e *Entry, raw json.RawMessage) error {
	if isNull(raw) {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return malformed("Annotations is not an object")
	}

	a := e.ensureAnnotations()

	var transformation *TermRef

	for key, fr := range fields {
		var err error

		switch key {
		case keyIsAbout:
			a.IsAbout, err = parseTermRef(e, key, fr)
		case keyIsPartOf:
			a.IsPartOf, err = parseTermRef(e, key, fr)
		case keyFormat:
			a.Format, err = parseTermRef(e, key, fr)
		case keyTransformation:
			transformation, err = parseTermRef(e, key, fr)
			e.Shape = ShapeLegacy
		case keyVariableType:
			a.VariableType, err = plainString(key, fr)
		case keyIdentifies:
			a.Identifies, err = plainString(key, fr)
		case keyLevels:
			err = parseAnnotationLevels(e, fr)
		case keyMissingValues:
			a.MissingValues, err = stringList(key, fr)
		default:
			if a.Extra == nil {
				a.Extra = make(map[string]json.RawMessage)
			}

			a.Extra[key] = fr
		}

		if err != nil {
			return err
		}
	}

	if a.Format == nil && transformation != nil {
		a.Format = transformation
	}

	return nil
}

// parseAnnotationLevels reads Annotations.Levels. Legacy dictionaries carry
// the level description here instead of in top-level Levels.
func parseAnnotationLevels(e *Entry, raw json.RawMessage) error {
	if isNull(raw) {
		return nil
	}

	var levels map[string]json.RawMessage
	if err := json.Unmarshal(raw, &levels); err != nil {
		return malformed("Annotations.Levels is not an object")
	}

	a := e.ensureAnnotations()

	for value, lr := range levels {
		if isNull(lr) {
			continue
		}

		if firstByte(lr) == '"' {
			var url string
			if err := json.Unmarshal(lr, &url); err != nil {
				return malformed("Annotations.Levels[%q]: %v", value, err)
			}

			e.Shape = ShapeLegacy
			a.Levels[value] = TermRef{TermURL: url}

			continue
		}

		var level struct {
			TermURL     string  `json:"TermURL"`
			Label       string  `json:"Label"`
			Description *string `json:"Description"`
		}
		if err := json.Unmarshal(lr, &level); err != nil {
			return malformed("Annotations.Levels[%q]: %v", value, err)
		}

		if level.Description != nil {
			e.Shape = ShapeLegacy

			e.setLevelDescription(value, *level.Description)
		}

		if level.TermURL != "" {
			a.Levels[value] = TermRef{TermURL: level.TermURL, Label: level.Label}
		}
	}

	return nil
}

// parseTermRef accepts {"TermURL", "Label"} or, in legacy entries, a bare TermURL string.
func parseTermRef(e *Entry, key string, raw json.RawMessage) (*TermRef, error) {
	switch firstByte(raw) {
	case 'n':
		return nil, nil
	case '"':
		var url string
		if err := json.Unmarshal(raw, &url); err != nil {
			return nil, malformed("%s: %v", key, err)
		}

		e.Shape = ShapeLegacy

		if url == "" {
			return nil, nil
		}

		return &TermRef{TermURL: url}, nil
	case '{':
		var ref TermRef
		if err := json.Unmarshal(raw, &ref); err != nil {
			return nil, malformed("%s: %v", key, err)
		}

		if ref.TermURL == "" {
			return nil, nil
		}

		return &ref, nil
	default:
		return nil, malformed("%s has unsupported type", key)
	}
}

// setLevelDescription records a level; a non-empty description is never
// replaced by an empty one, whichever of the two level maps is read first.
func (e *Entry) setLevelDescription(value, desc string) {
	if e.Levels == nil {
		e.Levels = make(map[string]string)
	}

	if existing, ok := e.Levels[value]; ok && (desc == "" || existing != "") {
		return
	}

	e.Levels[value] = desc
}

func (e *Entry) ensureAnnotations() *Annotations {
	if e.Annotations == nil {
		e.Annotations = &Annotations{}
	}

	if e.Annotations.Levels == nil {
		e.Annotations.Levels = make(map[string]TermRef)
	}

	return e.Annotations
}

func optionalString(key string, raw json.RawMessage) (*string, error) {
	if isNull(raw) {
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, malformed("%s is not a string", key)
	}

	return &s, nil
}

func plainString(key string, raw json.RawMessage) (string, error) {
	s, err := optionalString(key, raw)
	if err != nil || s == nil {
		return "", err
	}

	return *s, nil
}

// stringList reads an array of strings; numbers are kept as their literal text.
func stringList(key string, raw json.RawMessage) ([]string, error) {
	if isNull(raw) {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, malformed("%s is not an array", key)
	}

	out := make([]string, 0, len(items))

	for _, item := range items {
		switch firstByte(item) {
		case '"':
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return nil, malformed("%s: %v", key, err)
			}

			out = append(out, s)
		case '{', '[', 't', 'f', 'n':
			return nil, malformed("%s contains a non-scalar value", key)
		default:
			out = append(out, strings.TrimSpace(string(item)))
		}
	}

	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return firstByte(raw) == 'n'
}

func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}

	return trimmed[0]
}
