package dictionary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Document is an ordered data dictionary keyed by column header.
type Document struct {
	keys    []string
	entries map[string]*Entry
}

// New returns an empty document.
func New() *Document {
	return &Document{entries: make(map[string]*Entry)}
}

// LoadFile reads and parses a dictionary file.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes a dictionary, keeping the key order of the input. A
// repeated key keeps its first position and its last value.
func Parse(data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, malformed("%v", err)
	}

	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, malformed("top level is not an object")
	}

	doc := New()

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, malformed("%v", err)
		}

		key, ok := tok.(string)
		if !ok {
			return nil, malformed("unexpected token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, malformed("entry %q: %v", key, err)
		}

		entry, err := parseEntry(raw)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", key, err)
		}

		doc.Set(key, entry)
	}

	if _, err := dec.Token(); err != nil {
		return nil, malformed("%v", err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, malformed("trailing data after dictionary object")
	}

	return doc, nil
}

// Len returns the number of entries.
func (d *Document) Len() int {
	return len(d.keys)
}

// Keys returns the entry keys in document order.
func (d *Document) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)

	return out
}

// Get returns the entry for key.
func (d *Document) Get(key string) (*Entry, bool) {
	e, ok := d.entries[key]
	return e, ok
}

// Set stores an entry. New keys are appended; existing keys keep their position.
func (d *Document) Set(key string, e *Entry) {
	if e == nil {
		e = &Entry{}
	}

	if _, ok := d.entries[key]; !ok {
		d.keys = append(d.keys, key)
	}

	d.entries[key] = e
}

// Marshal writes the document as indented JSON terminated by a newline.
func (d *Document) Marshal() ([]byte, error) {
	compact, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent dictionary: %w", err)
	}

	out.WriteByte('\n')

	return out.Bytes(), nil
}

// MarshalJSON writes the entries in document order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var w objectWriter

	for _, key := range d.keys {
		data, err := d.entries[key].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", key, err)
		}

		w.raw(key, data)
	}

	return w.finish()
}
