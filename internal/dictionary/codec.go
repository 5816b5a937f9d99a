package dictionary

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// encode marshals v without HTML escaping so descriptions stay readable.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// objectWriter builds a JSON object with caller-controlled key order.
type objectWriter struct {
	buf bytes.Buffer
	n   int
	err error
}

func (w *objectWriter) field(key string, v any) {
	if w.err != nil {
		return
	}

	data, err := encode(v)
	if err != nil {
		w.err = fmt.Errorf("failed to encode %s: %w", key, err)
		return
	}

	w.raw(key, data)
}

func (w *objectWriter) raw(key string, data []byte) {
	if w.err != nil {
		return
	}

	k, err := encode(key)
	if err != nil {
		w.err = err
		return
	}

	if w.n == 0 {
		w.buf.WriteByte('{')
	} else {
		w.buf.WriteByte(',')
	}

	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(data)
	w.n++
}

func (w *objectWriter) extras(m map[string]json.RawMessage) {
	for _, k := range sortedKeys(m) {
		w.raw(k, m[k])
	}
}

func (w *objectWriter) finish() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}

	if w.n == 0 {
		return []byte("{}"), nil
	}

	w.buf.WriteByte('}')

	return w.buf.Bytes(), nil
}
