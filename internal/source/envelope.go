// Package source fetches raw collaborator records for the reporting pipeline.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrUnexpectedShape is returned when a payload is neither an array nor a
// {"data": [...]} envelope.
var ErrUnexpectedShape = errors.New("unexpected payload shape")

// Record is one collaborator entity as decoded from JSON or a database row.
type Record map[string]any

// DecodeRecords reads a bare JSON array or an object whose "data" field is an
// array. Array entries that are not objects are dropped.
func DecodeRecords(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrUnexpectedShape
	}

	switch raw[0] {
	case '[':
		return decodeArray(raw)
	case '{':
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := unmarshalNumbers(raw, &env); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		data := bytes.TrimSpace(env.Data)
		if len(data) == 0 || data[0] != '[' {
			return nil, ErrUnexpectedShape
		}
		return decodeArray(data)
	default:
		return nil, ErrUnexpectedShape
	}
}

func decodeArray(raw json.RawMessage) ([]Record, error) {
	var items []any
	if err := unmarshalNumbers(raw, &items); err != nil {
		return nil, fmt.Errorf("decode array: %w", err)
	}
	records := make([]Record, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			records = append(records, Record(obj))
		}
	}
	return records, nil
}

func unmarshalNumbers(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}
