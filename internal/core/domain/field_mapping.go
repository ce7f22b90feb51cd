package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Record is one asset record keyed by field name. A key mapped to nil is a
// present null; an absent key is undefined.
type Record map[string]any

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// FieldMappingEntry maps one external field name to an internal one.
type FieldMappingEntry struct {
	External string `json:"external"`
	Internal string `json:"internal"`
}

// FieldMapping is an ordered external → internal field table. The order is
// authoritative when several external fields target the same internal field.
// On the wire it is a JSON object whose key order is preserved.
type FieldMapping []FieldMappingEntry

// Apply projects an external record onto internal field names. Only entries
// whose external key is present are copied (a present null is copied too);
// unmapped external fields are dropped. When several present entries target
// the same internal key, the last one in table order wins.
func (m FieldMapping) Apply(external Record) Record {
	mapped := make(Record, len(m))
	for _, e := range m {
		if v, ok := external[e.External]; ok {
			mapped[e.Internal] = v
		}
	}
	return mapped
}

// Lookup returns the internal name for an external field.
func (m FieldMapping) Lookup(external string) (string, bool) {
	internal, found := "", false
	for _, e := range m {
		if e.External == external {
			internal, found = e.Internal, true
		}
	}
	return internal, found
}

// Validate checks that every entry names both sides and external keys are unique.
func (m FieldMapping) Validate() error {
	seen := make(map[string]struct{}, len(m))
	for _, e := range m {
		if e.External == "" || e.Internal == "" {
			return fmt.Errorf("%w: field mapping entries need both names", ErrInvalidInput)
		}
		if _, dup := seen[e.External]; dup {
			return fmt.Errorf("%w: duplicate external field %q", ErrInvalidInput, e.External)
		}
		seen[e.External] = struct{}{}
	}
	return nil
}

// MarshalJSON writes the mapping as an object in table order.
func (m FieldMapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.External)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Internal)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, keeping key order. null yields an empty mapping.
func (m *FieldMapping) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("field mapping must be a JSON object")
	}

	var out FieldMapping
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var internal string
		if err := dec.Decode(&internal); err != nil {
			return fmt.Errorf("field mapping %q: %w", key, err)
		}
		out = append(out, FieldMappingEntry{External: key, Internal: internal})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = out
	return nil
}

// Payload is a batch of raw records as received from an external system.
// Items are kept raw so that one malformed item fails alone.
type Payload []json.RawMessage

// DecodePayload normalises a JSON body into a list of raw records: an array
// yields its elements, a single object yields a one-element list. Any other
// JSON value is rejected.
func DecodePayload(body []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty payload")
	}

	switch trimmed[0] {
	case '[':
		var items Payload
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		return items, nil
	case '{':
		if !json.Valid(trimmed) {
			return nil, errors.New("decode payload: invalid JSON object")
		}
		return Payload{json.RawMessage(trimmed)}, nil
	}
	return nil, errors.New("decode payload: expected a JSON object or array")
}

// DecodeRecord decodes one raw item into a Record. Items that are not JSON
// objects are rejected.
func DecodeRecord(raw json.RawMessage) (Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("record is not a JSON object")
	}
	var rec Record
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
