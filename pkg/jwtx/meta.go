package jwtx

import (
	"bytes"
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Meta is the opaque "meta" object of an embed token. Keys keep their wire
// order and values stay raw JSON; nothing in here is interpreted.
type Meta struct {
	m *orderedmap.OrderedMap[string, json.RawMessage]
}

// NewMeta returns an empty Meta.
func NewMeta() *Meta {
	return &Meta{m: orderedmap.New[string, json.RawMessage]()}
}

// Set stores v (marshalled to JSON) under key, appending the key if new.
func (m *Meta) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.init()
	m.m.Set(key, raw)
	return nil
}

// Get returns the raw JSON value stored under key.
func (m *Meta) Get(key string) (json.RawMessage, bool) {
	if m == nil || m.m == nil {
		return nil, false
	}
	return m.m.Get(key)
}

// Keys returns the keys in wire order.
func (m *Meta) Keys() []string {
	if m == nil || m.m == nil {
		return nil
	}
	keys := make([]string, 0, m.m.Len())
	for pair := m.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns the number of entries.
func (m *Meta) Len() int {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Len()
}

// UnmarshalJSON only accepts a JSON object.
func (m *Meta) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return ErrInvalidClaim
	}

	om := orderedmap.New[string, json.RawMessage]()
	if err := om.UnmarshalJSON(data); err != nil {
		return ErrInvalidClaim
	}
	m.m = om
	return nil
}

// MarshalJSON writes the entries back out in their original order.
func (m *Meta) MarshalJSON() ([]byte, error) {
	if m == nil || m.m == nil {
		return []byte("{}"), nil
	}
	return m.m.MarshalJSON()
}

func (m *Meta) init() {
	if m.m == nil {
		m.m = orderedmap.New[string, json.RawMessage]()
	}
}
