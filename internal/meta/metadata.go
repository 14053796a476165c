// Package meta implements the bounded key/value attributes attached to ledger rows.
package meta

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
)

// Metadata is a small string map with validation and stable JSON encoding.
type Metadata map[string]string

const (
	MaxPairs     = 20
	MaxKeyLen    = 64
	MaxValLen    = 256
	MaxTotalJSON = 4096
)

var (
	ErrTooManyPairs = errors.New("metadata too many pairs")
	ErrKeyLength    = errors.New("metadata key too long or empty")
	ErrValueLength  = errors.New("metadata value too long")
	ErrTooLarge     = errors.New("metadata exceeds max json size")
)

// New copies m into a fresh Metadata. A nil map yields an empty one.
func New(m map[string]string) Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy.
func (m Metadata) Clone() Metadata { return New(m) }

// Merge overlays other onto m; keys in other win.
func (m Metadata) Merge(other Metadata) {
	for k, v := range other {
		m[k] = v
	}
}

// Validate enforces the pair, key, value and encoded-size limits.
func (m Metadata) Validate() error {
	if len(m) > MaxPairs {
		return ErrTooManyPairs
	}
	for k, v := range m {
		if k == "" || len(k) > MaxKeyLen {
			return ErrKeyLength
		}
		if len(v) > MaxValLen {
			return ErrValueLength
		}
	}
	b, err := m.MarshalStableJSON()
	if err != nil {
		return err
	}
	if len(b) > MaxTotalJSON {
		return ErrTooLarge
	}
	return nil
}

// MarshalStableJSON encodes m with keys sorted so equal maps produce equal bytes.
func (m Metadata) MarshalStableJSON() ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m Metadata) MarshalJSON() ([]byte, error) { return m.MarshalStableJSON() }

func (m *Metadata) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = Metadata{}
		return nil
	}
	var tmp map[string]string
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*m = New(tmp)
	return nil
}
