package meta

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMergeClone(t *testing.T) {
	m := New(map[string]string{"source": "kas"})
	m.Merge(New(map[string]string{"voucher": "BKK-001", "source": "bank"}))
	if m["source"] != "bank" || m["voucher"] != "BKK-001" {
		t.Fatalf("merge failed: %+v", m)
	}
	c := m.Clone()
	c["source"] = "x"
	if m["source"] != "bank" {
		t.Fatalf("clone shares storage")
	}
}

func TestValidationLimits(t *testing.T) {
	pairs := make(map[string]string)
	for i := 0; i < MaxPairs+1; i++ {
		pairs["k"+strings.Repeat("x", i)] = "v"
	}
	if err := New(pairs).Validate(); err != ErrTooManyPairs {
		t.Fatalf("expected ErrTooManyPairs, got %v", err)
	}
	if err := New(map[string]string{strings.Repeat("k", MaxKeyLen+1): "v"}).Validate(); err != ErrKeyLength {
		t.Fatalf("expected ErrKeyLength, got %v", err)
	}
	if err := New(map[string]string{"k": strings.Repeat("v", MaxValLen+1)}).Validate(); err != ErrValueLength {
		t.Fatalf("expected ErrValueLength, got %v", err)
	}
}

func TestStableJSON(t *testing.T) {
	b, _ := New(map[string]string{"b": "2", "a": "1"}).MarshalStableJSON()
	if string(b) != `{"a":"1","b":"2"}` {
		t.Fatalf("unexpected stable json: %s", b)
	}
	var back Metadata
	if err := json.Unmarshal(b, &back); err != nil || back["a"] != "1" {
		t.Fatalf("unmarshal: %v %+v", err, back)
	}
	if err := json.Unmarshal([]byte("null"), &back); err != nil || len(back) != 0 {
		t.Fatalf("null should decode to empty: %v %+v", err, back)
	}
}
