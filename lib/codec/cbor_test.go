// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"slices"
	"strings"
	"testing"
)

type storedRow struct {
	Table string   `cbor:"table"`
	Cells []string `cbor:"cells"`
	Seq   int64    `cbor:"seq,omitempty"`
}

type jsonTagged struct {
	KeyColumn int    `json:"key_column"`
	Key       string `json:"key"`
}

func TestRowRoundtrip(t *testing.T) {
	original := storedRow{Table: "Tests", Cells: []string{"occ-1", "09:45", "", "Vivo"}, Seq: 3}
	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded storedRow
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Table != original.Table || decoded.Seq != original.Seq || !slices.Equal(decoded.Cells, original.Cells) {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	value := map[string]any{"zeta": 1, "alpha": "x", "mid": []string{"a"}}
	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(value)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("Marshal produced different bytes for the same map")
		}
	}
}

func TestJSONTagFallback(t *testing.T) {
	data, err := Marshal(jsonTagged{KeyColumn: 0, Key: "a@example.org"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	diagnostic, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(diagnostic, `"key_column"`) {
		t.Errorf("diagnostic %s lacks json-tagged field name", diagnostic)
	}
}

func TestStreamRoundtrip(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for index := range 3 {
		if err := encoder.Encode(storedRow{Table: "Users", Seq: int64(index)}); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}
	decoder := NewDecoder(&buffer)
	for index := range 3 {
		var row storedRow
		if err := decoder.Decode(&row); err != nil {
			t.Fatalf("Decode %d: %v", index, err)
		}
		if row.Seq != int64(index) {
			t.Errorf("row %d has seq %d", index, row.Seq)
		}
	}
}

func TestAnyMapsDecodeWithStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"code": "no_such_table"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := decoded.(map[string]any); !ok {
		t.Errorf("decoded %T, want map[string]any", decoded)
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	var row storedRow
	if err := Unmarshal([]byte{0xff, 0x00}, &row); err == nil {
		t.Error("Unmarshal accepted invalid CBOR")
	}
}
