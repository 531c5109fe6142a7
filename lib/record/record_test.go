package record

import (
	"encoding/json"
	"testing"
)

// TestID tests the identifier extraction across numeric representations
func TestID(t *testing.T) {
	tests := []struct {
		name   string
		rec    Record
		wantID uint64
		wantOK bool
	}{
		{"uint64", Record{IDField: uint64(7)}, 7, true},
		{"int64", Record{IDField: int64(7)}, 7, true},
		{"int", Record{IDField: 7}, 7, true},
		{"float64 from json", Record{IDField: float64(7)}, 7, true},
		{"json.Number", Record{IDField: json.Number("7")}, 7, true},
		{"missing", Record{"n": 1}, 0, false},
		{"nil value", Record{IDField: nil}, 0, false},
		{"negative int", Record{IDField: -1}, 0, false},
		{"fractional float", Record{IDField: 7.5}, 0, false},
		{"string", Record{IDField: "7"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := tt.rec.ID()
			if ok != tt.wantOK || id != tt.wantID {
				t.Errorf("ID() = (%d, %v), want (%d, %v)", id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

// TestCopyIsolation tests that a copy shares no mutable state with the
// original
func TestCopyIsolation(t *testing.T) {
	original := Record{
		"name": "widget",
		"tags": []interface{}{"a", "b"},
		"owner": map[string]interface{}{
			"name": "alice",
			"address": map[string]interface{}{
				"city": "ulm",
			},
		},
		"raw": []byte{1, 2, 3},
	}

	clone := original.Copy()

	clone["name"] = "tampered"
	clone["tags"].([]interface{})[0] = "tampered"
	clone["owner"].(map[string]interface{})["name"] = "tampered"
	clone["owner"].(map[string]interface{})["address"].(map[string]interface{})["city"] = "tampered"
	clone["raw"].([]byte)[0] = 9

	if original["name"] != "widget" {
		t.Errorf("Top level field aliased: %v", original["name"])
	}
	if original["tags"].([]interface{})[0] != "a" {
		t.Errorf("Slice element aliased: %v", original["tags"])
	}
	owner := original["owner"].(map[string]interface{})
	if owner["name"] != "alice" {
		t.Errorf("Nested map aliased: %v", owner)
	}
	if owner["address"].(map[string]interface{})["city"] != "ulm" {
		t.Errorf("Deeply nested map aliased: %v", owner)
	}
	if original["raw"].([]byte)[0] != 1 {
		t.Errorf("Byte slice aliased: %v", original["raw"])
	}
}

// TestCopyNil tests the nil edge case
func TestCopyNil(t *testing.T) {
	var rec Record
	if rec.Copy() != nil {
		t.Error("Expected nil copy of nil record")
	}
}

// TestNormalize tests the shorthand index resolution
func TestNormalize(t *testing.T) {
	spec := Index("price").Normalize()
	if spec.Field != "" {
		t.Errorf("Shorthand field survived normalization: %q", spec.Field)
	}
	if spec.Name != "price-idx" {
		t.Errorf("Expected name price-idx, got %q", spec.Name)
	}
	if spec.KeyPath.String() != "price" || spec.KeyPath.Compound() {
		t.Errorf("Unexpected key path: %v", spec.KeyPath)
	}

	// structured specs pass through unchanged
	structured := IndexSpec{Name: "loc-idx", KeyPath: KeyPath{"country", "city"}}
	normalized := structured.Normalize()
	if normalized.Name != "loc-idx" || normalized.KeyPath.String() != "country+city" {
		t.Errorf("Structured spec changed by normalization: %+v", normalized)
	}
	if !normalized.KeyPath.Compound() {
		t.Error("Expected compound key path")
	}
}
