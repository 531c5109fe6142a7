package record

import (
	"encoding/json"
)

// --------------------------------------------------------------------------
// Record Type
// --------------------------------------------------------------------------

// IDField is the reserved field name that stores the identifier of a record.
const IDField = "id"

// Record is a single stored entity: a mapping with an optional "id" field
// plus arbitrary caller fields. Values should be JSON-compatible since both
// backends treat a record as a serializable document.
type Record map[string]interface{}

// ID extracts the identifier of the record. The boolean return value
// indicates whether an identifier is present. Numeric representations from
// JSON decoding (float64, json.Number) are normalized to uint64.
func (r Record) ID() (uint64, bool) {
	v, ok := r[IDField]
	if !ok || v == nil {
		return 0, false
	}
	switch id := v.(type) {
	case uint64:
		return id, true
	case int64:
		if id < 0 {
			return 0, false
		}
		return uint64(id), true
	case int:
		if id < 0 {
			return 0, false
		}
		return uint64(id), true
	case float64:
		if id < 0 || id != float64(uint64(id)) {
			return 0, false
		}
		return uint64(id), true
	case json.Number:
		n, err := id.Int64()
		if err != nil || n < 0 {
			return 0, false
		}
		return uint64(n), true
	default:
		return 0, false
	}
}

// SetID sets the identifier field of the record in place.
func (r Record) SetID(id uint64) {
	r[IDField] = id
}

// Copy returns a deep copy of the record. The copy shares no mutable state
// with the original, mutating one never changes the other. This models the
// serialization boundary of a durable engine where callers can not reach
// stored state through previously returned references.
func (r Record) Copy() Record {
	if r == nil {
		return nil
	}
	return copyMap(r)
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return copyMap(val)
	case Record:
		return Record(copyMap(val))
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = copyValue(e)
		}
		return out
	case []byte:
		out := make([]byte, len(val))
		copy(out, val)
		return out
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return val
	default:
		// Unknown composite type: fall back to a JSON round trip. Records
		// are serialized by both backends anyway, so a value that fails
		// here would fail there too.
		b, err := json.Marshal(val)
		if err != nil {
			return val
		}
		var out interface{}
		if err := json.Unmarshal(b, &out); err != nil {
			return val
		}
		return out
	}
}
