package record

import "strings"

// --------------------------------------------------------------------------
// Index Descriptors
// --------------------------------------------------------------------------

// IndexSuffix is the reserved suffix every index name must carry.
const IndexSuffix = "-idx"

// Recognized index option keys.
const (
	OptionUnique     = "unique"
	OptionMultiEntry = "multiEntry"
)

// KeyPath identifies the field(s) an index is built over. Every element is
// a dot-separated path into the record ("price", "customer.address.city").
// A KeyPath with more than one element is a compound key path.
type KeyPath []string

// Compound reports whether the key path spans more than one field path.
func (kp KeyPath) Compound() bool {
	return len(kp) > 1
}

// String returns the key path in display form.
func (kp KeyPath) String() string {
	return strings.Join(kp, "+")
}

// IndexSpec describes a secondary index on a table.
//
// There are two forms. The shorthand form sets only Field: the index covers
// that single top-level field and the index name is derived as
// "<field>-idx". The structured form sets Name, KeyPath and optionally
// Options; here the name must carry the IndexSuffix and the two recognized
// option keys are OptionUnique and OptionMultiEntry, both boolean.
type IndexSpec struct {
	Field   string                 `json:"field,omitempty"`
	Name    string                 `json:"name,omitempty"`
	KeyPath KeyPath                `json:"keyPath,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// Shorthand reports whether the spec uses the bare-field form.
func (s IndexSpec) Shorthand() bool {
	return s.Field != ""
}

// Normalize resolves the shorthand form into the structured form. Specs that
// are already structured are returned unchanged. The result of Normalize is
// what the backends consume, they never see the shorthand.
func (s IndexSpec) Normalize() IndexSpec {
	if !s.Shorthand() {
		return s
	}
	return IndexSpec{
		Name:    s.Field + IndexSuffix,
		KeyPath: KeyPath{s.Field},
	}
}

// Unique reports whether the unique option is set to true.
func (s IndexSpec) Unique() bool {
	v, ok := s.Options[OptionUnique]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// MultiEntry reports whether the multiEntry option is set to true.
func (s IndexSpec) MultiEntry() bool {
	v, ok := s.Options[OptionMultiEntry]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Index is a convenience constructor for the shorthand form.
func Index(field string) IndexSpec {
	return IndexSpec{Field: field}
}
