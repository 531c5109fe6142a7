package validate

import (
	"testing"

	"github.com/ValentinKolb/dRS/lib/record"
	"github.com/stretchr/testify/assert"
)

// TestDatabaseName tests the database naming convention
func TestDatabaseName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"inventory-db", true},
		{"my_app-db", true},
		{"a-b-db", true},
		{"-db", false},
		{"inventory", false},
		{"inventory-DB", false},
		{"", false},
		{"bad name-db", false},
		{"früh-db", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidDatabaseName(tt.name))
			if tt.valid {
				assert.NoError(t, DatabaseName(tt.name))
			} else {
				assert.Error(t, DatabaseName(tt.name))
			}
		})
	}
}

// TestTableName tests the table naming convention
func TestTableName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"orders-table", true},
		{"app-items", true},
		{"app-sub-items", true},
		{"orders", false},
		{"-orders", false},
		{"orders-", false},
		{"", false},
		{"app-it ems", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidTableName(tt.name))
			if tt.valid {
				assert.NoError(t, TableName(tt.name))
			} else {
				assert.Error(t, TableName(tt.name))
			}
		})
	}
}

// TestKeyPath tests the dotted key path pattern
func TestKeyPath(t *testing.T) {
	assert.True(t, IsValidKeyPath("price"))
	assert.True(t, IsValidKeyPath("customer.address.city"))
	assert.True(t, IsValidKeyPath("a_1.b_2"))

	assert.False(t, IsValidKeyPath(""))
	assert.False(t, IsValidKeyPath("a..b"))
	assert.False(t, IsValidKeyPath(".a"))
	assert.False(t, IsValidKeyPath("a."))
	assert.False(t, IsValidKeyPath("a.b c"))
}

// TestIndexSpec tests both descriptor forms
func TestIndexSpec(t *testing.T) {
	tests := []struct {
		name    string
		spec    record.IndexSpec
		errText string // empty = valid
	}{
		{
			name: "shorthand",
			spec: record.Index("price"),
		},
		{
			name:    "shorthand with invalid field",
			spec:    record.Index("pri ce"),
			errText: `index "pri ce" must be a valid field name`,
		},
		{
			name: "structured single field",
			spec: record.IndexSpec{Name: "price-idx", KeyPath: record.KeyPath{"price"}},
		},
		{
			name: "structured nested path",
			spec: record.IndexSpec{Name: "city-idx", KeyPath: record.KeyPath{"owner.address.city"}},
		},
		{
			name: "structured compound",
			spec: record.IndexSpec{Name: "loc-idx", KeyPath: record.KeyPath{"country", "city"}},
		},
		{
			name:    "name without suffix",
			spec:    record.IndexSpec{Name: "price", KeyPath: record.KeyPath{"price"}},
			errText: `index name "price" must end with "-idx"`,
		},
		{
			name:    "name that is only the suffix",
			spec:    record.IndexSpec{Name: "-idx", KeyPath: record.KeyPath{"price"}},
			errText: `index name "-idx" must end with "-idx"`,
		},
		{
			name:    "empty key path",
			spec:    record.IndexSpec{Name: "price-idx", KeyPath: record.KeyPath{}},
			errText: "compound keyPath cannot be empty",
		},
		{
			name:    "invalid key path segment",
			spec:    record.IndexSpec{Name: "price-idx", KeyPath: record.KeyPath{"a..b"}},
			errText: `invalid keyPath segment "a..b"`,
		},
		{
			name: "unique option",
			spec: record.IndexSpec{Name: "sku-idx", KeyPath: record.KeyPath{"sku"},
				Options: map[string]interface{}{record.OptionUnique: true}},
		},
		{
			name: "multiEntry option",
			spec: record.IndexSpec{Name: "tags-idx", KeyPath: record.KeyPath{"tags"},
				Options: map[string]interface{}{record.OptionMultiEntry: true}},
		},
		{
			name: "unknown option",
			spec: record.IndexSpec{Name: "sku-idx", KeyPath: record.KeyPath{"sku"},
				Options: map[string]interface{}{"sparse": true}},
			errText: `invalid option "sparse"`,
		},
		{
			name: "non boolean option",
			spec: record.IndexSpec{Name: "sku-idx", KeyPath: record.KeyPath{"sku"},
				Options: map[string]interface{}{record.OptionUnique: "yes"}},
			errText: `option "unique" must be a boolean`,
		},
		{
			name: "multiEntry with compound key path",
			spec: record.IndexSpec{Name: "loc-idx", KeyPath: record.KeyPath{"a", "b"},
				Options: map[string]interface{}{record.OptionMultiEntry: true}},
			errText: "multiEntry is incompatible with a compound keyPath",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := IndexSpec(tt.spec)
			if tt.errText == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.errText)
			}
		})
	}
}

// TestIndexSpecs tests the all-or-nothing set validation
func TestIndexSpecs(t *testing.T) {
	assert.NoError(t, IndexSpecs(nil))
	assert.NoError(t, IndexSpecs([]record.IndexSpec{
		record.Index("price"),
		{Name: "sku-idx", KeyPath: record.KeyPath{"sku"}},
	}))

	// the position of the broken spec is part of the error
	err := IndexSpecs([]record.IndexSpec{
		record.Index("price"),
		{Name: "broken", KeyPath: record.KeyPath{"x"}},
	})
	assert.ErrorContains(t, err, "index 1:")
}
