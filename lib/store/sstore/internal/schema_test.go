package internal

import (
	"testing"

	"github.com/ValentinKolb/dRS/lib/record"
	"github.com/stretchr/testify/assert"
)

// TestDiff tests the pure migration diff
func TestDiff(t *testing.T) {
	tests := []struct {
		name      string
		existing  []string
		requested []record.IndexSpec
		expected  []string
	}{
		{
			name:     "all indexes missing",
			existing: nil,
			requested: []record.IndexSpec{
				{Name: "price-idx", KeyPath: record.KeyPath{"price"}},
				{Name: "sku-idx", KeyPath: record.KeyPath{"sku"}},
			},
			expected: []string{"price-idx", "sku-idx"},
		},
		{
			name:     "all indexes present",
			existing: []string{"price-idx", "sku-idx"},
			requested: []record.IndexSpec{
				{Name: "price-idx", KeyPath: record.KeyPath{"price"}},
				{Name: "sku-idx", KeyPath: record.KeyPath{"sku"}},
			},
			expected: nil,
		},
		{
			name:     "partial overlap keeps request order",
			existing: []string{"sku-idx"},
			requested: []record.IndexSpec{
				{Name: "price-idx", KeyPath: record.KeyPath{"price"}},
				{Name: "sku-idx", KeyPath: record.KeyPath{"sku"}},
				{Name: "owner-idx", KeyPath: record.KeyPath{"owner.name"}},
			},
			expected: []string{"price-idx", "owner-idx"},
		},
		{
			name:      "no requests",
			existing:  []string{"price-idx"},
			requested: nil,
			expected:  nil,
		},
		{
			name:     "stale existing indexes are left alone",
			existing: []string{"legacy-idx"},
			requested: []record.IndexSpec{
				{Name: "price-idx", KeyPath: record.KeyPath{"price"}},
			},
			expected: []string{"price-idx"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toCreate := Diff(tt.existing, tt.requested)

			var names []string
			for _, spec := range toCreate {
				names = append(names, spec.Name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

// TestPhysicalIndexName tests the table prefix round trip
func TestPhysicalIndexName(t *testing.T) {
	physical := PhysicalIndexName("app-items", "sku-idx")
	assert.Equal(t, "app-items.sku-idx", physical)

	logical, ok := LogicalIndexName("app-items", physical)
	assert.True(t, ok)
	assert.Equal(t, "sku-idx", logical)

	_, ok = LogicalIndexName("app-orders", physical)
	assert.False(t, ok)
}

// TestCreateTableSQL tests the record table DDL
func TestCreateTableSQL(t *testing.T) {
	sql := CreateTableSQL("app-items")
	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "app-items" (id INTEGER PRIMARY KEY AUTOINCREMENT, body TEXT NOT NULL)`,
		sql,
	)
}

// TestCreateIndexSQL tests the expression index DDL
func TestCreateIndexSQL(t *testing.T) {
	tests := []struct {
		name     string
		spec     record.IndexSpec
		expected string
	}{
		{
			name: "single field",
			spec: record.IndexSpec{Name: "price-idx", KeyPath: record.KeyPath{"price"}},
			expected: `CREATE INDEX IF NOT EXISTS "app-items.price-idx" ON "app-items" ` +
				`(json_extract(body, '$.price'))`,
		},
		{
			name: "nested key path",
			spec: record.IndexSpec{Name: "city-idx", KeyPath: record.KeyPath{"address.city"}},
			expected: `CREATE INDEX IF NOT EXISTS "app-items.city-idx" ON "app-items" ` +
				`(json_extract(body, '$.address.city'))`,
		},
		{
			name: "compound key path",
			spec: record.IndexSpec{Name: "loc-idx", KeyPath: record.KeyPath{"country", "city"}},
			expected: `CREATE INDEX IF NOT EXISTS "app-items.loc-idx" ON "app-items" ` +
				`(json_extract(body, '$.country'), json_extract(body, '$.city'))`,
		},
		{
			name: "unique option",
			spec: record.IndexSpec{
				Name:    "sku-idx",
				KeyPath: record.KeyPath{"sku"},
				Options: map[string]interface{}{record.OptionUnique: true},
			},
			expected: `CREATE UNIQUE INDEX IF NOT EXISTS "app-items.sku-idx" ON "app-items" ` +
				`(json_extract(body, '$.sku'))`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CreateIndexSQL("app-items", tt.spec))
		})
	}
}

// TestQuoteIdentifier tests identifier escaping
func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"app-items"`, QuoteIdentifier("app-items"))
	assert.Equal(t, `"a""b"`, QuoteIdentifier(`a"b`))
}
