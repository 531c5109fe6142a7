package internal

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/dRS/lib/record"
)

// --------------------------------------------------------------------------
// Migration Diff
// --------------------------------------------------------------------------

// Diff computes the indexes an upgrade has to create. It compares the
// requested specs against the index names that already exist in the schema
// and returns the missing ones in request order.
//
// The function is pure: it only compares names, it never touches the
// database. Existing indexes are never dropped or rewritten, an upgrade is
// strictly additive.
func Diff(existing []string, requested []record.IndexSpec) []record.IndexSpec {
	have := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		have[name] = struct{}{}
	}

	var toCreate []record.IndexSpec
	for _, spec := range requested {
		if _, ok := have[spec.Name]; !ok {
			toCreate = append(toCreate, spec)
		}
	}
	return toCreate
}

// --------------------------------------------------------------------------
// DDL / SQL Builders
// --------------------------------------------------------------------------

// MetaTable is the bookkeeping table that persists the structured index
// specs. SQLite expression indexes can not carry options like multiEntry,
// so the full spec is stored here alongside the physical index.
const MetaTable = "_drs_indexes"

// QuoteIdentifier quotes a SQL identifier. Table and index names may
// contain characters like "-" that are not valid in bare identifiers.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// PhysicalIndexName returns the database wide unique name of an index.
// SQLite index names share one namespace per database file, so the logical
// index name is prefixed with its table.
func PhysicalIndexName(table, index string) string {
	return table + "." + index
}

// LogicalIndexName strips the table prefix from a physical index name.
// The boolean reports whether the name belongs to the given table.
func LogicalIndexName(table, physical string) (string, bool) {
	prefix := table + "."
	if !strings.HasPrefix(physical, prefix) {
		return "", false
	}
	return physical[len(prefix):], true
}

// ExtractExpr returns the json_extract expression for one key path segment
// ("a.b" -> json_extract(body, '$.a.b')).
func ExtractExpr(path string) string {
	return fmt.Sprintf("json_extract(body, '$.%s')", path)
}

// CreateTableSQL returns the DDL for a record table. Records are stored as
// a JSON body addressed by a monotonic integer primary key, AUTOINCREMENT
// guarantees that ids of deleted records are never reissued.
func CreateTableSQL(table string) string {
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY AUTOINCREMENT, body TEXT NOT NULL)",
		QuoteIdentifier(table),
	)
}

// CreateMetaTableSQL returns the DDL for the index bookkeeping table.
func CreateMetaTableSQL() string {
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (tbl TEXT NOT NULL, name TEXT NOT NULL, spec TEXT NOT NULL, PRIMARY KEY (tbl, name))",
		QuoteIdentifier(MetaTable),
	)
}

// CreateIndexSQL returns the DDL for one secondary index as an expression
// index over the JSON body. Compound key paths become multi-column
// expression indexes, the unique option maps to UNIQUE.
func CreateIndexSQL(table string, spec record.IndexSpec) string {
	exprs := make([]string, len(spec.KeyPath))
	for i, path := range spec.KeyPath {
		exprs[i] = ExtractExpr(path)
	}

	unique := ""
	if spec.Unique() {
		unique = "UNIQUE "
	}

	return fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
		unique,
		QuoteIdentifier(PhysicalIndexName(table, spec.Name)),
		QuoteIdentifier(table),
		strings.Join(exprs, ", "),
	)
}
