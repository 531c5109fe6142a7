package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ValentinKolb/dRS/lib/record"
)

// --------------------------------------------------------------------------
// Naming Conventions
// --------------------------------------------------------------------------

// DatabaseSuffix is the suffix every database name must carry.
const DatabaseSuffix = "-db"

var (
	// database names: word characters plus dashes, ending in "-db"
	databaseNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+-db$`)

	// table names: a bare word is not enough, the name must contain the
	// "-" separator (e.g. "orders-table")
	tableNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+-[a-zA-Z0-9_-]+$`)

	// single field names ("price")
	fieldNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

	// dotted key path segments ("customer.address.city")
	keyPathPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+(\.[a-zA-Z0-9_]+)*$`)
)

// --------------------------------------------------------------------------
// Name Predicates
// --------------------------------------------------------------------------

// IsValidDatabaseName reports whether name follows the database naming
// convention (ends in "-db").
func IsValidDatabaseName(name string) bool {
	return databaseNamePattern.MatchString(name)
}

// IsValidTableName reports whether name follows the table naming convention
// (contains the "-" separator).
func IsValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}

// IsValidFieldName reports whether name is a plain alphanumeric field name.
func IsValidFieldName(name string) bool {
	return fieldNamePattern.MatchString(name)
}

// IsValidKeyPath reports whether s is a valid dot-separated key path.
func IsValidKeyPath(s string) bool {
	return keyPathPattern.MatchString(s)
}

// --------------------------------------------------------------------------
// Name Validation (descriptive errors)
// --------------------------------------------------------------------------

// DatabaseName validates a database name and returns a descriptive error on
// failure.
func DatabaseName(name string) error {
	if !IsValidDatabaseName(name) {
		return fmt.Errorf("invalid database name %q: must be alphanumeric and end with %q", name, DatabaseSuffix)
	}
	return nil
}

// TableName validates a table name and returns a descriptive error on
// failure.
func TableName(name string) error {
	if !IsValidTableName(name) {
		return fmt.Errorf("invalid table name %q: must contain the %q separator (e.g. \"orders-table\")", name, "-")
	}
	return nil
}

// --------------------------------------------------------------------------
// Index Spec Validation
// --------------------------------------------------------------------------

// IndexSpecs validates a full set of index descriptors. All specs are
// checked before any of them is applied, one invalid entry fails the whole
// set so no partial schema change can ever happen.
func IndexSpecs(specs []record.IndexSpec) error {
	for i, spec := range specs {
		if err := IndexSpec(spec); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	return nil
}

// IndexSpec validates a single index descriptor, either form.
func IndexSpec(spec record.IndexSpec) error {
	// shorthand form: a bare field name
	if spec.Shorthand() {
		if !IsValidFieldName(spec.Field) {
			return fmt.Errorf("index %q must be a valid field name", spec.Field)
		}
		return nil
	}

	// structured form: name must carry the reserved suffix
	if !strings.HasSuffix(spec.Name, record.IndexSuffix) || len(spec.Name) <= len(record.IndexSuffix) {
		return fmt.Errorf("index name %q must end with %q", spec.Name, record.IndexSuffix)
	}

	// key path: non-empty, every segment a valid dotted path
	if len(spec.KeyPath) == 0 {
		return fmt.Errorf("index %q: compound keyPath cannot be empty", spec.Name)
	}
	for _, segment := range spec.KeyPath {
		if !IsValidKeyPath(segment) {
			return fmt.Errorf("index %q: invalid keyPath segment %q", spec.Name, segment)
		}
	}

	// options: only the two recognized keys, both boolean
	for key, value := range spec.Options {
		if key != record.OptionUnique && key != record.OptionMultiEntry {
			return fmt.Errorf("index %q: invalid option %q", spec.Name, key)
		}
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("index %q: option %q must be a boolean", spec.Name, key)
		}
	}

	// multiEntry indexes cannot span a compound key path
	if spec.MultiEntry() && spec.KeyPath.Compound() {
		return fmt.Errorf("index %q: multiEntry is incompatible with a compound keyPath", spec.Name)
	}

	return nil
}
