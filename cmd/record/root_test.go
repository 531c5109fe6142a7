package record

import (
	"testing"

	"github.com/ValentinKolb/dRS/lib/validate"
)

// TestDefaultNamesAreValid pins that the flag defaults satisfy the naming
// conventions, so the command group works without explicit --database and
// --table flags.
func TestDefaultNamesAreValid(t *testing.T) {
	database, err := RecordCommands.PersistentFlags().GetString("database")
	if err != nil {
		t.Fatalf("failed to read database flag: %v", err)
	}
	if err := validate.DatabaseName(database); err != nil {
		t.Errorf("default database name %q is invalid: %v", database, err)
	}

	table, err := RecordCommands.PersistentFlags().GetString("table")
	if err != nil {
		t.Fatalf("failed to read table flag: %v", err)
	}
	if err := validate.TableName(table); err != nil {
		t.Errorf("default table name %q is invalid: %v", table, err)
	}
}

func TestParseIndexSpecs(t *testing.T) {
	specs, err := parseIndexSpecs([]string{"email:unique", "tags:multi", "name"})
	if err != nil {
		t.Fatalf("parseIndexSpecs failed: %v", err)
	}
	if len(specs) != 3 {
		t.Fatalf("expected 3 specs, got %d", len(specs))
	}
	if !specs[0].Unique() || specs[0].Name != "email-idx" {
		t.Errorf("expected unique index email-idx, got %+v", specs[0])
	}
	if !specs[1].MultiEntry() {
		t.Errorf("expected multiEntry index, got %+v", specs[1])
	}
	if !specs[2].Shorthand() || specs[2].Field != "name" {
		t.Errorf("expected shorthand spec for name, got %+v", specs[2])
	}

	if _, err := parseIndexSpecs([]string{"email:nope"}); err == nil {
		t.Error("expected error for unknown index option")
	}
	if _, err := parseIndexSpecs([]string{":unique"}); err == nil {
		t.Error("expected error for empty field")
	}
}
