package sstore

import (
	"testing"

	"github.com/ValentinKolb/dRS/lib/record"
	"github.com/ValentinKolb/dRS/lib/store"
	"github.com/ValentinKolb/dRS/lib/store/storetest"
)

func Test(t *testing.T) {
	dir := t.TempDir()
	storetest.RunRecordStoreTests(t, "SQLiteStore", func() store.IRecordStore {
		return store.NewRecordStore(func() store.IStoreAdapter {
			return NewSQLiteAdapter(dir)
		}, nil)
	}, storetest.Expectations{
		Backend:              store.BackendSQLite,
		Durable:              true,
		DeleteMissingIsError: true,
		UnknownTableCode:     store.RetCInternalError,
	})
}

func Benchmark(b *testing.B) {
	dir := b.TempDir()
	storetest.RunRecordStoreBenchmarks(b, "SQLiteStore", func() store.IRecordStore {
		return store.NewRecordStore(func() store.IStoreAdapter {
			return NewSQLiteAdapter(dir)
		}, nil)
	})
}

// TestBlockedOpen pins the blocked-open rule: a database file held open at
// one version refuses opens at a different version until the holders close.
func TestBlockedOpen(t *testing.T) {
	dir := t.TempDir()

	first := NewSQLiteAdapter(dir)
	if err := first.Open("blocked-db", "app-items", 1, nil); err != nil {
		t.Fatalf("First open failed: %v", err)
	}

	// same version is fine
	second := NewSQLiteAdapter(dir)
	if err := second.Open("blocked-db", "app-items", 1, nil); err != nil {
		t.Fatalf("Open at same version failed: %v", err)
	}
	if err := second.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// different version is refused while the first handle is open
	blocked := NewSQLiteAdapter(dir)
	err := blocked.Open("blocked-db", "app-items", 2, nil)
	if store.CodeOf(err) != store.RetCBlocked {
		t.Fatalf("Expected Blocked, got %v", err)
	}

	// a different database file is not affected
	other := NewSQLiteAdapter(dir)
	if err := other.Open("other-db", "app-items", 2, nil); err != nil {
		t.Fatalf("Open of unrelated database failed: %v", err)
	}
	defer other.Close()

	// after the holder closes, the upgrade can proceed
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := blocked.Open("blocked-db", "app-items", 2, nil); err != nil {
		t.Fatalf("Open after holder closed failed: %v", err)
	}
	defer blocked.Close()
}

// TestUpgradeCreatesMissingIndexes pins that a version increase creates the
// newly requested indexes. The unique index added at version 2 must be
// enforced afterwards.
func TestUpgradeCreatesMissingIndexes(t *testing.T) {
	dir := t.TempDir()
	unique := record.IndexSpec{
		Name:    "sku-idx",
		KeyPath: record.KeyPath{"sku"},
		Options: map[string]interface{}{record.OptionUnique: true},
	}

	adapter := NewSQLiteAdapter(dir)
	if err := adapter.Open("upgrade-db", "app-items", 1, nil); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := adapter.Create("app-items", record.Record{"sku": "a"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := adapter.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	adapter = NewSQLiteAdapter(dir)
	if err := adapter.Open("upgrade-db", "app-items", 2, []record.IndexSpec{unique}); err != nil {
		t.Fatalf("Upgrade open failed: %v", err)
	}
	defer adapter.Close()

	// the sku is now unique
	if _, err := adapter.Create("app-items", record.Record{"sku": "a"}); store.CodeOf(err) != store.RetCInternalError {
		t.Errorf("Expected constraint failure for duplicate sku, got %v", err)
	}
	if _, err := adapter.Create("app-items", record.Record{"sku": "b"}); err != nil {
		t.Errorf("Create with fresh sku failed: %v", err)
	}
}

// TestSameVersionSkipsMigration pins that an open at the stored version
// changes nothing even when new index specs are requested.
func TestSameVersionSkipsMigration(t *testing.T) {
	dir := t.TempDir()
	unique := record.IndexSpec{
		Name:    "sku-idx",
		KeyPath: record.KeyPath{"sku"},
		Options: map[string]interface{}{record.OptionUnique: true},
	}

	adapter := NewSQLiteAdapter(dir)
	if err := adapter.Open("same-db", "app-items", 3, nil); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := adapter.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// reopen at the same version with an additional unique index
	adapter = NewSQLiteAdapter(dir)
	if err := adapter.Open("same-db", "app-items", 3, []record.IndexSpec{unique}); err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer adapter.Close()

	// duplicates still pass, the index was not created
	if _, err := adapter.Create("app-items", record.Record{"sku": "a"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := adapter.Create("app-items", record.Record{"sku": "a"}); err != nil {
		t.Errorf("Migration ran despite unchanged version: %v", err)
	}
}

// TestLowerVersionOpensUnchanged pins that opening below the stored version
// is not an error and runs no migration.
func TestLowerVersionOpensUnchanged(t *testing.T) {
	dir := t.TempDir()

	adapter := NewSQLiteAdapter(dir)
	if err := adapter.Open("downgrade-db", "app-items", 5, nil); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := adapter.Create("app-items", record.Record{"n": 1}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := adapter.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	adapter = NewSQLiteAdapter(dir)
	if err := adapter.Open("downgrade-db", "app-items", 2, nil); err != nil {
		t.Fatalf("Open at lower version failed: %v", err)
	}
	defer adapter.Close()

	count, err := adapter.Count("app-items")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 record, got %d", count)
	}
}

// TestIdsNeverReissued pins the AUTOINCREMENT guarantee across a reopen:
// the id of a deleted record is not handed out again.
func TestIdsNeverReissued(t *testing.T) {
	dir := t.TempDir()

	adapter := NewSQLiteAdapter(dir)
	if err := adapter.Open("seq-db", "app-items", 1, nil); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := adapter.Create("app-items", record.Record{"n": i}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	// delete the record with the highest id
	if _, err := adapter.Delete("app-items", 3); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := adapter.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	adapter = NewSQLiteAdapter(dir)
	if err := adapter.Open("seq-db", "app-items", 1, nil); err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer adapter.Close()

	id, err := adapter.Create("app-items", record.Record{"n": 3})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id != 4 {
		t.Errorf("Expected id 4 after reopen, got %d", id)
	}
}
