package storetest

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/dRS/lib/record"
	"github.com/ValentinKolb/dRS/lib/store"
)

// StoreFactory is a function that creates a new instance of an IRecordStore
// implementation. Every call must yield an independent store, for durable
// backends independent stores over the same data directory.
type StoreFactory func() store.IRecordStore

// Expectations captures the deliberate behavioral differences between the
// backends. Everything not listed here is expected to behave identically.
type Expectations struct {
	// Backend is the kind Info() must report.
	Backend store.BackendKind

	// Durable indicates that records survive Close and a following Start
	// through a new store instance.
	Durable bool

	// DeleteMissingIsError indicates that deleting a missing id fails with
	// RetCRecordNotFound instead of reporting found=false.
	DeleteMissingIsError bool

	// UnknownTableCode is the error code for operations on a table that
	// was never passed to Start.
	UnknownTableCode store.RetCode
}

// database name shared by all conformance tests
const testDatabase = "conformance-db"

// tableCounter makes table names unique per subtest so durable backends
// never leak records between tests.
var tableCounter atomic.Uint64

func nextTable() string {
	return fmt.Sprintf("app-table%d", tableCounter.Add(1))
}

// RunRecordStoreTests runs a comprehensive test suite for an IRecordStore
// implementation.
func RunRecordStoreTests(t *testing.T, name string, factory StoreFactory, exp Expectations) {
	t.Run(name, func(t *testing.T) {
		t.Run("NotInitialized", func(t *testing.T) {
			testNotInitialized(t, factory())
		})

		t.Run("StartValidation", func(t *testing.T) {
			testStartValidation(t, factory())
		})

		t.Run("CreateAutoIds", func(t *testing.T) {
			testCreateAutoIds(t, factory())
		})

		t.Run("CreateExplicitIds", func(t *testing.T) {
			testCreateExplicitIds(t, factory())
		})

		t.Run("ReadRoundTrip", func(t *testing.T) {
			testReadRoundTrip(t, factory())
		})

		t.Run("Update", func(t *testing.T) {
			testUpdate(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory(), exp)
		})

		t.Run("GetAll&Count", func(t *testing.T) {
			testGetAllCount(t, factory())
		})

		t.Run("UnknownTable", func(t *testing.T) {
			testUnknownTable(t, factory(), exp)
		})

		t.Run("Isolation", func(t *testing.T) {
			testIsolation(t, factory())
		})

		t.Run("Close&Restart", func(t *testing.T) {
			testCloseRestart(t, factory, exp)
		})

		t.Run("IndependentTables", func(t *testing.T) {
			testIndependentTables(t, factory())
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory(), exp)
		})

		t.Run("ConcurrentCreates", func(t *testing.T) {
			testConcurrentCreates(t, factory())
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// mustStart starts the table or aborts the test
func mustStart(t testing.TB, s store.IRecordStore, table string, indexes ...record.IndexSpec) {
	t.Helper()
	if err := s.Start(testDatabase, table, indexes...); err != nil {
		t.Fatalf("Start(%q, %q) failed: %v", testDatabase, table, err)
	}
}

// mustCreate creates the record or aborts the test
func mustCreate(t testing.TB, s store.IRecordStore, table string, rec record.Record) uint64 {
	t.Helper()
	id, err := s.Create(table, rec)
	if err != nil {
		t.Fatalf("Create on table %q failed: %v", table, err)
	}
	return id
}

// assertCode checks that the error carries the expected return code
func assertCode(t testing.TB, err error, want store.RetCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error with code %s, got nil", want)
	}
	if got := store.CodeOf(err); got != want {
		t.Errorf("Expected error code %s, got %s (err: %v)", want, got, err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testNotInitialized(t *testing.T, s store.IRecordStore) {
	table := nextTable()

	if _, err := s.Create(table, record.Record{"a": 1}); store.CodeOf(err) != store.RetCConnNotInitialized {
		t.Errorf("Expected ConnectionNotInitialized from Create, got %v", err)
	}
	if _, err := s.Read(table, 1); store.CodeOf(err) != store.RetCConnNotInitialized {
		t.Errorf("Expected ConnectionNotInitialized from Read, got %v", err)
	}
	if _, err := s.Update(table, record.Record{record.IDField: uint64(1)}); store.CodeOf(err) != store.RetCConnNotInitialized {
		t.Errorf("Expected ConnectionNotInitialized from Update, got %v", err)
	}
	if _, err := s.Delete(table, 1); store.CodeOf(err) != store.RetCConnNotInitialized {
		t.Errorf("Expected ConnectionNotInitialized from Delete, got %v", err)
	}
	if _, err := s.GetAll(table); store.CodeOf(err) != store.RetCConnNotInitialized {
		t.Errorf("Expected ConnectionNotInitialized from GetAll, got %v", err)
	}
	if _, err := s.CountRecords(table); store.CodeOf(err) != store.RetCConnNotInitialized {
		t.Errorf("Expected ConnectionNotInitialized from CountRecords, got %v", err)
	}
	if _, err := s.Info(); store.CodeOf(err) != store.RetCConnNotInitialized {
		t.Errorf("Expected ConnectionNotInitialized from Info, got %v", err)
	}

	// Close on an idle store is a no-op
	if err := s.Close(); err != nil {
		t.Errorf("Close on idle store failed: %v", err)
	}
}

func testStartValidation(t *testing.T, s store.IRecordStore) {
	defer s.Close()
	table := nextTable()

	tests := []struct {
		name     string
		database string
		table    string
		indexes  []record.IndexSpec
	}{
		{name: "missing database suffix", database: "conformance", table: table},
		{name: "empty database name", database: "", table: table},
		{name: "invalid database char", database: "bad db-db", table: table},
		{name: "table without separator", database: testDatabase, table: "items"},
		{name: "invalid table char", database: testDatabase, table: "app-it ems"},
		{name: "shorthand index with invalid field", database: testDatabase, table: table,
			indexes: []record.IndexSpec{record.Index("bad field")}},
		{name: "index name without suffix", database: testDatabase, table: table,
			indexes: []record.IndexSpec{{Name: "price", KeyPath: record.KeyPath{"price"}}}},
		{name: "empty compound key path", database: testDatabase, table: table,
			indexes: []record.IndexSpec{{Name: "price-idx", KeyPath: record.KeyPath{}}}},
		{name: "invalid key path segment", database: testDatabase, table: table,
			indexes: []record.IndexSpec{{Name: "price-idx", KeyPath: record.KeyPath{"a..b"}}}},
		{name: "unknown option", database: testDatabase, table: table,
			indexes: []record.IndexSpec{{Name: "price-idx", KeyPath: record.KeyPath{"price"},
				Options: map[string]interface{}{"sparse": true}}}},
		{name: "non boolean option", database: testDatabase, table: table,
			indexes: []record.IndexSpec{{Name: "price-idx", KeyPath: record.KeyPath{"price"},
				Options: map[string]interface{}{record.OptionUnique: "yes"}}}},
		{name: "multiEntry with compound key path", database: testDatabase, table: table,
			indexes: []record.IndexSpec{{Name: "loc-idx", KeyPath: record.KeyPath{"a", "b"},
				Options: map[string]interface{}{record.OptionMultiEntry: true}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Start(tt.database, tt.table, tt.indexes...)
			assertCode(t, err, store.RetCValidation)
		})
	}

	// A failed Start must not bind the backend
	if _, err := s.Create(table, record.Record{"a": 1}); store.CodeOf(err) != store.RetCConnNotInitialized {
		t.Errorf("Store bound after failed Start, Create returned: %v", err)
	}

	// Valid specs still work afterwards
	mustStart(t, s, table,
		record.Index("price"),
		record.IndexSpec{Name: "sku-idx", KeyPath: record.KeyPath{"sku"},
			Options: map[string]interface{}{record.OptionUnique: true}},
	)
}

func testCreateAutoIds(t *testing.T, s store.IRecordStore) {
	defer s.Close()
	table := nextTable()
	mustStart(t, s, table)

	// ids start at 1 and increase by exactly 1 per create
	for want := uint64(1); want <= 3; want++ {
		id := mustCreate(t, s, table, record.Record{"n": want})
		if id != want {
			t.Errorf("Expected id %d, got %d", want, id)
		}
	}

	// deletions never rewind the sequence
	if _, err := s.Delete(table, 2); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if id := mustCreate(t, s, table, record.Record{"n": 4}); id != 4 {
		t.Errorf("Expected id 4 after delete, got %d", id)
	}
}

func testCreateExplicitIds(t *testing.T, s store.IRecordStore) {
	defer s.Close()
	table := nextTable()
	mustStart(t, s, table)

	// explicit id is honored
	id, err := s.Create(table, record.Record{record.IDField: uint64(10), "n": 1})
	if err != nil {
		t.Fatalf("Create with explicit id failed: %v", err)
	}
	if id != 10 {
		t.Errorf("Expected id 10, got %d", id)
	}

	// a colliding explicit id is rejected, the stored record is untouched
	_, err = s.Create(table, record.Record{record.IDField: uint64(10), "n": 2})
	assertCode(t, err, store.RetCInternalError)

	rec, err := s.Read(table, 10)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if n, _ := rec["n"].(float64); rec["n"] != 1 && n != 1 {
		t.Errorf("Record changed by rejected create: %v", rec)
	}

	// the sequence continues after the explicit id
	if id := mustCreate(t, s, table, record.Record{"n": 3}); id != 11 {
		t.Errorf("Expected id 11 after explicit id 10, got %d", id)
	}
}

func testReadRoundTrip(t *testing.T, s store.IRecordStore) {
	defer s.Close()
	table := nextTable()
	mustStart(t, s, table)

	original := record.Record{
		"name":  "widget",
		"price": 19.99,
		"tags":  []interface{}{"a", "b"},
		"owner": map[string]interface{}{"name": "alice", "city": "ulm"},
	}
	id := mustCreate(t, s, table, original)

	rec, err := s.Read(table, id)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	gotID, ok := rec.ID()
	if !ok || gotID != id {
		t.Errorf("Expected id %d on read record, got %v", id, rec[record.IDField])
	}
	if rec["name"] != "widget" {
		t.Errorf("Expected name widget, got %v", rec["name"])
	}
	if owner, ok := rec["owner"].(map[string]interface{}); !ok || owner["city"] != "ulm" {
		t.Errorf("Nested field lost in round trip: %v", rec["owner"])
	}

	// missing ids fail
	_, err = s.Read(table, 9999)
	assertCode(t, err, store.RetCRecordNotFound)
}

func testUpdate(t *testing.T, s store.IRecordStore) {
	defer s.Close()
	table := nextTable()
	mustStart(t, s, table)

	// no id -> MissingIdentifier
	_, err := s.Update(table, record.Record{"n": 1})
	assertCode(t, err, store.RetCMissingIdentifier)

	// missing id -> RecordNotFound, and no record appears (no upsert)
	_, err = s.Update(table, record.Record{record.IDField: uint64(42), "n": 1})
	assertCode(t, err, store.RetCRecordNotFound)

	count, err := s.CountRecords(table)
	if err != nil {
		t.Fatalf("CountRecords failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Update inserted a record, count = %d", count)
	}

	// a real update replaces the record completely
	id := mustCreate(t, s, table, record.Record{"n": 1, "old": "field"})

	updatedID, err := s.Update(table, record.Record{record.IDField: id, "n": 2})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updatedID != id {
		t.Errorf("Expected updated id %d, got %d", id, updatedID)
	}

	rec, err := s.Read(table, id)
	if err != nil {
		t.Fatalf("Read after update failed: %v", err)
	}
	if _, exists := rec["old"]; exists {
		t.Errorf("Update merged instead of replaced: %v", rec)
	}
}

func testDelete(t *testing.T, s store.IRecordStore, exp Expectations) {
	defer s.Close()
	table := nextTable()
	mustStart(t, s, table)

	id := mustCreate(t, s, table, record.Record{"n": 1})

	found, err := s.Delete(table, id)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !found {
		t.Errorf("Expected found=true for existing record")
	}

	_, err = s.Read(table, id)
	assertCode(t, err, store.RetCRecordNotFound)

	// second delete of the same id hits the backend specific semantics
	found, err = s.Delete(table, id)
	if exp.DeleteMissingIsError {
		assertCode(t, err, store.RetCRecordNotFound)
	} else {
		if err != nil {
			t.Errorf("Expected no error for missing id, got %v", err)
		}
		if found {
			t.Errorf("Expected found=false for missing id")
		}
	}
}

func testGetAllCount(t *testing.T, s store.IRecordStore) {
	defer s.Close()
	table := nextTable()
	mustStart(t, s, table)

	// empty table
	recs, err := s.GetAll(table)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("Expected empty table, got %d records", len(recs))
	}
	count, err := s.CountRecords(table)
	if err != nil {
		t.Fatalf("CountRecords failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected count 0, got %d", count)
	}

	// populated table
	const n = 25
	for i := 0; i < n; i++ {
		mustCreate(t, s, table, record.Record{"n": i})
	}

	recs, err = s.GetAll(table)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(recs) != n {
		t.Errorf("Expected %d records, got %d", n, len(recs))
	}

	seen := make(map[uint64]bool, n)
	for _, rec := range recs {
		id, ok := rec.ID()
		if !ok {
			t.Errorf("Record without id in GetAll result: %v", rec)
			continue
		}
		if seen[id] {
			t.Errorf("Duplicate id %d in GetAll result", id)
		}
		seen[id] = true
	}

	count, err = s.CountRecords(table)
	if err != nil {
		t.Fatalf("CountRecords failed: %v", err)
	}
	if count != n {
		t.Errorf("Expected count %d, got %d", n, count)
	}
}

func testUnknownTable(t *testing.T, s store.IRecordStore, exp Expectations) {
	defer s.Close()
	mustStart(t, s, nextTable())

	unknown := nextTable() // valid name, never started

	_, err := s.Create(unknown, record.Record{"n": 1})
	assertCode(t, err, exp.UnknownTableCode)

	_, err = s.Read(unknown, 1)
	assertCode(t, err, exp.UnknownTableCode)

	_, err = s.GetAll(unknown)
	assertCode(t, err, exp.UnknownTableCode)
}

func testIsolation(t *testing.T, s store.IRecordStore) {
	defer s.Close()
	table := nextTable()
	mustStart(t, s, table)

	// mutating the input after Create must not reach the stored record
	input := record.Record{"name": "widget", "nested": map[string]interface{}{"a": "b"}}
	id := mustCreate(t, s, table, input)
	input["name"] = "tampered"
	input["nested"].(map[string]interface{})["a"] = "tampered"

	rec, err := s.Read(table, id)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if rec["name"] != "widget" {
		t.Errorf("Stored record aliased with caller input: %v", rec)
	}
	if nested, ok := rec["nested"].(map[string]interface{}); !ok || nested["a"] != "b" {
		t.Errorf("Nested stored state aliased with caller input: %v", rec["nested"])
	}

	// mutating a read result must not reach the stored record
	rec["name"] = "tampered"
	again, err := s.Read(table, id)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if again["name"] != "widget" {
		t.Errorf("Stored record aliased with read result: %v", again)
	}
}

func testCloseRestart(t *testing.T, factory StoreFactory, exp Expectations) {
	table := nextTable()

	s := factory()
	mustStart(t, s, table)
	id := mustCreate(t, s, table, record.Record{"n": 1})

	// Close is idempotent
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}

	// operations after Close fail uniformly
	if _, err := s.Read(table, id); store.CodeOf(err) != store.RetCConnNotInitialized {
		t.Errorf("Expected ConnectionNotInitialized after Close, got %v", err)
	}

	// the same instance can be restarted
	mustStart(t, s, table)
	defer s.Close()

	if exp.Durable {
		rec, err := s.Read(table, id)
		if err != nil {
			t.Fatalf("Record lost across restart: %v", err)
		}
		if _, ok := rec.ID(); !ok {
			t.Errorf("Restarted record has no id: %v", rec)
		}
	} else {
		count, err := s.CountRecords(table)
		if err != nil {
			t.Fatalf("CountRecords failed: %v", err)
		}
		if count != 0 {
			t.Errorf("Volatile store kept %d records across Close", count)
		}
	}
}

func testIndependentTables(t *testing.T, s store.IRecordStore) {
	defer s.Close()
	table1, table2 := nextTable(), nextTable()
	mustStart(t, s, table1)
	mustStart(t, s, table2)

	// every table has its own id sequence
	if id := mustCreate(t, s, table1, record.Record{"n": 1}); id != 1 {
		t.Errorf("Expected id 1 in first table, got %d", id)
	}
	if id := mustCreate(t, s, table1, record.Record{"n": 2}); id != 2 {
		t.Errorf("Expected id 2 in first table, got %d", id)
	}
	if id := mustCreate(t, s, table2, record.Record{"n": 1}); id != 1 {
		t.Errorf("Expected id 1 in second table, got %d", id)
	}

	// deletes stay local to their table
	if _, err := s.Delete(table1, 1); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	count, err := s.CountRecords(table2)
	if err != nil {
		t.Fatalf("CountRecords failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Delete leaked into other table, count = %d", count)
	}
}

func testInfo(t *testing.T, s store.IRecordStore, exp Expectations) {
	defer s.Close()
	table := nextTable()
	mustStart(t, s, table, record.Index("price"))

	for i := 0; i < 5; i++ {
		mustCreate(t, s, table, record.Record{"price": i})
	}

	info, err := s.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Backend != exp.Backend {
		t.Errorf("Expected backend %q, got %q", exp.Backend, info.Backend)
	}
	if info.Database != testDatabase {
		t.Errorf("Expected database %q, got %q", testDatabase, info.Database)
	}

	var found *store.TableInfo
	for i := range info.Tables {
		if info.Tables[i].Name == table {
			found = &info.Tables[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("Table %q missing from Info: %+v", table, info.Tables)
	}
	if found.Records != 5 {
		t.Errorf("Expected 5 records in Info, got %d", found.Records)
	}
	if found.Indexes != 1 {
		t.Errorf("Expected 1 index in Info, got %d", found.Indexes)
	}
}

func testConcurrentCreates(t *testing.T, s store.IRecordStore) {
	defer s.Close()
	table := nextTable()
	mustStart(t, s, table)

	const goroutines = 8
	const perGoroutine = 25

	var wg sync.WaitGroup
	wg.Add(goroutines)

	ids := make(chan uint64, goroutines*perGoroutine)
	for g := 0; g < goroutines; g++ {
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				id, err := s.Create(table, record.Record{"g": g, "i": i})
				if err != nil {
					t.Errorf("Concurrent create failed: %v", err)
					return
				}
				ids <- id
			}
		}(g)
	}
	wg.Wait()
	close(ids)

	// every id is unique and the sequence has no holes
	seen := make(map[uint64]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("Duplicate id %d from concurrent creates", id)
		}
		seen[id] = true
	}
	for want := uint64(1); want <= goroutines*perGoroutine; want++ {
		if !seen[want] {
			t.Errorf("Missing id %d in sequence", want)
		}
	}

	count, err := s.CountRecords(table)
	if err != nil {
		t.Fatalf("CountRecords failed: %v", err)
	}
	if count != goroutines*perGoroutine {
		t.Errorf("Expected %d records, got %d", goroutines*perGoroutine, count)
	}
}

func testRealisticUsage(t *testing.T, s store.IRecordStore) {
	defer s.Close()
	table := nextTable()
	mustStart(t, s, table,
		record.Index("sku"),
		record.IndexSpec{Name: "city-idx", KeyPath: record.KeyPath{"owner.city"}},
	)

	// create a batch of records
	const n = 50
	for i := 0; i < n; i++ {
		mustCreate(t, s, table, record.Record{
			"sku":   fmt.Sprintf("sku-%04d", i),
			"stock": i,
			"owner": map[string]interface{}{"city": "ulm"},
		})
	}

	// update every second record
	for id := uint64(2); id <= n; id += 2 {
		rec, err := s.Read(table, id)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		rec["stock"] = 0
		if _, err := s.Update(table, rec); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	// delete every fifth record
	deleted := 0
	for id := uint64(5); id <= n; id += 5 {
		found, err := s.Delete(table, id)
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if !found {
			t.Errorf("Expected to delete existing id %d", id)
		}
		deleted++
	}

	count, err := s.CountRecords(table)
	if err != nil {
		t.Fatalf("CountRecords failed: %v", err)
	}
	if count != n-uint64(deleted) {
		t.Errorf("Expected %d records, got %d", n-deleted, count)
	}

	// the id sequence continued past all of this
	if id := mustCreate(t, s, table, record.Record{"sku": "sku-last"}); id != n+1 {
		t.Errorf("Expected id %d, got %d", n+1, id)
	}
}
