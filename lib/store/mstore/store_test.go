package mstore

import (
	"sync"
	"testing"

	"github.com/ValentinKolb/dRS/lib/record"
	"github.com/ValentinKolb/dRS/lib/store"
	"github.com/ValentinKolb/dRS/lib/store/storetest"
)

func Test(t *testing.T) {
	storetest.RunRecordStoreTests(t, "MemoryStore", func() store.IRecordStore {
		return store.NewRecordStore(NewMemoryAdapter, nil)
	}, storetest.Expectations{
		Backend:          store.BackendMemory,
		UnknownTableCode: store.RetCTableNotInitialized,
	})
}

func Benchmark(b *testing.B) {
	storetest.RunRecordStoreBenchmarks(b, "MemoryStore", func() store.IRecordStore {
		return store.NewRecordStore(NewMemoryAdapter, nil)
	})
}

// TestExplicitIdAdvancesCounter pins that an explicit id pushes the counter
// forward so later auto-assigned ids never collide with it.
func TestExplicitIdAdvancesCounter(t *testing.T) {
	adapter := NewMemoryAdapter()
	if err := adapter.Open("test-db", "app-items", 1, nil); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if _, err := adapter.Create("app-items", record.Record{record.IDField: uint64(7)}); err != nil {
		t.Fatalf("Create with explicit id failed: %v", err)
	}

	id, err := adapter.Create("app-items", record.Record{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id != 8 {
		t.Errorf("Expected auto id 8 after explicit id 7, got %d", id)
	}

	// an explicit id below the counter leaves it alone
	if _, err := adapter.Create("app-items", record.Record{record.IDField: uint64(3)}); err != nil {
		t.Fatalf("Create with explicit id failed: %v", err)
	}
	id, err = adapter.Create("app-items", record.Record{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id != 9 {
		t.Errorf("Expected auto id 9, got %d", id)
	}
}

// TestReopenKeepsRecords pins that re-opening an existing table adopts the
// new version and indexes but keeps its records.
func TestReopenKeepsRecords(t *testing.T) {
	adapter := NewMemoryAdapter()
	if err := adapter.Open("test-db", "app-items", 1, nil); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := adapter.Create("app-items", record.Record{"n": 1}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	specs := []record.IndexSpec{{Name: "n-idx", KeyPath: record.KeyPath{"n"}}}
	if err := adapter.Open("test-db", "app-items", 2, specs); err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}

	count, err := adapter.Count("app-items")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 record after reopen, got %d", count)
	}

	info, err := adapter.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if len(info.Tables) != 1 || info.Tables[0].SchemaVersion != 2 || info.Tables[0].Indexes != 1 {
		t.Errorf("Reopen did not adopt version and indexes: %+v", info.Tables)
	}
}

// TestConcurrentOpenAndInfo pins that table registration and metadata
// queries can run in parallel, the way the RPC server drives one shard
// store from many connections.
func TestConcurrentOpenAndInfo(t *testing.T) {
	adapter := NewMemoryAdapter()
	if err := adapter.Open("test-db", "app-items", 1, nil); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			specs := []record.IndexSpec{{Name: "n-idx", KeyPath: record.KeyPath{"n"}}}
			for j := 0; j < 100; j++ {
				if err := adapter.Open("test-db", "app-items", uint64(j%3+1), specs); err != nil {
					t.Errorf("Open failed: %v", err)
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				info, err := adapter.Info()
				if err != nil {
					t.Errorf("Info failed: %v", err)
					return
				}
				if info.Database != "test-db" {
					t.Errorf("Expected database test-db, got %q", info.Database)
					return
				}
			}
		}()
	}
	wg.Wait()
}
