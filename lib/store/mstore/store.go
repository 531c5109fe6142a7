package mstore

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/dRS/lib/record"
	"github.com/ValentinKolb/dRS/lib/store"
	"github.com/ValentinKolb/dRS/lib/store/util"
	"github.com/puzpuzpuz/xsync/v3"
)

// sample limit per table for size estimation in Info()
const infoSamplesPerTable = 100

// --------------------------------------------------------------------------
// Core adapter structure
// --------------------------------------------------------------------------

// table holds the volatile state of one registered table.
type table struct {
	data    *xsync.MapOf[uint64, record.Record]
	counter atomic.Uint64 // last auto-assigned id, next id is counter+1

	mu      sync.RWMutex // guards indexes and version, re-opens race with Info
	indexes []record.IndexSpec
	version uint64
}

// adapterImpl implements store.IStoreAdapter on process memory. All state
// is lost when the adapter is closed or the process exits.
type adapterImpl struct {
	mu       sync.RWMutex // guards database, Open and Info run concurrently
	database string
	tables   *xsync.MapOf[string, *table]
}

// NewMemoryAdapter creates a new volatile store adapter.
// This adapter keeps all records in concurrent in-memory maps and is used
// as the fallback backend when no durable storage is available.
func NewMemoryAdapter() store.IStoreAdapter {
	return &adapterImpl{
		tables: xsync.NewMapOf[string, *table](),
	}
}

// lookup resolves a registered table or fails with RetCTableNotInitialized.
// The volatile backend has no schema files, so an unknown table name can
// only mean that Open was never called for it.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *adapterImpl) lookup(name string) (*table, error) {
	t, ok := m.tables.Load(name)
	if !ok {
		return nil, store.NewErrorf(store.RetCTableNotInitialized,
			"table %q is not initialized - call Start first", name)
	}
	return t, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

// Open registers a table. Schema versions are ephemeral here: re-opening an
// existing table adopts the new version and indexes but keeps its records,
// there is nothing persistent to migrate or to block on.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *adapterImpl) Open(database, name string, version uint64, indexes []record.IndexSpec) error {
	m.mu.Lock()
	m.database = database
	m.mu.Unlock()

	m.tables.Compute(name, func(old *table, loaded bool) (*table, bool) {
		if loaded {
			old.mu.Lock()
			old.indexes = indexes
			old.version = version
			old.mu.Unlock()
			return old, false
		}
		return &table{
			data:    xsync.NewMapOf[uint64, record.Record](),
			indexes: indexes,
			version: version,
		}, false
	})
	return nil
}

// Create inserts a record. Records without an id get the next value of the
// per-table counter (first id is 1). An explicit id must be free, and it
// advances the counter so later auto-assigned ids never collide with it.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *adapterImpl) Create(name string, rec record.Record) (uint64, error) {
	t, err := m.lookup(name)
	if err != nil {
		return 0, err
	}

	id, explicit := rec.ID()
	if !explicit {
		id = t.counter.Add(1)
	}

	// Copy before insert so later caller mutations can't reach the stored
	// record.
	stored := rec.Copy()
	stored.SetID(id)

	if _, exists := t.data.LoadOrStore(id, stored); exists {
		return 0, store.NewErrorf(store.RetCInternalError,
			"record with id %d already exists in table %q", id, name)
	}

	if explicit {
		bumpCounter(&t.counter, id)
	}
	return id, nil
}

// Read returns a copy of the record with the given id.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *adapterImpl) Read(name string, id uint64) (record.Record, error) {
	t, err := m.lookup(name)
	if err != nil {
		return nil, err
	}

	rec, ok := t.data.Load(id)
	if !ok {
		return nil, store.NewErrorf(store.RetCRecordNotFound,
			"no record with id %d in table %q", id, name)
	}
	return rec.Copy(), nil
}

// Update replaces an existing record. The replacement is atomic per id, an
// update for a missing id never inserts.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *adapterImpl) Update(name string, rec record.Record) (uint64, error) {
	t, err := m.lookup(name)
	if err != nil {
		return 0, err
	}

	// The store layer guarantees the id is present.
	id, _ := rec.ID()

	stored := rec.Copy()
	stored.SetID(id)

	var found bool
	t.data.Compute(id, func(old record.Record, loaded bool) (record.Record, bool) {
		if !loaded {
			return old, true // delete=true so the missing entry is not created
		}
		found = true
		return stored, false
	})

	if !found {
		return 0, store.NewErrorf(store.RetCRecordNotFound,
			"no record with id %d in table %q", id, name)
	}
	return id, nil
}

// Delete removes a record by id. Deleting a missing id is not an error,
// the boolean reports whether a record was actually removed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *adapterImpl) Delete(name string, id uint64) (bool, error) {
	t, err := m.lookup(name)
	if err != nil {
		return false, err
	}

	_, found := t.data.LoadAndDelete(id)
	return found, nil
}

// GetAll returns copies of all records of the table, in unspecified order.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *adapterImpl) GetAll(name string) ([]record.Record, error) {
	t, err := m.lookup(name)
	if err != nil {
		return nil, err
	}

	recs := make([]record.Record, 0, t.data.Size())
	t.data.Range(func(_ uint64, rec record.Record) bool {
		recs = append(recs, rec.Copy())
		return true
	})
	return recs, nil
}

// Count returns the number of records in the table.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *adapterImpl) Count(name string) (uint64, error) {
	t, err := m.lookup(name)
	if err != nil {
		return 0, err
	}
	return uint64(t.data.Size()), nil
}

// Info returns statistics about the adapter. Record sizes are estimated
// from a bounded sample per table, so the reported byte size is an
// approximation, not an exact measurement.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *adapterImpl) Info() (store.StoreInfo, error) {
	histogram := util.NewSizeHistogram()

	var (
		tableInfos  []store.TableInfo
		tableCounts []float64
		total       uint64
	)

	m.tables.Range(func(name string, t *table) bool {
		count := uint64(t.data.Size())

		// sample a few records per table for the size estimate
		sampled := 0
		t.data.Range(func(_ uint64, rec record.Record) bool {
			if body, err := json.Marshal(rec); err == nil {
				histogram.AddSample(len(body))
			}
			sampled++
			return sampled < infoSamplesPerTable
		})

		t.mu.RLock()
		indexes, version := len(t.indexes), t.version
		t.mu.RUnlock()

		tableInfos = append(tableInfos, store.TableInfo{
			Name:          name,
			Records:       count,
			NextID:        t.counter.Load() + 1,
			Indexes:       indexes,
			SchemaVersion: version,
		})
		tableCounts = append(tableCounts, float64(count))
		total += count
		return true
	})

	meta := &struct {
		TableDistribution util.DistributionStats `json:"table_distribution"`
		SampledRecords    int64                  `json:"sampled_records"`
		Info              string                 `json:"info"`
	}{
		TableDistribution: util.NewDistributionStats(tableCounts),
		SampledRecords:    histogram.Count(),
		Info:              "All values (including SizeBytes) are estimates and may vary depending on the store state.",
	}

	m.mu.RLock()
	database := m.database
	m.mu.RUnlock()

	return store.StoreInfo{
		Backend:   store.BackendMemory,
		Database:  database,
		SizeBytes: histogram.EstimatePerRecord() * int(total),
		Tables:    tableInfos,
		Metadata:  meta,
	}, nil
}

// Close discards all tables, records and counters. The adapter can be
// reused afterwards, a new Open starts from an empty state.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *adapterImpl) Close() error {
	m.tables.Clear()
	m.mu.Lock()
	m.database = ""
	m.mu.Unlock()
	return nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// bumpCounter raises the counter to at least val so explicit ids and
// auto-assigned ids share one monotonic sequence.
func bumpCounter(counter *atomic.Uint64, val uint64) {
	for {
		curr := counter.Load()
		if val <= curr {
			return
		}
		if counter.CompareAndSwap(curr, val) {
			return
		}
	}
}
