package store

import (
	"sync"

	"github.com/ValentinKolb/dRS/lib/record"
	"github.com/ValentinKolb/dRS/lib/validate"
)

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures a record store during construction.
type Options struct {
	// SchemaVersion is the schema version requested on Start (0 = 1).
	// Opening a table whose stored version is lower triggers the upgrade
	// path, same or higher versions open unchanged.
	SchemaVersion uint64
}

// DefaultOptions returns the default record store options.
func DefaultOptions() *Options {
	return &Options{
		SchemaVersion: 1,
	}
}

// --------------------------------------------------------------------------
// Record Store Implementation
// --------------------------------------------------------------------------

// NewRecordStore creates a new record store instance. The factory decides
// which backend the store binds on Start, the store itself contains no
// backend specific branching.
func NewRecordStore(factory AdapterFactory, opts *Options) IRecordStore {
	if opts == nil {
		opts = DefaultOptions()
	}
	version := opts.SchemaVersion
	if version == 0 {
		version = 1
	}
	return &recordStoreImpl{
		factory: factory,
		version: version,
	}
}

type recordStoreImpl struct {
	factory AdapterFactory
	version uint64

	mu       sync.Mutex
	adapter  IStoreAdapter // nil while unbound
	database string
	opened   int // number of successfully opened tables on the binding
}

// bound returns the currently bound adapter or a RetCConnNotInitialized
// error if the store is idle.
func (s *recordStoreImpl) bound() (IStoreAdapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adapter == nil {
		return nil, NewError(RetCConnNotInitialized, "no backend bound - call Start first")
	}
	return s.adapter, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see interface.go)
// --------------------------------------------------------------------------

func (s *recordStoreImpl) Start(database, table string, indexes ...record.IndexSpec) error {
	// Fail fast: all validation runs before any backend interaction.
	if err := validate.DatabaseName(database); err != nil {
		return NewError(RetCValidation, err.Error())
	}
	if err := validate.TableName(table); err != nil {
		return NewError(RetCValidation, err.Error())
	}
	if err := validate.IndexSpecs(indexes); err != nil {
		return NewError(RetCValidation, err.Error())
	}

	// Normalize shorthand specs, the adapters only see the structured form.
	normalized := make([]record.IndexSpec, len(indexes))
	for i, spec := range indexes {
		normalized[i] = spec.Normalize()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The first Start binds the backend, later calls register further
	// tables on the same database.
	if s.adapter == nil {
		s.adapter = s.factory()
		s.database = database
	} else if s.database != database {
		return NewErrorf(RetCValidation,
			"store is already bound to database %q, cannot open %q", s.database, database)
	}

	if err := s.adapter.Open(database, table, s.version, normalized); err != nil {
		// A failed first open leaves the store unbound so it can be
		// restarted cleanly. Failed opens of additional tables keep the
		// existing binding intact.
		if s.opened == 0 {
			_ = s.adapter.Close()
			s.adapter = nil
			s.database = ""
		}
		return asStoreError(err)
	}
	s.opened++
	return nil
}

func (s *recordStoreImpl) Create(table string, rec record.Record) (uint64, error) {
	adapter, err := s.bound()
	if err != nil {
		return 0, err
	}
	id, err := adapter.Create(table, rec)
	if err != nil {
		return 0, asStoreError(err)
	}
	return id, nil
}

func (s *recordStoreImpl) Read(table string, id uint64) (record.Record, error) {
	adapter, err := s.bound()
	if err != nil {
		return nil, err
	}
	rec, err := adapter.Read(table, id)
	if err != nil {
		return nil, asStoreError(err)
	}
	return rec, nil
}

func (s *recordStoreImpl) Update(table string, rec record.Record) (uint64, error) {
	adapter, err := s.bound()
	if err != nil {
		return 0, err
	}

	// The identifier check is uniform across backends and happens here, a
	// backend level upsert is never reachable through Update.
	id, ok := rec.ID()
	if !ok {
		return 0, NewError(RetCMissingIdentifier, "record has no id field, cannot update")
	}

	updatedID, err := adapter.Update(table, rec)
	if err != nil {
		return 0, asStoreError(err)
	}
	if updatedID != id {
		return 0, NewErrorf(RetCInternalError,
			"backend updated id %d instead of %d", updatedID, id)
	}
	return updatedID, nil
}

func (s *recordStoreImpl) Delete(table string, id uint64) (bool, error) {
	adapter, err := s.bound()
	if err != nil {
		return false, err
	}
	found, err := adapter.Delete(table, id)
	if err != nil {
		return false, asStoreError(err)
	}
	return found, nil
}

func (s *recordStoreImpl) GetAll(table string) ([]record.Record, error) {
	adapter, err := s.bound()
	if err != nil {
		return nil, err
	}
	recs, err := adapter.GetAll(table)
	if err != nil {
		return nil, asStoreError(err)
	}
	return recs, nil
}

func (s *recordStoreImpl) CountRecords(table string) (uint64, error) {
	adapter, err := s.bound()
	if err != nil {
		return 0, err
	}
	n, err := adapter.Count(table)
	if err != nil {
		return 0, asStoreError(err)
	}
	return n, nil
}

func (s *recordStoreImpl) Info() (StoreInfo, error) {
	adapter, err := s.bound()
	if err != nil {
		return StoreInfo{}, err
	}
	info, err := adapter.Info()
	if err != nil {
		return StoreInfo{}, asStoreError(err)
	}
	return info, nil
}

func (s *recordStoreImpl) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Idempotent: closing an idle store is a no-op, never an error.
	if s.adapter == nil {
		return nil
	}

	err := s.adapter.Close()
	s.adapter = nil
	s.database = ""
	s.opened = 0
	if err != nil {
		return asStoreError(err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// asStoreError passes typed store errors through unchanged and wraps
// everything else as an internal backend failure. The underlying diagnostic
// text is preserved verbatim.
func asStoreError(err error) error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*Error); ok {
		return se
	}
	return NewError(RetCInternalError, err.Error())
}
