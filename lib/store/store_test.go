package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ValentinKolb/dRS/lib/record"
)

// stubAdapter records calls and returns scripted results, used to test the
// binding logic of the store layer in isolation.
type stubAdapter struct {
	openErr    error
	openCalls  []string
	closed     int
	lastSpecs  []record.IndexSpec
	updateID   uint64
	updateDone bool
}

func (s *stubAdapter) Open(database, table string, version uint64, indexes []record.IndexSpec) error {
	s.openCalls = append(s.openCalls, fmt.Sprintf("%s/%s@%d", database, table, version))
	s.lastSpecs = indexes
	return s.openErr
}

func (s *stubAdapter) Create(table string, rec record.Record) (uint64, error) { return 1, nil }
func (s *stubAdapter) Read(table string, id uint64) (record.Record, error) {
	return record.Record{record.IDField: id}, nil
}
func (s *stubAdapter) Update(table string, rec record.Record) (uint64, error) {
	s.updateDone = true
	return s.updateID, nil
}
func (s *stubAdapter) Delete(table string, id uint64) (bool, error)  { return true, nil }
func (s *stubAdapter) GetAll(table string) ([]record.Record, error)  { return nil, nil }
func (s *stubAdapter) Count(table string) (uint64, error)            { return 0, nil }
func (s *stubAdapter) Info() (StoreInfo, error)                      { return StoreInfo{}, nil }
func (s *stubAdapter) Close() error                                  { s.closed++; return nil }

// TestStartBindsOnce tests that the first Start binds the backend and later
// calls must name the same database.
func TestStartBindsOnce(t *testing.T) {
	adapter := &stubAdapter{}
	created := 0
	s := NewRecordStore(func() IStoreAdapter {
		created++
		return adapter
	}, nil)

	if err := s.Start("first-db", "app-items"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start("first-db", "app-orders"); err != nil {
		t.Fatalf("Second Start failed: %v", err)
	}
	if created != 1 {
		t.Errorf("Expected one adapter, factory ran %d times", created)
	}

	// a different database on the same store is refused
	err := s.Start("second-db", "app-items")
	if CodeOf(err) != RetCValidation {
		t.Errorf("Expected ValidationError for database switch, got %v", err)
	}

	want := []string{"first-db/app-items@1", "first-db/app-orders@1"}
	if len(adapter.openCalls) != len(want) {
		t.Fatalf("Expected %d opens, got %v", len(want), adapter.openCalls)
	}
	for i, call := range want {
		if adapter.openCalls[i] != call {
			t.Errorf("Open call %d: expected %q, got %q", i, call, adapter.openCalls[i])
		}
	}
}

// TestStartSchemaVersion tests that the configured schema version reaches
// the adapter.
func TestStartSchemaVersion(t *testing.T) {
	adapter := &stubAdapter{}
	s := NewRecordStore(func() IStoreAdapter { return adapter }, &Options{SchemaVersion: 7})

	if err := s.Start("first-db", "app-items"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if adapter.openCalls[0] != "first-db/app-items@7" {
		t.Errorf("Expected version 7 open, got %q", adapter.openCalls[0])
	}
}

// TestStartNormalizesSpecs tests that shorthand index specs reach the
// adapter in structured form.
func TestStartNormalizesSpecs(t *testing.T) {
	adapter := &stubAdapter{}
	s := NewRecordStore(func() IStoreAdapter { return adapter }, nil)

	if err := s.Start("first-db", "app-items", record.Index("price")); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if len(adapter.lastSpecs) != 1 {
		t.Fatalf("Expected one spec, got %d", len(adapter.lastSpecs))
	}
	spec := adapter.lastSpecs[0]
	if spec.Field != "" || spec.Name != "price-idx" || spec.KeyPath.String() != "price" {
		t.Errorf("Spec not normalized: %+v", spec)
	}
}

// TestFailedFirstStartUnbinds tests that a failed first open leaves the
// store restartable, while a failed later open keeps the binding.
func TestFailedFirstStartUnbinds(t *testing.T) {
	adapter := &stubAdapter{openErr: errors.New("disk on fire")}
	s := NewRecordStore(func() IStoreAdapter { return adapter }, nil)

	err := s.Start("first-db", "app-items")
	if CodeOf(err) != RetCInternalError {
		t.Fatalf("Expected InternalError, got %v", err)
	}
	if adapter.closed != 1 {
		t.Errorf("Expected adapter to be closed after failed first open, closed = %d", adapter.closed)
	}

	// the store is unbound again
	if _, err := s.Create("app-items", record.Record{}); CodeOf(err) != RetCConnNotInitialized {
		t.Errorf("Expected ConnectionNotInitialized, got %v", err)
	}

	// a successful retry binds
	adapter.openErr = nil
	if err := s.Start("first-db", "app-items"); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}

	// a failed open of an additional table keeps the existing binding
	adapter.openErr = errors.New("disk on fire again")
	if err := s.Start("first-db", "app-orders"); err == nil {
		t.Fatal("Expected error from failed open")
	}
	if adapter.closed != 1 {
		t.Errorf("Adapter closed after failed secondary open, closed = %d", adapter.closed)
	}
	if _, err := s.Create("app-items", record.Record{}); err != nil {
		t.Errorf("Existing binding lost: %v", err)
	}
}

// TestUpdateIdHandling tests the uniform identifier checks of Update.
func TestUpdateIdHandling(t *testing.T) {
	adapter := &stubAdapter{updateID: 5}
	s := NewRecordStore(func() IStoreAdapter { return adapter }, nil)
	if err := s.Start("first-db", "app-items"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// missing id never reaches the adapter
	_, err := s.Update("app-items", record.Record{"n": 1})
	if CodeOf(err) != RetCMissingIdentifier {
		t.Errorf("Expected MissingIdentifier, got %v", err)
	}
	if adapter.updateDone {
		t.Error("Update with missing id reached the adapter")
	}

	// matching ids pass through
	id, err := s.Update("app-items", record.Record{record.IDField: uint64(5)})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if id != 5 {
		t.Errorf("Expected id 5, got %d", id)
	}

	// an adapter that answers with a different id is an internal error
	_, err = s.Update("app-items", record.Record{record.IDField: uint64(6)})
	if CodeOf(err) != RetCInternalError {
		t.Errorf("Expected InternalError for id mismatch, got %v", err)
	}
}

// TestErrorWrapping tests the error taxonomy helpers.
func TestErrorWrapping(t *testing.T) {
	if CodeOf(nil) != RetCSuccess {
		t.Error("Expected Success for nil error")
	}
	if CodeOf(errors.New("boom")) != RetCInternalError {
		t.Error("Expected InternalError for untyped error")
	}

	typed := NewError(RetCBlocked, "held open")
	if CodeOf(typed) != RetCBlocked {
		t.Error("Expected Blocked for typed error")
	}
	if CodeOf(fmt.Errorf("rpc: %w", typed)) != RetCBlocked {
		t.Error("Expected Blocked through error wrapping")
	}

	// untyped errors are wrapped with their text preserved
	wrapped := asStoreError(errors.New("engine exploded"))
	if CodeOf(wrapped) != RetCInternalError {
		t.Error("Expected InternalError from asStoreError")
	}
	var se *Error
	if !errors.As(wrapped, &se) || se.Msg != "engine exploded" {
		t.Errorf("Diagnostic text not preserved: %v", wrapped)
	}
}
