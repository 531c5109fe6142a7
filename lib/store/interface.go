package store

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/dRS/lib/record"
)

// --------------------------------------------------------------------------
// Interface Definitions
// --------------------------------------------------------------------------

// AdapterFactory is a function type that creates the backend adapter used by
// a record store. This is used to abstract the creation of the backend from
// the store implementation.
type AdapterFactory func() IStoreAdapter

// IRecordStore is the public CRUD surface of the record store. A store is
// constructed idle, Start binds exactly one backend and establishes or
// upgrades the schema, and Close releases the backend again so the instance
// can be restarted. Every operation issued while no backend is bound fails
// with RetCConnNotInitialized.
//
// Both backends present identical observable behavior through this
// interface: the same error conditions, the same identifier allocation
// (auto-assigned ids start at 1 and increase by exactly 1 per create) and
// the same no-upsert guarantee on Update.
type IRecordStore interface {
	// Start validates the database name, table name and all index specs,
	// then opens (or creates/upgrades) the schema for the table on the
	// bound backend. Validation runs completely before any backend
	// interaction, one invalid index spec aborts the call with no partial
	// schema change. Start may be called once per table, the first call
	// binds the backend.
	Start(database, table string, indexes ...record.IndexSpec) error
	// Create inserts a new record and returns its identifier. A record
	// without an id gets one auto-assigned, an explicit id that collides
	// with an existing record fails with RetCInternalError.
	Create(table string, rec record.Record) (id uint64, err error)
	// Read returns the record with the given id, or RetCRecordNotFound.
	Read(table string, id uint64) (rec record.Record, err error)
	// Update replaces an existing record. The record must carry an id
	// (else RetCMissingIdentifier) and the id must exist (else
	// RetCRecordNotFound) - Update never inserts.
	Update(table string, rec record.Record) (id uint64, err error)
	// Delete removes a record by id. The boolean reports whether a record
	// was present. See the adapter documentation for the backend specific
	// missing-id behavior.
	Delete(table string, id uint64) (found bool, err error)
	// GetAll returns all live records of the table.
	GetAll(table string) (recs []record.Record, err error)
	// CountRecords returns the number of live records in the table.
	CountRecords(table string) (n uint64, err error)
	// Info returns metadata about the bound backend.
	Info() (info StoreInfo, err error)
	// Close releases the backend handle (durable) or clears all tables and
	// counters (volatile) and unbinds the backend. Close is idempotent, a
	// second call is a no-op and never an error.
	Close() error
}

// IStoreAdapter is the capability interface a storage backend implements.
// The record store validates and normalizes all inputs before they reach
// the adapter, so an adapter only ever sees structured index specs and
// checked names.
type IStoreAdapter interface {
	// Open establishes the schema for one table at the given version.
	// Called once per table, possibly repeatedly over the lifetime of the
	// adapter. Indexes are already normalized and validated.
	Open(database, table string, version uint64, indexes []record.IndexSpec) error
	// Create inserts a record and returns the assigned id.
	Create(table string, rec record.Record) (uint64, error)
	// Read fetches one record by id.
	Read(table string, id uint64) (record.Record, error)
	// Update overwrites an existing record, enforcing existence first.
	Update(table string, rec record.Record) (uint64, error)
	// Delete removes a record by id.
	Delete(table string, id uint64) (bool, error)
	// GetAll lists all live records of a table.
	GetAll(table string) ([]record.Record, error)
	// Count returns the number of live records of a table.
	Count(table string) (uint64, error)
	// Info returns metadata about the backend.
	Info() (StoreInfo, error)
	// Close releases all resources held by the adapter.
	Close() error
}

// --------------------------------------------------------------------------
// Store Metadata
// --------------------------------------------------------------------------

// BackendKind identifies the concrete storage substrate of an adapter.
type BackendKind string

const (
	BackendMemory BackendKind = "memory"
	BackendSQLite BackendKind = "sqlite"
)

// TableInfo holds per-table metadata.
type TableInfo struct {
	Name          string `json:"name"`
	Records       uint64 `json:"records"`
	NextID        uint64 `json:"next_id,omitempty"`
	Indexes       int    `json:"indexes"`
	SchemaVersion uint64 `json:"schema_version,omitempty"`
}

// StoreInfo returns metadata about the backend underlying the store.
// It is not guaranteed that all fields are filled in or that the
// information is up-to-date!
type StoreInfo struct {
	Backend   BackendKind `json:"backend"`
	Database  string      `json:"database,omitempty"`
	SizeBytes int         `json:"size_bytes"`
	Tables    []TableInfo `json:"tables"`
	Metadata  interface{} `json:"metadata,omitempty"`
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("RecordStoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// NewErrorf creates a new Error with the given code and a formatted message.
func NewErrorf(code RetCode, format string, args ...interface{}) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// CodeOf extracts the RetCode from an error. Errors that are not store
// errors report RetCInternalError, nil reports RetCSuccess.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return RetCInternalError
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

// RetCode classifies the outcome of a store operation. The taxonomy is
// identical for both backends, no backend specific error shape ever leaks
// to the caller.
type RetCode uint64

const (
	RetCSuccess             RetCode = iota // 0: Operation executed successfully.
	RetCInternalError                      // 1: Opaque backend failure (engine error, transaction abort, write error).
	RetCValidation                         // 2: Name or index spec validation failed, nothing was touched.
	RetCConnNotInitialized                 // 3: No backend is bound (Start not called, or store closed).
	RetCTableNotInitialized                // 4: Unregistered table name (volatile backend only).
	RetCRecordNotFound                     // 5: No record with the requested id.
	RetCMissingIdentifier                  // 6: Update called on a record without an id.
	RetCBlocked                            // 7: Schema open refused, another connection at a different version is still held open.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCValidation:
		return "ValidationError"
	case RetCConnNotInitialized:
		return "ConnectionNotInitialized"
	case RetCTableNotInitialized:
		return "TableNotInitialized"
	case RetCRecordNotFound:
		return "RecordNotFound"
	case RetCMissingIdentifier:
		return "MissingIdentifier"
	case RetCBlocked:
		return "Blocked"
	default:
		return "Unknown"
	}
}
