// Package store provides one uniform CRUD contract over interchangeable
// storage backends. It is the consistency layer of dRS: name and index-spec
// validation, connection and schema-version lifecycle, and the dispatch
// logic that guarantees identical observable behavior across backends whose
// native shapes differ radically.
//
// The package focuses on:
//   - A unified interface (IRecordStore) for record operations across
//     different backends
//   - Pluggable storage backend architecture through the AdapterFactory
//     pattern
//   - A single error taxonomy (Error/RetCode) so no backend specific quirk
//     ever leaks to the caller
//
// Key Components:
//
//   - IRecordStore Interface: The public surface defining Start, the CRUD
//     operations, GetAll/CountRecords and Close. All implementations share
//     this common interface, allowing applications to switch between
//     backends without code changes.
//
//   - IStoreAdapter Interface: The capability a concrete backend implements
//     (open/create/read/update/delete/list/count/close). The store validates
//     and normalizes every input before it reaches an adapter.
//
//   - Error System: A structured error reporting mechanism using typed
//     return codes and descriptive messages. Update/Delete enforce an
//     explicit existence precondition client-side specifically so that a
//     missing record presents one uniform RetCRecordNotFound outcome
//     regardless of whether the underlying backend would otherwise silently
//     upsert or silently no-op.
//
// Implementations:
//
//	The library includes two implementations of the IStoreAdapter interface:
//
//	- Memory Adapter (mstore): A volatile in-process mapping with per-table
//	  auto-increment counters and deep-copy isolation on every read and
//	  write. Data does not survive the process.
//	  Available in the "github.com/ValentinKolb/dRS/lib/store/mstore" package.
//
//	- SQLite Adapter (sstore): A durable, versioned, transactional
//	  per-database store built on modernc.org/sqlite. Schema versions live
//	  in the database file, index creation is diffed on version upgrades,
//	  and concurrent opens at different versions are refused as Blocked.
//	  Available in the "github.com/ValentinKolb/dRS/lib/store/sstore" package.
//
// Concurrency model: operations block until the backend completes, there is
// no cancellation and the store never retries on its own - retry policy
// belongs to the caller. A store instance exclusively owns at most one bound
// backend handle.
package store
