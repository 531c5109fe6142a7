/*
Package mstore provides the volatile in-memory implementation of the
store.IStoreAdapter interface.

The adapter keeps every table in a concurrent hash map and allocates record
identifiers from a per-table atomic counter (first id is 1, each create
advances it by exactly 1). Records are deep-copied on every write and every
read, so callers can never mutate stored state through a shared reference.

Index specs are accepted and remembered for metadata reporting but never
enforced, there is no secondary index structure in this backend. Schema
versions are equally ephemeral: re-opening a table at a new version simply
adopts it, nothing can block the open.

All data is lost on Close or process exit. Use the sstore package for the
durable backend with the same observable CRUD behavior.

# Usage

	adapter := mstore.NewMemoryAdapter()
	s := store.NewRecordStore(func() store.IStoreAdapter { return adapter }, nil)

	err := s.Start("inventory-db", "app-items", record.Index("sku"))

# Thread Safety

All adapter methods are safe for concurrent use. Per-id operations are
atomic, cross-record operations (GetAll, Info) observe a weakly consistent
snapshot.
*/
package mstore
