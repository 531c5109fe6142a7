/*
Package sstore provides the durable SQLite implementation of the
store.IStoreAdapter interface.

Every database maps to one SQLite file ("<database>.sqlite" inside the data
directory of the adapter). Records are stored as JSON bodies addressed by an
INTEGER PRIMARY KEY AUTOINCREMENT column, so identifiers start at 1,
increase by exactly 1 per create and are never reissued after a delete.
Secondary indexes become SQLite expression indexes over json_extract calls
into the body (see the internal package for the schema layout).

# Schema Versioning

The schema version of a database file lives in PRAGMA user_version. Opening
a table at a higher version than the stored one runs the additive index
migration: a pure diff of index names decides which requested indexes are
missing, only those are created, nothing is ever dropped. Opening at the
same or a lower version changes nothing.

A process wide registry tracks every open handle per database file. Opening
a file at a different version while other handles still hold it fails with
RetCBlocked and a message naming the competing connections, the caller has
to close them first.

# Transactions

Every mutating operation runs in its own transaction. Update and Delete
pre-read the record inside the transaction and fail with RetCRecordNotFound
for missing ids, so neither a native upsert nor a blind delete is reachable
through this adapter.

# Usage

	adapter := sstore.NewSQLiteAdapter("/var/lib/drs")
	s := store.NewRecordStore(func() store.IStoreAdapter { return adapter }, nil)

	err := s.Start("inventory-db", "app-items", record.Index("sku"))

# Thread Safety

All adapter methods are safe for concurrent use. Concurrency control for
the data itself is delegated to SQLite (WAL mode, busy timeout), the
adapter only guards its own connection state.
*/
package sstore
