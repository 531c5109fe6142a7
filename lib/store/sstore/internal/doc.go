// Package internal provides the schema management logic for the sstore
// package: the pure migration diff and the DDL builders for record tables
// and secondary indexes.
//
// This package is intended for internal use by the sstore implementation and
// should not be imported directly by external code.
//
// Schema Design:
//
//	Every record table has the same physical shape:
//
//	- id:   INTEGER PRIMARY KEY AUTOINCREMENT, the record identifier.
//	        AUTOINCREMENT makes the sequence strictly monotonic, ids of
//	        deleted records are never reissued.
//	- body: TEXT NOT NULL, the record serialized as JSON. The id field is
//	        not duplicated into the body, it lives in the id column only.
//
//	Secondary indexes are SQLite expression indexes over json_extract
//	calls into the body. Index names share one namespace per database
//	file, so the physical name is the logical name prefixed with its
//	table ("app-items.sku-idx"). The structured specs themselves are
//	persisted in the bookkeeping table (MetaTable) because options like
//	multiEntry have no physical representation in SQLite.
//
// Migration Design:
//
//	An upgrade is a pure diff of index names: requested specs that are not
//	yet present are created, everything else is left untouched. Upgrades
//	are strictly additive, nothing is ever dropped or rewritten.
package internal
