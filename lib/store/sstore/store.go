package sstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ValentinKolb/dRS/lib/record"
	"github.com/ValentinKolb/dRS/lib/store"
	"github.com/ValentinKolb/dRS/lib/store/sstore/internal"
	"github.com/ValentinKolb/dRS/lib/store/util"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// file name suffix of the database files
const fileSuffix = ".sqlite"

// --------------------------------------------------------------------------
// Core adapter structure
// --------------------------------------------------------------------------

// adapterImpl implements store.IStoreAdapter on a SQLite database file.
// One adapter owns exactly one database file, every opened table lives in
// that file.
type adapterImpl struct {
	dir string // directory the database files live in

	mu       sync.Mutex
	db       *sql.DB
	path     string
	database string
	handle   uuid.UUID
	tables   map[string][]record.IndexSpec // opened tables and their index specs
}

// NewSQLiteAdapter creates a new durable store adapter. Database files are
// created inside dir as "<database>.sqlite" on the first Open.
func NewSQLiteAdapter(dir string) store.IStoreAdapter {
	return &adapterImpl{
		dir:    dir,
		tables: make(map[string][]record.IndexSpec),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

// Open connects to the database file (first call) and establishes the
// schema for one table. A version above the stored schema version triggers
// the additive index migration, same or lower versions open unchanged. The
// open is refused with RetCBlocked while other handles hold the same file
// at a different version.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (a *adapterImpl) Open(database, table string, version uint64, indexes []record.IndexSpec) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db == nil {
		if err := a.connect(database, version); err != nil {
			return err
		}
	} else if a.database != database {
		return store.NewErrorf(store.RetCValidation,
			"adapter is bound to database %q, cannot open %q", a.database, database)
	}

	// Stored schema version of the file. The first connect of a fresh file
	// leaves it at 0, which always counts as an upgrade.
	var stored uint64
	if err := a.db.QueryRow("PRAGMA user_version").Scan(&stored); err != nil {
		return backendErrf("read schema version: %v", err)
	}
	upgrade := version > stored

	tx, err := a.db.Begin()
	if err != nil {
		return backendErrf("begin schema transaction: %v", err)
	}
	defer tx.Rollback()

	// A missing table is always created, regardless of version.
	tableExisted, err := tableExists(tx, table)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(internal.CreateTableSQL(table)); err != nil {
		return backendErrf("create table %q: %v", table, err)
	}

	// Migration: only missing indexes are created, and only on a fresh
	// table or a version increase.
	if !tableExisted || upgrade {
		existing, err := existingIndexNames(tx, table)
		if err != nil {
			return err
		}
		for _, spec := range internal.Diff(existing, indexes) {
			if _, err := tx.Exec(internal.CreateIndexSQL(table, spec)); err != nil {
				return backendErrf("create index %q on table %q: %v", spec.Name, table, err)
			}
			if err := persistIndexSpec(tx, table, spec); err != nil {
				return err
			}
		}
	}

	if upgrade {
		// PRAGMA does not support placeholders.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
			return backendErrf("set schema version: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return backendErrf("commit schema transaction: %v", err)
	}

	a.tables[table] = indexes
	return nil
}

// Create inserts a record. Ids come from the AUTOINCREMENT sequence of the
// table (first id is 1), an explicit id must be free. The existence check
// and the insert run in one transaction so no native upsert is reachable.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (a *adapterImpl) Create(table string, rec record.Record) (uint64, error) {
	body, err := encodeBody(rec)
	if err != nil {
		return 0, err
	}

	db, err := a.conn()
	if err != nil {
		return 0, err
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, backendErrf("begin transaction: %v", err)
	}
	defer tx.Rollback()

	quoted := internal.QuoteIdentifier(table)

	id, explicit := rec.ID()
	if explicit {
		exists, err := recordExists(tx, table, id)
		if err != nil {
			return 0, err
		}
		if exists {
			return 0, store.NewErrorf(store.RetCInternalError,
				"record with id %d already exists in table %q", id, table)
		}
		if _, err := tx.Exec(
			fmt.Sprintf("INSERT INTO %s (id, body) VALUES (?, ?)", quoted),
			int64(id), body,
		); err != nil {
			return 0, backendErrf("insert into table %q: %v", table, err)
		}
	} else {
		res, err := tx.Exec(
			fmt.Sprintf("INSERT INTO %s (body) VALUES (?)", quoted),
			body,
		)
		if err != nil {
			return 0, backendErrf("insert into table %q: %v", table, err)
		}
		last, err := res.LastInsertId()
		if err != nil {
			return 0, backendErrf("read assigned id: %v", err)
		}
		id = uint64(last)
	}

	if err := tx.Commit(); err != nil {
		return 0, backendErrf("commit transaction: %v", err)
	}
	return id, nil
}

// Read fetches one record by id.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (a *adapterImpl) Read(table string, id uint64) (record.Record, error) {
	db, err := a.conn()
	if err != nil {
		return nil, err
	}

	var body string
	err = db.QueryRow(
		fmt.Sprintf("SELECT body FROM %s WHERE id = ?", internal.QuoteIdentifier(table)),
		int64(id),
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NewErrorf(store.RetCRecordNotFound,
			"no record with id %d in table %q", id, table)
	}
	if err != nil {
		return nil, backendErrf("read from table %q: %v", table, err)
	}

	return decodeBody(body, id)
}

// Update replaces an existing record. Existence is enforced by an explicit
// pre-read inside the transaction, an update for a missing id never
// inserts.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (a *adapterImpl) Update(table string, rec record.Record) (uint64, error) {
	// The store layer guarantees the id is present.
	id, _ := rec.ID()

	body, err := encodeBody(rec)
	if err != nil {
		return 0, err
	}

	db, err := a.conn()
	if err != nil {
		return 0, err
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, backendErrf("begin transaction: %v", err)
	}
	defer tx.Rollback()

	exists, err := recordExists(tx, table, id)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, store.NewErrorf(store.RetCRecordNotFound,
			"no record with id %d in table %q", id, table)
	}

	if _, err := tx.Exec(
		fmt.Sprintf("UPDATE %s SET body = ? WHERE id = ?", internal.QuoteIdentifier(table)),
		body, int64(id),
	); err != nil {
		return 0, backendErrf("update table %q: %v", table, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, backendErrf("commit transaction: %v", err)
	}
	return id, nil
}

// Delete removes a record by id. Unlike the volatile backend this adapter
// pre-reads and rejects missing ids with RetCRecordNotFound, a delete is
// only ever acknowledged for a record that was actually there.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (a *adapterImpl) Delete(table string, id uint64) (bool, error) {
	db, err := a.conn()
	if err != nil {
		return false, err
	}

	tx, err := db.Begin()
	if err != nil {
		return false, backendErrf("begin transaction: %v", err)
	}
	defer tx.Rollback()

	exists, err := recordExists(tx, table, id)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, store.NewErrorf(store.RetCRecordNotFound,
			"no record with id %d in table %q", id, table)
	}

	if _, err := tx.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", internal.QuoteIdentifier(table)),
		int64(id),
	); err != nil {
		return false, backendErrf("delete from table %q: %v", table, err)
	}

	if err := tx.Commit(); err != nil {
		return false, backendErrf("commit transaction: %v", err)
	}
	return true, nil
}

// GetAll returns all records of the table ordered by id.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (a *adapterImpl) GetAll(table string) ([]record.Record, error) {
	db, err := a.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		fmt.Sprintf("SELECT id, body FROM %s ORDER BY id", internal.QuoteIdentifier(table)),
	)
	if err != nil {
		return nil, backendErrf("scan table %q: %v", table, err)
	}
	defer rows.Close()

	recs := make([]record.Record, 0)
	for rows.Next() {
		var (
			id   int64
			body string
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, backendErrf("scan table %q: %v", table, err)
		}
		rec, err := decodeBody(body, uint64(id))
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, backendErrf("scan table %q: %v", table, err)
	}
	return recs, nil
}

// Count returns the number of records in the table.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (a *adapterImpl) Count(table string) (uint64, error) {
	db, err := a.conn()
	if err != nil {
		return 0, err
	}

	var n int64
	if err := db.QueryRow(
		fmt.Sprintf("SELECT COUNT(*) FROM %s", internal.QuoteIdentifier(table)),
	).Scan(&n); err != nil {
		return 0, backendErrf("count table %q: %v", table, err)
	}
	return uint64(n), nil
}

// Info returns statistics about the database file and all opened tables.
func (a *adapterImpl) Info() (store.StoreInfo, error) {
	a.mu.Lock()
	db := a.db
	path := a.path
	database := a.database
	tables := make(map[string][]record.IndexSpec, len(a.tables))
	for name, specs := range a.tables {
		tables[name] = specs
	}
	a.mu.Unlock()

	if db == nil {
		return store.StoreInfo{}, store.NewError(store.RetCConnNotInitialized,
			"no database file open - call Start first")
	}

	var pageCount, pageSize, storedVersion int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return store.StoreInfo{}, backendErrf("read page count: %v", err)
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return store.StoreInfo{}, backendErrf("read page size: %v", err)
	}
	if err := db.QueryRow("PRAGMA user_version").Scan(&storedVersion); err != nil {
		return store.StoreInfo{}, backendErrf("read schema version: %v", err)
	}

	var (
		tableInfos  []store.TableInfo
		tableCounts []float64
	)
	for name, specs := range tables {
		count, err := a.Count(name)
		if err != nil {
			return store.StoreInfo{}, err
		}

		// sqlite_sequence has no row until the first auto-assigned id
		var seq int64
		err = db.QueryRow("SELECT seq FROM sqlite_sequence WHERE name = ?", name).Scan(&seq)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return store.StoreInfo{}, backendErrf("read id sequence of table %q: %v", name, err)
		}

		tableInfos = append(tableInfos, store.TableInfo{
			Name:          name,
			Records:       count,
			NextID:        uint64(seq) + 1,
			Indexes:       len(specs),
			SchemaVersion: uint64(storedVersion),
		})
		tableCounts = append(tableCounts, float64(count))
	}

	meta := &struct {
		Path              string                 `json:"path"`
		SchemaVersion     int64                  `json:"schema_version"`
		TableDistribution util.DistributionStats `json:"table_distribution"`
	}{
		Path:              path,
		SchemaVersion:     storedVersion,
		TableDistribution: util.NewDistributionStats(tableCounts),
	}

	return store.StoreInfo{
		Backend:   store.BackendSQLite,
		Database:  database,
		SizeBytes: int(pageCount * pageSize),
		Tables:    tableInfos,
		Metadata:  meta,
	}, nil
}

// Close closes the database file and releases the registry handle so
// blocked competitors can proceed. The data survives, a new Open picks it
// up again.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (a *adapterImpl) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db == nil {
		return nil
	}

	err := a.db.Close()
	registry.release(a.path, a.handle)

	a.db = nil
	a.path = ""
	a.database = ""
	a.handle = uuid.Nil
	a.tables = make(map[string][]record.IndexSpec)

	if err != nil {
		return backendErrf("close database: %v", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Connection Handling
// --------------------------------------------------------------------------

// connect opens the database file and registers the handle. Caller must
// hold a.mu.
func (a *adapterImpl) connect(database string, version uint64) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return backendErrf("create data directory %q: %v", a.dir, err)
	}
	path := filepath.Join(a.dir, database+fileSuffix)

	handle, err := registry.acquire(path, version)
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		registry.release(path, handle)
		return backendErrf("open database %q: %v", path, err)
	}

	// SQLite only supports one writer at a time, a single pooled
	// connection avoids SQLITE_BUSY errors under concurrent writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		registry.release(path, handle)
		return backendErrf("open database %q: %v", path, err)
	}

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		registry.release(path, handle)
		return err
	}

	if _, err := db.Exec(internal.CreateMetaTableSQL()); err != nil {
		_ = db.Close()
		registry.release(path, handle)
		return backendErrf("create bookkeeping table: %v", err)
	}

	a.db = db
	a.path = path
	a.database = database
	a.handle = handle
	return nil
}

// applyPragmas sets the required SQLite configuration: WAL for concurrent
// reads during writes, NORMAL synchronous mode and a busy timeout for lock
// contention.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return backendErrf("execute %q: %v", pragma, err)
		}
	}
	return nil
}

// conn returns the open database connection or a RetCConnNotInitialized
// error.
func (a *adapterImpl) conn() (*sql.DB, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return nil, store.NewError(store.RetCConnNotInitialized,
			"no database file open - call Start first")
	}
	return a.db, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// backendErrf wraps an engine failure as an opaque internal error. The
// underlying diagnostic text is preserved verbatim.
func backendErrf(format string, args ...interface{}) error {
	return store.NewErrorf(store.RetCInternalError, format, args...)
}

// encodeBody serializes a record to its JSON body. The id lives in the id
// column, it is stripped from the body so the two can never diverge.
func encodeBody(rec record.Record) (string, error) {
	stored := rec.Copy()
	if stored == nil {
		stored = record.Record{}
	}
	delete(stored, record.IDField)

	body, err := json.Marshal(stored)
	if err != nil {
		return "", backendErrf("serialize record: %v", err)
	}
	return string(body), nil
}

// decodeBody deserializes a JSON body and reattaches the id column.
func decodeBody(body string, id uint64) (record.Record, error) {
	var rec record.Record
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return nil, backendErrf("deserialize record %d: %v", id, err)
	}
	rec.SetID(id)
	return rec, nil
}

// recordExists checks for a row with the given id inside the transaction.
func recordExists(tx *sql.Tx, table string, id uint64) (bool, error) {
	var one int
	err := tx.QueryRow(
		fmt.Sprintf("SELECT 1 FROM %s WHERE id = ?", internal.QuoteIdentifier(table)),
		int64(id),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, backendErrf("read from table %q: %v", table, err)
	}
	return true, nil
}

// tableExists checks whether the record table is already part of the schema.
func tableExists(tx *sql.Tx, table string) (bool, error) {
	var one int
	err := tx.QueryRow(
		"SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?", table,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, backendErrf("read schema of table %q: %v", table, err)
	}
	return true, nil
}

// existingIndexNames returns the logical names of all indexes that already
// exist for the table.
func existingIndexNames(tx *sql.Tx, table string) ([]string, error) {
	rows, err := tx.Query(
		"SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ? AND name NOT LIKE 'sqlite_%'",
		table,
	)
	if err != nil {
		return nil, backendErrf("read indexes of table %q: %v", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var physical string
		if err := rows.Scan(&physical); err != nil {
			return nil, backendErrf("read indexes of table %q: %v", table, err)
		}
		if logical, ok := internal.LogicalIndexName(table, physical); ok {
			names = append(names, logical)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, backendErrf("read indexes of table %q: %v", table, err)
	}
	return names, nil
}

// persistIndexSpec stores the structured spec in the bookkeeping table so
// options without a physical representation (multiEntry) survive restarts.
func persistIndexSpec(tx *sql.Tx, table string, spec record.IndexSpec) error {
	raw, err := json.Marshal(spec)
	if err != nil {
		return backendErrf("serialize index spec %q: %v", spec.Name, err)
	}
	if _, err := tx.Exec(
		fmt.Sprintf("INSERT OR REPLACE INTO %s (tbl, name, spec) VALUES (?, ?, ?)",
			internal.QuoteIdentifier(internal.MetaTable)),
		table, spec.Name, string(raw),
	); err != nil {
		return backendErrf("persist index spec %q: %v", spec.Name, err)
	}
	return nil
}
