package sstore

import (
	"sync"

	"github.com/ValentinKolb/dRS/lib/store"
	"github.com/google/uuid"
)

// --------------------------------------------------------------------------
// Open-Handle Registry
// --------------------------------------------------------------------------

// handleRegistry tracks every open adapter handle per database file within
// this process. It implements the blocked-open rule: a database may be held
// open by any number of handles at one schema version, but a handle that
// requests a different version while others are still open is refused.
type handleRegistry struct {
	mu        sync.Mutex
	databases map[string]*databaseHandles // keyed by database file path
}

type databaseHandles struct {
	version uint64
	holders map[uuid.UUID]struct{}
}

// registry is the process wide instance. SQLite files are a process shared
// resource, so the bookkeeping must be process wide too.
var registry = &handleRegistry{
	databases: make(map[string]*databaseHandles),
}

// acquire registers a new handle for the database at the given version.
// It fails with RetCBlocked if other handles hold the database at a
// different version.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *handleRegistry) acquire(path string, version uint64) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.databases[path]
	if !ok {
		entry = &databaseHandles{
			version: version,
			holders: make(map[uuid.UUID]struct{}),
		}
		r.databases[path] = entry
	} else if len(entry.holders) > 0 && entry.version != version {
		return uuid.Nil, store.NewErrorf(store.RetCBlocked,
			"database %q is open at version %d by %d other connection(s), close them before opening at version %d",
			path, entry.version, len(entry.holders), version)
	} else {
		entry.version = version
	}

	id := uuid.New()
	entry.holders[id] = struct{}{}
	return id, nil
}

// release removes a handle from the registry. Releasing an unknown handle
// is a no-op so Close stays idempotent.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *handleRegistry) release(path string, id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.databases[path]
	if !ok {
		return
	}
	delete(entry.holders, id)
	if len(entry.holders) == 0 {
		delete(r.databases, path)
	}
}
