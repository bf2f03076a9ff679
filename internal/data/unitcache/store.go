// Package unitcache keeps compilation units across processes: a sqlite
// table of unit records next to the blob store holding their class bytes.
package unitcache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"jjsdev/internal/core/errors"
	"jjsdev/internal/data/blob"
	"jjsdev/internal/engine/javac"
	"jjsdev/internal/shared/intern"
	"jjsdev/internal/shared/treelog"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// PersistentUnitCache serves lookups from memory and writes changes back
// to sqlite in one transaction per Cleanup.
type PersistentUnitCache struct {
	*javac.MemoryUnitCache

	path     string
	db       *sql.DB
	store    *blob.Store
	interner *intern.Interner

	mu sync.Mutex
	// pending maps a resource path to its new record, or nil for a delete.
	pending map[string]*javac.UnitRecord
}

var _ javac.UnitCache = (*PersistentUnitCache)(nil)

// Open loads every stored unit whose class bytes are still in store.
func Open(path string, store *blob.Store, interner *intern.Interner) (*PersistentUnitCache, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, errors.New(errors.CodeValidationError, "unit cache path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, errors.Newf(errors.CodeValidationError, "unit cache path %q is a directory, expected file", cleanPath)
	}
	if dir := filepath.Dir(cleanPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "creating unit cache directory"), errors.CtxPath, dir)
		}
	}

	// busy_timeout + WAL reduce lock conflicts while watch-mode builds overlap reads.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "opening unit cache"), errors.CtxPath, cleanPath)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "pinging unit cache"), errors.CtxPath, cleanPath)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeCorrupt, "initializing unit cache schema"), errors.CtxPath, cleanPath)
	}

	c := &PersistentUnitCache{
		MemoryUnitCache: javac.NewMemoryUnitCacheOfKind("persistent"),
		path:            cleanPath,
		db:              db,
		store:           store,
		interner:        interner,
		pending:         make(map[string]*javac.UnitRecord),
	}
	if err := c.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *PersistentUnitCache) Path() string { return c.path }

func (c *PersistentUnitCache) load() error {
	if _, err := c.db.Exec(`DELETE FROM units WHERE types_version <> ?`, javac.TypesVersion); err != nil {
		return errors.Wrap(err, errors.CodeIO, "dropping outdated units")
	}
	rows, err := c.db.Query(`SELECT path, record FROM units`)
	if err != nil {
		return errors.Wrap(err, errors.CodeIO, "reading units")
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var path, raw string
		if err := rows.Scan(&path, &raw); err != nil {
			return errors.Wrap(err, errors.CodeIO, "scanning unit row")
		}
		u, err := c.decode(raw)
		if err != nil {
			slog.Warn("dropping unreadable cached unit", "path", path, "error", err)
			stale = append(stale, path)
			continue
		}
		c.AddWithOrigin(u, javac.OriginPersistent)
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, errors.CodeIO, "iterating units")
	}
	for _, path := range stale {
		c.pending[path] = nil
	}
	return nil
}

func (c *PersistentUnitCache) decode(raw string) (*javac.CachedUnit, error) {
	var rec javac.UnitRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, errors.Wrap(err, errors.CodeCorrupt, "decoding unit record")
	}
	return rec.Restore(c.store, c.interner)
}

// Add caches u and queues its record. Units that must not be persisted
// stay in memory only.
func (c *PersistentUnitCache) Add(u javac.CompilationUnit) {
	c.MemoryUnitCache.Add(u)
	c.queue(u)
}

func (c *PersistentUnitCache) AddArchived(u *javac.CachedUnit) {
	c.MemoryUnitCache.AddArchived(u)
	c.queue(u)
}

func (c *PersistentUnitCache) queue(u javac.CompilationUnit) {
	if !u.ShouldBePersisted() {
		return
	}
	cu := u.AsCached()
	if cu == nil {
		return
	}
	rec, err := javac.RecordOf(cu)
	if err != nil {
		slog.Warn("not persisting unit", "path", u.ResourcePath(), "error", err)
		return
	}
	c.mu.Lock()
	c.pending[u.ResourcePath()] = rec
	c.mu.Unlock()
}

func (c *PersistentUnitCache) Remove(u javac.CompilationUnit) {
	c.MemoryUnitCache.Remove(u)
	if c.Has(u.ResourcePath()) {
		return
	}
	c.mu.Lock()
	c.pending[u.ResourcePath()] = nil
	c.mu.Unlock()
}

// Cleanup writes queued changes and prunes class bytes no cached unit
// refers to.
func (c *PersistentUnitCache) Cleanup(logger *treelog.Logger) {
	written, err := c.Flush()
	if err != nil {
		logger.Log(treelog.Warn, "Failed to write unit cache", "path", c.path, "error", err)
		return
	}
	keep := make(map[string]bool)
	for _, u := range c.Units() {
		for _, cc := range u.CompiledClasses() {
			keep[cc.BlobKey()] = true
		}
	}
	removed, err := c.store.Prune(func(key string) bool { return keep[key] })
	if err != nil {
		logger.Log(treelog.Warn, "Failed to prune class bytes", "error", err)
		return
	}
	logger.Log(treelog.Trace, "Unit cache cleanup", "written", written, "pruned_blobs", removed)
}

// Flush applies queued writes and returns how many rows changed.
func (c *PersistentUnitCache) Flush() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return 0, nil
	}
	err := c.withRetry("flush units", func() error {
		tx, err := c.db.Begin()
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()
		for path, rec := range c.pending {
			if rec == nil {
				if _, err := tx.Exec(`DELETE FROM units WHERE path = ?`, path); err != nil {
					return err
				}
				continue
			}
			raw, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			_, err = tx.Exec(`
INSERT INTO units (path, type_name, strong_hash, last_modified, types_version, record, updated_at_utc)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
  type_name=excluded.type_name,
  strong_hash=excluded.strong_hash,
  last_modified=excluded.last_modified,
  types_version=excluded.types_version,
  record=excluded.record,
  updated_at_utc=excluded.updated_at_utc
`, path, rec.TypeName, rec.StrongHash, rec.LastModified, rec.TypesVersion, string(raw), time.Now().UTC().Format(time.RFC3339Nano))
			if err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, errors.AddContext(errors.Wrap(err, errors.CodeIO, "writing unit cache"), errors.CtxPath, c.path)
	}
	n := len(c.pending)
	clear(c.pending)
	return n, nil
}

// Close flushes queued writes and closes the database.
func (c *PersistentUnitCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	_, flushErr := c.Flush()
	if err := c.db.Close(); err != nil {
		return errors.Wrap(err, errors.CodeIO, "closing unit cache")
	}
	return flushErr
}

// StoredPaths lists the resource paths currently written to disk.
func (c *PersistentUnitCache) StoredPaths() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var paths []string
	err := c.withRetry("list units", func() error {
		paths = paths[:0]
		rows, err := c.db.Query(`SELECT path FROM units ORDER BY path`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var p string
			if err := rows.Scan(&p); err != nil {
				return err
			}
			paths = append(paths, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "listing units")
	}
	return paths, nil
}

func (c *PersistentUnitCache) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
