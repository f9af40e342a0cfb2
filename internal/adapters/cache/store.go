// Package cache implements the content-addressed cache: a SQLite table for
// small values, compressed blob files for large ones, and an in-memory variant.
package cache

import (
	"context"
	"errors"
	iofs "io/fs"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// formatVersion is bumped whenever the stored layout changes.
const formatVersion = 1

// statsKind labels cache lookups in the stats recorder.
const statsKind = "cache"

const schema = `CREATE TABLE IF NOT EXISTS entries (
	key     TEXT PRIMARY KEY,
	value   BLOB,
	is_blob INTEGER NOT NULL DEFAULT 0,
	size    INTEGER NOT NULL
) WITHOUT ROWID`

var _ ports.Cache = (*Store)(nil)

// Options configure a Store.
type Options struct {
	// Dir holds cache.db and the blobs directory.
	Dir string
	// BlobThreshold is the size at which values move to blob files.
	BlobThreshold int
	Compression   domain.Compression
	// Version namespaces every key so a tool upgrade starts from an empty cache.
	Version  string
	PoolSize int
}

// Store is a persistent ports.Cache.
type Store struct {
	pool      *sqlitex.Pool
	fs        ports.FileSystem
	stats     ports.StatsRecorder
	blobDir   string
	threshold int
	tag       compressionTag
	prefix    string

	group    singleflight.Group
	blobOnce sync.Once
	blobErr  error
}

// NewStore opens (or creates) the cache in opts.Dir.
func NewStore(fsys ports.FileSystem, stats ports.StatsRecorder, opts Options) (*Store, error) {
	tag, err := tagFor(opts.Compression)
	if err != nil {
		return nil, err
	}

	if err := fsys.CreateDir(opts.Dir); err != nil {
		return nil, zerr.Wrap(err, domain.ErrCacheOpenFailed.Error())
	}

	threshold := opts.BlobThreshold
	if threshold <= 0 {
		threshold = domain.DefaultBlobThreshold
	}

	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = max(runtime.NumCPU(), 4)
	}

	dbPath := filepath.Join(opts.Dir, domain.CacheDBFileName)
	pool, err := sqlitex.NewPool(dbPath, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConn,
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheOpenFailed.Error()), "path", dbPath)
	}

	return &Store{
		pool:      pool,
		fs:        fsys,
		stats:     stats,
		blobDir:   domain.BlobPath(opts.Dir),
		threshold: threshold,
		tag:       tag,
		prefix:    keyPrefix(opts.Version),
	}, nil
}

func keyPrefix(version string) string {
	return domain.NewIDHasher().
		String(version).
		String(strconv.Itoa(formatVersion)).
		Sum()[:8] + ":"
}

func prepareConn(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrCacheOpenFailed.Error()), "pragma", pragma)
		}
	}
	return sqlitex.ExecuteTransient(conn, schema, nil)
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok, err := s.get(ctx, key)
	switch {
	case err != nil:
		s.record(errorEvent(err))
	case ok:
		s.record("hit")
	default:
		s.record("miss")
	}
	return value, ok, err
}

func (s *Store) get(ctx context.Context, key string) ([]byte, bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, false, zerr.Wrap(err, domain.ErrCacheReadFailed.Error())
	}
	defer s.pool.Put(conn)

	var (
		found  bool
		isBlob bool
		value  []byte
	)
	err = sqlitex.Execute(conn, `SELECT value, is_blob FROM entries WHERE key = ?`, &sqlitex.ExecOptions{
		Args: []any{s.prefix + key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			isBlob = stmt.ColumnInt(1) != 0
			value = make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, value)
			return nil
		},
	})
	if err != nil {
		return nil, false, zerr.With(zerr.Wrap(err, domain.ErrCacheReadFailed.Error()), "key", key)
	}
	if !found {
		return nil, false, nil
	}
	if !isBlob {
		return value, true, nil
	}

	data, err := s.fs.ReadFile(s.blobPath(key))
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, false, zerr.With(zerr.Wrap(domain.ErrCacheCorrupt, "missing blob"), "key", key)
		}
		return nil, false, zerr.With(zerr.Wrap(err, domain.ErrCacheReadFailed.Error()), "key", key)
	}
	raw, err := decodeBlob(data)
	if err != nil {
		return nil, false, zerr.With(err, "key", key)
	}
	return raw, true, nil
}

// Set stores value under key, spilling to a blob file above the threshold.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.set(ctx, key, value); err != nil {
		s.record("write")
		return err
	}
	return nil
}

func (s *Store) set(ctx context.Context, key string, value []byte) error {
	isBlob := 0
	stored := value
	if len(value) >= s.threshold {
		isBlob = 1
		if err := s.ensureBlobDir(); err != nil {
			return err
		}
		if err := s.fs.WriteFile(s.blobPath(key), encodeBlob(value, s.tag)); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "key", key)
		}
		stored = []byte{}
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO entries (key, value, is_blob, size) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, is_blob = excluded.is_blob, size = excluded.size`,
		&sqlitex.ExecOptions{Args: []any{s.prefix + key, stored, isBlob, len(value)}},
	)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "key", key)
	}
	return nil
}

// Delete removes key and its blob file, if any.
func (s *Store) Delete(ctx context.Context, key string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `DELETE FROM entries WHERE key = ?`, &sqlitex.ExecOptions{
		Args: []any{s.prefix + key},
	})
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "key", key)
	}
	return s.fs.Remove(s.blobPath(key))
}

// GetOrInit returns the value for key or computes, stores and returns it.
// Concurrent callers for the same key wait for a single computation.
func (s *Store) GetOrInit(
	ctx context.Context,
	key string,
	compute func(context.Context) ([]byte, error),
) ([]byte, error) {
	return getOrInit(ctx, &s.group, s.get, s.set, s.record, key, compute)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if err := s.pool.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}
	return nil
}

func (s *Store) ensureBlobDir() error {
	s.blobOnce.Do(func() {
		if err := s.fs.CreateDir(s.blobDir); err != nil {
			s.blobErr = zerr.Wrap(err, domain.ErrBlobDirCreateFailed.Error())
		}
	})
	return s.blobErr
}

func (s *Store) blobPath(key string) string {
	name := domain.HashString(s.prefix + key)
	return filepath.Join(s.blobDir, name[:2], name)
}

func errorEvent(err error) string {
	if errors.Is(err, domain.ErrCacheCorrupt) {
		return "corrupt"
	}
	return "read"
}

func (s *Store) record(event string) {
	recordEvent(s.stats, event)
}

// recordEvent maps a cache event onto the stats recorder.
func recordEvent(stats ports.StatsRecorder, event string) {
	if stats == nil {
		return
	}
	switch event {
	case "hit":
		stats.Hit(statsKind)
	case "miss":
		stats.Miss(statsKind)
	case "bailout":
		stats.Bailout(statsKind)
	default:
		stats.Error(statsKind + "_" + event)
	}
}

type (
	getFunc    func(context.Context, string) ([]byte, bool, error)
	setFunc    func(context.Context, string, []byte) error
	recordFunc func(string)
)

// getOrInit is shared by Store and Memory. The lookup is repeated inside the
// singleflight call so a caller arriving just after a completed computation
// still observes the stored value.
func getOrInit(
	ctx context.Context,
	group *singleflight.Group,
	get getFunc,
	set setFunc,
	record recordFunc,
	key string,
	compute func(context.Context) ([]byte, error),
) ([]byte, error) {
	if value, ok, err := get(ctx, key); err != nil {
		record(errorEvent(err))
		return nil, err
	} else if ok {
		record("hit")
		return value, nil
	}

	var computed bool
	result, err, _ := group.Do(key, func() (any, error) {
		value, ok, err := get(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			return value, nil
		}

		computed = true
		value, err = compute(ctx)
		if err != nil {
			return nil, err
		}
		if err := set(ctx, key, value); err != nil {
			record("write")
			return nil, err
		}
		return value, nil
	})
	if computed {
		record("miss")
	} else if err == nil {
		record("hit")
	}
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
