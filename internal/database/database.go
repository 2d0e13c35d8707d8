package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"slides-indexer/internal/logging"
	"slides-indexer/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// ErrCorrupt is returned when the catalog file fails its integrity check.
var ErrCorrupt = errors.New("catalog database corrupt")

// Database persists the catalog in a single SQLite file.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex // serializes write transactions
}

// InitInfo describes what New had to do to obtain a usable database.
type InitInfo struct {
	// Recovered is true when an unreadable file was moved aside and a fresh
	// catalog was created in its place.
	Recovered bool
	// CorruptPath is where the unreadable file was moved.
	CorruptPath string
}

// New opens or creates the catalog database at dbPath. The parent
// directory must already exist. A file that cannot be opened, fails the
// integrity check or holds a catalog that cannot be loaded is renamed to
// <dbPath>.corrupt-<unix> and replaced with an empty catalog.
func New(ctx context.Context, dbPath string) (*Database, InitInfo, error) {
	logging.Info("Catalog database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	d, err := open(ctx, dbPath)
	if err == nil {
		logging.Info("Catalog database ready at %s", dbPath)
		return d, InitInfo{}, nil
	}

	if _, statErr := os.Stat(dbPath); statErr != nil {
		// nothing on disk to recover from
		return nil, InitInfo{}, err
	}
	if ctx.Err() != nil {
		return nil, InitInfo{}, err
	}

	logging.Error("Catalog database unusable (%v), starting with an empty catalog", err)
	corruptPath, moveErr := moveAside(dbPath, time.Now())
	if moveErr != nil {
		return nil, InitInfo{}, errors.Join(err, fmt.Errorf("move corrupt catalog aside: %w", moveErr))
	}
	metrics.DBRecoveredTotal.Inc()
	logging.Warn("Corrupt catalog moved to %s", corruptPath)

	d, err = open(ctx, dbPath)
	if err != nil {
		return nil, InitInfo{}, fmt.Errorf("failed to create fresh catalog database: %w", err)
	}
	return d, InitInfo{Recovered: true, CorruptPath: corruptPath}, nil
}

func open(ctx context.Context, dbPath string) (*Database, error) {
	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		closeQuietly(db, "ping failure")
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{db: db, dbPath: dbPath}

	if err := d.quickCheck(ctx); err != nil {
		closeQuietly(db, "integrity check failure")
		return nil, err
	}
	if err := d.initialize(ctx); err != nil {
		closeQuietly(db, "initialization failure")
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	// Rows that pass quick_check can still be undecodable, and older files
	// may lack columns. Either way the catalog cannot be loaded.
	if _, err := d.LoadCatalog(ctx); err != nil {
		closeQuietly(db, "unreadable catalog")
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return d, nil
}

func closeQuietly(db *sql.DB, reason string) {
	if err := db.Close(); err != nil {
		logging.Error("failed to close database after %s: %v", reason, err)
	}
}

func (d *Database) quickCheck(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { recordQuery("quick_check", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var result string
	if err = d.db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if result != "ok" {
		err = fmt.Errorf("%w: %s", ErrCorrupt, result)
	}
	return err
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS directories (
		path TEXT PRIMARY KEY,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entries (
		path TEXT PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		document_type TEXT,
		slide_count INTEGER,
		snippet TEXT NOT NULL DEFAULT '',
		keywords TEXT NOT NULL DEFAULT '[]',
		slides TEXT NOT NULL DEFAULT '[]',
		modified_at INTEGER NOT NULL,
		checksum TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_modified_at ON entries(modified_at);
	CREATE INDEX IF NOT EXISTS idx_entries_kind ON entries(kind);

	CREATE TABLE IF NOT EXISTS warnings (
		position INTEGER PRIMARY KEY,
		message TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// withTx runs fn in one transaction, committing on success and rolling
// back on error.
func (d *Database) withTx(ctx context.Context, operation string, fn func(*sql.Tx) error) (err error) {
	start := time.Now()
	defer func() { recordQuery(operation, start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err = fn(tx); err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(time.Since(start).Seconds())
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	err = tx.Commit()
	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(time.Since(start).Seconds())
	return err
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// moveAside renames dbPath and its WAL/SHM sidecars to *.corrupt-<unix>.
func moveAside(dbPath string, now time.Time) (string, error) {
	suffix := fmt.Sprintf(".corrupt-%d", now.Unix())
	target := dbPath + suffix
	if err := os.Rename(dbPath, target); err != nil {
		return "", err
	}
	for _, sidecar := range []string{"-wal", "-shm"} {
		src := dbPath + sidecar
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := os.Rename(src, target+sidecar); err != nil {
			logging.Warn("failed to move %s aside: %v", src, err)
		}
	}
	return target, nil
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}
	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile) // Explicitly ignore cleanup error

	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", path, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 == 0 {
			logging.Warn("%s is read-only! Mode: %v - this will cause write failures", path, info.Mode())
			if chmodErr := os.Chmod(path, 0o600); chmodErr != nil {
				logging.Error("Failed to fix permissions of %s: %v", path, chmodErr)
			} else {
				logging.Info("Fixed permissions of %s", path)
			}
		}
	}
	return nil
}
