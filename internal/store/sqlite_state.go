package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

const sqliteFileName = "focusbar.sqlite"

// SQLite keeps keys in a single kv table inside <dir>/focusbar.sqlite.
// Each call opens and closes its own connection so concurrent processes only
// contend on SQLite's own locking.
type SQLite struct {
	Dir string
}

func (s SQLite) Path() string {
	return filepath.Join(s.Dir, sqliteFileName)
}

// sqliteDSN sets busy_timeout before anything else so every pooled
// connection waits on locks, including the WAL switch on a fresh file.
func (s SQLite) sqliteDSN() string {
	return "file:" + s.Path() +
		"?_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)"
}

func (s SQLite) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, err
	}
	// Schema setup is serialized across processes; a cold database file
	// otherwise races the journal-mode change against CREATE TABLE.
	lk := flock.New(s.Path() + ".lock")
	locked, err := lk.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", sqliteFileName, err)
	}
	if !locked {
		return nil, fmt.Errorf("lock %s: not acquired", sqliteFileName)
	}
	defer func() { _ = lk.Unlock() }()

	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqliteDSN())
	if err != nil {
		return nil, err
	}
	if err := migrateSQLiteState(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLiteState(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (s SQLite) Get(key string) (string, bool, error) {
	return s.GetContext(context.Background(), key)
}

func (s SQLite) Set(key, value string) error {
	return s.SetContext(context.Background(), key, value)
}

func (s SQLite) GetContext(ctx context.Context, key string) (string, bool, error) {
	if err := validKey(key); err != nil {
		return "", false, err
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return "", false, err
	}
	defer db.Close()

	var v string
	err = db.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s SQLite) SetContext(ctx context.Context, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx,
		`INSERT OR REPLACE INTO kv(k, v, updated_at_unixms) VALUES(?, ?, ?)`,
		key, value, time.Now().UTC().UnixMilli(),
	)
	return err
}

// UpdatedAt returns when key was last written, if present.
func (s SQLite) UpdatedAt(ctx context.Context, key string) (time.Time, bool, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	defer db.Close()

	var ms int64
	err = db.QueryRowContext(ctx, `SELECT updated_at_unixms FROM kv WHERE k = ?`, key).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(ms).UTC(), true, nil
}
