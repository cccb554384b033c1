package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS replication_state (
	target TEXT NOT NULL,
	path TEXT NOT NULL,
	published INTEGER NOT NULL,
	published_at INTEGER NOT NULL,
	source_modified_at INTEGER NOT NULL,
	PRIMARY KEY (target, path)
) WITHOUT ROWID;
`

// SQLiteStore persists replication state between runs.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("state: open sqlite %s: %w", dbPath, err)
	}
	// a single connection serialises writers; sqlite would otherwise answer SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state: set journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getState(ctx context.Context, q queryer, target, path string) (ReplicationState, bool, error) {
	var (
		published                 bool
		publishedAt, sourceModeAt int64
	)
	err := q.QueryRowContext(ctx, `
		SELECT published, published_at, source_modified_at
		FROM replication_state WHERE target = ? AND path = ?`,
		target, path).Scan(&published, &publishedAt, &sourceModeAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ReplicationState{}, false, nil
	}
	if err != nil {
		return ReplicationState{}, false, fmt.Errorf("state: couldn't read %s:%s: %w", target, path, err)
	}
	return ReplicationState{
		Target:           target,
		Path:             path,
		Published:        published,
		PublishedAt:      fromUnix(publishedAt),
		SourceModifiedAt: fromUnix(sourceModeAt),
	}, true, nil
}

func (s *SQLiteStore) Get(ctx context.Context, target, path string) (ReplicationState, bool, error) {
	return getState(ctx, s.db, target, path)
}

func (s *SQLiteStore) Update(ctx context.Context, target, path string, fn UpdateFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("state: couldn't begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, exists, err := getState(ctx, tx, target, path)
	if err != nil {
		return err
	}

	next, write := fn(current, exists)
	if !write {
		return nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO replication_state (target, path, published, published_at, source_modified_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (target, path) DO UPDATE SET
			published = excluded.published,
			published_at = excluded.published_at,
			source_modified_at = excluded.source_modified_at`,
		target, path, next.Published, toUnix(next.PublishedAt), toUnix(next.SourceModifiedAt))
	if err != nil {
		return fmt.Errorf("state: couldn't write %s:%s: %w", target, path, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("state: couldn't commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, target string) ([]ReplicationState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, published, published_at, source_modified_at
		FROM replication_state WHERE target = ? ORDER BY path`, target)
	if err != nil {
		return nil, fmt.Errorf("state: couldn't list %s: %w", target, err)
	}
	defer rows.Close()

	result := []ReplicationState{}
	for rows.Next() {
		var (
			st                        ReplicationState
			publishedAt, sourceModeAt int64
		)
		if err := rows.Scan(&st.Path, &st.Published, &publishedAt, &sourceModeAt); err != nil {
			return nil, fmt.Errorf("state: couldn't scan row: %w", err)
		}
		st.Target = target
		st.PublishedAt = fromUnix(publishedAt)
		st.SourceModifiedAt = fromUnix(sourceModeAt)
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("state: error iterating rows: %w", err)
	}
	return result, nil
}

// zero times are stored as 0 so they survive the round trip
func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
