package workbench

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/salmonumbrella/webclaw-cli/internal/tableblock"
)

// MemoryPath selects the in-memory store instead of a database file.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS workbench_docs (
	session_key TEXT PRIMARY KEY,
	blocks      TEXT NOT NULL,
	updated_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS pinned_sessions (
	session_key TEXT PRIMARY KEY,
	pinned_at   INTEGER NOT NULL
);
`

// Backend is a Store that also keeps pins and owns resources.
type Backend interface {
	Store
	PinStore
	io.Closer
}

// Open returns a MemoryStore for MemoryPath and a SQLiteStore otherwise.
func Open(ctx context.Context, path string, opts ...SQLiteOption) (Backend, error) {
	if path == MemoryPath {
		return NewMemoryStore(), nil
	}
	return OpenSQLite(ctx, path, opts...)
}

// SQLiteStore is a Store and PinStore backed by a SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger *slog.Logger) SQLiteOption {
	return func(s *SQLiteStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// OpenSQLite opens (creating when needed) the database at path.
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger.Debug("workbench store opened", "path", path)
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, sessionKey string) ([]tableblock.Block, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT blocks FROM workbench_docs WHERE session_key = ?", sessionKey,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []tableblock.Block{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %q: %w", sessionKey, err)
	}

	var blocks []tableblock.Block
	if err := json.Unmarshal([]byte(raw), &blocks); err != nil {
		return nil, fmt.Errorf("decoding session %q: %w", sessionKey, err)
	}
	return blocks, nil
}

func (s *SQLiteStore) Set(ctx context.Context, sessionKey string, blocks []tableblock.Block) error {
	if len(blocks) == 0 {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM workbench_docs WHERE session_key = ?", sessionKey); err != nil {
			return fmt.Errorf("clearing session %q: %w", sessionKey, err)
		}
		s.logger.Debug("workbench session cleared", "session", sessionKey)
		return nil
	}

	raw, err := json.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("encoding session %q: %w", sessionKey, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workbench_docs (session_key, blocks, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(session_key) DO UPDATE SET blocks = excluded.blocks, updated_at = excluded.updated_at`,
		sessionKey, string(raw), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving session %q: %w", sessionKey, err)
	}
	s.logger.Debug("workbench session saved", "session", sessionKey, "blocks", len(blocks))
	return nil
}

func (s *SQLiteStore) Sessions(ctx context.Context) ([]string, error) {
	return s.keys(ctx, "SELECT session_key FROM workbench_docs ORDER BY session_key")
}

func (s *SQLiteStore) Pinned(ctx context.Context) ([]string, error) {
	return s.keys(ctx, "SELECT session_key FROM pinned_sessions ORDER BY pinned_at, rowid")
}

func (s *SQLiteStore) Pin(ctx context.Context, sessionKey string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO pinned_sessions (session_key, pinned_at) VALUES (?, ?)",
		sessionKey, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("pinning %q: %w", sessionKey, err)
	}
	return nil
}

func (s *SQLiteStore) Unpin(ctx context.Context, sessionKey string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM pinned_sessions WHERE session_key = ?", sessionKey); err != nil {
		return fmt.Errorf("unpinning %q: %w", sessionKey, err)
	}
	return nil
}

func (s *SQLiteStore) keys(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
