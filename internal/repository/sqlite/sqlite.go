// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere
// Go works.
//
// All consistency in this system is delegated to SQLite:
//   - handle uniqueness → UNIQUE constraint on users.handle
//   - message ordering  → AUTOINCREMENT seq column on messages
//
// There is no in-process shared mutable state; request handlers are
// independent and rely on the constraints above for correctness under
// contention.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. The repository implementations are
// per-aggregate types sharing this connection — one type per interface, so
// each aggregate's method set stays its own.
type DB struct {
	conn *sql.DB

	Users    *UserRepo
	Requests *RequestRepo
	Messages *MessageRepo
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/quantumlink.db" → file-based database (persistent)
//   - ":memory:"            → in-memory database (great for tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection, always. SQLite allows a single writer anyway, the
	// PRAGMAs below are per-connection, and ":memory:" would otherwise give
	// every pooled connection its own empty database.
	conn.SetMaxOpenConns(1)

	// Force an immediate connection so a bad path surfaces here,
	// not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// required for a web server where polling reads race message writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite for backwards compatibility.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	db.Users = &UserRepo{db: db}
	db.Requests = &RequestRepo{db: db}
	db.Messages = &MessageRepo{db: db}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every startup; a real migration tool (golang-migrate) can replace it
// once the schema starts evolving.
func (db *DB) migrate() error {
	// Handle is nullable: a user can transiently exist without one (all five
	// allocation attempts collided) and NULLs don't collide under UNIQUE.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			google_id  TEXT NOT NULL UNIQUE,
			handle     TEXT UNIQUE,
			name       TEXT NOT NULL DEFAULT '',
			email      TEXT NOT NULL DEFAULT '',
			image      TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// No uniqueness on (from_id, to_id): duplicate requests between the same
	// pair — even after a rejection — are allowed by the model.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS friend_requests (
			id         TEXT PRIMARY KEY,
			from_id    TEXT NOT NULL REFERENCES users(id),
			to_id      TEXT NOT NULL REFERENCES users(id),
			categories TEXT NOT NULL DEFAULT '',
			note       TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL DEFAULT 'PENDING'
			           CHECK (status IN ('PENDING','ACCEPTED','REJECTED')),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_requests_from ON friend_requests(from_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_requests_to   ON friend_requests(to_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_requests_gate ON friend_requests(status, from_id, to_id);
	`)
	if err != nil {
		return fmt.Errorf("creating friend_requests table: %w", err)
	}

	// seq is AUTOINCREMENT so insertion order breaks created_at ties —
	// history ordering is (created_at, seq) ascending.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			room_id    TEXT NOT NULL,
			sender_id  TEXT NOT NULL REFERENCES users(id),
			content    TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_id, created_at, seq);
	`)
	if err != nil {
		return fmt.Errorf("creating messages table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
//
// The modernc driver exposes constraint violations only through the error
// text ("UNIQUE constraint failed: users.handle"), so string matching is the
// available mechanism. The message is stable across SQLite versions.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
