package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
)

// DB wraps the underlying store and exposes the narrow repository surface
// the coordinators depend on. All durable invariants (friend-request and
// conversation pair uniqueness) are enforced here by unique indexes, not by
// in-process locks, so multiple process instances stay correct.
type DB struct {
	conn *sql.DB
}

// Open connects to the sqlite database at path and ensures the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", "file:"+path+"?_fk=1&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	// sqlite allows one writer at a time; a single pooled connection avoids
	// SQLITE_BUSY churn under concurrent coordinators.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn}
	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) Close() error { return db.conn.Close() }

func (db *DB) createTables() error {
	tables := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS friend_requests (
		id TEXT PRIMARY KEY,
		sender_id TEXT NOT NULL,
		receiver_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (sender_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (receiver_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		user_a TEXT NOT NULL,
		user_b TEXT NOT NULL,
		last_message_id TEXT,
		last_message_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (user_a, user_b)
	);

	CREATE TABLE IF NOT EXISTS channel_messages (
		id TEXT PRIMARY KEY,
		sender_id TEXT NOT NULL,
		sender_name TEXT NOT NULL,
		body_kind TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		attachment_ref TEXT NOT NULL DEFAULT '',
		mime_type TEXT NOT NULL DEFAULT '',
		size INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		sent_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS private_messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		body_kind TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		attachment_ref TEXT NOT NULL DEFAULT '',
		mime_type TEXT NOT NULL DEFAULT '',
		size INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		read INTEGER NOT NULL DEFAULT 0,
		read_at TIMESTAMP,
		sent_at TIMESTAMP NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id)
	);

	-- One relationship record per unordered pair, whichever side proposed.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_friend_pair
		ON friend_requests(min(sender_id, receiver_id), max(sender_id, receiver_id));

	CREATE INDEX IF NOT EXISTS idx_requests_receiver ON friend_requests(receiver_id, status);
	CREATE INDEX IF NOT EXISTS idx_conversations_a ON conversations(user_a);
	CREATE INDEX IF NOT EXISTS idx_conversations_b ON conversations(user_b);
	CREATE INDEX IF NOT EXISTS idx_private_conversation ON private_messages(conversation_id);
	CREATE INDEX IF NOT EXISTS idx_channel_sent ON channel_messages(sent_at);
	`

	_, err := db.conn.Exec(tables)
	return err
}

// IsUniqueViolation reports whether err is the storage layer rejecting a
// duplicate key. Coordinators rely on this as the backstop for racing writes.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// IsNotFound reports whether err is a missing-row result.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
