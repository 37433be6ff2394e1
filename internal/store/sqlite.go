package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sockchat/sockchat/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed store.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	// The messages table deliberately carries no uniqueness
	// constraint on (room, idx): index assignment is a read-then-write
	// sequence and concurrent senders may store the same index.
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS connections (
		connection_id TEXT PRIMARY KEY
	);
	CREATE TABLE IF NOT EXISTS messages (
		room TEXT NOT NULL,
		idx INTEGER NOT NULL,
		ts INTEGER NOT NULL,
		username TEXT NOT NULL,
		content TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_room_idx ON messages(room, idx DESC);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetSession retrieves a session by ID. Expired sessions are filtered
// in the query itself, so a stale record is indistinguishable from an
// absent one.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	query := `
		SELECT session_id, username, created_at, expires_at
		FROM sessions WHERE session_id = ? AND expires_at > ?`

	row := s.db.QueryRowContext(ctx, query, sessionID, time.Now().Unix())

	var sess domain.Session
	var createdAt, expiresAt int64

	err := row.Scan(&sess.SessionID, &sess.Username, &createdAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get session", err)
	}

	sess.CreatedAt = time.Unix(createdAt, 0)
	sess.ExpiresAt = time.Unix(expiresAt, 0)

	return &sess, nil
}

// PutSession creates or replaces a session record.
func (s *SQLiteStore) PutSession(ctx context.Context, session *domain.Session) error {
	query := `
	INSERT INTO sessions (session_id, username, created_at, expires_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		username = excluded.username,
		created_at = excluded.created_at,
		expires_at = excluded.expires_at`

	_, err := s.db.ExecContext(ctx, query,
		session.SessionID, session.Username,
		session.CreatedAt.Unix(), session.ExpiresAt.Unix())
	return wrapErr("put session", err)
}

// PutConnection records a live connection handle.
func (s *SQLiteStore) PutConnection(ctx context.Context, connectionID string) error {
	query := `
	INSERT INTO connections (connection_id) VALUES (?)
	ON CONFLICT(connection_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query, connectionID)
	return wrapErr("put connection", err)
}

// DeleteConnection removes a connection handle. Deleting an absent ID
// is a no-op.
func (s *SQLiteStore) DeleteConnection(ctx context.Context, connectionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM connections WHERE connection_id = ?`, connectionID)
	return wrapErr("delete connection", err)
}

// ListConnections returns all recorded connection IDs.
func (s *SQLiteStore) ListConnections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT connection_id FROM connections`)
	if err != nil {
		return nil, wrapErr("list connections", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapErr("scan connection row", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list connections", err)
	}
	return ids, nil
}

// LatestMessage returns the highest-indexed message for a room.
func (s *SQLiteStore) LatestMessage(ctx context.Context, room string) (*domain.Message, error) {
	msgs, err := s.RecentMessages(ctx, room, 1)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return &msgs[0], nil
}

// PutMessage writes a message row.
func (s *SQLiteStore) PutMessage(ctx context.Context, msg *domain.Message) error {
	query := `INSERT INTO messages (room, idx, ts, username, content) VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		msg.Room, msg.Index, msg.Timestamp, msg.Username, msg.Content)
	return wrapErr("put message", err)
}

// RecentMessages returns up to limit messages for a room, newest first.
func (s *SQLiteStore) RecentMessages(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	query := `
		SELECT room, idx, ts, username, content
		FROM messages WHERE room = ?
		ORDER BY idx DESC, rowid DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, room, limit)
	if err != nil {
		return nil, wrapErr("query messages", err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.Room, &m.Index, &m.Timestamp, &m.Username, &m.Content); err != nil {
			return nil, wrapErr("scan message row", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("query messages", err)
	}
	return msgs, nil
}
