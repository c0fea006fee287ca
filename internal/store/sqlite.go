package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	last_active TEXT NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, timestamp);
CREATE TABLE IF NOT EXISTS analytics_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	data TEXT NOT NULL DEFAULT '{}',
	timestamp TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analytics_session ON analytics_events(session_id, timestamp);
`

// SQLiteStore persists sessions, messages and analytics events in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession inserts and returns a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, metadata map[string]any) (Session, error) {
	session := Session{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		LastActive: time.Now().UTC(),
		Metadata:   metadata,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at, last_active, metadata) VALUES (?, ?, ?, ?)`,
		session.ID, formatTime(session.CreatedAt), formatTime(session.LastActive), encodeJSON(metadata))
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// GetSession returns the session with the given id, or ErrSessionNotFound.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, last_active, metadata FROM sessions WHERE id = ?`, id)

	var session Session
	var createdAt, lastActive, metadata string
	if err := row.Scan(&session.ID, &createdAt, &lastActive, &metadata); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	session.CreatedAt = parseTime(createdAt)
	session.LastActive = parseTime(lastActive)
	session.Metadata = decodeJSON(metadata)
	return session, nil
}

// AppendMessage appends one message and touches the session's last_active.
func (s *SQLiteStore) AppendMessage(ctx context.Context, sessionID, role, content string, metadata map[string]any) (Message, error) {
	msg := Message{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, timestamp, metadata) VALUES (?, ?, ?, ?, ?)`,
		sessionID, role, content, formatTime(msg.Timestamp), encodeJSON(metadata))
	if err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}
	msg.ID, _ = res.LastInsertId()

	if _, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_active = ? WHERE id = ?`,
		formatTime(msg.Timestamp), sessionID); err != nil {
		return Message{}, fmt.Errorf("touch session: %w", err)
	}
	return msg, nil
}

// ListMessages returns messages oldest first, bounded by limit when positive.
// Insertion order breaks ties between equal timestamps.
func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	query := `SELECT id, session_id, role, content, timestamp, metadata FROM messages
		WHERE session_id = ? ORDER BY timestamp ASC, id ASC`
	args := []any{sessionID}
	if limit > 0 {
		// Window onto the most recent messages, still returned oldest first.
		query = `SELECT id, session_id, role, content, timestamp, metadata FROM (
			SELECT id, session_id, role, content, timestamp, metadata FROM messages
			WHERE session_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?
		) ORDER BY timestamp ASC, id ASC`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		var timestamp, metadata string
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &timestamp, &metadata); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Timestamp = parseTime(timestamp)
		msg.Metadata = decodeJSON(metadata)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// AppendAnalyticsEvent records one diagnostic event.
func (s *SQLiteStore) AppendAnalyticsEvent(ctx context.Context, sessionID, eventType string, data map[string]any) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analytics_events (session_id, event_type, data, timestamp) VALUES (?, ?, ?, ?)`,
		sessionID, eventType, encodeJSON(data), formatTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("append analytics event: %w", err)
	}
	return nil
}

// ListAnalyticsEvents returns a session's events oldest first.
func (s *SQLiteStore) ListAnalyticsEvents(ctx context.Context, sessionID string) ([]AnalyticsEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, event_type, data, timestamp FROM analytics_events
		WHERE session_id = ? ORDER BY timestamp ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list analytics events: %w", err)
	}
	defer rows.Close()

	var events []AnalyticsEvent
	for rows.Next() {
		var ev AnalyticsEvent
		var data, timestamp string
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.EventType, &data, &timestamp); err != nil {
			return nil, fmt.Errorf("scan analytics event: %w", err)
		}
		ev.Data = decodeJSON(data)
		ev.Timestamp = parseTime(timestamp)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// SessionStats aggregates message counts by role.
func (s *SQLiteStore) SessionStats(ctx context.Context, sessionID string) (Stats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, COUNT(*) FROM messages WHERE session_id = ? GROUP BY role`, sessionID)
	if err != nil {
		return Stats{}, fmt.Errorf("session stats: %w", err)
	}
	defer rows.Close()

	stats := Stats{MessagesByRole: map[string]int{}}
	for rows.Next() {
		var role string
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		stats.MessagesByRole[role] = count
		stats.TotalMessages += count
	}
	return stats, rows.Err()
}

// timeLayout is RFC 3339 with fixed-width nanoseconds, so the stored strings
// sort lexicographically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func encodeJSON(value map[string]any) string {
	if len(value) == 0 {
		return "{}"
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func decodeJSON(value string) map[string]any {
	if value == "" || value == "{}" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(value), &out); err != nil {
		return nil
	}
	return out
}

var _ Store = (*SQLiteStore)(nil)
