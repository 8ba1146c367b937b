// Package store persists sequencer sessions, the snapshots they consumed and
// the events they emitted in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/corps-sequencer/internal/narrator"
	"github.com/danielpatrickdp/corps-sequencer/internal/state"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id    TEXT PRIMARY KEY,
	instrument    TEXT NOT NULL,
	config_json   TEXT NOT NULL,
	started_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS steps (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	tick          INTEGER NOT NULL,
	snapshot_json TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS events (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	step_id       INTEGER NOT NULL,
	sequence      INTEGER NOT NULL,
	tick          INTEGER NOT NULL,
	kind          TEXT NOT NULL,
	from_state    TEXT NOT NULL,
	to_state      TEXT,
	cue           TEXT NOT NULL,
	narration     TEXT NOT NULL,
	deadline      INTEGER,
	terminal      TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id),
	FOREIGN KEY (step_id) REFERENCES steps(id)
);

CREATE INDEX IF NOT EXISTS idx_steps_session ON steps(session_id, tick);
CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, sequence);
`

// #endregion schema

// #region records
// Session is one sequencer run over one instrument.
type Session struct {
	SessionID  string
	Instrument string
	ConfigJSON string
	StartedAt  time.Time
}

// StepRecord is one snapshot fed to the sequencer, stored as received.
type StepRecord struct {
	ID           int64
	SessionID    string
	Tick         int64
	SnapshotJSON string
	CreatedAt    time.Time
}

// EventRecord is one persisted narrator event.
type EventRecord struct {
	SessionID string
	StepID    int64
	Sequence  uint64
	Tick      int64
	Kind      string
	From      string
	To        string
	Cue       string
	Narration string
	Deadline  *int
	Terminal  string
	CreatedAt time.Time
}

// Event converts the row back into a narrator event.
func (r EventRecord) Event() narrator.Event {
	return narrator.Event{
		Sequence:  r.Sequence,
		Tick:      r.Tick,
		Kind:      narrator.Kind(r.Kind),
		From:      state.State(r.From),
		To:        state.State(r.To),
		Cue:       r.Cue,
		Narration: r.Narration,
		Deadline:  r.Deadline,
		Terminal:  state.State(r.Terminal),
	}
}

// #endregion records

// #region store-struct
// Store manages the session audit trail in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// :memory: databases are per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the step logger.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #region sessions
// StartSession records a new session and returns it with a fresh ID.
func (s *Store) StartSession(instrument, configJSON string) (Session, error) {
	sess := Session{
		SessionID:  uuid.New().String(),
		Instrument: instrument,
		ConfigJSON: configJSON,
		StartedAt:  time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, instrument, config_json, started_at) VALUES (?, ?, ?, ?)`,
		sess.SessionID, sess.Instrument, sess.ConfigJSON, sess.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(id string) (Session, error) {
	var sess Session
	var startedStr string
	err := s.db.QueryRow(
		`SELECT session_id, instrument, config_json, started_at FROM sessions WHERE session_id = ?`, id,
	).Scan(&sess.SessionID, &sess.Instrument, &sess.ConfigJSON, &startedStr)
	if err != nil {
		return Session{}, fmt.Errorf("get session %s: %w", id, err)
	}
	sess.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
	return sess, nil
}

// ListSessions returns the most recent sessions first.
func (s *Store) ListSessions(limit int) ([]Session, error) {
	rows, err := s.db.Query(
		`SELECT session_id, instrument, config_json, started_at
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		var startedStr string
		if err := rows.Scan(&sess.SessionID, &sess.Instrument, &sess.ConfigJSON, &startedStr); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// #endregion sessions

// #region steps
// Steps returns every recorded step of a session in tick order.
func (s *Store) Steps(sessionID string) ([]StepRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, tick, snapshot_json, created_at
		 FROM steps WHERE session_id = ? ORDER BY id ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var out []StepRecord
	for rows.Next() {
		var rec StepRecord
		var createdStr string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Tick, &rec.SnapshotJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion steps

// #region events
// Events returns every recorded event of a session in sequence order.
func (s *Store) Events(sessionID string) ([]EventRecord, error) {
	rows, err := s.db.Query(
		`SELECT session_id, step_id, sequence, tick, kind, from_state, to_state, cue, narration, deadline, terminal, created_at
		 FROM events WHERE session_id = ? ORDER BY sequence ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var rec EventRecord
		var to, terminal sql.NullString
		var deadline sql.NullInt64
		var createdStr string
		if err := rows.Scan(&rec.SessionID, &rec.StepID, &rec.Sequence, &rec.Tick, &rec.Kind, &rec.From, &to,
			&rec.Cue, &rec.Narration, &deadline, &terminal, &createdStr); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if to.Valid {
			rec.To = to.String
		}
		if terminal.Valid {
			rec.Terminal = terminal.String
		}
		if deadline.Valid {
			d := int(deadline.Int64)
			rec.Deadline = &d
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion events
