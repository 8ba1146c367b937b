package logging

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/danielpatrickdp/corps-sequencer/internal/narrator"
)

// #region log-step
// LogStep writes the snapshot and its event, if any, in one transaction.
func LogStep(db *sql.DB, entry StepEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	created := entry.CreatedAt.Format(time.RFC3339Nano)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO steps (session_id, tick, snapshot_json, created_at) VALUES (?, ?, ?, ?)`,
		entry.SessionID, entry.Tick, entry.SnapshotJSON, created,
	)
	if err != nil {
		return fmt.Errorf("log step: %w", err)
	}
	stepID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("step id: %w", err)
	}

	if ev := entry.Event; ev != nil {
		if err := insertEvent(tx, entry.SessionID, stepID, *ev, created); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertEvent(tx *sql.Tx, sessionID string, stepID int64, ev narrator.Event, created string) error {
	var deadline interface{}
	if d, ok := ev.DeadlineValue(); ok {
		deadline = d
	}
	_, err := tx.Exec(
		`INSERT INTO events (session_id, step_id, sequence, tick, kind, from_state, to_state, cue, narration, deadline, terminal, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID,
		stepID,
		int64(ev.Sequence),
		ev.Tick,
		string(ev.Kind),
		string(ev.From),
		nullIfEmpty(string(ev.To)),
		ev.Cue,
		ev.Narration,
		deadline,
		nullIfEmpty(string(ev.Terminal)),
		created,
	)
	if err != nil {
		return fmt.Errorf("log event %d: %w", ev.Sequence, err)
	}
	return nil
}

// #endregion log-step

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
