package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/corps-sequencer/internal/config"
	"github.com/danielpatrickdp/corps-sequencer/internal/replay"
	"github.com/danielpatrickdp/corps-sequencer/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the audit database")
	sessionID := flag.String("session", "", "session to export (default: most recent)")
	outPath := flag.String("out", "", "output fixture JSON path")
	description := flag.String("description", "", "fixture description")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/audit.db --out path/to/fixture.json [--session id] [--description text]")
		os.Exit(2)
	}

	if err := run(*dbPath, *sessionID, *outPath, *description); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

// run turns a recorded session into a replay fixture. Every step becomes a
// fixture step; its recorded event, if any, becomes the expectation.
func run(dbPath, sessionID, outPath, description string) error {
	audit, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer audit.Close()

	if sessionID == "" {
		list, err := audit.ListSessions(1)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return fmt.Errorf("no sessions recorded")
		}
		sessionID = list[0].SessionID
	}
	sess, err := audit.GetSession(sessionID)
	if err != nil {
		return err
	}

	var cfg config.File
	if err := json.Unmarshal([]byte(sess.ConfigJSON), &cfg); err != nil {
		return fmt.Errorf("parse session config: %w", err)
	}

	steps, err := audit.Steps(sess.SessionID)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return fmt.Errorf("session %s has no steps", sess.SessionID)
	}
	events, err := audit.Events(sess.SessionID)
	if err != nil {
		return err
	}
	byStep := make(map[int64]store.EventRecord, len(events))
	for _, e := range events {
		byStep[e.StepID] = e
	}

	if description == "" {
		description = fmt.Sprintf("exported from session %s (%s)", sess.SessionID, sess.Instrument)
	}
	fixture := replay.Fixture{
		Description: description,
		Config:      cfg,
		Steps:       make([]json.RawMessage, 0, len(steps)),
		Expected:    make([]replay.Expected, 0, len(steps)),
	}
	for _, st := range steps {
		fixture.Steps = append(fixture.Steps, json.RawMessage(st.SnapshotJSON))
		exp := replay.Expected{Tick: st.Tick}
		if e, ok := byStep[st.ID]; ok {
			exp.Kind = e.Kind
			exp.To = e.To
			exp.Cue = e.Cue
		}
		fixture.Expected = append(fixture.Expected, exp)
	}

	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}

	fmt.Printf("exported %d steps (%d events) from session %s to %s\n",
		len(steps), len(events), sess.SessionID, outPath)
	return nil
}

// #endregion export
