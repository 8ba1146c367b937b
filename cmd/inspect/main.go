package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/corps-sequencer/internal/narrator"
	"github.com/danielpatrickdp/corps-sequencer/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the audit database")
	last := flag.Int("last", 20, "show N most recent sessions")
	session := flag.String("session", "", "render the event log of one session")
	jsonOut := flag.Bool("json", false, "output as JSON instead of text")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/audit.db [--last N] [--session id] [--json]")
		os.Exit(2)
	}

	audit, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer audit.Close()

	if *session != "" {
		err = runSessionMode(audit, *session, *jsonOut)
	} else {
		err = runListMode(audit, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	SessionID  string `json:"session_id"`
	Instrument string `json:"instrument"`
	StartedAt  string `json:"started_at"`
	Steps      int    `json:"steps"`
	Events     int    `json:"events"`
	Glitches   int    `json:"glitches"`
	Resets     int    `json:"resets"`
	Final      string `json:"final_state"`
}

func runListMode(audit *store.Store, last int, jsonOut bool) error {
	sessions, err := audit.ListSessions(last)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return nil
	}

	rows := make([]listRow, 0, len(sessions))
	for _, sess := range sessions {
		steps, err := audit.Steps(sess.SessionID)
		if err != nil {
			return err
		}
		events, err := audit.Events(sess.SessionID)
		if err != nil {
			return err
		}
		row := listRow{
			SessionID:  sess.SessionID,
			Instrument: sess.Instrument,
			StartedAt:  sess.StartedAt.Format("2006-01-02T15:04:05Z"),
			Steps:      len(steps),
			Events:     len(events),
			Final:      "idle",
		}
		for _, e := range events {
			switch narrator.Kind(e.Kind) {
			case narrator.KindGlitch:
				row.Glitches++
			case narrator.KindReset:
				row.Resets++
			}
			if e.To != "" {
				row.Final = e.To
			}
		}
		rows = append(rows, row)
	}

	if jsonOut {
		return printJSON(rows)
	}
	fmt.Printf("%-36s  %-10s  %6s  %6s  %8s  %6s  %-13s  %s\n",
		"Session", "Instrument", "Steps", "Events", "Glitches", "Resets", "Final", "Started")
	for _, r := range rows {
		fmt.Printf("%-36s  %-10s  %6d  %6d  %8d  %6d  %-13s  %s\n",
			r.SessionID, r.Instrument, r.Steps, r.Events, r.Glitches, r.Resets, r.Final, r.StartedAt)
	}
	return nil
}

// #endregion list-mode

// #region session-mode

func runSessionMode(audit *store.Store, id string, jsonOut bool) error {
	sess, err := audit.GetSession(id)
	if err != nil {
		return err
	}
	records, err := audit.Events(sess.SessionID)
	if err != nil {
		return err
	}

	log := narrator.NewLog()
	for _, r := range records {
		log.Append(r.Event())
	}

	if jsonOut {
		return printJSON(struct {
			SessionID  string           `json:"session_id"`
			Instrument string           `json:"instrument"`
			Config     json.RawMessage  `json:"config"`
			Events     []narrator.Event `json:"events"`
		}{sess.SessionID, sess.Instrument, json.RawMessage(sess.ConfigJSON), log.All()})
	}

	fmt.Printf("Session %s (%s), started %s\n\n", sess.SessionID, sess.Instrument,
		sess.StartedAt.Format("2006-01-02T15:04:05Z"))
	for _, line := range narrator.RenderAll(log) {
		fmt.Println(line)
	}
	return nil
}

// #endregion session-mode

// #region helpers

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion helpers
