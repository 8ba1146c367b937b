package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/corps-sequencer/internal/config"
	"github.com/danielpatrickdp/corps-sequencer/internal/market"
	"github.com/danielpatrickdp/corps-sequencer/internal/narrator"
	"github.com/danielpatrickdp/corps-sequencer/internal/replay"
	"github.com/danielpatrickdp/corps-sequencer/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the audit database (DB mode)")
	sessionID := flag.String("session", "", "session to replay (DB mode, default: most recent)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	verbose := flag.Bool("v", false, "print every replayed event")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/audit.db [--session id] [-v]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath, *verbose)
	} else {
		exitCode = runDBMode(*dbPath, *sessionID, *verbose)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region db-mode

// runDBMode re-runs a recorded session from its stored config and snapshot
// lines and checks the replayed events against the recorded ones.
func runDBMode(dbPath, sessionID string, verbose bool) int {
	audit, err := store.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer audit.Close()

	sess, err := resolveSession(audit, sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	var file config.File
	if err := json.Unmarshal([]byte(sess.ConfigJSON), &file); err != nil {
		fmt.Fprintf(os.Stderr, "parse session config: %v\n", err)
		return 2
	}
	settings := config.Default()
	if err := file.Apply(&settings); err != nil {
		fmt.Fprintf(os.Stderr, "apply session config: %v\n", err)
		return 2
	}

	steps, err := audit.Steps(sess.SessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load steps: %v\n", err)
		return 2
	}
	recorded, err := audit.Events(sess.SessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load events: %v\n", err)
		return 2
	}

	dec, err := market.NewDecoder()
	if err != nil {
		fmt.Fprintf(os.Stderr, "decoder: %v\n", err)
		return 2
	}
	ticks := make([]market.Tick, 0, len(steps))
	for _, st := range steps {
		t, err := dec.DecodeLine([]byte(st.SnapshotJSON))
		if err != nil {
			fmt.Fprintf(os.Stderr, "step %d: %v\n", st.ID, err)
			return 2
		}
		ticks = append(ticks, t)
	}

	results, err := replay.Replay(settings.Sequencer, ticks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	var replayed []narrator.Event
	for _, r := range results {
		if r.Event != nil {
			replayed = append(replayed, *r.Event)
		}
	}
	if verbose {
		for _, e := range replayed {
			fmt.Println(narrator.Render(e))
		}
	}

	diverged := 0
	n := max(len(replayed), len(recorded))
	for i := 0; i < n; i++ {
		var want, got string
		if i < len(recorded) {
			want = narrator.Render(recorded[i].Event())
		}
		if i < len(replayed) {
			got = narrator.Render(replayed[i])
		}
		if want != got {
			diverged++
			fmt.Printf("DIVERGED at event %d\n  recorded: %s\n  replayed: %s\n", i+1, want, got)
		}
	}

	printSummary(sess.SessionID, replay.Summarize(results))
	if diverged > 0 {
		fmt.Printf("%d of %d events diverged\n", diverged, n)
		return 1
	}
	fmt.Println("replay matches recorded session")
	return 0
}

func resolveSession(audit *store.Store, id string) (store.Session, error) {
	if id != "" {
		return audit.GetSession(id)
	}
	list, err := audit.ListSessions(1)
	if err != nil {
		return store.Session{}, err
	}
	if len(list) == 0 {
		return store.Session{}, fmt.Errorf("no sessions recorded")
	}
	return list[0], nil
}

// #endregion db-mode

// #region fixture-mode

func runFixtureMode(path string, verbose bool) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	cfg, err := f.SequencerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	dec, err := market.NewDecoder()
	if err != nil {
		fmt.Fprintf(os.Stderr, "decoder: %v\n", err)
		return 2
	}
	ticks, err := f.Ticks(dec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	results, err := replay.Replay(cfg, ticks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	if verbose {
		for _, r := range results {
			if r.Event != nil {
				fmt.Println(narrator.Render(*r.Event))
			}
		}
	}

	mismatches, err := replay.Compare(results, f.Expected)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	for _, m := range mismatches {
		fmt.Println("MISMATCH", m.String())
	}

	if f.Description != "" {
		fmt.Println(f.Description)
	}
	printSummary(path, replay.Summarize(results))
	if len(mismatches) > 0 {
		fmt.Printf("%d of %d steps mismatched\n", len(mismatches), len(results))
		return 1
	}
	fmt.Println("fixture passed")
	return 0
}

// #endregion fixture-mode

// #region output

func printSummary(label string, s replay.Summary) {
	fmt.Printf("%s: %d steps | %d transitions | %d glitches | %d resets (%d profit, %d loss) | %d silent | final %s\n",
		label, s.TotalSteps, s.Transitions, s.Glitches, s.Resets, s.ClosedProfit, s.ClosedLoss, s.Silent, s.FinalState.Label())
}

// #endregion output
