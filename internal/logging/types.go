package logging

import (
	"time"

	"github.com/danielpatrickdp/corps-sequencer/internal/narrator"
)

// #region step-entry
// StepEntry is one sequencer step as it is written to the audit trail: the
// raw snapshot line plus the event it produced, if any.
type StepEntry struct {
	SessionID    string
	Tick         int64
	SnapshotJSON string
	Event        *narrator.Event // nil when an idle sequencer stayed idle
	CreatedAt    time.Time
}

// #endregion step-entry
