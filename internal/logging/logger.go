package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/danielpatrickdp/corps-sequencer/internal/gate"
	"github.com/danielpatrickdp/corps-sequencer/internal/narrator"
)

// #region logger
// NewLogger builds a zerolog logger writing to w. format is "json" or
// "console"; level is any zerolog level name.
func NewLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	switch strings.ToLower(format) {
	case "", "json":
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), fmt.Errorf("log format %q: want json or console", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// #endregion logger

// #region event-logger
// EventLogger mirrors sequencer events into a structured log. Transitions
// and resets log at info, glitches at warn, gate vetoes at debug.
type EventLogger struct {
	log zerolog.Logger
}

// NewEventLogger tags every line with the instrument.
func NewEventLogger(log zerolog.Logger, instrument string) *EventLogger {
	return &EventLogger{log: log.With().Str("instrument", instrument).Logger()}
}

// OnEvent logs one narrator event.
func (l *EventLogger) OnEvent(ev narrator.Event) {
	var e *zerolog.Event
	if ev.Kind == narrator.KindGlitch {
		e = l.log.Warn()
	} else {
		e = l.log.Info()
	}
	e = e.Uint64("seq", ev.Sequence).
		Int64("tick", ev.Tick).
		Str("kind", string(ev.Kind)).
		Str("from", string(ev.From)).
		Str("cue", ev.Cue)
	if ev.To != "" {
		e = e.Str("to", string(ev.To))
	}
	if d, ok := ev.DeadlineValue(); ok {
		e = e.Int("deadline", d)
	}
	if ev.Terminal != "" {
		e = e.Str("terminal", string(ev.Terminal))
	}
	e.Msg(ev.Narration)
}

// OnGate logs vetoed arming attempts.
func (l *EventLogger) OnGate(tick int64, d gate.GateDecision) {
	if d.Allowed {
		return
	}
	vetoes := make([]string, 0, len(d.VetoSignals))
	for _, v := range d.VetoSignals {
		vetoes = append(vetoes, string(v.Type))
	}
	l.log.Debug().
		Int64("tick", tick).
		Strs("vetoes", vetoes).
		Msg(d.Reason)
}

// #endregion event-logger
