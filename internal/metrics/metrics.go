// Package metrics exposes sequencer activity as Prometheus series:
//
//	sequencer_events_total{kind,cue}  events emitted, by kind and cue
//	sequencer_resets_total{cue}       Corps Resets, by triggering cue
//	sequencer_closes_total{result}    terminal closes (profit|loss)
//	sequencer_gate_vetoes_total{veto} arming attempts blocked, per veto
//	sequencer_deadline_ticks          remaining elastic deadline
//	sequencer_state{state}            1 for the current state, 0 otherwise
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielpatrickdp/corps-sequencer/internal/gate"
	"github.com/danielpatrickdp/corps-sequencer/internal/narrator"
	"github.com/danielpatrickdp/corps-sequencer/internal/state"
)

// #region recorder
// Recorder is a sequencer observer that updates its series on every event
// and gate decision.
type Recorder struct {
	events   *prometheus.CounterVec
	resets   *prometheus.CounterVec
	closes   *prometheus.CounterVec
	vetoes   *prometheus.CounterVec
	deadline prometheus.Gauge
	state    *prometheus.GaugeVec
}

// New creates the series and registers them with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sequencer_events_total",
				Help: "Events emitted by the sequencer",
			},
			[]string{"kind", "cue"},
		),
		resets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sequencer_resets_total",
				Help: "Corps Resets split by triggering cue",
			},
			[]string{"cue"},
		),
		closes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sequencer_closes_total",
				Help: "Sequences closed through a terminal state",
			},
			[]string{"result"},
		),
		vetoes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sequencer_gate_vetoes_total",
				Help: "Integrity gate vetoes raised while idle",
			},
			[]string{"veto"},
		),
		deadline: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sequencer_deadline_ticks",
				Help: "Remaining elastic deadline in ticks",
			},
		),
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sequencer_state",
				Help: "Current sequencer state (1 for the active one)",
			},
			[]string{"state"},
		),
	}

	for _, c := range []prometheus.Collector{r.events, r.resets, r.closes, r.vetoes, r.deadline, r.state} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	r.setState(state.Idle)
	return r, nil
}

// #endregion recorder

// #region observer
// OnEvent updates counters and the state gauges.
func (r *Recorder) OnEvent(ev narrator.Event) {
	r.events.WithLabelValues(string(ev.Kind), ev.Cue).Inc()

	switch ev.Kind {
	case narrator.KindReset:
		r.resets.WithLabelValues(ev.Cue).Inc()
		switch ev.Terminal {
		case state.ClosedProfit:
			r.closes.WithLabelValues("profit").Inc()
		case state.ClosedLoss:
			r.closes.WithLabelValues("loss").Inc()
		}
		r.deadline.Set(0)
		r.setState(state.Idle)
	case narrator.KindTransition:
		if d, ok := ev.DeadlineValue(); ok {
			r.deadline.Set(float64(d))
		}
		r.setState(ev.To)
	}
}

// OnGate counts each veto of a blocked arming attempt.
func (r *Recorder) OnGate(_ int64, d gate.GateDecision) {
	for _, v := range d.VetoSignals {
		r.vetoes.WithLabelValues(string(v.Type)).Inc()
	}
}

func (r *Recorder) setState(cur state.State) {
	for _, s := range state.All {
		v := 0.0
		if s == cur {
			v = 1
		}
		r.state.WithLabelValues(string(s)).Set(v)
	}
}

// #endregion observer
