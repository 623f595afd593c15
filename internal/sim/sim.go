// Package sim drives the tick loop: each tick, every registered agent
// acts exactly once, in a fixed insertion order, against the shared book.
package sim

import (
	"github.com/rs/zerolog/log"

	"github.com/akshitanchan/marketsim/internal/agent"
	"github.com/akshitanchan/marketsim/internal/eventlog"
	"github.com/akshitanchan/marketsim/internal/orderbook"
)

// Simulation owns the book and the fixed-order agent roster that drives
// it. It is single-threaded and cooperative: Tick runs every agent's
// action to completion before returning.
type Simulation struct {
	Book       *orderbook.Book
	Agents     []agent.Agent
	TicksRun   int64
	SnapshotN  int // depth used for the optional audit snapshot

	log *eventlog.Writer
}

// New constructs a Simulation over book, driving agents in the exact
// order given — insertion order, encoded explicitly as a slice rather
// than relying on map iteration order.
func New(book *orderbook.Book, agents []agent.Agent) *Simulation {
	return &Simulation{Book: book, Agents: agents, SnapshotN: 10}
}

// WithAuditLog attaches an optional JSONL audit trail; every successful
// agent action after this call appends one record. Purely observational — no
// simulation state is ever read back from it.
func (s *Simulation) WithAuditLog(w *eventlog.Writer) *Simulation {
	s.log = w
	return s
}

// Tick invokes every registered agent's Act exactly once, in order. An
// agent that errors (e.g. it was never registered with the book) is
// logged and skipped — a single bad agent must never halt the tick loop.
func (s *Simulation) Tick() {
	s.TicksRun++
	for _, a := range s.Agents {
		if err := a.Act(s.Book); err != nil {
			log.Error().Err(err).Str("agent_id", a.ID()).Msg("sim: agent action failed")
			continue
		}
		if s.log != nil {
			_ = s.log.Write(&eventlog.Record{
				Tick:     s.TicksRun,
				AgentID:  a.ID(),
				Snapshot: s.Book.GetSnapshot(s.SnapshotN),
			})
		}
	}
}

// Run executes the given number of sequential ticks.
func (s *Simulation) Run(ticks int) {
	for i := 0; i < ticks; i++ {
		s.Tick()
	}
}
