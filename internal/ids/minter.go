// Package ids mints monotonic, zero-padded identifiers for orders and
// agents.
package ids

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Kind is the identifier class passed to Minter.Next.
type Kind string

const (
	Order Kind = "ORDER"
	Agent Kind = "AGENT"
)

// Minter issues IDs from two independent monotonic counters, one per
// Kind. IDs are stable and never reused within a process lifetime. The
// simulation loop driving this type is single-threaded and cooperative,
// so the counters are not guarded by a mutex.
type Minter struct {
	digits       int
	orderCounter uint64
	agentCounter uint64
}

// NewMinter returns a Minter that zero-pads counter values to digits
// characters (the reference width is 12).
func NewMinter(digits int) *Minter {
	return &Minter{digits: digits}
}

// Next mints the next identifier for kind. An unknown kind returns an
// empty identifier and logs an error; callers must never treat the empty
// string as a valid id.
func (m *Minter) Next(kind Kind) string {
	switch kind {
	case Order:
		m.orderCounter++
		return fmt.Sprintf("O-%0*d", m.digits, m.orderCounter)
	case Agent:
		m.agentCounter++
		return fmt.Sprintf("A-%0*d", m.digits, m.agentCounter)
	default:
		log.Error().Str("kind", string(kind)).Msg("ids: unknown identifier kind")
		return ""
	}
}
