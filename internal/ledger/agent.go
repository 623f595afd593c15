// Package ledger implements the per-agent bookkeeping contract: cash,
// inventory lots, and the sets of orders an agent currently has resting
// in the book.
package ledger

import (
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/akshitanchan/marketsim/internal/domain"
)

// lot is one (price, volume) slice of an agent's holdings. decimal.Decimal
// is not a safe map key (it wraps a *big.Int, so two decimals with the
// same numeric value are not guaranteed ==); holdings are therefore keyed
// by a canonical rounded string, with the actual Decimal kept alongside.
type lot struct {
	price  decimal.Decimal
	volume int64
}

// Agent is the per-agent ledger: cash, holdings, and the sets of order
// ids currently resting in the book on each side. It never goes
// negative-cash or negative-holdings when driven only through the
// operations below and the matchmaker in internal/matching.
type Agent struct {
	ID          string
	Cash        decimal.Decimal
	History     map[string]*domain.Order
	roundDigits int32

	holdings   map[string]*lot
	activeAsks map[string]struct{}
	activeBids map[string]struct{}
}

// NewAgent constructs an agent with the given starting cash, rounded to
// roundDigits fractional digits.
func NewAgent(id string, startingCash decimal.Decimal, roundDigits int32) *Agent {
	return &Agent{
		ID:          id,
		Cash:        startingCash.RoundBank(roundDigits),
		History:     make(map[string]*domain.Order),
		roundDigits: roundDigits,
		holdings:    make(map[string]*lot),
		activeAsks:  make(map[string]struct{}),
		activeBids:  make(map[string]struct{}),
	}
}

func (a *Agent) priceKey(price decimal.Decimal) string {
	return price.StringFixed(a.roundDigits)
}

// UpdateCash applies delta, rounded half-to-even to the configured
// fractional-digit count, to the agent's cash balance. This is the single
// choke point through which every monetary mutation in the system passes,
// so the rounding rule is applied uniformly.
func (a *Agent) UpdateCash(delta decimal.Decimal) {
	a.Cash = a.Cash.Add(delta.RoundBank(a.roundDigits))
	if a.Cash.IsNegative() {
		log.Error().Str("agent_id", a.ID).Str("cash", a.Cash.String()).
			Msg("ledger: agent cash went negative")
	}
}

// ReserveCashForBid debits price*volume from cash at limit-BID creation
// time and returns the amount debited. The matchmaker never debits this
// agent's cash again while resolving fills against the resulting order.
func (a *Agent) ReserveCashForBid(price decimal.Decimal, volume int64) decimal.Decimal {
	amount := price.Mul(decimal.NewFromInt(volume))
	a.UpdateCash(amount.Neg())
	return amount.RoundBank(a.roundDigits)
}

// UpdateHoldings adds volume to the lot at price, creating the lot if it
// doesn't exist.
func (a *Agent) UpdateHoldings(price decimal.Decimal, volume int64) {
	if volume <= 0 {
		return
	}
	key := a.priceKey(price)
	if existing, ok := a.holdings[key]; ok {
		existing.volume += volume
		return
	}
	a.holdings[key] = &lot{price: price, volume: volume}
}

// RemoveHoldings greedily draws volume starting from the lowest-priced
// lot, mutating holdings and returning the exact (price, taken) pairs
// drawn. This is the inventory reservation backing ASK order
// construction. Requesting more than total_shares returns everything and
// leaves holdings empty, rather than failing.
func (a *Agent) RemoveHoldings(volume int64) []domain.ReservedLot {
	if volume <= 0 || len(a.holdings) == 0 {
		return nil
	}

	keys := make([]string, 0, len(a.holdings))
	for k := range a.holdings {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return a.holdings[keys[i]].price.LessThan(a.holdings[keys[j]].price)
	})

	remaining := volume
	var drawn []domain.ReservedLot
	for _, k := range keys {
		if remaining <= 0 {
			break
		}
		l := a.holdings[k]
		take := l.volume
		if take > remaining {
			take = remaining
		}
		drawn = append(drawn, domain.ReservedLot{Price: l.price, Volume: take})
		remaining -= take
		l.volume -= take
		if l.volume <= 0 {
			delete(a.holdings, k)
		}
	}
	return drawn
}

// GetHighestValueShare returns the highest lot price held, or the zero
// value and false if holdings are empty.
func (a *Agent) GetHighestValueShare() (decimal.Decimal, bool) {
	var best decimal.Decimal
	found := false
	for _, l := range a.holdings {
		if !found || l.price.GreaterThan(best) {
			best = l.price
			found = true
		}
	}
	return best, found
}

// GetLowestValueShare returns the lowest lot price held, or the zero
// value and false if holdings are empty.
func (a *Agent) GetLowestValueShare() (decimal.Decimal, bool) {
	var best decimal.Decimal
	found := false
	for _, l := range a.holdings {
		if !found || l.price.LessThan(best) {
			best = l.price
			found = true
		}
	}
	return best, found
}

// GetTotalShares sums volume across every held lot.
func (a *Agent) GetTotalShares() int64 {
	var total int64
	for _, l := range a.holdings {
		total += l.volume
	}
	return total
}

// HoldingsSnapshot returns a defensive copy of the holdings map keyed by
// price, for tests and training-loop observers.
func (a *Agent) HoldingsSnapshot() map[string]int64 {
	out := make(map[string]int64, len(a.holdings))
	for _, l := range a.holdings {
		out[l.price.StringFixed(a.roundDigits)] = l.volume
	}
	return out
}

func (a *Agent) UpsertActiveAsk(orderID string) { a.activeAsks[orderID] = struct{}{} }
func (a *Agent) RemoveActiveAsk(orderID string) { delete(a.activeAsks, orderID) }
func (a *Agent) UpsertActiveBid(orderID string) { a.activeBids[orderID] = struct{}{} }
func (a *Agent) RemoveActiveBid(orderID string) { delete(a.activeBids, orderID) }

// ActiveAsks returns the live set of resting ASK order ids.
func (a *Agent) ActiveAsks() []string { return setKeys(a.activeAsks) }

// ActiveBids returns the live set of resting BID order ids.
func (a *Agent) ActiveBids() []string { return setKeys(a.activeBids) }

// setKeys returns the set's members sorted ascending. Map iteration order
// is randomized per range, and ActiveAsks/ActiveBids feed a seeded RNG
// index downstream (agent.NoiseAgent.cancel); without a fixed order here
// the same RNG draw would cancel a different order across runs.
func setKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy for training subsystems that snapshot agent
// state without aliasing the live ledger.
func (a *Agent) Clone() *Agent {
	cp := &Agent{
		ID:          a.ID,
		Cash:        a.Cash,
		roundDigits: a.roundDigits,
		History:     make(map[string]*domain.Order, len(a.History)),
		holdings:    make(map[string]*lot, len(a.holdings)),
		activeAsks:  make(map[string]struct{}, len(a.activeAsks)),
		activeBids:  make(map[string]struct{}, len(a.activeBids)),
	}
	for id, o := range a.History {
		cp.History[id] = o.Clone()
	}
	for k, l := range a.holdings {
		cp.holdings[k] = &lot{price: l.price, volume: l.volume}
	}
	for id := range a.activeAsks {
		cp.activeAsks[id] = struct{}{}
	}
	for id := range a.activeBids {
		cp.activeBids[id] = struct{}{}
	}
	return cp
}
