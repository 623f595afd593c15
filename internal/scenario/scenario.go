// Package scenario builds a populated Book + NoiseAgent roster for a
// named preset (calm/thin/spike), each tuning population size and
// starting endowments to provoke a different liquidity regime.
package scenario

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/akshitanchan/marketsim/internal/agent"
	"github.com/akshitanchan/marketsim/internal/config"
	"github.com/akshitanchan/marketsim/internal/ids"
	"github.com/akshitanchan/marketsim/internal/ledger"
	"github.com/akshitanchan/marketsim/internal/orderbook"
)

// Params configures one simulation population.
type Params struct {
	Name           string
	Seed           int64
	SymbolID       string
	InitialPrice   decimal.Decimal
	RoundDigits    int32
	MaxIDDigits    int
	NumAgents      int
	StartingCash   decimal.Decimal
	StartingShares int64
}

// DefaultCalm is a modestly sized, evenly endowed population: plenty of
// cash and shares per agent, producing a liquid book with frequent
// two-sided quoting.
func DefaultCalm(seed int64) Params {
	return Params{
		Name: "calm", Seed: seed, SymbolID: "COIN",
		InitialPrice: config.InitialPrice, RoundDigits: 6, MaxIDDigits: 12,
		NumAgents: 50, StartingCash: decimal.NewFromFloat(10_000), StartingShares: 500,
	}
}

// DefaultThin has fewer, sparsely endowed agents — a thinner book with
// wider effective spreads and more frequent CANCELED residuals.
func DefaultThin(seed int64) Params {
	return Params{
		Name: "thin", Seed: seed, SymbolID: "COIN",
		InitialPrice: config.InitialPrice, RoundDigits: 6, MaxIDDigits: 12,
		NumAgents: 12, StartingCash: decimal.NewFromFloat(1_000), StartingShares: 50,
	}
}

// DefaultSpike gives every agent the same large cash and share endowment
// to provoke larger fills; endowments are not split between cash-rich and
// share-rich agents.
func DefaultSpike(seed int64) Params {
	return Params{
		Name: "spike", Seed: seed, SymbolID: "COIN",
		InitialPrice: config.InitialPrice, RoundDigits: 6, MaxIDDigits: 12,
		NumAgents: 30, StartingCash: decimal.NewFromFloat(50_000), StartingShares: 2_000,
	}
}

// GetParams dispatches on a scenario name, defaulting to DefaultCalm for
// an unrecognized name.
func GetParams(name string, seed int64) Params {
	switch name {
	case "thin":
		return DefaultThin(seed)
	case "spike":
		return DefaultSpike(seed)
	default:
		return DefaultCalm(seed)
	}
}

// ApplyConfig overrides the preset's SymbolID, RoundDigits, and
// MaxIDDigits with cfg's values, so SIM_SYMBOL_ID / SIM_ROUND_NDIGITS /
// SIM_MAX_ID_DIGITS actually reach book construction instead of binding
// only to the hardcoded preset values.
func (p Params) ApplyConfig(cfg *config.Config) Params {
	p.SymbolID = cfg.SymbolID
	p.RoundDigits = cfg.RoundDigits
	p.MaxIDDigits = cfg.MaxIDDigits
	return p
}

// Build constructs a fresh Book and a fixed-order slice of NoiseAgent
// roster members per p. Agent enumeration order is the construction
// order (A-000000000001, A-000000000002, ...), so a fixed seed always
// drives the same agents in the same order.
func Build(p Params) (*orderbook.Book, []agent.Agent) {
	book := orderbook.New(p.SymbolID, p.InitialPrice, p.RoundDigits, p.MaxIDDigits)

	roster := make([]agent.Agent, 0, p.NumAgents)
	for i := 0; i < p.NumAgents; i++ {
		agentID := book.GetID(ids.Agent)
		ledgerAgent := ledger.NewAgent(agentID, p.StartingCash, p.RoundDigits)
		ledgerAgent.UpdateHoldings(p.InitialPrice, p.StartingShares)
		book.UpsertAgent(ledgerAgent)

		seed := p.Seed + int64(i) + 1
		roster = append(roster, agent.NewNoiseAgent(agentID, seed, p.RoundDigits))
	}

	return book, roster
}

func (p Params) String() string {
	return fmt.Sprintf("%s(seed=%d,agents=%d)", p.Name, p.Seed, p.NumAgents)
}
