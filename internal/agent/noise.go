// Package agent implements the simulator-facing Agent contract and its
// randomized NoiseAgent variant: an order generator that respects
// cash/inventory constraints and perturbs its quotes with a
// beta-distributed sampler to avoid degenerate price clustering.
package agent

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/akshitanchan/marketsim/internal/domain"
	"github.com/akshitanchan/marketsim/internal/ids"
	"github.com/akshitanchan/marketsim/internal/ledger"
	"github.com/akshitanchan/marketsim/internal/matching"
	"github.com/akshitanchan/marketsim/internal/orderbook"
)

// Agent is the simulator-facing hook any trading strategy implements —
// NoiseAgent here, or a genetic-algorithm/reinforcement-learning variant
// dispatched the same way.
type Agent interface {
	ID() string
	Act(book *orderbook.Book) error
}

const (
	priceEpsilon   = 1e-6
	varianceScale  = 0.05
	varianceDecay  = 0.25
	varianceAmp    = 0.10
	varianceFreq   = 2 * math.Pi
)

// NoiseAgent samples an action uniformly from those available each tick
// and constructs the corresponding order, perturbing limit prices with a
// Beta(a=2, b=5) sampler.
type NoiseAgent struct {
	id          string
	rng         *rand.Rand
	beta        distuv.Beta
	roundDigits int32
}

// NewNoiseAgent constructs a NoiseAgent with its own deterministic RNG
// stream, derived from seed, so that a fixed seed and a fixed agent
// enumeration order yield a bit-identical trade sequence.
func NewNoiseAgent(id string, seed int64, roundDigits int32) *NoiseAgent {
	src := rand.NewSource(seed)
	return &NoiseAgent{
		id:          id,
		rng:         rand.New(src),
		beta:        distuv.Beta{Alpha: 2, Beta: 5, Src: src},
		roundDigits: roundDigits,
	}
}

func (n *NoiseAgent) ID() string { return n.id }

// Act samples an available action (HOLD/BID/ASK/CANCEL) uniformly and
// dispatches it. An agent with no valid action holds; that is never an
// error.
func (n *NoiseAgent) Act(book *orderbook.Book) error {
	self, ok := book.GetAgentByID(n.id)
	if !ok {
		return fmt.Errorf("agent: %s not registered with book", n.id)
	}

	currentPrice := book.CurrentPrice()
	actions := []string{"HOLD"}
	if self.Cash.GreaterThanOrEqual(currentPrice) {
		actions = append(actions, "BID")
	}
	if self.GetTotalShares() > 0 {
		actions = append(actions, "ASK")
	}
	if len(self.ActiveBids())+len(self.ActiveAsks()) > 0 {
		actions = append(actions, "CANCEL")
	}

	switch actions[n.rng.Intn(len(actions))] {
	case "BID":
		n.placeBid(book, self, currentPrice)
	case "ASK":
		n.placeAsk(book, self, currentPrice)
	case "CANCEL":
		n.cancel(book, self)
	}
	return nil
}

// uniformVolume samples an integer uniformly from {1, max}. Callers must
// already know max >= 1.
func (n *NoiseAgent) uniformVolume(max int64) int64 {
	if max <= 1 {
		return 1
	}
	return 1 + n.rng.Int63n(max)
}

func (n *NoiseAgent) placeBid(book *orderbook.Book, self *ledger.Agent, currentPrice decimal.Decimal) {
	if n.rng.Intn(2) == 0 {
		maxVolume := self.Cash.Div(currentPrice).Floor().IntPart()
		if maxVolume < 1 {
			return
		}
		volume := n.uniformVolume(maxVolume)
		order := &domain.Order{
			ID: book.GetID(ids.Order), AgentID: self.ID, Price: domain.MarketPriceSentinel,
			Volume: volume, EntryVolume: volume, Status: domain.Open,
			Side: domain.Bid, Type: domain.Market,
		}
		matching.MatchMarketBid(book, order, self)
		return
	}

	price := n.betaPerturb(currentPrice, domain.Bid)
	maxVolume := self.Cash.Div(price).Floor().IntPart()
	if maxVolume < 1 {
		return
	}
	volume := n.uniformVolume(maxVolume)
	self.ReserveCashForBid(price, volume)
	order := &domain.Order{
		ID: book.GetID(ids.Order), AgentID: self.ID, Price: price,
		Volume: volume, EntryVolume: volume, Status: domain.Open,
		Side: domain.Bid, Type: domain.Limit,
	}
	matching.MatchLimitBid(book, order, self)
}

func (n *NoiseAgent) placeAsk(book *orderbook.Book, self *ledger.Agent, currentPrice decimal.Decimal) {
	total := self.GetTotalShares()
	if total < 1 {
		return
	}
	volume := n.uniformVolume(total)
	reserved := self.RemoveHoldings(volume)

	if n.rng.Intn(2) == 0 {
		order := &domain.Order{
			ID: book.GetID(ids.Order), AgentID: self.ID, Price: domain.MarketPriceSentinel,
			Volume: volume, EntryVolume: volume, Status: domain.Open,
			Side: domain.Ask, Type: domain.Market, ReservedShares: reserved,
		}
		matching.MatchMarketAsk(book, order, self)
		return
	}

	price := n.betaPerturb(currentPrice, domain.Ask)
	order := &domain.Order{
		ID: book.GetID(ids.Order), AgentID: self.ID, Price: price,
		Volume: volume, EntryVolume: volume, Status: domain.Open,
		Side: domain.Ask, Type: domain.Limit, ReservedShares: reserved,
	}
	matching.MatchLimitAsk(book, order, self)
}

func (n *NoiseAgent) cancel(book *orderbook.Book, self *ledger.Agent) {
	var sides []domain.Side
	if len(self.ActiveBids()) > 0 {
		sides = append(sides, domain.Bid)
	}
	if len(self.ActiveAsks()) > 0 {
		sides = append(sides, domain.Ask)
	}
	if len(sides) == 0 {
		return
	}

	side := sides[n.rng.Intn(len(sides))]
	var candidates []string
	if side == domain.Bid {
		candidates = self.ActiveBids()
	} else {
		candidates = self.ActiveAsks()
	}
	orderID := candidates[n.rng.Intn(len(candidates))]
	book.CancelOrder(orderID, self)
}

// betaPerturb perturbs a price with a price-dependent variance envelope
// modulated by a Beta(2,5) draw, biased down for BID quotes and up for
// ASK quotes.
func (n *NoiseAgent) betaPerturb(p decimal.Decimal, side domain.Side) decimal.Decimal {
	pf, _ := p.Float64()
	maxVariance := varianceScale * math.Pow(pf, -varianceDecay) *
		(1 + varianceAmp*math.Sin(varianceFreq*math.Log(pf)))

	x := n.beta.Rand()

	var result float64
	if side == domain.Bid {
		result = pf * (1 - x*maxVariance)
		if result < priceEpsilon {
			result = priceEpsilon
		}
	} else {
		result = pf * (1 + x*maxVariance)
	}

	return decimal.NewFromFloat(result).RoundBank(n.roundDigits)
}
