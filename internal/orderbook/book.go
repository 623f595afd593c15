// Package orderbook implements the single-instrument limit order book:
// two indexed priority structures keyed by (price, time), the
// authoritative order and agent registries, and the last-trade price.
package orderbook

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"github.com/akshitanchan/marketsim/internal/domain"
	"github.com/akshitanchan/marketsim/internal/ids"
	"github.com/akshitanchan/marketsim/internal/ledger"
)

// level holds every resting order at a single price, kept sorted
// ascending by Timestamp (FIFO for price-time priority).
type level struct {
	price  decimal.Decimal
	orders []*domain.Order
}

func (lv *level) totalVolume() int64 {
	var total int64
	for _, o := range lv.orders {
		total += o.Volume
	}
	return total
}

// restingLoc is the secondary index entry that lets CancelOrder and
// AddOrder find an order's level in O(log n) instead of scanning both
// trees.
type restingLoc struct {
	side  domain.Side
	price decimal.Decimal
}

// BestEntry is the tuple shape returned by GetBest/PeekBest.
type BestEntry struct {
	Price     decimal.Decimal
	Timestamp int64
	Volume    int64
	ID        string
}

// Book is a single-instrument limit order book. It exclusively owns the
// two priority structures and order_history; agents are referenced by id
// and outlive any one order.
type Book struct {
	symbolID    string
	roundDigits int32

	currentPrice decimal.Decimal
	tick         int64

	bids *btree.BTreeG[*level] // highest price first
	asks *btree.BTreeG[*level] // lowest price first

	resting      map[string]restingLoc
	orderHistory map[string]*domain.Order
	agents       map[string]*ledger.Agent

	minter *ids.Minter
}

// New constructs an empty book seeded with initialPrice as current_price.
func New(symbolID string, initialPrice decimal.Decimal, roundDigits int32, maxIDDigits int) *Book {
	b := &Book{
		symbolID:    symbolID,
		roundDigits: roundDigits,
		minter:      ids.NewMinter(maxIDDigits),
	}
	b.initStructures(initialPrice)
	b.agents = make(map[string]*ledger.Agent)
	return b
}

func (b *Book) initStructures(initialPrice decimal.Decimal) {
	b.currentPrice = initialPrice
	b.tick = 0
	b.bids = btree.NewBTreeG(func(a, c *level) bool { return a.price.GreaterThan(c.price) })
	b.asks = btree.NewBTreeG(func(a, c *level) bool { return a.price.LessThan(c.price) })
	b.resting = make(map[string]restingLoc)
	b.orderHistory = make(map[string]*domain.Order)
}

// Reset reverts the book to a clean state at initialPrice without
// reallocating the agent registry unless resetAgents is set.
func (b *Book) Reset(initialPrice decimal.Decimal, resetAgents bool) {
	b.initStructures(initialPrice)
	if resetAgents {
		b.agents = make(map[string]*ledger.Agent)
	}
}

// GetID mints a unique id of the given kind.
func (b *Book) GetID(kind ids.Kind) string {
	return b.minter.Next(kind)
}

// UpsertAgent registers or replaces an agent in the book's registry.
func (b *Book) UpsertAgent(a *ledger.Agent) {
	b.agents[a.ID] = a
}

// GetAgentByID looks up a registered agent.
func (b *Book) GetAgentByID(id string) (*ledger.Agent, bool) {
	a, ok := b.agents[id]
	return a, ok
}

// Agents returns every registered agent keyed by id. Map iteration order
// is not the order agents were added in; callers that need stable order
// (the simulation loop) keep their own slice rather than relying on this.
func (b *Book) Agents() map[string]*ledger.Agent {
	return b.agents
}

func (b *Book) treeFor(side domain.Side) *btree.BTreeG[*level] {
	if side == domain.Bid {
		return b.bids
	}
	return b.asks
}

func (b *Book) getOrCreateLevel(side domain.Side, price decimal.Decimal) *level {
	tree := b.treeFor(side)
	probe := &level{price: price}
	if existing, ok := tree.Get(probe); ok {
		return existing
	}
	tree.Set(probe)
	return probe
}

func insertSorted(lv *level, order *domain.Order) {
	idx := sort.Search(len(lv.orders), func(i int) bool {
		return lv.orders[i].Timestamp >= order.Timestamp
	})
	lv.orders = append(lv.orders, nil)
	copy(lv.orders[idx+1:], lv.orders[idx:])
	lv.orders[idx] = order
}

func removeFromLevelSlice(lv *level, orderID string) {
	for i, o := range lv.orders {
		if o.ID == orderID {
			lv.orders = append(lv.orders[:i], lv.orders[i+1:]...)
			return
		}
	}
}

// removeFromSide removes orderID from its resting location, deleting the
// level if it becomes empty. Absent ids are a no-op.
func (b *Book) removeFromSide(side domain.Side, price decimal.Decimal, orderID string) {
	tree := b.treeFor(side)
	probe := &level{price: price}
	lv, ok := tree.Get(probe)
	if !ok {
		return
	}
	removeFromLevelSlice(lv, orderID)
	if len(lv.orders) == 0 {
		tree.Delete(probe)
	}
	delete(b.resting, orderID)
}

// AddOrder inserts order into order_history and its side's priority
// structure, keyed by (price, timestamp). Re-adding an id already
// present overwrites the queue entry — used by PartialFillOrder to
// re-queue a residual while preserving its original timestamp (a
// Timestamp of 0 means "unassigned"; the book stamps it once, here,
// and never again).
func (b *Book) AddOrder(order *domain.Order) {
	if loc, ok := b.resting[order.ID]; ok {
		b.removeFromSide(loc.side, loc.price, order.ID)
	}

	if order.Timestamp == 0 {
		b.tick++
		order.Timestamp = b.tick
	}

	b.orderHistory[order.ID] = order

	if order.Volume <= 0 {
		return
	}

	lv := b.getOrCreateLevel(order.Side, order.Price)
	insertSorted(lv, order)
	b.resting[order.ID] = restingLoc{side: order.Side, price: order.Price}
}

// CancelOrder transitions order_id to CANCELED, removes it from its
// priority structure (best-effort; absent is a no-op), and returns its
// reserved assets to agent. Cancelling an already-terminal order is a
// silent no-op; cancelling an unknown order logs a warning and otherwise
// does nothing.
func (b *Book) CancelOrder(orderID string, agent *ledger.Agent) {
	order, ok := b.orderHistory[orderID]
	if !ok {
		log.Warn().Str("order_id", orderID).Msg("orderbook: cancel of unknown order")
		return
	}
	if order.Status != domain.Open {
		return
	}

	if loc, ok := b.resting[orderID]; ok {
		b.removeFromSide(loc.side, loc.price, orderID)
	}
	order.Status = domain.Canceled
	b.ReturnAssets(order, agent)
}

// ReturnAssets credits order's reserved assets back to agent, symmetric
// with the reservation made at order creation time.
func (b *Book) ReturnAssets(order *domain.Order, agent *ledger.Agent) {
	switch order.Side {
	case domain.Bid:
		amount := order.Price.Mul(decimal.NewFromInt(order.Volume))
		agent.UpdateCash(amount)
		agent.RemoveActiveBid(order.ID)
	case domain.Ask:
		for _, lot := range order.GetReturnableShares() {
			agent.UpdateHoldings(lot.Price, lot.Volume)
		}
		agent.RemoveActiveAsk(order.ID)
	}
}

// FillOrder marks order CLOSED with zero remaining volume. The queue
// entry is assumed already popped by the matcher.
func (b *Book) FillOrder(order *domain.Order) {
	order.Status = domain.Closed
	order.Volume = 0
}

// PartialFillOrder decrements order.Volume by volFilled and re-queues it
// via AddOrder, which preserves the existing Timestamp.
func (b *Book) PartialFillOrder(order *domain.Order, volFilled int64) {
	order.Volume -= volFilled
	b.AddOrder(order)
}

// PopBestOrder removes and returns the highest-priority resting order on
// side. This is the destructive primitive the matchmaker drives; GetBest
// is its tuple-returning, spec-facing wrapper.
func (b *Book) PopBestOrder(side domain.Side) (*domain.Order, bool) {
	tree := b.treeFor(side)
	lv, ok := tree.Min()
	if !ok || len(lv.orders) == 0 {
		return nil, false
	}
	order := lv.orders[0]
	lv.orders = lv.orders[1:]
	if len(lv.orders) == 0 {
		tree.Delete(lv)
	}
	delete(b.resting, order.ID)
	return order, true
}

// PeekBestOrder returns the highest-priority resting order on side
// without removing it.
func (b *Book) PeekBestOrder(side domain.Side) (*domain.Order, bool) {
	tree := b.treeFor(side)
	lv, ok := tree.Min()
	if !ok || len(lv.orders) == 0 {
		return nil, false
	}
	return lv.orders[0], true
}

// GetBest pops and returns the highest-priority entry on side as a tuple.
// An empty side returns an empty sentinel, never an error.
func (b *Book) GetBest(side domain.Side) (BestEntry, bool) {
	order, ok := b.PopBestOrder(side)
	if !ok {
		return BestEntry{}, false
	}
	return BestEntry{Price: order.Price, Timestamp: order.Timestamp, Volume: order.Volume, ID: order.ID}, true
}

// PeekBest returns up to n best entries on side, in priority order,
// without mutating the book. An empty side (or n <= 0) returns nil.
func (b *Book) PeekBest(side domain.Side, n int) []BestEntry {
	if n <= 0 {
		return nil
	}
	tree := b.treeFor(side)
	out := make([]BestEntry, 0, n)
	tree.Scan(func(lv *level) bool {
		for _, o := range lv.orders {
			out = append(out, BestEntry{Price: o.Price, Timestamp: o.Timestamp, Volume: o.Volume, ID: o.ID})
			if len(out) >= n {
				return false
			}
		}
		return true
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

// SetCurrentPrice publishes the last-trade price. Called by
// internal/matching exactly once per fill event.
func (b *Book) SetCurrentPrice(price decimal.Decimal) {
	b.currentPrice = price
}

// CurrentPrice returns the last-trade price (or the initial price, if no
// trade has occurred yet).
func (b *Book) CurrentPrice() decimal.Decimal {
	return b.currentPrice
}

func levelsView(tree *btree.BTreeG[*level], depth int) []domain.PriceLevelView {
	if depth <= 0 {
		return nil
	}
	out := make([]domain.PriceLevelView, 0, depth)
	tree.Scan(func(lv *level) bool {
		out = append(out, domain.PriceLevelView{Price: lv.price, Size: lv.totalVolume()})
		return len(out) < depth
	})
	return out
}

// GetSnapshot returns a read-only, top-`depth` aggregation of both sides
// plus current_price. Asks ascend by price; bids descend by price.
func (b *Book) GetSnapshot(depth int) domain.Snapshot {
	return domain.Snapshot{
		SymbolID:     b.symbolID,
		TimeExchange: float64(b.tick),
		TimeCoinAPI:  float64(b.tick),
		CurrentPrice: b.currentPrice,
		Asks:         levelsView(b.asks, depth),
		Bids:         levelsView(b.bids, depth),
	}
}

// AssertInvariants checks the book's structural invariants and panics on
// violation; it exists for tests and debug builds, not production error
// handling, which must never panic on bad external input.
func (b *Book) AssertInvariants() {
	checkSide := func(tree *btree.BTreeG[*level], name string) int {
		count := 0
		var prevPrice decimal.Decimal
		havePrev := false
		tree.Scan(func(lv *level) bool {
			if len(lv.orders) == 0 {
				panic(fmt.Sprintf("orderbook: empty %s level at price %s", name, lv.price))
			}
			for i, o := range lv.orders {
				if o.Volume <= 0 {
					panic(fmt.Sprintf("orderbook: non-positive volume resting order %s on %s", o.ID, name))
				}
				if i > 0 && lv.orders[i-1].Timestamp > o.Timestamp {
					panic(fmt.Sprintf("orderbook: %s level at %s not FIFO-ordered", name, lv.price))
				}
				count++
			}
			if havePrev {
				if name == "bid" && lv.price.GreaterThan(prevPrice) {
					panic("orderbook: bid levels not sorted descending")
				}
				if name == "ask" && lv.price.LessThan(prevPrice) {
					panic("orderbook: ask levels not sorted ascending")
				}
			}
			prevPrice = lv.price
			havePrev = true
			return true
		})
		return count
	}

	bidCount := checkSide(b.bids, "bid")
	askCount := checkSide(b.asks, "ask")

	if bestBid, ok := b.PeekBestOrder(domain.Bid); ok {
		if bestAsk, ok2 := b.PeekBestOrder(domain.Ask); ok2 {
			if bestBid.Price.GreaterThanOrEqual(bestAsk.Price) {
				panic(fmt.Sprintf("orderbook: crossed book, best bid %s >= best ask %s",
					bestBid.Price, bestAsk.Price))
			}
		}
	}

	if bidCount+askCount != len(b.resting) {
		panic(fmt.Sprintf("orderbook: resting index size %d != book order count %d",
			len(b.resting), bidCount+askCount))
	}
}
