// Package domain holds the value types shared by every layer of the
// simulator: the order record, its enums, and the read-only snapshot
// shape handed to external observers.
package domain

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Side identifies which book an order belongs to.
type Side int8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "BID"
	}
	return "ASK"
}

// Opposite returns the side an order of this side matches against.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

func (s Side) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Side) UnmarshalJSON(data []byte) error {
	switch string(bytes.Trim(data, `"`)) {
	case "BID":
		*s = Bid
	case "ASK":
		*s = Ask
	default:
		return fmt.Errorf("domain: unknown side %q", data)
	}
	return nil
}

// OrderType distinguishes market orders (immediate, no price limit) from
// limit orders (rest in the book if not fully filled).
type OrderType int8

const (
	Limit OrderType = iota
	Market
)

func (t OrderType) String() string {
	if t == Market {
		return "MARKET"
	}
	return "LIMIT"
}

func (t OrderType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *OrderType) UnmarshalJSON(data []byte) error {
	switch string(bytes.Trim(data, `"`)) {
	case "MARKET":
		*t = Market
	case "LIMIT":
		*t = Limit
	default:
		return fmt.Errorf("domain: unknown order type %q", data)
	}
	return nil
}

// OrderStatus tracks the lifecycle state of an Order. Transitions are
// OPEN->CLOSED or OPEN->CANCELED only; both CLOSED and CANCELED are
// terminal.
type OrderStatus int8

const (
	Open OrderStatus = iota
	Closed
	Canceled
)

func (s OrderStatus) String() string {
	switch s {
	case Open:
		return "OPEN"
	case Closed:
		return "CLOSED"
	default:
		return "CANCELED"
	}
}

func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	switch string(bytes.Trim(data, `"`)) {
	case "OPEN":
		*s = Open
	case "CLOSED":
		*s = Closed
	case "CANCELED":
		*s = Canceled
	default:
		return fmt.Errorf("domain: unknown order status %q", data)
	}
	return nil
}

// MarketPriceSentinel is the placeholder Price carried by a market order
// between construction and its first (and only) pass through the
// matchmaker; market orders never rest so the sentinel is never read as
// a real price.
var MarketPriceSentinel = decimal.NewFromInt(-1)

// ReservedLot is a single (price, volume) slice of inventory withdrawn
// from an agent's holdings to back an ASK order.
type ReservedLot struct {
	Price  decimal.Decimal `json:"price"`
	Volume int64           `json:"volume"`
}

// Order is the immutable-key, mutable-state value object that flows
// between an agent, the book, and the matchmaker. ID, AgentID, Side,
// Type, and EntryVolume never change after construction; Timestamp is
// stamped once by the book on the order's first AddOrder and never
// changes after that; Price, Volume, Status, and ReservedShares are the
// mutable state.
type Order struct {
	ID             string          `json:"id"`
	AgentID        string          `json:"agent_id"`
	Price          decimal.Decimal `json:"price"`
	Volume         int64           `json:"volume"`
	EntryVolume    int64           `json:"entry_volume"`
	Timestamp      int64           `json:"timestamp"`
	Status         OrderStatus     `json:"status"`
	Side           Side            `json:"side"`
	Type           OrderType       `json:"type"`
	ReservedShares []ReservedLot   `json:"reserved_shares,omitempty"`
}

// IsMarket reports whether the order's Type is Market.
func (o *Order) IsMarket() bool {
	return o.Type == Market
}

// Clone returns a deep copy, used by training subsystems that snapshot
// agent/order state without aliasing the live book.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	if o.ReservedShares != nil {
		cp.ReservedShares = make([]ReservedLot, len(o.ReservedShares))
		copy(cp.ReservedShares, o.ReservedShares)
	}
	return &cp
}

// GetReturnableShares sorts ReservedShares by lot price ascending and
// greedily allocates from the cheapest lots until the order's current
// Volume is covered. The agent keeps its most valuable lots; the
// cheapest ones are what comes back to holdings on cancel or residual.
func (o *Order) GetReturnableShares() []ReservedLot {
	remaining := o.Volume
	if remaining <= 0 || len(o.ReservedShares) == 0 {
		return nil
	}

	lots := make([]ReservedLot, len(o.ReservedShares))
	copy(lots, o.ReservedShares)
	for i := 1; i < len(lots); i++ {
		for j := i; j > 0 && lots[j].Price.LessThan(lots[j-1].Price); j-- {
			lots[j], lots[j-1] = lots[j-1], lots[j]
		}
	}

	returned := make([]ReservedLot, 0, len(lots))
	for _, lot := range lots {
		if remaining <= 0 {
			break
		}
		take := lot.Volume
		if take > remaining {
			take = remaining
		}
		returned = append(returned, ReservedLot{Price: lot.Price, Volume: take})
		remaining -= take
	}
	return returned
}

// Trade describes one resolved fill; it is not part of the book's
// authoritative state. The matchmaker does not emit Trade values, and the
// eventlog and report layers do not record or read them.
type Trade struct {
	BuyOrderID  string          `json:"buy_order_id"`
	SellOrderID string          `json:"sell_order_id"`
	BuyAgentID  string          `json:"buy_agent_id"`
	SellAgentID string          `json:"sell_agent_id"`
	Price       decimal.Decimal `json:"price"`
	Volume      int64           `json:"volume"`
	Timestamp   int64           `json:"timestamp"`
}

// PriceLevelView is one aggregated (price, size) row in a Snapshot.
type PriceLevelView struct {
	Price decimal.Decimal `json:"price"`
	Size  int64           `json:"size"`
}

// Snapshot is the read-only, point-in-time view handed to front-ends and
// training observers.
type Snapshot struct {
	SymbolID     string           `json:"symbol_id"`
	TimeExchange float64          `json:"time_exchange"`
	TimeCoinAPI  float64          `json:"time_coinapi"`
	CurrentPrice decimal.Decimal  `json:"current_price"`
	Asks         []PriceLevelView `json:"asks"`
	Bids         []PriceLevelView `json:"bids"`
}
