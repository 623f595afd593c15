// Package matching implements the stateless matchmaker: the only legal
// entry points that walk the opposite side of an orderbook.Book and
// resolve a fresh market or limit order against it under price-time
// priority.
package matching

import (
	"github.com/shopspring/decimal"

	"github.com/akshitanchan/marketsim/internal/domain"
	"github.com/akshitanchan/marketsim/internal/ledger"
	"github.com/akshitanchan/marketsim/internal/orderbook"
)

// book is the subset of *orderbook.Book the matchmaker needs. Kept as an
// interface so tests can exercise the four entry points against a fake.
type book interface {
	PopBestOrder(side domain.Side) (*domain.Order, bool)
	PeekBestOrder(side domain.Side) (*domain.Order, bool)
	AddOrder(order *domain.Order)
	FillOrder(order *domain.Order)
	PartialFillOrder(order *domain.Order, volFilled int64)
	GetAgentByID(id string) (*ledger.Agent, bool)
	SetCurrentPrice(price decimal.Decimal)
}

var _ book = (*orderbook.Book)(nil)

// requeueSkipped re-inserts every self-owned order that was popped aside
// during self-trade prevention.
func requeueSkipped(b book, skipped []*domain.Order) {
	for _, o := range skipped {
		b.AddOrder(o)
	}
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// MatchMarketBid walks the ask side against incoming market BID order,
// acting on behalf of buyer. Terminal status: CLOSED if fully filled,
// CANCELED otherwise (market orders never rest).
func MatchMarketBid(b book, order *domain.Order, buyer *ledger.Agent) {
	var skipped []*domain.Order

	for order.Volume > 0 {
		resting, ok := b.PopBestOrder(domain.Ask)
		if !ok {
			break
		}
		if resting.AgentID == buyer.ID {
			skipped = append(skipped, resting)
			continue
		}

		affordable := minInt64(order.Volume, buyer.Cash.Div(resting.Price).Floor().IntPart())
		if affordable <= 0 {
			b.AddOrder(resting)
			break
		}

		restingAgent, _ := b.GetAgentByID(resting.AgentID)

		if resting.Volume <= affordable {
			proceeds := resting.Price.Mul(decimal.NewFromInt(resting.Volume))
			restingAgent.UpdateCash(proceeds)
			restingAgent.RemoveActiveAsk(resting.ID)

			buyer.UpdateHoldings(resting.Price, resting.Volume)
			buyer.UpdateCash(proceeds.Neg())

			order.Volume -= resting.Volume
			b.FillOrder(resting)
		} else {
			proceeds := resting.Price.Mul(decimal.NewFromInt(affordable))
			restingAgent.UpdateCash(proceeds)

			buyer.UpdateHoldings(resting.Price, affordable)
			buyer.UpdateCash(proceeds.Neg())

			b.PartialFillOrder(resting, affordable)
			order.Volume = 0
		}
		b.SetCurrentPrice(resting.Price)
	}

	requeueSkipped(b, skipped)

	if order.Volume == 0 {
		order.Status = domain.Closed
	} else {
		order.Status = domain.Canceled
	}
	buyer.History[order.ID] = order
}

// MatchLimitBid walks the ask side while the best ask price is at or
// below order's limit price. Cash was reserved at creation time (see
// ledger.Agent.ReserveCashForBid), so fills here never debit the buyer's
// cash again — only transfer the reservation into holdings.
func MatchLimitBid(b book, order *domain.Order, buyer *ledger.Agent) {
	var skipped []*domain.Order

	for order.Volume > 0 {
		top, ok := b.PeekBestOrder(domain.Ask)
		if !ok || top.Price.GreaterThan(order.Price) {
			break
		}

		resting, _ := b.PopBestOrder(domain.Ask)
		if resting.AgentID == buyer.ID {
			skipped = append(skipped, resting)
			continue
		}

		fillQty := minInt64(order.Volume, resting.Volume)
		restingAgent, _ := b.GetAgentByID(resting.AgentID)

		proceeds := resting.Price.Mul(decimal.NewFromInt(fillQty))
		restingAgent.UpdateCash(proceeds)
		buyer.UpdateHoldings(resting.Price, fillQty)

		order.Volume -= fillQty

		if fillQty == resting.Volume {
			restingAgent.RemoveActiveAsk(resting.ID)
			b.FillOrder(resting)
		} else {
			b.PartialFillOrder(resting, fillQty)
		}
		b.SetCurrentPrice(resting.Price)
	}

	requeueSkipped(b, skipped)

	if order.Volume > 0 {
		b.AddOrder(order)
		buyer.UpsertActiveBid(order.ID)
		order.Status = domain.Open
	} else {
		order.Status = domain.Closed
	}
	buyer.History[order.ID] = order
}

// MatchMarketAsk walks the bid side against incoming market ASK order,
// acting on behalf of seller. Seller already withdrew order.Volume worth
// of inventory at construction time (see ledger.Agent.RemoveHoldings);
// any residual at loop exit is returned via Order.GetReturnableShares.
func MatchMarketAsk(b book, order *domain.Order, seller *ledger.Agent) {
	var skipped []*domain.Order

	for order.Volume > 0 {
		resting, ok := b.PopBestOrder(domain.Bid)
		if !ok {
			break
		}
		if resting.AgentID == seller.ID {
			skipped = append(skipped, resting)
			continue
		}

		fillQty := minInt64(order.Volume, resting.Volume)
		restingAgent, _ := b.GetAgentByID(resting.AgentID)

		proceeds := resting.Price.Mul(decimal.NewFromInt(fillQty))
		seller.UpdateCash(proceeds)
		restingAgent.UpdateHoldings(resting.Price, fillQty)

		order.Volume -= fillQty

		if fillQty == resting.Volume {
			restingAgent.RemoveActiveBid(resting.ID)
			b.FillOrder(resting)
		} else {
			b.PartialFillOrder(resting, fillQty)
		}
		b.SetCurrentPrice(resting.Price)
	}

	requeueSkipped(b, skipped)

	if order.Volume > 0 {
		for _, lot := range order.GetReturnableShares() {
			seller.UpdateHoldings(lot.Price, lot.Volume)
		}
		order.Status = domain.Canceled
	} else {
		order.Status = domain.Closed
	}
	seller.History[order.ID] = order
}

// MatchLimitAsk walks the bid side while the best bid price is at or
// above order's limit price. Residual rests in the ask book, still
// backed by its remaining reserved_shares.
func MatchLimitAsk(b book, order *domain.Order, seller *ledger.Agent) {
	var skipped []*domain.Order

	for order.Volume > 0 {
		top, ok := b.PeekBestOrder(domain.Bid)
		if !ok || top.Price.LessThan(order.Price) {
			break
		}

		resting, _ := b.PopBestOrder(domain.Bid)
		if resting.AgentID == seller.ID {
			skipped = append(skipped, resting)
			continue
		}

		fillQty := minInt64(order.Volume, resting.Volume)
		restingAgent, _ := b.GetAgentByID(resting.AgentID)

		proceeds := resting.Price.Mul(decimal.NewFromInt(fillQty))
		seller.UpdateCash(proceeds)
		restingAgent.UpdateHoldings(resting.Price, fillQty)

		order.Volume -= fillQty

		if fillQty == resting.Volume {
			restingAgent.RemoveActiveBid(resting.ID)
			b.FillOrder(resting)
		} else {
			b.PartialFillOrder(resting, fillQty)
		}
		b.SetCurrentPrice(resting.Price)
	}

	requeueSkipped(b, skipped)

	if order.Volume > 0 {
		b.AddOrder(order)
		seller.UpsertActiveAsk(order.ID)
		order.Status = domain.Open
	} else {
		order.Status = domain.Closed
	}
	seller.History[order.ID] = order
}
