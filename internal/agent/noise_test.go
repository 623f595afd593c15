package agent

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshitanchan/marketsim/internal/domain"
	"github.com/akshitanchan/marketsim/internal/ids"
	"github.com/akshitanchan/marketsim/internal/ledger"
	"github.com/akshitanchan/marketsim/internal/orderbook"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestActOnUnregisteredAgentErrors(t *testing.T) {
	book := orderbook.New("COIN", dec("1.00"), 6, 12)
	na := NewNoiseAgent("A-GHOST", 1, 6)
	err := na.Act(book)
	assert.Error(t, err)
}

func TestActWithNoCashOrSharesOnlyHolds(t *testing.T) {
	book := orderbook.New("COIN", dec("1.00"), 6, 12)
	self := ledger.NewAgent("A-1", dec("0"), 6)
	book.UpsertAgent(self)

	na := NewNoiseAgent("A-1", 7, 6)
	for i := 0; i < 20; i++ {
		require.NoError(t, na.Act(book))
	}
	assert.True(t, self.Cash.IsZero())
	assert.Equal(t, int64(0), self.GetTotalShares())
}

func TestActDeterministicGivenSeed(t *testing.T) {
	run := func(seed int64) (decimal.Decimal, int64) {
		book := orderbook.New("COIN", dec("10.00"), 6, 12)
		self := ledger.NewAgent("A-1", dec("1000"), 6)
		book.UpsertAgent(self)
		counter := ledger.NewAgent("A-2", dec("1000"), 6)
		counter.UpdateHoldings(dec("10.00"), 1000)
		book.UpsertAgent(counter)
		counterOrder := &domain.Order{
			ID: book.GetID(ids.Order), AgentID: "A-2", Price: dec("9.50"), Volume: 500,
			EntryVolume: 500, Status: domain.Open, Side: domain.Ask, Type: domain.Limit,
			ReservedShares: []domain.ReservedLot{{Price: dec("10.00"), Volume: 500}},
		}
		book.AddOrder(counterOrder)

		na := NewNoiseAgent("A-1", seed, 6)
		for i := 0; i < 10; i++ {
			_ = na.Act(book)
		}
		return self.Cash, self.GetTotalShares()
	}

	cash1, shares1 := run(42)
	cash2, shares2 := run(42)
	assert.True(t, cash1.Equal(cash2))
	assert.Equal(t, shares1, shares2)
}
