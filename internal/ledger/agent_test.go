package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestUpdateCashRoundsHalfToEven(t *testing.T) {
	a := NewAgent("A-1", dec("100"), 2)
	a.UpdateCash(dec("-0.125"))
	assert.Equal(t, "99.88", a.Cash.StringFixed(2))
}

func TestRemoveHoldingsGreedyLowestFirst(t *testing.T) {
	a := NewAgent("A-1", dec("0"), 6)
	a.UpdateHoldings(dec("1.00"), 25)
	a.UpdateHoldings(dec("1.10"), 10)

	drawn := a.RemoveHoldings(30)
	require.Len(t, drawn, 2)
	assert.True(t, drawn[0].Price.Equal(dec("1.00")))
	assert.Equal(t, int64(25), drawn[0].Volume)
	assert.True(t, drawn[1].Price.Equal(dec("1.10")))
	assert.Equal(t, int64(5), drawn[1].Volume)

	assert.Equal(t, int64(5), a.GetTotalShares())
}

func TestRemoveHoldingsMoreThanAvailableReturnsAll(t *testing.T) {
	a := NewAgent("A-1", dec("0"), 6)
	a.UpdateHoldings(dec("2.00"), 5)

	drawn := a.RemoveHoldings(100)
	require.Len(t, drawn, 1)
	assert.Equal(t, int64(5), drawn[0].Volume)
	assert.Equal(t, int64(0), a.GetTotalShares())
}

func TestRemoveHoldingsOnEmptyHoldingsIsGraceful(t *testing.T) {
	a := NewAgent("A-1", dec("0"), 6)
	drawn := a.RemoveHoldings(10)
	assert.Nil(t, drawn)
	assert.Equal(t, int64(0), a.GetTotalShares())
}

func TestHighestAndLowestValueShare(t *testing.T) {
	a := NewAgent("A-1", dec("0"), 6)
	a.UpdateHoldings(dec("1.00"), 1)
	a.UpdateHoldings(dec("2.00"), 1)
	a.UpdateHoldings(dec("1.50"), 1)

	highest, ok := a.GetHighestValueShare()
	require.True(t, ok)
	assert.True(t, highest.Equal(dec("2.00")))

	lowest, ok := a.GetLowestValueShare()
	require.True(t, ok)
	assert.True(t, lowest.Equal(dec("1.00")))
}

func TestActiveAskBidSets(t *testing.T) {
	a := NewAgent("A-1", dec("0"), 6)
	a.UpsertActiveAsk("O-1")
	a.UpsertActiveBid("O-2")
	assert.ElementsMatch(t, []string{"O-1"}, a.ActiveAsks())
	assert.ElementsMatch(t, []string{"O-2"}, a.ActiveBids())

	a.RemoveActiveAsk("O-1")
	assert.Empty(t, a.ActiveAsks())
}

func TestReserveCashForBidDebitsAtCreation(t *testing.T) {
	a := NewAgent("A-1", dec("100"), 6)
	debited := a.ReserveCashForBid(dec("1.20"), 25)
	assert.True(t, debited.Equal(dec("30")))
	assert.True(t, a.Cash.Equal(dec("70")))
}

func TestCloneIsDeep(t *testing.T) {
	a := NewAgent("A-1", dec("10"), 6)
	a.UpdateHoldings(dec("1.00"), 5)
	a.UpsertActiveBid("O-1")

	cp := a.Clone()
	cp.UpdateHoldings(dec("1.00"), 5)
	cp.RemoveActiveBid("O-1")

	assert.Equal(t, int64(5), a.GetTotalShares())
	assert.Equal(t, int64(10), cp.GetTotalShares())
	assert.ElementsMatch(t, []string{"O-1"}, a.ActiveBids())
	assert.Empty(t, cp.ActiveBids())
}
