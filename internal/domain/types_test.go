package domain

import (
	"encoding/json"
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

func TestSideMarshalRoundTrip(t *testing.T) {
	for _, s := range []Side{Bid, Ask} {
		data, err := json.Marshal(s)
		require.NoError(t, err)
		var out Side
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, s, out)
	}
}

func TestSideOpposite(t *testing.T) {
	assert.Equal(t, Ask, Bid.Opposite())
	assert.Equal(t, Bid, Ask.Opposite())
}

func TestOrderStatusUnmarshalUnknownErrors(t *testing.T) {
	var s OrderStatus
	err := json.Unmarshal([]byte(`"FROZEN"`), &s)
	assert.Error(t, err)
}

func TestGetReturnableSharesSortsAscendingAndGreedilyAllocates(t *testing.T) {
	o := &Order{
		Volume: 12,
		ReservedShares: []ReservedLot{
			{Price: dec("1.20"), Volume: 10},
			{Price: dec("1.00"), Volume: 5},
			{Price: dec("1.10"), Volume: 10},
		},
	}
	got := o.GetReturnableShares()
	require.Len(t, got, 2)
	assert.True(t, got[0].Price.Equal(dec("1.00")))
	assert.Equal(t, int64(5), got[0].Volume)
	assert.True(t, got[1].Price.Equal(dec("1.10")))
	assert.Equal(t, int64(7), got[1].Volume)
}

func TestGetReturnableSharesZeroVolumeReturnsNil(t *testing.T) {
	o := &Order{Volume: 0, ReservedShares: []ReservedLot{{Price: dec("1.00"), Volume: 5}}}
	assert.Nil(t, o.GetReturnableShares())
}

func TestOrderCloneIsDeep(t *testing.T) {
	o := &Order{ID: "O-1", ReservedShares: []ReservedLot{{Price: dec("1.00"), Volume: 5}}}
	cp := o.Clone()
	cp.ReservedShares[0].Volume = 99
	assert.Equal(t, int64(5), o.ReservedShares[0].Volume)
	assert.Equal(t, int64(99), cp.ReservedShares[0].Volume)
}
