package eventlog

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshitanchan/marketsim/internal/domain"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	w, err := NewWriter(path)
	require.NoError(t, err)

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, w.Write(&Record{
			Tick:    i,
			AgentID: "A-1",
			Snapshot: domain.Snapshot{
				SymbolID:     "COIN",
				CurrentPrice: decimal.RequireFromString("10.00"),
			},
		}))
	}
	require.NoError(t, w.Close())
	assert.Equal(t, uint64(3), w.Count())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, int64(1), records[0].Tick)
	assert.Equal(t, int64(3), records[2].Tick)
}

func TestReaderNextReturnsEOFAtEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}
