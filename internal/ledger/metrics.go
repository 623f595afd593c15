package ledger

import "github.com/akshitanchan/marketsim/internal/domain"

// RunMetrics is a simple per-agent summary of a completed simulation run,
// computed on demand from an agent's History rather than accumulated
// incrementally.
type RunMetrics struct {
	AgentID        string
	OrdersPlaced   int
	LimitOrders    int
	MarketOrders   int
	FilledOrders   int
	CanceledOrders int
	OpenOrders     int
	TotalVolume    int64
	FilledVolume   int64
	FillRate       float64
}

// ComputeMetrics walks an agent's order history and derives a RunMetrics
// snapshot. It never mutates the agent.
func ComputeMetrics(a *Agent) *RunMetrics {
	m := &RunMetrics{AgentID: a.ID}

	for _, o := range a.History {
		m.OrdersPlaced++
		m.TotalVolume += o.EntryVolume

		if o.Type == domain.Market {
			m.MarketOrders++
		} else {
			m.LimitOrders++
		}

		switch o.Status {
		case domain.Closed:
			m.FilledOrders++
			m.FilledVolume += o.EntryVolume - o.Volume
		case domain.Canceled:
			m.CanceledOrders++
			m.FilledVolume += o.EntryVolume - o.Volume
		case domain.Open:
			m.OpenOrders++
			m.FilledVolume += o.EntryVolume - o.Volume
		}
	}

	if m.TotalVolume > 0 {
		m.FillRate = float64(m.FilledVolume) / float64(m.TotalVolume)
	}
	return m
}
