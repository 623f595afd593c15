// Package report renders a run's per-agent ledger metrics as a Markdown
// summary plus a JSON dump.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/akshitanchan/marketsim/internal/ledger"
	"github.com/akshitanchan/marketsim/internal/scenario"
)

// Report generates run artifacts into a directory.
type Report struct {
	params  scenario.Params
	ticks   int
	metrics map[string]*ledger.RunMetrics
	outDir  string
}

// NewReport creates a report generator over a completed run's metrics.
func NewReport(params scenario.Params, ticks int, metricsMap map[string]*ledger.RunMetrics, outDir string) *Report {
	return &Report{params: params, ticks: ticks, metrics: metricsMap, outDir: outDir}
}

// Generate writes metrics.json, report.md, and plots.txt into outDir.
func (r *Report) Generate() error {
	if err := os.MkdirAll(r.outDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	metricsPath := filepath.Join(r.outDir, "metrics.json")
	data, err := json.MarshalIndent(r.metrics, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	if err := os.WriteFile(metricsPath, data, 0644); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}

	reportPath := filepath.Join(r.outDir, "report.md")
	if err := os.WriteFile(reportPath, []byte(r.renderMarkdown()), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	plotPath := filepath.Join(r.outDir, "plots.txt")
	if err := os.WriteFile(plotPath, []byte(r.renderPlots()), 0644); err != nil {
		return fmt.Errorf("write plots: %w", err)
	}

	return nil
}

func (r *Report) sortedIDs() []string {
	ids := make([]string, 0, len(r.metrics))
	for id := range r.metrics {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Report) renderMarkdown() string {
	var sb strings.Builder

	sb.WriteString("# Market Simulation Report\n\n")
	sb.WriteString(fmt.Sprintf("**Scenario:** %s | **Seed:** %d | **Ticks:** %d | **Agents:** %d\n\n",
		r.params.Name, r.params.Seed, r.ticks, r.params.NumAgents))

	sb.WriteString("## Per-Agent Metrics\n\n")
	sb.WriteString("| Agent | Orders | Limit | Market | Filled | Canceled | Open | Fill Rate |\n")
	sb.WriteString("|-------|--------|-------|--------|--------|----------|------|-----------|\n")
	for _, id := range r.sortedIDs() {
		m := r.metrics[id]
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d | %d | %d | %.2f%% |\n",
			m.AgentID, m.OrdersPlaced, m.LimitOrders, m.MarketOrders,
			m.FilledOrders, m.CanceledOrders, m.OpenOrders, m.FillRate*100))
	}
	sb.WriteString("\n")

	sb.WriteString("## Aggregate Summary\n\n")
	var totalOrders, totalFilled, totalCanceled int
	var totalVolume, totalFilledVolume int64
	for _, m := range r.metrics {
		totalOrders += m.OrdersPlaced
		totalFilled += m.FilledOrders
		totalCanceled += m.CanceledOrders
		totalVolume += m.TotalVolume
		totalFilledVolume += m.FilledVolume
	}
	sb.WriteString(fmt.Sprintf("- Total orders placed: %d\n", totalOrders))
	sb.WriteString(fmt.Sprintf("- Total filled: %d | Total canceled: %d\n", totalFilled, totalCanceled))
	if totalVolume > 0 {
		sb.WriteString(fmt.Sprintf("- Population fill rate: %.2f%%\n", 100*float64(totalFilledVolume)/float64(totalVolume)))
	}

	return sb.String()
}

func (r *Report) renderPlots() string {
	var sb strings.Builder
	sb.WriteString("=== Fill Rate Distribution Across Agents (ASCII Histogram) ===\n\n")

	fillRates := make([]float64, 0, len(r.metrics))
	for _, m := range r.metrics {
		fillRates = append(fillRates, m.FillRate)
	}
	sb.WriteString(asciiHistogram(fillRates, 10))
	return sb.String()
}

// asciiHistogram draws a simple text histogram.
func asciiHistogram(values []float64, bins int) string {
	if len(values) == 0 {
		return "  (no data)\n"
	}

	minV, maxV := values[0], values[0]
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if minV == maxV {
		return fmt.Sprintf("  all values = %.4f\n", minV)
	}

	binWidth := (maxV - minV) / float64(bins)
	counts := make([]int, bins)
	maxCount := 0
	for _, v := range values {
		idx := int((v - minV) / binWidth)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
		if counts[idx] > maxCount {
			maxCount = counts[idx]
		}
	}

	var sb strings.Builder
	barMax := 40
	for i, c := range counts {
		lo := minV + float64(i)*binWidth
		hi := lo + binWidth
		barLen := 0
		if maxCount > 0 {
			barLen = c * barMax / maxCount
		}
		sb.WriteString(fmt.Sprintf("  %6.3f to %6.3f | %s (%d)\n", lo, hi, strings.Repeat("█", barLen), c))
	}
	return sb.String()
}

// PrintSummary writes a brief per-agent table to stdout.
func PrintSummary(metricsMap map[string]*ledger.RunMetrics) {
	ids := make([]string, 0, len(metricsMap))
	for id := range metricsMap {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("  %-16s %10s %10s %12s\n", "Agent", "Orders", "Filled", "Fill Rate")
	fmt.Printf("  %-16s %10s %10s %12s\n", strings.Repeat("-", 16), strings.Repeat("-", 10), strings.Repeat("-", 10), strings.Repeat("-", 12))
	for _, id := range ids {
		m := metricsMap[id]
		fmt.Printf("  %-16s %10d %10d %11.2f%%\n", m.AgentID, m.OrdersPlaced, m.FilledOrders, m.FillRate*100)
	}
}
