package main

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/akshitanchan/marketsim/internal/config"
	"github.com/akshitanchan/marketsim/internal/eventlog"
	"github.com/akshitanchan/marketsim/internal/ledger"
	"github.com/akshitanchan/marketsim/internal/report"
	"github.com/akshitanchan/marketsim/internal/scenario"
	"github.com/akshitanchan/marketsim/internal/sim"
)

const defaultRunsDir = "runs"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		cmdRun(os.Args[2:])
	case "demo":
		cmdDemo(os.Args[2:])
	case "report":
		cmdReport(os.Args[2:])
	case "replay":
		cmdReplay(os.Args[2:])
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: marketsim <command> [options]

Commands:
  run      Run a simulation scenario
  demo     Run all scenarios and print a summary of each
  report   Print a previously generated report
  replay   Re-run a scenario+seed and verify the audit log hash matches

Run options:
  --scenario <name>   Scenario: calm, thin, spike (default: calm)
  --seed <n>          Random seed (default: 42)
  --ticks <n>         Number of ticks to run (default: 1000)

Report options:
  --last-run          Use the most recent run
  --run-dir <path>    Path to a specific run directory

Replay options:
  --run-dir <path>    Path to a specific run directory (scenario, seed, and
                      tick count are recovered from its directory name and
                      audit log, not a config file)`)
}

func initLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	if cfg.Logging.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func parseFlags(args []string) map[string]string {
	out := make(map[string]string)
	for i := 0; i < len(args); i++ {
		if len(args[i]) > 2 && args[i][:2] == "--" {
			key := args[i][2:]
			if i+1 < len(args) {
				out[key] = args[i+1]
				i++
			}
		}
	}
	return out
}

func runOnce(cfg *config.Config, scenarioName string, seed int64, ticks int, outDir string) (string, map[string]*ledger.RunMetrics, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", nil, fmt.Errorf("create output dir: %w", err)
	}

	params := scenario.GetParams(scenarioName, seed).ApplyConfig(cfg)
	book, agents := scenario.Build(params)

	logPath := filepath.Join(outDir, "audit.jsonl")
	if cfg.AuditLog != "" {
		logPath = cfg.AuditLog
	}
	writer, err := eventlog.NewWriter(logPath)
	if err != nil {
		return "", nil, fmt.Errorf("open audit log: %w", err)
	}

	s := sim.New(book, agents).WithAuditLog(writer)
	if cfg.SnapshotN > 0 {
		s.SnapshotN = cfg.SnapshotN
	}
	s.Run(ticks)
	if err := writer.Close(); err != nil {
		return "", nil, fmt.Errorf("close audit log: %w", err)
	}

	metricsByAgent := make(map[string]*ledger.RunMetrics)
	for id, a := range book.Agents() {
		metricsByAgent[id] = ledger.ComputeMetrics(a)
	}

	r := report.NewReport(params, ticks, metricsByAgent, outDir)
	if err := r.Generate(); err != nil {
		log.Error().Err(err).Msg("marketsim: report generation failed")
	}

	return logPath, metricsByAgent, nil
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h), nil
}

// lastTick returns the highest tick number recorded in the audit log at
// path, i.e. how many ticks the run that produced it actually ran for.
func lastTick(path string) (int64, error) {
	r, err := eventlog.NewReader(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	var last int64
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		last = rec.Tick
	}
	return last, nil
}

func cmdRun(args []string) {
	flags := parseFlags(args)

	cfg, err := config.Load(flags["config"])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	scenarioName := cfg.Scenario
	if v, ok := flags["scenario"]; ok {
		scenarioName = v
		cfg.Scenario = v
	}
	seed := cfg.Seed
	if v, ok := flags["seed"]; ok {
		fmt.Sscanf(v, "%d", &seed)
		cfg.Seed = seed
	}
	ticks := cfg.Ticks
	if v, ok := flags["ticks"]; ok {
		fmt.Sscanf(v, "%d", &ticks)
		cfg.Ticks = ticks
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid config: %v\n", err)
		os.Exit(1)
	}

	initLogging(cfg)

	outDir := filepath.Join(defaultRunsDir, fmt.Sprintf("%s_seed%d", scenarioName, seed))
	fmt.Printf("Running scenario: %s (seed=%d, ticks=%d)\n", scenarioName, seed, ticks)

	logPath, metricsByAgent, err := runOnce(cfg, scenarioName, seed, ticks, outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running simulation: %v\n", err)
		os.Exit(1)
	}

	hashLabel := "unavailable"
	if hash, err := hashFile(logPath); err == nil {
		hashLabel = hash[:16] + "..."
	}
	fmt.Printf("Simulation complete.\n")
	fmt.Printf("  Audit log:  %s\n", logPath)
	fmt.Printf("  Log hash:   %s\n", hashLabel)
	fmt.Printf("  Output:     %s\n", outDir)

	fmt.Println("\nMetrics Summary:")
	report.PrintSummary(metricsByAgent)

	_ = os.WriteFile(filepath.Join(defaultRunsDir, "last-run"), []byte(outDir), 0644)
}

func cmdDemo(args []string) {
	flags := parseFlags(args)

	cfg, err := config.Load(flags["config"])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	initLogging(cfg)

	seed := cfg.Seed
	if v, ok := flags["seed"]; ok {
		fmt.Sscanf(v, "%d", &seed)
	}

	// demo writes one audit log per scenario under its own run directory;
	// a single configured audit_log_path would collide across the three.
	cfg.AuditLog = ""

	for _, name := range []string{"calm", "thin", "spike"} {
		outDir := filepath.Join(defaultRunsDir, fmt.Sprintf("%s_seed%d", name, seed))
		fmt.Printf("Running scenario: %s (seed=%d)...\n", name, seed)
		_, metricsByAgent, err := runOnce(cfg, name, seed, 1000, outDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running %s: %v\n", name, err)
			continue
		}
		report.PrintSummary(metricsByAgent)
		fmt.Println()
	}
}

func cmdReport(args []string) {
	flags := parseFlags(args)
	runDir := flags["run-dir"]

	if _, lastRun := flags["last-run"]; lastRun || runDir == "" {
		data, err := os.ReadFile(filepath.Join(defaultRunsDir, "last-run"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error: no last run found. Run a simulation first.")
			os.Exit(1)
		}
		runDir = string(data)
	}

	data, err := os.ReadFile(filepath.Join(runDir, "report.md"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading report: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))

	if plotData, err := os.ReadFile(filepath.Join(runDir, "plots.txt")); err == nil {
		fmt.Println(string(plotData))
	}
}

func cmdReplay(args []string) {
	flags := parseFlags(args)
	runDir := flags["run-dir"]
	if runDir == "" {
		fmt.Fprintln(os.Stderr, "Error: --run-dir required")
		os.Exit(1)
	}

	cfg, err := config.Load(flags["config"])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	initLogging(cfg)
	// replay always writes into a fresh temp dir, so any configured
	// audit_log_path would make the original and replay logs the same
	// file; always use the default per-run path instead.
	cfg.AuditLog = ""

	origLogPath := filepath.Join(runDir, "audit.jsonl")
	targetHash, err := hashFile(origLogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not hash original audit log: %v\n", err)
		os.Exit(1)
	}

	ticks, err := lastTick(origLogPath)
	if err != nil || ticks <= 0 {
		fmt.Fprintf(os.Stderr, "Error: could not determine tick count from %q: %v\n", origLogPath, err)
		os.Exit(1)
	}

	base := filepath.Base(runDir)
	var scenarioName string
	var seed int64
	if _, err := fmt.Sscanf(base, "%[^_]_seed%d", &scenarioName, &seed); err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not parse scenario/seed from %q: %v\n", base, err)
		os.Exit(1)
	}

	tmpDir, err := os.MkdirTemp("", "marketsim-replay-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(tmpDir)

	replayLogPath, _, err := runOnce(cfg, scenarioName, seed, int(ticks), tmpDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running deterministic replay: %v\n", err)
		os.Exit(1)
	}

	replayHash, err := hashFile(replayLogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not hash replay audit log: %v\n", err)
		os.Exit(1)
	}

	if targetHash == replayHash {
		fmt.Printf("Audit log hash matches deterministic replay: %s...\n", targetHash[:16])
	} else {
		fmt.Printf("Audit log hash MISMATCH!\nOriginal: %s...\nReplay:   %s...\n", targetHash[:16], replayHash[:16])
		os.Exit(1)
	}
}
