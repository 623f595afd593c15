// Package config defines simulator configuration. Config is loaded from
// an optional YAML file with every field overridable via SIM_* env vars,
// with defaults baked in so the simulator runs with zero configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config is the top-level simulator configuration.
type Config struct {
	SymbolID    string  `mapstructure:"symbol_id"`
	RoundDigits int32   `mapstructure:"round_ndigits"`
	MaxIDDigits int     `mapstructure:"max_id_digits"`
	Scenario    string  `mapstructure:"scenario"`
	Seed        int64   `mapstructure:"seed"`
	Ticks       int     `mapstructure:"ticks"`
	SnapshotN   int     `mapstructure:"snapshot_depth"`
	AuditLog    string  `mapstructure:"audit_log_path"`
	Logging     Logging `mapstructure:"logging"`
}

// Logging controls the zerolog sink.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("symbol_id", "COIN")
	v.SetDefault("round_ndigits", 6)
	v.SetDefault("max_id_digits", 12)
	v.SetDefault("scenario", "calm")
	v.SetDefault("seed", 42)
	v.SetDefault("ticks", 1000)
	v.SetDefault("snapshot_depth", 10)
	v.SetDefault("audit_log_path", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads config from an optional YAML file at path (skipped entirely
// if path is empty or the file is absent), then lets SIM_* environment
// variables override any field — e.g. SIM_SEED, SIM_TICKS,
// SIM_LOGGING_LEVEL.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.SymbolID == "" {
		return fmt.Errorf("symbol_id is required")
	}
	if c.RoundDigits < 0 {
		return fmt.Errorf("round_ndigits must be >= 0")
	}
	if c.MaxIDDigits <= 0 {
		return fmt.Errorf("max_id_digits must be > 0")
	}
	if c.Ticks <= 0 {
		return fmt.Errorf("ticks must be > 0")
	}
	switch c.Scenario {
	case "calm", "thin", "spike":
	default:
		return fmt.Errorf("scenario must be one of calm, thin, spike (got %q)", c.Scenario)
	}
	return nil
}

// InitialPrice is the fixed starting price every scenario preset anchors
// to; kept here rather than in internal/scenario so config stays the
// single source of tunable knobs.
var InitialPrice = decimal.NewFromFloat(10.00)
