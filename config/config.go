package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rawelabs/rawe/internal/domain"
)

// Config is the complete runtime configuration.
type Config struct {
	Scanner      ScannerConfig           `yaml:"scanner"`
	Consensus    ConsensusConfig         `yaml:"consensus"`
	Positions    PositionsConfig         `yaml:"positions"`
	Bus          BusConfig               `yaml:"bus"`
	Storage      StorageConfig           `yaml:"storage"`
	Log          LogConfig               `yaml:"log"`
	Correlations domain.CorrelationTable `yaml:"correlations"`

	// Signatures maps campaign labels to the signature phrases used to
	// enrich investigation nodes with alignment scores. Phrases are matched
	// case-insensitively against narrative content.
	Signatures map[string][]string `yaml:"signatures"`
}

// ScannerConfig controls the scan cycle.
type ScannerConfig struct {
	IntervalSeconds        int     `yaml:"interval_seconds"`
	AnalyzerTimeoutSeconds int     `yaml:"analyzer_timeout_seconds"`
	AnalyzerRatePerSec     float64 `yaml:"analyzer_rate_per_sec"`
	Workers                int     `yaml:"workers"`
	Seed                   int64   `yaml:"seed"` // simulated feed/analyzer seed, 0 = time-based
}

// ConsensusConfig controls the vote accumulator.
type ConsensusConfig struct {
	Threshold      int    `yaml:"threshold"`
	VoteTTLMinutes int    `yaml:"vote_ttl_minutes"`
	SignalsTopic   string `yaml:"signals_topic"`
	ConsensusTopic string `yaml:"consensus_topic"`
}

// PositionsConfig controls sizing and the monitor lifecycle.
type PositionsConfig struct {
	BaseCapital            float64 `yaml:"base_capital"`
	MonitorIntervalSeconds int     `yaml:"monitor_interval_seconds"`
	TopSignals             int     `yaml:"top_signals"`
}

// BusConfig selects the signal bus transport.
type BusConfig struct {
	Driver  string `yaml:"driver"` // memory | amqp
	AMQPURL string `yaml:"amqp_url"`
}

// StorageConfig controls where the ledger persists.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML file and the .env file if present. Environment
// variables override the YAML for the keys they cover.
func Load(path string) (*Config, error) {
	// Load .env if present; its absence is not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	setDefaults(cfg)
	return cfg
}

// ScanInterval returns the scan cycle period.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// AnalyzerTimeout returns the per-analyzer-call deadline.
func (c *Config) AnalyzerTimeout() time.Duration {
	return time.Duration(c.Scanner.AnalyzerTimeoutSeconds) * time.Second
}

// VoteTTL returns how long an unconfirmed vote survives before eviction.
func (c *Config) VoteTTL() time.Duration {
	return time.Duration(c.Consensus.VoteTTLMinutes) * time.Minute
}

// MonitorInterval returns the position monitor tick period.
func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.Positions.MonitorIntervalSeconds) * time.Second
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("RAWE_BUS_DRIVER"); v != "" {
		cfg.Bus.Driver = v
	}
	if v := os.Getenv("RAWE_AMQP_URL"); v != "" {
		cfg.Bus.AMQPURL = v
	}
	if v := os.Getenv("RAWE_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Scanner.IntervalSeconds <= 0 {
		cfg.Scanner.IntervalSeconds = 30
	}
	if cfg.Scanner.AnalyzerTimeoutSeconds <= 0 {
		cfg.Scanner.AnalyzerTimeoutSeconds = 2
	}
	if cfg.Scanner.AnalyzerRatePerSec <= 0 {
		cfg.Scanner.AnalyzerRatePerSec = 50
	}
	if cfg.Consensus.Threshold <= 0 {
		cfg.Consensus.Threshold = 3
	}
	if cfg.Consensus.VoteTTLMinutes <= 0 {
		cfg.Consensus.VoteTTLMinutes = 30
	}
	if cfg.Consensus.SignalsTopic == "" {
		cfg.Consensus.SignalsTopic = "rawe_signals"
	}
	if cfg.Consensus.ConsensusTopic == "" {
		cfg.Consensus.ConsensusTopic = "rawe_consensus"
	}
	if cfg.Positions.BaseCapital <= 0 {
		cfg.Positions.BaseCapital = 10000
	}
	if cfg.Positions.MonitorIntervalSeconds <= 0 {
		cfg.Positions.MonitorIntervalSeconds = 60
	}
	if cfg.Positions.TopSignals <= 0 {
		cfg.Positions.TopSignals = 5
	}
	if cfg.Bus.Driver == "" {
		cfg.Bus.Driver = "memory"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "rawe.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if len(cfg.Correlations.Rules) == 0 {
		cfg.Correlations = domain.DefaultCorrelationTable()
	}
	if len(cfg.Signatures) == 0 {
		cfg.Signatures = DefaultSignatures()
	}
}

// DefaultSignatures returns the built-in campaign signature sets, matching
// the narrative families the default correlation table tracks.
func DefaultSignatures() map[string][]string {
	return map[string][]string{
		"brics_alignment": {"brics", "de-dollarization", "reserve currency", "gold"},
		"ai_hype":         {"ai", "consciousness", "breakthrough", "compute"},
		"systemic_stress": {"collapse", "contagion", "bank", "liquidity"},
	}
}

func validate(cfg *Config) error {
	switch cfg.Bus.Driver {
	case "memory":
	case "amqp":
		if cfg.Bus.AMQPURL == "" {
			return fmt.Errorf("config: bus driver amqp requires amqp_url (or RAWE_AMQP_URL)")
		}
	default:
		return fmt.Errorf("config: unknown bus driver %q", cfg.Bus.Driver)
	}
	return nil
}
