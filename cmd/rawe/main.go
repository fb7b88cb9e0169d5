package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rawelabs/rawe/config"
	"github.com/rawelabs/rawe/internal/adapters/bus"
	"github.com/rawelabs/rawe/internal/adapters/notify"
	"github.com/rawelabs/rawe/internal/adapters/sim"
	"github.com/rawelabs/rawe/internal/adapters/storage"
	"github.com/rawelabs/rawe/internal/consensus"
	"github.com/rawelabs/rawe/internal/ports"
	"github.com/rawelabs/rawe/internal/positions"
	"github.com/rawelabs/rawe/internal/scanner"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to config file")
	once := flag.Bool("once", false, "run one scan cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full signal tables (default: compact 1-line)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("rawe starting",
		"config", *configPath,
		"interval", cfg.ScanInterval(),
		"bus", cfg.Bus.Driver,
		"once", *once,
	)

	signalBus, err := openBus(cfg)
	if err != nil {
		slog.Error("failed to open signal bus", "err", err, "driver", cfg.Bus.Driver)
		os.Exit(1)
	}
	defer signalBus.Close()

	store, err := storage.NewSQLiteLedger(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	seed := cfg.Scanner.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	feed := sim.NewNarrativeFeed(seed, sim.DefaultNarratives(time.Now().UTC()))

	scanCfg := scanner.DefaultConfig()
	scanCfg.AnalyzerTimeout = cfg.AnalyzerTimeout()
	scanCfg.AnalyzerRatePerSec = int(cfg.Scanner.AnalyzerRatePerSec)
	scanCfg.Workers = cfg.Scanner.Workers
	scan := scanner.New(scanCfg,
		sim.NewTopology(seed),
		sim.NewFlux(seed),
		sim.NewLiquidity(seed),
		cfg.Correlations,
	)

	manager := positions.New(
		positions.Config{
			BaseCapital:     cfg.Positions.BaseCapital,
			MonitorInterval: cfg.MonitorInterval(),
			TopSignals:      cfg.Positions.TopSignals,
		},
		feed,
		sim.NewArbiter(nil),
		sim.NewExecutor(),
		store,
	)

	engine := consensus.New(consensus.Config{
		Threshold: cfg.Consensus.Threshold,
		VoteTTL:   cfg.VoteTTL(),
	})

	app := newApp(cfg, feed, scan, engine, signalBus, manager, store,
		notify.NewConsole(*table))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		app.RunOnce(ctx)
		return
	}

	if err := app.Run(ctx); err != nil {
		slog.Error("rawe exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("rawe stopped cleanly")
}

// loadConfig reads the config file, falling back to built-in defaults when
// the default path does not exist. An explicit -config path must exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == defaultConfigPath {
		return config.Default(), nil
	}
	return config.Load(path)
}

func openBus(cfg *config.Config) (ports.SignalBus, error) {
	if cfg.Bus.Driver == "amqp" {
		return bus.DialAMQP(cfg.Bus.AMQPURL)
	}
	return bus.NewMemory(), nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
