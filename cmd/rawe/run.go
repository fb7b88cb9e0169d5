package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/rawelabs/rawe/config"
	"github.com/rawelabs/rawe/internal/adapters/sim"
	"github.com/rawelabs/rawe/internal/consensus"
	"github.com/rawelabs/rawe/internal/domain"
	"github.com/rawelabs/rawe/internal/graph"
	"github.com/rawelabs/rawe/internal/ports"
	"github.com/rawelabs/rawe/internal/positions"
	"github.com/rawelabs/rawe/internal/scanner"
)

// patternEvery is how many scan cycles pass between pattern analyses of the
// investigation graph.
const patternEvery = 10

// temporalWindowDays is the cluster window used by the periodic analysis.
const temporalWindowDays = 30

// app wires the scan cycle, the consensus listener, the position monitor,
// and the investigation graph into one process.
type app struct {
	cfg      *config.Config
	feed     *sim.NarrativeFeed
	scan     *scanner.Scanner
	engine   *consensus.Engine
	bus      ports.SignalBus
	manager  *positions.Manager
	store    ports.LedgerStorage
	notifier ports.Notifier

	investigation *graph.Graph
	signatures    graph.SignatureSet

	// latest caches the most recent signal per subject key so a consensus
	// event can recover the full scored signal from its key.
	mu     sync.Mutex
	latest map[string]domain.ArbitrageSignal

	cycles int
}

func newApp(
	cfg *config.Config,
	feed *sim.NarrativeFeed,
	scan *scanner.Scanner,
	engine *consensus.Engine,
	signalBus ports.SignalBus,
	manager *positions.Manager,
	store ports.LedgerStorage,
	notifier ports.Notifier,
) *app {
	return &app{
		cfg:           cfg,
		feed:          feed,
		scan:          scan,
		engine:        engine,
		bus:           signalBus,
		manager:       manager,
		store:         store,
		notifier:      notifier,
		investigation: graph.New(),
		signatures:    graph.SignatureSet(cfg.Signatures),
		latest:        make(map[string]domain.ArbitrageSignal),
	}
}

// Run drives the system until the context is cancelled: the consensus
// listener and position monitor run in their own goroutines while the main
// loop scans on the configured interval.
func (a *app) Run(ctx context.Context) error {
	listener := consensus.NewListener(a.engine, a.bus,
		a.cfg.Consensus.SignalsTopic, a.cfg.Consensus.ConsensusTopic)
	listener.OnEvent = a.onConsensus

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := listener.Run(ctx); err != nil {
			slog.Error("consensus listener failed", "err", err)
		}
	}()
	go func() {
		defer wg.Done()
		a.manager.MonitorLoop(ctx)
	}()

	ticker := time.NewTicker(a.cfg.ScanInterval())
	defer ticker.Stop()

	a.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			a.finalReport(context.Background())
			return nil
		case <-ticker.C:
			a.cycle(ctx)
		}
	}
}

// RunOnce performs a single scan cycle and executes the top signals
// directly, bypassing consensus. Useful for smoke runs.
func (a *app) RunOnce(ctx context.Context) {
	signals := a.scanCycle(ctx)
	opened := a.manager.ExecuteTop(ctx, signals)
	slog.Info("single cycle complete", "signals", len(signals), "opened", opened)
	a.finalReport(ctx)
}

// cycle runs one full scan: advance the simulated feed, score, notify,
// persist, feed the investigation graph, and broadcast each signal as a
// consensus vote.
func (a *app) cycle(ctx context.Context) {
	signals := a.scanCycle(ctx)

	for _, sig := range signals {
		body, _ := json.Marshal(domain.SignalMessage{
			NarrativeID:    sig.NarrativeID,
			FinancialAsset: sig.FinancialAsset,
			SignalType:     sig.Type,
		})
		if err := a.bus.Publish(ctx, a.cfg.Consensus.SignalsTopic, body); err != nil {
			slog.Warn("failed to publish signal vote", "subject_key", sig.SubjectKey(), "err", err)
		}
	}

	a.cycles++
	if a.cycles%patternEvery == 0 {
		a.analyzeInvestigation()
	}
}

// scanCycle produces the ranked signals for one tick and records them.
func (a *app) scanCycle(ctx context.Context) []domain.ArbitrageSignal {
	a.feed.Step()
	snapshots, err := a.feed.Snapshots(ctx)
	if err != nil {
		slog.Warn("narrative feed unavailable", "err", err)
		return nil
	}

	signals := a.scan.Scan(ctx, snapshots)

	if err := a.notifier.NotifySignals(ctx, signals); err != nil {
		slog.Warn("notifier error", "err", err)
	}
	if err := a.store.SaveSignals(ctx, signals); err != nil {
		slog.Warn("failed to persist signals", "err", err)
	}

	a.ingestInvestigation(snapshots, signals)

	a.mu.Lock()
	for _, sig := range signals {
		a.latest[sig.SubjectKey()] = sig
	}
	a.mu.Unlock()

	return signals
}

// onConsensus opens a position for the confirmed subject using the latest
// scored signal seen for it. Runs on the listener goroutine.
func (a *app) onConsensus(ctx context.Context, ev domain.ConsensusEvent) {
	a.mu.Lock()
	sig, ok := a.latest[ev.SubjectKey]
	a.mu.Unlock()
	if !ok {
		slog.Warn("consensus for unknown subject", "subject_key", ev.SubjectKey)
		return
	}

	opened, err := a.manager.ExecuteSignal(ctx, sig)
	if err != nil {
		slog.Warn("consensus execution failed", "subject_key", ev.SubjectKey, "err", err)
		return
	}
	if opened {
		slog.Info("consensus position opened", "subject_key", ev.SubjectKey, "votes", len(ev.Votes))
	}
}

// ingestInvestigation grows the investigation graph: one event node per
// narrative observation, one entity node per correlated asset, and a
// directed narrative→asset edge weighted by the signal's risk-discounted
// strength. Event nodes carry campaign alignment scores in their metadata. Edges only gain evidence once the liquidity probe confirms a
// target zone, so strong unevidenced links surface as hypotheses.
func (a *app) ingestInvestigation(snapshots []domain.NarrativeSnapshot, signals []domain.ArbitrageSignal) {
	for _, snap := range snapshots {
		id := graph.NodeID(snap.Content)
		a.investigation.AddNode(graph.Node{
			ID:         id,
			Content:    snap.Content,
			Type:       graph.NodeEvent,
			Timestamp:  snap.ObservedAt,
			Confidence: snap.BeliefPenetration,
			Sources:    []string{snap.ID},
		})
		// The upsert replaced the node's metadata, so enrichment runs
		// again each cycle.
		a.investigation.EnrichAlignment(id, a.signatures)
	}

	contentByID := make(map[string]string, len(snapshots))
	for _, snap := range snapshots {
		contentByID[snap.ID] = snap.Content
	}

	for _, sig := range signals {
		content, ok := contentByID[sig.NarrativeID]
		if !ok {
			continue
		}

		assetNode := graph.NodeID(sig.FinancialAsset)
		a.investigation.AddNode(graph.Node{
			ID:      assetNode,
			Content: sig.FinancialAsset,
			Type:    graph.NodeEntity,
		})

		weight := clamp01(sig.Strength * (1 - sig.RiskScore))
		var evidence []string
		if liq, ok := sig.Metadata["liquidity"].(domain.LiquidityReading); ok && liq.TargetZone {
			evidence = []string{"liquidity_target_zone"}
		}

		err := a.investigation.AddEdge(graph.NodeID(content), assetNode,
			string(sig.Type), weight, evidence)
		if err != nil {
			slog.Warn("failed to link narrative to asset", "subject_key", sig.SubjectKey(), "err", err)
		}
	}
}

// analyzeInvestigation runs the periodic pattern and hypothesis pass over
// the investigation graph and logs what it finds.
func (a *app) analyzeInvestigation() {
	temporal := a.investigation.FindTemporalPatterns(temporalWindowDays)
	network := a.investigation.FindNetworkPatterns()
	hypotheses := a.investigation.GenerateHypotheses()

	slog.Info("investigation analysis",
		"nodes", a.investigation.NodeCount(),
		"edges", a.investigation.EdgeCount(),
		"temporal_patterns", len(temporal),
		"network_patterns", len(network),
		"hypotheses", len(hypotheses),
	)
	for _, h := range hypotheses {
		slog.Debug("hypothesis", "type", h.Type, "strength", h.Strength, "suggestion", h.Suggestion)
	}
}

// finalReport prints the performance report and the persisted ledger stats.
func (a *app) finalReport(ctx context.Context) {
	report := a.manager.Report(ctx)
	if err := a.notifier.NotifyReport(ctx, report); err != nil {
		slog.Warn("failed to render report", "err", err)
	}

	stats, err := a.store.GetLedgerStats(ctx)
	if err != nil {
		slog.Warn("failed to read ledger stats", "err", err)
		return
	}
	slog.Info("ledger stats",
		"signals_recorded", stats.SignalsRecorded,
		"positions_closed", stats.PositionsClosed,
		"realized_pnl", stats.RealizedPnL,
		"win_rate", stats.WinRate,
	)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
