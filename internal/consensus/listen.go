package consensus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rawelabs/rawe/internal/domain"
	"github.com/rawelabs/rawe/internal/ports"
)

// MalformedSignalError reports a stream record that fails the signal schema.
// The record is dropped and logged; the stream continues.
type MalformedSignalError struct {
	Reason string
}

func (e *MalformedSignalError) Error() string {
	return "consensus: malformed signal: " + e.Reason
}

// sweepInterval is how often stale vote sets are checked for eviction.
const sweepInterval = time.Minute

// Listener consumes the inbound signal stream, routes each vote through the
// engine, and publishes an execute action downstream on every confirmed
// consensus.
type Listener struct {
	engine   *Engine
	bus      ports.SignalBus
	inTopic  string
	outTopic string

	// OnEvent, when set, is invoked after the downstream publish for each
	// consensus event. It runs on the listener goroutine.
	OnEvent func(ctx context.Context, ev domain.ConsensusEvent)
}

// NewListener wires an engine to the bus topics.
func NewListener(engine *Engine, bus ports.SignalBus, inTopic, outTopic string) *Listener {
	return &Listener{engine: engine, bus: bus, inTopic: inTopic, outTopic: outTopic}
}

// Run consumes the signal topic until the context is cancelled or the
// subscription closes. Messages are processed one at a time in arrival
// order; cancellation is only observed between messages, so an in-flight
// vote is never half-counted.
func (l *Listener) Run(ctx context.Context) error {
	deliveries, err := l.bus.Subscribe(ctx, l.inTopic)
	if err != nil {
		return fmt.Errorf("consensus.Listener: subscribe %q: %w", l.inTopic, err)
	}

	slog.Info("consensus listener started",
		"topic", l.inTopic,
		"threshold", l.engine.cfg.Threshold,
		"vote_ttl", l.engine.cfg.VoteTTL,
	)

	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("consensus listener stopped")
			return nil
		case <-sweep.C:
			if dropped := l.engine.Sweep(); dropped > 0 {
				slog.Info("evicted stale vote sets", "dropped", dropped)
			}
		case d, ok := <-deliveries:
			if !ok {
				slog.Info("signal stream closed")
				return nil
			}
			l.handle(ctx, d.Body)
		}
	}
}

// handle parses and counts one raw message. Malformed records are dropped
// with a warning; nothing here is fatal to the loop.
func (l *Listener) handle(ctx context.Context, body []byte) {
	msg, err := parseSignal(body)
	if err != nil {
		slog.Warn("dropping malformed signal", "err", err)
		return
	}

	key := domain.SubjectKey(msg.NarrativeID, msg.FinancialAsset)
	ev, reached := l.engine.Receive(key, msg.SignalType)
	if !reached {
		return
	}

	slog.Info("consensus reached", "subject_key", ev.SubjectKey, "votes", len(ev.Votes))

	action, _ := json.Marshal(domain.ConsensusAction{Action: "execute", SubjectKey: ev.SubjectKey})
	if err := l.bus.Publish(ctx, l.outTopic, action); err != nil {
		slog.Warn("failed to publish consensus action", "subject_key", ev.SubjectKey, "err", err)
	}

	if l.OnEvent != nil {
		l.OnEvent(ctx, ev)
	}
}

// parseSignal validates a raw stream record against the signal schema.
func parseSignal(body []byte) (domain.SignalMessage, error) {
	var msg domain.SignalMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, &MalformedSignalError{Reason: err.Error()}
	}
	if msg.NarrativeID == "" || msg.FinancialAsset == "" {
		return msg, &MalformedSignalError{Reason: "missing narrative_id or financial_asset"}
	}
	if !msg.SignalType.Valid() {
		return msg, &MalformedSignalError{Reason: fmt.Sprintf("unknown signal_type %q", msg.SignalType)}
	}
	return msg, nil
}
