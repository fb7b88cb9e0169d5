// Package bus provides the signal bus adapters: an in-process topic hub for
// single-binary runs and tests, and an AMQP bridge for distributed vote
// producers.
package bus

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/rawelabs/rawe/internal/ports"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind starts dropping messages rather than blocking
// publishers.
const subscriberBuffer = 64

// ErrBusClosed is returned by operations on a closed bus.
var ErrBusClosed = errors.New("bus: closed")

// Memory is an in-process topic hub. Publish fans each message out to every
// live subscriber of the topic without blocking: a full subscriber drops the
// message with a warning.
type Memory struct {
	mu     sync.Mutex
	topics map[string][]chan ports.Delivery
	closed bool
}

// NewMemory creates an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{topics: make(map[string][]chan ports.Delivery)}
}

// Publish delivers body to every current subscriber of topic. The fan-out
// runs under the bus mutex so no send can race an unsubscribe or Close
// closing the channel; the sends never block, so holding the lock is cheap.
func (b *Memory) Publish(_ context.Context, topic string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}

	d := ports.Delivery{Topic: topic, Body: body}
	for _, ch := range b.topics[topic] {
		select {
		case ch <- d:
		default:
			slog.Warn("dropping message for slow subscriber", "topic", topic)
		}
	}
	return nil
}

// Subscribe registers a new subscriber for topic. The returned channel is
// closed when ctx is cancelled or the bus closes.
func (b *Memory) Subscribe(ctx context.Context, topic string) (<-chan ports.Delivery, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}
	ch := make(chan ports.Delivery, subscriberBuffer)
	b.topics[topic] = append(b.topics[topic], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.unsubscribe(topic, ch)
	}()

	return ch, nil
}

// Close shuts the bus down and closes every subscriber channel.
func (b *Memory) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.topics {
		for _, ch := range subs {
			close(ch)
		}
	}
	b.topics = nil
	return nil
}

func (b *Memory) unsubscribe(topic string, ch chan ports.Delivery) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	subs := b.topics[topic]
	for i, sub := range subs {
		if sub == ch {
			b.topics[topic] = append(subs[:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}
