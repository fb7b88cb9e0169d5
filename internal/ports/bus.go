package ports

import "context"

// Delivery is one message received from a bus subscription.
type Delivery struct {
	Topic string
	Body  []byte
}

// SignalBus is the publish/subscribe channel carrying signal votes inbound
// and consensus actions outbound. Implementations: in-process bus for tests
// and single-binary runs, AMQP for distributed producers.
type SignalBus interface {
	// Publish sends a payload to every subscriber of the topic.
	Publish(ctx context.Context, topic string, body []byte) error

	// Subscribe returns a channel of deliveries for the topic. The channel
	// is closed when ctx is cancelled or the bus shuts down.
	Subscribe(ctx context.Context, topic string) (<-chan Delivery, error)

	// Close releases the underlying connection.
	Close() error
}
