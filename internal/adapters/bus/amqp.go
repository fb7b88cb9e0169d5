package bus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rabbitmq/amqp091-go"

	"github.com/rawelabs/rawe/internal/ports"
)

// signalExchange is the topic exchange all signal traffic flows through.
// Topics map directly to routing keys.
const signalExchange = "rawe.signals"

// AMQP bridges the signal bus onto a RabbitMQ topic exchange so that vote
// producers and the consensus listener can run in separate processes.
type AMQP struct {
	conn *amqp091.Connection
	ch   *amqp091.Channel
}

// DialAMQP connects to the broker and declares the signal exchange.
func DialAMQP(url string) (*AMQP, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("bus: dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("bus: open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		signalExchange,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bus: declare exchange: %w", err)
	}

	return &AMQP{conn: conn, ch: ch}, nil
}

// Publish sends body to the signal exchange under the topic routing key.
func (b *AMQP) Publish(ctx context.Context, topic string, body []byte) error {
	err := b.ch.PublishWithContext(ctx,
		signalExchange,
		topic,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("bus: publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe binds an exclusive queue to the topic and consumes it into a
// Delivery channel. The consumer goroutine stops when ctx is cancelled or
// the broker closes the delivery stream.
func (b *AMQP) Subscribe(ctx context.Context, topic string) (<-chan ports.Delivery, error) {
	// Consumers need their own channel so a cancelled subscription does not
	// tear down the shared publish channel.
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("bus: open consume channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		"",    // broker-named
		false, // durable
		true,  // autoDelete
		true,  // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("bus: declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, topic, signalExchange, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("bus: bind %s: %w", topic, err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",    // broker-named consumer tag
		true,  // autoAck
		true,  // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("bus: consume %s: %w", topic, err)
	}

	out := make(chan ports.Delivery, subscriberBuffer)
	go func() {
		defer ch.Close()
		pump(ctx, topic, msgs, out)
	}()

	return out, nil
}

// pump forwards broker deliveries to the subscriber channel until the stream
// closes or ctx is cancelled. A full subscriber channel does not pin the
// goroutine past cancellation; both sends and receives select on ctx.Done.
func pump(ctx context.Context, topic string, msgs <-chan amqp091.Delivery, out chan<- ports.Delivery) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				slog.Warn("amqp delivery stream closed", "topic", topic)
				return
			}
			select {
			case out <- ports.Delivery{Topic: topic, Body: msg.Body}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close tears down the channel and connection.
func (b *AMQP) Close() error {
	if err := b.ch.Close(); err != nil {
		b.conn.Close()
		return err
	}
	return b.conn.Close()
}
