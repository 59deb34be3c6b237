package rabbitmq

import (
	"encoding/json"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/glitchbyte/streambot/internal/twitch"
)

// EventConsumer reads chat events off a durable queue, the alternative to
// the live socket transport for replay and testing. Deliveries are acked
// only after the pipeline handled them.
type EventConsumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewEventConsumer(url, queue string) (*EventConsumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &EventConsumer{conn: conn, ch: ch, queue: queue}, nil
}

// Deliveries starts consuming with manual acks and the given prefetch.
func (c *EventConsumer) Deliveries(prefetch int) (<-chan amqp.Delivery, error) {
	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}
	return c.ch.Consume(c.queue, "", false, false, false, false, nil)
}

func (c *EventConsumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// DecodeEvent unmarshals one queued chat event. Events without a user
// identity are rejected here so they dead-letter instead of looping through
// the pipeline's own validation.
func DecodeEvent(body []byte) (twitch.Event, error) {
	var ev twitch.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return twitch.Event{}, err
	}
	if ev.UserID == "" || ev.Handle == "" {
		return twitch.Event{}, errors.New("queued event has no user identity")
	}
	return ev, nil
}
