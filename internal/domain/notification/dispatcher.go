package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/consult/consult/internal/platform/events"
)

// Dispatcher enqueues a notification for asynchronous delivery. Callers
// treat it as fire-and-forget; a failed enqueue is reported but must not
// fail the surrounding operation.
type Dispatcher interface {
	Enqueue(ctx context.Context, userID uuid.UUID, title, message string, category Category) error
}

// JetStreamDispatcher publishes notification events to the embedded broker.
type JetStreamDispatcher struct {
	js     jetstream.JetStream
	logger zerolog.Logger
}

func NewJetStreamDispatcher(js jetstream.JetStream, logger zerolog.Logger) *JetStreamDispatcher {
	return &JetStreamDispatcher{js: js, logger: logger}
}

func (d *JetStreamDispatcher) Enqueue(ctx context.Context, userID uuid.UUID, title, message string, category Category) error {
	evt := Event{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}

	if _, err := d.js.Publish(ctx, events.Subject(string(category)), data); err != nil {
		return fmt.Errorf("publish notification event: %w", err)
	}

	d.logger.Debug().
		Str("event_id", evt.ID.String()).
		Str("user_id", userID.String()).
		Str("category", string(category)).
		Msg("notification enqueued")

	return nil
}

// Consumer drains the notification stream into the notifications table.
// Delivery is at-least-once; the insert is keyed on the event ID so a
// redelivered event is a no-op.
type Consumer struct {
	js     jetstream.JetStream
	repo   Repository
	logger zerolog.Logger
	cc     jetstream.ConsumeContext
}

func NewConsumer(js jetstream.JetStream, repo Repository, logger zerolog.Logger) *Consumer {
	return &Consumer{js: js, repo: repo, logger: logger}
}

func (c *Consumer) Start(ctx context.Context) error {
	consumer, err := c.js.CreateOrUpdateConsumer(ctx, events.StreamName, jetstream.ConsumerConfig{
		Name:          "notification-writer",
		Durable:       "notification-writer",
		Description:   "Persists notification events to the database",
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
		MaxAckPending: 100,
	})
	if err != nil {
		return fmt.Errorf("create notification consumer: %w", err)
	}

	cc, err := consumer.Consume(c.handle)
	if err != nil {
		return fmt.Errorf("start notification consumer: %w", err)
	}
	c.cc = cc

	c.logger.Info().Str("stream", events.StreamName).Msg("notification consumer started")
	return nil
}

func (c *Consumer) handle(msg jetstream.Msg) {
	var evt Event
	if err := json.Unmarshal(msg.Data(), &evt); err != nil {
		c.logger.Error().Err(err).Str("subject", msg.Subject()).Msg("malformed notification event")
		msg.Term()
		return
	}

	n := &Notification{
		ID:        evt.ID,
		UserID:    evt.UserID,
		Title:     evt.Title,
		Message:   evt.Message,
		Category:  evt.Category,
		CreatedAt: evt.CreatedAt,
	}

	if err := c.repo.Create(context.Background(), n); err != nil {
		c.logger.Error().Err(err).Str("event_id", evt.ID.String()).Msg("failed to persist notification")
		msg.Nak()
		return
	}

	msg.Ack()
}

// Stop halts message delivery. Safe to call when Start was never called.
func (c *Consumer) Stop() {
	if c.cc != nil {
		c.cc.Stop()
	}
}
