package service

import (
	"context"
	"fmt"
	"time"

	"curator-bot/internal/pkg/logger"
	"curator-bot/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	consumerMaxAttempts = 3
	consumerRetryDelay  = 500 * time.Millisecond
)

// EventForwarder ships lifecycle events to an external stream.
type EventForwarder interface {
	Publish(ctx context.Context, msgID string, event events.Event) error
}

// Announcer posts a short notice to a chat.
type Announcer interface {
	Announce(ctx context.Context, chatID int64, text string) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber     message.Subscriber
	topicName      string
	forwarder      EventForwarder
	announcer      Announcer
	announceChatID int64
	retryDelay     time.Duration
	logger         logger.ILogger
}

// NewConsumerService drains the lifecycle topic. forwarder and announcer are
// optional; a nil one is skipped.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	forwarder EventForwarder,
	announcer Announcer,
	announceChatID int64,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:     subscriber,
		topicName:      topicName,
		forwarder:      forwarder,
		announcer:      announcer,
		announceChatID: announceChatID,
		retryDelay:     consumerRetryDelay,
		logger:         log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks: a side effect that keeps failing after its
// retries is logged and dropped so the topic never stalls.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	event, err := events.Decode(msg.Payload)
	if err != nil {
		cs.logger.Error("ConsumerService", "Failed to decode lifecycle event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err,
		})
		return
	}

	details := map[string]interface{}{
		"message_id": msg.UUID,
		"event_type": event.Type,
	}

	if cs.forwarder != nil {
		err := cs.retry(ctx, func() error {
			return cs.forwarder.Publish(ctx, msg.UUID, event)
		})
		if err != nil {
			cs.logger.Error("ConsumerService", "Failed to forward event", withError(details, err))
		}
	}

	if cs.announcer != nil && cs.announceChatID != 0 && event.Type == events.RecordPublished {
		text := announcement(event)
		err := cs.retry(ctx, func() error {
			return cs.announcer.Announce(ctx, cs.announceChatID, text)
		})
		if err != nil {
			cs.logger.Error("ConsumerService", "Failed to announce published record", withError(details, err))
		}
	}

	cs.logger.Debug("ConsumerService", "Lifecycle event handled", details)
}

func (cs *consumerService) retry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= consumerMaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == consumerMaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cs.retryDelay * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("after %d attempts: %w", consumerMaxAttempts, err)
}

func announcement(e events.BaseEvent) string {
	title, _ := e.Data["title"].(string)
	summary, _ := e.Data["short_summary"].(string)
	if summary == "" {
		return "Published: " + title
	}
	return fmt.Sprintf("Published: %s\n\n%s", title, summary)
}

func withError(details map[string]interface{}, err error) map[string]interface{} {
	out := make(map[string]interface{}, len(details)+1)
	for k, v := range details {
		out[k] = v
	}
	out["error"] = err
	return out
}
