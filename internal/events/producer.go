package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	// TopicUserEvents carries account lifecycle events.
	TopicUserEvents = "user_events"

	TypeUserRegistered  = "user_registered"
	TypeUserBanned      = "user_banned"
	TypeUserUnbanned    = "user_unbanned"
	TypeUserDeleted     = "user_deleted"
	TypeSessionsRevoked = "sessions_revoked"
)

type UserEvent struct {
	Type     string    `json:"type"`
	UserID   uint      `json:"user_id"`
	Username string    `json:"username,omitempty"`
	At       time.Time `json:"at"`
}

// Producer publishes account events. A Producer built without brokers
// is a no-op, so callers never have to branch on whether kafka is
// configured.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 {
		return &Producer{}
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, eventType string, userID uint, username string) error {
	if p == nil || p.writer == nil {
		return nil
	}

	ev := UserEvent{
		Type:     eventType,
		UserID:   userID,
		Username: username,
		At:       time.Now().UTC(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("kafka: marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprint(userID)),
		Value: data,
	}); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
