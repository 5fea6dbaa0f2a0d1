package queue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher defines the interface for publishing events to a stream.
type Publisher interface {
	// Publish adds an event to the specified stream.
	// Returns the message ID assigned by Redis.
	Publish(ctx context.Context, stream string, event ProfileEvent) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
}

// NewPublisher creates a new Publisher backed by Redis Streams.
func NewPublisher(client *redis.Client) Publisher {
	return &RedisPublisher{client: client}
}

// Publish adds an event to the stream using XADD.
// Uses "*" for auto-generated message ID (timestamp-sequence).
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event ProfileEvent) (string, error) {
	startTime := time.Now()

	values, err := event.ToMap()
	if err != nil {
		log.Printf("[Publisher] Publish FAILED: stream=%s type=%s err=%v", stream, event.Type, err)
		return "", fmt.Errorf("serialize event: %w", err)
	}

	// XADD stream * field value [field value ...]
	// "*" means Redis auto-generates the message ID
	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()

	if err != nil {
		log.Printf("[Publisher] Publish FAILED: stream=%s type=%s err=%v", stream, event.Type, err)
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	log.Printf("[Publisher] Publish OK: stream=%s type=%s msgID=%s duration=%v",
		stream, event.Type, messageID, time.Since(startTime))

	// Log event details for debugging
	switch event.Type {
	case EventUsernameChanged:
		log.Printf("[Publisher]   -> owner=%s old=%s new=%s", event.OwnerID, event.OldUsername, event.NewUsername)
	case EventAvatarUpdated:
		log.Printf("[Publisher]   -> owner=%s oldKey=%s", event.OwnerID, event.OldAvatarKey)
	}

	return messageID, nil
}

// PublishUsernameChanged is a convenience method for publishing username changed events.
func (p *RedisPublisher) PublishUsernameChanged(ctx context.Context, ownerID, oldUsername, newUsername string) (string, error) {
	event := NewUsernameChangedEvent(ownerID, oldUsername, newUsername)
	return p.Publish(ctx, StreamProfile, event)
}

// PublishProfileUpdated is a convenience method for publishing profile updated events.
func (p *RedisPublisher) PublishProfileUpdated(ctx context.Context, ownerID string) (string, error) {
	event := NewProfileUpdatedEvent(ownerID)
	return p.Publish(ctx, StreamProfile, event)
}

// PublishAvatarUpdated is a convenience method for publishing avatar updated events.
func (p *RedisPublisher) PublishAvatarUpdated(ctx context.Context, ownerID, oldAvatarKey string) (string, error) {
	event := NewAvatarUpdatedEvent(ownerID, oldAvatarKey)
	return p.Publish(ctx, StreamProfile, event)
}
