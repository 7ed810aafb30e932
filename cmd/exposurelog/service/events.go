package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/lsst-sqre/exposurelog/common/redis"
)

// Event actions
const (
	ActionAdded       = "added"
	ActionEdited      = "edited"
	ActionInvalidated = "invalidated"
)

// Event announces a write to the message table so other sites can sync.
type Event struct {
	Action   string     `json:"action"`
	ID       uuid.UUID  `json:"id"`
	SiteID   string     `json:"site_id"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// Publisher delivers events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops events
type NopPublisher struct{}

// Publish does nothing
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// RedisPublisher publishes events as JSON on a Redis pub/sub channel
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher on channel
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Publish sends event
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return p.client.PublishEvent(ctx, p.channel, string(data))
}
