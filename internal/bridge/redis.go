// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/content-engine/internal/logger"
	"github.com/pdiddy/content-engine/pkg/types"
)

// DefaultChannel announces published drafts.
const DefaultChannel = "content-engine:drafts"

const docKeyPrefix = "doc:"

// Event is published on the channel after a document is stored.
type Event struct {
	EventID   uuid.UUID `json:"event_id"`
	Type      string    `json:"type"`
	DocID     string    `json:"doc_id"`
	Title     string    `json:"title"`
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublished is the only event type.
const EventPublished = "draft.published"

// RedisBridge stores documents at doc:<id> and announces them on a channel.
type RedisBridge struct {
	client  *redis.Client
	channel string
	log     logger.Logger
}

// NewRedisBridge connects to Redis.
func NewRedisBridge(ctx context.Context, cfg types.RedisConfig, channel string, log logger.Logger) (*RedisBridge, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisBridgeWithClient(client, channel, log), nil
}

// NewRedisBridgeWithClient wraps an existing client.
func NewRedisBridgeWithClient(client *redis.Client, channel string, log logger.Logger) *RedisBridge {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisBridge{client: client, channel: channel, log: log}
}

// Location returns the Redis key holding the document.
func (b *RedisBridge) Location(id string) string {
	return docKeyPrefix + id
}

// Publish stores the document JSON and announces it.
func (b *RedisBridge) Publish(ctx context.Context, doc Document) error {
	doc, err := render(doc)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	key := b.Location(doc.ID)
	if err := b.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("store document %s: %w", doc.ID, err)
	}

	event, err := json.Marshal(Event{
		EventID:   uuid.New(),
		Type:      EventPublished,
		DocID:     doc.ID,
		Title:     doc.Title,
		Key:       key,
		Timestamp: doc.PublishedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	// The stored document is authoritative; a lost announcement is only logged.
	if err := b.client.Publish(ctx, b.channel, event).Err(); err != nil {
		b.log.Warn("draft announcement failed", logger.ItemID(doc.ID), logger.Error(err))
		return nil
	}

	b.log.Info("draft published", logger.ItemID(doc.ID), logger.String("key", key))
	return nil
}

// Close closes the client.
func (b *RedisBridge) Close() error {
	return b.client.Close()
}
