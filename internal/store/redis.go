// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/content-engine/internal/logger"
	"github.com/pdiddy/content-engine/pkg/types"
)

const defaultKeyPrefix = "content"

// Hash fields beyond the patchable ones.
const (
	fieldID        = "id"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
)

// RedisStore keeps each item in a hash <prefix>:item:<id> and indexes ids in
// the sorted set <prefix>:items, scored by creation time. Null artifacts are
// absent hash fields.
type RedisStore struct {
	client *redis.Client
	prefix string
	log    logger.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg types.RedisConfig, prefix string, log logger.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisStoreWithClient(client, prefix, log), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string, log logger.Logger) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisStore{client: client, prefix: prefix, log: log}
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) itemKey(id string) string { return s.prefix + ":item:" + id }
func (s *RedisStore) indexKey() string         { return s.prefix + ":items" }

// Create writes the full hash and indexes the id.
func (s *RedisStore) Create(ctx context.Context, item types.ContentItem) (types.ContentItem, error) {
	item = prepareNew(item)

	values, _, err := patchFields(types.Patch{
		Hook:      &item.Hook,
		Stage:     &item.Stage,
		DevStep:   &item.DevStep,
		Strategy:  item.Strategy,
		Research:  &item.Research,
		Insights:  &item.Insights,
		Outline:   &item.Outline,
		DraftText: &item.DraftText,
		Archived:  &item.Archived,
	})
	if err != nil {
		return types.ContentItem{}, err
	}
	values[fieldID] = item.ID
	values[fieldCreatedAt] = item.CreatedAt.Format(time.RFC3339Nano)
	values[fieldUpdatedAt] = item.UpdatedAt.Format(time.RFC3339Nano)

	key := s.itemKey(item.ID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(item.CreatedAt.UnixNano()), Member: item.ID})
		return nil
	})
	if err != nil {
		return types.ContentItem{}, fmt.Errorf("writing item %s: %w", item.ID, err)
	}
	s.log.Debug("item created", logger.ItemID(item.ID))
	return item, nil
}

// Get reads the hash for id.
func (s *RedisStore) Get(ctx context.Context, id string) (types.ContentItem, error) {
	fields, err := s.client.HGetAll(ctx, s.itemKey(id)).Result()
	if err != nil {
		return types.ContentItem{}, fmt.Errorf("loading item %s: %w", id, err)
	}
	if len(fields) == 0 {
		return types.ContentItem{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return decodeHash(fields)
}

// Update sets the changed fields and deletes the ones patched to null.
func (s *RedisStore) Update(ctx context.Context, id string, patch types.Patch) (types.ContentItem, error) {
	key := s.itemKey(id)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return types.ContentItem{}, fmt.Errorf("checking item %s: %w", id, err)
	}
	if exists == 0 {
		return types.ContentItem{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	values, nulls, err := patchFields(patch)
	if err != nil {
		return types.ContentItem{}, err
	}
	values[fieldUpdatedAt] = now().Format(time.RFC3339Nano)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values)
		if len(nulls) > 0 {
			pipe.HDel(ctx, key, nulls...)
		}
		return nil
	})
	if err != nil {
		return types.ContentItem{}, fmt.Errorf("updating item %s: %w", id, err)
	}
	s.log.Debug("item updated", logger.ItemID(id), logger.Strings("fields", patch.Fields()))
	return s.Get(ctx, id)
}

// List walks the index in creation order.
func (s *RedisStore) List(ctx context.Context) ([]types.ContentItem, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	var items []types.ContentItem
	for _, id := range ids {
		item, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			s.log.Warn("index references missing item", logger.ItemID(id))
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Delete removes the hash and its index entry.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.itemKey(id))
		pipe.ZRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting item %s: %w", id, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	s.log.Debug("item deleted", logger.ItemID(id))
	return nil
}

// patchFields converts a patch into hash values to set and field names to
// delete (artifacts patched to null).
func patchFields(p types.Patch) (map[string]any, []string, error) {
	values := map[string]any{}
	var nulls []string

	if p.Hook != nil {
		values[types.FieldHook] = *p.Hook
	}
	if p.Stage != nil {
		values[types.FieldStage] = string(*p.Stage)
	}
	if p.DevStep != nil {
		values[types.FieldDevStep] = string(*p.DevStep)
	}
	if p.Strategy != nil {
		data, _, err := encodeStrategy(p.Strategy)
		if err != nil {
			return nil, nil, err
		}
		values[types.FieldStrategy] = data
	}
	for _, f := range []struct {
		name   string
		points *[]types.ResearchPoint
	}{
		{types.FieldResearch, p.Research},
		{types.FieldInsights, p.Insights},
		{types.FieldOutline, p.Outline},
	} {
		if f.points == nil {
			continue
		}
		data, ok, err := encodePoints(*f.points)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			nulls = append(nulls, f.name)
			continue
		}
		values[f.name] = data
	}
	if p.DraftText != nil {
		values[types.FieldDraftText] = *p.DraftText
	}
	if p.Archived != nil {
		values[types.FieldArchived] = strconv.FormatBool(*p.Archived)
	}
	return values, nulls, nil
}

func decodeHash(fields map[string]string) (types.ContentItem, error) {
	item := types.ContentItem{
		ID:        fields[fieldID],
		Hook:      fields[types.FieldHook],
		Stage:     types.Stage(fields[types.FieldStage]),
		DevStep:   types.DevStep(fields[types.FieldDevStep]),
		DraftText: fields[types.FieldDraftText],
	}
	item.Archived, _ = strconv.ParseBool(fields[types.FieldArchived])

	var err error
	strategy, ok := fields[types.FieldStrategy]
	if item.Strategy, err = decodeStrategy(strategy, ok); err != nil {
		return types.ContentItem{}, err
	}
	for _, f := range []struct {
		name string
		dst  *[]types.ResearchPoint
	}{
		{types.FieldResearch, &item.Research},
		{types.FieldInsights, &item.Insights},
		{types.FieldOutline, &item.Outline},
	} {
		data, ok := fields[f.name]
		if *f.dst, err = decodePoints(data, ok); err != nil {
			return types.ContentItem{}, err
		}
	}
	item.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields[fieldCreatedAt])
	item.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt])
	return item, nil
}
