// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists ContentItems. Writes are partial: callers send a
// types.Patch and only the fields it sets are touched.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/content-engine/pkg/types"
)

// ErrNotFound is returned when no item has the requested id.
var ErrNotFound = errors.New("content item not found")

// Store is the persistence boundary for content records.
type Store interface {
	// Create assigns an id (when empty) and timestamps, then inserts item.
	Create(ctx context.Context, item types.ContentItem) (types.ContentItem, error)
	Get(ctx context.Context, id string) (types.ContentItem, error)
	// Update applies patch and returns the stored result.
	Update(ctx context.Context, id string, patch types.Patch) (types.ContentItem, error)
	// List returns every item, oldest first.
	List(ctx context.Context) ([]types.ContentItem, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// now is the clock used for timestamps. Tests replace it.
var now = func() time.Time { return time.Now().UTC() }

// prepareNew fills the bookkeeping fields of an item about to be created.
func prepareNew(item types.ContentItem) types.ContentItem {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Stage == "" {
		item.Stage = types.StageIdea
	}
	t := now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = t
	}
	item.UpdatedAt = t
	return item
}

// encodePoints renders a point list as JSON. A nil list reports valid=false
// so callers can store null.
func encodePoints(points []types.ResearchPoint) (string, bool, error) {
	if points == nil {
		return "", false, nil
	}
	data, err := json.Marshal(points)
	if err != nil {
		return "", false, fmt.Errorf("encoding points: %w", err)
	}
	return string(data), true, nil
}

func decodePoints(data string, valid bool) ([]types.ResearchPoint, error) {
	if !valid {
		return nil, nil
	}
	points := []types.ResearchPoint{}
	if err := json.Unmarshal([]byte(data), &points); err != nil {
		return nil, fmt.Errorf("decoding points: %w", err)
	}
	return points, nil
}

func encodeStrategy(s *types.StrategyProfile) (string, bool, error) {
	if s == nil {
		return "", false, nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", false, fmt.Errorf("encoding strategy: %w", err)
	}
	return string(data), true, nil
}

func decodeStrategy(data string, valid bool) (*types.StrategyProfile, error) {
	if !valid {
		return nil, nil
	}
	var s types.StrategyProfile
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("decoding strategy: %w", err)
	}
	return &s, nil
}
