// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package board is the pipeline board: the stage-level lifecycle of content
// items. It only changes an item's stage and archive flag; artifacts belong
// to the development session.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/content-engine/internal/bridge"
	"github.com/pdiddy/content-engine/internal/logger"
	"github.com/pdiddy/content-engine/internal/metrics"
	"github.com/pdiddy/content-engine/internal/store"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Action names a board operation.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdateHook Action = "update_hook"
	ActionDevelop    Action = "develop"
	ActionStartDraft Action = "start_draft"
	ActionPublish    Action = "publish"
	ActionArchive    Action = "archive"
	ActionDelete     Action = "delete"
	ActionEdit       Action = "edit"
)

var (
	// ErrInvalidTransition is returned when an action does not apply to the
	// item's current stage.
	ErrInvalidTransition = errors.New("action not allowed in this stage")

	// ErrEmptyHook is returned for a blank hook.
	ErrEmptyHook = errors.New("hook is empty")

	// ErrArchived is returned for actions on archived items.
	ErrArchived = errors.New("item is archived")
)

// allowedFrom lists the stages each stage-bound action accepts.
var allowedFrom = map[Action][]types.Stage{
	ActionUpdateHook: {types.StageIdea},
	ActionDevelop:    {types.StageIdea, types.StageDeveloping},
	ActionStartDraft: {types.StageIdea},
	ActionPublish:    {types.StageDraft},
	ActionEdit:       {types.StageDraft, types.StagePublished},
}

// Column is one board column.
type Column struct {
	Stage types.Stage         `json:"stage" yaml:"stage"`
	Items []types.ContentItem `json:"items" yaml:"items"`
}

// Board applies lifecycle actions over a store.
type Board struct {
	store   store.Store
	bridge  bridge.Publisher
	log     logger.Logger
	metrics *metrics.Metrics
}

// Option customizes a Board.
type Option func(*Board)

// WithLogger attaches a logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Board) {
		if l != nil {
			b.log = l
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Board) { b.metrics = m }
}

// New returns a board over st. pub resolves editor locations.
func New(st store.Store, pub bridge.Publisher, opts ...Option) *Board {
	b := &Board{store: st, bridge: pub, log: logger.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Create adds a new idea.
func (b *Board) Create(ctx context.Context, hook string) (types.ContentItem, error) {
	hook = strings.TrimSpace(hook)
	if hook == "" {
		return types.ContentItem{}, ErrEmptyHook
	}
	item, err := b.store.Create(ctx, types.ContentItem{Hook: hook, Stage: types.StageIdea})
	if err != nil {
		return types.ContentItem{}, fmt.Errorf("creating idea: %w", err)
	}
	b.done(ActionCreate, item.ID)
	return item, nil
}

// Get loads one item.
func (b *Board) Get(ctx context.Context, id string) (types.ContentItem, error) {
	return b.store.Get(ctx, id)
}

// UpdateHook rewrites the hook of an idea whose development has not started.
func (b *Board) UpdateHook(ctx context.Context, id, hook string) (types.ContentItem, error) {
	hook = strings.TrimSpace(hook)
	if hook == "" {
		return types.ContentItem{}, ErrEmptyHook
	}
	item, err := b.check(ctx, ActionUpdateHook, id)
	if err != nil {
		return types.ContentItem{}, err
	}
	if item.DevStep != types.DevStepNone {
		return types.ContentItem{}, fmt.Errorf("%s on %s with development underway: %w", ActionUpdateHook, id, ErrInvalidTransition)
	}
	item, err = b.store.Update(ctx, id, types.Patch{Hook: &hook})
	if err != nil {
		return types.ContentItem{}, fmt.Errorf("updating hook: %w", err)
	}
	b.done(ActionUpdateHook, id)
	return item, nil
}

// Develop returns the item for a development session. The stage is left as
// is; the session moves it to developing on its first generation.
func (b *Board) Develop(ctx context.Context, id string) (types.ContentItem, error) {
	item, err := b.check(ctx, ActionDevelop, id)
	if err != nil {
		return types.ContentItem{}, err
	}
	b.done(ActionDevelop, id)
	return item, nil
}

// StartDraft moves an idea straight to the draft stage without research.
func (b *Board) StartDraft(ctx context.Context, id string) (types.ContentItem, error) {
	return b.move(ctx, ActionStartDraft, id, types.StageDraft)
}

// Publish marks a draft as published.
func (b *Board) Publish(ctx context.Context, id string) (types.ContentItem, error) {
	return b.move(ctx, ActionPublish, id, types.StagePublished)
}

// Archive hides an item from the board without deleting it.
func (b *Board) Archive(ctx context.Context, id string) (types.ContentItem, error) {
	if _, err := b.store.Get(ctx, id); err != nil {
		return types.ContentItem{}, err
	}
	item, err := b.store.Update(ctx, id, types.Patch{Archived: types.Ptr(true)})
	if err != nil {
		return types.ContentItem{}, fmt.Errorf("archiving: %w", err)
	}
	b.done(ActionArchive, id)
	return item, nil
}

// Delete removes an item permanently.
func (b *Board) Delete(ctx context.Context, id string) error {
	if err := b.store.Delete(ctx, id); err != nil {
		return err
	}
	b.done(ActionDelete, id)
	return nil
}

// Edit returns where the editing surface holds the item's draft.
func (b *Board) Edit(ctx context.Context, id string) (string, error) {
	if _, err := b.check(ctx, ActionEdit, id); err != nil {
		return "", err
	}
	b.done(ActionEdit, id)
	return b.bridge.Location(id), nil
}

// Columns groups the active items by stage in board order.
func (b *Board) Columns(ctx context.Context) ([]Column, error) {
	items, err := b.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	byStage := map[types.Stage][]types.ContentItem{}
	for _, item := range items {
		if item.Archived {
			continue
		}
		byStage[item.Stage] = append(byStage[item.Stage], item)
	}
	cols := make([]Column, len(types.Stages))
	for i, stage := range types.Stages {
		items := byStage[stage]
		if items == nil {
			items = []types.ContentItem{}
		}
		cols[i] = Column{Stage: stage, Items: items}
	}
	return cols, nil
}

func (b *Board) move(ctx context.Context, action Action, id string, to types.Stage) (types.ContentItem, error) {
	if _, err := b.check(ctx, action, id); err != nil {
		return types.ContentItem{}, err
	}
	item, err := b.store.Update(ctx, id, types.Patch{Stage: &to})
	if err != nil {
		return types.ContentItem{}, fmt.Errorf("%s: %w", action, err)
	}
	b.done(action, id)
	return item, nil
}

// check loads the item and validates action against its stage.
func (b *Board) check(ctx context.Context, action Action, id string) (types.ContentItem, error) {
	item, err := b.store.Get(ctx, id)
	if err != nil {
		return types.ContentItem{}, err
	}
	if item.Archived {
		return types.ContentItem{}, fmt.Errorf("%s on %s: %w", action, id, ErrArchived)
	}
	for _, s := range allowedFrom[action] {
		if item.Stage == s {
			return item, nil
		}
	}
	return types.ContentItem{}, fmt.Errorf("%s on %s item %s: %w", action, item.Stage, id, ErrInvalidTransition)
}

func (b *Board) done(action Action, id string) {
	b.metrics.Transition(string(action))
	b.log.Info("board action", logger.String("action", string(action)), logger.ItemID(id))
}
