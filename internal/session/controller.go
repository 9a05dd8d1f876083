// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session runs the development wizard for one content item: research,
// outline, draft. The controller owns a working copy of the item, writes
// every change through to the store, and calls the generation service
// without holding its lock, so point edits and refinements stay responsive
// while a batch generation runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/content-engine/internal/bridge"
	"github.com/pdiddy/content-engine/internal/generate"
	"github.com/pdiddy/content-engine/internal/logger"
	"github.com/pdiddy/content-engine/internal/merge"
	"github.com/pdiddy/content-engine/internal/metrics"
	"github.com/pdiddy/content-engine/internal/store"
	"github.com/pdiddy/content-engine/internal/strategy"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Generator is the generation service as seen by a session.
// *generate.Client satisfies it.
type Generator interface {
	DeepDive(ctx context.Context, req generate.Request) (generate.DeepDiveResult, error)
	RefinePoint(ctx context.Context, req generate.Request) (string, error)
	Outline(ctx context.Context, req generate.Request) ([]string, error)
	Draft(ctx context.Context, req generate.Request) (string, error)
}

// WarningFunc receives non-blocking failures such as a lost write.
type WarningFunc func(err error)

// refineConcurrency bounds RefinePending.
const refineConcurrency = 4

// Controller drives one item through development.
type Controller struct {
	mu       sync.Mutex
	state    State
	epoch    uint64
	refining map[PointRef]struct{}

	// persistMu orders write-through calls so the last write carries the
	// latest working copy.
	persistMu sync.Mutex

	gen     Generator
	store   store.Store
	bridge  bridge.Publisher
	log     logger.Logger
	metrics *metrics.Metrics
	warn    WarningFunc
}

// Option customizes a Controller.
type Option func(*Controller)

// WithLogger attaches a logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithWarningFunc registers a callback for non-blocking warnings.
func WithWarningFunc(fn WarningFunc) Option {
	return func(c *Controller) { c.warn = fn }
}

// New hydrates a controller from item.
func New(item types.ContentItem, gen Generator, st store.Store, pub bridge.Publisher, opts ...Option) *Controller {
	c := &Controller{
		state:    Hydrate(item),
		refining: map[PointRef]struct{}{},
		gen:      gen,
		store:    st,
		bridge:   pub,
		log:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.ItemID(item.ID))
	return c
}

// Open loads the item with id from st and hydrates a controller for it.
func Open(ctx context.Context, st store.Store, id string, gen Generator, pub bridge.Publisher, opts ...Option) (*Controller, error) {
	item, err := st.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return New(item, gen, st, pub, opts...), nil
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// snapshot copies the state. Callers hold c.mu.
func (c *Controller) snapshot() State {
	st := c.state.clone()
	st.Refining = sortedRefs(c.refining)
	return st
}

// Strategy evaluates the working copy's strategy.
func (c *Controller) Strategy() strategy.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strategy.EvaluateItem(c.state.Item)
}

// Close deactivates the session. Results of calls still in flight are
// discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Closed {
		return
	}
	c.state.Closed = true
	c.epoch++
	c.log.Debug("session closed")
}

// Start runs the generation owed by hydration, if any.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	pending := c.state.Pending
	policy := resumePolicy(&c.state.Item)
	c.state.Pending = ResumeNone
	c.mu.Unlock()

	switch pending {
	case ResumeResearch:
		return c.RunResearch(ctx, policy, "")
	case ResumeOutline:
		return c.generateOutline(ctx)
	case ResumeDraft:
		return c.generateDraft(ctx)
	}
	return nil
}

// resumePolicy picks the merge policy for a resumed deep dive. Lists that
// already exist hold curated points, so the new batch is appended to them.
func resumePolicy(item *types.ContentItem) merge.Policy {
	if item.Research != nil || item.Insights != nil {
		return merge.PolicyAppend
	}
	return merge.PolicyReplace
}

// RunResearch runs the deep dive. PolicyReplace installs a fresh batch;
// PolicyAppend keeps the curated lists and appends the batch tagged as new.
// extra is added to the session context for this call only.
func (c *Controller) RunResearch(ctx context.Context, policy merge.Policy, extra string) error {
	b, err := c.begin(ctx, StepResearch, types.DevStepDeepDiveInProgress, nil)
	if err != nil {
		return err
	}
	req := requestFor(b.item, joinContext(b.context, extra))
	res, err := c.gen.DeepDive(ctx, req)
	if err != nil {
		return c.fail(b, err)
	}

	research := merge.FromTexts(res.Research)
	insights := merge.FromTexts(res.Insights)
	err = c.finish(b, func(st *State) {
		st.Item.Research = merge.Apply(policy, st.Item.Research, research)
		st.Item.Insights = merge.Apply(policy, st.Item.Insights, insights)
		st.Item.DevStep = types.DevStepDeepDiveComplete
		st.ResearchUnlocked = true
	})
	if err != nil {
		return err
	}
	c.log.Info("research generated",
		logger.String("policy", string(policy)),
		logger.Int("research", len(research)),
		logger.Int("insights", len(insights)))
	c.writeThrough(ctx, types.FieldResearch, types.FieldInsights, types.FieldDevStep)
	return nil
}

// AdvanceToOutline generates an outline from the research. The cursor moves
// to the outline step once the generation is accepted; a refused generation
// leaves it where it was.
func (c *Controller) AdvanceToOutline(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	if c.state.Loading != "" {
		c.mu.Unlock()
		return ErrBusy
	}
	if !c.state.ResearchUnlocked {
		c.mu.Unlock()
		return ErrResearchLocked
	}
	c.mu.Unlock()

	return c.generateOutline(ctx)
}

// RegenerateOutline replaces the outline with a fresh one.
func (c *Controller) RegenerateOutline(ctx context.Context) error {
	return c.generateOutline(ctx)
}

func (c *Controller) generateOutline(ctx context.Context) error {
	b, err := c.begin(ctx, StepOutline, types.DevStepOutlineInProgress, func(st *State) error {
		if len(st.Item.Research) == 0 && len(st.Item.Insights) == 0 {
			return ErrNoResearch
		}
		return nil
	})
	if err != nil {
		return err
	}
	sections, err := c.gen.Outline(ctx, requestFor(b.item, b.context))
	if err != nil {
		return c.fail(b, err)
	}

	outline := merge.Replace(merge.FromTexts(sections))
	err = c.finish(b, func(st *State) {
		st.Item.Outline = outline
		st.Item.DevStep = types.DevStepOutlineReview
		st.OutlineApproved = false
	})
	if err != nil {
		return err
	}
	c.log.Info("outline generated", logger.Int("sections", len(outline)))
	c.writeThrough(ctx, types.FieldOutline, types.FieldDevStep)
	return nil
}

// ApproveOutline sets the session-local approval flag.
func (c *Controller) ApproveOutline(approved bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Closed {
		return ErrSessionClosed
	}
	if approved && len(c.state.Item.Outline) == 0 {
		return ErrNoOutline
	}
	c.state.OutlineApproved = approved
	return nil
}

// AdvanceToDraft generates the draft from the approved outline. Unless
// override is set, a strategy missing its audience or outcome blocks the
// transition with a *GateError.
func (c *Controller) AdvanceToDraft(ctx context.Context, override bool) error {
	c.mu.Lock()
	if c.state.Closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	if c.state.Loading != "" {
		c.mu.Unlock()
		return ErrBusy
	}
	if !c.state.OutlineApproved {
		c.mu.Unlock()
		return ErrOutlineNotApproved
	}
	if missing := strategy.DraftGate(c.state.Item.Profile()); len(missing) > 0 {
		if !override {
			snap := strategy.EvaluateItem(c.state.Item)
			c.mu.Unlock()
			c.metrics.GateBlocked()
			c.log.Info("draft blocked by strategy gate", logger.Strings("missing", missing))
			return &GateError{Snapshot: snap, Missing: missing}
		}
		c.log.Info("strategy gate overridden", logger.Strings("missing", missing))
	}
	c.mu.Unlock()

	return c.generateDraft(ctx)
}

func (c *Controller) generateDraft(ctx context.Context) error {
	b, err := c.begin(ctx, StepDraft, types.DevStepDraftInProgress, func(st *State) error {
		if len(st.Item.Outline) == 0 {
			return ErrNoOutline
		}
		return nil
	})
	if err != nil {
		return err
	}
	text, err := c.gen.Draft(ctx, requestFor(b.item, b.context))
	if err != nil {
		return c.fail(b, err)
	}

	// An empty draft keeps whatever draft the item already had.
	err = c.finish(b, func(st *State) {
		if text != "" {
			st.Item.DraftText = text
		}
	})
	if err != nil {
		return err
	}
	if text == "" {
		c.log.Warn("draft generation returned no text")
		return nil
	}
	c.log.Info("draft generated", logger.Int("length", len(text)))
	c.writeThrough(ctx, types.FieldDraftText)
	return nil
}

// Complete publishes the draft through the bridge under the item id, then
// clears the development marker and moves the item to the draft stage. It
// returns the bridge location.
func (c *Controller) Complete(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.state.Closed {
		c.mu.Unlock()
		return "", ErrSessionClosed
	}
	if c.state.Loading != "" {
		c.mu.Unlock()
		return "", ErrBusy
	}
	if strings.TrimSpace(c.state.Item.DraftText) == "" {
		c.mu.Unlock()
		return "", ErrNoDraft
	}
	doc := bridge.NewDocument(c.state.Item)
	epoch := c.epoch
	c.mu.Unlock()

	if err := c.bridge.Publish(ctx, doc); err != nil {
		return "", fmt.Errorf("publishing draft: %w", err)
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return "", ErrSessionClosed
	}
	c.state.Item.DevStep = types.DevStepNone
	c.state.Item.Stage = types.StageDraft
	c.mu.Unlock()

	c.log.Info("draft completed", logger.String("location", c.bridge.Location(doc.ID)))
	c.writeThrough(ctx, types.FieldDevStep, types.FieldStage)
	return c.bridge.Location(doc.ID), nil
}

// Back moves the cursor one step back without regenerating.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Closed {
		return ErrSessionClosed
	}
	i := c.state.Step.index()
	if i <= 0 {
		return ErrFirstStep
	}
	c.state.Step = Steps[i-1]
	return nil
}

// GoTo moves the cursor without regenerating. Moving forward requires the
// target step's artifacts to exist.
func (c *Controller) GoTo(step Step) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Closed {
		return ErrSessionClosed
	}
	target := step.index()
	if target < 0 {
		return fmt.Errorf("unknown step %q", step)
	}
	if target > c.state.Step.index() {
		item := &c.state.Item
		switch step {
		case StepOutline:
			if len(item.Outline) == 0 {
				return fmt.Errorf("%s: %w", step, ErrStepLocked)
			}
		case StepDraft:
			if item.DraftText == "" {
				return fmt.Errorf("%s: %w", step, ErrStepLocked)
			}
		}
	}
	c.state.Step = step
	return nil
}

// SetContext replaces the global session context sent with generations.
func (c *Controller) SetContext(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Context = strings.TrimSpace(text)
}

// UpdateStrategy replaces the strategy profile and returns its evaluation.
func (c *Controller) UpdateStrategy(ctx context.Context, profile types.StrategyProfile) (strategy.Snapshot, error) {
	c.mu.Lock()
	if c.state.Closed {
		c.mu.Unlock()
		return strategy.Snapshot{}, ErrSessionClosed
	}
	c.state.Item.Strategy = &profile
	snap := strategy.EvaluateItem(c.state.Item)
	c.mu.Unlock()

	c.writeThrough(ctx, types.FieldStrategy)
	return snap, nil
}

// EditPoint replaces a point's text.
func (c *Controller) EditPoint(ctx context.Context, ref PointRef, text string) error {
	return c.mutate(ctx, ref.List, func(list []types.ResearchPoint) ([]types.ResearchPoint, error) {
		return merge.Edit(list, ref.Index, text)
	})
}

// AddNote attaches a pending refinement instruction to a point.
func (c *Controller) AddNote(ctx context.Context, ref PointRef, note string) error {
	return c.mutate(ctx, ref.List, func(list []types.ResearchPoint) ([]types.ResearchPoint, error) {
		return merge.AddNote(list, ref.Index, note)
	})
}

// RemoveNote deletes one note from a point.
func (c *Controller) RemoveNote(ctx context.Context, ref PointRef, noteIndex int) error {
	return c.mutate(ctx, ref.List, func(list []types.ResearchPoint) ([]types.ResearchPoint, error) {
		return merge.RemoveNote(list, ref.Index, noteIndex)
	})
}

// DismissNew acknowledges a point added by an append merge.
func (c *Controller) DismissNew(ctx context.Context, ref PointRef) error {
	return c.mutate(ctx, ref.List, func(list []types.ResearchPoint) ([]types.ResearchPoint, error) {
		return merge.Dismiss(list, ref.Index)
	})
}

// DeletePoint removes a point.
func (c *Controller) DeletePoint(ctx context.Context, ref PointRef) error {
	return c.mutate(ctx, ref.List, func(list []types.ResearchPoint) ([]types.ResearchPoint, error) {
		return merge.Delete(list, ref.Index)
	})
}

// InsertPoint adds an author-written point at ref.Index.
func (c *Controller) InsertPoint(ctx context.Context, ref PointRef, text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("point text is empty")
	}
	return c.mutate(ctx, ref.List, func(list []types.ResearchPoint) ([]types.ResearchPoint, error) {
		return merge.Insert(list, ref.Index, text)
	})
}

// ReplaceResearch installs author-supplied research and insights, such as
// an edited export, in place of the current lists.
func (c *Controller) ReplaceResearch(ctx context.Context, research, insights []types.ResearchPoint) error {
	c.mu.Lock()
	if c.state.Closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	if c.state.Loading != "" {
		c.mu.Unlock()
		return ErrBusy
	}
	fields := []string{types.FieldResearch, types.FieldInsights}
	c.state.Item.Research = merge.Replace(research)
	c.state.Item.Insights = merge.Replace(insights)
	c.state.ResearchUnlocked = true
	c.state.Pending = ResumeNone
	if c.state.Item.DevStep == types.DevStepNone || c.state.Item.DevStep == types.DevStepDeepDiveInProgress {
		c.state.Item.DevStep = types.DevStepDeepDiveComplete
		fields = append(fields, types.FieldDevStep)
	}
	if c.state.Item.Stage == types.StageIdea {
		c.state.Item.Stage = types.StageDeveloping
		fields = append(fields, types.FieldStage)
	}
	c.mu.Unlock()

	c.writeThrough(ctx, fields...)
	return nil
}

func (c *Controller) mutate(ctx context.Context, l List, fn func([]types.ResearchPoint) ([]types.ResearchPoint, error)) error {
	c.mu.Lock()
	if c.state.Closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	points := pointsOf(&c.state.Item, l)
	updated, err := fn(*points)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	*points = updated
	c.mu.Unlock()

	c.writeThrough(ctx, l.field())
	return nil
}

// RefinePoint regenerates the text of one point using the session context,
// the point's notes and an optional new note. Only the point's text changes.
// Refinements of distinct points run concurrently.
func (c *Controller) RefinePoint(ctx context.Context, ref PointRef, note string) error {
	c.mu.Lock()
	if c.state.Closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	if _, busy := c.refining[ref]; busy {
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", ref, ErrRefineInFlight)
	}
	points := *pointsOf(&c.state.Item, ref.List)
	if ref.Index < 0 || ref.Index >= len(points) {
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", ref, merge.ErrIndexOutOfRange)
	}
	original := points[ref.Index]
	epoch := c.epoch
	req := requestFor(c.state.Item, merge.RefineContext(c.state.Context, original.Notes, note))
	req.PointText = original.Text
	req.PointList = string(ref.List)
	c.refining[ref] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.refining, ref)
		c.mu.Unlock()
	}()

	text, err := c.gen.RefinePoint(ctx, req)
	if err != nil {
		return fmt.Errorf("refining %s: %w", ref, err)
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.metrics.StaleDiscarded()
		return ErrSessionClosed
	}
	if text == "" {
		c.mu.Unlock()
		c.log.Warn("refinement returned no text", logger.String("point", ref.String()))
		return nil
	}
	list := pointsOf(&c.state.Item, ref.List)
	if ref.Index >= len(*list) || (*list)[ref.Index].Text != original.Text {
		c.mu.Unlock()
		c.metrics.StaleDiscarded()
		return fmt.Errorf("%s: %w", ref, ErrStaleResult)
	}
	updated, err := merge.ApplyRefinement(*list, ref.Index, text)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	*list = updated
	c.mu.Unlock()

	c.log.Debug("point refined", logger.String("point", ref.String()))
	c.writeThrough(ctx, ref.List.field())
	return nil
}

// RefinePending refines every point carrying notes, concurrently. Points
// already refining are skipped. It returns the number of points refined and
// the first error encountered; the other refinements still apply.
func (c *Controller) RefinePending(ctx context.Context) (int, error) {
	c.mu.Lock()
	if c.state.Closed {
		c.mu.Unlock()
		return 0, ErrSessionClosed
	}
	var refs []PointRef
	for _, l := range []List{ListResearch, ListInsights, ListOutline} {
		for i, p := range *pointsOf(&c.state.Item, l) {
			ref := PointRef{List: l, Index: i}
			if _, busy := c.refining[ref]; busy || len(p.Notes) == 0 {
				continue
			}
			refs = append(refs, ref)
		}
	}
	c.mu.Unlock()

	var (
		g       errgroup.Group
		countMu sync.Mutex
		count   int
	)
	g.SetLimit(refineConcurrency)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			err := c.RefinePoint(ctx, ref, "")
			if errors.Is(err, ErrRefineInFlight) {
				return nil
			}
			if err == nil {
				countMu.Lock()
				count++
				countMu.Unlock()
			}
			return err
		})
	}
	err := g.Wait()
	return count, err
}

// batch captures what a batch generation needs once its preconditions hold.
type batch struct {
	step    Step
	epoch   uint64
	item    types.ContentItem
	context string
}

// begin claims the loading slot, moves the cursor to step, records the
// in-progress marker and, on the first generation, moves the item from idea
// to developing. Nothing changes when a check fails.
func (c *Controller) begin(ctx context.Context, step Step, marker types.DevStep, check func(*State) error) (batch, error) {
	c.mu.Lock()
	if c.state.Closed {
		c.mu.Unlock()
		return batch{}, ErrSessionClosed
	}
	if c.state.Loading != "" {
		c.mu.Unlock()
		return batch{}, ErrBusy
	}
	if check != nil {
		if err := check(&c.state); err != nil {
			c.mu.Unlock()
			return batch{}, err
		}
	}
	fields := []string{types.FieldDevStep}
	c.state.Loading = step
	c.state.Step = step
	c.state.Item.DevStep = marker
	if c.state.Item.Stage == types.StageIdea {
		c.state.Item.Stage = types.StageDeveloping
		fields = append(fields, types.FieldStage)
	}
	r := batch{step: step, epoch: c.epoch, item: c.state.Item.Clone(), context: c.state.Context}
	c.mu.Unlock()

	c.log.Debug("generation started", logger.String("step", string(step)))
	c.writeThrough(ctx, fields...)
	return r, nil
}

// finish applies a successful result unless the session closed meanwhile.
func (c *Controller) finish(r batch, apply func(*State)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != r.epoch {
		c.metrics.StaleDiscarded()
		return ErrSessionClosed
	}
	apply(&c.state)
	c.state.Loading = ""
	return nil
}

// fail releases the loading slot. The in-progress marker stays so the step
// can be retried or resumed.
func (c *Controller) fail(r batch, err error) error {
	c.mu.Lock()
	if c.epoch == r.epoch {
		c.state.Loading = ""
	}
	c.mu.Unlock()
	c.log.Warn("generation failed", logger.String("step", string(r.step)), logger.Error(err))
	return fmt.Errorf("generating %s: %w", r.step, err)
}

// writeThrough persists the named fields from the current working copy.
// Failures are reported as warnings; the working copy stays authoritative.
func (c *Controller) writeThrough(ctx context.Context, fields ...string) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	id := c.state.Item.ID
	patch := patchFor(&c.state.Item, fields)
	c.mu.Unlock()

	if _, err := c.store.Update(context.WithoutCancel(ctx), id, patch); err != nil {
		c.metrics.PersistFailed()
		c.log.Warn("write-through failed", logger.Strings("fields", fields), logger.Error(err))
		if c.warn != nil {
			c.warn(fmt.Errorf("saving %s: %w", strings.Join(fields, ", "), err))
		}
	}
}

func patchFor(item *types.ContentItem, fields []string) types.Patch {
	var p types.Patch
	for _, f := range fields {
		switch f {
		case types.FieldHook:
			p.Hook = types.Ptr(item.Hook)
		case types.FieldStage:
			p.Stage = types.Ptr(item.Stage)
		case types.FieldDevStep:
			p.DevStep = types.Ptr(item.DevStep)
		case types.FieldStrategy:
			if item.Strategy != nil {
				p.Strategy = types.Ptr(*item.Strategy)
			}
		case types.FieldResearch:
			p.Research = types.Ptr(types.ClonePoints(item.Research))
		case types.FieldInsights:
			p.Insights = types.Ptr(types.ClonePoints(item.Insights))
		case types.FieldOutline:
			p.Outline = types.Ptr(types.ClonePoints(item.Outline))
		case types.FieldDraftText:
			p.DraftText = types.Ptr(item.DraftText)
		case types.FieldArchived:
			p.Archived = types.Ptr(item.Archived)
		}
	}
	return p
}

func requestFor(item types.ContentItem, instructions string) generate.Request {
	return generate.Request{
		Hook:     item.Hook,
		Strategy: item.Profile(),
		Context:  instructions,
		Research: item.Research,
		Insights: item.Insights,
		Outline:  item.Outline,
	}
}

func joinContext(global, extra string) string {
	global, extra = strings.TrimSpace(global), strings.TrimSpace(extra)
	switch {
	case global == "":
		return extra
	case extra == "":
		return global
	}
	return global + "\n\n" + extra
}
