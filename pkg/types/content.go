// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the content-engine pipeline:
// the persisted ContentItem, its curatable ResearchPoint lists, the strategy
// profile, and the partial-field Patch used for write-through persistence.
package types

import "time"

// Stage is the coarse lifecycle bucket of a ContentItem on the pipeline board.
type Stage string

const (
	StageIdea       Stage = "idea"
	StageDeveloping Stage = "developing"
	StageDraft      Stage = "draft"
	StagePublished  Stage = "published"
)

// Stages lists every stage in board column order.
var Stages = []Stage{StageIdea, StageDeveloping, StageDraft, StagePublished}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	switch s {
	case StageIdea, StageDeveloping, StageDraft, StagePublished:
		return true
	}
	return false
}

// DevStep is the fine-grained marker within the development sub-workflow.
// The zero value means no marker (development not started, or complete).
type DevStep string

const (
	DevStepNone               DevStep = ""
	DevStepDeepDiveInProgress DevStep = "deep_dive_in_progress"
	DevStepDeepDiveComplete   DevStep = "deep_dive_complete"
	DevStepOutlineInProgress  DevStep = "outline_in_progress"
	DevStepOutlineReview      DevStep = "outline_review"
	DevStepDraftInProgress    DevStep = "draft_in_progress"
)

// InProgress reports whether the marker records a generation call that has
// not yet completed successfully.
func (d DevStep) InProgress() bool {
	switch d {
	case DevStepDeepDiveInProgress, DevStepOutlineInProgress, DevStepDraftInProgress:
		return true
	}
	return false
}

// Audience describes who the piece is written for.
type Audience struct {
	// Role is the reader's job or situation (e.g. "staff engineer").
	Role string `json:"role,omitempty" yaml:"role,omitempty"`

	// Pain is the problem the reader is trying to solve.
	Pain string `json:"pain,omitempty" yaml:"pain,omitempty"`
}

// StrategyProfile holds the author-supplied targeting fields. Every field is
// independently optional; an empty string means the field is not set.
type StrategyProfile struct {
	// Outcome is what the reader should do or believe after reading.
	Outcome string `json:"outcome,omitempty" yaml:"outcome,omitempty"`

	Audience Audience `json:"audience" yaml:"audience"`

	// Stance is the author's position on the topic.
	Stance string `json:"stance,omitempty" yaml:"stance,omitempty"`

	// Format is the intended shape of the piece (e.g. "listicle", "essay").
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// ResearchPoint is the atomic curatable unit used in research, insights and
// outline lists.
type ResearchPoint struct {
	// Text is the current content of the point.
	Text string `json:"text" yaml:"text"`

	// Notes are author annotations; each acts as a pending refinement instruction.
	Notes []string `json:"notes,omitempty" yaml:"notes,omitempty"`

	// IsNew marks points added by an append merge that the author has not
	// touched yet.
	IsNew bool `json:"is_new,omitempty" yaml:"is_new,omitempty"`
}

// ContentItem is the persisted unit of work: one piece of in-progress writing.
type ContentItem struct {
	// ID is assigned at creation and never reused.
	ID string `json:"id" yaml:"id"`

	// Hook is the free-text topic description.
	Hook string `json:"hook" yaml:"hook"`

	Stage Stage `json:"stage" yaml:"stage"`

	// DevStep is meaningful only while Stage is developing.
	DevStep DevStep `json:"dev_step,omitempty" yaml:"dev_step,omitempty"`

	Strategy *StrategyProfile `json:"strategy,omitempty" yaml:"strategy,omitempty"`

	// Research holds objective findings. A nil slice means no research batch
	// has ever been generated; an empty slice means one was generated and
	// later curated down to nothing.
	Research []ResearchPoint `json:"research" yaml:"research"`

	// Insights holds strategic synthesis, same shape as Research.
	Insights []ResearchPoint `json:"insights" yaml:"insights"`

	// Outline holds the section instructions for the draft.
	Outline []ResearchPoint `json:"outline" yaml:"outline"`

	// DraftText is the synthesized draft, present once the draft step has run.
	DraftText string `json:"draft_text,omitempty" yaml:"draft_text,omitempty"`

	// Archived removes the item from the active board.
	Archived bool `json:"archived,omitempty" yaml:"archived,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// HasArtifacts reports whether any stage artifact exists on the item.
func (c *ContentItem) HasArtifacts() bool {
	return c.Research != nil || c.Insights != nil || len(c.Outline) > 0 || c.DraftText != ""
}

// Profile returns the strategy profile, or an empty one when none is set.
func (c *ContentItem) Profile() StrategyProfile {
	if c.Strategy == nil {
		return StrategyProfile{}
	}
	return *c.Strategy
}

// Clone returns a deep copy of the item. Point lists keep their nil-ness.
func (c ContentItem) Clone() ContentItem {
	out := c
	if c.Strategy != nil {
		s := *c.Strategy
		out.Strategy = &s
	}
	out.Research = ClonePoints(c.Research)
	out.Insights = ClonePoints(c.Insights)
	out.Outline = ClonePoints(c.Outline)
	return out
}

// ClonePoints deep-copies a point list, preserving a nil input as nil.
func ClonePoints(points []ResearchPoint) []ResearchPoint {
	if points == nil {
		return nil
	}
	out := make([]ResearchPoint, len(points))
	for i, p := range points {
		out[i] = p
		if p.Notes != nil {
			out[i].Notes = append([]string(nil), p.Notes...)
		}
	}
	return out
}
