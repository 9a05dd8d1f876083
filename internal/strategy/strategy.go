// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package strategy scores a content item's strategy profile and decides
// whether the author may proceed from outline to draft. Everything here is
// pure: the snapshot is recomputed from the profile on every read.
package strategy

import (
	"strings"

	"github.com/pdiddy/content-engine/pkg/types"
)

// Label is the qualitative reading of a strategy score.
type Label string

const (
	LabelPrecise    Label = "precise"
	LabelSharpening Label = "sharpening"
	LabelVague      Label = "vague"
)

// Field weights. They sum to 100.
const (
	WeightAudience = 35
	WeightOutcome  = 20
	WeightFormat   = 20
	WeightStance   = 15
	WeightResearch = 10
)

const (
	preciseThreshold    = 85
	sharpeningThreshold = 60
)

// Human-readable descriptions of unmet conditions, surfaced as next actions.
const (
	MissingAudience = "Audience (who the reader is and the pain they feel)"
	MissingOutcome  = "Outcome goal (what the reader should do or believe)"
	MissingFormat   = "Format (the shape of the piece)"
	MissingStance   = "Stance (your position on the topic)"
	MissingResearch = "Research (run a deep dive first)"
)

// Snapshot is the evaluator output. It is never persisted.
type Snapshot struct {
	Score   int      `json:"score" yaml:"score"`
	Label   Label    `json:"label" yaml:"label"`
	Missing []string `json:"missing" yaml:"missing"`
}

// NextAction returns the most important missing field, or "" when nothing
// is missing.
func (s Snapshot) NextAction() string {
	if len(s.Missing) == 0 {
		return ""
	}
	return s.Missing[0]
}

type criterion struct {
	weight  int
	missing string
	met     func(p types.StrategyProfile, hasResearch bool) bool
}

// criteria is ordered by weight; Missing follows this order.
var criteria = []criterion{
	{WeightAudience, MissingAudience, func(p types.StrategyProfile, _ bool) bool {
		return present(p.Audience.Role) && present(p.Audience.Pain)
	}},
	{WeightOutcome, MissingOutcome, func(p types.StrategyProfile, _ bool) bool {
		return present(p.Outcome)
	}},
	{WeightFormat, MissingFormat, func(p types.StrategyProfile, _ bool) bool {
		return present(p.Format)
	}},
	{WeightStance, MissingStance, func(p types.StrategyProfile, _ bool) bool {
		return present(p.Stance)
	}},
	{WeightResearch, MissingResearch, func(_ types.StrategyProfile, hasResearch bool) bool {
		return hasResearch
	}},
}

// Evaluate scores a profile. hasResearch reports whether any research
// exists for the item.
func Evaluate(profile types.StrategyProfile, hasResearch bool) Snapshot {
	snap := Snapshot{Missing: []string{}}
	for _, c := range criteria {
		if c.met(profile, hasResearch) {
			snap.Score += c.weight
			continue
		}
		snap.Missing = append(snap.Missing, c.missing)
	}
	snap.Label = labelFor(snap.Score)
	return snap
}

// EvaluateItem scores an item's profile, counting research or insights
// points as research.
func EvaluateItem(item types.ContentItem) Snapshot {
	return Evaluate(item.Profile(), len(item.Research) > 0 || len(item.Insights) > 0)
}

func labelFor(score int) Label {
	switch {
	case score >= preciseThreshold:
		return LabelPrecise
	case score >= sharpeningThreshold:
		return LabelSharpening
	default:
		return LabelVague
	}
}

// DraftGate returns the descriptions of the fields that must be present
// before drafting without an explicit override: the audience (role and
// pain) and the outcome. An empty result means the gate is open.
func DraftGate(profile types.StrategyProfile) []string {
	var missing []string
	if !present(profile.Audience.Role) || !present(profile.Audience.Pain) {
		missing = append(missing, MissingAudience)
	}
	if !present(profile.Outcome) {
		missing = append(missing, MissingOutcome)
	}
	return missing
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
