// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"fmt"
	"sort"

	"github.com/pdiddy/content-engine/internal/strategy"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Step is the wizard cursor.
type Step string

const (
	StepResearch Step = "research"
	StepOutline  Step = "outline"
	StepDraft    Step = "draft"
)

// Steps lists the wizard steps in order.
var Steps = []Step{StepResearch, StepOutline, StepDraft}

func (s Step) index() int {
	for i, st := range Steps {
		if st == s {
			return i
		}
	}
	return -1
}

// ParseStep converts a name to a Step.
func ParseStep(s string) (Step, error) {
	if st := Step(s); st.index() >= 0 {
		return st, nil
	}
	return "", fmt.Errorf("unknown step %q: use research, outline, or draft", s)
}

// List names one of the curatable point lists.
type List string

const (
	ListResearch List = "research"
	ListInsights List = "insights"
	ListOutline  List = "outline"
)

// ParseList converts a name to a List.
func ParseList(s string) (List, error) {
	switch l := List(s); l {
	case ListResearch, ListInsights, ListOutline:
		return l, nil
	}
	return "", fmt.Errorf("unknown list %q: use research, insights, or outline", s)
}

func (l List) field() string {
	switch l {
	case ListInsights:
		return types.FieldInsights
	case ListOutline:
		return types.FieldOutline
	default:
		return types.FieldResearch
	}
}

// PointRef addresses one point.
type PointRef struct {
	List  List
	Index int
}

func (r PointRef) String() string {
	return fmt.Sprintf("%s[%d]", r.List, r.Index)
}

// Resume is the generation a hydrated session owes the author.
type Resume string

const (
	ResumeNone     Resume = ""
	ResumeResearch Resume = "research"
	ResumeOutline  Resume = "outline"
	ResumeDraft    Resume = "draft"
)

// State is an immutable snapshot of a session. The controller replaces it
// on every transition; callers receive copies.
type State struct {
	Item             types.ContentItem
	Step             Step
	OutlineApproved  bool
	Context          string
	ResearchUnlocked bool

	// Loading is the step currently generating, or empty.
	Loading Step

	// Refining lists the points with a refinement in flight.
	Refining []PointRef

	Pending Resume
	Closed  bool
}

// IsRefining reports whether ref has a refinement in flight.
func (s State) IsRefining(ref PointRef) bool {
	for _, r := range s.Refining {
		if r == ref {
			return true
		}
	}
	return false
}

// Strategy evaluates the working copy's strategy profile.
func (s State) Strategy() strategy.Snapshot {
	return strategy.EvaluateItem(s.Item)
}

// Points returns the list named by l.
func (s State) Points(l List) []types.ResearchPoint {
	return *pointsOf(&s.Item, l)
}

func pointsOf(item *types.ContentItem, l List) *[]types.ResearchPoint {
	switch l {
	case ListInsights:
		return &item.Insights
	case ListOutline:
		return &item.Outline
	default:
		return &item.Research
	}
}

// markerSteps maps every development marker to exactly one step.
var markerSteps = map[types.DevStep]Step{
	types.DevStepDeepDiveInProgress: StepResearch,
	types.DevStepDeepDiveComplete:   StepResearch,
	types.DevStepOutlineInProgress:  StepOutline,
	types.DevStepOutlineReview:      StepOutline,
	types.DevStepDraftInProgress:    StepDraft,
}

// Hydrate reconstructs the session for a stored item. It is pure.
func Hydrate(item types.ContentItem) State {
	item = item.Clone()
	st := State{
		Item:             item,
		ResearchUnlocked: item.Research != nil || item.Insights != nil,
	}

	if step, ok := markerSteps[item.DevStep]; ok {
		st.Step = step
	} else {
		switch {
		case item.DraftText != "":
			st.Step = StepDraft
		case len(item.Outline) > 0:
			st.Step = StepOutline
		default:
			st.Step = StepResearch
		}
	}

	// A draft marker or an existing draft means the outline was approved.
	st.OutlineApproved = item.DevStep == types.DevStepDraftInProgress || item.DraftText != ""

	switch item.DevStep {
	case types.DevStepNone:
		if !item.HasArtifacts() {
			st.Pending = ResumeResearch
		}
	case types.DevStepDeepDiveInProgress:
		st.Pending = ResumeResearch
	case types.DevStepOutlineInProgress:
		st.Pending = ResumeOutline
	case types.DevStepDraftInProgress:
		if item.DraftText == "" {
			st.Pending = ResumeDraft
		}
	}
	return st
}

func (s State) clone() State {
	out := s
	out.Item = s.Item.Clone()
	out.Refining = append([]PointRef(nil), s.Refining...)
	return out
}

func sortedRefs(m map[PointRef]struct{}) []PointRef {
	refs := make([]PointRef, 0, len(m))
	for r := range m {
		refs = append(refs, r)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].List != refs[j].List {
			return refs[i].List < refs[j].List
		}
		return refs[i].Index < refs[j].Index
	})
	return refs
}
