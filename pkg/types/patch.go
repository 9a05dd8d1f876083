// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Patch is a partial-field update of a ContentItem. Only non-nil fields are
// written; everything else is left as stored.
type Patch struct {
	Hook  *string
	Stage *Stage

	// DevStep set to a pointer to DevStepNone clears the marker.
	DevStep *DevStep

	Strategy *StrategyProfile

	// Research, Insights and Outline point at the full replacement list. A
	// pointer to a nil slice stores null.
	Research *[]ResearchPoint
	Insights *[]ResearchPoint
	Outline  *[]ResearchPoint

	DraftText *string
	Archived  *bool
}

// Patch field names, shared by store implementations and log output.
const (
	FieldHook      = "hook"
	FieldStage     = "stage"
	FieldDevStep   = "dev_step"
	FieldStrategy  = "strategy"
	FieldResearch  = "research"
	FieldInsights  = "insights"
	FieldOutline   = "outline"
	FieldDraftText = "draft_text"
	FieldArchived  = "archived"
)

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields returns the names of the fields the patch sets, in a fixed order.
func (p Patch) Fields() []string {
	var fields []string
	if p.Hook != nil {
		fields = append(fields, FieldHook)
	}
	if p.Stage != nil {
		fields = append(fields, FieldStage)
	}
	if p.DevStep != nil {
		fields = append(fields, FieldDevStep)
	}
	if p.Strategy != nil {
		fields = append(fields, FieldStrategy)
	}
	if p.Research != nil {
		fields = append(fields, FieldResearch)
	}
	if p.Insights != nil {
		fields = append(fields, FieldInsights)
	}
	if p.Outline != nil {
		fields = append(fields, FieldOutline)
	}
	if p.DraftText != nil {
		fields = append(fields, FieldDraftText)
	}
	if p.Archived != nil {
		fields = append(fields, FieldArchived)
	}
	return fields
}

// Apply writes the patch onto item in place.
func (p Patch) Apply(item *ContentItem) {
	if p.Hook != nil {
		item.Hook = *p.Hook
	}
	if p.Stage != nil {
		item.Stage = *p.Stage
	}
	if p.DevStep != nil {
		item.DevStep = *p.DevStep
	}
	if p.Strategy != nil {
		s := *p.Strategy
		item.Strategy = &s
	}
	if p.Research != nil {
		item.Research = ClonePoints(*p.Research)
	}
	if p.Insights != nil {
		item.Insights = ClonePoints(*p.Insights)
	}
	if p.Outline != nil {
		item.Outline = ClonePoints(*p.Outline)
	}
	if p.DraftText != nil {
		item.DraftText = *p.DraftText
	}
	if p.Archived != nil {
		item.Archived = *p.Archived
	}
}

// Merge overlays other onto p; fields set in other win.
func (p Patch) Merge(other Patch) Patch {
	out := p
	if other.Hook != nil {
		out.Hook = other.Hook
	}
	if other.Stage != nil {
		out.Stage = other.Stage
	}
	if other.DevStep != nil {
		out.DevStep = other.DevStep
	}
	if other.Strategy != nil {
		out.Strategy = other.Strategy
	}
	if other.Research != nil {
		out.Research = other.Research
	}
	if other.Insights != nil {
		out.Insights = other.Insights
	}
	if other.Outline != nil {
		out.Outline = other.Outline
	}
	if other.DraftText != nil {
		out.DraftText = other.DraftText
	}
	if other.Archived != nil {
		out.Archived = other.Archived
	}
	return out
}

// Ptr returns a pointer to v. It keeps patch construction terse.
func Ptr[T any](v T) *T {
	return &v
}
