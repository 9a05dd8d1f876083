// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge combines freshly generated batches with curated point lists
// and applies single-point edits. Every function is copy-on-write: inputs
// are never modified, so callers may keep earlier lists as immutable
// snapshots.
package merge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/content-engine/pkg/types"
)

// Policy selects how a new batch is combined with an existing list.
type Policy string

const (
	// PolicyReplace discards the current list and installs the batch verbatim.
	PolicyReplace Policy = "replace"

	// PolicyAppend keeps the current list and appends the batch tagged as new.
	PolicyAppend Policy = "append"
)

// ParsePolicy converts a flag value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyReplace, "":
		return PolicyReplace, nil
	case PolicyAppend:
		return PolicyAppend, nil
	}
	return "", fmt.Errorf("unknown merge policy %q: use replace or append", s)
}

// ErrIndexOutOfRange is returned when a point index does not exist.
var ErrIndexOutOfRange = errors.New("point index out of range")

// FromTexts builds points from generated strings, dropping blank entries.
// The result is never nil.
func FromTexts(texts []string) []types.ResearchPoint {
	points := make([]types.ResearchPoint, 0, len(texts))
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		points = append(points, types.ResearchPoint{Text: t})
	}
	return points
}

// Apply merges batch into current under policy.
func Apply(policy Policy, current, batch []types.ResearchPoint) []types.ResearchPoint {
	if policy == PolicyAppend {
		return Append(current, batch)
	}
	return Replace(batch)
}

// Replace installs batch verbatim with IsNew cleared. The result is never nil.
func Replace(batch []types.ResearchPoint) []types.ResearchPoint {
	out := make([]types.ResearchPoint, len(batch))
	for i, p := range batch {
		out[i] = types.ResearchPoint{Text: p.Text, Notes: copyNotes(p.Notes)}
	}
	return out
}

// Append returns current followed by batch. Existing points keep their
// order, index, notes and flags; appended points are tagged IsNew with no
// notes.
func Append(current, batch []types.ResearchPoint) []types.ResearchPoint {
	out := make([]types.ResearchPoint, 0, len(current)+len(batch))
	out = append(out, types.ClonePoints(current)...)
	for _, p := range batch {
		out = append(out, types.ResearchPoint{Text: p.Text, IsNew: true})
	}
	return out
}

// ApplyRefinement replaces only the text of the point at index. Notes and
// IsNew of that point, and every other point, are left untouched.
func ApplyRefinement(list []types.ResearchPoint, index int, text string) ([]types.ResearchPoint, error) {
	return update(list, index, func(p *types.ResearchPoint) {
		p.Text = text
	})
}

// RefineContext combines the global session context, the point's notes and
// an optional new note into the instruction sent with a refine request.
func RefineContext(global string, notes []string, note string) string {
	var parts []string
	if g := strings.TrimSpace(global); g != "" {
		parts = append(parts, "Session context: "+g)
	}
	var pending []string
	for _, n := range notes {
		if n = strings.TrimSpace(n); n != "" {
			pending = append(pending, n)
		}
	}
	if n := strings.TrimSpace(note); n != "" {
		pending = append(pending, n)
	}
	if len(pending) > 0 {
		var b strings.Builder
		b.WriteString("Author notes:")
		for _, n := range pending {
			b.WriteString("\n- ")
			b.WriteString(n)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}

// Edit replaces the text of a point and acknowledges it.
func Edit(list []types.ResearchPoint, index int, text string) ([]types.ResearchPoint, error) {
	return update(list, index, func(p *types.ResearchPoint) {
		p.Text = text
		p.IsNew = false
	})
}

// AddNote appends an author note to a point and acknowledges it.
func AddNote(list []types.ResearchPoint, index int, note string) ([]types.ResearchPoint, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, errors.New("note is empty")
	}
	return update(list, index, func(p *types.ResearchPoint) {
		p.Notes = append(p.Notes, note)
		p.IsNew = false
	})
}

// RemoveNote deletes one note from a point.
func RemoveNote(list []types.ResearchPoint, index, noteIndex int) ([]types.ResearchPoint, error) {
	if index >= 0 && index < len(list) && (noteIndex < 0 || noteIndex >= len(list[index].Notes)) {
		return nil, fmt.Errorf("note %d of point %d: %w", noteIndex, index, ErrIndexOutOfRange)
	}
	return update(list, index, func(p *types.ResearchPoint) {
		p.Notes = append(p.Notes[:noteIndex:noteIndex], p.Notes[noteIndex+1:]...)
	})
}

// Dismiss clears the IsNew flag of a point.
func Dismiss(list []types.ResearchPoint, index int) ([]types.ResearchPoint, error) {
	return update(list, index, func(p *types.ResearchPoint) {
		p.IsNew = false
	})
}

// Delete removes a point. Later points shift down by one.
func Delete(list []types.ResearchPoint, index int) ([]types.ResearchPoint, error) {
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("point %d of %d: %w", index, len(list), ErrIndexOutOfRange)
	}
	out := make([]types.ResearchPoint, 0, len(list)-1)
	out = append(out, types.ClonePoints(list[:index])...)
	out = append(out, types.ClonePoints(list[index+1:])...)
	return out, nil
}

// Insert adds an author-created point at index (len(list) appends).
func Insert(list []types.ResearchPoint, index int, text string) ([]types.ResearchPoint, error) {
	if index < 0 || index > len(list) {
		return nil, fmt.Errorf("insert at %d of %d: %w", index, len(list), ErrIndexOutOfRange)
	}
	out := make([]types.ResearchPoint, 0, len(list)+1)
	out = append(out, types.ClonePoints(list[:index])...)
	out = append(out, types.ResearchPoint{Text: strings.TrimSpace(text)})
	out = append(out, types.ClonePoints(list[index:])...)
	return out, nil
}

// update copies list and applies fn to the point at index.
func update(list []types.ResearchPoint, index int, fn func(p *types.ResearchPoint)) ([]types.ResearchPoint, error) {
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("point %d of %d: %w", index, len(list), ErrIndexOutOfRange)
	}
	out := types.ClonePoints(list)
	fn(&out[index])
	return out, nil
}

func copyNotes(notes []string) []string {
	if notes == nil {
		return nil
	}
	return append([]string(nil), notes...)
}
