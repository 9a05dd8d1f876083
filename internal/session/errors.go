// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/content-engine/internal/strategy"
)

var (
	// ErrBusy is returned when a batch generation is already running.
	ErrBusy = errors.New("a generation is already in progress")

	// ErrResearchLocked is returned when advancing before any research ran.
	ErrResearchLocked = errors.New("run research before moving to the outline")

	// ErrNoResearch is returned instead of generating an outline from
	// empty research and insights lists.
	ErrNoResearch = errors.New("research and insights are both empty")

	// ErrOutlineNotApproved is returned when drafting an unapproved outline.
	ErrOutlineNotApproved = errors.New("approve the outline before drafting")

	// ErrNoOutline is returned when approving an empty outline.
	ErrNoOutline = errors.New("there is no outline to approve")

	// ErrGateBlocked is matched by every *GateError.
	ErrGateBlocked = errors.New("strategy is too vague to draft")

	// ErrNoDraft is returned when completing before a draft exists.
	ErrNoDraft = errors.New("there is no draft to save")

	// ErrRefineInFlight is returned when a point is already refining.
	ErrRefineInFlight = errors.New("point is already being refined")

	// ErrStaleResult is returned when a refinement finished after its point
	// was edited, moved or deleted. The result is discarded.
	ErrStaleResult = errors.New("point changed while refining; result discarded")

	// ErrSessionClosed is returned by a closed session and by calls whose
	// results arrived after Close.
	ErrSessionClosed = errors.New("session is closed")

	// ErrStepLocked is returned when navigating to a step with no artifacts.
	ErrStepLocked = errors.New("step has not been reached yet")

	// ErrFirstStep is returned by Back on the research step.
	ErrFirstStep = errors.New("already at the first step")
)

// GateError reports the strategy fields that block drafting.
type GateError struct {
	Snapshot strategy.Snapshot
	Missing  []string
}

func (e *GateError) Error() string {
	return fmt.Sprintf("%s: missing %s", ErrGateBlocked, strings.Join(e.Missing, "; "))
}

// Is makes errors.Is(err, ErrGateBlocked) true.
func (e *GateError) Is(target error) bool {
	return target == ErrGateBlocked
}
