package status

import (
	"fmt"

	"github.com/draftwell/draftwell-backend/internal/domain/library"
)

// transitions is the full lifecycle table. A status not present as a key is
// terminal. review and approved may fall back to draft for rework; content
// is still never edited in place, rework means a new version.
var transitions = map[library.VersionStatus][]library.VersionStatus{
	library.StatusDraft:     {library.StatusReview},
	library.StatusReview:    {library.StatusApproved, library.StatusDraft},
	library.StatusApproved:  {library.StatusPublished, library.StatusDraft},
	library.StatusPublished: {library.StatusDeprecated},
}

// AllowedTargets returns the legal targets from a given status, in table
// order. The returned slice is a copy.
func AllowedTargets(from library.VersionStatus) []library.VersionStatus {
	targets := transitions[from]
	out := make([]library.VersionStatus, len(targets))
	copy(out, targets)
	return out
}

func CanTransition(from, to library.VersionStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// InvalidTransitionError reports an illegal transition together with the
// allowed target set so callers can render an actionable message.
type InvalidTransitionError struct {
	From    library.VersionStatus
	To      library.VersionStatus
	Allowed []library.VersionStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition %s -> %s (allowed: %v)", e.From, e.To, e.Allowed)
}

// Check returns nil when from -> to is legal, otherwise an
// *InvalidTransitionError carrying the allowed set.
func Check(from, to library.VersionStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return &InvalidTransitionError{From: from, To: to, Allowed: AllowedTargets(from)}
}
