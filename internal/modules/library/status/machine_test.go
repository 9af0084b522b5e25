package status

import (
	"errors"
	"testing"

	"github.com/draftwell/draftwell-backend/internal/domain/library"
)

func TestCanTransition(t *testing.T) {
	all := []library.VersionStatus{
		library.StatusDraft,
		library.StatusReview,
		library.StatusApproved,
		library.StatusPublished,
		library.StatusDeprecated,
	}
	legal := map[library.VersionStatus]map[library.VersionStatus]bool{
		library.StatusDraft:     {library.StatusReview: true},
		library.StatusReview:    {library.StatusApproved: true, library.StatusDraft: true},
		library.StatusApproved:  {library.StatusPublished: true, library.StatusDraft: true},
		library.StatusPublished: {library.StatusDeprecated: true},
	}

	for _, from := range all {
		for _, to := range all {
			want := legal[from][to]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s)=%v, want %v", from, to, got, want)
			}
		}
	}
}

func TestDeprecatedIsTerminal(t *testing.T) {
	if targets := AllowedTargets(library.StatusDeprecated); len(targets) != 0 {
		t.Fatalf("deprecated should have no targets, got %v", targets)
	}
}

func TestCheckReturnsTypedError(t *testing.T) {
	err := Check(library.StatusDraft, library.StatusPublished)
	if err == nil {
		t.Fatal("expected error for draft -> published")
	}
	var transitionErr *InvalidTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected *InvalidTransitionError, got %T", err)
	}
	if transitionErr.From != library.StatusDraft || transitionErr.To != library.StatusPublished {
		t.Fatalf("unexpected error payload: %+v", transitionErr)
	}
	if len(transitionErr.Allowed) != 1 || transitionErr.Allowed[0] != library.StatusReview {
		t.Fatalf("expected allowed=[review], got %v", transitionErr.Allowed)
	}
}

func TestCheckSelfTransitionRejected(t *testing.T) {
	for _, s := range []library.VersionStatus{
		library.StatusDraft,
		library.StatusReview,
		library.StatusApproved,
		library.StatusPublished,
		library.StatusDeprecated,
	} {
		if err := Check(s, s); err == nil {
			t.Errorf("Check(%s, %s) should fail", s, s)
		}
	}
}

func TestAllowedTargetsReturnsCopy(t *testing.T) {
	targets := AllowedTargets(library.StatusReview)
	targets[0] = library.StatusDeprecated
	if CanTransition(library.StatusReview, library.StatusDeprecated) {
		t.Fatal("mutating AllowedTargets result must not change the table")
	}
}
