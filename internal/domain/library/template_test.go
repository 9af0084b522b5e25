package library

import (
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestStructureClauseIDsDedup(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	s := TemplateStructure{
		Sections: []TemplateSection{
			{Key: "core", Slots: []TemplateSlot{
				{Key: "s1", ClauseID: a},
				{Key: "s2", ClauseID: b},
			}},
			{Key: "annex", Slots: []TemplateSlot{
				{Key: "s3", ClauseID: a, Optional: true},
			}},
		},
	}

	got := s.ClauseIDs()
	if !reflect.DeepEqual(got, []uuid.UUID{a, b}) {
		t.Fatalf("ClauseIDs: got %v, want [%v %v]", got, a, b)
	}
}

func TestParseStructureRejectsNilClause(t *testing.T) {
	raw, err := MarshalStructure(TemplateStructure{
		Sections: []TemplateSection{
			{Key: "core", Slots: []TemplateSlot{{Key: "s1"}}},
		},
	})
	if err != nil {
		t.Fatalf("MarshalStructure: %v", err)
	}

	if _, err := ParseStructure(raw); err == nil || !strings.Contains(err.Error(), "clause_id") {
		t.Fatalf("expected clause_id error, got %v", err)
	}
}

func TestStructureRoundTrip(t *testing.T) {
	a := uuid.New()
	in := TemplateStructure{
		Sections: []TemplateSection{
			{Key: "core", Title: "Core Terms", Slots: []TemplateSlot{{Key: "s1", ClauseID: a}}},
		},
	}
	raw, err := MarshalStructure(in)
	if err != nil {
		t.Fatalf("MarshalStructure: %v", err)
	}
	out, err := ParseStructure(raw)
	if err != nil {
		t.Fatalf("ParseStructure: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", in, out)
	}
}
