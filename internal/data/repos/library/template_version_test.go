package library

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/draftwell/draftwell-backend/internal/data/repos/testutil"
	types "github.com/draftwell/draftwell-backend/internal/domain/library"
)

func TestTemplateVersionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	templates := NewTemplateRepo(db, testutil.Logger(t))
	versions := NewTemplateVersionRepo(db, testutil.Logger(t))

	tenantID := uuid.New()
	clause := testutil.SeedClause(t, ctx, tx, tenantID, "Indemnity")
	template := testutil.SeedTemplate(t, ctx, tx, tenantID, "NDA")

	v1 := testutil.SeedTemplateVersion(t, ctx, tx, template, 1, types.StatusDraft, []uuid.UUID{clause.ID})

	v2, err := versions.Create(ctx, tx, &types.TemplateVersion{
		ID:         uuid.New(),
		TemplateID: template.ID,
		TenantID:   tenantID,
		Status:     types.StatusDraft,
		Structure:  v1.Structure,
		Rules:      v1.Rules,
		AuthorID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if v2.VersionNumber != 2 {
		t.Fatalf("expected version 2, got %d", v2.VersionNumber)
	}

	byNumber, err := versions.GetByTemplateAndNumber(ctx, tx, tenantID, template.ID, 2)
	if err != nil {
		t.Fatalf("GetByTemplateAndNumber: %v", err)
	}
	if byNumber == nil || byNumber.ID != v2.ID {
		t.Fatalf("GetByTemplateAndNumber: got %+v", byNumber)
	}

	rows, err := versions.UpdateStatus(ctx, tx, tenantID, v2.ID, types.StatusDraft, types.StatusReview, nil)
	if err != nil || rows != 1 {
		t.Fatalf("UpdateStatus: err=%v rows=%d", err, rows)
	}
	if rows, err = versions.UpdateStatus(ctx, tx, tenantID, v2.ID, types.StatusDraft, types.StatusReview, nil); err != nil || rows != 0 {
		t.Fatalf("stale UpdateStatus: err=%v rows=%d", err, rows)
	}

	if err := templates.SetCurrentPublishedVersion(ctx, tx, tenantID, template.ID, v2.ID); err != nil {
		t.Fatalf("SetCurrentPublishedVersion: %v", err)
	}
	reread, err := templates.GetByID(ctx, tx, tenantID, template.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reread.CurrentPublishedVersionID == nil || *reread.CurrentPublishedVersionID != v2.ID {
		t.Fatalf("published pointer not set: %+v", reread.CurrentPublishedVersionID)
	}
}
