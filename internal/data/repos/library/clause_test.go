package library

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/draftwell/draftwell-backend/internal/data/repos/testutil"
	types "github.com/draftwell/draftwell-backend/internal/domain/library"
)

func TestClauseRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewClauseRepo(db, testutil.Logger(t))

	tenantA := uuid.New()
	tenantB := uuid.New()

	indemnity := &types.Clause{ID: uuid.New(), TenantID: tenantA, Key: "Indemnity", Title: "Indemnity"}
	liability := &types.Clause{ID: uuid.New(), TenantID: tenantA, Key: "Liability-Cap", Title: "Liability Cap"}
	other := &types.Clause{ID: uuid.New(), TenantID: tenantB, Key: "Indemnity", Title: "Indemnity (other tenant)"}

	created, err := repo.Create(ctx, tx, []*types.Clause{indemnity, liability, other})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("Create: expected 3, got %d", len(created))
	}

	got, err := repo.GetByID(ctx, tx, tenantA, indemnity.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Key != "Indemnity" {
		t.Fatalf("GetByID: got %+v", got)
	}

	// The same id under the wrong tenant is simply absent.
	if got, err := repo.GetByID(ctx, tx, tenantB, indemnity.ID); err != nil || got != nil {
		t.Fatalf("cross-tenant GetByID: err=%v got=%+v", err, got)
	}

	// Keys are unique per tenant, not globally.
	byKey, err := repo.GetByKey(ctx, tx, tenantB, "Indemnity")
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if byKey == nil || byKey.ID != other.ID {
		t.Fatalf("GetByKey: expected %v, got %+v", other.ID, byKey)
	}
	if missing, err := repo.GetByKey(ctx, tx, tenantA, "Nonexistent"); err != nil || missing != nil {
		t.Fatalf("GetByKey miss: err=%v got=%+v", err, missing)
	}

	listed, err := repo.ListByTenant(ctx, tx, tenantA)
	if err != nil {
		t.Fatalf("ListByTenant: %v", err)
	}
	if len(listed) != 2 || listed[0].Key != "Indemnity" || listed[1].Key != "Liability-Cap" {
		t.Fatalf("ListByTenant: got %d rows, order %+v", len(listed), listed)
	}

	versionID := uuid.New()
	if err := repo.SetCurrentPublishedVersion(ctx, tx, tenantA, indemnity.ID, versionID); err != nil {
		t.Fatalf("SetCurrentPublishedVersion: %v", err)
	}
	got, err = repo.GetByID(ctx, tx, tenantA, indemnity.ID)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if got.CurrentPublishedVersionID == nil || *got.CurrentPublishedVersionID != versionID {
		t.Fatalf("published pointer not set: %+v", got.CurrentPublishedVersionID)
	}
}
