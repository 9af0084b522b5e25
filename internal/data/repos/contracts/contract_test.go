package contracts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/draftwell/draftwell-backend/internal/data/repos/testutil"
	types "github.com/draftwell/draftwell-backend/internal/domain/contracts"
	librarytypes "github.com/draftwell/draftwell-backend/internal/domain/library"
)

func TestContractRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewContractRepo(db, testutil.Logger(t))

	tenantID := uuid.New()
	ownerID := uuid.New()
	clause := testutil.SeedClause(t, ctx, tx, tenantID, "Indemnity")
	clauseVersion := testutil.SeedClauseVersion(t, ctx, tx, clause, 1, librarytypes.StatusPublished, nil)
	template := testutil.SeedTemplate(t, ctx, tx, tenantID, "NDA")
	templateVersion := testutil.SeedTemplateVersion(t, ctx, tx, template, 1, librarytypes.StatusPublished, []uuid.UUID{clause.ID})

	refs := []types.ClauseVersionRef{{ClauseID: clause.ID, VersionID: clauseVersion.ID, VersionNumber: clauseVersion.VersionNumber}}
	contract := testutil.SeedContract(t, ctx, tx, tenantID, ownerID, templateVersion.ID, refs)

	got, err := repo.GetByID(ctx, tx, tenantID, contract.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Status != types.ContractDraft {
		t.Fatalf("GetByID: got %+v", got)
	}
	if got, err := repo.GetByID(ctx, tx, uuid.New(), contract.ID); err != nil || got != nil {
		t.Fatalf("cross-tenant GetByID: err=%v got=%+v", err, got)
	}

	listed, err := repo.ListByOwner(ctx, tx, tenantID, ownerID)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != contract.ID {
		t.Fatalf("ListByOwner: %+v", listed)
	}
	if other, err := repo.ListByOwner(ctx, tx, tenantID, uuid.New()); err != nil || len(other) != 0 {
		t.Fatalf("foreign owner ListByOwner: err=%v len=%d", err, len(other))
	}

	rows, err := repo.UpdateDraft(ctx, tx, tenantID, contract.ID, map[string]interface{}{
		"answers": datatypes.JSON([]byte(`{"dataProcessing":"yes"}`)),
	})
	if err != nil || rows != 1 {
		t.Fatalf("UpdateDraft: err=%v rows=%d", err, rows)
	}

	report := datatypes.JSON([]byte("[]"))
	rows, err = repo.SetValidation(ctx, tx, tenantID, contract.ID, types.ValidationValid, report)
	if err != nil || rows != 1 {
		t.Fatalf("SetValidation: err=%v rows=%d", err, rows)
	}

	completedAt := time.Now().UTC()
	rows, err = repo.Complete(ctx, tx, tenantID, contract.ID, types.ValidationValid, report, completedAt)
	if err != nil || rows != 1 {
		t.Fatalf("Complete: err=%v rows=%d", err, rows)
	}

	got, err = repo.GetByID(ctx, tx, tenantID, contract.ID)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if got.Status != types.ContractCompleted || got.CompletedAt == nil {
		t.Fatalf("contract not completed: %+v", got)
	}

	// Completed contracts are immutable at the storage layer.
	rows, err = repo.UpdateDraft(ctx, tx, tenantID, contract.ID, map[string]interface{}{
		"answers": datatypes.JSON([]byte(`{"dataProcessing":"no"}`)),
	})
	if err != nil || rows != 0 {
		t.Fatalf("UpdateDraft on completed: err=%v rows=%d", err, rows)
	}
	rows, err = repo.Complete(ctx, tx, tenantID, contract.ID, types.ValidationValid, report, completedAt)
	if err != nil || rows != 0 {
		t.Fatalf("double Complete: err=%v rows=%d", err, rows)
	}
}
