package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/draftwell/draftwell-backend/internal/domain"
)

func SeedClause(tb testing.TB, ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, key string) *types.Clause {
	tb.Helper()
	c := &types.Clause{
		ID:       uuid.New(),
		TenantID: tenantID,
		Key:      key,
		Title:    key,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed clause: %v", err)
	}
	return c
}

func SeedClauseVersion(tb testing.TB, ctx context.Context, tx *gorm.DB, clause *types.Clause, number int, status types.VersionStatus, rules []types.Rule) *types.ClauseVersion {
	tb.Helper()
	raw, err := types.NormalizeRules(rules)
	if err != nil {
		tb.Fatalf("normalize rules: %v", err)
	}
	v := &types.ClauseVersion{
		ID:            uuid.New(),
		ClauseID:      clause.ID,
		TenantID:      clause.TenantID,
		VersionNumber: number,
		Status:        status,
		Body:          "body of " + clause.Key,
		Rules:         raw,
		AuthorID:      uuid.New(),
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed clause version: %v", err)
	}
	return v
}

func SeedTemplate(tb testing.TB, ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, key string) *types.Template {
	tb.Helper()
	tpl := &types.Template{
		ID:       uuid.New(),
		TenantID: tenantID,
		Key:      key,
		Title:    key,
	}
	if err := tx.WithContext(ctx).Create(tpl).Error; err != nil {
		tb.Fatalf("seed template: %v", err)
	}
	return tpl
}

func SeedTemplateVersion(tb testing.TB, ctx context.Context, tx *gorm.DB, template *types.Template, number int, status types.VersionStatus, slotClauses []uuid.UUID) *types.TemplateVersion {
	tb.Helper()
	slots := make([]types.TemplateSlot, 0, len(slotClauses))
	for i, id := range slotClauses {
		slots = append(slots, types.TemplateSlot{Key: "slot-" + string(rune('a'+i)), ClauseID: id})
	}
	structure, err := types.MarshalStructure(types.TemplateStructure{
		Sections: []types.TemplateSection{{Key: "main", Title: "Main", Slots: slots}},
	})
	if err != nil {
		tb.Fatalf("marshal structure: %v", err)
	}
	rules, err := types.NormalizeRules(nil)
	if err != nil {
		tb.Fatalf("normalize rules: %v", err)
	}
	v := &types.TemplateVersion{
		ID:            uuid.New(),
		TemplateID:    template.ID,
		TenantID:      template.TenantID,
		VersionNumber: number,
		Status:        status,
		Structure:     structure,
		Rules:         rules,
		AuthorID:      uuid.New(),
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed template version: %v", err)
	}
	return v
}

func SeedContract(tb testing.TB, ctx context.Context, tx *gorm.DB, tenantID, ownerID uuid.UUID, templateVersionID uuid.UUID, refs []types.ClauseVersionRef) *types.ContractInstance {
	tb.Helper()
	rawRefs, err := types.MarshalRefs(refs)
	if err != nil {
		tb.Fatalf("marshal refs: %v", err)
	}
	c := &types.ContractInstance{
		ID:                uuid.New(),
		TenantID:          tenantID,
		OwnerID:           ownerID,
		TemplateVersionID: templateVersionID,
		ClauseVersionRefs: rawRefs,
		Answers:           datatypes.JSON([]byte("{}")),
		Status:            types.ContractDraft,
		ValidationState:   types.ValidationValid,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed contract: %v", err)
	}
	return c
}
