package contracts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/draftwell/draftwell-backend/internal/domain/library"
)

type ContractStatus string

const (
	ContractDraft     ContractStatus = "draft"
	ContractCompleted ContractStatus = "completed"
	ContractArchived  ContractStatus = "archived"
)

type ValidationState string

const (
	ValidationValid     ValidationState = "valid"
	ValidationWarnings  ValidationState = "has_warnings"
	ValidationConflicts ValidationState = "has_conflicts"
)

// ClauseVersionRef pins one clause to an exact immutable version. The set of
// refs is resolved when the contract is created and is never re-resolved at
// completion, so a completed contract re-renders byte-identically forever.
type ClauseVersionRef struct {
	ClauseID      uuid.UUID `json:"clause_id"`
	VersionID     uuid.UUID `json:"version_id"`
	VersionNumber int       `json:"version_number"`
}

// ContractInstance is a mutable draft that freezes into an immutable
// snapshot at completion. Answers and the selected-clause subset may change
// while status is draft; the pinned refs may only change through the
// explicit refresh-pins operation.
type ContractInstance struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	OwnerID  uuid.UUID `gorm:"type:uuid;column:owner_id;not null;index" json:"owner_id"`

	TemplateVersionID uuid.UUID                `gorm:"type:uuid;column:template_version_id;not null;index" json:"template_version_id"`
	TemplateVersion   *library.TemplateVersion `gorm:"foreignKey:TemplateVersionID;references:ID" json:"template_version,omitempty"`

	ClauseVersionRefs datatypes.JSON `gorm:"column:clause_version_refs;type:jsonb" json:"clause_version_refs,omitempty"`
	SelectedClauseIDs datatypes.JSON `gorm:"column:selected_clause_ids;type:jsonb" json:"selected_clause_ids,omitempty"`
	Answers           datatypes.JSON `gorm:"column:answers;type:jsonb" json:"answers,omitempty"`

	Jurisdiction string `gorm:"column:jurisdiction" json:"jurisdiction,omitempty"`
	ContractType string `gorm:"column:contract_type" json:"contract_type,omitempty"`

	ValidationState  ValidationState `gorm:"column:validation_state;not null;default:'valid'" json:"validation_state"`
	ValidationReport datatypes.JSON  `gorm:"column:validation_report;type:jsonb" json:"validation_report,omitempty"`

	Status      ContractStatus `gorm:"column:status;not null;default:'draft';index" json:"status"`
	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ContractInstance) TableName() string { return "contract_instance" }

func ParseRefs(raw datatypes.JSON) ([]ClauseVersionRef, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var refs []ClauseVersionRef
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil, fmt.Errorf("decode clause version refs: %w", err)
	}
	return refs, nil
}

func MarshalRefs(refs []ClauseVersionRef) (datatypes.JSON, error) {
	if refs == nil {
		refs = []ClauseVersionRef{}
	}
	raw, err := json.Marshal(refs)
	if err != nil {
		return nil, fmt.Errorf("encode clause version refs: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func ParseSelection(raw datatypes.JSON) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode selection: %w", err)
	}
	return ids, nil
}

func MarshalSelection(ids []uuid.UUID) (datatypes.JSON, error) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("encode selection: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func ParseAnswers(raw datatypes.JSON) (map[string]string, error) {
	if len(raw) == 0 {
		return map[string]string{}, nil
	}
	var answers map[string]string
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if answers == nil {
		answers = map[string]string{}
	}
	return answers, nil
}

func MarshalAnswers(answers map[string]string) (datatypes.JSON, error) {
	if answers == nil {
		answers = map[string]string{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	return datatypes.JSON(raw), nil
}
