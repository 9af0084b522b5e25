package library

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Template is the stable logical identity of a composite document built
// from clause slots.
type Template struct {
	ID                        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID                  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_template_tenant_key,priority:1;index" json:"tenant_id"`
	Key                       string         `gorm:"column:key;not null;uniqueIndex:idx_template_tenant_key,priority:2" json:"key"`
	Title                     string         `gorm:"column:title;not null" json:"title"`
	CurrentPublishedVersionID *uuid.UUID     `gorm:"type:uuid;column:current_published_version_id" json:"current_published_version_id,omitempty"`
	CreatedAt                 time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt                 time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt                 gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Template) TableName() string { return "template" }

// TemplateVersion is an immutable snapshot of template structure. Structure
// holds the section/slot tree; Rules holds template-level constraint rules
// that participate in evaluation exactly like clause rules.
type TemplateVersion struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TemplateID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_template_version,priority:1" json:"template_id"`
	Template   *Template `gorm:"constraint:OnDelete:CASCADE;foreignKey:TemplateID;references:ID" json:"template,omitempty"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`

	VersionNumber int           `gorm:"column:version_number;not null;uniqueIndex:idx_template_version,priority:2" json:"version_number"`
	Status        VersionStatus `gorm:"column:status;not null;default:'draft';index" json:"status"`

	Structure datatypes.JSON `gorm:"column:structure;type:jsonb" json:"structure,omitempty"`
	Rules     datatypes.JSON `gorm:"column:rules;type:jsonb" json:"rules,omitempty"`

	AuthorID    uuid.UUID  `gorm:"type:uuid;column:author_id;not null" json:"author_id"`
	ReviewerID  *uuid.UUID `gorm:"type:uuid;column:reviewer_id" json:"reviewer_id,omitempty"`
	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TemplateVersion) TableName() string { return "template_version" }

type TemplateStructure struct {
	Sections []TemplateSection `json:"sections"`
}

type TemplateSection struct {
	Key   string         `json:"key"`
	Title string         `json:"title"`
	Slots []TemplateSlot `json:"slots"`
}

// TemplateSlot references a clause by logical id, never by version; the
// version is resolved when a contract pins its snapshot.
type TemplateSlot struct {
	Key      string    `json:"key"`
	ClauseID uuid.UUID `json:"clause_id"`
	Optional bool      `json:"optional,omitempty"`
}

// ClauseIDs returns every clause referenced by a slot, in document order,
// de-duplicated.
func (s TemplateStructure) ClauseIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, sec := range s.Sections {
		for _, slot := range sec.Slots {
			if seen[slot.ClauseID] {
				continue
			}
			seen[slot.ClauseID] = true
			out = append(out, slot.ClauseID)
		}
	}
	return out
}

// ParseStructure decodes and validates a stored structure payload.
func ParseStructure(raw datatypes.JSON) (TemplateStructure, error) {
	var s TemplateStructure
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("decode structure: %w", err)
	}
	for _, sec := range s.Sections {
		for _, slot := range sec.Slots {
			if slot.ClauseID == uuid.Nil {
				return s, fmt.Errorf("section %s slot %s: missing clause_id", sec.Key, slot.Key)
			}
		}
	}
	return s, nil
}

func MarshalStructure(s TemplateStructure) (datatypes.JSON, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode structure: %w", err)
	}
	return datatypes.JSON(raw), nil
}
