package library

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Clause is the stable logical identity of a reusable legal building block.
// All content lives on its versions; the only mutable reference here is
// CurrentPublishedVersionID, written exclusively by the published transition.
type Clause struct {
	ID                        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID                  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_clause_tenant_key,priority:1;index" json:"tenant_id"`
	Key                       string         `gorm:"column:key;not null;uniqueIndex:idx_clause_tenant_key,priority:2" json:"key"`
	Title                     string         `gorm:"column:title;not null" json:"title"`
	CurrentPublishedVersionID *uuid.UUID     `gorm:"type:uuid;column:current_published_version_id" json:"current_published_version_id,omitempty"`
	CreatedAt                 time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt                 time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt                 gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Clause) TableName() string { return "clause" }

// ClauseVersion is an immutable snapshot of clause content plus the rules
// that version carries. No row is ever deleted; deprecation is a status.
type ClauseVersion struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ClauseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_clause_version,priority:1" json:"clause_id"`
	Clause   *Clause   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ClauseID;references:ID" json:"clause,omitempty"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`

	VersionNumber int           `gorm:"column:version_number;not null;uniqueIndex:idx_clause_version,priority:2" json:"version_number"`
	Status        VersionStatus `gorm:"column:status;not null;default:'draft';index" json:"status"`

	Body   string         `gorm:"column:body;type:text" json:"body"`
	Params datatypes.JSON `gorm:"column:params;type:jsonb" json:"params,omitempty"`
	Rules  datatypes.JSON `gorm:"column:rules;type:jsonb" json:"rules,omitempty"`

	AuthorID    uuid.UUID  `gorm:"type:uuid;column:author_id;not null" json:"author_id"`
	ReviewerID  *uuid.UUID `gorm:"type:uuid;column:reviewer_id" json:"reviewer_id,omitempty"`
	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ClauseVersion) TableName() string { return "clause_version" }
