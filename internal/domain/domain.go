package domain

import (
	"github.com/draftwell/draftwell-backend/internal/domain/contracts"
	"github.com/draftwell/draftwell-backend/internal/domain/library"
)

type Clause = library.Clause
type ClauseVersion = library.ClauseVersion
type Template = library.Template
type TemplateVersion = library.TemplateVersion

type VersionStatus = library.VersionStatus
type Rule = library.Rule
type RuleKind = library.RuleKind
type Severity = library.Severity
type TemplateStructure = library.TemplateStructure
type TemplateSection = library.TemplateSection
type TemplateSlot = library.TemplateSlot

type ContractInstance = contracts.ContractInstance
type ContractStatus = contracts.ContractStatus
type ValidationState = contracts.ValidationState
type ClauseVersionRef = contracts.ClauseVersionRef

var (
	ParseRules       = library.ParseRules
	NormalizeRules   = library.NormalizeRules
	ParseStructure   = library.ParseStructure
	MarshalStructure = library.MarshalStructure

	ParseRefs        = contracts.ParseRefs
	MarshalRefs      = contracts.MarshalRefs
	ParseSelection   = contracts.ParseSelection
	MarshalSelection = contracts.MarshalSelection
	ParseAnswers     = contracts.ParseAnswers
	MarshalAnswers   = contracts.MarshalAnswers
)

const (
	StatusDraft      = library.StatusDraft
	StatusReview     = library.StatusReview
	StatusApproved   = library.StatusApproved
	StatusPublished  = library.StatusPublished
	StatusDeprecated = library.StatusDeprecated

	ContractDraft     = contracts.ContractDraft
	ContractCompleted = contracts.ContractCompleted
	ContractArchived  = contracts.ContractArchived

	ValidationValid     = contracts.ValidationValid
	ValidationWarnings  = contracts.ValidationWarnings
	ValidationConflicts = contracts.ValidationConflicts
)
