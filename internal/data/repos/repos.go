package repos

import (
	"gorm.io/gorm"

	"github.com/draftwell/draftwell-backend/internal/data/repos/contracts"
	"github.com/draftwell/draftwell-backend/internal/data/repos/library"
	"github.com/draftwell/draftwell-backend/internal/platform/logger"
)

type ClauseRepo = library.ClauseRepo
type ClauseVersionRepo = library.ClauseVersionRepo
type TemplateRepo = library.TemplateRepo
type TemplateVersionRepo = library.TemplateVersionRepo

type ContractRepo = contracts.ContractRepo

func NewClauseRepo(db *gorm.DB, baseLog *logger.Logger) ClauseRepo {
	return library.NewClauseRepo(db, baseLog)
}
func NewClauseVersionRepo(db *gorm.DB, baseLog *logger.Logger) ClauseVersionRepo {
	return library.NewClauseVersionRepo(db, baseLog)
}
func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	return library.NewTemplateRepo(db, baseLog)
}
func NewTemplateVersionRepo(db *gorm.DB, baseLog *logger.Logger) TemplateVersionRepo {
	return library.NewTemplateVersionRepo(db, baseLog)
}
func NewContractRepo(db *gorm.DB, baseLog *logger.Logger) ContractRepo {
	return contracts.NewContractRepo(db, baseLog)
}
