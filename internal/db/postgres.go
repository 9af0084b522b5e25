package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	contracttypes "github.com/draftwell/draftwell-backend/internal/domain/contracts"
	librarytypes "github.com/draftwell/draftwell-backend/internal/domain/library"
	"github.com/draftwell/draftwell-backend/internal/platform/logger"
	"github.com/draftwell/draftwell-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	log.Info("Loading environment variables...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "draftwell", log)
	log.Debug("Environment variables loaded")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("Failed to enable uuid-ossp extension: %w", err)
	}
	log.Info("uuid-ossp extension enabled")

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&librarytypes.Clause{},
		&librarytypes.ClauseVersion{},
		&librarytypes.Template{},
		&librarytypes.TemplateVersion{},
		&contracttypes.ContractInstance{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		stmt string
	}{
		{
			name: "fk_clause_version_clause_id",
			stmt: `
				ALTER TABLE "clause_version"
				ADD CONSTRAINT "fk_clause_version_clause_id"
				FOREIGN KEY ("clause_id")
				REFERENCES "clause"("id")
				ON DELETE CASCADE
			`,
		},
		{
			name: "fk_template_version_template_id",
			stmt: `
				ALTER TABLE "template_version"
				ADD CONSTRAINT "fk_template_version_template_id"
				FOREIGN KEY ("template_id")
				REFERENCES "template"("id")
				ON DELETE CASCADE
			`,
		},
		{
			name: "fk_contract_instance_template_version_id",
			stmt: `
				ALTER TABLE "contract_instance"
				ADD CONSTRAINT "fk_contract_instance_template_version_id"
				FOREIGN KEY ("template_version_id")
				REFERENCES "template_version"("id")
			`,
		},
	}
	for _, c := range constraints {
		var exists bool
		if err := s.db.Raw(
			`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)`, c.name,
		).Scan(&exists).Error; err != nil {
			return fmt.Errorf("Failed to check constraint %s: %w", c.name, err)
		}
		if exists {
			continue
		}
		if err := s.db.Exec(c.stmt).Error; err != nil {
			return fmt.Errorf("Failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
