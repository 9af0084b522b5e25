package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/draftwell/draftwell-backend/internal/clients/redis"
	"github.com/draftwell/draftwell-backend/internal/data/repos"
	"github.com/draftwell/draftwell-backend/internal/db"
	httpserver "github.com/draftwell/draftwell-backend/internal/http"
	httpH "github.com/draftwell/draftwell-backend/internal/http/handlers"
	httpMW "github.com/draftwell/draftwell-backend/internal/http/middleware"
	"github.com/draftwell/draftwell-backend/internal/modules/contracts/pinning"
	"github.com/draftwell/draftwell-backend/internal/modules/library/gates"
	"github.com/draftwell/draftwell-backend/internal/observability"
	"github.com/draftwell/draftwell-backend/internal/platform/logger"
	"github.com/draftwell/draftwell-backend/internal/services"
	"github.com/draftwell/draftwell-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing (no-op unless OTEL_ENABLED is set)
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "draftwell-backend",
		Environment: logMode,
		Version:     os.Getenv("SERVICE_VERSION"),
	})
	if shutdownOTel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	clauseRepo := repos.NewClauseRepo(thePG, log)
	clauseVersionRepo := repos.NewClauseVersionRepo(thePG, log)
	templateRepo := repos.NewTemplateRepo(thePG, log)
	templateVersionRepo := repos.NewTemplateVersionRepo(thePG, log)
	contractRepo := repos.NewContractRepo(thePG, log)

	// Audit bus (optional; the services degrade to no-op without it)
	var bus redis.EventBus
	if b, err := redis.NewEventBus(log); err != nil {
		log.Warn("Could not init redis event bus", "error", err)
	} else {
		bus = b
	}

	// Domain modules
	validator := gates.NewValidator(clauseRepo, clauseVersionRepo, log)
	pins := pinning.NewManager(clauseRepo, clauseVersionRepo, templateVersionRepo, contractRepo, log)

	// Services
	log.Info("Setting up Services from main...")
	clauseService := services.NewClauseService(thePG, log, clauseRepo, clauseVersionRepo, validator, bus)
	templateService := services.NewTemplateService(thePG, log, templateRepo, templateVersionRepo, validator, bus)
	contractService := services.NewContractService(thePG, log, contractRepo, templateVersionRepo, pins, bus)

	// Handlers
	log.Info("Setting up Handlers from main...")
	healthHandler := httpH.NewHealthHandler(log)
	clauseHandler := httpH.NewClauseHandler(log, clauseService)
	templateHandler := httpH.NewTemplateHandler(log, templateService)
	contractHandler := httpH.NewContractHandler(log, contractService)

	authMiddleware := httpMW.NewAuthMiddleware(log)

	server := httpserver.NewServer(httpserver.RouterConfig{
		Log:             log,
		AuthMiddleware:  authMiddleware,
		ClauseHandler:   clauseHandler,
		TemplateHandler: templateHandler,
		ContractHandler: contractHandler,
		HealthHandler:   healthHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting HTTP server", "port", port)
	if err := server.Run(":" + port); err != nil {
		log.Error("HTTP server exited", "error", err)
		os.Exit(1)
	}
}
