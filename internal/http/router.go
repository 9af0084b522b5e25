package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/draftwell/draftwell-backend/internal/http/handlers"
	httpMW "github.com/draftwell/draftwell-backend/internal/http/middleware"
	"github.com/draftwell/draftwell-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthMiddleware *httpMW.AuthMiddleware

	ClauseHandler   *httpH.ClauseHandler
	TemplateHandler *httpH.TemplateHandler
	ContractHandler *httpH.ContractHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	// otelgin opens the server span first so AttachTraceContext can read a
	// valid span context when tracing is enabled.
	r.Use(otelgin.Middleware("draftwell-backend"))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Clause library
		if cfg.ClauseHandler != nil {
			protected.POST("/clauses", cfg.ClauseHandler.CreateClause)
			protected.GET("/clauses", cfg.ClauseHandler.ListClauses)
			protected.GET("/clauses/:id", cfg.ClauseHandler.GetClause)
			protected.POST("/clauses/:id/versions", cfg.ClauseHandler.CreateClauseVersion)
			protected.GET("/clauses/:id/versions", cfg.ClauseHandler.ListClauseVersions)
			protected.GET("/clause-versions/:id", cfg.ClauseHandler.GetClauseVersion)
			protected.POST("/clause-versions/:id/transition", cfg.ClauseHandler.TransitionClauseVersion)
			protected.GET("/clause-versions/:id/gates", cfg.ClauseHandler.ValidatePublishingGates)
		}

		// Template library
		if cfg.TemplateHandler != nil {
			protected.POST("/templates", cfg.TemplateHandler.CreateTemplate)
			protected.GET("/templates", cfg.TemplateHandler.ListTemplates)
			protected.GET("/templates/:id", cfg.TemplateHandler.GetTemplate)
			protected.POST("/templates/:id/versions", cfg.TemplateHandler.CreateTemplateVersion)
			protected.GET("/templates/:id/versions", cfg.TemplateHandler.ListTemplateVersions)
			protected.GET("/template-versions/:id", cfg.TemplateHandler.GetTemplateVersion)
			protected.POST("/template-versions/:id/transition", cfg.TemplateHandler.TransitionTemplateVersion)
			protected.GET("/template-versions/:id/gates", cfg.TemplateHandler.ValidatePublishingGates)
		}

		// Contracts
		if cfg.ContractHandler != nil {
			protected.POST("/contracts", cfg.ContractHandler.CreateContract)
			protected.GET("/contracts", cfg.ContractHandler.ListContracts)
			protected.GET("/contracts/:id", cfg.ContractHandler.GetContract)
			protected.PUT("/contracts/:id/answers", cfg.ContractHandler.UpdateAnswers)
			protected.PUT("/contracts/:id/selection", cfg.ContractHandler.UpdateSelection)
			protected.POST("/contracts/:id/validate", cfg.ContractHandler.Validate)
			protected.POST("/contracts/:id/complete", cfg.ContractHandler.Complete)
			protected.POST("/contracts/:id/refresh-pins", cfg.ContractHandler.RefreshPins)
		}
	}

	return r
}
