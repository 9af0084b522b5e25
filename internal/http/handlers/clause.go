package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/draftwell/draftwell-backend/internal/domain"
	"github.com/draftwell/draftwell-backend/internal/http/response"
	"github.com/draftwell/draftwell-backend/internal/platform/logger"
	"github.com/draftwell/draftwell-backend/internal/requestdata"
	"github.com/draftwell/draftwell-backend/internal/services"
)

type ClauseHandler struct {
	log           *logger.Logger
	clauseService services.ClauseService
}

func NewClauseHandler(log *logger.Logger, clauseService services.ClauseService) *ClauseHandler {
	return &ClauseHandler{
		log:           log.With("handler", "ClauseHandler"),
		clauseService: clauseService,
	}
}

type createClauseRequest struct {
	Key   string `json:"key" binding:"required"`
	Title string `json:"title"`
}

func (h *ClauseHandler) CreateClause(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req createClauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	clause, err := h.clauseService.CreateClause(c.Request.Context(), nil, rd.TenantID, req.Key, req.Title)
	if err != nil {
		h.log.Error("CreateClause failed", "error", err, "tenant_id", rd.TenantID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"clause": clause})
}

func (h *ClauseHandler) GetClause(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	clauseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	clause, err := h.clauseService.GetClause(c.Request.Context(), nil, rd.TenantID, clauseID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"clause": clause})
}

func (h *ClauseHandler) ListClauses(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	clauses, err := h.clauseService.ListClauses(c.Request.Context(), nil, rd.TenantID)
	if err != nil {
		h.log.Error("ListClauses failed", "error", err, "tenant_id", rd.TenantID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"clauses": clauses})
}

type createClauseVersionRequest struct {
	Body   string          `json:"body"`
	Params json.RawMessage `json:"params"`
	Rules  []types.Rule    `json:"rules"`
}

func (h *ClauseHandler) CreateClauseVersion(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	clauseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	var req createClauseVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	version, err := h.clauseService.CreateClauseVersion(
		c.Request.Context(), nil, rd.TenantID, clauseID, rd.ActorID,
		req.Body, datatypes.JSON(req.Params), req.Rules,
	)
	if err != nil {
		h.log.Error("CreateClauseVersion failed", "error", err, "tenant_id", rd.TenantID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"version": version})
}

func (h *ClauseHandler) ListClauseVersions(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	clauseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	versions, err := h.clauseService.ListClauseVersions(c.Request.Context(), nil, rd.TenantID, clauseID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"versions": versions})
}

func (h *ClauseHandler) GetClauseVersion(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	versionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	version, err := h.clauseService.GetClauseVersion(c.Request.Context(), nil, rd.TenantID, versionID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"version": version})
}

type transitionRequest struct {
	To string `json:"to" binding:"required"`
}

func (h *ClauseHandler) TransitionClauseVersion(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	versionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	version, err := h.clauseService.TransitionClauseVersion(
		c.Request.Context(), rd.TenantID, rd.ActorID, versionID, types.VersionStatus(req.To),
	)
	if err != nil {
		h.log.Warn("TransitionClauseVersion failed", "error", err, "tenant_id", rd.TenantID, "version_id", versionID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"version": version})
}

func (h *ClauseHandler) ValidatePublishingGates(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	versionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	report, err := h.clauseService.ValidatePublishingGates(c.Request.Context(), rd.TenantID, versionID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"report": report})
}
