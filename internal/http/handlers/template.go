package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/draftwell/draftwell-backend/internal/domain"
	"github.com/draftwell/draftwell-backend/internal/http/response"
	"github.com/draftwell/draftwell-backend/internal/platform/logger"
	"github.com/draftwell/draftwell-backend/internal/requestdata"
	"github.com/draftwell/draftwell-backend/internal/services"
)

type TemplateHandler struct {
	log             *logger.Logger
	templateService services.TemplateService
}

func NewTemplateHandler(log *logger.Logger, templateService services.TemplateService) *TemplateHandler {
	return &TemplateHandler{
		log:             log.With("handler", "TemplateHandler"),
		templateService: templateService,
	}
}

type createTemplateRequest struct {
	Key   string `json:"key" binding:"required"`
	Title string `json:"title"`
}

func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	template, err := h.templateService.CreateTemplate(c.Request.Context(), nil, rd.TenantID, req.Key, req.Title)
	if err != nil {
		h.log.Error("CreateTemplate failed", "error", err, "tenant_id", rd.TenantID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"template": template})
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	template, err := h.templateService.GetTemplate(c.Request.Context(), nil, rd.TenantID, templateID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"template": template})
}

func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	templates, err := h.templateService.ListTemplates(c.Request.Context(), nil, rd.TenantID)
	if err != nil {
		h.log.Error("ListTemplates failed", "error", err, "tenant_id", rd.TenantID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"templates": templates})
}

type createTemplateVersionRequest struct {
	Structure types.TemplateStructure `json:"structure"`
	Rules     []types.Rule            `json:"rules"`
}

func (h *TemplateHandler) CreateTemplateVersion(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	var req createTemplateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	version, err := h.templateService.CreateTemplateVersion(
		c.Request.Context(), nil, rd.TenantID, templateID, rd.ActorID, req.Structure, req.Rules,
	)
	if err != nil {
		h.log.Error("CreateTemplateVersion failed", "error", err, "tenant_id", rd.TenantID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"version": version})
}

func (h *TemplateHandler) ListTemplateVersions(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	versions, err := h.templateService.ListTemplateVersions(c.Request.Context(), nil, rd.TenantID, templateID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"versions": versions})
}

func (h *TemplateHandler) GetTemplateVersion(c *gin.Context) {
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
	version, err := h.templateService.GetTemplateVersion(c.Request.Context(), nil, rd.TenantID, versionID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"version": version})
}

func (h *TemplateHandler) TransitionTemplateVersion(c *gin.Context) {
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
	version, err := h.templateService.TransitionTemplateVersion(
		c.Request.Context(), rd.TenantID, rd.ActorID, versionID, types.VersionStatus(req.To),
	)
	if err != nil {
		h.log.Warn("TransitionTemplateVersion failed", "error", err, "tenant_id", rd.TenantID, "version_id", versionID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"version": version})
}

func (h *TemplateHandler) ValidatePublishingGates(c *gin.Context) {
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
	report, err := h.templateService.ValidatePublishingGates(c.Request.Context(), rd.TenantID, versionID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"report": report})
}
