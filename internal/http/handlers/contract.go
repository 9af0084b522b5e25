package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/draftwell/draftwell-backend/internal/http/response"
	"github.com/draftwell/draftwell-backend/internal/platform/logger"
	"github.com/draftwell/draftwell-backend/internal/requestdata"
	"github.com/draftwell/draftwell-backend/internal/services"
)

type ContractHandler struct {
	log             *logger.Logger
	contractService services.ContractService
}

func NewContractHandler(log *logger.Logger, contractService services.ContractService) *ContractHandler {
	return &ContractHandler{
		log:             log.With("handler", "ContractHandler"),
		contractService: contractService,
	}
}

type createContractRequest struct {
	TemplateVersionID uuid.UUID `json:"template_version_id" binding:"required"`
	Jurisdiction      string    `json:"jurisdiction"`
	ContractType      string    `json:"contract_type"`
}

func (h *ContractHandler) CreateContract(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	contract, err := h.contractService.CreateContract(
		c.Request.Context(), rd.TenantID, rd.ActorID, req.TemplateVersionID, req.Jurisdiction, req.ContractType,
	)
	if err != nil {
		h.log.Error("CreateContract failed", "error", err, "tenant_id", rd.TenantID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"contract": contract})
}

func (h *ContractHandler) GetContract(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	contract, err := h.contractService.GetContract(c.Request.Context(), nil, rd.TenantID, contractID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"contract": contract})
}

func (h *ContractHandler) ListContracts(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	contracts, err := h.contractService.ListContracts(c.Request.Context(), nil, rd.TenantID, rd.ActorID)
	if err != nil {
		h.log.Error("ListContracts failed", "error", err, "tenant_id", rd.TenantID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"contracts": contracts})
}

type updateAnswersRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

func (h *ContractHandler) UpdateAnswers(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	var req updateAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	contract, err := h.contractService.UpdateAnswers(c.Request.Context(), rd.TenantID, contractID, req.Answers)
	if err != nil {
		h.log.Warn("UpdateAnswers failed", "error", err, "tenant_id", rd.TenantID, "contract_id", contractID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"contract": contract})
}

type updateSelectionRequest struct {
	SelectedClauseIDs []uuid.UUID `json:"selected_clause_ids" binding:"required"`
}

func (h *ContractHandler) UpdateSelection(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	var req updateSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	contract, err := h.contractService.UpdateSelection(c.Request.Context(), rd.TenantID, contractID, req.SelectedClauseIDs)
	if err != nil {
		h.log.Warn("UpdateSelection failed", "error", err, "tenant_id", rd.TenantID, "contract_id", contractID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"contract": contract})
}

func (h *ContractHandler) Validate(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	contract, result, err := h.contractService.Validate(c.Request.Context(), rd.TenantID, contractID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"contract":         contract,
		"validation_state": result.State,
		"violations":       result.Violations,
	})
}

func (h *ContractHandler) Complete(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	contract, err := h.contractService.Complete(c.Request.Context(), rd.TenantID, rd.ActorID, contractID)
	if err != nil {
		h.log.Warn("Complete failed", "error", err, "tenant_id", rd.TenantID, "contract_id", contractID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"contract": contract})
}

func (h *ContractHandler) RefreshPins(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	contract, err := h.contractService.RefreshPins(c.Request.Context(), rd.TenantID, rd.ActorID, contractID)
	if err != nil {
		h.log.Warn("RefreshPins failed", "error", err, "tenant_id", rd.TenantID, "contract_id", contractID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"contract": contract})
}
