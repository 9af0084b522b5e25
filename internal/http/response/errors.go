package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/draftwell/draftwell-backend/internal/modules/contracts/evaluate"
	"github.com/draftwell/draftwell-backend/internal/modules/library/gates"
	"github.com/draftwell/draftwell-backend/internal/modules/library/status"
	"github.com/draftwell/draftwell-backend/internal/pkg/apperr"
)

// RespondAppError maps the error taxonomy onto HTTP. Typed errors carry
// their payloads through: a gate failure responds with the full gate
// report, a conflict with the full violation list.
func RespondAppError(c *gin.Context, err error) {
	var transitionErr *status.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		RespondErrorDetails(c, http.StatusConflict, apperr.CodeInvalidTransition, transitionErr, gin.H{
			"from":    transitionErr.From,
			"to":      transitionErr.To,
			"allowed": transitionErr.Allowed,
		})
		return
	}

	var gateErr *gates.GateFailureError
	if errors.As(err, &gateErr) {
		RespondErrorDetails(c, http.StatusUnprocessableEntity, apperr.CodeGateFailure, gateErr, gateErr.Report)
		return
	}

	var conflictErr *evaluate.ConflictError
	if errors.As(err, &conflictErr) {
		RespondErrorDetails(c, http.StatusConflict, apperr.CodeConflict, conflictErr, gin.H{
			"violations": conflictErr.Violations,
		})
		return
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		stat := appErr.Status
		if stat == 0 {
			stat = http.StatusInternalServerError
		}
		RespondError(c, stat, appErr.Code, err)
		return
	}

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		RespondError(c, http.StatusNotFound, apperr.CodeNotFound, err)
	case errors.Is(err, apperr.ErrStaleWriteConflict):
		RespondError(c, http.StatusConflict, apperr.CodeStaleWriteConflict, err)
	case errors.Is(err, apperr.ErrInvalidArgument):
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, err)
	case errors.Is(err, apperr.ErrUnauthorized):
		RespondError(c, http.StatusUnauthorized, apperr.CodeUnauthorized, err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
