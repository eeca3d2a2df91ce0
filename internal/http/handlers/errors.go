package handlers

import (
	"errors"
	"net/http"

	"ridedesk/internal/domain"
	"ridedesk/internal/http/middleware"
	"ridedesk/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Message   string            `json:"message"`
	Code      string            `json:"code,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, fields map[string]string) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Message:   message,
		Code:      code,
		Errors:    fields,
		RequestID: middleware.GetRequestID(c),
	})
}

// RespondDomainError maps domain errors to HTTP responses. Field errors are
// returned under "errors" keyed by field name.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		fields, _ := domain.AsFieldErrors(err)
		msg := err.Error()
		if len(fields) > 0 {
			msg = "validation failed"
		}
		respondError(c, http.StatusBadRequest, "validation_error", msg, fields)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case domain.IsUnauthorized(err):
		respondError(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	case domain.IsInternal(err):
		utils.LogEvent(middleware.GetRequestID(c), "http", "internal_error", err.Error())
		respondError(c, http.StatusInternalServerError, "internal_error", internalMessage(err), nil)
	default:
		utils.LogEvent(middleware.GetRequestID(c), "http", "internal_error", err.Error())
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", nil)
	}
}

func internalMessage(err error) string {
	var ie domain.InternalError
	if errors.As(err, &ie) && ie.Msg != "" {
		return ie.Msg
	}
	return "something went wrong"
}
