package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openlease/lease-ledger/internal/logger"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	errCodeBadRequest         ErrorCode = "bad_request"
	errCodeNotFound           ErrorCode = "not_found"
	errCodePreconditionFailed ErrorCode = "precondition_failed"
	errCodeValidationFailed   ErrorCode = "validation_failed"

	// Server errors (5xx)
	errCodeInternalError      ErrorCode = "internal_error"
	errCodeLedgerUnavailable  ErrorCode = "ledger_unavailable"
	errCodeSubmissionFailed   ErrorCode = "submission_failed"
	errCodeConfirmationExpiry ErrorCode = "confirmation_timeout"
)

// errorResponse represents a standardized error response
type errorResponse struct {
	Error errorDetail `json:"error"`
}

// errorDetail contains error information
type errorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	TxRef   string    `json:"tx_ref,omitempty"`
}

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...string) {
	response := errorResponse{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	}

	if len(details) > 0 {
		response.Error.Details = details[0]
	}

	c.JSON(statusCode, response)
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusBadRequest, errCodeBadRequest, message, details...)
}

// respondNotFound sends a 404 Not Found response
func respondNotFound(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusNotFound, errCodeNotFound, message, details...)
}

// respondPreconditionFailed sends a 409 Conflict response
func respondPreconditionFailed(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusConflict, errCodePreconditionFailed, message, details...)
}

// respondValidationError sends a 400 Bad Request with validation error
func respondValidationError(c *gin.Context, details string) {
	respondWithError(c, http.StatusBadRequest, errCodeValidationFailed, "Validation failed", details)
}

// respondInternalError sends a 500 Internal Server Error response and logs the error
func respondInternalError(c *gin.Context, err error, message string, fields ...zap.Field) {
	logger.Error(err, fields...)
	respondWithError(c, http.StatusInternalServerError, errCodeInternalError, message)
}

// respondLedgerUnavailable sends a 503 Service Unavailable response
func respondLedgerUnavailable(c *gin.Context, err error) {
	logger.Error(err)
	respondWithError(c, http.StatusServiceUnavailable, errCodeLedgerUnavailable, "Ledger is unavailable")
}
