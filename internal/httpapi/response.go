package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Meta contains metadata about the response.
type Meta struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
}

// APIError is an error carrying the HTTP status it maps to.
type APIError struct {
	Code    int
	Message string
	Errors  any
	Data    any
}

func (e *APIError) Error() string {
	return e.Message
}

func badRequest(message string, errs any) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: message, Errors: errs}
}

func unprocessable(message string, errs, data any) *APIError {
	return &APIError{Code: http.StatusUnprocessableEntity, Message: message, Errors: errs, Data: data}
}

func newMeta(c *gin.Context) *Meta {
	return &Meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID(c),
	}
}

// requestID returns the id set by the logging middleware, or a fresh one.
func requestID(c *gin.Context) string {
	if id := c.GetString(requestIDKey); id != "" {
		return id
	}
	if id := c.GetHeader(requestIDHeader); id != "" {
		return id
	}
	return uuid.NewString()
}

func ok(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    newMeta(c),
	})
}

// fail writes err as an error envelope. Errors other than *APIError are
// reported as 500 without their message.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = &APIError{Code: http.StatusInternalServerError, Message: "Internal server error"}
	}
	c.JSON(apiErr.Code, APIResponse{
		Success: false,
		Message: apiErr.Message,
		Data:    apiErr.Data,
		Errors:  apiErr.Errors,
		Meta:    newMeta(c),
	})
}
