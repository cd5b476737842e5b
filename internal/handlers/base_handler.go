package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ITA-F-2025/institute-service/internal/auth"
	"github.com/ITA-F-2025/institute-service/internal/prereq"
	"github.com/ITA-F-2025/institute-service/internal/services"
	"github.com/ITA-F-2025/institute-service/internal/utils"
	"github.com/ITA-F-2025/institute-service/internal/validator"
)

// ErrorResponse is the uniform error envelope for all endpoints
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// BaseHandler provides shared logging and error mapping for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs an incoming request with the request-scoped logger
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c.Request.Context()).Info(msg, args...)
}

// LogError logs a handler error with the request-scoped logger
func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.FromContext(c.Request.Context()).Error(msg, append(args, "error", err)...)
}

// parseIDParam parses a positive uint path parameter. Zero is the
// callers' sentinel for "response already written", so a literal 0 in
// the path is rejected as invalid too.
func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
		})
		return 0
	}
	return uint(id)
}

// handleServiceError maps service layer errors to HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	// Handle custom error types first
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		status := http.StatusForbidden
		if permissionError.Reason == auth.DenyUnauthenticated {
			status = http.StatusUnauthorized
		}
		c.JSON(status, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	var cycleError *prereq.CycleError
	if errors.As(err, &cycleError) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Prerequisite cycle detected",
			Details: map[string]interface{}{
				"path": cycleError.Path,
			},
		})
		return
	}

	switch {
	case errors.Is(err, prereq.ErrSelfReference):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "A course cannot be its own prerequisite",
		})
	case errors.Is(err, prereq.ErrCycleDetected):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Prerequisite cycle detected",
		})
	case errors.Is(err, auth.ErrUnknownRole):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unknown role",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
	case errors.Is(err, services.ErrCourseNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Course not found",
		})
	case errors.Is(err, services.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Category not found",
		})
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Email address already registered",
		})
	case errors.Is(err, services.ErrCourseCodeTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Course code already in use",
		})
	case errors.Is(err, services.ErrCategoryNotEmpty):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Category still has courses assigned",
		})
	case errors.Is(err, services.ErrSelfDeactivation):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "You cannot deactivate your own account",
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Invalid email or password",
		})
	case errors.Is(err, services.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Account is disabled",
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
			Details: err.Error(),
		})
	}
}
