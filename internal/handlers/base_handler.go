package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/EduForge-2025/authoring-service/internal/services"
	"github.com/EduForge-2025/authoring-service/internal/sources"
	"github.com/EduForge-2025/authoring-service/internal/utils"
	"github.com/EduForge-2025/authoring-service/internal/validator"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps responses that carry no resource body.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs with the request-scoped logger when present.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c, h.logger).Info(msg, args...)
}

func (h *BaseHandler) getUserID(c *gin.Context) string {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return ""
	}
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: err.Error(),
		})
		return 0
	}
	return uint(id)
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// handleServiceError maps the service error taxonomy onto HTTP statuses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var formatError *sources.FormatError
	if errors.As(err, &formatError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Unusable file format",
			Details: formatError.Detail,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	var lockedError *services.LockedSectionError
	if errors.As(err, &lockedError) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Section is submitted and locked",
			Details: map[string]interface{}{
				"section_id": lockedError.SectionID,
				"operation":  lockedError.Op,
			},
		})
		return
	}

	var insufficientError *services.InsufficientQuestionsError
	if errors.As(err, &insufficientError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Section has fewer questions than required",
			Details: map[string]interface{}{
				"section_id": insufficientError.SectionID,
				"selected":   insufficientError.Selected,
				"required":   insufficientError.Required,
			},
		})
		return
	}

	var excessError *services.ExcessQuestionsError
	if errors.As(err, &excessError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Section has more questions than required",
			Details: map[string]interface{}{
				"section_id": excessError.SectionID,
				"selected":   excessError.Selected,
				"required":   excessError.Required,
			},
		})
		return
	}

	var alreadySubmitted *services.AlreadySubmittedError
	if errors.As(err, &alreadySubmitted) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Section is already submitted",
			Details: map[string]interface{}{
				"section_id": alreadySubmitted.SectionID,
			},
		})
		return
	}

	var preconditionError *services.PublishPreconditionError
	if errors.As(err, &preconditionError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Publish precondition not met",
			Details: map[string]interface{}{
				"reason": preconditionError.Reason,
			},
		})
		return
	}

	var emptyRecipients *services.EmptyRecipientSetError
	if errors.As(err, &emptyRecipients) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Recipient set is empty",
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrAssessmentNotFound),
		errors.Is(err, services.ErrSectionNotFound),
		errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrAccessDenied):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
		})
	case errors.Is(err, services.ErrAlreadyPublished):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Assessment is already published",
		})
	case errors.Is(err, services.ErrPublishInFlight):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Publish already in progress",
		})
	case errors.Is(err, services.ErrSectionsDisabled):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Assessment does not use sections",
		})
	case errors.Is(err, sources.ErrNoUsableRows):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "No usable rows in uploaded file",
		})
	case errors.Is(err, sources.ErrUnknownSource):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unknown question source",
		})
	default:
		h.logger.Error("unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
