package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduForge-2025/authoring-service/internal/repositories"
	"github.com/EduForge-2025/authoring-service/internal/services"
	"github.com/EduForge-2025/authoring-service/internal/utils"
	"github.com/EduForge-2025/authoring-service/internal/validator"
)

type AssessmentHandler struct {
	BaseHandler
	assembly    services.AssemblyService
	publication services.PublicationService
	validator   *validator.Validator
}

func NewAssessmentHandler(
	assembly services.AssemblyService,
	publication services.PublicationService,
	validator *validator.Validator,
	logger utils.Logger,
) *AssessmentHandler {
	return &AssessmentHandler{
		BaseHandler: NewBaseHandler(logger),
		assembly:    assembly,
		publication: publication,
		validator:   validator,
	}
}

// CreateAssessment creates a new draft assessment
// @Summary Create assessment
// @Description Creates a new draft assessment; sectioned drafts start with one default section
// @Tags assessments
// @Accept json
// @Produce json
// @Param assessment body services.CreateAssessmentRequest true "Assessment data"
// @Success 201 {object} services.AssessmentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /assessments [post]
func (h *AssessmentHandler) CreateAssessment(c *gin.Context) {
	var req services.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	assessment, err := h.assembly.CreateAssessment(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assessment)
}

// GetAssessment retrieves an assessment with its sections and questions
// @Summary Get assessment
// @Tags assessments
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} services.AssessmentResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id} [get]
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Getting assessment", "assessment_id", id)

	assessment, err := h.assembly.GetAssessment(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

// ListAssessments lists the caller's assessments
// @Summary List assessments
// @Tags assessments
// @Produce json
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Param published query bool false "Filter by published state"
// @Param search query string false "Title search"
// @Success 200 {object} services.AssessmentListResponse
// @Router /assessments [get]
func (h *AssessmentHandler) ListAssessments(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 10)
	filters := repositories.AssessmentFilters{
		Search: c.Query("search"),
		Limit:  size,
		Offset: (page - 1) * size,
	}
	if publishedStr := c.Query("published"); publishedStr != "" {
		published := publishedStr == "true"
		filters.Published = &published
	}

	list, err := h.assembly.ListAssessments(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// DeleteAssessment deletes an unpublished assessment
// @Summary Delete assessment
// @Tags assessments
// @Param id path uint true "Assessment ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /assessments/{id} [delete]
func (h *AssessmentHandler) DeleteAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	if err := h.assembly.DeleteAssessment(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Assessment deleted"})
}

type publishRequest struct {
	RegistrationNos []string `json:"registration_nos"`
}

// PublishAssessment publishes an assessment to the selected students
// @Summary Publish assessment
// @Description One-way publish; requires every section submitted and at least one recipient
// @Tags assessments
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param request body publishRequest true "Recipient registration numbers"
// @Success 200 {object} services.PublishResult
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /assessments/{id}/publish [post]
func (h *AssessmentHandler) PublishAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Publishing assessment", "assessment_id", id, "recipients", len(req.RegistrationNos))

	result, err := h.publication.Publish(c.Request.Context(), id, req.RegistrationNos, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AddFlatQuestions adds questions from a source to an unsectioned assessment
// @Summary Add questions to flat assessment
// @Tags assessments
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param source path string true "Question source" Enums(manual, bulk_file, library, test_library, ai_generated)
// @Success 200 {object} services.AddQuestionsResult
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /assessments/{id}/questions/{source} [post]
func (h *AssessmentHandler) AddFlatQuestions(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID := h.getUserID(c)
	if userID == "" {
		return
	}
	kind, ok := parseSourceKind(c)
	if !ok {
		return
	}
	req := buildSourceRequest(c, kind)
	if req == nil {
		return
	}

	result, err := h.assembly.AddFlatQuestionsFromSource(c.Request.Context(), id, req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RemoveFlatQuestion removes a question from an unsectioned assessment
// @Summary Remove question from flat assessment
// @Tags assessments
// @Param id path uint true "Assessment ID"
// @Param question_id path uint true "Question ID"
// @Success 200 {object} SuccessResponse
// @Router /assessments/{id}/questions/{question_id} [delete]
func (h *AssessmentHandler) RemoveFlatQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	if err := h.assembly.RemoveFlatQuestion(c.Request.Context(), id, questionID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Question removed"})
}
