package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/EduForge-2025/authoring-service/internal/services"
	"github.com/EduForge-2025/authoring-service/internal/utils"
	"github.com/EduForge-2025/authoring-service/internal/validator"
)

type SectionHandler struct {
	BaseHandler
	assembly  services.AssemblyService
	validator *validator.Validator
}

func NewSectionHandler(assembly services.AssemblyService, validator *validator.Validator, logger utils.Logger) *SectionHandler {
	return &SectionHandler{
		BaseHandler: NewBaseHandler(logger),
		assembly:    assembly,
		validator:   validator,
	}
}

type addSectionRequest struct {
	Name *string `json:"name"`
}

// AddSection adds a section to a sectioned assessment
// @Summary Add section
// @Description Adds a section at the top of the list; name defaults to the next Section N
// @Tags sections
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param request body addSectionRequest false "Optional section name"
// @Success 201 {object} models.Section
// @Failure 400 {object} ErrorResponse
// @Router /assessments/{id}/sections [post]
func (h *SectionHandler) AddSection(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	var req addSectionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return
		}
	}

	section, err := h.assembly.AddSection(c.Request.Context(), assessmentID, req.Name, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, section)
}

// UpdateSectionConfig updates the configuration of an unsubmitted section
// @Summary Update section configuration
// @Tags sections
// @Accept json
// @Produce json
// @Param id path uint true "Section ID"
// @Param config body services.SectionConfigRequest true "Configuration changes"
// @Success 200 {object} models.Section
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sections/{id} [put]
func (h *SectionHandler) UpdateSectionConfig(c *gin.Context) {
	sectionID := h.parseIDParam(c, "id")
	if sectionID == 0 {
		return
	}
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	var req services.SectionConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	section, err := h.assembly.UpdateSectionConfig(c.Request.Context(), sectionID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, section)
}

// RemoveSection deletes an unsubmitted section
// @Summary Remove section
// @Tags sections
// @Param id path uint true "Section ID"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /sections/{id} [delete]
func (h *SectionHandler) RemoveSection(c *gin.Context) {
	sectionID := h.parseIDParam(c, "id")
	if sectionID == 0 {
		return
	}
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	if err := h.assembly.RemoveSection(c.Request.Context(), sectionID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Section removed"})
}

// SubmitSection locks a section once it holds exactly the required number of questions
// @Summary Submit section
// @Description One-way transition; the section must hold exactly its required question count
// @Tags sections
// @Param id path uint true "Section ID"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sections/{id}/submit [post]
func (h *SectionHandler) SubmitSection(c *gin.Context) {
	sectionID := h.parseIDParam(c, "id")
	if sectionID == 0 {
		return
	}
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Submitting section", "section_id", sectionID)

	if err := h.assembly.SubmitSection(c.Request.Context(), sectionID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Section submitted"})
}

// AddQuestions adds questions from a source to a section
// @Summary Add questions to section
// @Description Runs the named source and appends its output; duplicates by text and answer are skipped
// @Tags sections
// @Accept json
// @Produce json
// @Param id path uint true "Section ID"
// @Param source path string true "Question source" Enums(manual, bulk_file, library, test_library, ai_generated)
// @Success 200 {object} services.AddQuestionsResult
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sections/{id}/questions/{source} [post]
func (h *SectionHandler) AddQuestions(c *gin.Context) {
	sectionID := h.parseIDParam(c, "id")
	if sectionID == 0 {
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

	h.LogRequest(c, "Adding questions to section", "section_id", sectionID, "source", kind)

	result, err := h.assembly.AddQuestionsFromSource(c.Request.Context(), sectionID, req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RemoveQuestion removes the question at a position from a section
// @Summary Remove question from section
// @Tags sections
// @Param id path uint true "Section ID"
// @Param position path int true "Question position (0-based)"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sections/{id}/questions/{position} [delete]
func (h *SectionHandler) RemoveQuestion(c *gin.Context) {
	sectionID := h.parseIDParam(c, "id")
	if sectionID == 0 {
		return
	}
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	position, err := strconv.Atoi(c.Param("position"))
	if err != nil || position < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid position",
		})
		return
	}

	if err := h.assembly.RemoveQuestion(c.Request.Context(), sectionID, position, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Question removed"})
}
