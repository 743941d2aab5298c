package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/repositories"
	"github.com/EduForge-2025/authoring-service/internal/services"
	"github.com/EduForge-2025/authoring-service/internal/utils"
)

type QuestionBankHandler struct {
	BaseHandler
	bank services.QuestionBankService
}

func NewQuestionBankHandler(bank services.QuestionBankService, logger utils.Logger) *QuestionBankHandler {
	return &QuestionBankHandler{
		BaseHandler: NewBaseHandler(logger),
		bank:        bank,
	}
}

// SearchQuestions searches the caller's question bank
// @Summary Search question bank
// @Tags questions
// @Produce json
// @Param search query string false "Text search"
// @Param level query string false "Difficulty level" Enums(easy, medium, hard)
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /questions [get]
func (h *QuestionBankHandler) SearchQuestions(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)
	filters := repositories.QuestionFilters{
		Search: c.Query("search"),
		Level:  models.DifficultyLevel(c.Query("level")),
		Tags:   c.QueryArray("tag"),
		Limit:  size,
		Offset: (page - 1) * size,
	}

	questions, total, err := h.bank.Search(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"questions": questions,
		"total":     total,
		"page":      page,
		"size":      size,
	})
}

// DeleteQuestion deletes a question from the bank
// @Summary Delete question
// @Tags questions
// @Param id path uint true "Question ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [delete]
func (h *QuestionBankHandler) DeleteQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	if err := h.bank.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Question deleted"})
}

// ListTests lists the caller's published tests usable as a question source
// @Summary List saved tests
// @Tags questions
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /questions/tests [get]
func (h *QuestionBankHandler) ListTests(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	tests, err := h.bank.ListTests(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tests": tests})
}
