package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduForge-2025/authoring-service/internal/services"
	"github.com/EduForge-2025/authoring-service/internal/utils"
)

type StudentHandler struct {
	BaseHandler
	students services.StudentService
}

func NewStudentHandler(students services.StudentService, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler: NewBaseHandler(logger),
		students:    students,
	}
}

// ListStudents lists the student directory for recipient selection
// @Summary List students
// @Tags students
// @Produce json
// @Param college query string false "Filter by college"
// @Param department query string false "Filter by department"
// @Param year query int false "Filter by year"
// @Param search query string false "Name, registration number or email search"
// @Success 200 {object} map[string]interface{}
// @Router /students [get]
func (h *StudentHandler) ListStudents(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	var filter services.StudentFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	students, err := h.students.List(c.Request.Context(), &filter)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"students": students,
		"total":    len(students),
	})
}
