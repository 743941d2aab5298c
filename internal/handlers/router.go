package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduForge-2025/authoring-service/internal/config"
	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/repositories"
	"github.com/EduForge-2025/authoring-service/internal/services"
	"github.com/EduForge-2025/authoring-service/internal/utils"
	"github.com/EduForge-2025/authoring-service/internal/validator"
)

// HandlerManager wires the HTTP handlers to the service layer.
type HandlerManager struct {
	assessmentHandler   *AssessmentHandler
	sectionHandler      *SectionHandler
	questionBankHandler *QuestionBankHandler
	studentHandler      *StudentHandler
	authMiddleware      *CasdoorAuthMiddleware
	services            services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	v *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	return &HandlerManager{
		assessmentHandler:   NewAssessmentHandler(serviceManager.Assembly(), serviceManager.Publication(), v, logger),
		sectionHandler:      NewSectionHandler(serviceManager.Assembly(), v, logger),
		questionBankHandler: NewQuestionBankHandler(serviceManager.QuestionBank(), logger),
		studentHandler:      NewStudentHandler(serviceManager.Student(), logger),
		authMiddleware:      NewCasdoorAuthMiddleware(casdoorConfig, userRepo),
		services:            serviceManager,
	}
}

// SetupRoutes registers all API routes on the router.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())

	authoring := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin)

	assessments := v1.Group("/assessments")
	{
		assessments.POST("", authoring, hm.assessmentHandler.CreateAssessment)
		assessments.GET("", authoring, hm.assessmentHandler.ListAssessments)
		assessments.GET("/:id", authoring, hm.assessmentHandler.GetAssessment)
		assessments.DELETE("/:id", authoring, hm.assessmentHandler.DeleteAssessment)
		assessments.POST("/:id/publish", authoring, hm.assessmentHandler.PublishAssessment)
		assessments.POST("/:id/sections", authoring, hm.sectionHandler.AddSection)
		assessments.POST("/:id/questions/:source", authoring, hm.assessmentHandler.AddFlatQuestions)
		assessments.DELETE("/:id/questions/:question_id", authoring, hm.assessmentHandler.RemoveFlatQuestion)
	}

	sections := v1.Group("/sections")
	{
		sections.PUT("/:id", authoring, hm.sectionHandler.UpdateSectionConfig)
		sections.DELETE("/:id", authoring, hm.sectionHandler.RemoveSection)
		sections.POST("/:id/submit", authoring, hm.sectionHandler.SubmitSection)
		sections.POST("/:id/questions/:source", authoring, hm.sectionHandler.AddQuestions)
		sections.DELETE("/:id/questions/:position", authoring, hm.sectionHandler.RemoveQuestion)
	}

	questions := v1.Group("/questions")
	{
		questions.GET("", authoring, hm.questionBankHandler.SearchQuestions)
		questions.GET("/tests", authoring, hm.questionBankHandler.ListTests)
		questions.DELETE("/:id", authoring, hm.questionBankHandler.DeleteQuestion)
	}

	v1.GET("/students", authoring, hm.studentHandler.ListStudents)
}

// healthCheck reports service and dependency health
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (hm *HandlerManager) healthCheck(c *gin.Context) {
	if err := hm.services.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
