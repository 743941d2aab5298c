package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/sources"
	"github.com/EduForge-2025/authoring-service/internal/validator"
)

type manualPayload struct {
	Questions []validator.ManualQuestionRequest `json:"questions" binding:"required"`
}

type librarySelectionPayload struct {
	QuestionIDs []uint                         `json:"question_ids"`
	SelectAll   bool                           `json:"select_all"`
	Filter      validator.LibraryFilterRequest `json:"filter"`
}

type testSelectionPayload struct {
	TestID      uint   `json:"test_id" binding:"required"`
	QuestionIDs []uint `json:"question_ids"`
	SelectAll   bool   `json:"select_all"`
}

// buildSourceRequest turns an HTTP request into the uniform adapter request
// for the named source kind. Returns nil after writing the error response.
func buildSourceRequest(c *gin.Context, kind models.SourceKind) *sources.Request {
	switch kind {
	case models.SourceManual:
		var payload manualPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return nil
		}
		return &sources.Request{Kind: kind, Manual: payload.Questions}

	case models.SourceBulkFile:
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Missing uploaded file",
				Details: err.Error(),
			})
			return nil
		}
		return &sources.Request{Kind: kind, BulkFile: &sources.FileUpload{
			Reader:   file,
			Filename: header.Filename,
		}}

	case models.SourceLibrary:
		var payload librarySelectionPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return nil
		}
		return &sources.Request{Kind: kind, Library: &sources.LibrarySelection{
			QuestionIDs: payload.QuestionIDs,
			SelectAll:   payload.SelectAll,
			Filter:      payload.Filter,
		}}

	case models.SourceTestLibrary:
		var payload testSelectionPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return nil
		}
		return &sources.Request{Kind: kind, TestLibrary: &sources.TestSelection{
			TestID:      payload.TestID,
			QuestionIDs: payload.QuestionIDs,
			SelectAll:   payload.SelectAll,
		}}

	case models.SourceAIGenerated:
		var payload validator.GenerateQuestionsRequest
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return nil
		}
		return &sources.Request{Kind: kind, Generate: &payload}
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Message: fmt.Sprintf("Unknown question source %q", kind),
	})
	return nil
}

// parseSourceKind reads the :source path segment.
func parseSourceKind(c *gin.Context) (models.SourceKind, bool) {
	kind := models.SourceKind(c.Param("source"))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: fmt.Sprintf("Unknown question source %q", c.Param("source")),
		})
		return "", false
	}
	return kind, true
}
