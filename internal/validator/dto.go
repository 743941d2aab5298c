package validator

import (
	"github.com/EduForge-2025/authoring-service/internal/models"
)

// ManualQuestionRequest is one hand-entered question. CorrectIndex points at
// the designated correct option.
type ManualQuestionRequest struct {
	Text         string                 `json:"text" validate:"required,max=2000"`
	Options      []string               `json:"options" validate:"required"`
	CorrectIndex int                    `json:"correct_index" validate:"min=0"`
	Level        models.DifficultyLevel `json:"level" validate:"omitempty,oneof=easy medium hard"`
	Tags         []string               `json:"tags"`
}

// GenerateQuestionsRequest asks the generation service for a batch of
// questions spread over Bloom levels. Percentages must sum to exactly 100.
type GenerateQuestionsRequest struct {
	Topic             string                         `json:"topic" validate:"required,max=200"`
	Subtopic          string                         `json:"subtopic" validate:"required,max=200"`
	QuestionCount     int                            `json:"question_count" validate:"required,min=1,max=50"`
	LevelDistribution map[models.DifficultyLevel]int `json:"level_distribution" validate:"required"`
}

// SectionConfigRequest carries the editable section configuration. Duration
// arrives as an hours+minutes pair the way the authoring form captures it.
type SectionConfigRequest struct {
	Name                  *string  `json:"name" validate:"omitempty,min=1,max=200"`
	RequiredQuestionCount *int     `json:"required_question_count" validate:"omitempty,min=1"`
	DurationHours         *int     `json:"duration_hours" validate:"omitempty,min=0"`
	DurationMinutes       *int     `json:"duration_minutes" validate:"omitempty,min=0,max=59"`
	MarksPerQuestion      *float64 `json:"marks_per_question" validate:"omitempty,gt=0"`
	PassPercentage        *float64 `json:"pass_percentage" validate:"omitempty,min=0,max=100"`
	TimeRestricted        *bool    `json:"time_restricted"`
}

// AssessmentCreateRequest creates a draft assessment. Sectioned assessments
// start with one default section.
type AssessmentCreateRequest struct {
	Title           string  `json:"title" validate:"required,min=1,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=1000"`
	SectionsEnabled bool    `json:"sections_enabled"`
}

// LibraryFilterRequest selects questions from the bank; all supplied
// predicates are combined with AND.
type LibraryFilterRequest struct {
	Search       string                 `json:"search"`
	Level        models.DifficultyLevel `json:"level" validate:"omitempty,oneof=easy medium hard"`
	Tags         []string               `json:"tags"`
	SourceTestID *uint                  `json:"source_test_id"`
}

// StudentFilterRequest narrows the directory listing client-side.
type StudentFilterRequest struct {
	College    string `json:"college" form:"college"`
	Department string `json:"department" form:"department"`
	Year       int    `json:"year" form:"year"`
	Search     string `json:"search" form:"search"`
}
