package models

import (
	"time"
)

// Default configuration applied to every freshly created section.
const (
	DefaultRequiredQuestionCount = 10
	DefaultDurationMinutes       = 10
	DefaultMarksPerQuestion      = 1.0
	DefaultPassPercentage        = 50.0
)

// Section is an independently timed and scored subdivision of an assessment.
// Once Submitted is set, the configuration and question list are immutable;
// there is no unlock transition in this service.
type Section struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	AssessmentID uint `json:"assessment_id" gorm:"not null;index"`

	Name                  string  `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	RequiredQuestionCount int     `json:"required_question_count" gorm:"not null;default:10" validate:"required,min=1"`
	DurationMinutes       int     `json:"duration_minutes" gorm:"not null;default:10" validate:"min=0"`
	MarksPerQuestion      float64 `json:"marks_per_question" gorm:"not null;default:1"`
	PassPercentage        float64 `json:"pass_percentage" gorm:"not null;default:50" validate:"min=0,max=100"`
	TimeRestricted        bool    `json:"time_restricted" gorm:"not null;default:false"`

	Position    int        `json:"position" gorm:"not null;default:0;index"`
	Submitted   bool       `json:"submitted" gorm:"not null;default:false"`
	SubmittedAt *time.Time `json:"submitted_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []SectionQuestion `json:"questions" gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE"`
}

func (Section) TableName() string {
	return "sections"
}

// SelectedCount is the number of questions currently accumulated.
func (s *Section) SelectedCount() int {
	return len(s.Questions)
}

// QuestionList unwraps the join rows in position order. Rows are expected to
// be preloaded already ordered; this does not re-sort.
func (s *Section) QuestionList() []Question {
	out := make([]Question, 0, len(s.Questions))
	for _, sq := range s.Questions {
		out = append(out, sq.Question)
	}
	return out
}

// SectionQuestion links a question into a section at a position.
type SectionQuestion struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	SectionID  uint `json:"section_id" gorm:"not null;index;uniqueIndex:idx_section_question,priority:1"`
	QuestionID uint `json:"question_id" gorm:"not null;index;uniqueIndex:idx_section_question,priority:2"`
	Position   int  `json:"position" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

func (SectionQuestion) TableName() string {
	return "section_questions"
}

// DefaultSection returns an unsubmitted section carrying the system default
// configuration (10 questions, 10 minutes, 1 mark each, 50% pass).
func DefaultSection(assessmentID uint, name string) *Section {
	return &Section{
		AssessmentID:          assessmentID,
		Name:                  name,
		RequiredQuestionCount: DefaultRequiredQuestionCount,
		DurationMinutes:       DefaultDurationMinutes,
		MarksPerQuestion:      DefaultMarksPerQuestion,
		PassPercentage:        DefaultPassPercentage,
	}
}
