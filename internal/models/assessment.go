package models

import (
	"time"

	"gorm.io/gorm"
)

// Assessment is the authoring aggregate. In sectioned mode questions live in
// Sections; in unsectioned mode they live on the flat question list. Once
// Published is set the assessment is terminal: no un-publish exists.
type Assessment struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`

	SectionsEnabled bool `json:"sections_enabled" gorm:"not null;default:true"`

	Published   bool       `json:"published" gorm:"not null;default:false;index"`
	PublishedAt *time.Time `json:"published_at"`
	ShareToken  *string    `json:"share_token,omitempty" gorm:"size:64;uniqueIndex"`

	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Sections      []Section              `json:"sections" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	FlatQuestions []AssessmentQuestion   `json:"flat_questions" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	Recipients    []AssessmentRecipient  `json:"recipients" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`

	// Computed fields (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
	SectionsCount  int `json:"sections_count" gorm:"-"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// AssessmentQuestion holds the flat question list used when sections are
// disabled.
type AssessmentQuestion struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	AssessmentID uint `json:"assessment_id" gorm:"not null;index;uniqueIndex:idx_assessment_question,priority:1"`
	QuestionID   uint `json:"question_id" gorm:"not null;index;uniqueIndex:idx_assessment_question,priority:2"`
	Position     int  `json:"position" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

func (AssessmentQuestion) TableName() string {
	return "assessment_questions"
}

// AssessmentRecipient records one addressed student by registration number.
type AssessmentRecipient struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	AssessmentID   uint   `json:"assessment_id" gorm:"not null;index;uniqueIndex:idx_assessment_recipient,priority:1"`
	RegistrationNo string `json:"registration_no" gorm:"not null;size:64;uniqueIndex:idx_assessment_recipient,priority:2"`

	CreatedAt time.Time `json:"created_at"`
}

func (AssessmentRecipient) TableName() string {
	return "assessment_recipients"
}
