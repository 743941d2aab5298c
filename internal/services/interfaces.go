package services

import (
	"context"

	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/repositories"
	"github.com/EduForge-2025/authoring-service/internal/sources"
	"github.com/EduForge-2025/authoring-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateAssessmentRequest = validator.AssessmentCreateRequest
type SectionConfigRequest = validator.SectionConfigRequest
type StudentFilterRequest = validator.StudentFilterRequest

type AssessmentResponse struct {
	*models.Assessment
	CanPublish bool `json:"can_publish"`
	CanEdit    bool `json:"can_edit"`
}

type AssessmentListResponse struct {
	Assessments []*AssessmentResponse `json:"assessments"`
	Total       int64                 `json:"total"`
	Page        int                   `json:"page"`
	Size        int                   `json:"size"`
}

// AddQuestionsResult reports what one adapter-backed insertion did.
type AddQuestionsResult struct {
	Added             int `json:"added"`
	DuplicatesSkipped int `json:"duplicates_skipped"`
	DroppedRows       int `json:"dropped_rows"`
	TotalInSection    int `json:"total_in_section"`
}

// PublishResult is the opaque share reference returned by a successful
// publish.
type PublishResult struct {
	AssessmentID   uint   `json:"assessment_id"`
	ShareURL       string `json:"share_url"`
	QuestionCount  int    `json:"question_count"`
	RecipientCount int    `json:"recipient_count"`
}

// ===== SERVICES =====

// AssemblyService is the coordinator between question sources and sections:
// it accumulates questions, gates section submission on the exact-count rule
// and answers the publishability predicate.
type AssemblyService interface {
	// Assessment lifecycle
	CreateAssessment(ctx context.Context, req *CreateAssessmentRequest, creatorID string) (*AssessmentResponse, error)
	GetAssessment(ctx context.Context, id uint, userID string) (*AssessmentResponse, error)
	ListAssessments(ctx context.Context, creatorID string, filters repositories.AssessmentFilters) (*AssessmentListResponse, error)
	DeleteAssessment(ctx context.Context, id uint, userID string) error

	// Section management
	AddSection(ctx context.Context, assessmentID uint, name *string, userID string) (*models.Section, error)
	UpdateSectionConfig(ctx context.Context, sectionID uint, req *SectionConfigRequest, userID string) (*models.Section, error)
	RemoveSection(ctx context.Context, sectionID uint, userID string) error
	SubmitSection(ctx context.Context, sectionID uint, userID string) error

	// Question accumulation (sectioned mode)
	AddQuestionsFromSource(ctx context.Context, sectionID uint, req *sources.Request, userID string) (*AddQuestionsResult, error)
	RemoveQuestion(ctx context.Context, sectionID uint, position int, userID string) error

	// Question accumulation (unsectioned mode)
	AddFlatQuestionsFromSource(ctx context.Context, assessmentID uint, req *sources.Request, userID string) (*AddQuestionsResult, error)
	RemoveFlatQuestion(ctx context.Context, assessmentID, questionID uint, userID string) error

	// CanPublish is the pure publishability predicate; the publication
	// service consults it before any network call.
	CanPublish(assessment *models.Assessment) bool
}

// PublicationService owns the one-way publish transition: question
// collection with structural dedup, recipient resolution and the guarded
// publish call.
type PublicationService interface {
	CollectQuestions(assessment *models.Assessment) []models.Question
	ResolveRecipients(ctx context.Context, registrationNos []string) ([]*models.StudentRef, error)
	Publish(ctx context.Context, assessmentID uint, registrationNos []string, userID string) (*PublishResult, error)
}

// StudentService reads the external student directory.
type StudentService interface {
	List(ctx context.Context, filter *StudentFilterRequest) ([]*models.StudentRef, error)
}

// QuestionBankService manages the reusable question bank.
type QuestionBankService interface {
	Search(ctx context.Context, filters repositories.QuestionFilters, userID string) ([]*models.Question, int64, error)
	Delete(ctx context.Context, questionID uint, userID string) error
	ListTests(ctx context.Context, userID string) ([]*models.Assessment, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Assembly() AssemblyService
	Publication() PublicationService
	Student() StudentService
	QuestionBank() QuestionBankService

	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
