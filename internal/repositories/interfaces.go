package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/EduForge-2025/authoring-service/internal/models"
)

// QuestionFilters is the library predicate: all set fields are AND-ed.
type QuestionFilters struct {
	Search       string
	Level        models.DifficultyLevel
	Tags         []string
	SourceTestID *uint
	CreatedBy    string
	Limit        int
	Offset       int
}

// AssessmentFilters narrows assessment listings.
type AssessmentFilters struct {
	Published *bool
	Search    string
	Limit     int
	Offset    int
}

// AssessmentRepository persists the authoring aggregate.
type AssessmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	// GetByIDWithDetails preloads sections (with ordered questions), the
	// flat question list and recipients.
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	ListByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters AssessmentFilters) ([]*models.Assessment, int64, error)

	// MarkPublished flips the one-way published flag and stores the share
	// token; it fails if the assessment is already published.
	MarkPublished(ctx context.Context, tx *gorm.DB, id uint, shareToken string) error
	ReplaceRecipients(ctx context.Context, tx *gorm.DB, assessmentID uint, registrationNos []string) error

	// Flat question list (unsectioned mode).
	AddFlatQuestions(ctx context.Context, tx *gorm.DB, assessmentID uint, questionIDs []uint) error
	RemoveFlatQuestion(ctx context.Context, tx *gorm.DB, assessmentID, questionID uint) error
}

// SectionRepository persists sections and their question lists. Lock
// enforcement lives in the service layer; the repository is mechanical.
type SectionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, section *models.Section) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Section, error)
	// GetByIDWithQuestions preloads join rows ordered by position.
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Section, error)
	Update(ctx context.Context, tx *gorm.DB, section *models.Section) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// ShiftPositions makes room at the head of the section list so a new
	// section can be prepended.
	ShiftPositions(ctx context.Context, tx *gorm.DB, assessmentID uint) error

	AppendQuestions(ctx context.Context, tx *gorm.DB, sectionID uint, questionIDs []uint) error
	RemoveQuestionAt(ctx context.Context, tx *gorm.DB, sectionID uint, position int) error
	MarkSubmitted(ctx context.Context, tx *gorm.DB, sectionID uint) error
}

// QuestionRepository is the reusable question bank.
type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error)
	Search(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]*models.Question, int64, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

// TestBankRepository exposes previously saved tests as a question source.
type TestBankRepository interface {
	ListTests(ctx context.Context, tx *gorm.DB, creatorID string) ([]*models.Assessment, error)
	// GetQuestions returns every question of the given saved test in
	// section order, stamped with the originating section name.
	GetQuestions(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Question, error)
}

// StudentRepository is the external student directory, read-only here.
type StudentRepository interface {
	List(ctx context.Context) ([]*models.StudentRef, error)
	GetByRegistrationNos(ctx context.Context, registrationNos []string) ([]*models.StudentRef, error)
}

// UserRepository resolves authoring identities (read-only).
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	HasRole(ctx context.Context, id string, role models.UserRole) (bool, error)
}
