package repositories

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Repository aggregates every sub-repository behind one handle.
type Repository interface {
	Assessment() AssessmentRepository
	Section() SectionRepository
	Question() QuestionRepository
	TestBank() TestBankRepository
	Student() StudentRepository
	User() UserRepository

	// WithTransaction runs fn inside one database transaction; any error
	// rolls back every write made through the passed repository.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager owns repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// IsNotFoundError reports whether err is a missing-record condition from any
// backing store.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}
	return strings.Contains(err.Error(), "not found")
}
