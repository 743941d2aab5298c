package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/repositories"
)

type questionBankService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewQuestionBankService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) QuestionBankService {
	return &questionBankService{repo: repo, db: db, logger: logger}
}

// Search lists bank questions visible to the caller. Non-admin users only
// see their own questions.
func (s *questionBankService) Search(ctx context.Context, filters repositories.QuestionFilters, userID string) ([]*models.Question, int64, error) {
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to check role for user %s: %w", userID, err)
	}
	if !isAdmin {
		filters.CreatedBy = userID
	}

	questions, total, err := s.repo.Question().Search(ctx, s.db, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search questions: %w", err)
	}
	return questions, total, nil
}

func (s *questionBankService) Delete(ctx context.Context, questionID uint, userID string) error {
	question, err := s.repo.Question().GetByID(ctx, s.db, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	if question.CreatedBy != userID {
		isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
		if err != nil {
			return fmt.Errorf("failed to check role for user %s: %w", userID, err)
		}
		if !isAdmin {
			return NewPermissionError(userID, questionID, "question", "delete", "not owner")
		}
	}

	if err := s.repo.Question().Delete(ctx, s.db, questionID); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("question deleted", "question_id", questionID, "user_id", userID)
	return nil
}

// ListTests returns the caller's saved tests usable as a question source.
func (s *questionBankService) ListTests(ctx context.Context, userID string) ([]*models.Assessment, error) {
	tests, err := s.repo.TestBank().ListTests(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	return tests, nil
}
