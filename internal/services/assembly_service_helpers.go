package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/repositories"
)

// ===== PERMISSION CHECKS =====

// requireAuthor verifies the user exists and holds an authoring role.
func (s *assemblyService) requireAuthor(ctx context.Context, userID string) error {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to resolve user %s: %w", userID, err)
	}
	if !user.CanAuthor() {
		return NewPermissionError(userID, 0, "assessment", "create", "insufficient role permissions")
	}
	return nil
}

// requireOwnership verifies the user may operate on the assessment: owner,
// or admin.
func (s *assemblyService) requireOwnership(ctx context.Context, assessment *models.Assessment, userID, action string) error {
	if assessment.CreatedBy == userID {
		return nil
	}

	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to check role for user %s: %w", userID, err)
	}
	if !isAdmin {
		return NewPermissionError(userID, assessment.ID, "assessment", action, "not owner")
	}
	return nil
}

// ===== SECTION LOADING =====

func (s *assemblyService) loadOwnedSection(ctx context.Context, sectionID uint, userID, action string) (*models.Section, error) {
	section, err := s.repo.Section().GetByID(ctx, s.db, sectionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSectionNotFound
		}
		return nil, fmt.Errorf("failed to get section: %w", err)
	}
	if err := s.checkSectionOwnership(ctx, section, userID, action); err != nil {
		return nil, err
	}
	return section, nil
}

func (s *assemblyService) loadOwnedSectionWithQuestions(ctx context.Context, sectionID uint, userID, action string) (*models.Section, error) {
	section, err := s.repo.Section().GetByIDWithQuestions(ctx, s.db, sectionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSectionNotFound
		}
		return nil, fmt.Errorf("failed to get section: %w", err)
	}
	if err := s.checkSectionOwnership(ctx, section, userID, action); err != nil {
		return nil, err
	}
	return section, nil
}

func (s *assemblyService) checkSectionOwnership(ctx context.Context, section *models.Section, userID, action string) error {
	assessment, err := s.repo.Assessment().GetByID(ctx, s.db, section.AssessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("failed to get owning assessment: %w", err)
	}
	return s.requireOwnership(ctx, assessment, userID, action)
}

// ===== CONFIG & DEDUP HELPERS =====

func applySectionConfig(section *models.Section, req *SectionConfigRequest) {
	if req.Name != nil {
		section.Name = *req.Name
	}
	if req.RequiredQuestionCount != nil {
		section.RequiredQuestionCount = *req.RequiredQuestionCount
	}
	if req.MarksPerQuestion != nil {
		section.MarksPerQuestion = *req.MarksPerQuestion
	}
	if req.PassPercentage != nil {
		section.PassPercentage = *req.PassPercentage
	}
	if req.TimeRestricted != nil {
		section.TimeRestricted = *req.TimeRestricted
	}
}

// dedupeAgainstSection drops candidates already present in the section (by
// exact text+answer) and collapses duplicates inside the incoming batch.
// Returns the fresh questions and the skipped count.
func dedupeAgainstSection(section *models.Section, candidates []models.Question) ([]models.Question, int) {
	seen := make(map[string]bool, section.SelectedCount()+len(candidates))
	for i := range section.Questions {
		seen[section.Questions[i].Question.DedupKey()] = true
	}
	return dedupeCandidates(seen, candidates)
}

func dedupeAgainstFlatList(assessment *models.Assessment, candidates []models.Question) ([]models.Question, int) {
	seen := make(map[string]bool, len(assessment.FlatQuestions)+len(candidates))
	for i := range assessment.FlatQuestions {
		seen[assessment.FlatQuestions[i].Question.DedupKey()] = true
	}
	return dedupeCandidates(seen, candidates)
}

func dedupeCandidates(seen map[string]bool, candidates []models.Question) ([]models.Question, int) {
	fresh := make([]models.Question, 0, len(candidates))
	skipped := 0
	for _, q := range candidates {
		key := q.DedupKey()
		if seen[key] {
			skipped++
			continue
		}
		seen[key] = true
		fresh = append(fresh, q)
	}
	return fresh, skipped
}

// persistQuestions stores adapter output that is not yet in the bank and
// returns the ids to link. Library and test-library questions arrive with
// ids and are linked as-is.
func (s *assemblyService) persistQuestions(ctx context.Context, tx *gorm.DB, questions []models.Question, userID string) ([]uint, error) {
	ids := make([]uint, 0, len(questions))
	for i := range questions {
		if questions[i].ID == 0 {
			questions[i].CreatedBy = userID
			if err := s.repo.Question().Create(ctx, tx, &questions[i]); err != nil {
				return nil, fmt.Errorf("failed to store question: %w", err)
			}
		}
		ids = append(ids, questions[i].ID)
	}
	return ids, nil
}
