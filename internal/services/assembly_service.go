package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/repositories"
	"github.com/EduForge-2025/authoring-service/internal/sources"
	"github.com/EduForge-2025/authoring-service/internal/validator"
)

type assemblyService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	registry  *sources.Registry
}

func NewAssemblyService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, registry *sources.Registry) AssemblyService {
	return &assemblyService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		registry:  registry,
	}
}

// ===== ASSESSMENT LIFECYCLE =====

func (s *assemblyService) CreateAssessment(ctx context.Context, req *CreateAssessmentRequest, creatorID string) (*AssessmentResponse, error) {
	s.logger.Info("creating assessment", "creator_id", creatorID, "title", req.Title)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.requireAuthor(ctx, creatorID); err != nil {
		return nil, err
	}

	assessment := &models.Assessment{
		Title:           req.Title,
		Description:     req.Description,
		SectionsEnabled: req.SectionsEnabled,
		CreatedBy:       creatorID,
	}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Assessment().Create(ctx, tx, assessment); err != nil {
			return fmt.Errorf("failed to create assessment: %w", err)
		}
		// A sectioned assessment starts with one default section.
		if req.SectionsEnabled {
			section := models.DefaultSection(assessment.ID, "Section 1")
			if err := s.repo.Section().Create(ctx, tx, section); err != nil {
				return fmt.Errorf("failed to create default section: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("assessment created", "assessment_id", assessment.ID)
	return s.GetAssessment(ctx, assessment.ID, creatorID)
}

func (s *assemblyService) GetAssessment(ctx context.Context, id uint, userID string) (*AssessmentResponse, error) {
	assessment, err := s.repo.Assessment().GetByIDWithDetails(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if err := s.requireOwnership(ctx, assessment, userID, "read"); err != nil {
		return nil, err
	}

	return s.toResponse(assessment), nil
}

func (s *assemblyService) ListAssessments(ctx context.Context, creatorID string, filters repositories.AssessmentFilters) (*AssessmentListResponse, error) {
	assessments, total, err := s.repo.Assessment().ListByCreator(ctx, s.db, creatorID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	resp := &AssessmentListResponse{
		Assessments: make([]*AssessmentResponse, 0, len(assessments)),
		Total:       total,
		Size:        filters.Limit,
	}
	if filters.Limit > 0 {
		resp.Page = filters.Offset/filters.Limit + 1
	}
	for _, a := range assessments {
		resp.Assessments = append(resp.Assessments, s.toResponse(a))
	}
	return resp, nil
}

func (s *assemblyService) DeleteAssessment(ctx context.Context, id uint, userID string) error {
	assessment, err := s.repo.Assessment().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("failed to get assessment: %w", err)
	}
	if err := s.requireOwnership(ctx, assessment, userID, "delete"); err != nil {
		return err
	}
	if assessment.Published {
		return ErrAlreadyPublished
	}

	if err := s.repo.Assessment().Delete(ctx, s.db, id); err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}
	s.logger.Info("assessment deleted", "assessment_id", id, "user_id", userID)
	return nil
}

// ===== SECTION MANAGEMENT =====

func (s *assemblyService) AddSection(ctx context.Context, assessmentID uint, name *string, userID string) (*models.Section, error) {
	assessment, err := s.repo.Assessment().GetByIDWithDetails(ctx, s.db, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	if err := s.requireOwnership(ctx, assessment, userID, "add_section"); err != nil {
		return nil, err
	}
	if !assessment.SectionsEnabled {
		return nil, ErrSectionsDisabled
	}
	if assessment.Published {
		return nil, ErrAlreadyPublished
	}

	sectionName := fmt.Sprintf("Section %d", len(assessment.Sections)+1)
	if name != nil && *name != "" {
		sectionName = *name
	}

	// New sections are prepended, so existing positions shift down first.
	section := models.DefaultSection(assessmentID, sectionName)
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Section().ShiftPositions(ctx, tx, assessmentID); err != nil {
			return fmt.Errorf("failed to shift section positions: %w", err)
		}
		if err := s.repo.Section().Create(ctx, tx, section); err != nil {
			return fmt.Errorf("failed to create section: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("section added", "assessment_id", assessmentID, "section_id", section.ID, "name", sectionName)
	return section, nil
}

func (s *assemblyService) UpdateSectionConfig(ctx context.Context, sectionID uint, req *SectionConfigRequest, userID string) (*models.Section, error) {
	if errs := s.validator.GetBusinessValidator().ValidateSectionConfig(req); errs.HasErrors() {
		return nil, errs
	}

	section, err := s.loadOwnedSection(ctx, sectionID, userID, "update_config")
	if err != nil {
		return nil, err
	}
	if section.Submitted {
		return nil, &LockedSectionError{SectionID: sectionID, Op: "update_config"}
	}

	applySectionConfig(section, req)
	if req.DurationHours != nil || req.DurationMinutes != nil {
		hours := section.DurationMinutes / 60
		minutes := section.DurationMinutes % 60
		if req.DurationHours != nil {
			hours = *req.DurationHours
		}
		if req.DurationMinutes != nil {
			minutes = *req.DurationMinutes
		}
		total, err := validator.DurationFromParts(hours, minutes)
		if err != nil {
			return nil, err
		}
		section.DurationMinutes = total
	}

	if err := s.repo.Section().Update(ctx, s.db, section); err != nil {
		return nil, fmt.Errorf("failed to update section: %w", err)
	}
	return section, nil
}

func (s *assemblyService) RemoveSection(ctx context.Context, sectionID uint, userID string) error {
	section, err := s.loadOwnedSection(ctx, sectionID, userID, "delete")
	if err != nil {
		return err
	}
	if section.Submitted {
		return &LockedSectionError{SectionID: sectionID, Op: "delete"}
	}

	if err := s.repo.Section().Delete(ctx, s.db, sectionID); err != nil {
		return fmt.Errorf("failed to delete section: %w", err)
	}
	s.logger.Info("section removed", "section_id", sectionID, "user_id", userID)
	return nil
}

// SubmitSection locks a section once its question count exactly matches the
// requirement. The transition is one-way; a repeat call is rejected without
// re-validation.
func (s *assemblyService) SubmitSection(ctx context.Context, sectionID uint, userID string) error {
	section, err := s.loadOwnedSectionWithQuestions(ctx, sectionID, userID, "submit")
	if err != nil {
		return err
	}
	if section.Submitted {
		return &AlreadySubmittedError{SectionID: sectionID}
	}

	selected := section.SelectedCount()
	required := section.RequiredQuestionCount
	switch {
	case selected < required:
		return &InsufficientQuestionsError{SectionID: sectionID, Selected: selected, Required: required}
	case selected > required:
		return &ExcessQuestionsError{SectionID: sectionID, Selected: selected, Required: required}
	}

	if err := s.repo.Section().MarkSubmitted(ctx, s.db, sectionID); err != nil {
		return fmt.Errorf("failed to mark section submitted: %w", err)
	}

	s.logger.Info("section submitted", "section_id", sectionID, "questions", selected, "user_id", userID)
	return nil
}

// ===== QUESTION ACCUMULATION =====

// AddQuestionsFromSource runs one adapter and appends its output to the
// section. The insertion is all-or-nothing: adapter failure or any write
// error leaves the section untouched. Questions already present (by exact
// text+answer) are skipped, not duplicated.
func (s *assemblyService) AddQuestionsFromSource(ctx context.Context, sectionID uint, req *sources.Request, userID string) (*AddQuestionsResult, error) {
	section, err := s.loadOwnedSectionWithQuestions(ctx, sectionID, userID, "add_questions")
	if err != nil {
		return nil, err
	}
	if section.Submitted {
		return nil, &LockedSectionError{SectionID: sectionID, Op: "add_questions"}
	}

	produced, err := s.registry.Produce(ctx, req)
	if err != nil {
		return nil, err
	}

	fresh, skipped := dedupeAgainstSection(section, produced.Questions)
	result := &AddQuestionsResult{
		DuplicatesSkipped: skipped,
		DroppedRows:       produced.Dropped,
		TotalInSection:    section.SelectedCount(),
	}
	if len(fresh) == 0 {
		return result, nil
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		ids, err := s.persistQuestions(ctx, tx, fresh, userID)
		if err != nil {
			return err
		}
		if err := s.repo.Section().AppendQuestions(ctx, tx, sectionID, ids); err != nil {
			return fmt.Errorf("failed to append questions to section: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Added = len(fresh)
	result.TotalInSection += len(fresh)
	s.logger.Info("questions added to section",
		"section_id", sectionID,
		"source", req.Kind,
		"added", result.Added,
		"duplicates_skipped", result.DuplicatesSkipped)
	return result, nil
}

func (s *assemblyService) RemoveQuestion(ctx context.Context, sectionID uint, position int, userID string) error {
	section, err := s.loadOwnedSectionWithQuestions(ctx, sectionID, userID, "remove_question")
	if err != nil {
		return err
	}
	if section.Submitted {
		return &LockedSectionError{SectionID: sectionID, Op: "remove_question"}
	}
	if position < 0 || position >= section.SelectedCount() {
		return fmt.Errorf("%w: position %d out of range", ErrQuestionNotFound, position)
	}

	if err := s.repo.Section().RemoveQuestionAt(ctx, s.db, sectionID, position); err != nil {
		return fmt.Errorf("failed to remove question: %w", err)
	}
	return nil
}

func (s *assemblyService) AddFlatQuestionsFromSource(ctx context.Context, assessmentID uint, req *sources.Request, userID string) (*AddQuestionsResult, error) {
	assessment, err := s.repo.Assessment().GetByIDWithDetails(ctx, s.db, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	if err := s.requireOwnership(ctx, assessment, userID, "add_questions"); err != nil {
		return nil, err
	}
	if assessment.SectionsEnabled {
		return nil, fmt.Errorf("assessment %d uses sections, add questions to a section instead", assessmentID)
	}
	if assessment.Published {
		return nil, ErrAlreadyPublished
	}

	produced, err := s.registry.Produce(ctx, req)
	if err != nil {
		return nil, err
	}

	fresh, skipped := dedupeAgainstFlatList(assessment, produced.Questions)
	result := &AddQuestionsResult{
		DuplicatesSkipped: skipped,
		DroppedRows:       produced.Dropped,
		TotalInSection:    len(assessment.FlatQuestions),
	}
	if len(fresh) == 0 {
		return result, nil
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		ids, err := s.persistQuestions(ctx, tx, fresh, userID)
		if err != nil {
			return err
		}
		if err := s.repo.Assessment().AddFlatQuestions(ctx, tx, assessmentID, ids); err != nil {
			return fmt.Errorf("failed to append flat questions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Added = len(fresh)
	result.TotalInSection += len(fresh)
	return result, nil
}

func (s *assemblyService) RemoveFlatQuestion(ctx context.Context, assessmentID, questionID uint, userID string) error {
	assessment, err := s.repo.Assessment().GetByID(ctx, s.db, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("failed to get assessment: %w", err)
	}
	if err := s.requireOwnership(ctx, assessment, userID, "remove_question"); err != nil {
		return err
	}
	if assessment.Published {
		return ErrAlreadyPublished
	}

	if err := s.repo.Assessment().RemoveFlatQuestion(ctx, s.db, assessmentID, questionID); err != nil {
		return fmt.Errorf("failed to remove flat question: %w", err)
	}
	return nil
}

// ===== PUBLISHABILITY =====

// CanPublish reports whether the assessment may be published: every section
// submitted in sectioned mode, at least one flat question otherwise.
func (s *assemblyService) CanPublish(assessment *models.Assessment) bool {
	if assessment == nil || assessment.Published {
		return false
	}
	if !assessment.SectionsEnabled {
		return len(assessment.FlatQuestions) > 0
	}
	if len(assessment.Sections) == 0 {
		return false
	}
	for _, section := range assessment.Sections {
		if !section.Submitted {
			return false
		}
	}
	return true
}

func (s *assemblyService) toResponse(assessment *models.Assessment) *AssessmentResponse {
	assessment.SectionsCount = len(assessment.Sections)
	count := len(assessment.FlatQuestions)
	for _, section := range assessment.Sections {
		count += len(section.Questions)
	}
	assessment.QuestionsCount = count

	return &AssessmentResponse{
		Assessment: assessment,
		CanPublish: s.CanPublish(assessment),
		CanEdit:    !assessment.Published,
	}
}
