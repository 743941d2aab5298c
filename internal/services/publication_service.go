package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/EduForge-2025/authoring-service/internal/events"
	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/repositories"
)

type publicationService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	publisher events.Publisher
	shareBase string

	// publish is the single non-idempotent operation in the service; the
	// latch rejects a second call for the same assessment while one is
	// still running. No server-side idempotency key is assumed.
	mu       sync.Mutex
	inFlight map[uint]bool
}

func NewPublicationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, publisher events.Publisher, shareBaseURL string) PublicationService {
	return &publicationService{
		repo:      repo,
		db:        db,
		logger:    logger,
		publisher: publisher,
		shareBase: shareBaseURL,
		inFlight:  make(map[uint]bool),
	}
}

// CollectQuestions flattens every section question list (or the flat list in
// unsectioned mode) and collapses structural duplicates, keeping first
// occurrence order. Running it twice yields identical output.
func (s *publicationService) CollectQuestions(assessment *models.Assessment) []models.Question {
	var out []models.Question
	seen := make(map[string]bool)

	appendUnique := func(q models.Question) {
		key := q.StructuralKey()
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, q)
	}

	if !assessment.SectionsEnabled {
		for _, aq := range assessment.FlatQuestions {
			appendUnique(aq.Question)
		}
		return out
	}

	for _, section := range assessment.Sections {
		for _, sq := range section.Questions {
			appendUnique(sq.Question)
		}
	}
	return out
}

// ResolveRecipients maps registration numbers through the student directory.
func (s *publicationService) ResolveRecipients(ctx context.Context, registrationNos []string) ([]*models.StudentRef, error) {
	if len(registrationNos) == 0 {
		return nil, &EmptyRecipientSetError{}
	}

	students, err := s.repo.Student().GetByRegistrationNos(ctx, registrationNos)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipients: %w", err)
	}
	if len(students) == 0 {
		return nil, &EmptyRecipientSetError{}
	}
	return students, nil
}

// Publish performs the one-way publish transition. Preconditions are checked
// before any write; success persists the share token and recipient set, then
// emits the notification event. Callers must not retry automatically on an
// ambiguous failure.
func (s *publicationService) Publish(ctx context.Context, assessmentID uint, registrationNos []string, userID string) (*PublishResult, error) {
	if err := s.acquireLatch(assessmentID); err != nil {
		return nil, err
	}
	defer s.releaseLatch(assessmentID)

	assessment, err := s.repo.Assessment().GetByIDWithDetails(ctx, s.db, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	if assessment.Published {
		return nil, ErrAlreadyPublished
	}

	if assessment.SectionsEnabled {
		for _, section := range assessment.Sections {
			if !section.Submitted {
				return nil, &PublishPreconditionError{Reason: ReasonSectionsNotSubmitted}
			}
		}
		if len(assessment.Sections) == 0 {
			return nil, &PublishPreconditionError{Reason: ReasonNoQuestions}
		}
	}

	questions := s.CollectQuestions(assessment)
	if len(questions) == 0 {
		return nil, &PublishPreconditionError{Reason: ReasonNoQuestions}
	}

	if len(registrationNos) == 0 {
		return nil, &PublishPreconditionError{Reason: ReasonNoRecipients}
	}
	recipients, err := s.ResolveRecipients(ctx, registrationNos)
	if err != nil {
		return nil, err
	}

	shareToken := uuid.NewString()
	recipientNos := make([]string, 0, len(recipients))
	for _, r := range recipients {
		recipientNos = append(recipientNos, r.RegistrationNo)
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Assessment().ReplaceRecipients(ctx, tx, assessmentID, recipientNos); err != nil {
			return fmt.Errorf("failed to store recipients: %w", err)
		}
		if err := s.repo.Assessment().MarkPublished(ctx, tx, assessmentID, shareToken); err != nil {
			return fmt.Errorf("failed to mark assessment published: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &PublishResult{
		AssessmentID:   assessmentID,
		ShareURL:       fmt.Sprintf("%s/a/%s", s.shareBase, shareToken),
		QuestionCount:  len(questions),
		RecipientCount: len(recipients),
	}

	// The publish itself is committed; a notification failure is logged,
	// not rolled back.
	event := &events.AssessmentPublishedEvent{
		AssessmentID:  assessmentID,
		Title:         assessment.Title,
		ShareURL:      result.ShareURL,
		QuestionCount: len(questions),
		Recipients:    recipientNos,
		PublishedBy:   userID,
		PublishedAt:   time.Now().UTC(),
	}
	if err := s.publisher.PublishAssessmentPublished(ctx, event); err != nil {
		s.logger.Error("failed to emit publish event", "assessment_id", assessmentID, "error", err)
	}

	s.logger.Info("assessment published",
		"assessment_id", assessmentID,
		"questions", len(questions),
		"recipients", len(recipients),
		"user_id", userID)
	return result, nil
}

func (s *publicationService) acquireLatch(assessmentID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[assessmentID] {
		return ErrPublishInFlight
	}
	s.inFlight[assessmentID] = true
	return nil
}

func (s *publicationService) releaseLatch(assessmentID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, assessmentID)
}
