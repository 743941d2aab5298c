package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/EduForge-2025/authoring-service/internal/cache"
	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/repositories"
)

type SectionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.Manager
}

func NewSectionPostgreSQL(db *gorm.DB, cacheManager *cache.Manager) repositories.SectionRepository {
	return &SectionPostgreSQL{db: db, cacheManager: cacheManager}
}

func (s *SectionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// invalidate drops the owning assessment from cache; sections are only ever
// read through their assessment.
func (s *SectionPostgreSQL) invalidate(ctx context.Context, assessmentID uint) {
	cache.SafeDelete(ctx, s.cacheManager.Assessment,
		fmt.Sprintf("id:%d", assessmentID),
		fmt.Sprintf("details:%d", assessmentID))
}

func (s *SectionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, section *models.Section) error {
	if err := s.getDB(tx).WithContext(ctx).Create(section).Error; err != nil {
		return fmt.Errorf("failed to create section: %w", err)
	}
	s.invalidate(ctx, section.AssessmentID)
	return nil
}

func (s *SectionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Section, error) {
	var section models.Section
	if err := s.getDB(tx).WithContext(ctx).First(&section, id).Error; err != nil {
		return nil, err
	}
	return &section, nil
}

func (s *SectionPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Section, error) {
	var section models.Section
	err := s.getDB(tx).WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("section_questions.position ASC")
		}).
		Preload("Questions.Question").
		First(&section, id).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (s *SectionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, section *models.Section) error {
	err := s.getDB(tx).WithContext(ctx).
		Model(&models.Section{}).
		Where("id = ?", section.ID).
		Updates(map[string]interface{}{
			"name":                    section.Name,
			"required_question_count": section.RequiredQuestionCount,
			"duration_minutes":        section.DurationMinutes,
			"marks_per_question":      section.MarksPerQuestion,
			"pass_percentage":         section.PassPercentage,
			"time_restricted":         section.TimeRestricted,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update section: %w", err)
	}
	s.invalidate(ctx, section.AssessmentID)
	return nil
}

func (s *SectionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := s.getDB(tx)

	var section models.Section
	if err := db.WithContext(ctx).Select("id, assessment_id, position").First(&section, id).Error; err != nil {
		return fmt.Errorf("failed to get section before delete: %w", err)
	}

	if err := db.WithContext(ctx).Delete(&models.Section{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete section: %w", err)
	}

	// Close the position gap left by the removed section.
	err := db.WithContext(ctx).
		Model(&models.Section{}).
		Where("assessment_id = ? AND position > ?", section.AssessmentID, section.Position).
		UpdateColumn("position", gorm.Expr("position - 1")).Error
	if err != nil {
		return fmt.Errorf("failed to resequence sections: %w", err)
	}

	s.invalidate(ctx, section.AssessmentID)
	return nil
}

// ShiftPositions makes room at the head of the list so a freshly created
// section lands at position zero.
func (s *SectionPostgreSQL) ShiftPositions(ctx context.Context, tx *gorm.DB, assessmentID uint) error {
	err := s.getDB(tx).WithContext(ctx).
		Model(&models.Section{}).
		Where("assessment_id = ?", assessmentID).
		UpdateColumn("position", gorm.Expr("position + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to shift section positions: %w", err)
	}
	s.invalidate(ctx, assessmentID)
	return nil
}

func (s *SectionPostgreSQL) AppendQuestions(ctx context.Context, tx *gorm.DB, sectionID uint, questionIDs []uint) error {
	if len(questionIDs) == 0 {
		return nil
	}
	db := s.getDB(tx)

	var section models.Section
	if err := db.WithContext(ctx).Select("id, assessment_id").First(&section, sectionID).Error; err != nil {
		return fmt.Errorf("failed to get section: %w", err)
	}

	var maxPosition int
	err := db.WithContext(ctx).
		Model(&models.SectionQuestion{}).
		Where("section_id = ?", sectionID).
		Select("COALESCE(MAX(position), -1)").
		Scan(&maxPosition).Error
	if err != nil {
		return fmt.Errorf("failed to get question positions: %w", err)
	}

	rows := make([]models.SectionQuestion, 0, len(questionIDs))
	for i, qid := range questionIDs {
		rows = append(rows, models.SectionQuestion{
			SectionID:  sectionID,
			QuestionID: qid,
			Position:   maxPosition + 1 + i,
		})
	}
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to append questions: %w", err)
	}

	s.invalidate(ctx, section.AssessmentID)
	return nil
}

func (s *SectionPostgreSQL) RemoveQuestionAt(ctx context.Context, tx *gorm.DB, sectionID uint, position int) error {
	db := s.getDB(tx)

	var section models.Section
	if err := db.WithContext(ctx).Select("id, assessment_id").First(&section, sectionID).Error; err != nil {
		return fmt.Errorf("failed to get section: %w", err)
	}

	result := db.WithContext(ctx).
		Where("section_id = ? AND position = ?", sectionID, position).
		Delete(&models.SectionQuestion{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	err := db.WithContext(ctx).
		Model(&models.SectionQuestion{}).
		Where("section_id = ? AND position > ?", sectionID, position).
		UpdateColumn("position", gorm.Expr("position - 1")).Error
	if err != nil {
		return fmt.Errorf("failed to resequence questions: %w", err)
	}

	s.invalidate(ctx, section.AssessmentID)
	return nil
}

// MarkSubmitted flips the one-way submitted flag. The guard sits in the
// WHERE clause so a concurrent submit cannot apply twice.
func (s *SectionPostgreSQL) MarkSubmitted(ctx context.Context, tx *gorm.DB, sectionID uint) error {
	db := s.getDB(tx)

	var section models.Section
	if err := db.WithContext(ctx).Select("id, assessment_id").First(&section, sectionID).Error; err != nil {
		return fmt.Errorf("failed to get section: %w", err)
	}

	result := db.WithContext(ctx).
		Model(&models.Section{}).
		Where("id = ? AND submitted = ?", sectionID, false).
		Updates(map[string]interface{}{
			"submitted":    true,
			"submitted_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark section submitted: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("section %d not found or already submitted", sectionID)
	}

	s.invalidate(ctx, section.AssessmentID)
	return nil
}
