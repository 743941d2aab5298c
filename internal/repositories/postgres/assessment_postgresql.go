package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/EduForge-2025/authoring-service/internal/cache"
	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/repositories"
)

type AssessmentPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.Manager
}

func NewAssessmentPostgreSQL(db *gorm.DB, cacheManager *cache.Manager) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{db: db, cacheManager: cacheManager}
}

// getDB returns the transaction handle if provided, the pooled one otherwise.
func (a *AssessmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AssessmentPostgreSQL) invalidate(ctx context.Context, id uint, creatorID string) {
	cache.SafeDelete(ctx, a.cacheManager.Assessment,
		fmt.Sprintf("id:%d", id),
		fmt.Sprintf("details:%d", id))
	if creatorID != "" {
		cache.SafeInvalidatePattern(ctx, a.cacheManager.Assessment, fmt.Sprintf("creator:%s:*", creatorID))
	}
}

func (a *AssessmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	if err := a.getDB(tx).WithContext(ctx).Create(assessment).Error; err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Assessment, fmt.Sprintf("creator:%s:*", assessment.CreatedBy))
	return nil
}

func (a *AssessmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var assessment models.Assessment

	err := a.cacheManager.Assessment.CacheOrExecute(ctx, cacheKey, &assessment, cache.AssessmentTTL, func() (interface{}, error) {
		var dbAssessment models.Assessment
		if err := a.getDB(tx).WithContext(ctx).First(&dbAssessment, id).Error; err != nil {
			return nil, err
		}
		return &dbAssessment, nil
	})
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

// GetByIDWithDetails loads the whole aggregate: sections with their ordered
// question lists, the flat question list and the recipient set.
func (a *AssessmentPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	cacheKey := fmt.Sprintf("details:%d", id)
	var assessment models.Assessment

	err := a.cacheManager.Assessment.CacheOrExecute(ctx, cacheKey, &assessment, cache.AssessmentTTL, func() (interface{}, error) {
		var dbAssessment models.Assessment
		err := a.getDB(tx).WithContext(ctx).
			Preload("Sections", func(db *gorm.DB) *gorm.DB {
				return db.Order("sections.position ASC")
			}).
			Preload("Sections.Questions", func(db *gorm.DB) *gorm.DB {
				return db.Order("section_questions.position ASC")
			}).
			Preload("Sections.Questions.Question").
			Preload("FlatQuestions", func(db *gorm.DB) *gorm.DB {
				return db.Order("assessment_questions.position ASC")
			}).
			Preload("FlatQuestions.Question").
			Preload("Recipients").
			First(&dbAssessment, id).Error
		if err != nil {
			return nil, err
		}
		return &dbAssessment, nil
	})
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (a *AssessmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.Assessment{}).
		Where("id = ?", assessment.ID).
		Updates(map[string]interface{}{
			"title":       assessment.Title,
			"description": assessment.Description,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update assessment: %w", err)
	}
	a.invalidate(ctx, assessment.ID, assessment.CreatedBy)
	return nil
}

func (a *AssessmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := a.getDB(tx)

	var assessment models.Assessment
	if err := db.WithContext(ctx).Select("id, created_by").First(&assessment, id).Error; err != nil {
		return fmt.Errorf("failed to get assessment before delete: %w", err)
	}

	if err := db.WithContext(ctx).Delete(&models.Assessment{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}
	a.invalidate(ctx, id, assessment.CreatedBy)
	return nil
}

func (a *AssessmentPostgreSQL) ListByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	query := a.getDB(tx).WithContext(ctx).
		Model(&models.Assessment{}).
		Where("created_by = ?", creatorID)

	if filters.Published != nil {
		query = query.Where("published = ?", *filters.Published)
	}
	if filters.Search != "" {
		search := fmt.Sprintf("%%%s%%", filters.Search)
		query = query.Where("title ILIKE ? OR description ILIKE ?", search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit).Offset(filters.Offset)
	}

	var assessments []*models.Assessment
	err := query.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sections.position ASC")
		}).
		Order("created_at DESC").
		Find(&assessments).Error
	if err != nil {
		return nil, 0, err
	}
	return assessments, total, nil
}

// MarkPublished flips the one-way flag. The published guard lives in the
// WHERE clause so a concurrent writer cannot publish twice.
func (a *AssessmentPostgreSQL) MarkPublished(ctx context.Context, tx *gorm.DB, id uint, shareToken string) error {
	result := a.getDB(tx).WithContext(ctx).
		Model(&models.Assessment{}).
		Where("id = ? AND published = ?", id, false).
		Updates(map[string]interface{}{
			"published":    true,
			"published_at": gorm.Expr("NOW()"),
			"share_token":  shareToken,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark assessment published: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("assessment %d not found or already published", id)
	}

	a.invalidate(ctx, id, "")
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Assessment, "creator:*")
	return nil
}

func (a *AssessmentPostgreSQL) ReplaceRecipients(ctx context.Context, tx *gorm.DB, assessmentID uint, registrationNos []string) error {
	db := a.getDB(tx)

	if err := db.WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Delete(&models.AssessmentRecipient{}).Error; err != nil {
		return fmt.Errorf("failed to clear recipients: %w", err)
	}

	if len(registrationNos) == 0 {
		return nil
	}

	recipients := make([]models.AssessmentRecipient, 0, len(registrationNos))
	for _, no := range registrationNos {
		recipients = append(recipients, models.AssessmentRecipient{
			AssessmentID:   assessmentID,
			RegistrationNo: no,
		})
	}
	if err := db.WithContext(ctx).Create(&recipients).Error; err != nil {
		return fmt.Errorf("failed to store recipients: %w", err)
	}

	a.invalidate(ctx, assessmentID, "")
	return nil
}

func (a *AssessmentPostgreSQL) AddFlatQuestions(ctx context.Context, tx *gorm.DB, assessmentID uint, questionIDs []uint) error {
	if len(questionIDs) == 0 {
		return nil
	}
	db := a.getDB(tx)

	var maxPosition int
	err := db.WithContext(ctx).
		Model(&models.AssessmentQuestion{}).
		Where("assessment_id = ?", assessmentID).
		Select("COALESCE(MAX(position), -1)").
		Scan(&maxPosition).Error
	if err != nil {
		return fmt.Errorf("failed to get question positions: %w", err)
	}

	rows := make([]models.AssessmentQuestion, 0, len(questionIDs))
	for i, qid := range questionIDs {
		rows = append(rows, models.AssessmentQuestion{
			AssessmentID: assessmentID,
			QuestionID:   qid,
			Position:     maxPosition + 1 + i,
		})
	}
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to append flat questions: %w", err)
	}

	a.invalidate(ctx, assessmentID, "")
	return nil
}

func (a *AssessmentPostgreSQL) RemoveFlatQuestion(ctx context.Context, tx *gorm.DB, assessmentID, questionID uint) error {
	db := a.getDB(tx)

	var row models.AssessmentQuestion
	err := db.WithContext(ctx).
		Where("assessment_id = ? AND question_id = ?", assessmentID, questionID).
		First(&row).Error
	if err != nil {
		return fmt.Errorf("failed to find flat question: %w", err)
	}

	if err := db.WithContext(ctx).Delete(&row).Error; err != nil {
		return fmt.Errorf("failed to remove flat question: %w", err)
	}

	// Close the gap so positions stay dense.
	err = db.WithContext(ctx).
		Model(&models.AssessmentQuestion{}).
		Where("assessment_id = ? AND position > ?", assessmentID, row.Position).
		UpdateColumn("position", gorm.Expr("position - 1")).Error
	if err != nil {
		return fmt.Errorf("failed to resequence flat questions: %w", err)
	}

	a.invalidate(ctx, assessmentID, "")
	return nil
}
