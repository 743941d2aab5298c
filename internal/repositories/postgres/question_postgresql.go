package postgres

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/EduForge-2025/authoring-service/internal/cache"
	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.Manager
}

func NewQuestionPostgreSQL(db *gorm.DB, cacheManager *cache.Manager) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db, cacheManager: cacheManager}
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if err := q.getDB(tx).WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, q.cacheManager.Question, "search:*")
	return nil
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var question models.Question

	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &question, cache.QuestionTTL, func() (interface{}, error) {
		var dbQuestion models.Question
		if err := q.getDB(tx).WithContext(ctx).First(&dbQuestion, id).Error; err != nil {
			return nil, err
		}
		return &dbQuestion, nil
	})
	if err != nil {
		return nil, err
	}
	return &question, nil
}

// GetByIDs returns the found questions in the order the ids were given.
func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var questions []*models.Question
	err := q.getDB(tx).WithContext(ctx).
		Where("id IN ?", ids).
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}

	byID := make(map[uint]*models.Question, len(questions))
	for _, question := range questions {
		byID[question.ID] = question
	}
	ordered := make([]*models.Question, 0, len(questions))
	for _, id := range ids {
		if question, ok := byID[id]; ok {
			ordered = append(ordered, question)
		}
	}
	return ordered, nil
}

func (q *QuestionPostgreSQL) Search(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	query := q.getDB(tx).WithContext(ctx).Model(&models.Question{})

	if filters.CreatedBy != "" {
		query = query.Where("created_by = ?", filters.CreatedBy)
	}
	if filters.Level != "" {
		query = query.Where("level = ?", filters.Level)
	}
	if filters.Search != "" {
		query = query.Where("text ILIKE ?", fmt.Sprintf("%%%s%%", filters.Search))
	}
	if len(filters.Tags) > 0 {
		// Every requested tag must be present in the jsonb array.
		query = query.Where("tags @> ?", datatypes.NewJSONSlice(filters.Tags))
	}
	if filters.SourceTestID != nil {
		subquery := q.getDB(tx).
			Model(&models.SectionQuestion{}).
			Select("section_questions.question_id").
			Joins("JOIN sections ON sections.id = section_questions.section_id").
			Where("sections.assessment_id = ?", *filters.SourceTestID)
		query = query.Where("id IN (?)", subquery)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit).Offset(filters.Offset)
	}

	var questions []*models.Question
	if err := query.Order("created_at DESC").Find(&questions).Error; err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if err := q.getDB(tx).WithContext(ctx).Delete(&models.Question{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	cache.SafeDelete(ctx, q.cacheManager.Question, fmt.Sprintf("id:%d", id))
	cache.SafeInvalidatePattern(ctx, q.cacheManager.Question, "search:*")
	return nil
}

// TestBankPostgreSQL exposes previously published assessments as a question
// source.
type TestBankPostgreSQL struct {
	db *gorm.DB
}

func NewTestBankPostgreSQL(db *gorm.DB) repositories.TestBankRepository {
	return &TestBankPostgreSQL{db: db}
}

func (t *TestBankPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}

func (t *TestBankPostgreSQL) ListTests(ctx context.Context, tx *gorm.DB, creatorID string) ([]*models.Assessment, error) {
	var assessments []*models.Assessment
	err := t.getDB(tx).WithContext(ctx).
		Where("created_by = ? AND published = ?", creatorID, true).
		Order("published_at DESC").
		Find(&assessments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	return assessments, nil
}

// GetQuestions returns every question of a saved test in section order, each
// stamped with the name of the section it came from.
func (t *TestBankPostgreSQL) GetQuestions(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Question, error) {
	db := t.getDB(tx)

	var assessment models.Assessment
	err := db.WithContext(ctx).
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
		First(&assessment, testID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get test questions: %w", err)
	}

	var out []*models.Question
	for i := range assessment.Sections {
		section := &assessment.Sections[i]
		for j := range section.Questions {
			question := section.Questions[j].Question
			name := section.Name
			question.SourceSection = &name
			out = append(out, &question)
		}
	}
	for i := range assessment.FlatQuestions {
		question := assessment.FlatQuestions[i].Question
		out = append(out, &question)
	}
	return out, nil
}
