package sources

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/repositories"
	"github.com/EduForge-2025/authoring-service/internal/validator"
)

// fakeQuestionRepo serves a fixed bank and records the filters it was
// searched with.
type fakeQuestionRepo struct {
	bank        []*models.Question
	lastFilters repositories.QuestionFilters
}

func (f *fakeQuestionRepo) Create(ctx context.Context, tx *gorm.DB, q *models.Question) error {
	return nil
}
func (f *fakeQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	for _, q := range f.bank {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeQuestionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	var out []*models.Question
	for _, id := range ids {
		if q, err := f.GetByID(ctx, tx, id); err == nil {
			out = append(out, q)
		}
	}
	return out, nil
}
func (f *fakeQuestionRepo) Search(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	f.lastFilters = filters
	var out []*models.Question
	for _, q := range f.bank {
		if filters.Level != "" && q.Level != filters.Level {
			continue
		}
		out = append(out, q)
	}
	return out, int64(len(out)), nil
}
func (f *fakeQuestionRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error { return nil }

type fakeTestBankRepo struct {
	tests map[uint][]*models.Question
}

func (f *fakeTestBankRepo) ListTests(ctx context.Context, tx *gorm.DB, creatorID string) ([]*models.Assessment, error) {
	return nil, nil
}
func (f *fakeTestBankRepo) GetQuestions(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Question, error) {
	return f.tests[testID], nil
}

func bankFixture() []*models.Question {
	return []*models.Question{
		{ID: 1, Text: "Q1", Options: []string{"a", "b"}, CorrectAnswer: "a", Level: models.DifficultyEasy},
		{ID: 2, Text: "Q2", Options: []string{"a", "b"}, CorrectAnswer: "b", Level: models.DifficultyHard},
		{ID: 3, Text: "Q3", Options: []string{"a", "b"}, CorrectAnswer: "a", Level: models.DifficultyEasy},
	}
}

func TestLibrarySource_SelectAllUsesFilteredSubset(t *testing.T) {
	repo := &fakeQuestionRepo{bank: bankFixture()}
	src := NewLibrarySource(repo)

	res, err := src.Produce(context.Background(), &Request{
		Kind: models.SourceLibrary,
		Library: &LibrarySelection{
			SelectAll: true,
			Filter:    validator.LibraryFilterRequest{Level: models.DifficultyEasy},
		},
	})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}

	// Select-all means the filtered subset, not the whole bank.
	if len(res.Questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(res.Questions))
	}
	if repo.lastFilters.Level != models.DifficultyEasy {
		t.Errorf("filter level not forwarded, got %q", repo.lastFilters.Level)
	}
	for _, q := range res.Questions {
		if q.Source != models.SourceLibrary {
			t.Errorf("question %d source = %q, want library", q.ID, q.Source)
		}
	}
}

func TestLibrarySource_ExplicitSelection(t *testing.T) {
	src := NewLibrarySource(&fakeQuestionRepo{bank: bankFixture()})

	res, err := src.Produce(context.Background(), &Request{
		Kind:    models.SourceLibrary,
		Library: &LibrarySelection{QuestionIDs: []uint{2}},
	})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if len(res.Questions) != 1 || res.Questions[0].ID != 2 {
		t.Errorf("got %+v, want just question 2", res.Questions)
	}
}

func TestTestLibrarySource_StampsSource(t *testing.T) {
	sectionName := "Part A"
	bank := &fakeTestBankRepo{tests: map[uint][]*models.Question{
		9: {
			{ID: 11, Text: "Q11", Options: []string{"a", "b"}, CorrectAnswer: "a", SourceSection: &sectionName},
			{ID: 12, Text: "Q12", Options: []string{"a", "b"}, CorrectAnswer: "b"},
		},
	}}
	src := NewTestLibrarySource(bank)

	res, err := src.Produce(context.Background(), &Request{
		Kind:        models.SourceTestLibrary,
		TestLibrary: &TestSelection{TestID: 9, QuestionIDs: []uint{11}},
	})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if len(res.Questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(res.Questions))
	}
	q := res.Questions[0]
	if q.Source != models.SourceTestLibrary {
		t.Errorf("source = %q, want test_library", q.Source)
	}
	if q.SourceSection == nil || *q.SourceSection != "Part A" {
		t.Errorf("source section not preserved: %v", q.SourceSection)
	}
}
