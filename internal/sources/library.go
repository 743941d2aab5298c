package sources

import (
	"context"
	"fmt"

	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/repositories"
)

// LibrarySource selects questions from the reusable bank. All filter
// predicates are AND-ed; select-all returns exactly the filtered subset.
type LibrarySource struct {
	questions repositories.QuestionRepository
}

func NewLibrarySource(questions repositories.QuestionRepository) *LibrarySource {
	return &LibrarySource{questions: questions}
}

func (s *LibrarySource) Kind() models.SourceKind {
	return models.SourceLibrary
}

func (s *LibrarySource) Produce(ctx context.Context, req *Request) (*Result, error) {
	sel := req.Library

	var picked []*models.Question
	if sel.SelectAll {
		filters := repositories.QuestionFilters{
			Search:       sel.Filter.Search,
			Level:        sel.Filter.Level,
			Tags:         sel.Filter.Tags,
			SourceTestID: sel.Filter.SourceTestID,
		}
		matched, _, err := s.questions.Search(ctx, nil, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to search question bank: %w", err)
		}
		picked = matched
	} else {
		byID, err := s.questions.GetByIDs(ctx, nil, sel.QuestionIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load selected questions: %w", err)
		}
		picked = byID
	}

	result := &Result{Questions: make([]models.Question, 0, len(picked))}
	for _, q := range picked {
		copied := *q
		copied.Source = models.SourceLibrary
		result.Questions = append(result.Questions, copied)
	}
	result.Accepted = len(result.Questions)
	return result, nil
}

// TestLibrarySource pulls questions out of another saved test, stamping each
// with the section it came from.
type TestLibrarySource struct {
	bank repositories.TestBankRepository
}

func NewTestLibrarySource(bank repositories.TestBankRepository) *TestLibrarySource {
	return &TestLibrarySource{bank: bank}
}

func (s *TestLibrarySource) Kind() models.SourceKind {
	return models.SourceTestLibrary
}

func (s *TestLibrarySource) Produce(ctx context.Context, req *Request) (*Result, error) {
	sel := req.TestLibrary

	all, err := s.bank.GetQuestions(ctx, nil, sel.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load test %d questions: %w", sel.TestID, err)
	}

	wanted := make(map[uint]bool, len(sel.QuestionIDs))
	for _, id := range sel.QuestionIDs {
		wanted[id] = true
	}

	result := &Result{}
	for _, q := range all {
		if !sel.SelectAll && !wanted[q.ID] {
			continue
		}
		copied := *q
		copied.Source = models.SourceTestLibrary
		result.Questions = append(result.Questions, copied)
	}
	result.Accepted = len(result.Questions)
	return result, nil
}
