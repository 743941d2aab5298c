package sources

import (
	"context"
	"testing"

	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/validator"
)

func TestManualSource_Produce(t *testing.T) {
	src := NewManualSource(validator.New())
	ctx := context.Background()

	t.Run("valid question", func(t *testing.T) {
		res, err := src.Produce(ctx, &Request{
			Kind: models.SourceManual,
			Manual: []validator.ManualQuestionRequest{{
				Text:         "What is 2+2?",
				Options:      []string{"3", "4", "5", ""},
				CorrectIndex: 1,
				Tags:         []string{" arithmetic ", "arithmetic", ""},
			}},
		})
		if err != nil {
			t.Fatalf("Produce: %v", err)
		}
		if len(res.Questions) != 1 {
			t.Fatalf("got %d questions, want 1", len(res.Questions))
		}

		q := res.Questions[0]
		if len(q.Options) != 3 {
			t.Errorf("empty option slot should be dropped, got %v", q.Options)
		}
		if q.CorrectAnswer != "4" {
			t.Errorf("correct answer = %q, want 4", q.CorrectAnswer)
		}
		if q.Level != models.DifficultyMedium {
			t.Errorf("level = %q, want default medium", q.Level)
		}
		if len(q.Tags) != 1 || q.Tags[0] != "arithmetic" {
			t.Errorf("tags = %v, want deduplicated [arithmetic]", q.Tags)
		}
		if q.Source != models.SourceManual {
			t.Errorf("source = %q, want manual", q.Source)
		}
	})

	t.Run("fewer than two non-empty options", func(t *testing.T) {
		_, err := src.Produce(ctx, &Request{
			Kind: models.SourceManual,
			Manual: []validator.ManualQuestionRequest{{
				Text:         "Lonely option",
				Options:      []string{"only", "", ""},
				CorrectIndex: 0,
			}},
		})
		var verrs validator.ValidationErrors
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !asValidationErrors(err, &verrs) {
			t.Fatalf("got %T, want ValidationErrors", err)
		}
	})

	t.Run("no correct option designated", func(t *testing.T) {
		_, err := src.Produce(ctx, &Request{
			Kind: models.SourceManual,
			Manual: []validator.ManualQuestionRequest{{
				Text:         "Which?",
				Options:      []string{"a", "b"},
				CorrectIndex: 5,
			}},
		})
		if err == nil {
			t.Fatal("expected validation error for out-of-range correct index")
		}
	})

	t.Run("failing question aborts whole batch", func(t *testing.T) {
		res, err := src.Produce(ctx, &Request{
			Kind: models.SourceManual,
			Manual: []validator.ManualQuestionRequest{
				{Text: "ok", Options: []string{"a", "b"}, CorrectIndex: 0},
				{Text: "bad", Options: []string{"a"}, CorrectIndex: 0},
			},
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if res != nil {
			t.Errorf("no partial result expected, got %+v", res)
		}
	})
}

func asValidationErrors(err error, dest *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if ok {
		*dest = ve
	}
	return ok
}
