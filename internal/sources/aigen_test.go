package sources

import (
	"context"
	"strings"
	"testing"

	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/validator"
)

type stubGenerationService struct {
	questions []models.Question
	called    bool
}

func (s *stubGenerationService) Generate(ctx context.Context, req *validator.GenerateQuestionsRequest) ([]models.Question, error) {
	s.called = true
	return s.questions, nil
}

func validGenerateRequest() *validator.GenerateQuestionsRequest {
	return &validator.GenerateQuestionsRequest{
		Topic:         "Thermodynamics",
		Subtopic:      "Entropy",
		QuestionCount: 4,
		LevelDistribution: map[models.DifficultyLevel]int{
			models.DifficultyEasy:   50,
			models.DifficultyMedium: 25,
			models.DifficultyHard:   25,
		},
	}
}

func TestAISource_Produce(t *testing.T) {
	stub := &stubGenerationService{questions: []models.Question{
		{Text: "G1", Options: []string{"a", "b"}, CorrectAnswer: "a", Level: models.DifficultyEasy},
		{Text: "G2", Options: []string{"a", "b"}, CorrectAnswer: "b"},
	}}
	src := NewAISource(stub, validator.New())

	res, err := src.Produce(context.Background(), &Request{
		Kind:     models.SourceAIGenerated,
		Generate: validGenerateRequest(),
	})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if len(res.Questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(res.Questions))
	}

	for _, q := range res.Questions {
		if q.Source != models.SourceAIGenerated {
			t.Errorf("source = %q, want ai_generated", q.Source)
		}
		found := false
		for _, tag := range q.Tags {
			if strings.HasPrefix(tag, "bloom:") {
				found = true
			}
		}
		if !found {
			t.Errorf("question %q missing bloom level tag: %v", q.Text, q.Tags)
		}
	}
	if res.Questions[1].Level != models.DifficultyMedium {
		t.Errorf("missing level should default to medium, got %q", res.Questions[1].Level)
	}
}

func TestAISource_DistributionMustSumTo100(t *testing.T) {
	stub := &stubGenerationService{}
	src := NewAISource(stub, validator.New())

	req := validGenerateRequest()
	req.LevelDistribution[models.DifficultyHard] = 30 // sum is now 105

	_, err := src.Produce(context.Background(), &Request{
		Kind:     models.SourceAIGenerated,
		Generate: req,
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if stub.called {
		t.Error("generation service must not be called with an invalid request")
	}
}

func TestAISource_BlankTopicRejected(t *testing.T) {
	src := NewAISource(&stubGenerationService{}, validator.New())

	req := validGenerateRequest()
	req.Topic = "   "

	if _, err := src.Produce(context.Background(), &Request{
		Kind:     models.SourceAIGenerated,
		Generate: req,
	}); err == nil {
		t.Fatal("expected validation error for blank topic")
	}
}

func TestRegistry_DispatchesOnKind(t *testing.T) {
	registry := NewRegistry(NewManualSource(validator.New()))

	_, err := registry.Produce(context.Background(), &Request{Kind: models.SourceBulkFile})
	if err == nil {
		t.Fatal("expected error for unregistered source kind")
	}

	res, err := registry.Produce(context.Background(), &Request{
		Kind: models.SourceManual,
		Manual: []validator.ManualQuestionRequest{
			{Text: "Q", Options: []string{"a", "b"}, CorrectIndex: 0},
		},
	})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if res.Accepted != 1 {
		t.Errorf("accepted = %d, want 1", res.Accepted)
	}
}
