package sources

import (
	"context"
	"strings"

	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/validator"
)

// ManualSource normalizes hand-entered questions. It is the only adapter
// with no external boundary: validation aside, Produce is pure.
type ManualSource struct {
	validator *validator.Validator
}

func NewManualSource(v *validator.Validator) *ManualSource {
	return &ManualSource{validator: v}
}

func (s *ManualSource) Kind() models.SourceKind {
	return models.SourceManual
}

func (s *ManualSource) Produce(_ context.Context, req *Request) (*Result, error) {
	questions := make([]models.Question, 0, len(req.Manual))
	for i := range req.Manual {
		q, err := s.normalize(&req.Manual[i])
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}

	return &Result{Questions: questions, Accepted: len(questions)}, nil
}

func (s *ManualSource) normalize(req *validator.ManualQuestionRequest) (*models.Question, error) {
	if errs := s.validator.GetBusinessValidator().ValidateManualQuestion(req); errs.HasErrors() {
		return nil, errs
	}

	// Unused option slots arrive as empty strings from the form; drop them
	// while keeping the designated correct option stable.
	correct := strings.TrimSpace(req.Options[req.CorrectIndex])
	options := make([]string, 0, len(req.Options))
	for _, o := range req.Options {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			options = append(options, trimmed)
		}
	}

	level := req.Level
	if level == "" {
		level = models.DifficultyMedium
	}

	return &models.Question{
		Text:          strings.TrimSpace(req.Text),
		Options:       options,
		CorrectAnswer: correct,
		Level:         level,
		Tags:          trimTags(req.Tags),
		Source:        models.SourceManual,
	}, nil
}

func trimTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		trimmed := strings.TrimSpace(t)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	return out
}
