package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/EduForge-2025/authoring-service/internal/models"
)

// BusinessValidator enforces the authoring rules that plain struct tags
// cannot express: option-count bounds, correct-answer membership and the
// level-distribution sum.
type BusinessValidator struct {
	validate *validator.Validate
}

func NewBusinessValidator() *BusinessValidator {
	return &BusinessValidator{validate: validator.New()}
}

// Validate runs struct-tag validation only.
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateManualQuestion validates a hand-entered question: at least two
// non-empty options, at most six, and a designated correct option.
func (bv *BusinessValidator) ValidateManualQuestion(req *ManualQuestionRequest) ValidationErrors {
	errs := bv.Validate(req)

	nonEmpty := 0
	for _, o := range req.Options {
		if strings.TrimSpace(o) != "" {
			nonEmpty++
		}
	}
	if nonEmpty < models.MinOptions {
		errs = append(errs, ValidationError{
			Field:   "options",
			Message: fmt.Sprintf("at least %d non-empty options are required", models.MinOptions),
			Value:   nonEmpty,
			Rule:    "min_options",
		})
	}
	if len(req.Options) > models.MaxOptions {
		errs = append(errs, ValidationError{
			Field:   "options",
			Message: fmt.Sprintf("at most %d options are allowed", models.MaxOptions),
			Value:   len(req.Options),
			Rule:    "max_options",
		})
	}
	if req.CorrectIndex < 0 || req.CorrectIndex >= len(req.Options) ||
		(req.CorrectIndex < len(req.Options) && strings.TrimSpace(req.Options[req.CorrectIndex]) == "") {
		errs = append(errs, ValidationError{
			Field:   "correct_index",
			Message: "a correct option must be designated",
			Value:   req.CorrectIndex,
			Rule:    "correct_option",
		})
	}

	return errs
}

// ValidateGenerateRequest checks the AI generation request; the level
// distribution percentages must sum to exactly 100.
func (bv *BusinessValidator) ValidateGenerateRequest(req *GenerateQuestionsRequest) ValidationErrors {
	errs := bv.Validate(req)

	if strings.TrimSpace(req.Topic) == "" {
		errs = append(errs, ValidationError{Field: "topic", Message: "topic must not be blank", Rule: "required"})
	}
	if strings.TrimSpace(req.Subtopic) == "" {
		errs = append(errs, ValidationError{Field: "subtopic", Message: "subtopic must not be blank", Rule: "required"})
	}

	sum := 0
	for level, pct := range req.LevelDistribution {
		switch level {
		case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		default:
			errs = append(errs, ValidationError{
				Field:   "level_distribution",
				Message: fmt.Sprintf("unknown level %q", level),
				Value:   level,
				Rule:    "level",
			})
		}
		if pct < 0 {
			errs = append(errs, ValidationError{
				Field:   "level_distribution",
				Message: "percentages must not be negative",
				Value:   pct,
				Rule:    "min",
			})
		}
		sum += pct
	}
	if sum != 100 {
		errs = append(errs, ValidationError{
			Field:   "level_distribution",
			Message: fmt.Sprintf("percentages must sum to exactly 100, got %d", sum),
			Value:   sum,
			Rule:    "distribution_sum",
		})
	}

	return errs
}

// ValidateSectionConfig validates a section configuration update.
func (bv *BusinessValidator) ValidateSectionConfig(req *SectionConfigRequest) ValidationErrors {
	return bv.Validate(req)
}

// DurationFromParts folds the hours+minutes pair from the authoring form
// into total minutes. Minutes must stay within [0,59].
func DurationFromParts(hours, minutes int) (int, error) {
	if hours < 0 {
		return 0, ValidationError{Field: "duration_hours", Message: "hours must not be negative", Value: hours, Rule: "min"}
	}
	if minutes < 0 || minutes > 59 {
		return 0, ValidationError{Field: "duration_minutes", Message: "minutes must be between 0 and 59", Value: minutes, Rule: "range"}
	}
	return hours*60 + minutes, nil
}
