package models

import (
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// SourceKind identifies which acquisition pathway produced a question.
type SourceKind string

const (
	SourceManual      SourceKind = "manual"
	SourceBulkFile    SourceKind = "bulk_file"
	SourceLibrary     SourceKind = "library"
	SourceTestLibrary SourceKind = "test_library"
	SourceAIGenerated SourceKind = "ai_generated"
)

func (k SourceKind) Valid() bool {
	switch k {
	case SourceManual, SourceBulkFile, SourceLibrary, SourceTestLibrary, SourceAIGenerated:
		return true
	}
	return false
}

const (
	MinOptions = 2
	MaxOptions = 6
)

// Question is the canonical multiple-choice record every source adapter
// normalizes to. Invariants: 2-6 options, CorrectAnswer is one of Options.
type Question struct {
	ID            uint                        `json:"id" gorm:"primaryKey"`
	Text          string                      `json:"text" gorm:"type:text;not null" validate:"required"`
	Options       datatypes.JSONSlice[string] `json:"options" gorm:"type:jsonb;not null"`
	CorrectAnswer string                      `json:"correct_answer" gorm:"type:text;not null" validate:"required"`
	Level         DifficultyLevel             `json:"level" gorm:"default:medium;index" validate:"omitempty,oneof=easy medium hard"`
	Tags          datatypes.JSONSlice[string] `json:"tags" gorm:"type:jsonb"`

	// Set when the question was pulled out of another saved test.
	SourceSection *string    `json:"source_section,omitempty" gorm:"size:200"`
	Source        SourceKind `json:"source" gorm:"size:20;default:manual;index"`

	CreatedBy string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Statistics (computed)
	UsageCount int `json:"usage_count" gorm:"-"`
}

func (Question) TableName() string {
	return "questions"
}

const keySep = "\x1f"

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DedupKey is the per-section insert identity: exact question text plus
// correct answer, whitespace-normalized.
func (q *Question) DedupKey() string {
	return normalizeText(q.Text) + keySep + normalizeText(q.CorrectAnswer)
}

// StructuralKey is the publication-time identity: text, option multiset and
// correct answer. Two independently entered copies of the same question
// produce the same key regardless of option order.
func (q *Question) StructuralKey() string {
	opts := make([]string, len(q.Options))
	for i, o := range q.Options {
		opts[i] = normalizeText(o)
	}
	sort.Strings(opts)

	var b strings.Builder
	b.WriteString(normalizeText(q.Text))
	b.WriteString(keySep)
	b.WriteString(normalizeText(q.CorrectAnswer))
	for _, o := range opts {
		b.WriteString(keySep)
		b.WriteString(o)
	}
	return b.String()
}

// HasValidShape reports whether the canonical invariants hold: option count
// within bounds, no blank options, and the correct answer among the options.
func (q *Question) HasValidShape() bool {
	if strings.TrimSpace(q.Text) == "" {
		return false
	}
	if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
		return false
	}
	found := false
	for _, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return false
		}
		if o == q.CorrectAnswer {
			found = true
		}
	}
	return found
}
