package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/EduForge-2025/authoring-service/internal/models"
)

// Spreadsheet column contract: one question per row.
const (
	colQuestion      = "question"
	colCorrectAnswer = "correct_answer"
	colLevel         = "level"
	colTags          = "tags"
	optionColPrefix  = "option_"
)

// BulkFileSource imports questions from a tabular upload. A structurally
// unusable file fails with FormatError before any row is converted;
// malformed rows inside a usable file are dropped and counted.
type BulkFileSource struct {
	parser FileParser
	logger *slog.Logger
}

func NewBulkFileSource(parser FileParser, logger *slog.Logger) *BulkFileSource {
	return &BulkFileSource{parser: parser, logger: logger}
}

func (s *BulkFileSource) Kind() models.SourceKind {
	return models.SourceBulkFile
}

func (s *BulkFileSource) Produce(ctx context.Context, req *Request) (*Result, error) {
	table, err := s.parser.Parse(req.BulkFile.Reader, req.BulkFile.Filename)
	if err != nil {
		return nil, err
	}

	optionCols, err := validateColumns(table)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, row := range table.Rows {
		q, ok := s.convertRow(row, optionCols)
		if !ok {
			result.Dropped++
			continue
		}
		result.Questions = append(result.Questions, *q)
		result.Accepted++
	}

	s.logger.InfoContext(ctx, "bulk import parsed",
		"file", req.BulkFile.Filename,
		"accepted", result.Accepted,
		"dropped", result.Dropped)

	if result.Accepted == 0 {
		return nil, ErrNoUsableRows
	}
	return result, nil
}

// validateColumns enforces the header contract: question, correct_answer and
// at least two option columns.
func validateColumns(table *Table) ([]string, error) {
	var missing []string
	for _, required := range []string{colQuestion, colCorrectAnswer} {
		if !table.HasHeader(required) {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, NewFormatError("missing required columns: %s", strings.Join(missing, ", "))
	}

	var optionCols []string
	for i := 1; i <= models.MaxOptions; i++ {
		col := fmt.Sprintf("%s%d", optionColPrefix, i)
		if table.HasHeader(col) {
			optionCols = append(optionCols, col)
		}
	}
	if len(optionCols) < models.MinOptions {
		return nil, NewFormatError("at least %d option columns are required, found %d", models.MinOptions, len(optionCols))
	}

	return optionCols, nil
}

// convertRow builds one Question; a false return means the row is dropped.
func (s *BulkFileSource) convertRow(row map[string]string, optionCols []string) (*models.Question, bool) {
	text := row[colQuestion]
	correct := row[colCorrectAnswer]
	if text == "" || correct == "" {
		return nil, false
	}

	var options []string
	for _, col := range optionCols {
		if v := row[col]; v != "" {
			options = append(options, v)
		}
	}

	q := &models.Question{
		Text:          text,
		Options:       options,
		CorrectAnswer: correct,
		Level:         parseLevel(row[colLevel]),
		Tags:          splitTags(row[colTags]),
		Source:        models.SourceBulkFile,
	}
	if !q.HasValidShape() {
		return nil, false
	}
	return q, true
}

func parseLevel(raw string) models.DifficultyLevel {
	switch models.DifficultyLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case models.DifficultyEasy:
		return models.DifficultyEasy
	case models.DifficultyHard:
		return models.DifficultyHard
	default:
		return models.DifficultyMedium
	}
}

// splitTags splits the tags cell on comma and trims each entry.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	return trimTags(strings.Split(raw, ","))
}
