package sources

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/EduForge-2025/authoring-service/internal/models"
)

func newBulkSource() *BulkFileSource {
	return NewBulkFileSource(NewFileParser(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func produceCSV(t *testing.T, csv string) (*Result, error) {
	t.Helper()
	return newBulkSource().Produce(context.Background(), &Request{
		Kind:     models.SourceBulkFile,
		BulkFile: &FileUpload{Reader: strings.NewReader(csv), Filename: "upload.csv"},
	})
}

func TestBulkFileSource_CSVImport(t *testing.T) {
	csv := "question,option_1,option_2,option_3,correct_answer,level,tags\n" +
		"What is 2+2?,3,4,5,4,easy,\"math, arithmetic\"\n" +
		"Capital of France?,Paris,Rome,,Paris,hard,geography\n"

	res, err := produceCSV(t, csv)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if res.Accepted != 2 || res.Dropped != 0 {
		t.Fatalf("accepted=%d dropped=%d, want 2/0", res.Accepted, res.Dropped)
	}

	q := res.Questions[0]
	if q.Text != "What is 2+2?" || q.CorrectAnswer != "4" {
		t.Errorf("unexpected first question: %+v", q)
	}
	if q.Level != models.DifficultyEasy {
		t.Errorf("level = %q, want easy", q.Level)
	}
	if len(q.Tags) != 2 || q.Tags[0] != "math" || q.Tags[1] != "arithmetic" {
		t.Errorf("tags = %v, want [math arithmetic]", q.Tags)
	}

	if got := res.Questions[1].Options; len(got) != 2 {
		t.Errorf("blank option cell should be skipped, got %v", got)
	}
}

func TestBulkFileSource_MissingCorrectAnswerColumn(t *testing.T) {
	csv := "question,option_1,option_2\nWhat?,a,b\n"

	_, err := produceCSV(t, csv)
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("got %v, want FormatError", err)
	}
	if !strings.Contains(formatErr.Detail, "correct_answer") {
		t.Errorf("detail %q should name the missing column", formatErr.Detail)
	}
}

func TestBulkFileSource_TooFewOptionColumns(t *testing.T) {
	csv := "question,option_1,correct_answer\nWhat?,a,a\n"

	_, err := produceCSV(t, csv)
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("got %v, want FormatError", err)
	}
}

func TestBulkFileSource_MalformedRowsDropped(t *testing.T) {
	csv := "question,option_1,option_2,correct_answer\n" +
		"Good?,a,b,a\n" +
		",a,b,a\n" + // no question text
		"No answer?,a,b,\n" + // no correct answer
		"Answer not an option?,a,b,c\n"

	res, err := produceCSV(t, csv)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if res.Accepted != 1 {
		t.Errorf("accepted = %d, want 1", res.Accepted)
	}
	if res.Dropped != 3 {
		t.Errorf("dropped = %d, want 3", res.Dropped)
	}
}

func TestBulkFileSource_AllRowsDropped(t *testing.T) {
	csv := "question,option_1,option_2,correct_answer\n,a,b,a\n"

	_, err := produceCSV(t, csv)
	if !errors.Is(err, ErrNoUsableRows) {
		t.Errorf("got %v, want ErrNoUsableRows", err)
	}
}

func TestBulkFileSource_XLSXImport(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"question", "option_1", "option_2", "correct_answer", "level"},
		{"What is H2O?", "Water", "Salt", "Water", "easy"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	res, err := newBulkSource().Produce(context.Background(), &Request{
		Kind:     models.SourceBulkFile,
		BulkFile: &FileUpload{Reader: buf, Filename: "upload.xlsx"},
	})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if res.Accepted != 1 {
		t.Fatalf("accepted = %d, want 1", res.Accepted)
	}
	if res.Questions[0].CorrectAnswer != "Water" {
		t.Errorf("correct answer = %q, want Water", res.Questions[0].CorrectAnswer)
	}
}

func TestFileParser_UnsupportedExtension(t *testing.T) {
	_, err := NewFileParser().Parse(strings.NewReader("x"), "notes.txt")
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("got %v, want FormatError", err)
	}
}
