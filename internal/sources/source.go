package sources

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/validator"
)

// Adapter-level errors. Both abort the single produce call and leave no
// state behind.
var (
	// ErrNoUsableRows is returned when a bulk file parses cleanly but every
	// row was dropped. Callers surface it instead of accepting an empty
	// import.
	ErrNoUsableRows = errors.New("bulk import produced no usable rows")

	ErrUnknownSource = errors.New("unknown question source")
)

// FormatError means the bulk file itself is unusable: required columns are
// missing or the sheet cannot be read. Raised before any question is built.
type FormatError struct {
	Detail string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unusable import file: %s", e.Detail)
}

func NewFormatError(format string, args ...interface{}) *FormatError {
	return &FormatError{Detail: fmt.Sprintf(format, args...)}
}

// FileUpload is a bulk file handed to the import adapter.
type FileUpload struct {
	Reader   io.Reader
	Filename string
}

// LibrarySelection picks questions out of the reusable bank. SelectAll
// selects exactly the currently filtered subset, never the whole bank.
type LibrarySelection struct {
	Filter      validator.LibraryFilterRequest
	QuestionIDs []uint
	SelectAll   bool
}

// TestSelection pulls questions out of a previously saved test.
type TestSelection struct {
	TestID      uint
	QuestionIDs []uint
	SelectAll   bool
}

// Request is the tagged variant dispatched by the assembly engine. Exactly
// one payload field is set, matching Kind.
type Request struct {
	Kind        models.SourceKind
	Manual      []validator.ManualQuestionRequest
	BulkFile    *FileUpload
	Library     *LibrarySelection
	TestLibrary *TestSelection
	Generate    *validator.GenerateQuestionsRequest
}

// Result is the uniform adapter output. Dropped is only meaningful for the
// bulk adapter, which skips malformed rows instead of aborting.
type Result struct {
	Questions []models.Question
	Accepted  int
	Dropped   int
}

// QuestionSource is the capability every acquisition pathway implements.
// Produce is all-or-nothing: on error no questions are returned and nothing
// was persisted.
type QuestionSource interface {
	Kind() models.SourceKind
	Produce(ctx context.Context, req *Request) (*Result, error)
}

// Registry dispatches a Request to the adapter registered for its kind.
type Registry struct {
	sources map[models.SourceKind]QuestionSource
}

func NewRegistry(adapters ...QuestionSource) *Registry {
	r := &Registry{sources: make(map[models.SourceKind]QuestionSource, len(adapters))}
	for _, a := range adapters {
		r.sources[a.Kind()] = a
	}
	return r
}

func (r *Registry) Produce(ctx context.Context, req *Request) (*Result, error) {
	src, ok := r.sources[req.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, req.Kind)
	}
	return src.Produce(ctx, req)
}
