package services

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services. All of these are recoverable:
// they are reported to the caller and never corrupt state.
var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrSectionNotFound    = errors.New("section not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrAccessDenied       = errors.New("access denied")

	// ErrPublishInFlight guards the single non-idempotent operation: a
	// second publish call while one is still running is rejected outright.
	ErrPublishInFlight = errors.New("publish already in flight for this assessment")

	ErrAlreadyPublished = errors.New("assessment is already published")

	// ErrSectionsDisabled is returned when a section operation is attempted
	// on an assessment authored in flat (unsectioned) mode.
	ErrSectionsDisabled = errors.New("assessment does not use sections")
)

// LockedSectionError rejects any mutation of a submitted section.
type LockedSectionError struct {
	SectionID uint
	Op        string
}

func (e *LockedSectionError) Error() string {
	return fmt.Sprintf("section %d is submitted and locked, %s rejected", e.SectionID, e.Op)
}

// InsufficientQuestionsError blocks submission while the section holds fewer
// questions than its requirement.
type InsufficientQuestionsError struct {
	SectionID uint
	Selected  int
	Required  int
}

func (e *InsufficientQuestionsError) Error() string {
	return fmt.Sprintf("section %d has %d of %d required questions", e.SectionID, e.Selected, e.Required)
}

// ExcessQuestionsError blocks submission when the section holds more
// questions than its requirement. Exact match is required.
type ExcessQuestionsError struct {
	SectionID uint
	Selected  int
	Required  int
}

func (e *ExcessQuestionsError) Error() string {
	return fmt.Sprintf("section %d has %d questions but requires exactly %d", e.SectionID, e.Selected, e.Required)
}

// AlreadySubmittedError rejects a repeated submit without re-validating.
type AlreadySubmittedError struct {
	SectionID uint
}

func (e *AlreadySubmittedError) Error() string {
	return fmt.Sprintf("section %d is already submitted", e.SectionID)
}

// EmptyRecipientSetError means recipient resolution produced nobody to
// address.
type EmptyRecipientSetError struct{}

func (e *EmptyRecipientSetError) Error() string {
	return "recipient set is empty"
}

// Publish precondition reasons, reported verbatim to the caller.
const (
	ReasonSectionsNotSubmitted = "sections-not-submitted"
	ReasonNoRecipients         = "no-recipients"
	ReasonNoQuestions          = "no-questions"
)

// PublishPreconditionError names the specific unmet publish condition. The
// assessment stays unpublished.
type PublishPreconditionError struct {
	Reason string
}

func (e *PublishPreconditionError) Error() string {
	return fmt.Sprintf("publish blocked: %s", e.Reason)
}

// PermissionError rejects operations by users without authoring rights over
// the resource.
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}
