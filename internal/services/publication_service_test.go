package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/EduForge-2025/authoring-service/internal/events"
	"github.com/EduForge-2025/authoring-service/internal/models"
)

const shareBase = "https://assessments.example.edu"

func newPublicationEnv(t *testing.T) (*mockRepository, AssemblyService, PublicationService) {
	t.Helper()
	repo, assembly := newAssemblyEnv()
	repo.students = []*models.StudentRef{
		{RegistrationNo: "REG-001", Name: "Asha", Email: "asha@example.edu", College: "Engineering", Department: "CSE", Year: 2},
		{RegistrationNo: "REG-002", Name: "Bilal", Email: "bilal@example.edu", College: "Engineering", Department: "ECE", Year: 3},
	}

	publisher, _ := events.NewGoChannelPublisher(discardLogger())
	pub := NewPublicationService(repo, nil, discardLogger(), publisher, shareBase)
	return repo, assembly, pub
}

// buildSubmitted drives an assessment to the publishable state: one section
// requiring two questions, filled and submitted.
func buildSubmitted(t *testing.T, assembly AssemblyService) uint {
	t.Helper()
	ctx := context.Background()

	resp := createSectioned(t, assembly, "teacher-1")
	sectionID := resp.Sections[0].ID
	if _, err := assembly.UpdateSectionConfig(ctx, sectionID, &SectionConfigRequest{
		RequiredQuestionCount: intPtr(2),
	}, "teacher-1"); err != nil {
		t.Fatalf("UpdateSectionConfig: %v", err)
	}
	if _, err := assembly.AddQuestionsFromSource(ctx, sectionID, manualBatch("Q1", "Q2"), "teacher-1"); err != nil {
		t.Fatalf("AddQuestionsFromSource: %v", err)
	}
	if err := assembly.SubmitSection(ctx, sectionID, "teacher-1"); err != nil {
		t.Fatalf("SubmitSection: %v", err)
	}
	return resp.ID
}

// An assessment with any unsubmitted section cannot be published and the
// error names the unmet condition.
func TestPublish_BlockedBySectionNotSubmitted(t *testing.T) {
	repo, assembly, pub := newPublicationEnv(t)
	ctx := context.Background()

	id := buildSubmitted(t, assembly)
	if _, err := assembly.AddSection(ctx, id, nil, "teacher-1"); err != nil {
		t.Fatalf("AddSection: %v", err)
	}

	_, err := pub.Publish(ctx, id, []string{"REG-001"}, "teacher-1")
	var pre *PublishPreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("got %v, want PublishPreconditionError", err)
	}
	if pre.Reason != ReasonSectionsNotSubmitted {
		t.Errorf("reason = %q, want %q", pre.Reason, ReasonSectionsNotSubmitted)
	}
	if repo.assessments[id].Published {
		t.Error("assessment must stay unpublished")
	}
}

func TestPublish_BlockedByEmptyRecipients(t *testing.T) {
	_, assembly, pub := newPublicationEnv(t)
	id := buildSubmitted(t, assembly)

	_, err := pub.Publish(context.Background(), id, nil, "teacher-1")
	var pre *PublishPreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("got %v, want PublishPreconditionError", err)
	}
	if pre.Reason != ReasonNoRecipients {
		t.Errorf("reason = %q, want %q", pre.Reason, ReasonNoRecipients)
	}
}

func TestPublish_UnresolvableRecipients(t *testing.T) {
	_, assembly, pub := newPublicationEnv(t)
	id := buildSubmitted(t, assembly)

	_, err := pub.Publish(context.Background(), id, []string{"REG-999"}, "teacher-1")
	var empty *EmptyRecipientSetError
	if !errors.As(err, &empty) {
		t.Fatalf("got %v, want EmptyRecipientSetError", err)
	}
}

func TestPublish_BlockedByNoQuestions(t *testing.T) {
	_, assembly, pub := newPublicationEnv(t)
	ctx := context.Background()

	resp, err := assembly.CreateAssessment(ctx, &CreateAssessmentRequest{Title: "Empty quiz"}, "teacher-1")
	if err != nil {
		t.Fatalf("CreateAssessment: %v", err)
	}

	_, pubErr := pub.Publish(ctx, resp.ID, []string{"REG-001"}, "teacher-1")
	var pre *PublishPreconditionError
	if !errors.As(pubErr, &pre) {
		t.Fatalf("got %v, want PublishPreconditionError", pubErr)
	}
	if pre.Reason != ReasonNoQuestions {
		t.Errorf("reason = %q, want %q", pre.Reason, ReasonNoQuestions)
	}
}

// A successful publish stores the recipients and share token exactly once; a
// repeat call fails without minting a second share reference.
func TestPublish_SuccessThenRepeatGuarded(t *testing.T) {
	repo, assembly, pub := newPublicationEnv(t)
	ctx := context.Background()
	id := buildSubmitted(t, assembly)

	result, err := pub.Publish(ctx, id, []string{"REG-001", "REG-002"}, "teacher-1")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !strings.HasPrefix(result.ShareURL, shareBase+"/a/") {
		t.Errorf("share url = %q", result.ShareURL)
	}
	if result.QuestionCount != 2 || result.RecipientCount != 2 {
		t.Errorf("result = %+v, want 2 questions / 2 recipients", result)
	}

	stored := repo.assessments[id]
	if !stored.Published || stored.ShareToken == nil || stored.PublishedAt == nil {
		t.Fatalf("publish state not persisted: %+v", stored)
	}
	if len(stored.Recipients) != 2 {
		t.Errorf("stored recipients = %d, want 2", len(stored.Recipients))
	}

	_, err = pub.Publish(ctx, id, []string{"REG-001"}, "teacher-1")
	if !errors.Is(err, ErrAlreadyPublished) {
		t.Fatalf("repeat publish: got %v, want ErrAlreadyPublished", err)
	}
	if repo.markPublishedCalls != 1 {
		t.Errorf("MarkPublished called %d times, want 1", repo.markPublishedCalls)
	}
}

func TestPublish_LatchRejectsConcurrentCall(t *testing.T) {
	_, assembly, pub := newPublicationEnv(t)
	id := buildSubmitted(t, assembly)

	svc := pub.(*publicationService)
	if err := svc.acquireLatch(id); err != nil {
		t.Fatalf("acquireLatch: %v", err)
	}
	defer svc.releaseLatch(id)

	_, err := pub.Publish(context.Background(), id, []string{"REG-001"}, "teacher-1")
	if !errors.Is(err, ErrPublishInFlight) {
		t.Errorf("got %v, want ErrPublishInFlight", err)
	}
}

func TestPublish_FailedWriteLeavesStateUnpublished(t *testing.T) {
	repo, assembly, pub := newPublicationEnv(t)
	id := buildSubmitted(t, assembly)
	repo.failMarkPublished = errors.New("connection reset")

	if _, err := pub.Publish(context.Background(), id, []string{"REG-001"}, "teacher-1"); err == nil {
		t.Fatal("expected publish to fail")
	}
	if repo.assessments[id].Published {
		t.Error("assessment must stay unpublished after a failed write")
	}

	// The latch is released, so a retry after the fault clears succeeds.
	repo.failMarkPublished = nil
	if _, err := pub.Publish(context.Background(), id, []string{"REG-001"}, "teacher-1"); err != nil {
		t.Errorf("retry after failure: %v", err)
	}
}

func TestPublish_EmitsEvent(t *testing.T) {
	repo, assembly := newAssemblyEnv()
	repo.students = []*models.StudentRef{{RegistrationNo: "REG-001", Name: "Asha"}}
	publisher, pubsub := events.NewGoChannelPublisher(discardLogger())
	pub := NewPublicationService(repo, nil, discardLogger(), publisher, shareBase)

	ctx := context.Background()
	messages, err := pubsub.Subscribe(ctx, events.TopicAssessmentPublished)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	id := buildSubmitted(t, assembly)
	if _, err := pub.Publish(ctx, id, []string{"REG-001"}, "teacher-1"); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-messages:
		var event events.AssessmentPublishedEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		msg.Ack()
		if event.AssessmentID != id {
			t.Errorf("event assessment = %d, want %d", event.AssessmentID, id)
		}
		if event.PublishedBy != "teacher-1" || len(event.Recipients) != 1 {
			t.Errorf("event = %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

// Structurally equal questions collapse into one published question even
// when their options were entered in a different order.
func TestCollectQuestions_StructuralDedup(t *testing.T) {
	_, _, pub := newPublicationEnv(t)

	q1 := models.Question{ID: 1, Text: "Pick one", Options: []string{"a", "b"}, CorrectAnswer: "a"}
	q2 := models.Question{ID: 2, Text: "Pick one", Options: []string{"b", "a"}, CorrectAnswer: "a"}
	q3 := models.Question{ID: 3, Text: "Pick another", Options: []string{"a", "b"}, CorrectAnswer: "b"}

	assessment := &models.Assessment{
		SectionsEnabled: true,
		Sections: []models.Section{
			{Questions: []models.SectionQuestion{{Question: q1}, {Question: q3}}},
			{Questions: []models.SectionQuestion{{Question: q2}}},
		},
	}

	collected := pub.CollectQuestions(assessment)
	if len(collected) != 2 {
		t.Fatalf("got %d questions, want 2", len(collected))
	}
	// First occurrence wins and order is preserved.
	if collected[0].ID != 1 || collected[1].ID != 3 {
		t.Errorf("order = [%d %d], want [1 3]", collected[0].ID, collected[1].ID)
	}

	again := pub.CollectQuestions(assessment)
	if len(again) != len(collected) {
		t.Error("collection is not stable across calls")
	}
}

func TestCollectQuestions_FlatMode(t *testing.T) {
	_, _, pub := newPublicationEnv(t)

	assessment := &models.Assessment{
		FlatQuestions: []models.AssessmentQuestion{
			{Question: models.Question{ID: 1, Text: "Q1", Options: []string{"a", "b"}, CorrectAnswer: "a"}},
			{Question: models.Question{ID: 2, Text: "Q1", Options: []string{"b", "a"}, CorrectAnswer: "a"}},
		},
	}
	collected := pub.CollectQuestions(assessment)
	if len(collected) != 1 {
		t.Errorf("got %d questions, want 1 after dedup", len(collected))
	}
}

func TestResolveRecipients_EmptyInput(t *testing.T) {
	_, _, pub := newPublicationEnv(t)

	_, err := pub.ResolveRecipients(context.Background(), nil)
	var empty *EmptyRecipientSetError
	if !errors.As(err, &empty) {
		t.Fatalf("got %v, want EmptyRecipientSetError", err)
	}
}
