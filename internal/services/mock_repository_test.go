package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/repositories"
)

// mockRepository is an in-memory Repository used by the service tests.
// Everything runs under one mutex; WithTransaction just invokes fn since
// the tests never exercise rollback semantics beyond error propagation.
type mockRepository struct {
	mu sync.Mutex

	assessments   map[uint]*models.Assessment
	sections      map[uint]*models.Section
	questions     map[uint]*models.Question
	testQuestions map[uint][]*models.Question
	users         map[string]*models.User
	students      []*models.StudentRef
	nextID        uint

	markPublishedCalls int
	failMarkPublished  error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		assessments:   make(map[uint]*models.Assessment),
		sections:      make(map[uint]*models.Section),
		questions:     make(map[uint]*models.Question),
		testQuestions: make(map[uint][]*models.Question),
		users: map[string]*models.User{
			"teacher-1": {ID: "teacher-1", Role: models.RoleTeacher},
			"teacher-2": {ID: "teacher-2", Role: models.RoleTeacher},
			"admin-1":   {ID: "admin-1", Role: models.RoleAdmin},
			"student-1": {ID: "student-1", Role: models.RoleStudent},
		},
	}
}

func (m *mockRepository) allocID() uint {
	m.nextID++
	return m.nextID
}

func (m *mockRepository) Assessment() repositories.AssessmentRepository { return &mockAssessments{m} }
func (m *mockRepository) Section() repositories.SectionRepository       { return &mockSections{m} }
func (m *mockRepository) Question() repositories.QuestionRepository     { return &mockQuestions{m} }
func (m *mockRepository) TestBank() repositories.TestBankRepository     { return &mockTestBank{m} }
func (m *mockRepository) Student() repositories.StudentRepository       { return &mockStudents{m} }
func (m *mockRepository) User() repositories.UserRepository             { return &mockUsers{m} }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== assessments =====

type mockAssessments struct{ m *mockRepository }

func (r *mockAssessments) Create(ctx context.Context, tx *gorm.DB, a *models.Assessment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a.ID = r.m.allocID()
	r.m.assessments[a.ID] = a
	return nil
}

func (r *mockAssessments) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.assessments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (r *mockAssessments) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.assessments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	a.Sections = a.Sections[:0]
	for _, s := range r.m.sections {
		if s.AssessmentID == id {
			a.Sections = append(a.Sections, *s)
		}
	}
	sort.Slice(a.Sections, func(i, j int) bool { return a.Sections[i].Position < a.Sections[j].Position })
	return a, nil
}

func (r *mockAssessments) Update(ctx context.Context, tx *gorm.DB, a *models.Assessment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.assessments[a.ID] = a
	return nil
}

func (r *mockAssessments) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.assessments, id)
	return nil
}

func (r *mockAssessments) ListByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Assessment
	for _, a := range r.m.assessments {
		if a.CreatedBy != creatorID {
			continue
		}
		if filters.Published != nil && a.Published != *filters.Published {
			continue
		}
		if filters.Search != "" && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(filters.Search)) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *mockAssessments) MarkPublished(ctx context.Context, tx *gorm.DB, id uint, shareToken string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.markPublishedCalls++
	if r.m.failMarkPublished != nil {
		return r.m.failMarkPublished
	}
	a, ok := r.m.assessments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if a.Published {
		return gorm.ErrDuplicatedKey
	}
	now := time.Now()
	a.Published = true
	a.PublishedAt = &now
	a.ShareToken = &shareToken
	return nil
}

func (r *mockAssessments) ReplaceRecipients(ctx context.Context, tx *gorm.DB, assessmentID uint, registrationNos []string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.assessments[assessmentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Recipients = a.Recipients[:0]
	for _, no := range registrationNos {
		a.Recipients = append(a.Recipients, models.AssessmentRecipient{AssessmentID: assessmentID, RegistrationNo: no})
	}
	return nil
}

func (r *mockAssessments) AddFlatQuestions(ctx context.Context, tx *gorm.DB, assessmentID uint, questionIDs []uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.assessments[assessmentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, qid := range questionIDs {
		q := r.m.questions[qid]
		a.FlatQuestions = append(a.FlatQuestions, models.AssessmentQuestion{
			AssessmentID: assessmentID,
			QuestionID:   qid,
			Position:     len(a.FlatQuestions),
			Question:     *q,
		})
	}
	return nil
}

func (r *mockAssessments) RemoveFlatQuestion(ctx context.Context, tx *gorm.DB, assessmentID, questionID uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.assessments[assessmentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	kept := a.FlatQuestions[:0]
	for _, aq := range a.FlatQuestions {
		if aq.QuestionID != questionID {
			aq.Position = len(kept)
			kept = append(kept, aq)
		}
	}
	a.FlatQuestions = kept
	return nil
}

// ===== sections =====

type mockSections struct{ m *mockRepository }

func (r *mockSections) Create(ctx context.Context, tx *gorm.DB, s *models.Section) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s.ID = r.m.allocID()
	r.m.sections[s.ID] = s
	return nil
}

func (r *mockSections) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Section, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sections[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *mockSections) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Section, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *mockSections) Update(ctx context.Context, tx *gorm.DB, s *models.Section) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.sections[s.ID] = s
	return nil
}

func (r *mockSections) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.sections, id)
	return nil
}

func (r *mockSections) ShiftPositions(ctx context.Context, tx *gorm.DB, assessmentID uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.sections {
		if s.AssessmentID == assessmentID {
			s.Position++
		}
	}
	return nil
}

func (r *mockSections) AppendQuestions(ctx context.Context, tx *gorm.DB, sectionID uint, questionIDs []uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sections[sectionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, qid := range questionIDs {
		q := r.m.questions[qid]
		s.Questions = append(s.Questions, models.SectionQuestion{
			SectionID:  sectionID,
			QuestionID: qid,
			Position:   len(s.Questions),
			Question:   *q,
		})
	}
	return nil
}

func (r *mockSections) RemoveQuestionAt(ctx context.Context, tx *gorm.DB, sectionID uint, position int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sections[sectionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Questions = append(s.Questions[:position], s.Questions[position+1:]...)
	for i := range s.Questions {
		s.Questions[i].Position = i
	}
	return nil
}

func (r *mockSections) MarkSubmitted(ctx context.Context, tx *gorm.DB, sectionID uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sections[sectionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	s.Submitted = true
	s.SubmittedAt = &now
	return nil
}

// ===== questions =====

type mockQuestions struct{ m *mockRepository }

func (r *mockQuestions) Create(ctx context.Context, tx *gorm.DB, q *models.Question) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	q.ID = r.m.allocID()
	r.m.questions[q.ID] = q
	return nil
}

func (r *mockQuestions) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	q, ok := r.m.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (r *mockQuestions) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	var out []*models.Question
	for _, id := range ids {
		if q, err := r.GetByID(ctx, tx, id); err == nil {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *mockQuestions) Search(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Question
	for _, q := range r.m.questions {
		if filters.CreatedBy != "" && q.CreatedBy != filters.CreatedBy {
			continue
		}
		if filters.Level != "" && q.Level != filters.Level {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *mockQuestions) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.questions, id)
	return nil
}

// ===== test bank =====

type mockTestBank struct{ m *mockRepository }

func (r *mockTestBank) ListTests(ctx context.Context, tx *gorm.DB, creatorID string) ([]*models.Assessment, error) {
	return nil, nil
}

func (r *mockTestBank) GetQuestions(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Question, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.testQuestions[testID], nil
}

// ===== students =====

type mockStudents struct{ m *mockRepository }

func (r *mockStudents) List(ctx context.Context) ([]*models.StudentRef, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.students, nil
}

func (r *mockStudents) GetByRegistrationNos(ctx context.Context, registrationNos []string) ([]*models.StudentRef, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	want := make(map[string]bool, len(registrationNos))
	for _, no := range registrationNos {
		want[no] = true
	}
	var out []*models.StudentRef
	for _, s := range r.m.students {
		if want[s.RegistrationNo] {
			out = append(out, s)
		}
	}
	return out, nil
}

// ===== users =====

type mockUsers struct{ m *mockRepository }

func (r *mockUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *mockUsers) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return false, nil
	}
	return u.Role == role, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
