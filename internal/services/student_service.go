package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/repositories"
)

type studentService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewStudentService(repo repositories.Repository, logger *slog.Logger) StudentService {
	return &studentService{repo: repo, logger: logger}
}

// List returns the directory, narrowed by the optional filter. The directory
// backend returns the full roster; filtering happens here because the
// identity provider has no server-side query for these fields.
func (s *studentService) List(ctx context.Context, filter *StudentFilterRequest) ([]*models.StudentRef, error) {
	students, err := s.repo.Student().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	if filter == nil {
		return students, nil
	}

	out := make([]*models.StudentRef, 0, len(students))
	for _, st := range students {
		if !matchesStudentFilter(st, filter) {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func matchesStudentFilter(st *models.StudentRef, filter *StudentFilterRequest) bool {
	if filter.College != "" && !strings.EqualFold(st.College, filter.College) {
		return false
	}
	if filter.Department != "" && !strings.EqualFold(st.Department, filter.Department) {
		return false
	}
	if filter.Year != 0 && st.Year != filter.Year {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(st.Name), needle) &&
			!strings.Contains(strings.ToLower(st.RegistrationNo), needle) &&
			!strings.Contains(strings.ToLower(st.Email), needle) {
			return false
		}
	}
	return true
}
