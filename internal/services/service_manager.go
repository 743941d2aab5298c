package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/EduForge-2025/authoring-service/internal/events"
	"github.com/EduForge-2025/authoring-service/internal/repositories"
	"github.com/EduForge-2025/authoring-service/internal/sources"
	"github.com/EduForge-2025/authoring-service/internal/validator"
)

// ServiceConfig carries everything the service layer needs from main.
type ServiceConfig struct {
	Repository   repositories.Repository
	DB           *gorm.DB
	Logger       *slog.Logger
	Validator    *validator.Validator
	Registry     *sources.Registry
	Publisher    events.Publisher
	ShareBaseURL string
}

type serviceManager struct {
	assembly     AssemblyService
	publication  PublicationService
	student      StudentService
	questionBank QuestionBankService

	repo      repositories.Repository
	publisher events.Publisher
	logger    *slog.Logger
}

func NewServiceManager(cfg *ServiceConfig) ServiceManager {
	assembly := NewAssemblyService(cfg.Repository, cfg.DB, cfg.Logger, cfg.Validator, cfg.Registry)

	return &serviceManager{
		assembly:     assembly,
		publication:  NewPublicationService(cfg.Repository, cfg.DB, cfg.Logger, cfg.Publisher, cfg.ShareBaseURL),
		student:      NewStudentService(cfg.Repository, cfg.Logger),
		questionBank: NewQuestionBankService(cfg.Repository, cfg.DB, cfg.Logger),
		repo:         cfg.Repository,
		publisher:    cfg.Publisher,
		logger:       cfg.Logger,
	}
}

func (m *serviceManager) Assembly() AssemblyService         { return m.assembly }
func (m *serviceManager) Publication() PublicationService   { return m.publication }
func (m *serviceManager) Student() StudentService           { return m.student }
func (m *serviceManager) QuestionBank() QuestionBankService { return m.questionBank }

func (m *serviceManager) HealthCheck(ctx context.Context) error {
	if err := m.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

func (m *serviceManager) Shutdown(ctx context.Context) error {
	if m.publisher != nil {
		if err := m.publisher.Close(); err != nil {
			m.logger.Error("failed to close event publisher", "error", err)
		}
	}
	if err := m.repo.Close(); err != nil {
		return fmt.Errorf("failed to close repository: %w", err)
	}
	m.logger.Info("services shut down")
	return nil
}
