package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/EduForge-2025/authoring-service/internal/models"
	"github.com/EduForge-2025/authoring-service/internal/validator"
)

// GenerationService is the external question-generation boundary.
type GenerationService interface {
	Generate(ctx context.Context, req *validator.GenerateQuestionsRequest) ([]models.Question, error)
}

// AISource produces generated question candidates. The caller reviews the
// returned superset and performs its own final selection before insertion.
type AISource struct {
	client    GenerationService
	validator *validator.Validator
}

func NewAISource(client GenerationService, v *validator.Validator) *AISource {
	return &AISource{client: client, validator: v}
}

func (s *AISource) Kind() models.SourceKind {
	return models.SourceAIGenerated
}

func (s *AISource) Produce(ctx context.Context, req *Request) (*Result, error) {
	gen := req.Generate
	if errs := s.validator.GetBusinessValidator().ValidateGenerateRequest(gen); errs.HasErrors() {
		return nil, errs
	}

	generated, err := s.client.Generate(ctx, gen)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}

	result := &Result{Questions: make([]models.Question, 0, len(generated))}
	for _, q := range generated {
		q.Source = models.SourceAIGenerated
		if q.Level == "" {
			q.Level = models.DifficultyMedium
		}
		// Tag each candidate with its originating Bloom level so the
		// review step can show the distribution.
		q.Tags = append(q.Tags, "bloom:"+string(q.Level))
		result.Questions = append(result.Questions, q)
	}
	result.Accepted = len(result.Questions)
	return result, nil
}

// HTTPGenerationClient calls the generation service over HTTP.
type HTTPGenerationClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPGenerationClient(baseURL string) *HTTPGenerationClient {
	return &HTTPGenerationClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *HTTPGenerationClient) Generate(ctx context.Context, req *validator.GenerateQuestionsRequest) ([]models.Question, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation service returned status %d", resp.StatusCode)
	}

	var payload struct {
		Questions []models.Question `json:"questions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}
	return payload.Questions, nil
}
