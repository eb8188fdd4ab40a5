package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spigell/internship-matcher/internal/embedding"
	"github.com/spigell/internship-matcher/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	name             = "gemini"
	defaultModel     = "gemini-embedding-001"
	defaultDimension = 768
	taskType         = "SEMANTIC_SIMILARITY"

	retryBase  = 500 * time.Millisecond
	retryLimit = 10 * time.Second
)

var wait = utils.WaitFor

type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Embedder produces embeddings through the Gemini API. The underlying genai
// client is safe for concurrent use, so a single Embedder can be shared.
type Embedder struct {
	models     contentEmbedder
	model      string
	dimension  int
	maxRetries int
	logger     *zap.Logger
}

// Config configures the Gemini embedder.
type Config struct {
	APIKey     string
	Model      string
	Dimension  int
	MaxRetries int
}

// New creates the genai client. Failing here means the service cannot start.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Embedder, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newEmbedder(client.Models, cfg, logger), nil
}

func newEmbedder(models contentEmbedder, cfg Config, logger *zap.Logger) *Embedder {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	dimension := cfg.Dimension
	if dimension <= 0 {
		dimension = defaultDimension
	}

	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		models:     models,
		model:      model,
		dimension:  dimension,
		maxRetries: retries,
		logger:     logger,
	}
}

func (e *Embedder) Name() string { return name }

func (e *Embedder) Model() string { return e.model }

func (e *Embedder) Dimension() int { return e.dimension }

// Embed returns the embedding of text. Blank text short-circuits to a zero
// vector since the API rejects empty content. maxRetries is the total number
// of attempts for temporary API errors.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return embedding.Zero(e.dimension), nil
	}

	dim := int32(e.dimension)
	cfg := &genai.EmbedContentConfig{
		TaskType:             taskType,
		OutputDimensionality: &dim,
	}

	var lastErr error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		resp, err := e.models.EmbedContent(ctx, e.model, genai.Text(text), cfg)
		if err == nil {
			return e.vector(resp)
		}
		lastErr = err

		if !temporary(err) || attempt == e.maxRetries-1 {
			break
		}

		delay := utils.Backoff(attempt, retryBase, retryLimit)
		e.logger.Warn("gemini embed content failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", e.maxRetries),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := wait(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("embed content: %w", lastErr)
}

func (e *Embedder) vector(resp *genai.EmbedContentResponse) ([]float64, error) {
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, errors.New("gemini api returned no embeddings")
	}

	values := resp.Embeddings[0].Values
	if len(values) == 0 {
		return nil, errors.New("gemini api returned an empty embedding")
	}
	if len(values) != e.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", embedding.ErrDimensionMismatch, e.dimension, len(values))
	}

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out, nil
}

func temporary(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code == http.StatusTooManyRequests || apiErrPtr.Code >= http.StatusInternalServerError
	}
	return false
}
