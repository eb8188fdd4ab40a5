package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spigell/internship-matcher/internal/embedding"
	"github.com/spigell/internship-matcher/internal/utils"
	"go.uber.org/zap"
)

const (
	name           = "openai"
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "text-embedding-3-small"
	defaultTimeout = 30 * time.Second

	retryBase  = 200 * time.Millisecond
	retryLimit = 5 * time.Second
)

var wait = utils.WaitFor

// Client is an OpenAI-compatible embeddings client. Ollama's native response
// shape is accepted as well.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	client     *http.Client
	logger     *zap.Logger

	mu        sync.RWMutex
	dimension int
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimension  int
	Timeout    time.Duration
	MaxRetries int
}

// NewClient creates a new embeddings client. An API key is optional since
// local servers usually do not require one.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      model,
		maxRetries: retries,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
		dimension:  cfg.Dimension,
	}
}

func (c *Client) Name() string { return name }

func (c *Client) Model() string { return c.model }

// Dimension returns the configured dimension, or the one learned from the
// first response. Zero means unknown.
func (c *Client) Dimension() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dimension
}

// Embed returns an embedding vector for text. Blank text yields a zero vector
// without a network call.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return embedding.Zero(c.Dimension()), nil
	}

	type reqBody struct {
		Input  string `json:"input,omitempty"`
		Prompt string `json:"prompt,omitempty"`
		Model  string `json:"model"`
	}
	data, err := json.Marshal(reqBody{Input: text, Prompt: text, Model: c.model})
	if err != nil {
		return nil, err
	}
	url := c.baseURL + "/embeddings"

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		vec, retryAfter, err := c.do(ctx, url, data)
		if err == nil {
			return c.remember(vec)
		}
		lastErr = err

		if retryAfter < 0 || attempt == c.maxRetries-1 {
			break
		}

		delay := retryAfter
		if delay == 0 {
			delay = utils.Backoff(attempt, retryBase, retryLimit)
		}
		c.logger.Warn("embeddings request failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := wait(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// do performs one request. retryAfter is negative when the failure is final,
// zero for the default backoff, or the server-provided delay.
func (c *Client) do(ctx context.Context, url string, body []byte) ([]float64, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, -1, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, -1, err
		}
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		delay := time.Duration(0)
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			delay = time.Duration(secs) * time.Second
		}
		return nil, delay, fmt.Errorf("embeddings request failed: %s", resp.Status)
	}
	if resp.StatusCode >= 300 {
		return nil, -1, fmt.Errorf("embeddings request failed: %s", resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}

	vec, err := decode(payload)
	if err != nil {
		return nil, -1, err
	}
	return vec, 0, nil
}

func decode(payload []byte) ([]float64, error) {
	var openaiOut struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &openaiOut); err == nil {
		if len(openaiOut.Data) > 0 && len(openaiOut.Data[0].Embedding) > 0 {
			return openaiOut.Data[0].Embedding, nil
		}
	}

	// Ollama-native shape: { "embedding": [...] }
	var ollamaOut struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &ollamaOut); err == nil && len(ollamaOut.Embedding) > 0 {
		return ollamaOut.Embedding, nil
	}

	return nil, errors.New("no embedding returned")
}

func (c *Client) remember(vec []float64) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dimension == 0 {
		c.dimension = len(vec)
	}
	if len(vec) != c.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", embedding.ErrDimensionMismatch, c.dimension, len(vec))
	}
	return vec, nil
}
