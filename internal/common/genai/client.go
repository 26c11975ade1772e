// internal/common/genai/client.go
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"promptlab-workers/internal/common/logger"
)

var (
	ErrRefineFailed     = errors.New("REFINE_FAILED")
	ErrRefineTimeout    = errors.New("REFINE_TIMEOUT")
	ErrCompletionFailed = errors.New("COMPLETION_FAILED")
)

// Config controls the GenAI HTTP collaborator.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// Client talks to the refinement service. The lab runner blocks on its
// calls; recoverable failures surface as sentinel errors, never panics.
type Client struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		// No client-level timeout: the per-call context bounds each request.
		client: &http.Client{},
		logger: log.WithFields(map[string]interface{}{"component": "genai"}),
	}
}

// RefineRequest mirrors the refine collaborator contract.
type RefineRequest struct {
	Text          string `json:"text"`
	TemplateID    string `json:"templateId"`
	Category      string `json:"category"`
	UserPlan      string `json:"userPlan"`
	ABTestVariant string `json:"abTestVariant"`
	ModelName     string `json:"modelName,omitempty"`
}

type RefineResponse struct {
	RefinedText string `json:"refinedText"`
}

// Refine submits one refinement call and blocks until the service
// answers or the context deadline passes.
func (c *Client) Refine(ctx context.Context, req *RefineRequest) (*RefineResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	body, err := c.post(ctx, "/api/ai/refine", req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, ErrRefineTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrRefineFailed, err)
	}

	var out RefineResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrRefineFailed, err)
	}
	if out.RefinedText == "" {
		return nil, fmt.Errorf("%w: empty refined text", ErrRefineFailed)
	}
	return &out, nil
}

type completionRequest struct {
	System      string  `json:"system"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Text string `json:"text"`
}

// Complete issues a single-shot completion. The classifier fallback uses
// this with temperature 0 and a closed-vocabulary system instruction.
func (c *Client) Complete(ctx context.Context, system, prompt string, temperature float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	body, err := c.post(ctx, "/api/ai/complete", completionRequest{
		System:      system,
		Prompt:      prompt,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	var out completionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrCompletionFailed, err)
	}
	return out.Text, nil
}

// post sends a JSON request with bounded exponential-backoff retries on
// transport errors and 5xx responses. The request body is rebuilt per
// attempt so retries never reuse a drained reader.
func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		}

		resp, err := c.client.Do(req)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			lastErr = err
			c.logger.Warn("genai request failed", map[string]interface{}{
				"path":    path,
				"attempt": attempt + 1,
				"error":   err.Error(),
			})
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		if readErr != nil {
			lastErr = readErr
			continue
		}
		return data, nil
	}

	return nil, fmt.Errorf("all attempts failed: %w", lastErr)
}
