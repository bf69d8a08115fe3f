package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lamim/promptlab/internal/config"
	"github.com/lamim/promptlab/internal/metrics"
)

const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests
	DefaultHTTPTimeout = 120 * time.Second
)

// Client handles HTTP requests to OpenAI-compatible API endpoints.
// Each ChatCompletion call is a single attempt; retries are layered on top
// with Retry.
type Client struct {
	httpClient *http.Client
	limiters   *Limiters
	logger     *slog.Logger
	metrics    *metrics.Collector
}

// NewClient creates a new API client. collector may be nil.
func NewClient(logger *slog.Logger, collector *metrics.Collector) *Client {
	return &Client{
		httpClient: &http.Client{},
		limiters:   NewLimiters(logger),
		logger:     logger,
		metrics:    collector,
	}
}

// ChatCompletion sends one chat completion request to the configured model
func (c *Client) ChatCompletion(
	ctx context.Context,
	modelCfg config.ModelConfig,
	apiKey string,
	request Request,
) (*ChatCompletionResponse, error) {
	if err := c.limiters.Wait(ctx, modelCfg); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	req := ChatCompletionRequest{
		Model:          modelCfg.ModelName,
		Messages:       request.Messages,
		Temperature:    request.Temperature,
		MaxTokens:      modelCfg.MaxOutputTokens,
		ResponseFormat: request.ResponseFormat,
	}

	timeout := DefaultHTTPTimeout
	if modelCfg.HTTPTimeoutSeconds > 0 {
		timeout = time.Duration(modelCfg.HTTPTimeoutSeconds) * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.doRequest(reqCtx, modelCfg.BaseURL, apiKey, req)
	c.metrics.RecordAPIRequest(modelCfg.ModelName, time.Since(start), err == nil)
	if err != nil {
		c.logger.Debug("API request failed",
			"model", modelCfg.ModelName,
			"duration", time.Since(start),
			"error", err)
		return nil, err
	}

	c.logger.Debug("API request completed",
		"model", modelCfg.ModelName,
		"duration", time.Since(start),
		"completion_tokens", resp.Usage.CompletionTokens)
	return resp, nil
}

func (c *Client) doRequest(
	ctx context.Context,
	baseURL string,
	apiKey string,
	req ChatCompletionRequest,
) (*ChatCompletionResponse, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(req); err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimRight(baseURL, "/") + "/chat/completions"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	} else {
		c.logger.Warn("API request without key", "endpoint", endpoint)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &APIError{
			Message:    fmt.Sprintf("request failed: %v", err),
			StatusCode: 0,
			Retryable:  true,
		}
	}
	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &APIError{
			Message:   fmt.Sprintf("failed to read response: %v", err),
			Retryable: true,
		}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		isRetryable := isStatusCodeRetryable(httpResp.StatusCode)

		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, &APIError{
				Message:    errResp.Error.Message,
				StatusCode: httpResp.StatusCode,
				Type:       errResp.Error.Type,
				Code:       strings.Trim(string(errResp.Error.Code), `"`),
				Retryable:  isRetryable,
			}
		}

		return nil, &APIError{
			Message:    fmt.Sprintf("API request failed with status %d: %s", httpResp.StatusCode, string(respBody)),
			StatusCode: httpResp.StatusCode,
			Retryable:  isRetryable,
		}
	}

	var resp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	resp.Raw = respBody

	return &resp, nil
}

// IsRetryable reports whether err is worth another attempt. Transport
// failures, 429 and 5xx are retryable; other API statuses are not. Errors
// that are not APIErrors (for example a malformed body) are retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	return true
}

func isStatusCodeRetryable(statusCode int) bool {
	// Retry on rate limits and server errors
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusInternalServerError ||
		statusCode == http.StatusBadGateway ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout
}

// APIError represents an error returned by the API
type APIError struct {
	Message    string
	StatusCode int
	Type       string
	Code       string
	Retryable  bool
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error: %s", e.Message)
}
