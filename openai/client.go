package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i2y/chatstream/provider"
)

const (
	defaultBaseURL      = "https://api.openai.com"
	chatCompletionsPath = "/v1/chat/completions"

	// DefaultReadTimeout is how long the client waits for the next bytes of a
	// response before giving up on it.
	DefaultReadTimeout = 600 * time.Second
)

// client wraps the HTTP client for chat completion calls.
type client struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	readTimeout time.Duration
	logger      *zap.Logger
}

// newClient creates a new client.
func newClient(cfg *providerConfig) *client {
	baseURL := cfg.baseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &client{
		apiKey:      cfg.apiKey,
		baseURL:     baseURL,
		httpClient:  httpClient,
		readTimeout: cfg.readTimeout,
		logger:      cfg.logger,
	}
}

// chatCompletionStream posts the request and returns a stream over the
// response body. Non-success statuses are returned as *APIError.
func (c *client) chatCompletionStream(ctx context.Context, req *provider.CompletionRequest) (*ChunkStream, error) {
	body, err := json.Marshal(newChatCompletionRequest(&req.Body))
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	baseURL := req.BaseURL
	if baseURL == "" {
		baseURL = c.baseURL
	}
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = c.apiKey
	}

	ctx, cancel := context.WithCancel(ctx)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		baseURL+chatCompletionsPath, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}

	c.logger.Debug("sending chat completion request",
		zap.String("request_id", requestID),
		zap.String("url", httpReq.URL.String()),
		zap.String("model", req.Body.Model),
		zap.Int("messages", len(req.Body.Messages)),
	)

	// The idle timer also covers the wait for response headers.
	respBody := newIdleTimeoutBody(c.readTimeout, cancel)
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		_ = respBody.Close()
		return nil, fmt.Errorf("sending request: %w", err)
	}
	respBody.rc = httpResp.Body

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		defer func() { _ = respBody.Close() }()
		data, err := io.ReadAll(respBody)
		if err != nil {
			return nil, fmt.Errorf("reading error response (status %d): %w", httpResp.StatusCode, err)
		}
		c.logger.Debug("chat completion request failed",
			zap.String("request_id", requestID),
			zap.Int("status", httpResp.StatusCode),
		)
		return nil, newAPIError(httpResp.StatusCode, data)
	}

	return NewChunkStream(respBody), nil
}

// idleTimeoutBody cancels the request when no bytes arrive for the timeout.
type idleTimeoutBody struct {
	rc      io.ReadCloser
	timeout time.Duration
	timer   *time.Timer
	cancel  context.CancelFunc
	once    sync.Once
}

func newIdleTimeoutBody(timeout time.Duration, cancel context.CancelFunc) *idleTimeoutBody {
	b := &idleTimeoutBody{timeout: timeout, cancel: cancel}
	if timeout > 0 {
		b.timer = time.AfterFunc(timeout, cancel)
	}
	return b
}

func (b *idleTimeoutBody) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if n > 0 && b.timer != nil {
		b.timer.Reset(b.timeout)
	}
	return n, err
}

func (b *idleTimeoutBody) Close() error {
	var err error
	b.once.Do(func() {
		if b.timer != nil {
			b.timer.Stop()
		}
		if b.rc != nil {
			err = b.rc.Close()
		}
		b.cancel()
	})
	return err
}

// APIError is returned when the server answers with a non-success status.
// Body holds the response text as received.
type APIError struct {
	StatusCode int
	Body       string
	Type       string
	Code       string
}

// newAPIError builds an APIError, picking up the type and code when the body
// is a JSON error object.
func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		apiErr.Type = errResp.Error.Type
		apiErr.Code = errResp.Error.Code
	}
	return apiErr
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai API error (status %d): %s", e.StatusCode, e.Body)
}

// HTTPStatusCode returns the response status.
func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}
