package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TokenSource supplies the bearer credential attached to every call.
type TokenSource interface {
	Token() (string, error)
}

// APIError is a non-success response from the backend. Message carries the
// backend's own wording when the error payload provides one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

var ErrUnavailable = errors.New("backend unavailable")

type result struct {
	status int
	body   []byte
}

// Client is the authenticated JSON client shared by every backend adapter.
// Transport failures and 5xx responses feed the circuit breaker; business
// rejections (4xx) pass through as APIError without tripping it.
type Client struct {
	log     *slog.Logger
	baseURL string
	http    *http.Client
	tokens  TokenSource
	breaker *gobreaker.CircuitBreaker[result]
}

func New(log *slog.Logger, baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens: tokens,
		breaker: gobreaker.NewCircuitBreaker[result](gobreaker.Settings{
			Name:    "backend",
			Timeout: 15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, "", nil, out)
}

func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	return c.do(ctx, http.MethodPost, path, "application/json", body, out)
}

// Post sends an arbitrary body, used by the multipart barcode upload.
func (c *Client) Post(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	return c.do(ctx, http.MethodPost, path, contentType, body, out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	token, err := c.tokens.Token()
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.breaker.Execute(func() (result, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return result{}, err
		}
		defer resp.Body.Close()

		buf, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return result{}, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return result{}, &APIError{
				StatusCode: resp.StatusCode,
				Message:    errorMessage(buf),
			}
		}
		return result{status: resp.StatusCode, body: buf}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if res.status >= http.StatusBadRequest {
		return &APIError{
			StatusCode: res.status,
			Code:       errorCode(res.body),
			Message:    errorMessage(res.body),
		}
	}

	if out != nil && len(res.body) > 0 {
		if err := json.Unmarshal(res.body, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}

// The backend's error payload carries {status, error, message, detail, path}.
// Anything unparseable degrades to a generic message.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return ""
}

func errorCode(body []byte) string {
	var payload struct {
		Code string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		return payload.Code
	}
	return ""
}
