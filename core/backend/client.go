// Package backend talks to the Sunday conversational backend: the chat and
// speech synthesis endpoints, plus conversation history.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	ChatPath    = "/chat"
	TTSPath     = "/tts"
	HistoryPath = "/history"
	ClearPath   = "/clear"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithRequestTimeout bounds each request, including reading its body.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewClient creates a client for the backend served at baseURL, e.g.
// "http://localhost:5000".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("backend base url is required")
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(_ string, request *http.Request) string {
				return request.Method + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		httpClient := *c.httpClient
		httpClient.Timeout = c.timeout
		c.httpClient = &httpClient
	}

	return c, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

// StatusError reports a non-success response from an endpoint. Detail is
// the human-readable reason shown to the user.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d: %s", e.Endpoint, e.StatusCode, e.Detail)
}

type chatRequestBody struct {
	Message string `json:"message"`
}

type chatResponseBody struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Chat sends a user message and returns the assistant reply. A non-success
// status yields a *StatusError whose Detail is the parsed error field, else
// the raw body, else "HTTP <status>".
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	resp, err := c.postJSON(ctx, ChatPath, chatRequestBody{Message: message})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s response: %w", ChatPath, err)
	}
	text := string(rawBody)

	var data chatResponseBody
	if text != "" {
		if err := json.Unmarshal(rawBody, &data); err != nil {
			logger.WarnContext(ctx, "non-JSON chat response", "body", truncate(text, 200))
			data = chatResponseBody{}
		}
	}

	if !isSuccess(resp.StatusCode) {
		detail := data.Error
		if detail == "" {
			detail = text
		}
		if detail == "" {
			detail = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return "", &StatusError{Endpoint: ChatPath, StatusCode: resp.StatusCode, Detail: detail}
	}

	return data.Response, nil
}

type ttsRequestBody struct {
	Text string `json:"text"`
}

// Synthesize converts text to speech and returns the encoded audio bytes.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.postJSON(ctx, TTSPath, ttsRequestBody{Text: text})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Endpoint: TTSPath, StatusCode: resp.StatusCode, Detail: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", TTSPath, err)
	}

	return audio, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	requestBodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request to %s: %w", path, err)
	}

	return resp, nil
}

func isSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
