package manus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"manus-dashboard/internal/application/port/output"

	"github.com/sashabaranov/go-openai"
)

var _ output.ManusPort = (*Adapter)(nil)

const apiKeyHeader = "API_KEY"

type Adapter struct {
	baseURL string
	api     *http.Client
	upload  *http.Client
	files   *openai.Client
	logger  output.LoggerPort
}

type Config struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	Logger         output.LoggerPort
}

func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:         apiKey,
		BaseURL:        "https://api.manus.im",
		RequestTimeout: 60 * time.Second,
	}
}

// apiKeyTransport adds the key header the service expects on API calls. Signed
// upload URLs must not receive it.
type apiKeyTransport struct {
	base   http.RoundTripper
	apiKey string
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(apiKeyHeader, t.apiKey)
	return t.base.RoundTrip(req)
}

type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	if t.logger != nil {
		fields := []any{"method", req.Method, "url", redactURL(req.URL)}
		if req.Body != nil && strings.HasPrefix(req.Header.Get("Content-Type"), "application/json") {
			bodyBytes, _ := io.ReadAll(req.Body)
			req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			var requestData map[string]any
			if json.Unmarshal(bodyBytes, &requestData) == nil {
				fields = append(fields, "body", requestData)
			}
		} else if req.ContentLength > 0 {
			fields = append(fields, "bytes", req.ContentLength)
		}
		t.logger.Debug("HTTP Request", fields...)
	}

	resp, err := t.base.RoundTrip(req)

	if t.logger != nil {
		switch {
		case err != nil:
			t.logger.Warn("HTTP Request failed", "method", req.Method, "url", redactURL(req.URL), "error", err)
		case resp != nil:
			t.logger.Debug("HTTP Response",
				"status", resp.Status,
				"statusCode", resp.StatusCode,
				"durationMs", time.Since(start).Milliseconds(),
			)
		}
	}

	return resp, err
}

// redactURL drops the query string; signed upload URLs carry credentials there.
func redactURL(u *url.URL) string {
	c := *u
	c.RawQuery = ""
	return c.String()
}

func NewAdapter(cfg Config) *Adapter {
	base := http.DefaultTransport
	if cfg.Logger != nil {
		base = &loggingTransport{base: base, logger: cfg.Logger}
	}

	api := &http.Client{
		Transport: &apiKeyTransport{base: base, apiKey: cfg.APIKey},
		Timeout:   cfg.RequestTimeout,
	}

	filesCfg := openai.DefaultConfig(cfg.APIKey)
	filesCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	filesCfg.HTTPClient = api

	logger := cfg.Logger
	if logger == nil {
		logger = output.NopLogger{}
	}

	return &Adapter{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		api:     api,
		upload:  &http.Client{Transport: base, Timeout: cfg.RequestTimeout},
		files:   openai.NewClientWithConfig(filesCfg),
		logger:  logger,
	}
}

// statusError is a non-2xx answer from the API, before it is mapped to a domain error.
type statusError struct {
	StatusCode int
	Message    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

func (a *Adapter) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := a.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.api.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var envelope struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		switch {
		case envelope.Error != nil && envelope.Error.Message != "":
			return envelope.Error.Message
		case envelope.Message != "":
			return envelope.Message
		case envelope.Detail != "":
			return envelope.Detail
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	if msg == "" {
		msg = "empty response body"
	}
	return msg
}
