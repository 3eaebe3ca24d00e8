package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// ErrNotConfigured is returned when no OpenRouter API key is set.
var ErrNotConfigured = errors.New("openrouter integration is not configured")

// UpstreamError carries the completion API status. Status is 0 when the
// request never got an HTTP response.
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("completion request failed: %v", e.Err)
	}
	return fmt.Sprintf("completion request failed with status %d: %v", e.Status, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

type CompletionRequest struct {
	Prompt     string
	SchemaName string
	Schema     *jsonschema.Definition
}

// Completer produces the raw text of a single-message chat completion.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Model() string
}

type OpenRouterConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Structured  bool
	Timeout     time.Duration
	Temperature float32
	Referer     string
	Title       string
}

type OpenRouter struct {
	client      *openai.Client
	model       string
	structured  bool
	timeout     time.Duration
	temperature float32
}

func NewOpenRouter(cfg OpenRouterConfig) *OpenRouter {
	o := &OpenRouter{
		model:       cfg.Model,
		structured:  cfg.Structured,
		timeout:     cfg.Timeout,
		temperature: cfg.Temperature,
	}
	if o.temperature == 0 {
		o.temperature = 0.4
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return o
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	headers := map[string]string{}
	if cfg.Referer != "" {
		headers["HTTP-Referer"] = cfg.Referer
	}
	if cfg.Title != "" {
		headers["X-Title"] = cfg.Title
	}
	oc.HTTPClient = &http.Client{Transport: headerTransport{base: http.DefaultTransport, headers: headers}}
	o.client = openai.NewClientWithConfig(oc)
	return o
}

func (o *OpenRouter) Model() string { return o.model }

func (o *OpenRouter) Complete(ctx context.Context, r CompletionRequest) (string, error) {
	if o.client == nil {
		return "", ErrNotConfigured
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: r.Prompt},
		},
		Temperature: o.temperature,
	}
	if o.structured && r.Schema != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   r.SchemaName,
				Schema: r.Schema,
				Strict: true,
			},
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", &UpstreamError{Status: http.StatusBadGateway, Err: errors.New("completion returned no choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{Status: reqErr.HTTPStatusCode, Err: err}
	}
	return &UpstreamError{Err: err}
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) > 0 {
		req = req.Clone(req.Context())
		for k, v := range t.headers {
			req.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(req)
}
