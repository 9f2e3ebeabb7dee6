package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"aicruiter/internal/llm"
	"aicruiter/internal/models"
)

const providerName = "openrouter"

// Client talks to OpenRouter through its OpenAI-compatible chat completions API.
type Client struct {
	client *openai.Client
	config *Config
}

// headerTransport adds the attribution headers OpenRouter reads on every request.
type headerTransport struct {
	base    http.RoundTripper
	referer string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	req.Header.Set("X-Title", appTitle)
	return t.base.RoundTrip(req)
}

func NewClient(config *Config) *Client {
	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	clientConfig.HTTPClient = &http.Client{
		Timeout:   config.Timeout,
		Transport: &headerTransport{base: http.DefaultTransport, referer: config.SiteURL},
	}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

func (c *Client) GenerateContent(ctx context.Context, prompt string) (*models.GenerationResponse, error) {
	startTime := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		return nil, c.classify(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, c.fail(llm.ErrCodeInvalidInput, "Empty response generated", nil)
	}

	model := resp.Model
	if model == "" {
		model = c.config.Model
	}
	return &models.GenerationResponse{
		Content: resp.Choices[0].Message.Content,
		Metadata: models.GenerationMetadata{
			ProcessingTime: int(time.Since(startTime).Milliseconds()),
			Provider:       providerName,
			Model:          model,
		},
	}, nil
}

func (c *Client) GetProviderName() string {
	return providerName
}

func (c *Client) classify(err error) *llm.ProviderError {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	status := 0
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return c.fail(llm.ErrCodeAPIKey, "API key rejected", err)
	case status == http.StatusTooManyRequests:
		return c.fail(llm.ErrCodeRateLimit, "Rate limit exceeded", err)
	case status >= 400:
		return c.fail(llm.ErrCodeServiceDown, "Unexpected status", err)
	case errors.Is(err, context.DeadlineExceeded):
		return c.fail(llm.ErrCodeTimeout, "Request timed out", err)
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return c.fail(llm.ErrCodeInvalidInput, "Failed to decode response", err)
	default:
		return c.fail(llm.ErrCodeServiceDown, "Request failed", err)
	}
}

func (c *Client) fail(code, message string, err error) *llm.ProviderError {
	return &llm.ProviderError{Provider: providerName, Code: code, Message: message, Err: err}
}
