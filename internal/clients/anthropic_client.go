package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/dcagent/pkg/retrier"
)

const (
	anthropicVersion  = "2023-06-01"
	defaultTimeout    = 60 * time.Second
	defaultMaxTokens  = 1000
	defaultRetryDelay = 2 * time.Second
)

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
	retrier    *retrier.Retrier
}

// NewAnthropicClient creates a client for the Anthropic Messages API.
func NewAnthropicClient(apiURL, apiKey, model string) *AnthropicClient {
	return &AnthropicClient{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		retrier: retrier.New(retrier.WithInitialInterval(defaultRetryDelay)),
	}
}

// messagesRequest is the Messages API request body.
type messagesRequest struct {
	Model       string           `json:"model"`
	MaxTokens   int              `json:"max_tokens"`
	Temperature float64          `json:"temperature"`
	System      string           `json:"system,omitempty"`
	Messages    []apiChatMessage `json:"messages"`
}

type apiChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Messages API response body.
type messagesResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Content []contentBlock `json:"content"`
	Error   *apiError      `json:"error,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Complete sends a system+user prompt pair and returns the model's text reply.
func (c *AnthropicClient) Complete(ctx context.Context, system, prompt string, temperature float64) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("Anthropic API key is empty")
	}

	reqBody := messagesRequest{
		Model:       c.model,
		MaxTokens:   defaultMaxTokens,
		Temperature: temperature,
		System:      system,
		Messages: []apiChatMessage{
			{Role: "user", Content: prompt},
		},
	}

	return retrier.DoWithData(ctx, c.retrier, func(ctx context.Context) (string, error) {
		return c.sendRequest(ctx, reqBody)
	})
}

func (c *AnthropicClient) sendRequest(ctx context.Context, reqBody messagesRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", errors.Wrap(err, "failed to create HTTP request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "HTTP request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Anthropic API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp messagesResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal response")
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("Anthropic API error: %s (type: %s)", apiResp.Error.Message, apiResp.Error.Type)
	}

	for _, block := range apiResp.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return block.Text, nil
		}
	}

	return "", errors.New("Anthropic API returned no text content")
}
