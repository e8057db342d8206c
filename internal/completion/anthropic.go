package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

const defaultAnthropicURL = "https://api.anthropic.com"

// AnthropicConfig configures the Anthropic Messages API provider.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

// Anthropic calls the Anthropic Messages API over plain HTTP.
type Anthropic struct {
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
}

func NewAnthropic(cfg AnthropicConfig) *Anthropic {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAnthropicURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	return &Anthropic{
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		baseURL:   cfg.BaseURL,
		maxTokens: cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

// Model returns the default model id.
func (c *Anthropic) Model() string {
	return c.model
}

// Complete sends the rendered prompt as a single user message.
func (c *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	if len(req.Tools) > 0 {
		return "", ErrToolsUnsupported
	}
	prompt, err := req.Render()
	if err != nil {
		return "", err
	}
	model := req.ModelID
	if model == "" {
		model = c.model
	}

	body, err := json.Marshal(anthropicRequest{
		Model:     model,
		MaxTokens: c.maxTokens,
		System:    req.System,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(respBody, "error.message").String()
		if msg == "" {
			msg = string(respBody)
		}
		return "", &APIError{Provider: "anthropic", StatusCode: resp.StatusCode, Message: msg}
	}
	if !gjson.ValidBytes(respBody) {
		return "", fmt.Errorf("decode response: invalid json")
	}
	if e := gjson.GetBytes(respBody, "error"); e.Exists() && e.Type != gjson.Null {
		return "", fmt.Errorf("anthropic error: %s: %s", e.Get("type").String(), e.Get("message").String())
	}

	text := gjson.GetBytes(respBody, "content.0.text")
	if !text.Exists() {
		return "", fmt.Errorf("empty response from anthropic")
	}
	return text.String(), nil
}

// Close releases idle connections.
func (c *Anthropic) Close() {
	c.httpClient.CloseIdleConnections()
}
