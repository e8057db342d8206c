package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the OpenAI (or Azure OpenAI) provider.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // Optional; endpoint URL when Azure is set.
	Model   string // Default model when a request has no ModelID.

	Azure bool
	// AzureDeployments maps model ids to Azure deployment names.
	// Unmapped ids are used as the deployment name.
	AzureDeployments map[string]string

	MaxToolRounds int
}

// OpenAI calls the chat completions API via go-openai and runs tool calls.
type OpenAI struct {
	client        *openai.Client
	model         string
	maxToolRounds int
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	var clientCfg openai.ClientConfig
	if cfg.Azure {
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		deployments := cfg.AzureDeployments
		clientCfg.AzureModelMapperFunc = func(model string) string {
			if d, ok := deployments[model]; ok {
				return d
			}
			return model
		}
	} else {
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = 5
	}
	return &OpenAI{
		client:        openai.NewClientWithConfig(clientCfg),
		model:         cfg.Model,
		maxToolRounds: cfg.MaxToolRounds,
	}
}

// Model returns the default model id.
func (c *OpenAI) Model() string {
	return c.model
}

// Complete sends the rendered prompt and returns the final assistant message.
// Tool calls requested by the model are executed and fed back until the model
// answers without one, up to MaxToolRounds rounds.
func (c *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	prompt, err := req.Render()
	if err != nil {
		return "", err
	}
	model := req.ModelID
	if model == "" {
		model = c.model
	}

	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	tools := make([]openai.Tool, 0, len(req.Tools))
	for _, t := range req.Tools {
		params := t.Parameters
		if len(params) == 0 {
			params = json.RawMessage(`{"type":"object","properties":{}}`)
		}
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}

	for round := 0; ; round++ {
		chatReq := openai.ChatCompletionRequest{
			Model:    model,
			Messages: messages,
		}
		if len(tools) > 0 {
			chatReq.Tools = tools
		}

		resp, err := c.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return "", convertOpenAIError(err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("empty response from openai")
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}
		if round >= c.maxToolRounds {
			return "", fmt.Errorf("openai: tool call limit of %d rounds exceeded", c.maxToolRounds)
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			out, err := runToolCall(ctx, req.Tools, call.Function.Name, call.Function.Arguments)
			if err != nil {
				return "", err
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    out,
				ToolCallID: call.ID,
			})
		}
	}
}

func runToolCall(ctx context.Context, tools []Tool, name, arguments string) (string, error) {
	t, ok := findTool(tools, name)
	if !ok || t.Call == nil {
		return "", fmt.Errorf("model called unknown tool %q", name)
	}
	out, err := t.Call(ctx, arguments)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", name, err)
	}
	return out, nil
}

func convertOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Provider: "openai", StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := reqErr.Error()
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &APIError{Provider: "openai", StatusCode: reqErr.HTTPStatusCode, Message: msg}
	}
	return fmt.Errorf("openai: %w", err)
}
