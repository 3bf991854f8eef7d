package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAICaller implements Caller against the OpenAI chat-completions
// API. The client is constructed per call from the request credential,
// so no key ever outlives the call that carried it.
type OpenAICaller struct {
	// BaseURL overrides the API endpoint, for proxies and
	// OpenAI-compatible providers. Empty means the default.
	BaseURL string
}

func (c *OpenAICaller) Call(ctx context.Context, req Request) (string, error) {
	cfg := openai.DefaultConfig(req.Credential)
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}
	client := openai.NewClientWithConfig(cfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
	})
	if err != nil {
		return "", &ProviderError{Provider: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: "openai", Err: errors.New("empty completion")}
	}
	return resp.Choices[0].Message.Content, nil
}
