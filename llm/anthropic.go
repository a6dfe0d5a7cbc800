package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/daedaleanai/uvmgen/log"
)

const anthropicVersion = "2023-06-01"

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// AnthropicClient generates text with the Anthropic messages API.
type AnthropicClient struct {
	*transport
}

func newAnthropicClient(config Config) *AnthropicClient {
	return &AnthropicClient{newTransport(config)}
}

// Generate sends `prompt` as a single user message.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	entry := log.WithFields(map[string]interface{}{"provider": ProviderAnthropic, "model": c.config.Model})
	entry.Debug("sending prompt of %d bytes\n", len(prompt))

	request := anthropicRequest{
		Model:       c.config.Model,
		MaxTokens:   c.config.MaxTokens,
		System:      systemPrompt,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		Temperature: c.config.Temperature,
	}
	headers := map[string]string{
		"x-api-key":         c.config.APIKey,
		"anthropic-version": anthropicVersion,
	}

	var response anthropicResponse
	if err := c.post(ctx, ProviderAnthropic, c.config.BaseURL+"/messages", headers, request, &response); err != nil {
		return "", err
	}
	if response.Error != nil {
		switch response.Error.Type {
		case "rate_limit_error":
			return "", &RateLimitError{Provider: ProviderAnthropic, Message: response.Error.Message}
		case "overloaded_error", "api_error":
			return "", &APIError{Provider: ProviderAnthropic, Message: response.Error.Message, Transient: true}
		default:
			return "", classify(ProviderAnthropic, http.StatusBadRequest, response.Error.Message)
		}
	}
	if response.StopReason == "max_tokens" {
		entry.Warning("response was truncated at %d tokens\n", c.config.MaxTokens)
	}

	var text strings.Builder
	for _, content := range response.Content {
		if content.Type == "text" {
			text.WriteString(content.Text)
		}
	}
	if text.Len() == 0 {
		return "", &APIError{Provider: ProviderAnthropic, Message: "no completion returned", Transient: true}
	}

	entry.Debug("completed in %v\n", time.Since(start).Round(time.Millisecond))
	return text.String(), nil
}
