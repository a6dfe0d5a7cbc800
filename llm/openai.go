package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/daedaleanai/uvmgen/log"
)

// Models matching any of these accept max_completion_tokens instead of
// max_tokens and reject custom temperatures.
var completionTokenModels = []string{"gpt-5", "gpt-4.5", "gpt-4.1", "o1", "o3", "gpt-4o"}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model               string          `json:"model"`
	Messages            []openAIMessage `json:"messages"`
	MaxTokens           int             `json:"max_tokens,omitempty"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
	Temperature         *float64        `json:"temperature,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// OpenAIClient generates text with the OpenAI chat completions API.
type OpenAIClient struct {
	*transport
}

func newOpenAIClient(config Config) *OpenAIClient {
	return &OpenAIClient{newTransport(config)}
}

func usesCompletionTokens(model string) bool {
	model = strings.ToLower(model)
	for _, m := range completionTokenModels {
		if strings.Contains(model, m) {
			return true
		}
	}
	return false
}

func (c *OpenAIClient) request(prompt string) openAIRequest {
	request := openAIRequest{
		Model: c.config.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}
	if usesCompletionTokens(c.config.Model) {
		request.MaxCompletionTokens = c.config.MaxTokens
	} else {
		request.MaxTokens = c.config.MaxTokens
		temperature := c.config.Temperature
		request.Temperature = &temperature
	}
	return request
}

// Generate sends `prompt` after the fixed system message.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	entry := log.WithFields(map[string]interface{}{"provider": ProviderOpenAI, "model": c.config.Model})
	entry.Debug("sending prompt of %d bytes\n", len(prompt))

	headers := map[string]string{"Authorization": "Bearer " + c.config.APIKey}

	var response openAIResponse
	if err := c.post(ctx, ProviderOpenAI, c.config.BaseURL+"/chat/completions", headers, c.request(prompt), &response); err != nil {
		return "", err
	}
	if response.Error != nil {
		if response.Error.Code == "rate_limit_exceeded" {
			return "", &RateLimitError{Provider: ProviderOpenAI, Message: response.Error.Message}
		}
		return "", classify(ProviderOpenAI, http.StatusBadRequest, response.Error.Message)
	}
	if len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		return "", &APIError{Provider: ProviderOpenAI, Message: "no completion returned", Transient: true}
	}
	if response.Choices[0].FinishReason == "length" {
		entry.Warning("response was truncated at %d tokens\n", c.config.MaxTokens)
	}

	entry.Debug("completed in %v\n", time.Since(start).Round(time.Millisecond))
	return response.Choices[0].Message.Content, nil
}
