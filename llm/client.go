// Package llm talks to the remote text-generation services that write the
// testbench sources.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultOpenAIModel    = "gpt-4-turbo"

	DefaultAnthropicURL = "https://api.anthropic.com/v1"
	DefaultOpenAIURL    = "https://api.openai.com/v1"

	DefaultMaxTokens = 8192
	DefaultTimeout   = 10 * time.Minute
)

const systemPrompt = "You are a UVM verification expert. Generate clean, compilable SystemVerilog code. Output ONLY the code, no explanations."

// Client generates text for a prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config selects and parameterizes a service client.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	// MinInterval is the minimum spacing between two requests.
	MinInterval time.Duration
}

// New returns the client for `config.Provider`, filling unset fields with
// the provider defaults.
func New(config Config) (Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key not configured for provider %q", config.Provider)
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultMaxTokens
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	switch strings.ToLower(config.Provider) {
	case ProviderAnthropic:
		if config.Model == "" {
			config.Model = DefaultAnthropicModel
		}
		if config.BaseURL == "" {
			config.BaseURL = DefaultAnthropicURL
		}
		return newAnthropicClient(config), nil
	case ProviderOpenAI:
		if config.Model == "" {
			config.Model = DefaultOpenAIModel
		}
		if config.BaseURL == "" {
			config.BaseURL = DefaultOpenAIURL
		}
		return newOpenAIClient(config), nil
	default:
		return nil, fmt.Errorf("unknown provider %q, use %q or %q", config.Provider, ProviderAnthropic, ProviderOpenAI)
	}
}

// transport holds what both HTTP clients share: the HTTP client itself and
// request spacing.
type transport struct {
	config      Config
	httpClient  *http.Client
	mu          sync.Mutex
	lastRequest time.Time
}

func newTransport(config Config) *transport {
	return &transport{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// wait blocks until MinInterval has passed since the previous request.
func (t *transport) wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if elapsed := time.Since(t.lastRequest); elapsed < t.config.MinInterval {
		select {
		case <-time.After(t.config.MinInterval - elapsed):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	t.lastRequest = time.Now()
	return nil
}

// post sends `in` as JSON to `url` and decodes a 200 response into `out`.
// Other statuses are classified into the package's error types.
func (t *transport) post(ctx context.Context, provider, url string, headers map[string]string, in, out interface{}) error {
	if err := t.wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &APIError{Provider: provider, Message: err.Error(), Transient: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Provider: provider, StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read response: %v", err), Transient: true}
	}
	if resp.StatusCode != http.StatusOK {
		return classify(provider, resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Provider: provider, StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to parse response: %v", err)}
	}
	return nil
}
