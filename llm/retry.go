package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/daedaleanai/uvmgen/log"
)

const (
	DefaultRetries   = 5
	DefaultBaseDelay = time.Second
	DefaultMaxDelay  = 60 * time.Second
)

// RetryClient retries transient failures of the wrapped client with
// exponential backoff. Token limit errors are returned immediately.
type RetryClient struct {
	Client    Client
	Retries   int
	BaseDelay time.Duration
	MaxDelay  time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps `client` with the default backoff settings.
func WithRetry(client Client) *RetryClient {
	return &RetryClient{
		Client:    client,
		Retries:   DefaultRetries,
		BaseDelay: DefaultBaseDelay,
		MaxDelay:  DefaultMaxDelay,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Delay is the wait before retry number `attempt`, counting from zero.
func (c *RetryClient) Delay(attempt int) time.Duration {
	delay := c.BaseDelay
	for i := 0; i < attempt && delay < c.MaxDelay; i++ {
		delay *= 2
	}
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

func (c *RetryClient) Generate(ctx context.Context, prompt string) (string, error) {
	sleep := c.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var err error
	attempts := c.Retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		var response string
		response, err = c.Client.Generate(ctx, prompt)
		if err == nil {
			return response, nil
		}
		if !Retryable(err) {
			return "", err
		}
		if attempt == attempts-1 {
			break
		}

		delay := c.Delay(attempt)
		log.Warning("%v. Retrying in %v (attempt %d/%d)\n", err, delay, attempt+1, c.Retries)
		if serr := sleep(ctx, delay); serr != nil {
			return "", serr
		}
	}
	return "", fmt.Errorf("failed after %d attempts: %w", attempts, err)
}
