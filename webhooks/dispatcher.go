// Package webhooks delivers task event payloads to a single externally
// configured endpoint with bounded retries.
package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-studio/core"
)

// ErrNotConfigured is returned without any network attempt when no target
// URL is set.
var ErrNotConfigured = errors.New("not configured")

type RetryPolicy interface {
	NextDelay(attempt int) time.Duration
}

type ExponentialRetryPolicy struct {
	Initial time.Duration
	Max     time.Duration
}

func (p ExponentialRetryPolicy) NextDelay(attempt int) time.Duration {
	initial := p.Initial
	if initial <= 0 {
		initial = time.Second
	}
	maximum := p.Max
	if maximum <= 0 {
		maximum = 30 * time.Second
	}
	delay := initial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maximum {
			return maximum
		}
	}
	if delay > maximum {
		return maximum
	}
	return delay
}

// Doer is the minimal HTTP client surface; tests plug in a stub.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Dispatcher POSTs a JSON payload to TargetURL, retrying transient
// failures up to MaxAttempts with exponential backoff between attempts.
// A non-429 4xx response stops the cycle immediately: the request itself
// is wrong and retries cannot help.
type Dispatcher struct {
	TargetURL   string
	MaxAttempts int
	Timeout     time.Duration
	RetryPolicy RetryPolicy
	Client      Doer
	Logger      core.Logger
	// Sleep waits between attempts; tests replace it to observe delays.
	Sleep func(ctx context.Context, delay time.Duration) error
}

func NewDispatcher(cfg core.WebhookConfig, logger core.Logger) *Dispatcher {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	initial := cfg.InitialBackoff()
	if initial <= 0 {
		initial = time.Second
	}
	return &Dispatcher{
		TargetURL:   strings.TrimSpace(cfg.TargetURL),
		MaxAttempts: maxAttempts,
		Timeout:     timeout,
		RetryPolicy: ExponentialRetryPolicy{Initial: initial},
		Client:      &http.Client{},
		Logger:      logger,
		Sleep:       sleepContext,
	}
}

// Send delivers payload and reports the terminal outcome. It blocks for the
// full retry cycle; emitters run it from an unawaited goroutine so request
// handling never waits on delivery.
func (d *Dispatcher) Send(ctx context.Context, payload any) core.DispatchResult {
	if d == nil || strings.TrimSpace(d.TargetURL) == "" {
		return core.DispatchResult{Success: false, Attempts: 0, Err: ErrNotConfigured}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return core.DispatchResult{Success: false, Attempts: 0, Err: fmt.Errorf("webhooks: encode payload: %w", err)}
	}

	maxAttempts := d.maxAttempts()
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		status, attemptErr := d.post(ctx, body)
		switch {
		case attemptErr == nil && status >= 200 && status < 300:
			return core.DispatchResult{Success: true, Attempts: attempt}
		case attemptErr == nil && status >= 400 && status < 500 && status != http.StatusTooManyRequests:
			// Client error: the payload or endpoint is wrong, retrying
			// cannot change the outcome.
			return core.DispatchResult{
				Success:  false,
				Attempts: attempt,
				Err:      fmt.Errorf("webhooks: endpoint rejected delivery with status %d", status),
			}
		case attemptErr != nil:
			lastErr = attemptErr
		default:
			lastErr = fmt.Errorf("webhooks: endpoint returned retryable status %d", status)
		}

		if attempt < maxAttempts {
			if err := d.sleep(ctx, d.retryPolicy().NextDelay(attempt)); err != nil {
				return core.DispatchResult{Success: false, Attempts: attempt, Err: err}
			}
		}
	}

	return core.DispatchResult{Success: false, Attempts: maxAttempts, Err: lastErr}
}

func (d *Dispatcher) post(ctx context.Context, body []byte) (int, error) {
	attemptCtx := ctx
	if attemptCtx == nil {
		attemptCtx = context.Background()
	}
	attemptCtx, cancel := context.WithTimeout(attemptCtx, d.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, d.TargetURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("webhooks: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := d.Client
	if client == nil {
		client = &http.Client{}
	}
	res, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("webhooks: delivery attempt failed: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
	return res.StatusCode, nil
}

func (d *Dispatcher) maxAttempts() int {
	if d != nil && d.MaxAttempts > 0 {
		return d.MaxAttempts
	}
	return 3
}

func (d *Dispatcher) timeout() time.Duration {
	if d != nil && d.Timeout > 0 {
		return d.Timeout
	}
	return 10 * time.Second
}

func (d *Dispatcher) retryPolicy() RetryPolicy {
	if d != nil && d.RetryPolicy != nil {
		return d.RetryPolicy
	}
	return ExponentialRetryPolicy{}
}

func (d *Dispatcher) sleep(ctx context.Context, delay time.Duration) error {
	if d != nil && d.Sleep != nil {
		return d.Sleep(ctx, delay)
	}
	return sleepContext(ctx, delay)
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ core.EventDispatcher = (*Dispatcher)(nil)
