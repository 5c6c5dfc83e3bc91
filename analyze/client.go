package analyze

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// MaxOutputTokens is the fixed per-call output-token ceiling.
	MaxOutputTokens = 4096

	// DefaultMaxRetries bounds attempts per logical call.
	DefaultMaxRetries = 3

	// DefaultBaseDelay seeds the exponential backoff.
	DefaultBaseDelay = 1 * time.Second

	// DefaultMaxTotalWait caps cumulative sleep time across all retries of
	// one call. The guard runs before sleeping, so a sleep that would
	// overflow the budget is skipped entirely.
	DefaultMaxTotalWait = 30 * time.Second
)

// RetryExhaustedError is the aggregated failure raised when every attempt of
// a call failed or the wait budget ran out. It names the last underlying
// error and the total time spent sleeping.
type RetryExhaustedError struct {
	Attempts int
	Waited   time.Duration
	LastErr  error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("API call failed after %d attempts (waited %s): %v", e.Attempts, e.Waited, e.LastErr)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.LastErr
}

// ModelReply is the raw outcome of one successful model call.
type ModelReply struct {
	Text  string
	Usage TokenUsage
}

// messageService abstracts the Anthropic Messages endpoint so tests can
// script failures without a network.
type messageService interface {
	create(ctx context.Context, model, prompt string) (*ModelReply, error)
}

// errorKind classifies a failed attempt for the retry policy.
type errorKind int

const (
	kindFatal     errorKind = iota // propagate unchanged, no retry
	kindRateLimit                  // 429: honor retry-after when present
	kindTransient                  // timeout, connection failure, 5xx
)

// classifyError maps an attempt error to its retry class and extracts the
// server-supplied retry-after value for rate limits, if any.
func classifyError(err error) (errorKind, string) {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			retryAfter := ""
			if apiErr.Response != nil {
				retryAfter = apiErr.Response.Header.Get("Retry-After")
			}
			return kindRateLimit, retryAfter
		case apiErr.StatusCode >= 500:
			return kindTransient, ""
		default:
			return kindFatal, ""
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return kindTransient, ""
	}
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "timeout") {
		return kindTransient, ""
	}
	return kindFatal, ""
}

// retryPolicy computes backoff delays. It is pure given its random source, so
// tests can pin the jitter.
type retryPolicy struct {
	baseDelay time.Duration
	randFloat func() float64 // uniform in [0, 1)
}

// delayFor returns the sleep before the next attempt. Rate limits use the
// server's retry-after seconds when parseable, else exponential backoff, and
// always gain 10-30% jitter on top. Transient failures use exponential
// backoff plus uniform(0, baseDelay) jitter.
func (p retryPolicy) delayFor(kind errorKind, retryAfter string, attempt int) time.Duration {
	backoff := p.baseDelay * time.Duration(1<<attempt)

	switch kind {
	case kindRateLimit:
		delay := backoff
		if secs, err := strconv.ParseFloat(retryAfter, 64); err == nil {
			delay = time.Duration(secs * float64(time.Second))
		}
		jitter := time.Duration(float64(delay) * (0.10 + 0.20*p.randFloat()))
		return delay + jitter
	default:
		return backoff + time.Duration(p.randFloat()*float64(p.baseDelay))
	}
}

// Client wraps the Anthropic Messages API with bounded retries, exponential
// backoff with jitter, and a wall-clock wait budget.
//
// A Client holds mutable last-usage state that callers read right after a
// call returns, so a single instance must not be shared across concurrent
// analyses.
type Client struct {
	model        string
	messages     messageService
	maxRetries   int
	maxTotalWait time.Duration
	policy       retryPolicy
	sleep        func(time.Duration)
	logger       *slog.Logger
	lastUsage    *TokenUsage
}

// ClientOptions tunes a Client. Zero values select the documented defaults.
type ClientOptions struct {
	MaxRetries   int
	BaseDelay    time.Duration
	MaxTotalWait time.Duration
}

// NewClient creates a Client talking to the real Anthropic API. The SDK's own
// retry layer is disabled; this client owns the retry policy.
func NewClient(apiKey, model string, opts ClientOptions, logger *slog.Logger) *Client {
	sdk := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)
	return newClient(&anthropicMessages{client: sdk}, model, opts, logger)
}

func newClient(messages messageService, model string, opts ClientOptions, logger *slog.Logger) *Client {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.MaxTotalWait <= 0 {
		opts.MaxTotalWait = DefaultMaxTotalWait
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		model:        model,
		messages:     messages,
		maxRetries:   opts.MaxRetries,
		maxTotalWait: opts.MaxTotalWait,
		policy:       retryPolicy{baseDelay: opts.BaseDelay, randFloat: rand.Float64},
		sleep:        time.Sleep,
		logger:       logger,
	}
}

// Call invokes the model with the prompt, retrying retryable failures until
// success, maxRetries attempts, or the wait budget is spent. Fatal errors
// (4xx other than 429) propagate unchanged without consuming a retry.
func (c *Client) Call(ctx context.Context, prompt string) (*ModelReply, error) {
	var lastErr error
	var waited time.Duration
	attempts := 0

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		attempts++
		reply, err := c.messages.create(ctx, c.model, prompt)
		if err == nil {
			c.lastUsage = &reply.Usage
			return reply, nil
		}
		lastErr = err

		kind, retryAfter := classifyError(err)
		if kind == kindFatal {
			return nil, err
		}
		if attempt == c.maxRetries-1 {
			break
		}

		delay := c.policy.delayFor(kind, retryAfter, attempt)
		if waited+delay > c.maxTotalWait {
			c.logger.Warn("retry wait budget exhausted",
				"attempt", attempt+1,
				"waited", waited,
				"next_delay", delay,
				"max_total_wait", c.maxTotalWait,
			)
			break
		}

		c.logger.Warn("retrying after transient API error",
			"attempt", attempt+1,
			"max_attempts", c.maxRetries,
			"delay", delay,
			"rate_limited", kind == kindRateLimit,
			"error", err,
		)
		c.sleep(delay)
		waited += delay
	}

	return nil, &RetryExhaustedError{Attempts: attempts, Waited: waited, LastErr: lastErr}
}

// LastUsage returns the token usage of the most recent successful call, or
// nil before any call succeeds.
func (c *Client) LastUsage() *TokenUsage {
	return c.lastUsage
}

// anthropicMessages is the real transport behind the Client.
type anthropicMessages struct {
	client *anthropic.Client
}

func (s *anthropicMessages) create(ctx context.Context, model, prompt string) (*ModelReply, error) {
	message, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(model)),
		MaxTokens: anthropic.F(int64(MaxOutputTokens)),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		}),
	})
	if err != nil {
		return nil, err
	}

	usage := TokenUsage{
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
	}

	for _, block := range message.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			return &ModelReply{Text: block.Text, Usage: usage}, nil
		}
	}
	return nil, fmt.Errorf("no text content in model response")
}
