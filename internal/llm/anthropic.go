package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/aetherxhub/ferridyn-memory/internal/telemetry"
)

const (
	defaultModel      = "claude-3-5-haiku-20241022"
	defaultMaxRetries = 3
	defaultInitial    = 500 * time.Millisecond
	defaultMaxBackoff = 8 * time.Second
)

// AnthropicClient implements Client over the Anthropic Messages API.
// Retrying is delegated to cenkalti/backoff's exponential policy rather
// than a hand-rolled doubling loop; instrumentation mirrors the
// input/output token counters and call-duration histogram pattern used
// elsewhere in this codebase for outbound AI calls.
type AnthropicClient struct {
	client     anthropic.Client
	model      anthropic.Model
	maxRetries uint64
	operation  string
}

// NewAnthropicClient builds a client for apiKey. ANTHROPIC_API_KEY in the
// environment always wins over an explicit key, matching how every other
// credential in this system is resolved — environment first, config
// second. Returns *LlmError{Kind: MissingAPIKey} if neither is set.
func NewAnthropicClient(apiKey, model string) (*AnthropicClient, error) {
	if envKey := os.Getenv("ANTHROPIC_API_KEY"); envKey != "" {
		apiKey = envKey
	}
	if apiKey == "" {
		return nil, MissingAPIKey("set ANTHROPIC_API_KEY or pass a key explicitly")
	}
	if model == "" {
		model = defaultModel
	}

	return &AnthropicClient{
		client:     anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:      anthropic.Model(model),
		maxRetries: defaultMaxRetries,
		operation:  "nl_pipeline",
	}, nil
}

var aiMetrics struct {
	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
	duration     metric.Float64Histogram
}

var aiMetricsOnce sync.Once

func initAIMetrics() {
	m := telemetry.Meter("github.com/aetherxhub/ferridyn-memory/llm")
	aiMetrics.inputTokens, _ = m.Int64Counter("fmemory.llm.input_tokens",
		metric.WithDescription("Anthropic API input tokens consumed"),
		metric.WithUnit("{token}"),
	)
	aiMetrics.outputTokens, _ = m.Int64Counter("fmemory.llm.output_tokens",
		metric.WithDescription("Anthropic API output tokens generated"),
		metric.WithUnit("{token}"),
	)
	aiMetrics.duration, _ = m.Float64Histogram("fmemory.llm.request.duration",
		metric.WithDescription("Anthropic API request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
}

// Complete issues one completion call, retrying transient failures with
// exponential backoff and recording token usage and latency.
func (c *AnthropicClient) Complete(ctx context.Context, system, user string) (string, error) {
	aiMetricsOnce.Do(initAIMetrics)

	tracer := telemetry.Tracer("github.com/aetherxhub/ferridyn-memory/llm")
	ctx, span := tracer.Start(ctx, "anthropic.messages.new")
	defer span.End()
	span.SetAttributes(
		attribute.String("fmemory.llm.model", string(c.model)),
		attribute.String("fmemory.llm.operation", c.operation),
	)

	// Concatenated rather than passed via a dedicated system parameter:
	// keeps this client's surface to exactly the Messages.New shape
	// already proven out elsewhere in this codebase.
	combined := system + "\n\n" + user
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(combined)),
		},
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = defaultInitial
	policy.MaxInterval = defaultMaxBackoff
	retry := backoff.WithMaxRetries(policy, c.maxRetries)
	retryCtx := backoff.WithContext(retry, ctx)

	attempts := 0
	var result string
	operation := func() error {
		attempts++
		t0 := time.Now()
		message, err := c.client.Messages.New(ctx, params)
		ms := float64(time.Since(t0).Milliseconds())

		if err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(HTTP("anthropic request failed", err))
			}
			return HTTP("anthropic request failed", err)
		}

		modelAttr := attribute.String("fmemory.llm.model", string(c.model))
		if aiMetrics.inputTokens != nil {
			aiMetrics.inputTokens.Add(ctx, message.Usage.InputTokens, metric.WithAttributes(modelAttr))
			aiMetrics.outputTokens.Add(ctx, message.Usage.OutputTokens, metric.WithAttributes(modelAttr))
			aiMetrics.duration.Record(ctx, ms, metric.WithAttributes(modelAttr))
		}

		if len(message.Content) == 0 {
			return backoff.Permanent(EmptyResponse("no content blocks in response"))
		}
		block := message.Content[0]
		if block.Type != "text" {
			return backoff.Permanent(HTTP(fmt.Sprintf("unexpected content block type %q", block.Type), nil))
		}
		result = block.Text
		return nil
	}

	if err := backoff.Retry(operation, retryCtx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var lerr *LlmError
		if errors.As(err, &lerr) {
			return "", lerr
		}
		return "", HTTP("anthropic request failed after retries", err)
	}

	span.SetAttributes(attribute.Int("fmemory.llm.attempts", attempts))
	if result == "" {
		return "", EmptyResponse("empty text block")
	}
	return result, nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
