package riskassess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const narrativeSystemPrompt = "You are a senior credit and enterprise risk analyst. You enrich deterministic rule-based risk scores with qualitative narrative. Respond with strict JSON only."

type providerFailureClass int

const (
	failureNone providerFailureClass = iota
	failureParse
	failureSchema
	failureEmpty
	failureTimeout
	failureRateLimit
	failureServer
	failureAuth
	failureClient
)

// NarrativeCaller abstracts the reasoning provider behind a single
// prompt-in, raw-text-out call.
type NarrativeCaller interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

type AnthropicCaller struct {
	messages  AnthropicMessager
	model     anthropic.Model
	maxTokens int64
}

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

// NewAnthropicCaller builds the production caller. A missing key is a
// configuration fault, not a transient provider outage.
func NewAnthropicCaller(apiKey, model string, maxTokens int) (*AnthropicCaller, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, &ProviderConfigError{Message: "provider API key not configured"}
	}
	if model == "" {
		model = DefaultModelAlias
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &AnthropicCaller{
		messages:  newAnthropicClient(apiKey),
		model:     anthropic.Model(model),
		maxTokens: int64(maxTokens),
	}, nil
}

func (a *AnthropicCaller) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      []anthropic.TextBlockParam{{Text: narrativeSystemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

// NarrativeExecutor drives a single provider exchange to a validated result,
// retrying transient transport failures with backoff and malformed content
// with corrective feedback.
type NarrativeExecutor struct {
	caller   NarrativeCaller
	attempts int
}

func NewNarrativeExecutor(caller NarrativeCaller) *NarrativeExecutor {
	return &NarrativeExecutor{caller: caller, attempts: 3}
}

// ExchangeMetrics counts provider round trips for one assessment.
type ExchangeMetrics struct {
	Attempts       int
	ContentRetries int
}

// Run prompts the provider until out unmarshals and validates, or retries are
// exhausted. Auth failures surface immediately as ProviderConfigError; every
// other terminal failure is a ProviderUnavailable so the caller can fall back.
func (e *NarrativeExecutor) Run(ctx context.Context, prompt string, out any, validate func() error) (ExchangeMetrics, error) {
	metrics := ExchangeMetrics{}
	feedback := ""
	for attempt := 1; attempt <= e.attempts; attempt++ {
		metrics.Attempts = attempt
		fullPrompt := prompt + "\n\nRespond with only valid JSON matching the schema."
		if feedback != "" {
			fullPrompt += "\n\n" + feedback
		}

		raw, err := e.caller.GenerateJSON(ctx, fullPrompt)
		if err != nil {
			switch classifyTransportError(err) {
			case failureAuth:
				return metrics, &ProviderConfigError{Message: "provider rejected credentials", Err: err}
			case failureTimeout, failureRateLimit, failureServer:
				if attempt < e.attempts {
					if serr := sleepCtx(ctx, backoffDelay(attempt)); serr != nil {
						return metrics, &ProviderUnavailable{Reason: "canceled during backoff", Err: serr}
					}
					continue
				}
			}
			return metrics, &ProviderUnavailable{Reason: "transport failure", Err: err}
		}

		raw = strings.TrimSpace(raw)
		if raw == "" {
			if attempt < e.attempts {
				metrics.ContentRetries++
				feedback = "Your previous response was empty. Respond with valid JSON."
				continue
			}
			return metrics, &ProviderUnavailable{Reason: "empty response"}
		}

		clean := stripCodeFences(raw)
		if err := json.Unmarshal([]byte(clean), out); err != nil {
			if attempt < e.attempts {
				metrics.ContentRetries++
				feedback = "Your previous response was not valid JSON. Respond with only valid JSON."
				continue
			}
			return metrics, &ProviderUnavailable{Reason: "malformed JSON reply", Err: err}
		}
		if err := validate(); err != nil {
			if attempt < e.attempts {
				metrics.ContentRetries++
				feedback = fmt.Sprintf("Your response failed validation: %s. Fix these issues.", err)
				continue
			}
			return metrics, &ProviderUnavailable{Reason: "reply failed schema validation", Err: err}
		}
		return metrics, nil
	}
	return metrics, &ProviderUnavailable{Reason: "retries exhausted"}
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

func classifyTransportError(err error) providerFailureClass {
	msg := strings.ToLower(err.Error())
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "authentication") || strings.Contains(msg, "invalid x-api-key"):
		return failureAuth
	case strings.Contains(msg, "429"):
		return failureRateLimit
	case strings.Contains(msg, " 5") || strings.Contains(msg, "status code: 5") || strings.Contains(msg, "server error"):
		return failureServer
	case strings.Contains(msg, " 4") || strings.Contains(msg, "status code: 4"):
		return failureClient
	default:
		return failureServer
	}
}

func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	return 2 * time.Second
}

// sleepCtx waits d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
