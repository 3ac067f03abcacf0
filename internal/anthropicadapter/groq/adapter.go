package groq

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/openai/openai-go"

	"github.com/florianilch/groqway/internal/anthropicadapter"
)

// Defaults for the Groq deployment.
const (
	DefaultBaseURL         = "https://api.groq.com/openai/v1"
	DefaultModel           = "moonshotai/kimi-k2-instruct"
	DefaultModelPrefix     = "groq/"
	DefaultMaxOutputTokens = 16384
	DefaultTemperature     = 0.7
)

// Config selects the downstream target. The caller's requested model is never forwarded;
// every request runs against Model.
type Config struct {
	BaseURL            string
	Model              string
	ModelPrefix        string
	MaxOutputTokens    int64
	DefaultTemperature float64
}

// DefaultConfig returns the configuration for Groq's hosted Kimi K2 model.
func DefaultConfig() Config {
	return Config{
		BaseURL:            DefaultBaseURL,
		Model:              DefaultModel,
		ModelPrefix:        DefaultModelPrefix,
		MaxOutputTokens:    DefaultMaxOutputTokens,
		DefaultTemperature: DefaultTemperature,
	}
}

// CreateMessageAdapter translates Anthropic CreateMessage requests into a single
// OpenAI-compatible chat completion call and translates the result back.
type CreateMessageAdapter struct {
	cfg Config
}

// Compile-time check to ensure CreateMessageAdapter implements MessagesAdapter
var _ anthropicadapter.MessagesAdapter = (*CreateMessageAdapter)(nil)

// NewCreateMessageAdapter validates cfg and returns a stateless adapter.
func NewCreateMessageAdapter(cfg Config) (*CreateMessageAdapter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.MaxOutputTokens <= 0 {
		return nil, fmt.Errorf("max output tokens must be positive, got %d", cfg.MaxOutputTokens)
	}
	return &CreateMessageAdapter{cfg: cfg}, nil
}

// Model returns the downstream model name as reported to callers (prefix included).
func (a *CreateMessageAdapter) Model() string {
	return a.cfg.ModelPrefix + a.cfg.Model
}

// ProcessRequest converts the request, performs exactly one downstream call through transport,
// and converts the completion. Non-2xx downstream responses are returned as
// *anthropicadapter.DownstreamError.
func (a *CreateMessageAdapter) ProcessRequest(
	ctx context.Context,
	clientReq anthropicadapter.MessagesRequest,
	transport http.RoundTripper,
) (*anthropicadapter.MessagesResponse, error) {
	params, err := a.toChatCompletionParams(ctx, clientReq)
	if err != nil {
		return nil, err
	}

	recorder := &errorBodyRecorder{}
	client, err := newClient(a.cfg.BaseURL, transport, recorder.Middleware)
	if err != nil {
		return nil, fmt.Errorf("create downstream client: %w", err)
	}

	slog.DebugContext(ctx, "calling downstream",
		"model", a.cfg.Model,
		"messages", len(params.Messages),
		"tools", len(params.Tools),
	)

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, toDownstreamError(err, recorder.body)
	}

	return a.toMessagesResponse(ctx, completion)
}

// toChatCompletionParams builds the downstream request.
// Tools and tool_choice are only sent when the caller declared tools.
func (a *CreateMessageAdapter) toChatCompletionParams(
	ctx context.Context,
	clientReq anthropicadapter.MessagesRequest,
) (openai.ChatCompletionNewParams, error) {
	converted, err := fromMessages(ctx, clientReq.System, clientReq.Messages)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}
	messages, err := toChatCompletionMessages(converted)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(a.cfg.Model),
		Messages:    messages,
		MaxTokens:   openai.Int(a.maxTokens(ctx, clientReq.MaxTokens)),
		Temperature: openai.Float(a.temperature(clientReq.Temperature)),
	}

	if tools := fromTools(clientReq.Tools); len(tools) > 0 {
		choice, err := fromToolChoice(clientReq.ToolChoice)
		if err != nil {
			return openai.ChatCompletionNewParams{}, err
		}
		params.Tools = tools
		params.ToolChoice = choice.Option
		if choice.DisableParallelToolUse {
			params.ParallelToolCalls = openai.Bool(false)
		}
	}

	return params, nil
}

// maxTokens returns the requested output budget clamped to the configured ceiling.
// A missing or non-positive request uses the ceiling.
func (a *CreateMessageAdapter) maxTokens(ctx context.Context, requested *int64) int64 {
	ceiling := a.cfg.MaxOutputTokens
	if requested == nil || *requested <= 0 {
		return ceiling
	}
	if *requested > ceiling {
		slog.InfoContext(ctx, "capping max_tokens", "requested", *requested, "max", ceiling)
		return ceiling
	}
	return *requested
}

// temperature returns the requested temperature, or the configured default when absent.
// An explicit 0 is honoured.
func (a *CreateMessageAdapter) temperature(requested *float64) float64 {
	if requested == nil {
		return a.cfg.DefaultTemperature
	}
	return *requested
}
