package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// newSDKClient returns an Anthropic SDK client pointed at a test server running p.
func newSDKClient(t *testing.T, p *Proxy) anthropic.Client {
	t.Helper()

	server := httptest.NewServer(p)
	t.Cleanup(server.Close)

	return anthropic.NewClient(
		option.WithBaseURL(server.URL),
		option.WithAPIKey("gsk_test"),
		option.WithMaxRetries(0),
	)
}

func TestAnthropicSDK_Text(t *testing.T) {
	_, groqJSON := loadBufferedFixture(t, "text.json")
	rt := &recordingTransport{status: http.StatusOK, body: groqJSON}
	client := newSDKClient(t, newTestProxy(t, rt))

	msg, err := client.Messages.New(context.Background(), anthropic.MessageNewParams{
		Model:     anthropic.Model("claude-sonnet-4-5"),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("hi")),
		},
	})
	if err != nil {
		t.Fatalf("Messages.New() error = %v", err)
	}

	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("ID = %q, want msg_ prefix", msg.ID)
	}
	if msg.StopReason != anthropic.StopReasonEndTurn {
		t.Errorf("StopReason = %q, want end_turn", msg.StopReason)
	}
	if len(msg.Content) != 1 || msg.Content[0].Type != "text" || msg.Content[0].Text != "hello" {
		t.Errorf("Content = %+v, want single text block hello", msg.Content)
	}
	if msg.Usage.InputTokens != 9 || msg.Usage.OutputTokens != 2 {
		t.Errorf("Usage = %+v, want 9/2", msg.Usage)
	}
	if got := rt.requests[0].Header.Get("Authorization"); got != "Bearer gsk_test" {
		t.Errorf("downstream Authorization = %q, want Bearer gsk_test", got)
	}
}

func TestAnthropicSDK_ToolRoundTrip(t *testing.T) {
	_, groqJSON := loadBufferedFixture(t, "tool_use.json")
	rt := &recordingTransport{status: http.StatusOK, body: groqJSON}
	client := newSDKClient(t, newTestProxy(t, rt))

	msg, err := client.Messages.New(context.Background(), anthropic.MessageNewParams{
		Model:     anthropic.Model("claude-sonnet-4-5"),
		MaxTokens: 50000,
		Tools: []anthropic.ToolUnionParam{{
			OfTool: &anthropic.ToolParam{
				Name:        "search",
				Description: anthropic.String("Search the web"),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]any{"q": map[string]any{"type": "string"}},
				},
			},
		}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("find x")),
			anthropic.NewAssistantMessage(anthropic.NewToolUseBlock("c0", map[string]any{"q": "y"}, "search")),
			anthropic.NewUserMessage(anthropic.NewToolResultBlock("c0", "nothing", false)),
		},
	})
	if err != nil {
		t.Fatalf("Messages.New() error = %v", err)
	}

	if msg.StopReason != anthropic.StopReasonToolUse {
		t.Errorf("StopReason = %q, want tool_use", msg.StopReason)
	}
	if len(msg.Content) != 2 {
		t.Fatalf("Content = %+v, want two tool_use blocks", msg.Content)
	}
	first := msg.Content[0]
	if first.Type != "tool_use" || first.ID != "c1" || first.Name != "search" {
		t.Errorf("Content[0] = %+v", first)
	}
	var input map[string]any
	if err := json.Unmarshal(first.Input, &input); err != nil || input["q"] != "x" {
		t.Errorf("Content[0].Input = %s, want {\"q\":\"x\"}", first.Input)
	}

	var sent struct {
		MaxTokens int64 `json:"max_tokens"`
		Messages  []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Tools []any `json:"tools"`
	}
	if err := json.Unmarshal(rt.bodies[0], &sent); err != nil {
		t.Fatalf("decode downstream body: %v", err)
	}
	if sent.MaxTokens != 16384 {
		t.Errorf("downstream max_tokens = %d, want 16384", sent.MaxTokens)
	}
	if len(sent.Tools) != 1 {
		t.Errorf("downstream tools = %d, want 1", len(sent.Tools))
	}
	if len(sent.Messages) != 3 {
		t.Fatalf("downstream messages = %d, want 3", len(sent.Messages))
	}
	if got := sent.Messages[1].Content; got != `[Tool Use: search] {"q":"y"}` {
		t.Errorf("assistant content = %q", got)
	}
	if got := sent.Messages[2].Content; !strings.HasPrefix(got, "<tool_result>") || !strings.HasSuffix(got, "</tool_result>") {
		t.Errorf("tool result content = %q", got)
	}
}

func TestAnthropicSDK_DownstreamError(t *testing.T) {
	rt := &recordingTransport{status: http.StatusTooManyRequests, body: "slow down"}
	client := newSDKClient(t, newTestProxy(t, rt))

	_, err := client.Messages.New(context.Background(), anthropic.MessageNewParams{
		Model:     anthropic.Model("claude-sonnet-4-5"),
		MaxTokens: 16,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("hi")),
		},
	})

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *anthropic.Error", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.RawJSON(), "slow down") {
		t.Errorf("RawJSON = %s, want downstream details", apiErr.RawJSON())
	}
	if rt.calls() != 1 {
		t.Errorf("downstream calls = %d, want 1", rt.calls())
	}
}
