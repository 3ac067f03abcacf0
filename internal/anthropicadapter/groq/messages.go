package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"

	"github.com/florianilch/groqway/internal/anthropicadapter"
)

// Downstream chat roles.
const (
	roleUser      = "user"
	roleAssistant = "assistant"
	roleSystem    = "system"
)

// downstreamMessage is a flattened conversation turn: one role, one plain string.
type downstreamMessage struct {
	Role    string
	Content string
}

// fromMessages flattens Anthropic conversation turns into plain role/content pairs.
// A non-empty system prompt becomes a leading system message. Turn order is preserved.
func fromMessages(
	ctx context.Context,
	system *anthropicadapter.SystemPrompt,
	messages []anthropicadapter.Message,
) ([]downstreamMessage, error) {
	// An explicit empty array is forwarded; an absent or null one is not.
	if messages == nil {
		return nil, fmt.Errorf("messages are missing")
	}

	converted := make([]downstreamMessage, 0, len(messages)+1)

	if prompt := fromSystemPrompt(system); prompt != "" {
		converted = append(converted, downstreamMessage{Role: roleSystem, Content: prompt})
	}

	for i, m := range messages {
		// System instructions only come from the top-level system field.
		if m.Role != roleUser && m.Role != roleAssistant {
			return nil, fmt.Errorf("unsupported role %q in message %d", m.Role, i)
		}
		content, err := fromMessageContent(ctx, m.Content)
		if err != nil {
			return nil, fmt.Errorf("convert message %d: %w", i, err)
		}
		converted = append(converted, downstreamMessage{Role: m.Role, Content: content})
	}

	return converted, nil
}

// fromMessageContent returns string content unchanged and joins the fragments of block
// content with newlines, in block order.
func fromMessageContent(ctx context.Context, content anthropicadapter.MessageContent) (string, error) {
	if content.IsText() {
		return *content.Text, nil
	}
	if content.Blocks == nil {
		return "", fmt.Errorf("message content is missing")
	}

	parts := make([]string, 0, len(content.Blocks))
	for i, block := range content.Blocks {
		fragment, ok, err := fromContentBlock(ctx, block)
		if err != nil {
			return "", fmt.Errorf("convert content block %d: %w", i, err)
		}
		if ok {
			parts = append(parts, fragment)
		}
	}

	return strings.Join(parts, "\n"), nil
}

// fromContentBlock renders one block as a text fragment.
// ok is false for block types that contribute nothing.
func fromContentBlock(ctx context.Context, block anthropicadapter.ContentBlock) (fragment string, ok bool, err error) {
	switch variant := block.AsAny().(type) {
	case anthropicadapter.TextBlock:
		return variant.Text, true, nil

	case anthropicadapter.ToolUseBlock:
		input, err := encodeCompactJSON(variant.Input, "{}")
		if err != nil {
			return "", false, fmt.Errorf("encode input of tool %s: %w", variant.Name, err)
		}
		return fmt.Sprintf("[Tool Use: %s] %s", variant.Name, input), true, nil

	case anthropicadapter.ToolResultBlock:
		content, err := encodeCompactJSON(variant.Content, "null")
		if err != nil {
			return "", false, fmt.Errorf("encode result of tool use %s: %w", variant.ToolUseID, err)
		}
		slog.DebugContext(ctx, "tool result", "tool_use_id", variant.ToolUseID, "content", content)
		return "<tool_result>" + content + "</tool_result>", true, nil

	default:
		// Unknown blocks (images, documents, thinking, ...) have no plain-text form downstream.
		slog.DebugContext(ctx, "dropping content block", "type", block.Type)
		return "", false, nil
	}
}

// fromSystemPrompt joins the text of a system prompt. Non-text blocks are ignored.
func fromSystemPrompt(system *anthropicadapter.SystemPrompt) string {
	if system == nil {
		return ""
	}
	if system.Text != nil {
		return *system.Text
	}

	var texts []string
	for _, block := range system.Blocks {
		if text, ok := block.AsAny().(anthropicadapter.TextBlock); ok {
			texts = append(texts, text.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// toChatCompletionMessages builds the SDK message params for the flattened conversation.
func toChatCompletionMessages(messages []downstreamMessage) ([]openai.ChatCompletionMessageParamUnion, error) {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for i, m := range messages {
		switch m.Role {
		case roleUser:
			params = append(params, openai.UserMessage(m.Content))
		case roleAssistant:
			params = append(params, openai.AssistantMessage(m.Content))
		case roleSystem:
			params = append(params, openai.SystemMessage(m.Content))
		default:
			return nil, fmt.Errorf("unsupported role %q in message %d", m.Role, i)
		}
	}
	return params, nil
}

// encodeCompactJSON re-encodes raw JSON compactly without HTML escaping. Key order and
// literals are kept as written, so escapes like \u00e9 and numbers like 1.0 are not normalized.
// Missing values render as fallback.
func encodeCompactJSON(raw json.RawMessage, fallback string) (string, error) {
	if len(raw) == 0 {
		return fallback, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(raw); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
