package anthropicadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

// Content block type tags.
const (
	BlockTypeText       = "text"
	BlockTypeToolUse    = "tool_use"
	BlockTypeToolResult = "tool_result"
)

// MessagesRequest is the inbound Anthropic Messages request body.
// Only the fields the proxy acts on are decoded; everything else is ignored.
type MessagesRequest struct {
	Model       string          `json:"model"`
	Messages    []Message       `json:"messages"`
	System      *SystemPrompt   `json:"system,omitempty"`
	Tools       []Tool          `json:"tools,omitempty"`
	ToolChoice  json.RawMessage `json:"tool_choice,omitempty"`
	MaxTokens   *int64          `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
}

// Message is a single conversation turn.
type Message struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// MessageContent holds either plain text or an ordered list of content blocks.
// Exactly one of Text and Blocks is set after decoding.
type MessageContent struct {
	Text   *string
	Blocks []ContentBlock
}

// NewTextContent returns message content consisting of a plain string.
func NewTextContent(text string) MessageContent {
	return MessageContent{Text: &text}
}

// NewBlockContent returns message content consisting of content blocks.
func NewBlockContent(blocks ...ContentBlock) MessageContent {
	return MessageContent{Blocks: blocks}
}

// IsText reports whether the content is a plain string.
func (c MessageContent) IsText() bool {
	return c.Text != nil
}

// UnmarshalJSON accepts a JSON string or an array of content blocks.
// Any other JSON value (including null) is rejected.
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return errors.New("message content is empty")
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return fmt.Errorf("decode text content: %w", err)
		}
		*c = MessageContent{Text: &text}
		return nil
	case '[':
		var blocks []ContentBlock
		if err := json.Unmarshal(trimmed, &blocks); err != nil {
			return fmt.Errorf("decode content blocks: %w", err)
		}
		if blocks == nil {
			blocks = []ContentBlock{}
		}
		*c = MessageContent{Blocks: blocks}
		return nil
	default:
		return fmt.Errorf("message content must be a string or an array of blocks, got %s", describeJSON(trimmed))
	}
}

// MarshalJSON encodes the content back into its string or array form.
func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.Text != nil {
		return json.Marshal(*c.Text)
	}
	if c.Blocks == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.Blocks)
}

// ContentBlock is the tagged union of Anthropic content blocks. The Type tag selects
// which of the remaining fields are meaningful; use AsAny to obtain the variant.
type ContentBlock struct {
	Type string

	// text
	Text string

	// tool_use
	ID    string
	Name  string
	Input json.RawMessage

	// tool_result
	ToolUseID string
	Content   json.RawMessage
}

// TextBlock is the variant for "text" blocks.
type TextBlock struct {
	Text string
}

// ToolUseBlock is the variant for "tool_use" blocks.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolResultBlock is the variant for "tool_result" blocks.
type ToolResultBlock struct {
	ToolUseID string
	Content   json.RawMessage
}

// UnknownBlock is returned by AsAny for unrecognised type tags.
type UnknownBlock struct {
	Type string
}

// AsAny returns the concrete variant for the block's type tag.
func (b ContentBlock) AsAny() any {
	switch b.Type {
	case BlockTypeText:
		return TextBlock{Text: b.Text}
	case BlockTypeToolUse:
		return ToolUseBlock{ID: b.ID, Name: b.Name, Input: b.Input}
	case BlockTypeToolResult:
		return ToolResultBlock{ToolUseID: b.ToolUseID, Content: b.Content}
	default:
		return UnknownBlock{Type: b.Type}
	}
}

// NewTextBlock creates a "text" content block.
func NewTextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockTypeText, Text: text}
}

// NewToolUseBlock creates a "tool_use" content block.
func NewToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Type: BlockTypeToolUse, ID: id, Name: name, Input: input}
}

// NewToolResultBlock creates a "tool_result" content block.
func NewToolResultBlock(toolUseID string, content json.RawMessage) ContentBlock {
	return ContentBlock{Type: BlockTypeToolResult, ToolUseID: toolUseID, Content: content}
}

// contentBlockWire is the flat wire representation shared by all block variants.
type contentBlockWire struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
}

// UnmarshalJSON decodes any block variant. Unknown type tags are preserved, not rejected.
func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	var wire contentBlockWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*b = ContentBlock(wire)
	return nil
}

// MarshalJSON emits only the fields that belong to the block's variant.
func (b ContentBlock) MarshalJSON() ([]byte, error) {
	switch b.Type {
	case BlockTypeText:
		return json.Marshal(struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{b.Type, b.Text})
	case BlockTypeToolUse:
		return json.Marshal(struct {
			Type  string          `json:"type"`
			ID    string          `json:"id"`
			Name  string          `json:"name"`
			Input json.RawMessage `json:"input"`
		}{b.Type, b.ID, b.Name, rawOrEmptyObject(b.Input)})
	case BlockTypeToolResult:
		return json.Marshal(struct {
			Type      string          `json:"type"`
			ToolUseID string          `json:"tool_use_id"`
			Content   json.RawMessage `json:"content,omitempty"`
		}{b.Type, b.ToolUseID, b.Content})
	default:
		return json.Marshal(struct {
			Type string `json:"type"`
		}{b.Type})
	}
}

// SystemPrompt is the top-level "system" field: a string or a list of text blocks.
type SystemPrompt struct {
	Text   *string
	Blocks []ContentBlock
}

// UnmarshalJSON accepts a JSON string or an array of blocks. null decodes to an empty prompt.
func (s *SystemPrompt) UnmarshalJSON(data []byte) error {
	var content MessageContent
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = SystemPrompt{}
		return nil
	}
	if err := content.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("system: %w", err)
	}
	*s = SystemPrompt{Text: content.Text, Blocks: content.Blocks}
	return nil
}

// Tool is an inbound tool declaration.
type Tool struct {
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

// MessagesResponse is the outbound Anthropic message returned to the caller.
type MessagesResponse struct {
	ID           string               `json:"id"`
	Model        string               `json:"model"`
	Role         string               `json:"role"`
	Type         string               `json:"type"`
	Content      []ContentBlock       `json:"content"`
	StopReason   anthropic.StopReason `json:"stop_reason"`
	StopSequence *string              `json:"stop_sequence"`
	Usage        Usage                `json:"usage"`
}

// Usage reports token consumption in Anthropic terms.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// ModelList is the Anthropic-shaped response for GET /v1/models.
type ModelList struct {
	Data    []ModelInfo `json:"data"`
	HasMore bool        `json:"has_more"`
	FirstID string      `json:"first_id"`
	LastID  string      `json:"last_id"`
}

// ModelInfo describes a single model in a ModelList.
type ModelInfo struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
	CreatedAt   string `json:"created_at"`
}

func rawOrEmptyObject(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("{}")
	}
	return raw
}

func describeJSON(data []byte) string {
	switch data[0] {
	case 'n':
		return "null"
	case 't', 'f':
		return "boolean"
	case '{':
		return "object"
	default:
		return "number"
	}
}
