package groq

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	pkgerrors "github.com/pkg/errors"

	"github.com/florianilch/groqway/internal/anthropicadapter"
)

// toMessagesResponse assembles the Anthropic message for the first downstream choice.
// Function calls take precedence over any text the model produced alongside them.
func (a *CreateMessageAdapter) toMessagesResponse(
	ctx context.Context,
	completion *openai.ChatCompletion,
) (*anthropicadapter.MessagesResponse, error) {
	if len(completion.Choices) == 0 {
		return nil, pkgerrors.New("downstream response contains no choices")
	}
	if !completion.JSON.Usage.Valid() {
		return nil, pkgerrors.New("downstream response contains no usage")
	}
	message := completion.Choices[0].Message

	var (
		content    []anthropicadapter.ContentBlock
		stopReason anthropic.StopReason
	)
	if len(message.ToolCalls) > 0 {
		blocks, err := toToolUseBlocks(ctx, message.ToolCalls)
		if err != nil {
			return nil, err
		}
		content = blocks
		stopReason = anthropic.StopReasonToolUse
	} else {
		content = []anthropicadapter.ContentBlock{anthropicadapter.NewTextBlock(message.Content)}
		stopReason = anthropic.StopReasonEndTurn
	}

	return &anthropicadapter.MessagesResponse{
		ID:           newMessageID(),
		Model:        a.cfg.ModelPrefix + a.cfg.Model,
		Role:         "assistant",
		Type:         "message",
		Content:      content,
		StopReason:   stopReason,
		StopSequence: nil,
		Usage:        toUsage(completion.Usage),
	}, nil
}

// toToolUseBlocks converts downstream function calls to tool_use blocks, preserving order.
// Arguments must be valid JSON; the first invalid call fails the whole conversion.
func toToolUseBlocks(
	ctx context.Context,
	toolCalls []openai.ChatCompletionMessageToolCall,
) ([]anthropicadapter.ContentBlock, error) {
	blocks := make([]anthropicadapter.ContentBlock, 0, len(toolCalls))
	for _, call := range toolCalls {
		var input json.RawMessage
		if err := json.Unmarshal([]byte(call.Function.Arguments), &input); err != nil {
			return nil, pkgerrors.WithStack(&anthropicadapter.ArgumentParseError{
				ToolCallID: call.ID,
				ToolName:   call.Function.Name,
				Err:        err,
			})
		}

		slog.DebugContext(ctx, "tool call", "id", call.ID, "name", call.Function.Name)
		blocks = append(blocks, anthropicadapter.NewToolUseBlock(call.ID, call.Function.Name, input))
	}
	return blocks, nil
}

// newMessageID generates an Anthropic-style message ID (msg_<token>).
func newMessageID() string {
	b := make([]byte, 18) // 18 bytes yields 24 URL-safe base64 characters
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	// Use RawURLEncoding to avoid '+', '/' and trailing '='
	token := base64.RawURLEncoding.EncodeToString(b)
	return "msg_" + token
}
