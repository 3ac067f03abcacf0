package groq

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/florianilch/groqway/internal/anthropicadapter"
)

// fromTools transforms Anthropic tool declarations to OpenAI function tools.
// Input schemas are passed through as-is; a missing description becomes "".
func fromTools(tools []anthropicadapter.Tool) []openai.ChatCompletionToolParam {
	if len(tools) == 0 {
		return nil
	}

	converted := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, tool := range tools {
		description := ""
		if tool.Description != nil {
			description = *tool.Description
		}

		converted = append(converted, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(description),
				Parameters:  openai.FunctionParameters(tool.InputSchema),
			},
		})
	}

	return converted
}

// toolChoice is the translated tool selection preference.
type toolChoice struct {
	Option                 openai.ChatCompletionToolChoiceOptionUnionParam
	DisableParallelToolUse bool
}

// anthropicToolChoice is the Anthropic tool_choice object. The OpenAI "function" shape is
// accepted too so already-translated clients keep working.
type anthropicToolChoice struct {
	Type                   string `json:"type"`
	Name                   string `json:"name"`
	DisableParallelToolUse bool   `json:"disable_parallel_tool_use"`
	Function               struct {
		Name string `json:"name"`
	} `json:"function"`
}

// fromToolChoice converts the caller's tool_choice to OpenAI format.
// No preference means "auto".
func fromToolChoice(raw json.RawMessage) (toolChoice, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return toolChoice{Option: namedToolChoiceMode("auto")}, nil
	}

	if trimmed[0] == '"' {
		var mode string
		if err := json.Unmarshal(trimmed, &mode); err != nil {
			return toolChoice{}, fmt.Errorf("decode tool_choice: %w", err)
		}
		switch mode {
		case "auto", "none", "required":
			return toolChoice{Option: namedToolChoiceMode(mode)}, nil
		default:
			return toolChoice{}, fmt.Errorf("unsupported tool_choice %q", mode)
		}
	}

	var choice anthropicToolChoice
	if err := json.Unmarshal(trimmed, &choice); err != nil {
		return toolChoice{}, fmt.Errorf("decode tool_choice: %w", err)
	}

	result := toolChoice{DisableParallelToolUse: choice.DisableParallelToolUse}
	switch choice.Type {
	case "auto":
		result.Option = namedToolChoiceMode("auto")
	case "any":
		// Anthropic's "any" forces some tool call, which OpenAI calls "required".
		result.Option = namedToolChoiceMode("required")
	case "none":
		result.Option = namedToolChoiceMode("none")
	case "tool", "function":
		name := choice.Name
		if name == "" {
			name = choice.Function.Name
		}
		if name == "" {
			return toolChoice{}, fmt.Errorf("tool_choice of type %q requires a tool name", choice.Type)
		}
		result.Option = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{
					Name: name,
				},
			},
		}
	default:
		return toolChoice{}, fmt.Errorf("unsupported tool_choice type %q", choice.Type)
	}

	return result, nil
}

func namedToolChoiceMode(mode string) openai.ChatCompletionToolChoiceOptionUnionParam {
	return openai.ChatCompletionToolChoiceOptionUnionParam{
		OfAuto: openai.String(mode),
	}
}
