// Package groq adapts Anthropic Messages requests to Groq's OpenAI-compatible Chat Completions
// API, enabling Anthropic SDK clients (and tools built on them) to run against Groq-hosted models.
//
// The adapter handles:
//
//   - Message flattening: Anthropic content blocks are collapsed into one plain string per
//     turn. Tool invocations and tool results become inline text markers
//     ("[Tool Use: name] {...}" and "<tool_result>...</tool_result>") because the downstream
//     conversation carries no structured tool history. Unknown block types are dropped.
//
//   - Tool declarations: Anthropic tools map one-to-one to function tools; input schemas are
//     passed through untouched. Tool choice is translated to its OpenAI equivalent.
//
//   - Responses: Function calls come back as tool_use blocks with parsed arguments and
//     stop_reason "tool_use"; plain completions become a single text block with "end_turn".
//     Token usage is relabelled (prompt → input, completion → output).
//
// Exactly one downstream call is made per request. SDK retries are disabled and failures are
// never retried.
//
// # Adapters
//
// CreateMessageAdapter: Anthropic CreateMessage → OpenAI-compatible CreateChatCompletion
package groq
