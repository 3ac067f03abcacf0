package groq

import (
	"github.com/openai/openai-go"

	"github.com/florianilch/groqway/internal/anthropicadapter"
)

// toUsage relabels downstream token counts: prompt tokens are input, completion tokens are output.
// Groq reports no cache or reasoning breakdown, so nothing beyond the two totals is carried over.
func toUsage(usage openai.CompletionUsage) anthropicadapter.Usage {
	return anthropicadapter.Usage{
		InputTokens:  usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
	}
}
