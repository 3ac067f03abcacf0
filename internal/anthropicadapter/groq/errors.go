package groq

import (
	"errors"

	"github.com/openai/openai-go"
	pkgerrors "github.com/pkg/errors"

	"github.com/florianilch/groqway/internal/anthropicadapter"
)

// toDownstreamError classifies a failed downstream call.
// Status errors become *anthropicadapter.DownstreamError carrying the raw body text; transport
// and decoding failures are wrapped with a stack for the internal error path.
func toDownstreamError(err error, rawBody []byte) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		body := string(rawBody)
		if body == "" {
			// Recorder saw nothing (e.g. empty body); fall back to what the SDK kept.
			body = apiErr.RawJSON()
		}
		return &anthropicadapter.DownstreamError{
			StatusCode: apiErr.StatusCode,
			Body:       body,
		}
	}

	return pkgerrors.Wrap(err, "call downstream chat completions")
}
