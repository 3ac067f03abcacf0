package groq

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// newClient creates an OpenAI-compatible client targeting baseURL with the provided transport.
// The transport chain needs to handle authentication.
func newClient(baseURL string, transport http.RoundTripper, middlewares ...option.Middleware) (*openai.Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}

	httpClient := &http.Client{
		Transport: transport,
		// Client.Timeout = 0; the request context and server WriteTimeout bound the call
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
		// Exactly one downstream call per inbound request
		option.WithMaxRetries(0),
		// NewClient reads OPENAI_ORG_ID and OPENAI_PROJECT_ID; those belong to another vendor
		option.WithHeaderDel("OpenAI-Organization"),
		option.WithHeaderDel("OpenAI-Project"),
		option.WithMiddleware(middlewares...),
	)

	return &client, nil
}

// errorBodyRecorder captures the raw body of a failed downstream response.
// The SDK error only exposes parsed JSON; callers are owed the text exactly as sent.
type errorBodyRecorder struct {
	body []byte
}

// Middleware records the body of non-2xx responses and restores it for the SDK to parse.
func (r *errorBodyRecorder) Middleware(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	resp, err := next(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}

	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("read downstream error body: %w", readErr)
	}

	r.body = body
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}
