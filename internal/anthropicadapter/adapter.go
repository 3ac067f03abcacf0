package anthropicadapter

import (
	"context"
	"net/http"
)

// Adapter defines the contract for transforming client requests to provider API calls.
//
// Type parameters allow the interface to express transformation contracts for different
// request/response shapes while maintaining compile-time type safety.
//
// Type parameters:
//   - TRequest:  Client-specific request structure
//   - TResponse: Client-specific response structure
type Adapter[TRequest, TResponse any] interface {
	// ProcessRequest transforms the client request, calls the provider API exactly once,
	// and returns the transformed response. The transport chain is expected to carry the
	// provider credential. Implementations must remain stateless.
	ProcessRequest(ctx context.Context, clientReq TRequest, transport http.RoundTripper) (*TResponse, error)
}

// MessagesAdapter is the concrete adapter interface for Anthropic Messages requests.
type MessagesAdapter = Adapter[MessagesRequest, MessagesResponse]
