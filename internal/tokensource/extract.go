package tokensource

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// Credential header names, in lookup priority order.
const (
	HeaderAuthorization   = "Authorization"
	HeaderAPIKey          = "X-Api-Key"
	HeaderAnthropicAPIKey = "Anthropic-Api-Key"
)

const bearerPrefix = "bearer "

// ErrMissingCredential is returned when none of the extractors finds a credential.
var ErrMissingCredential = errors.New("missing API credential")

// Extractor looks up a credential in request headers.
// It reports false when the header is absent or yields an empty token.
type Extractor func(http.Header) (string, bool)

// BearerExtractor reads an Authorization-style header. A "Bearer " prefix is stripped
// case-insensitively; without the prefix the value is used verbatim.
func BearerExtractor(name string) Extractor {
	return func(h http.Header) (string, bool) {
		value := h.Get(name)
		if len(value) >= len(bearerPrefix) && strings.EqualFold(value[:len(bearerPrefix)], bearerPrefix) {
			value = value[len(bearerPrefix):]
		} else if strings.EqualFold(strings.TrimSpace(value), strings.TrimSpace(bearerPrefix)) {
			// A bare scheme with no token ("Bearer" after header whitespace trimming).
			value = ""
		}
		value = strings.TrimSpace(value)
		return value, value != ""
	}
}

// HeaderExtractor reads a raw API key header.
func HeaderExtractor(name string) Extractor {
	return func(h http.Header) (string, bool) {
		value := strings.TrimSpace(h.Get(name))
		return value, value != ""
	}
}

// DefaultExtractors returns the lookup chain used for inbound requests:
// Authorization, then x-api-key, then anthropic-api-key.
func DefaultExtractors() []Extractor {
	return []Extractor{
		BearerExtractor(HeaderAuthorization),
		HeaderExtractor(HeaderAPIKey),
		HeaderExtractor(HeaderAnthropicAPIKey),
	}
}

// Extract runs extractors in order and returns the first credential found.
func Extract(h http.Header, extractors ...Extractor) (string, error) {
	for _, extract := range extractors {
		if token, ok := extract(h); ok {
			return token, nil
		}
	}
	return "", ErrMissingCredential
}

// FromHeaders returns a static token source for the caller's credential.
// The credential is forwarded as-is; it is never validated or stored.
func FromHeaders(h http.Header, extractors ...Extractor) (oauth2.TokenSource, error) {
	if len(extractors) == 0 {
		extractors = DefaultExtractors()
	}

	token, err := Extract(h, extractors...)
	if err != nil {
		return nil, err
	}

	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}), nil
}

// NewTransport returns a RoundTripper that sets "Authorization: Bearer <token>"
// from ts on every request before delegating to base.
func NewTransport(base http.RoundTripper, ts oauth2.TokenSource) http.RoundTripper {
	return &oauth2.Transport{
		Source: ts,
		Base:   base,
	}
}
