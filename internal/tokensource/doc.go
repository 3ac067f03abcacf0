// Package tokensource resolves the caller-supplied downstream credential and turns it
// into an oauth2.TokenSource for the outbound transport chain.
//
// The proxy holds no key of its own: every request carries the Groq API key in one of
// three headers, tried in order:
//   - Authorization (a "Bearer " prefix is stripped case-insensitively, otherwise verbatim)
//   - x-api-key
//   - anthropic-api-key
//
// Empty values fall through to the next header.
//
// # Usage
//
//	ts, err := tokensource.FromHeaders(r.Header)
//	if errors.Is(err, tokensource.ErrMissingCredential) {
//	  // respond 401
//	}
//	transport := tokensource.NewTransport(base, ts)
//	// transport sets "Authorization: Bearer <key>" on every downstream request
//
// # Custom Lookup
//
// The lookup chain is an ordered list of Extractor functions; the first hit wins:
//
//	ts, err := tokensource.FromHeaders(r.Header,
//	  tokensource.HeaderExtractor("X-Groq-Key"),
//	  tokensource.BearerExtractor(tokensource.HeaderAuthorization),
//	)
package tokensource
