package tokensource

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestExtract_DefaultChain(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
		wantErr error
	}{
		{
			name:    "bearer authorization",
			headers: map[string]string{"Authorization": "Bearer gsk_abc"},
			want:    "gsk_abc",
		},
		{
			name:    "lowercase bearer",
			headers: map[string]string{"Authorization": "bearer gsk_abc"},
			want:    "gsk_abc",
		},
		{
			name:    "mixed case bearer",
			headers: map[string]string{"Authorization": "BeArEr gsk_abc"},
			want:    "gsk_abc",
		},
		{
			name:    "authorization without prefix is verbatim",
			headers: map[string]string{"Authorization": "gsk_raw"},
			want:    "gsk_raw",
		},
		{
			name:    "x-api-key",
			headers: map[string]string{"x-api-key": "gsk_x"},
			want:    "gsk_x",
		},
		{
			name:    "anthropic-api-key",
			headers: map[string]string{"anthropic-api-key": "gsk_a"},
			want:    "gsk_a",
		},
		{
			name: "authorization wins over api keys",
			headers: map[string]string{
				"Authorization":     "Bearer first",
				"x-api-key":         "second",
				"anthropic-api-key": "third",
			},
			want: "first",
		},
		{
			name: "x-api-key wins over anthropic-api-key",
			headers: map[string]string{
				"x-api-key":         "second",
				"anthropic-api-key": "third",
			},
			want: "second",
		},
		{
			name: "empty values fall through",
			headers: map[string]string{
				"Authorization":     "Bearer ",
				"x-api-key":         "",
				"anthropic-api-key": "third",
			},
			want: "third",
		},
		{
			name:    "bare scheme falls through",
			headers: map[string]string{"Authorization": "Bearer", "x-api-key": "gsk_x"},
			want:    "gsk_x",
		},
		{
			name:    "nothing present",
			headers: map[string]string{"Content-Type": "application/json"},
			wantErr: ErrMissingCredential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}

			got, err := Extract(h, DefaultExtractors()...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Extract() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromHeaders_CustomChain(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer default")
	h.Set("X-Groq-Key", "custom")

	ts, err := FromHeaders(h, HeaderExtractor("X-Groq-Key"))
	if err != nil {
		t.Fatalf("FromHeaders() error = %v", err)
	}
	token, err := ts.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token.AccessToken != "custom" {
		t.Errorf("AccessToken = %q, want custom", token.AccessToken)
	}
}

func TestFromHeaders_Missing(t *testing.T) {
	if _, err := FromHeaders(http.Header{}); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("FromHeaders() error = %v, want ErrMissingCredential", err)
	}
}

// headerRecordingTransport captures the Authorization header of the last request.
type headerRecordingTransport struct {
	authorization string
}

func (r *headerRecordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r.authorization = req.Header.Get("Authorization")
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("{}")),
		Header:     http.Header{},
		Request:    req,
	}, nil
}

func TestNewTransport_SetsBearerAuth(t *testing.T) {
	h := http.Header{}
	h.Set("x-api-key", "gsk_test")
	ts, err := FromHeaders(h)
	if err != nil {
		t.Fatalf("FromHeaders() error = %v", err)
	}

	base := &headerRecordingTransport{}
	client := &http.Client{Transport: NewTransport(base, ts)}

	req, err := http.NewRequest(http.MethodPost, "https://groq.test/openai/v1/chat/completions", nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	_ = resp.Body.Close()

	if base.authorization != "Bearer gsk_test" {
		t.Errorf("Authorization = %q, want %q", base.authorization, "Bearer gsk_test")
	}
}
