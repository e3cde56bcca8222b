// Package client is the submission-side half of use-safe-submit. It
// generates a stable idempotency token per logical submission attempt and
// attaches it to outgoing requests as an explicit request-building step,
// so the server middleware can deduplicate retries of the same attempt.
package client

import (
	"net/http"
	"net/url"

	"github.com/google/uuid"

	safesubmit "github.com/madebyankur/use-safe-submit"
)

// NewToken generates an idempotency token for one logical submission
// attempt. Retries of the same attempt must reuse the token; a new attempt
// gets a new one.
func NewToken() string {
	return uuid.NewString()
}

// SetHeader stamps the token on a request via the Idempotency-Key header.
func SetHeader(req *http.Request, token string) {
	req.Header.Set(safesubmit.HeaderKey, token)
}

// SetFormField adds the token to form values, for form-encoded or multipart
// submissions where the server reads the body instead of the headers.
func SetFormField(form url.Values, token string) {
	form.Set(safesubmit.FormField, token)
}

// Transport is an http.RoundTripper that stamps every request it carries
// with the same idempotency token, covering all network calls made during
// one submission's lifetime. A request that already carries the header is
// left alone.
type Transport struct {
	// Base is the underlying transport; nil means http.DefaultTransport.
	Base http.RoundTripper
	// Token identifies the submission attempt.
	Token string
}

// NewTransport creates a Transport for a fresh submission attempt.
func NewTransport(base http.RoundTripper) *Transport {
	return &Transport{
		Base:  base,
		Token: NewToken(),
	}
}

// RoundTrip implements http.RoundTripper. The incoming request is cloned
// before the header is added, per the RoundTripper contract.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if t.Token == "" || req.Header.Get(safesubmit.HeaderKey) != "" {
		return base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set(safesubmit.HeaderKey, t.Token)

	return base.RoundTrip(clone)
}
