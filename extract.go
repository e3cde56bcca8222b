package safesubmit

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// maxFormMemory bounds in-memory buffering when a multipart body is parsed
// speculatively for the idempotency field.
const maxFormMemory = 10 << 20

// extractToken resolves the idempotency token for a request, or "" when none
// is present. A configured KeyExtractor replaces the whole chain; otherwise
// the sources are tried in order — header, form field, JSON field — and the
// first non-empty value wins. Extraction never fails the request: unparsable
// bodies simply yield no token.
func (c *Config) extractToken(r *http.Request) string {
	if c.KeyExtractor != nil {
		return c.KeyExtractor(r)
	}

	mediaType, params, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	formLike := mediaType == "application/x-www-form-urlencoded" ||
		strings.HasPrefix(mediaType, "multipart/")

	// A form-carried key outranks the headers, so the header shortcut only
	// applies to non-form content types.
	if !formLike {
		if v := r.Header.Get(HeaderKey); v != "" {
			return v
		}
		if v := r.Header.Get(HeaderKeyFallback); v != "" {
			return v
		}
	}

	body := duplicateBody(r)
	if len(body) == 0 {
		return ""
	}

	if v := tokenFromForm(mediaType, params["boundary"], body); v != "" {
		return v
	}
	return tokenFromJSON(body)
}

// duplicateBody reads the request body and restores it so the wrapped
// handler still sees the original payload. Returns nil when there is no
// body or it cannot be read.
func duplicateBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		r.Body = io.NopCloser(bytes.NewReader(nil))
		return nil
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body
}

// tokenFromForm looks for the idempotency field in form-encoded or multipart
// content. Parse errors are swallowed; the caller falls through to JSON.
func tokenFromForm(mediaType, boundary string, body []byte) string {
	if strings.HasPrefix(mediaType, "multipart/") {
		if boundary == "" {
			return ""
		}
		form, err := multipart.NewReader(bytes.NewReader(body), boundary).ReadForm(maxFormMemory)
		if err != nil {
			return ""
		}
		defer form.RemoveAll()
		if values := form.Value[FormField]; len(values) > 0 {
			return values[0]
		}
		return ""
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return ""
	}
	return values.Get(FormField)
}

// tokenFromJSON looks for a top-level idempotency field in a JSON body.
func tokenFromJSON(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	token, _ := payload[FormField].(string)
	return token
}
