package client

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	safesubmit "github.com/madebyankur/use-safe-submit"
	"github.com/madebyankur/use-safe-submit/store"
)

func TestNewToken(t *testing.T) {
	first := NewToken()
	second := NewToken()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestSetHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/signup", nil)
	SetHeader(req, "attempt-1")

	assert.Equal(t, "attempt-1", req.Header.Get(safesubmit.HeaderKey))
}

func TestSetFormField(t *testing.T) {
	form := url.Values{}
	form.Set("email", "a@b.c")
	SetFormField(form, "attempt-1")

	assert.Equal(t, "attempt-1", form.Get(safesubmit.FormField))
}

func TestTransport_StampsHeader(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get(safesubmit.HeaderKey))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	transport := NewTransport(nil)
	httpClient := &http.Client{Transport: transport}

	// Every call during one submission attempt carries the same token
	for i := 0; i < 2; i++ {
		resp, err := httpClient.Post(server.URL, "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)
		resp.Body.Close()
	}

	require.Len(t, seen, 2)
	assert.Equal(t, transport.Token, seen[0])
	assert.Equal(t, seen[0], seen[1])
}

func TestTransport_ExistingHeaderWins(t *testing.T) {
	var seen string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(safesubmit.HeaderKey)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	httpClient := &http.Client{Transport: NewTransport(nil)}

	req, err := http.NewRequest(http.MethodPost, server.URL, strings.NewReader(`{}`))
	require.NoError(t, err)
	SetHeader(req, "explicit-token")

	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "explicit-token", seen)
}

func TestTransport_DoesNotMutateOriginalRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	httpClient := &http.Client{Transport: NewTransport(nil)}

	req, err := http.NewRequest(http.MethodPost, server.URL, nil)
	require.NoError(t, err)

	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, req.Header.Get(safesubmit.HeaderKey))
}

func TestTransport_EndToEndDeduplication(t *testing.T) {
	calls := 0
	handler := safesubmit.Middleware(
		safesubmit.WithStore(store.NewMemoryStore()),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	// One transport = one submission attempt; the retry is a duplicate.
	httpClient := &http.Client{Transport: NewTransport(nil)}

	resp1, err := httpClient.Post(server.URL, "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp1.Body.Close()
	assert.Equal(t, http.StatusOK, resp1.StatusCode)
	assert.NotEmpty(t, resp1.Header.Get(safesubmit.HeaderProcessed))

	resp2, err := httpClient.Post(server.URL, "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)
	assert.NotEmpty(t, resp2.Header.Get(safesubmit.HeaderUsed))

	// A fresh attempt gets a fresh token and goes through
	freshClient := &http.Client{Transport: NewTransport(nil)}
	resp3, err := freshClient.Post(server.URL, "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusOK, resp3.StatusCode)

	assert.Equal(t, 2, calls)
}
