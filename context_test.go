package safesubmit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenFromContext(t *testing.T) {
	ctx := WithToken(context.Background(), "attempt-1")

	token, ok := TokenFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "attempt-1", token)
}

func TestTokenFromContext_Missing(t *testing.T) {
	_, ok := TokenFromContext(context.Background())
	assert.False(t, ok)

	_, ok = TokenFromContext(WithToken(context.Background(), ""))
	assert.False(t, ok)
}
