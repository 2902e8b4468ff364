package rand_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openboards/boardkit/internal/rand"
)

func TestString(t *testing.T) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	s := rand.String(27)
	require.Len(t, s, 27)
	for _, r := range s {
		assert.True(t, strings.ContainsRune(charset, r), "unexpected rune %q", r)
	}

	assert.Empty(t, rand.String(0))
	assert.NotEqual(t, rand.String(27), rand.String(27))
}
