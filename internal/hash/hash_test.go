package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum(t *testing.T) {
	// Known SHA-256 vector.
	assert.Equal(t,
		"b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		Sum([]byte("hello world")),
	)

	// Deterministic.
	assert.Equal(t, Sum([]byte("abc")), Sum([]byte("abc")))
	assert.NotEqual(t, Sum([]byte("abc")), Sum([]byte("abd")))
}

func TestDigest(t *testing.T) {
	d, err := Digest(strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, Sum([]byte("hello world")), d)

	empty, err := Digest(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Sum(nil), empty)
}
