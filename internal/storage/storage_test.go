package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t,
		"reports/r1/abc123.pdf",
		ObjectKey("r1", "abc123", "quarterly report.pdf"),
	)

	// Extension only; the rest of the user filename never reaches the key.
	assert.Equal(t,
		"reports/r1/abc123",
		ObjectKey("r1", "abc123", "no-extension"),
	)

	// Traversal attempts in the filename cannot escape the report prefix.
	key := ObjectKey("r1", "abc123", "../../etc/shadow.txt")
	assert.Equal(t, "reports/r1/abc123.txt", key)
	assert.NotContains(t, key, "..")
}
