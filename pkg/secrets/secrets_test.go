package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "heirloom/pkg/domain-errors"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("4077")
	require.NoError(t, err)
	assert.NotEqual(t, "4077", hash)

	assert.True(t, Verify("4077", hash))
	assert.False(t, Verify("4078", hash))
	assert.False(t, Verify("", hash))
	assert.False(t, Verify("4077", ""))
}

func TestHashRejectsBadInput(t *testing.T) {
	_, err := Hash("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	// bcrypt caps input at 72 bytes.
	_, err = Hash(strings.Repeat("x", 100))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestGenerate(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
