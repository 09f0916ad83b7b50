package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	err := New(CodeCooldownActive, "try again later")

	assert.True(t, HasCode(err, CodeCooldownActive))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(nil, CodeCooldownActive))
	assert.False(t, HasCode(errors.New("plain"), CodeCooldownActive))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeInternal, "ignored"))

	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "failed to load record")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Equal(t, "failed to load record", MessageOf(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestWrapSeesThroughFmtChains(t *testing.T) {
	inner := New(CodeNotEligible, "requires an OWNER or ADMIN role")
	wrapped := fmt.Errorf("request unlock: %w", inner)

	assert.Equal(t, CodeNotEligible, CodeOf(wrapped))
	assert.Equal(t, "requires an OWNER or ADMIN role", MessageOf(wrapped))
	assert.True(t, HasCode(wrapped, CodeNotEligible))
}

func TestDefaults(t *testing.T) {
	plain := errors.New("pq: connection refused")

	assert.Equal(t, CodeInternal, CodeOf(plain))
	assert.Equal(t, "internal error", MessageOf(plain))
}
