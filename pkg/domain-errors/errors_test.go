package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outer code", func(t *testing.T) {
		err := New(CodeSigningFailed, "declined")
		assert.True(t, HasCode(err, CodeSigningFailed))
		assert.False(t, HasCode(err, CodeSubmissionFailed))
	})

	t.Run("matches code wrapped by fmt", func(t *testing.T) {
		err := fmt.Errorf("mint: %w", New(CodeWalletNotConnected, "connect first"))
		assert.True(t, HasCode(err, CodeWalletNotConnected))
	})

	t.Run("matches inner code of nested domain errors", func(t *testing.T) {
		inner := New(CodeUnavailable, "store down")
		err := Wrap(inner, CodeInternal, "lookup failed")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeUnavailable))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("network unreachable")
	err := Wrap(cause, CodeSubmissionFailed, "transaction was rejected")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "transaction was rejected: network unreachable", err.Error())
	assert.Equal(t, "transaction was rejected", Message(err))
	assert.Equal(t, CodeSubmissionFailed, CodeOf(err))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, "an unexpected error occurred", Message(errors.New("boom")))
}
