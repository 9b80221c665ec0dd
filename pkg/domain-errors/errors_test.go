package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeMatching(t *testing.T) {
	root := errors.New("connection refused")
	inner := Wrap(root, CodeUnavailable, "store unavailable")
	outer := Wrap(inner, CodeInternal, "failed to load listing")

	t.Run("Is only inspects the outermost coded error", func(t *testing.T) {
		assert.True(t, Is(outer, CodeInternal))
		assert.False(t, Is(outer, CodeUnavailable))
	})

	t.Run("HasCode walks the whole chain", func(t *testing.T) {
		assert.True(t, HasCode(outer, CodeInternal))
		assert.True(t, HasCode(outer, CodeUnavailable))
		assert.False(t, HasCode(outer, CodeNotFound))
	})

	t.Run("errors.Is still reaches the root cause", func(t *testing.T) {
		assert.ErrorIs(t, outer, root)
	})

	t.Run("codes survive fmt wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("handler: %w", New(CodeConflict, "duplicate"))
		assert.True(t, Is(wrapped, CodeConflict))
		assert.Equal(t, CodeConflict, CodeOf(wrapped))
	})

	t.Run("uncoded errors default to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(root))
		assert.False(t, Is(root, CodeInternal))
	})
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "not_found: listing missing", New(CodeNotFound, "listing missing").Error())
	assert.Equal(t, "internal_error: insert: boom", Wrap(errors.New("boom"), CodeInternal, "insert").Error())
}
