package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabel(t *testing.T) {
	seen := make(map[string]bool)
	for range 500 {
		l := Label()
		require.Len(t, l, 8)
		for _, c := range l {
			require.True(t, strings.ContainsRune(Alphanumeric, c), "unexpected %q in %q", c, l)
		}
		assert.False(t, seen[l], "duplicate label %q", l)
		seen[l] = true
	}
}

func TestNewAlphabets(t *testing.T) {
	t.Run("Lengths", func(t *testing.T) {
		for _, n := range []int{-1, 0, 1, 7, 64, 1000} {
			s, err := New(n, "")
			require.NoError(t, err)
			assert.Len(t, s, max(n, 0))
		}
	})

	t.Run("SingleSymbol", func(t *testing.T) {
		s, err := New(6, "x")
		require.NoError(t, err)
		assert.Equal(t, "xxxxxx", s)
	})

	t.Run("StaysInAlphabet", func(t *testing.T) {
		s, err := New(200, "01")
		require.NoError(t, err)
		assert.Empty(t, strings.Trim(s, "01"))
		assert.Contains(t, s, "0")
		assert.Contains(t, s, "1")
	})

	t.Run("FullByteRange", func(t *testing.T) {
		var all strings.Builder
		for i := range 256 {
			all.WriteByte(byte(i))
		}
		s, err := New(32, all.String())
		require.NoError(t, err)
		assert.Len(t, s, 32)
	})

	t.Run("TooLarge", func(t *testing.T) {
		_, err := New(4, strings.Repeat("a", 257))
		assert.ErrorIs(t, err, ErrAlphabet)
	})
}
