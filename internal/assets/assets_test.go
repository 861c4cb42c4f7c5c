package assets

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)

	again, err := Load()
	require.NoError(t, err)
	assert.Same(t, b, again)

	hashed := regexp.MustCompile(`^(style|theme|livereload)\.[0-9a-f]{8}\.(css|js)$`)
	for _, name := range []string{StyleName, ThemeName, LiveReloadName} {
		a, ok := b.Get(name)
		require.True(t, ok, name)
		assert.Regexp(t, hashed, a.HashedName)
		assert.NotEmpty(t, a.Body)
		assert.True(t, strings.HasPrefix(a.URL(), Prefix))

		byHash, ok := b.Lookup(a.HashedName)
		require.True(t, ok)
		assert.Same(t, a, byHash)
	}

	style, _ := b.Get(StyleName)
	assert.Equal(t, "text/css; charset=utf-8", style.ContentType)
	assert.NotContains(t, string(style.Body), "\n  ")

	assert.Contains(t, b.InlineTheme(), "localStorage")
	assert.Len(t, b.Files(false), 1)
	assert.Len(t, b.Files(true), 2)

	_, ok := b.Lookup("style.css")
	assert.False(t, ok)
}

func TestThemeScript(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)
	js := b.InlineTheme()

	// Only pages built for static hosting run the client-side toggle.
	assert.Contains(t, js, `"data-theme-mode"`)
	assert.Contains(t, js, `"static"`)
	// The choice is read from and written to localStorage under "theme",
	// and storage failures are caught.
	assert.Contains(t, js, "localStorage.getItem")
	assert.Contains(t, js, "localStorage.setItem")
	assert.Contains(t, js, "catch")
	// It hooks the same form the server handles and relabels its button.
	assert.Contains(t, js, "data-theme-toggle")
	assert.Contains(t, js, "data-label-light")
	assert.Contains(t, js, "data-label-dark")
	assert.Contains(t, js, "preventDefault")
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("style.css", []byte("body{}"))
	b := Fingerprint("style.css", []byte("body{}"))
	c := Fingerprint("style.css", []byte("body{color:red}"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasSuffix(a, ".css"))
}
