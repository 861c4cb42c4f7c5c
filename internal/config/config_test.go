package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/river-now/riverblog/internal/theme"
	"github.com/river-now/riverblog/kit/validate"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestDefaults(t *testing.T) {
	c, err := Load(LoadOptions{Dir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "riverblog", c.Site.Title)
	assert.Equal(t, "en", c.Site.Locale)
	assert.Equal(t, "posts", c.Content.Dir)
	assert.Equal(t, "*.md", c.Content.Pattern)
	assert.Equal(t, 8, c.Content.Concurrency)
	assert.Equal(t, "blackfriday", c.Markdown.Engine)
	assert.False(t, c.Markdown.ExternalLinks)
	assert.Equal(t, theme.Light, c.ThemeDefault())
	assert.Equal(t, "out", c.Build.OutDir)
	assert.True(t, c.Build.Strict)
	assert.Equal(t, DefaultPort, c.Server.Port)
	assert.Equal(t, ":3000", c.Addr())
	assert.False(t, c.Server.Dev)
}

func TestPrecedence(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "riverblog.yaml", `
site:
  title: Frontend blog.
  locale: ru
markdown:
  engine: goldmark
build:
  strict: false
server:
  port: 4000
`)
	write(t, dir, ".env", "RIVERBLOG_SITE_DESCRIPTION=from dotenv\n")
	t.Setenv("RIVERBLOG_MARKDOWN_ENGINE", "blackfriday")

	c, err := Load(LoadOptions{
		Dir: dir,
		Bind: func(v *viper.Viper) error {
			v.Set("server.dev", true)
			return nil
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { os.Unsetenv("RIVERBLOG_SITE_DESCRIPTION") })

	assert.Equal(t, "Frontend blog.", c.Site.Title)
	assert.Equal(t, "ru", c.Site.Locale)
	assert.Equal(t, "from dotenv", c.Site.Description)
	assert.Equal(t, "blackfriday", c.Markdown.Engine)
	assert.False(t, c.Build.Strict)
	assert.Equal(t, 4000, c.Server.Port)
	assert.True(t, c.Server.Dev)
}

func TestPortEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	c, err := Load(LoadOptions{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 8080, c.Server.Port)

	t.Setenv("RIVERBLOG_SERVER_PORT", "9090")
	c, err = Load(LoadOptions{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 9090, c.Server.Port)
}

func TestExplicitFileMustExist(t *testing.T) {
	_, err := Load(LoadOptions{Dir: t.TempDir(), File: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestSiteLinks(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "riverblog.yaml", `
site:
  avatar: https://example.com/me.jpg
  links:
    - name: github
      url: https://github.com/example
    - name: mail
      url: mailto:me@example.com
`)
	c, err := Load(LoadOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, "public", c.Site.PublicDir)
	assert.Equal(t, []Link{
		{Name: "github", URL: "https://github.com/example"},
		{Name: "mail", URL: "mailto:me@example.com"},
	}, c.Site.Links)

	bad := t.TempDir()
	write(t, bad, "riverblog.yaml", `
site:
  avatar: me.jpg
  links:
    - name: github
      url: javascript:alert(1)
    - url: https://example.com
`)
	_, err = Load(LoadOptions{Dir: bad})
	require.Error(t, err)
	assert.ErrorContains(t, err, `"me.jpg" is not an http(s) or mailto URL`)
	assert.ErrorContains(t, err, "link 0")
	assert.ErrorContains(t, err, "link 1: Name is required")
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "riverblog.yaml", `
content:
  pattern: "[unclosed"
  concurrency: -2
markdown:
  engine: pandoc
theme:
  default: sepia
server:
  port: 70000
`)
	_, err := Load(LoadOptions{Dir: dir})
	require.Error(t, err)
	assert.True(t, validate.IsValidationError(err))

	var fields []string
	for _, fe := range validate.FieldErrors(err) {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"Content", "Markdown", "Theme", "Server"}, fields)
	assert.ErrorContains(t, err, "Concurrency: must be positive")
	assert.ErrorContains(t, err, `invalid pattern "[unclosed"`)
	assert.ErrorContains(t, err, "must be between 1 and 65535")
}
