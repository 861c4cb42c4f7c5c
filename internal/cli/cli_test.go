package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/river-now/riverblog/internal/config"
	"github.com/river-now/riverblog/internal/content"
	"github.com/river-now/riverblog/internal/generate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// workspace switches into a fresh directory with an empty posts dir.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.Mkdir("posts", 0o755))
	return dir
}

func writePost(t *testing.T, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join("posts", name), []byte(body), 0o644))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, logs bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

const (
	postA  = "---\ndate: 2021-01-01\ntitle: A\nspoiler: first\n---\n\nHello from A.\n"
	postB  = "---\ndate: 2021-06-01\ntitle: B\nspoiler: second\n---\n\nHello from B.\n"
	broken = "---\ntitle: Broken\nspoiler: no date\n---\n\nOops.\n"
)

func TestPosts(t *testing.T) {
	workspace(t)
	writePost(t, "a.md", postA)
	writePost(t, "b.md", postB)

	t.Run("JSON", func(t *testing.T) {
		out, err := run(t, "posts", "--json")
		require.NoError(t, err)
		var summaries []content.PostSummary
		require.NoError(t, json.Unmarshal([]byte(out), &summaries))
		require.Len(t, summaries, 2)
		assert.Equal(t, "b", summaries[0].ID)
		assert.Equal(t, "a", summaries[1].ID)
	})

	t.Run("ListShowsFailures", func(t *testing.T) {
		writePost(t, "broken.md", broken)
		out, err := run(t, "posts")
		require.NoError(t, err)
		assert.Contains(t, out, "2 posts")
		assert.Less(t, bytes.Index([]byte(out), []byte("1 June, 2021")), bytes.Index([]byte(out), []byte("1 January, 2021")))
		assert.Contains(t, out, "broken")
		assert.Contains(t, out, "date is required")
	})
}

func TestPostsMissingContentDir(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := run(t, "posts")
	assert.ErrorContains(t, err, "content dir")
}

func TestNew(t *testing.T) {
	workspace(t)

	out, err := run(t, "new", "hello-world", "--date", "2024-05-01")
	require.NoError(t, err)
	path := filepath.Join("posts", "hello-world.md")
	assert.Equal(t, path+"\n", out)

	jsonOut, err := run(t, "posts", "--json")
	require.NoError(t, err)
	var summaries []content.PostSummary
	require.NoError(t, json.Unmarshal([]byte(jsonOut), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "hello-world", summaries[0].ID)
	assert.Equal(t, "Hello World", summaries[0].Title)
	assert.Equal(t, "2024-05-01", summaries[0].Date)

	t.Run("NeverOverwrites", func(t *testing.T) {
		_, err := run(t, "new", "hello-world")
		assert.ErrorContains(t, err, "already exists")
	})

	t.Run("RejectsBadID", func(t *testing.T) {
		_, err := run(t, "new", "../escape")
		assert.ErrorContains(t, err, "invalid post id")
	})

	t.Run("RejectsReservedID", func(t *testing.T) {
		for _, id := range []string{"index", "posts", "healthz"} {
			_, err := run(t, "new", id)
			assert.ErrorContains(t, err, "reserved", id)
			assert.NoFileExists(t, filepath.Join("posts", id+".md"))
		}
	})

	t.Run("RejectsBadDate", func(t *testing.T) {
		_, err := run(t, "new", "dated", "--date", "yesterday")
		assert.Error(t, err)
		assert.NoFileExists(t, filepath.Join("posts", "dated.md"))
	})
}

func TestBuild(t *testing.T) {
	workspace(t)
	writePost(t, "a.md", postA)

	_, err := run(t, "build", "--out", "site")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join("site", "index.html"))
	assert.FileExists(t, filepath.Join("site", "a.html"))
	assert.FileExists(t, filepath.Join("site", generate.ManifestName))

	writePost(t, "broken.md", broken)

	t.Run("StrictFails", func(t *testing.T) {
		_, err := run(t, "build", "--out", "site")
		require.Error(t, err)
		assert.True(t, generate.IsBuildError(err))
		assert.FileExists(t, filepath.Join("site", "a.html"))
	})

	t.Run("LenientSucceeds", func(t *testing.T) {
		_, err := run(t, "build", "--out", "site", "--strict=false")
		require.NoError(t, err)
		assert.NoFileExists(t, filepath.Join("site", "broken.html"))
	})

	t.Run("ConfigFile", func(t *testing.T) {
		require.NoError(t, os.WriteFile(config.FileName+".yaml", []byte("build:\n  out_dir: public\n  strict: false\n"), 0o644))
		_, err := run(t, "build")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join("public", "index.html"))
	})
}

func TestBuildWithAboutAndLinks(t *testing.T) {
	workspace(t)
	writePost(t, "a.md", postA)
	require.NoError(t, os.MkdirAll(filepath.Join("public", "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("public", "images", "me.jpg"), []byte("jpeg"), 0o644))
	require.NoError(t, os.WriteFile(config.FileName+".yaml", []byte(`
site:
  title: Frontend blog.
  description: Notes on frontend
  author: Jane Doe
  avatar: /public/images/me.jpg
  links:
    - name: github
      url: https://github.com/example
`), 0o644))

	_, err := run(t, "build")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join("out", generate.PublicDir, "images", "me.jpg"))
	home, err := os.ReadFile(filepath.Join("out", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(home), `src="/public/images/me.jpg" alt="Jane Doe"`)
	assert.Contains(t, string(home), `href="https://github.com/example"`)
}

func TestTheme(t *testing.T) {
	workspace(t)
	file := filepath.Join(t.TempDir(), "theme")

	out, err := run(t, "theme", "show", "--file", file)
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)

	out, err = run(t, "theme", "toggle", "--file", file)
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	out, err = run(t, "theme", "show", "--file", file)
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	out, err = run(t, "theme", "toggle", "--file", file)
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)
}

func TestIsPostFile(t *testing.T) {
	a := &app{cfg: &config.Config{Content: config.Content{Dir: "posts", Pattern: "**/*.md"}}}
	assert.True(t, a.isPostFile(filepath.Join("posts", "a.md")))
	assert.True(t, a.isPostFile(filepath.Join("posts", "2024", "a.md")))
	assert.False(t, a.isPostFile(filepath.Join("posts", "a.txt")))
	assert.False(t, a.isPostFile(filepath.Join("posts", ".a.md.swp")))
}
