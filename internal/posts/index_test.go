package posts

import (
	"context"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/river-now/riverblog/internal/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func post(date, title string) *fstest.MapFile {
	src := fmt.Sprintf("---\ndate: %q\ntitle: %s\nspoiler: about %s\n---\n\nBody of %s.\n", date, title, title, title)
	return &fstest.MapFile{Data: []byte(src)}
}

func newIndex(t *testing.T, fsys fstest.MapFS) *Index {
	t.Helper()
	loader, err := content.NewLoader(content.Options{FS: fsys, Concurrency: 2})
	require.NoError(t, err)
	return NewIndex(loader, nil)
}

func titles(summaries []content.PostSummary) []string {
	out := make([]string, len(summaries))
	for i, s := range summaries {
		out[i] = s.Title
	}
	return out
}

func TestSortedPosts(t *testing.T) {
	ctx := context.Background()

	t.Run("MostRecentFirst", func(t *testing.T) {
		idx := newIndex(t, fstest.MapFS{
			"a.md": post("2021-01-01", "A"),
			"b.md": post("2021-06-01", "B"),
		})
		sorted, err := idx.SortedPosts(ctx)
		require.NoError(t, err)
		if diff := cmp.Diff([]string{"B", "A"}, titles(sorted)); diff != "" {
			t.Errorf("unexpected order (-want +got):\n%s", diff)
		}
	})

	t.Run("NonIncreasing", func(t *testing.T) {
		idx := newIndex(t, fstest.MapFS{
			"p1.md": post("2019-12-31", "P1"),
			"p2.md": post("2023-02-14", "P2"),
			"p3.md": post("2020-07-04T10:00:00Z", "P3"),
			"p4.md": post("2020-07-04", "P4"),
			"p5.md": post("2022-05-05", "P5"),
		})
		sorted, err := idx.SortedPosts(ctx)
		require.NoError(t, err)
		require.Len(t, sorted, 5)
		for i := 1; i < len(sorted); i++ {
			assert.False(t, sorted[i].PublishedAt.After(sorted[i-1].PublishedAt),
				"%s sorted after %s", sorted[i].ID, sorted[i-1].ID)
		}
	})

	t.Run("StableForEqualDates", func(t *testing.T) {
		idx := newIndex(t, fstest.MapFS{
			"alpha.md":    post("2021-03-03", "Alpha"),
			"beta.md":     post("2021-03-03", "Beta"),
			"gamma.md":    post("2021-03-03", "Gamma"),
			"newest.md":   post("2024-01-01", "Newest"),
			"earliest.md": post("2001-01-01", "Earliest"),
		})
		ids, err := idx.PostIDs(ctx)
		require.NoError(t, err)
		sorted, err := idx.SortedPosts(ctx)
		require.NoError(t, err)

		var tied []string
		for _, s := range sorted {
			if s.Date == "2021-03-03" {
				tied = append(tied, s.ID)
			}
		}
		var want []string
		for _, id := range ids {
			if id == "alpha" || id == "beta" || id == "gamma" {
				want = append(want, id)
			}
		}
		if diff := cmp.Diff(want, tied); diff != "" {
			t.Errorf("ties reordered (-want +got):\n%s", diff)
		}
		assert.Equal(t, "Newest", sorted[0].Title)
		assert.Equal(t, "Earliest", sorted[len(sorted)-1].Title)
	})
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingDateFailsOnlyThatPost", func(t *testing.T) {
		idx := newIndex(t, fstest.MapFS{
			"a.md":       post("2021-01-01", "A"),
			"b.md":       post("2021-06-01", "B"),
			"undated.md": {Data: []byte("---\ntitle: Undated\nspoiler: oops\n---\n\nNo date here.\n")},
		})
		snap, err := idx.Snapshot(ctx)
		require.NoError(t, err)

		assert.Equal(t, []string{"a", "b", "undated"}, snap.IDs)
		assert.Equal(t, []string{"B", "A"}, titles(snap.Sorted))
		assert.Len(t, snap.Posts, 2)
		require.Contains(t, snap.Failures, "undated")
		assert.True(t, content.IsParseError(snap.Failures["undated"]))
		assert.ErrorContains(t, snap.Err(), "date is required")
	})

	t.Run("EveryIDIsAccountedFor", func(t *testing.T) {
		idx := newIndex(t, fstest.MapFS{
			"a.md":   post("2021-01-01", "A"),
			"bad.md": {Data: []byte("---\ntitle: [\n---\n")},
		})
		snap, err := idx.Snapshot(ctx)
		require.NoError(t, err)
		for _, id := range snap.IDs {
			_, ok := snap.Posts[id]
			_, failed := snap.Failures[id]
			assert.True(t, ok != failed, "id %q must be exactly one of loaded or failed", id)
		}
	})

	t.Run("EveryLoadedPostIsComplete", func(t *testing.T) {
		idx := newIndex(t, fstest.MapFS{
			"a.md": post("2021-01-01", "A"),
			"b.md": post("2021-06-01", "B"),
		})
		snap, err := idx.Snapshot(ctx)
		require.NoError(t, err)
		assert.NoError(t, snap.Err())
		for _, id := range snap.IDs {
			p := snap.Posts[id]
			require.NotNil(t, p, id)
			assert.NotEmpty(t, p.Title)
			assert.False(t, p.PublishedAt.IsZero())
			assert.NotEmpty(t, p.ContentHTML)
		}
	})

	t.Run("DuplicateIDAbortsPass", func(t *testing.T) {
		loader, err := content.NewLoader(content.Options{
			FS:      fstest.MapFS{"a.md": post("2021-01-01", "A"), "old/a.md": post("2020-01-01", "A")},
			Pattern: "**/*.md",
		})
		require.NoError(t, err)
		_, err = NewIndex(loader, nil).Snapshot(ctx)
		var dup *content.DuplicateIDError
		assert.ErrorAs(t, err, &dup)
	})

	t.Run("Canceled", func(t *testing.T) {
		idx := newIndex(t, fstest.MapFS{"a.md": post("2021-01-01", "A")})
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := idx.Snapshot(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSortByDateKeepsInputOrderForTies(t *testing.T) {
	loader, err := content.NewLoader(content.Options{FS: fstest.MapFS{
		"x.md": post("2020-01-01", "X"),
		"y.md": post("2020-01-01", "Y"),
		"z.md": post("2020-01-01", "Z"),
	}})
	require.NoError(t, err)
	ctx := context.Background()

	var in []content.PostSummary
	for _, id := range []string{"z", "x", "y"} {
		p, err := loader.Get(ctx, id)
		require.NoError(t, err)
		in = append(in, p.Summary())
	}
	assert.Equal(t, []string{"Z", "X", "Y"}, titles(SortByDate(in)))
}
