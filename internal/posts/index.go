// Package posts builds the ordered post listing on top of a content
// loader.
package posts

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/river-now/riverblog/internal/content"
	"go.uber.org/zap"
)

type Index struct {
	loader *content.Loader
	log    *zap.SugaredLogger
}

func NewIndex(loader *content.Loader, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{loader: loader, log: logger.Sugar()}
}

func (x *Index) Loader() *content.Loader { return x.loader }

// Snapshot is the result of one generation pass. IDs and Posts are
// derived from the same enumeration, so every id is either in Posts
// or in Failures.
type Snapshot struct {
	IDs      []string
	Posts    map[string]*content.Post
	Failures map[string]error
	Sorted   []content.PostSummary
}

// Snapshot enumerates the sources once and loads each of them. A post
// that fails to load is recorded in Failures and left out of Sorted;
// only enumeration errors abort the pass.
func (x *Index) Snapshot(ctx context.Context) (*Snapshot, error) {
	sources, err := x.loader.Sources(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		IDs:      make([]string, len(sources)),
		Posts:    make(map[string]*content.Post, len(sources)),
		Failures: make(map[string]error),
	}
	for i, src := range sources {
		snap.IDs[i] = src.ID
	}

	results := x.loader.ReadAll(ctx, sources)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summaries := make([]content.PostSummary, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			snap.Failures[res.ID] = res.Err
			x.log.Warnw("Skipping post", "id", res.ID, "error", res.Err)
			continue
		}
		snap.Posts[res.ID] = res.Post
		summaries = append(summaries, res.Post.Summary())
	}
	snap.Sorted = SortByDate(summaries)

	return snap, nil
}

// Err joins every per-post failure, in id order. Nil when the pass was
// clean.
func (s *Snapshot) Err() error {
	if len(s.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(s.Failures))
	for _, id := range slices.Sorted(maps.Keys(s.Failures)) {
		errs = append(errs, s.Failures[id])
	}
	return errors.Join(errs...)
}

// SortedPosts returns the summaries of every loadable post, most recent
// first.
func (x *Index) SortedPosts(ctx context.Context) ([]content.PostSummary, error) {
	snap, err := x.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Sorted, nil
}

// PostIDs returns the id of every addressable post page.
func (x *Index) PostIDs(ctx context.Context) ([]string, error) {
	return x.loader.IDs(ctx)
}

// SortByDate orders summaries by publication date, descending. Posts
// sharing a date keep their relative input order.
func SortByDate(summaries []content.PostSummary) []content.PostSummary {
	slices.SortStableFunc(summaries, func(a, b content.PostSummary) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	return summaries
}
