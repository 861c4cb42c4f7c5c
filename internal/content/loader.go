// Package content loads blog posts from markdown source files.
//
// Each file matching the loader's pattern is one post. Its id is the
// file name without extension, its metadata lives in a front matter
// block, and its body is converted to HTML by a markdown.Renderer.
package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/river-now/riverblog/internal/content/markdown"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPattern     = "*.md"
	DefaultConcurrency = 8
)

type Options struct {
	// Required. Rooted at the posts directory.
	FS fs.FS
	// Optional. Doublestar pattern relative to FS. Defaults to "*.md".
	Pattern string
	// Optional. Defaults to markdown.Blackfriday().
	Markdown markdown.Renderer
	// Optional. Max posts parsed at once by ReadAll. Defaults to 8.
	Concurrency int
	// Optional. Defaults to a no-op logger.
	Logger *zap.Logger
}

type Loader struct {
	fsys        fs.FS
	pattern     string
	md          markdown.Renderer
	concurrency int
	log         *zap.SugaredLogger
}

func NewLoader(opts Options) (*Loader, error) {
	if opts.FS == nil {
		return nil, errors.New("content: FS is required")
	}
	l := &Loader{
		fsys:        opts.FS,
		pattern:     opts.Pattern,
		md:          opts.Markdown,
		concurrency: opts.Concurrency,
	}
	if l.pattern == "" {
		l.pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(l.pattern) {
		return nil, fmt.Errorf("content: invalid pattern %q", l.pattern)
	}
	if l.md == nil {
		l.md = markdown.Blackfriday()
	}
	if l.concurrency <= 0 {
		l.concurrency = DefaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	l.log = logger.Sugar()
	return l, nil
}

// Source is one post file: its id and its path within the loader's FS.
type Source struct {
	ID   string
	Path string
}

// Sources enumerates every post file, ordered by id.
func (l *Loader) Sources(ctx context.Context) ([]Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := doublestar.Glob(l.fsys, l.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("content: listing %q: %w", l.pattern, err)
	}

	byID := make(map[string][]string, len(matches))
	for _, p := range matches {
		id := idFromPath(p)
		byID[id] = append(byID[id], p)
	}

	sources := make([]Source, 0, len(byID))
	for id, paths := range byID {
		if len(paths) > 1 {
			slices.Sort(paths)
			return nil, &DuplicateIDError{ID: id, Paths: paths}
		}
		sources = append(sources, Source{ID: id, Path: paths[0]})
	}
	slices.SortFunc(sources, func(a, b Source) int { return strings.Compare(a.ID, b.ID) })
	return sources, nil
}

// IDs returns the id of every available post, in lexical order.
func (l *Loader) IDs(ctx context.Context) ([]string, error) {
	sources, err := l.Sources(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(sources))
	for i, s := range sources {
		ids[i] = s.ID
	}
	return ids, nil
}

// Get loads a single post. An id with no matching source file yields a
// *NotFoundError.
func (l *Loader) Get(ctx context.Context, id string) (*Post, error) {
	if !ValidID(id) {
		return nil, &NotFoundError{ID: id}
	}
	sources, err := l.Sources(ctx)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(sources, func(s Source) bool { return s.ID == id })
	if i < 0 {
		return nil, &NotFoundError{ID: id}
	}
	return l.Read(ctx, sources[i])
}

// Read loads a post from an already enumerated source. A source with a
// reserved id fails with a *ParseError wrapping ErrReservedID.
func (l *Loader) Read(ctx context.Context, src Source) (*Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if Reserved(src.ID) {
		return nil, &ParseError{ID: src.ID, Path: src.Path, Err: ErrReservedID}
	}
	raw, err := fs.ReadFile(l.fsys, src.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{ID: src.ID}
		}
		return nil, fmt.Errorf("content: reading %s: %w", src.Path, err)
	}
	post, err := parsePost(src.ID, src.Path, raw, l.md)
	if err != nil {
		return nil, err
	}
	l.log.Debugw("Loaded post", "id", post.ID, "date", post.Date)
	return post, nil
}

// Result is the outcome of reading one source. Exactly one of Post and
// Err is set.
type Result struct {
	ID   string
	Post *Post
	Err  error
}

// ReadAll reads every source concurrently. Results are in the same
// order as sources, and a failure of one never stops the others.
func (l *Loader) ReadAll(ctx context.Context, sources []Source) []Result {
	results := make([]Result, len(sources))

	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			post, err := l.Read(ctx, src)
			results[i] = Result{ID: src.ID, Post: post, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func idFromPath(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// ReservedIDs name the files a build writes next to the posts and the
// top-level routes the server answers itself. A post with one of these
// ids would overwrite or be shadowed by them.
var ReservedIDs = []string{
	"404", "index", "posts", "build",
	"api", "assets", "healthz", "public", "theme", "__livereload",
}

// Reserved reports whether id is one of ReservedIDs. Case is ignored
// since the output may land on a case-insensitive filesystem.
func Reserved(id string) bool {
	return slices.ContainsFunc(ReservedIDs, func(r string) bool { return strings.EqualFold(r, id) })
}

// ValidID reports whether id can name a post: non-empty and free of
// path separators and dot segments.
func ValidID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}
