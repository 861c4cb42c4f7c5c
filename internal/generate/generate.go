// Package generate writes the whole blog to a directory as static files.
package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/river-now/riverblog/internal/assets"
	"github.com/river-now/riverblog/internal/posts"
	"github.com/river-now/riverblog/internal/site"
	"github.com/river-now/riverblog/internal/theme"
	"github.com/river-now/riverblog/kit/jsonutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	ManifestName = "build.json"
	IndexJSON    = "posts.json"
	NotFoundPage = "404.html"
	AssetsDir    = "assets"
	// PublicDir holds the files copied from Options.Public, such as the
	// avatar image.
	PublicDir = "public"
)

type Options struct {
	// Required.
	Index *posts.Index
	// Required. Should be built with Static set.
	Site *site.Renderer
	// Required.
	Assets *assets.Bundle
	// Required. Emptied before writing.
	OutDir string
	// Optional. Theme baked into the pages. Defaults to light.
	Theme theme.Theme
	// Optional. Copied as is under public/.
	Public fs.FS
	// Also write the live-reload client.
	Dev bool
	// Optional. Max files written at once. Defaults to 8.
	Concurrency int
	// Optional. Defaults to a no-op logger.
	Logger *zap.Logger
	// Optional. Defaults to time.Now.
	Now func() time.Time
}

// Manifest describes one build. It is written to build.json.
type Manifest struct {
	BuildID     string    `json:"buildId"`
	GeneratedAt time.Time `json:"generatedAt"`
	Pages       []string  `json:"pages"`
	Assets      []string  `json:"assets"`
	Failed      []string  `json:"failed,omitempty"`
}

// BuildError reports the posts whose pages could not be generated.
// Every other page was still written.
type BuildError struct {
	Failures map[string]error
}

func (e *BuildError) IDs() []string { return slices.Sorted(maps.Keys(e.Failures)) }

func (e *BuildError) Error() string {
	ids := e.IDs()
	return fmt.Sprintf("%d post(s) failed to generate: %s", len(ids), strings.Join(ids, ", "))
}

func (e *BuildError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, id := range e.IDs() {
		errs = append(errs, e.Failures[id])
	}
	return errs
}

func IsBuildError(err error) bool {
	var be *BuildError
	return errors.As(err, &be)
}

// Run generates the site. A post that fails to load is skipped and
// reported through a *BuildError returned alongside the manifest; any
// other failure aborts the build.
func Run(ctx context.Context, opts Options) (*Manifest, error) {
	if opts.Index == nil || opts.Site == nil || opts.Assets == nil {
		return nil, errors.New("generate: index, site and assets are required")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Sugar()

	if err := resetDir(opts.OutDir); err != nil {
		return nil, err
	}

	snap, err := opts.Index.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate: loading posts: %w", err)
	}

	holder := theme.NewHolder(theme.Options{Default: opts.Theme, Logger: logger})
	page := site.PageData{Theme: holder}
	w := &writer{dir: opts.OutDir}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	g.Go(func() error {
		return w.render(gctx, "index.html", func(b *bytes.Buffer) error {
			return opts.Site.Index(b, site.IndexData{PageData: page, Posts: snap.Sorted})
		})
	})
	g.Go(func() error {
		return w.json(gctx, IndexJSON, snap.Sorted)
	})
	g.Go(func() error {
		return w.render(gctx, NotFoundPage, func(b *bytes.Buffer) error {
			return opts.Site.NotFound(b, page)
		})
	})
	for _, id := range snap.IDs {
		post, ok := snap.Posts[id]
		if !ok {
			continue
		}
		g.Go(func() error {
			return w.render(gctx, id+".html", func(b *bytes.Buffer) error {
				return opts.Site.Post(b, site.PostData{PageData: page, Post: post})
			})
		})
		g.Go(func() error {
			return w.json(gctx, id+".json", post)
		})
	}
	for _, a := range opts.Assets.Files(opts.Dev) {
		g.Go(func() error {
			return w.file(gctx, filepath.Join(AssetsDir, a.HashedName), a.Body)
		})
	}
	if opts.Public != nil {
		err := fs.WalkDir(opts.Public, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			g.Go(func() error {
				data, err := fs.ReadFile(opts.Public, p)
				if err != nil {
					return fmt.Errorf("generate: reading public file %s: %w", p, err)
				}
				return w.file(gctx, filepath.Join(PublicDir, filepath.FromSlash(p)), data)
			})
			return nil
		})
		if err != nil {
			_ = g.Wait()
			return nil, fmt.Errorf("generate: listing public files: %w", err)
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := &Manifest{
		BuildID:     uuid.NewString(),
		GeneratedAt: opts.Now().UTC(),
		Pages:       w.written(),
	}
	for _, a := range opts.Assets.Files(opts.Dev) {
		m.Assets = append(m.Assets, a.URL())
	}
	for id := range snap.Failures {
		m.Failed = append(m.Failed, id)
	}
	slices.Sort(m.Failed)
	if err := jsonutil.WriteFile(filepath.Join(opts.OutDir, ManifestName), m); err != nil {
		return nil, err
	}

	log.Infow("Generated site",
		"out", opts.OutDir,
		"buildId", m.BuildID,
		"pages", len(m.Pages),
		"failed", len(m.Failed),
	)

	if len(snap.Failures) > 0 {
		return m, &BuildError{Failures: snap.Failures}
	}
	return m, nil
}

func resetDir(dir string) error {
	clean := filepath.Clean(dir)
	if dir == "" || clean == "." || clean == string(filepath.Separator) {
		return fmt.Errorf("generate: refusing to use %q as the output directory", dir)
	}
	if err := os.RemoveAll(clean); err != nil {
		return fmt.Errorf("generate: cleaning %s: %w", clean, err)
	}
	if err := os.MkdirAll(filepath.Join(clean, AssetsDir), 0o755); err != nil {
		return fmt.Errorf("generate: creating %s: %w", clean, err)
	}
	return nil
}

type writer struct {
	dir   string
	mu    sync.Mutex
	pages []string
}

func (w *writer) render(ctx context.Context, name string, fn func(*bytes.Buffer) error) error {
	var b bytes.Buffer
	if err := fn(&b); err != nil {
		return fmt.Errorf("generate: rendering %s: %w", name, err)
	}
	if err := w.file(ctx, name, b.Bytes()); err != nil {
		return err
	}
	w.mu.Lock()
	w.pages = append(w.pages, name)
	w.mu.Unlock()
	return nil
}

func (w *writer) json(ctx context.Context, name string, v any) error {
	data, err := jsonutil.SerializeIndent(v)
	if err != nil {
		return fmt.Errorf("generate: encoding %s: %w", name, err)
	}
	return w.file(ctx, name, data)
}

func (w *writer) file(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := filepath.Join(w.dir, name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("generate: creating directory for %s: %w", name, err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("generate: writing %s: %w", name, err)
	}
	return nil
}

func (w *writer) written() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Sorted(slices.Values(w.pages))
}
