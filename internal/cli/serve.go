package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/river-now/riverblog/internal/server"
	"github.com/river-now/riverblog/kit/livereload"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog over HTTP",
		Long: `serve renders pages on each request, so edits to posts show up on
the next page load. With --dev the content directory is also watched
and open pages reload themselves when a post changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().IntP("port", "p", 0, "port to listen on (default from config or $PORT, 3000)")
	cmd.Flags().Bool("dev", false, "watch posts and live-reload open pages")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	dev := a.cfg.Server.Dev
	idx, err := a.newIndex()
	if err != nil {
		return err
	}
	r, bundle, err := a.newSite(false, dev)
	if err != nil {
		return err
	}

	var hub *livereload.Hub
	var watcher *livereload.Watcher
	if dev {
		hub = livereload.NewHub(a.log)
		defer hub.Close()
		watcher, err = livereload.NewWatcher(livereload.WatcherOptions{
			Dir:      a.cfg.Content.Dir,
			Filter:   a.isPostFile,
			OnChange: func([]string) { hub.Reload() },
			Logger:   a.log,
		})
		if err != nil {
			return err
		}
	}

	srv, err := server.New(server.Options{
		Index:      idx,
		Site:       r,
		Assets:     bundle,
		Theme:      a.cfg.ThemeDefault(),
		BuildID:    uuid.NewString(),
		Public:     a.publicFS(),
		LiveReload: hub,
		Logger:     a.log,
	})
	if err != nil {
		return err
	}
	httpSrv := server.NewHTTPServer(a.cfg.Addr(), srv.Handler(), a.log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return server.Serve(gctx, httpSrv, a.log)
	})
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}
	return g.Wait()
}

// isPostFile reports whether a changed path is one the loader reads.
func (a *app) isPostFile(path string) bool {
	rel, err := filepath.Rel(a.cfg.Content.Dir, path)
	if err != nil {
		return false
	}
	ok, _ := doublestar.Match(a.cfg.Content.Pattern, filepath.ToSlash(rel))
	return ok
}
