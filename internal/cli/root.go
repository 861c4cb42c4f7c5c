// Package cli wires riverblog's commands together.
package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/river-now/riverblog/internal/assets"
	"github.com/river-now/riverblog/internal/config"
	"github.com/river-now/riverblog/internal/content"
	"github.com/river-now/riverblog/internal/content/markdown"
	"github.com/river-now/riverblog/internal/posts"
	"github.com/river-now/riverblog/internal/site"
	"github.com/river-now/riverblog/kit/colorlog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// flagKeys maps command line flags onto config keys. Flags only
// override the config when set explicitly.
var flagKeys = map[string]string{
	"out":    "build.out_dir",
	"strict": "build.strict",
	"port":   "server.port",
	"dev":    "server.dev",
}

type app struct {
	configFile string
	verbose    bool
	logJSON    bool

	cfg *config.Config
	log *zap.Logger
}

// NewRootCommand builds the riverblog command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "riverblog",
		Short: "A small markdown blog",
		Long: `riverblog turns a directory of markdown posts into a blog. It can
serve the blog over HTTP or write it out as static files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default is ./riverblog.yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output")
	pf.BoolVar(&a.logJSON, "log-json", false, "log as JSON")

	root.AddCommand(
		a.buildCommand(),
		a.serveCommand(),
		a.postsCommand(),
		a.newCommand(),
		a.themeCommand(),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func (a *app) init(cmd *cobra.Command) error {
	level := zapcore.InfoLevel
	if a.verbose {
		level = zapcore.DebugLevel
	}
	a.log = colorlog.New("riverblog", colorlog.Options{
		Level:  level,
		JSON:   a.logJSON,
		Writer: cmd.ErrOrStderr(),
	})

	cfg, err := config.Load(config.LoadOptions{
		File: a.configFile,
		Bind: func(v *viper.Viper) error {
			for name, key := range flagKeys {
				f := cmd.Flags().Lookup(name)
				if f == nil {
					continue
				}
				if err := v.BindPFlag(key, f); err != nil {
					return err
				}
			}
			return nil
		},
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log.Debug("Loaded config", zap.Any("config", cfg))
	return nil
}

func (a *app) newIndex() (*posts.Index, error) {
	info, err := os.Stat(a.cfg.Content.Dir)
	if err != nil {
		return nil, fmt.Errorf("content dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content dir %s is not a directory", a.cfg.Content.Dir)
	}

	md, err := markdown.New(a.cfg.Markdown.Engine, markdown.Options{
		ExternalLinks: a.cfg.Markdown.ExternalLinks,
	})
	if err != nil {
		return nil, err
	}
	loader, err := content.NewLoader(content.Options{
		FS:          os.DirFS(a.cfg.Content.Dir),
		Pattern:     a.cfg.Content.Pattern,
		Markdown:    md,
		Concurrency: a.cfg.Content.Concurrency,
		Logger:      a.log,
	})
	if err != nil {
		return nil, err
	}
	return posts.NewIndex(loader, a.log), nil
}

// publicFS is the public directory, or nil when it does not exist.
func (a *app) publicFS() fs.FS {
	dir := a.cfg.Site.PublicDir
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		a.log.Sugar().Debugw("No public directory", "dir", dir)
		return nil
	}
	return os.DirFS(dir)
}

func (a *app) newSite(static, dev bool) (*site.Renderer, *assets.Bundle, error) {
	bundle, err := assets.Load()
	if err != nil {
		return nil, nil, err
	}
	links := make([]site.Link, len(a.cfg.Site.Links))
	for i, l := range a.cfg.Site.Links {
		links[i] = site.Link{Name: l.Name, URL: l.URL}
	}
	r, err := site.New(site.Options{
		Assets:      bundle,
		Title:       a.cfg.Site.Title,
		Description: a.cfg.Site.Description,
		Locale:      a.cfg.Site.Locale,
		Author:      a.cfg.Site.Author,
		Avatar:      a.cfg.Site.Avatar,
		Links:       links,
		Static:      static,
		Dev:         dev,
	})
	if err != nil {
		return nil, nil, err
	}
	return r, bundle, nil
}
