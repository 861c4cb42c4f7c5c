package cli

import (
	"github.com/river-now/riverblog/internal/generate"
	"github.com/spf13/cobra"
)

func (a *app) buildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write the blog as static files",
		Long: `build renders every post, the index and the not-found page into the
output directory, together with the assets and a posts.json index.
A post that fails to parse is left out. With --strict (the default) the
command then fails, after writing everything else.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.newIndex()
			if err != nil {
				return err
			}
			r, bundle, err := a.newSite(true, false)
			if err != nil {
				return err
			}

			m, err := generate.Run(cmd.Context(), generate.Options{
				Index:       idx,
				Site:        r,
				Assets:      bundle,
				OutDir:      a.cfg.Build.OutDir,
				Theme:       a.cfg.ThemeDefault(),
				Concurrency: a.cfg.Content.Concurrency,
				Public:      a.publicFS(),
				Logger:      a.log,
			})
			if err != nil && generate.IsBuildError(err) && !a.cfg.Build.Strict {
				a.log.Sugar().Warnw("Built with failures", "failed", m.Failed, "error", err)
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringP("out", "o", "", "output directory (default from config, \"out\")")
	cmd.Flags().Bool("strict", true, "fail when any post fails to build")
	return cmd
}
