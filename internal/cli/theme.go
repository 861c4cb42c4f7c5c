package cli

import (
	"fmt"

	"github.com/river-now/riverblog/internal/theme"
	"github.com/spf13/cobra"
)

func (a *app) themeCommand() *cobra.Command {
	var file string
	holder := func() (*theme.Holder, error) {
		path := file
		if path == "" {
			p, err := theme.DefaultFilePath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		return theme.NewHolder(theme.Options{
			Default: a.cfg.ThemeDefault(),
			Store:   &theme.FileStore{Path: path},
			Prefers: theme.PrefersFromTerminal(),
			Logger:  a.log,
		}), nil
	}

	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or toggle the saved color theme",
	}
	cmd.PersistentFlags().StringVar(&file, "file", "", "theme file (default in the user config dir)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := holder()
			if err != nil {
				return err
			}
			if t := h.Theme(); t == theme.System {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", t, h.Resolved())
			} else {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch between light and dark and save the choice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := holder()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), h.Toggle())
			return err
		},
	})
	return cmd
}
