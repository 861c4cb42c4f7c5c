package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/river-now/riverblog/internal/content"
	"github.com/river-now/riverblog/internal/site"
	"github.com/river-now/riverblog/kit/jsonutil"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	dateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

func (a *app) postsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List posts, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.newIndex()
			if err != nil {
				return err
			}
			snap, err := idx.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				b, err := jsonutil.SerializeIndent(snap.Sorted)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(b))
				return err
			}
			return writePostList(out, a.cfg.Site.Locale, snap.Sorted, snap.Failures)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the post index as JSON")
	return cmd
}

func writePostList(w io.Writer, locale string, sorted []content.PostSummary, failures map[string]error) error {
	if len(sorted) == 0 && len(failures) == 0 {
		_, err := fmt.Fprintln(w, "No posts yet.")
		return err
	}

	dates := make([]string, len(sorted))
	idWidth, dateWidth := 0, 0
	for i, p := range sorted {
		dates[i] = site.FormatDate(locale, p.PublishedAt)
		idWidth = max(idWidth, lipgloss.Width(p.ID))
		dateWidth = max(dateWidth, lipgloss.Width(dates[i]))
	}

	var rows []string
	rows = append(rows, headerStyle.Render(fmt.Sprintf("%d posts", len(sorted))))
	for i, p := range sorted {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			dateStyle.Width(dateWidth).Render(dates[i]),
			"  ",
			idStyle.Width(idWidth).Render(p.ID),
			"  ",
			p.Title,
		))
	}
	for _, id := range slices.Sorted(maps.Keys(failures)) {
		rows = append(rows, failStyle.Render(fmt.Sprintf("failed  %s: %v", id, failures[id])))
	}
	_, err := fmt.Fprintln(w, boxStyle.Render(strings.Join(rows, "\n")))
	return err
}
