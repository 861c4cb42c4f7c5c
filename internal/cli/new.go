package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/river-now/riverblog/internal/content"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

type frontMatter struct {
	Date    string `yaml:"date"`
	Title   string `yaml:"title"`
	Spoiler string `yaml:"spoiler"`
}

func (a *app) newCommand() *cobra.Command {
	var fm frontMatter
	cmd := &cobra.Command{
		Use:   "new <id>",
		Short: "Create a post from a template",
		Long: `new writes <id>.md into the content directory with a front matter
block ready to edit. It never overwrites an existing post.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !content.ValidID(id) {
				return fmt.Errorf("invalid post id %q", id)
			}
			if content.Reserved(id) {
				return fmt.Errorf("post id %q is reserved for a page the site generates", id)
			}
			if fm.Date == "" {
				fm.Date = time.Now().Format(time.DateOnly)
			} else if _, err := content.ParseDate(fm.Date); err != nil {
				return err
			}
			if fm.Title == "" {
				fm.Title = a.titleFromID(id)
			}
			if fm.Spoiler == "" {
				fm.Spoiler = fm.Title
			}

			path := filepath.Join(a.cfg.Content.Dir, id+".md")
			if err := writeNewPost(path, fm); err != nil {
				return err
			}
			a.log.Sugar().Infow("Created post", "id", id, "path", path)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
	cmd.Flags().StringVar(&fm.Title, "title", "", "post title (default derived from the id)")
	cmd.Flags().StringVar(&fm.Spoiler, "spoiler", "", "one-line summary shown in the index (default the title)")
	cmd.Flags().StringVar(&fm.Date, "date", "", "publication date, yyyy-mm-dd (default today)")
	return cmd
}

func (a *app) titleFromID(id string) string {
	tag, err := language.Parse(a.cfg.Site.Locale)
	if err != nil {
		tag = language.English
	}
	return cases.Title(tag).String(strings.NewReplacer("-", " ", "_", " ").Replace(id))
}

func writeNewPost(path string, fm frontMatter) error {
	head, err := yaml.Marshal(fm)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(head)
	b.WriteString("---\n\nStart writing here.\n")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s already exists", path)
		}
		return err
	}
	if _, err := f.Write(b.Bytes()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
