package content

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/river-now/riverblog/internal/content/markdown"
	"github.com/river-now/riverblog/kit/validate"
)

// Recognized front matter keys.
const (
	KeyDate    = "date"
	KeyTitle   = "title"
	KeySpoiler = "spoiler"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate accepts a plain ISO date or one of the common ISO
// date-time forms.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as an ISO-8601 date (use YYYY-MM-DD or RFC3339)", s)
}

// parsePost turns raw source bytes into a Post. Front matter may be YAML
// (---) or TOML (+++).
func parsePost(id, path string, raw []byte, md markdown.Renderer) (*Post, error) {
	fail := func(err error) (*Post, error) {
		return nil, &ParseError{ID: id, Path: path, Err: err}
	}

	var meta map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		return fail(fmt.Errorf("malformed front matter: %w", err))
	}

	post := &Post{ID: id}

	v := validate.Object(meta)
	v.Required(KeyDate).Check(func(val any) error {
		date, publishedAt, err := dateValue(val)
		if err != nil {
			return err
		}
		post.Date, post.PublishedAt = date, publishedAt
		return nil
	})
	v.Required(KeyTitle).Check(func(val any) error {
		s, err := scalarString(val)
		post.Title = s
		return err
	})
	v.Required(KeySpoiler).Check(func(val any) error {
		s, err := scalarString(val)
		post.Spoiler = s
		return err
	})
	metaErr := v.Error()

	html, err := md.Render(body)
	if err != nil {
		return fail(errors.Join(metaErr, fmt.Errorf("rendering markdown: %w", err)))
	}
	bodyErr := validate.Any("body", strings.TrimSpace(string(html))).Required().Error()

	if err := errors.Join(metaErr, bodyErr); err != nil {
		return fail(err)
	}

	post.ContentHTML = template.HTML(html)
	return post, nil
}

func dateValue(val any) (string, time.Time, error) {
	switch d := val.(type) {
	case string:
		t, err := ParseDate(d)
		if err != nil {
			return "", time.Time{}, err
		}
		return strings.TrimSpace(d), t, nil
	case time.Time:
		// TOML dates arrive already typed.
		if d.Hour() == 0 && d.Minute() == 0 && d.Second() == 0 && d.Nanosecond() == 0 {
			return d.Format("2006-01-02"), d, nil
		}
		return d.Format(time.RFC3339), d, nil
	default:
		return "", time.Time{}, fmt.Errorf("must be an ISO-8601 date string (got %T)", val)
	}
}

func scalarString(val any) (string, error) {
	switch s := val.(type) {
	case string:
		return strings.TrimSpace(s), nil
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(s), nil
	default:
		return "", fmt.Errorf("must be a string (got %T)", val)
	}
}
