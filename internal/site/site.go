// Package site renders the blog's HTML pages.
package site

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/river-now/riverblog/internal/assets"
	"github.com/river-now/riverblog/internal/content"
	"github.com/river-now/riverblog/internal/theme"
	"github.com/river-now/riverblog/kit/headels"
	"github.com/river-now/riverblog/kit/htmlutil"
)

//go:embed views
var viewsFS embed.FS

var partials = []string{
	"views/layout.html",
	"views/header.html",
	"views/footer.html",
	"views/date.html",
	"views/postlist.html",
}

const (
	pageIndex    = "index"
	pagePost     = "post"
	pageNotFound = "notfound"
	pageError    = "error"
)

type Options struct {
	// Required.
	Assets *assets.Bundle
	// Optional. Defaults to "riverblog".
	Title       string
	Description string
	// Optional. BCP 47 tag. Defaults to "en".
	Locale string
	// Optional. Footer copyright holder. Defaults to Title.
	Author string
	// Optional. Image beside the description on the home page.
	Avatar string
	// Optional. Footer links, opened in a new tab.
	Links []Link
	// Pages apply and toggle the theme client-side instead of posting
	// to the server.
	Static bool
	// Pages include the live-reload client and error details.
	Dev bool
	// Optional. Defaults to time.Now.
	Now func() time.Time
}

type Renderer struct {
	opts        Options
	locale      *locale
	pages       map[string]*template.Template
	themeScript string
}

func New(opts Options) (*Renderer, error) {
	if opts.Assets == nil {
		return nil, errors.New("site: assets are required")
	}
	if opts.Title == "" {
		opts.Title = "riverblog"
	}
	if opts.Author == "" {
		opts.Author = opts.Title
	}
	if opts.Locale == "" {
		opts.Locale = "en"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r := &Renderer{
		opts:   opts,
		locale: matchLocale(opts.Locale),
		pages:  make(map[string]*template.Template),
	}
	r.themeScript = opts.Assets.InlineTheme()

	base, err := template.New("").Funcs(template.FuncMap{
		"formatDate": r.locale.formatDate,
	}).ParseFS(viewsFS, partials...)
	if err != nil {
		return nil, fmt.Errorf("site: parsing partials: %w", err)
	}
	for _, name := range []string{pageIndex, pagePost, pageNotFound, pageError} {
		t, err := template.Must(base.Clone()).ParseFS(viewsFS, "views/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("site: parsing %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// ThemeScriptSource is the CSP source expression that allows the inline
// theme script.
func (r *Renderer) ThemeScriptSource() string {
	return htmlutil.Sha256Source(&htmlutil.Element{DangerousInnerHTML: r.themeScript})
}

// PageData is what every page needs from its caller. Theme is the
// session's holder; a nil holder renders the configured default.
type PageData struct {
	Theme *theme.Holder
}

type IndexData struct {
	PageData
	Posts []content.PostSummary
}

type PostData struct {
	PageData
	Post *content.Post
}

type Link struct {
	Name string
	URL  string
}

type siteInfo struct {
	Title       string
	Description string
	Author      string
	Avatar      string
	Links       []Link
}

type themeView struct {
	Mode     theme.Theme
	Resolved theme.Theme
}

type view struct {
	Lang   string
	Site   siteInfo
	Text   Text
	Head   template.HTML
	Theme  themeView
	Static bool
	Home   bool
	Year   int

	Posts  []content.PostSummary
	Post   *content.Post
	Detail string
}

func (r *Renderer) Index(w io.Writer, d IndexData) error {
	v, err := r.view(d.PageData, "", true)
	if err != nil {
		return err
	}
	v.Posts = d.Posts
	return r.execute(w, pageIndex, v)
}

func (r *Renderer) Post(w io.Writer, d PostData) error {
	if d.Post == nil {
		return errors.New("site: post is required")
	}
	v, err := r.view(d.PageData, d.Post.Title, false)
	if err != nil {
		return err
	}
	v.Post = d.Post
	return r.execute(w, pagePost, v)
}

func (r *Renderer) NotFound(w io.Writer, d PageData) error {
	v, err := r.view(d, r.locale.text.NotFound, false)
	if err != nil {
		return err
	}
	return r.execute(w, pageNotFound, v)
}

// Error renders the generic error page. The error itself is shown only
// in dev mode.
func (r *Renderer) Error(w io.Writer, d PageData, cause error) error {
	v, err := r.view(d, r.locale.text.Error, false)
	if err != nil {
		return err
	}
	if r.opts.Dev && cause != nil {
		v.Detail = cause.Error()
	}
	return r.execute(w, pageError, v)
}

func (r *Renderer) view(d PageData, title string, home bool) (*view, error) {
	tv := themeView{Mode: theme.Light, Resolved: theme.Light}
	if d.Theme != nil {
		tv = themeView{Mode: d.Theme.Theme(), Resolved: d.Theme.Resolved()}
	}

	head, err := r.head(title)
	if err != nil {
		return nil, err
	}

	return &view{
		Lang:   r.locale.tag.String(),
		Site: siteInfo{
			Title:       r.opts.Title,
			Description: r.opts.Description,
			Author:      r.opts.Author,
			Avatar:      r.opts.Avatar,
			Links:       r.opts.Links,
		},
		Text:   r.locale.text,
		Head:   head,
		Theme:  tv,
		Static: r.opts.Static,
		Home:   home,
		Year:   r.opts.Now().Year(),
	}, nil
}

func (r *Renderer) head(title string) (template.HTML, error) {
	h := headels.New()
	h.Meta("charset", "utf-8")
	h.Meta("name", "viewport", "content", "initial-scale=1.0, width=device-width")
	if title == "" {
		h.Title(r.opts.Title)
	} else {
		h.Title(title + " | " + r.opts.Title)
	}
	if r.opts.Description != "" {
		h.Description(r.opts.Description)
	}
	if style, ok := r.opts.Assets.Get(assets.StyleName); ok {
		h.Stylesheet(style.URL())
	}
	h.InlineScript(r.themeScript)
	if r.opts.Dev {
		if lr, ok := r.opts.Assets.Get(assets.LiveReloadName); ok {
			h.Script(lr.URL())
		}
	}
	return h.Render()
}

// Pages are rendered into a buffer first so a template failure never
// leaves a half-written response.
func (r *Renderer) execute(w io.Writer, page string, v *view) error {
	var buf bytes.Buffer
	if err := r.pages[page].ExecuteTemplate(&buf, "layout", v); err != nil {
		return fmt.Errorf("site: rendering %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
