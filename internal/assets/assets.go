// Package assets serves the blog's stylesheet and scripts. Sources are
// embedded, minified once with esbuild, and published under
// content-hashed names so they can be cached forever.
package assets

import (
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/river-now/riverblog/kit/lazycache"
	"golang.org/x/crypto/blake2b"
)

//go:embed static
var staticFS embed.FS

const (
	Prefix = "/assets/"

	StyleName      = "style.css"
	ThemeName      = "theme.js"
	LiveReloadName = "livereload.js"
)

type Asset struct {
	// Source name, e.g. "style.css".
	Name string
	// Fingerprinted name, e.g. "style.1a2b3c4d.css".
	HashedName  string
	ContentType string
	Body        []byte
}

// URL is the path the asset is served from.
func (a *Asset) URL() string { return Prefix + a.HashedName }

type Bundle struct {
	byName   map[string]*Asset
	byHashed map[string]*Asset
}

var bundle lazycache.ValueErr[*Bundle]

// Load returns the minified, fingerprinted assets. The work happens on
// the first call only.
func Load() (*Bundle, error) {
	return lazycache.GetErr(&bundle, build)
}

func build() (*Bundle, error) {
	b := &Bundle{
		byName:   make(map[string]*Asset),
		byHashed: make(map[string]*Asset),
	}
	for _, name := range []string{StyleName, ThemeName, LiveReloadName} {
		a, err := buildAsset(name)
		if err != nil {
			return nil, err
		}
		b.byName[a.Name] = a
		b.byHashed[a.HashedName] = a
	}
	return b, nil
}

func buildAsset(name string) (*Asset, error) {
	src, err := staticFS.ReadFile(path.Join("static", name))
	if err != nil {
		return nil, fmt.Errorf("assets: reading %s: %w", name, err)
	}

	loader, contentType := esbuild.LoaderJS, "text/javascript; charset=utf-8"
	if path.Ext(name) == ".css" {
		loader, contentType = esbuild.LoaderCSS, "text/css; charset=utf-8"
	}

	result := esbuild.Transform(string(src), esbuild.TransformOptions{
		Loader:            loader,
		Sourcefile:        name,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		Target:            esbuild.ES2017,
	})
	if err := collectErrors(result.Errors); err != nil {
		return nil, fmt.Errorf("assets: minifying %s: %w", name, err)
	}

	body := result.Code
	return &Asset{
		Name:        name,
		HashedName:  Fingerprint(name, body),
		ContentType: contentType,
		Body:        body,
	}, nil
}

// Fingerprint inserts a short blake2b digest of body before the
// extension of name.
func Fingerprint(name string, body []byte) string {
	sum := blake2b.Sum256(body)
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "." + hex.EncodeToString(sum[:4]) + ext
}

func collectErrors(msgs []esbuild.Message) error {
	errs := make([]error, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			errs = append(errs, fmt.Errorf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		errs = append(errs, errors.New(m.Text))
	}
	return errors.Join(errs...)
}

// Get looks an asset up by source name.
func (b *Bundle) Get(name string) (*Asset, bool) {
	a, ok := b.byName[name]
	return a, ok
}

// Lookup looks an asset up by fingerprinted name.
func (b *Bundle) Lookup(hashedName string) (*Asset, bool) {
	a, ok := b.byHashed[hashedName]
	return a, ok
}

// Files returns the assets written to disk by a static build: the
// stylesheet, plus the live-reload client when dev is set. The theme
// script is inlined into pages instead.
func (b *Bundle) Files(dev bool) []*Asset {
	files := []*Asset{b.byName[StyleName]}
	if dev {
		files = append(files, b.byName[LiveReloadName])
	}
	return files
}

// InlineTheme returns the minified theme script for inlining into a
// page head.
func (b *Bundle) InlineTheme() string {
	return string(b.byName[ThemeName].Body)
}
