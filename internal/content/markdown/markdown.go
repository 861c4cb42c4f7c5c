// Package markdown converts post bodies to HTML. Both engines run with
// their standard feature set and no custom extensions.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/russross/blackfriday/v2"
	"github.com/yuin/goldmark"
)

type Renderer interface {
	Render(src []byte) ([]byte, error)
}

const (
	EngineBlackfriday = "blackfriday"
	EngineGoldmark    = "goldmark"
)

var Engines = []string{EngineBlackfriday, EngineGoldmark}

type Options struct {
	// Open absolute http(s) links in a new tab with rel="noopener noreferrer".
	ExternalLinks bool
}

func New(engine string, opts Options) (Renderer, error) {
	var r Renderer
	switch engine {
	case "", EngineBlackfriday:
		r = Blackfriday()
	case EngineGoldmark:
		r = Goldmark()
	default:
		return nil, fmt.Errorf("unknown markdown engine %q (want one of %v)", engine, Engines)
	}
	if opts.ExternalLinks {
		r = &externalLinks{next: r}
	}
	return r, nil
}

type RendererFunc func(src []byte) ([]byte, error)

func (f RendererFunc) Render(src []byte) ([]byte, error) { return f(src) }

func Blackfriday() Renderer {
	return RendererFunc(func(src []byte) ([]byte, error) {
		return blackfriday.Run(src, blackfriday.WithExtensions(blackfriday.CommonExtensions)), nil
	})
}

func Goldmark() Renderer {
	md := goldmark.New()
	return RendererFunc(func(src []byte) ([]byte, error) {
		var buf bytes.Buffer
		if err := md.Convert(src, &buf); err != nil {
			return nil, fmt.Errorf("goldmark: %w", err)
		}
		return buf.Bytes(), nil
	})
}
