// Package headels collects the elements of an HTML document head and
// renders them with deduplication.
//
// Only the last title and the last meta description are kept. Any other
// element is dropped when an identical one was already added.
package headels

import (
	"fmt"
	"html/template"
	"slices"
	"strings"

	"github.com/river-now/riverblog/kit/htmlutil"
)

type HeadEls struct {
	els []*htmlutil.Element
}

func New() *HeadEls { return &HeadEls{} }

func (h *HeadEls) Add(el *htmlutil.Element) { h.els = append(h.els, el) }

func (h *HeadEls) Title(title string) {
	h.Add(&htmlutil.Element{Tag: "title", TextContent: title})
}

func (h *HeadEls) Description(description string) {
	h.Meta("name", "description", "content", description)
}

// Meta adds a meta element from alternating attribute names and values.
func (h *HeadEls) Meta(kv ...string) {
	h.Add(&htmlutil.Element{Tag: "meta", Attributes: pairs(kv)})
}

func (h *HeadEls) Stylesheet(href string) {
	h.Add(&htmlutil.Element{Tag: "link", Attributes: map[string]string{"rel": "stylesheet", "href": href}})
}

func (h *HeadEls) Script(src string) {
	h.Add(&htmlutil.Element{Tag: "script", Attributes: map[string]string{"src": src}, BooleanAttributes: []string{"defer"}})
}

// InlineScript adds trusted script content and returns the element so
// callers can derive a CSP hash or nonce from it.
func (h *HeadEls) InlineScript(js string) *htmlutil.Element {
	el := &htmlutil.Element{Tag: "script", DangerousInnerHTML: js}
	h.Add(el)
	return el
}

func (h *HeadEls) Collect() []*htmlutil.Element {
	return dedupe(h.els)
}

// Render writes the deduplicated elements, title first, one per line.
func (h *HeadEls) Render() (template.HTML, error) {
	var b strings.Builder
	els := h.Collect()
	slices.SortStableFunc(els, func(a, b *htmlutil.Element) int {
		return rank(a) - rank(b)
	})
	for _, el := range els {
		if err := htmlutil.RenderElementToBuilder(el, &b); err != nil {
			return "", fmt.Errorf("error rendering head el: %w", err)
		}
		b.WriteString("\n")
	}
	return template.HTML(b.String()), nil
}

func rank(el *htmlutil.Element) int {
	switch {
	case isTitle(el):
		return 0
	case el.Tag == "meta":
		return 1
	default:
		return 2
	}
}

func dedupe(els []*htmlutil.Element) []*htmlutil.Element {
	out := make([]*htmlutil.Element, 0, len(els))
	seen := make(map[string]int, len(els))
	for _, el := range els {
		key := stableKey(el)
		switch {
		case isTitle(el):
			key = "title"
		case isDescription(el):
			key = "description"
		}
		if i, ok := seen[key]; ok {
			if key == "title" || key == "description" {
				out[i] = el
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, el)
	}
	return out
}

func isTitle(el *htmlutil.Element) bool { return el.Tag == "title" }

func isDescription(el *htmlutil.Element) bool {
	return el.Tag == "meta" && el.Attributes["name"] == "description"
}

func stableKey(el *htmlutil.Element) string {
	parts := make([]string, 0, len(el.Attributes)+len(el.AttributesDangerousVals)+len(el.BooleanAttributes))
	for k, v := range el.Attributes {
		parts = append(parts, "attr:"+k+"="+v)
	}
	for k, v := range el.AttributesDangerousVals {
		parts = append(parts, "trusted:"+k+"="+v)
	}
	for _, attr := range el.BooleanAttributes {
		parts = append(parts, "bool:"+attr)
	}
	slices.Sort(parts)
	return el.Tag + "|" + strings.Join(parts, "&") + "|" + el.TextContent + "|" + el.DangerousInnerHTML
}

func pairs(kv []string) map[string]string {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}
