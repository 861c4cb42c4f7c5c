// Package htmlutil renders single HTML elements with escaped attributes,
// mostly for document heads.
package htmlutil

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"html/template"
	"maps"
	"slices"
	"strings"
)

type Element struct {
	Tag                     string
	Attributes              map[string]string
	AttributesDangerousVals map[string]string
	BooleanAttributes       []string
	TextContent             string
	DangerousInnerHTML      string
	SelfClosing             bool
}

// see https://html.spec.whatwg.org/multipage/syntax.html#void-elements
var selfClosingTags = []string{
	"area", "base", "br", "col", "embed", "hr", "img",
	"input", "link", "meta", "source", "track", "wbr",
}

// Sha256Source returns the CSP source expression ('sha256-...') for an
// element's inline content.
func Sha256Source(el *Element) string {
	sum := sha256.Sum256([]byte(el.DangerousInnerHTML))
	return "'sha256-" + base64.StdEncoding.EncodeToString(sum[:]) + "'"
}

// Attributes are written in key order so output is deterministic.
func RenderElementToBuilder(el *Element, b *strings.Builder) error {
	tag := template.HTMLEscapeString(el.Tag)
	if tag == "" {
		return fmt.Errorf("element has no tag")
	}

	b.WriteString("<")
	b.WriteString(tag)

	attrs := escapedAttributes(el)
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(attrs[k])
		b.WriteString(`"`)
	}
	for _, attr := range el.BooleanAttributes {
		b.WriteString(" ")
		b.WriteString(template.HTMLEscapeString(attr))
	}

	if el.SelfClosing || slices.Contains(selfClosingTags, tag) {
		b.WriteString(" />")
		return nil
	}

	b.WriteString(">")
	b.WriteString(innerHTML(el))
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteString(">")
	return nil
}

func escapedAttributes(el *Element) map[string]string {
	attrs := make(map[string]string, len(el.Attributes)+len(el.AttributesDangerousVals))
	for k, v := range el.Attributes {
		attrs[template.HTMLEscapeString(k)] = template.HTMLEscapeString(v)
	}
	for k, v := range el.AttributesDangerousVals {
		attrs[template.HTMLEscapeString(k)] = v
	}
	return attrs
}

func innerHTML(el *Element) string {
	if el.DangerousInnerHTML != "" {
		return el.DangerousInnerHTML
	}
	return template.HTMLEscapeString(el.TextContent)
}
