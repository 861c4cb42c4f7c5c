package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type externalLinks struct{ next Renderer }

func (e *externalLinks) Render(src []byte) ([]byte, error) {
	out, err := e.next.Render(src)
	if err != nil {
		return nil, err
	}
	return MarkExternalLinks(out)
}

// MarkExternalLinks rewrites every <a> whose href is an absolute
// http(s) URL to open in a new browsing context.
func MarkExternalLinks(fragment []byte) ([]byte, error) {
	if !bytes.Contains(fragment, []byte("<a")) {
		return fragment, nil
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("parsing rendered HTML: %w", err)
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		walk(n)
		if err := html.Render(&buf, n); err != nil {
			return nil, fmt.Errorf("rendering HTML: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func walk(n *html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.A && isExternal(n) {
		setAttr(n, "target", "_blank")
		setAttr(n, "rel", "noopener noreferrer")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
}

func isExternal(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == "href" {
			href := strings.ToLower(strings.TrimSpace(a.Val))
			return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
