package render

import (
	"fmt"
	"io"
	"slices"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// WriteHTML writes page as an HTML5 document. Block text and attributes are
// escaped by the HTML serializer; components never emit raw markup.
func WriteHTML(w io.Writer, page Page) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html, attr("lang", page.Language))
	doc.AppendChild(root)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, attr("charset", "utf-8")))
	head.AppendChild(element(atom.Meta,
		attr("name", "viewport"),
		attr("content", "width=device-width, initial-scale=1"),
	))
	title := element(atom.Title)
	title.AppendChild(&html.Node{Type: html.TextNode, Data: page.Slug})
	head.AppendChild(title)
	root.AppendChild(head)

	body := element(atom.Body)
	content := element(atom.Main, attr("data-theme", page.Theme), attr("data-page", page.Slug))
	for _, b := range page.Blocks {
		content.AppendChild(blockNode(b))
	}
	body.AppendChild(content)
	root.AppendChild(body)

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func blockNode(b Block) *html.Node {
	if b.Tag == "" {
		return &html.Node{Type: html.TextNode, Data: b.Text}
	}

	n := &html.Node{Type: html.ElementNode, Data: b.Tag, DataAtom: atom.Lookup([]byte(b.Tag))}
	if b.Class != "" {
		n.Attr = append(n.Attr, attr("class", b.Class))
	}
	if b.Type != "" {
		n.Attr = append(n.Attr, attr("data-component", b.Type))
	}
	if b.Key != "" {
		n.Attr = append(n.Attr, attr("data-key", b.Key))
	}

	names := make([]string, 0, len(b.Attrs))
	for k := range b.Attrs {
		names = append(names, k)
	}
	slices.Sort(names)
	for _, k := range names {
		n.Attr = append(n.Attr, attr(k, b.Attrs[k]))
	}

	if isVoid(n.DataAtom) {
		return n
	}
	if b.Text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: b.Text})
	}
	for _, c := range b.Children {
		n.AppendChild(blockNode(c))
	}
	return n
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func isVoid(a atom.Atom) bool {
	switch a {
	case atom.Area, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img, atom.Input,
		atom.Link, atom.Meta, atom.Source, atom.Track, atom.Wbr:
		return true
	default:
		return false
	}
}
