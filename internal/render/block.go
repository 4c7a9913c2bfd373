// Package render turns page schemas into themed block trees and HTML.
package render

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Page is a rendered page: the schema's identity plus its top-level blocks.
type Page struct {
	Slug     string     `json:"slug"`
	Language string     `json:"language"`
	TenantID *uuid.UUID `json:"tenant_id"`
	Theme    string     `json:"theme"`
	Blocks   []Block    `json:"blocks"`
}

// Block is the output of one component: an element with optional text and
// child blocks. Type, Key and Theme are stamped by the renderer.
type Block struct {
	Type     string            `json:"type,omitempty"`
	Key      string            `json:"key,omitempty"`
	Theme    string            `json:"theme,omitempty"`
	Tag      string            `json:"tag,omitempty"`
	Class    string            `json:"class,omitempty"`
	Text     string            `json:"text,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []Block           `json:"children,omitempty"`
}

// IsEmpty reports whether b produces no output.
func (b Block) IsEmpty() bool {
	return b.Tag == "" && b.Text == "" && len(b.Children) == 0
}

// El builds an element block.
func El(tag, class string, children ...Block) Block {
	return Block{Tag: tag, Class: class, Children: children}
}

// Text builds an element block holding text.
func Text(tag, class, text string) Block {
	return Block{Tag: tag, Class: class, Text: text}
}

// WithAttr returns b with the attribute set. Empty values are skipped.
func (b Block) WithAttr(name, value string) Block {
	if value == "" {
		return b
	}
	attrs := make(map[string]string, len(b.Attrs)+1)
	for k, v := range b.Attrs {
		attrs[k] = v
	}
	attrs[name] = value
	b.Attrs = attrs
	return b
}

// Append returns b with children added, skipping empty blocks.
func (b Block) Append(children ...Block) Block {
	out := make([]Block, 0, len(b.Children)+len(children))
	out = append(out, b.Children...)
	for _, c := range children {
		if !c.IsEmpty() {
			out = append(out, c)
		}
	}
	b.Children = out
	return b
}

// Paragraphs splits text on blank lines into <p> blocks.
func Paragraphs(class, text string) []Block {
	var out []Block
	for _, part := range strings.Split(text, "\n\n") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, Text("p", class, part))
		}
	}
	return out
}

var safeSchemes = map[string]bool{"http": true, "https": true, "mailto": true, "tel": true}

// SafeURL returns raw when it is relative or uses a web, mail or phone
// scheme, and "#" otherwise.
func SafeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "#"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "#"
	}
	if u.Scheme != "" && !safeSchemes[strings.ToLower(u.Scheme)] {
		return "#"
	}
	return raw
}
