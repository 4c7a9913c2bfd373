package render_test

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	page := render.Page{
		Slug:     "home",
		Language: "en",
		Theme:    "classic",
		Blocks: []render.Block{
			render.Text("h1", "title", `<script>alert("x")</script>`).WithAttr("id", "top"),
			render.El("figure", "image",
				render.Block{Tag: "img"}.WithAttr("src", "https://cdn.example.com/a.png").WithAttr("alt", `a "quoted" alt`),
			),
		},
	}
	page.Blocks[0].Type = "Header"
	page.Blocks[0].Key = "header"

	var sb strings.Builder
	require.NoError(t, render.WriteHTML(&sb, page))
	out := sb.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.NotContains(t, out, "<script>")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)

	assert.Equal(t, "en", doc.Find("html").AttrOr("lang", ""))
	assert.Equal(t, "home", doc.Find("title").Text())
	assert.Equal(t, "classic", doc.Find("main").AttrOr("data-theme", ""))

	h1 := doc.Find("main > h1")
	assert.Equal(t, `<script>alert("x")</script>`, h1.Text())
	assert.Equal(t, "Header", h1.AttrOr("data-component", ""))
	assert.Equal(t, "header", h1.AttrOr("data-key", ""))
	assert.Equal(t, "top", h1.AttrOr("id", ""))

	img := doc.Find("main figure.image img")
	assert.Equal(t, "https://cdn.example.com/a.png", img.AttrOr("src", ""))
	assert.Equal(t, `a "quoted" alt`, img.AttrOr("alt", ""))
}

func TestSafeURL(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                        "#",
		"/pricing":                "/pricing",
		"https://example.com/a":   "https://example.com/a",
		"mailto:hi@example.com":   "mailto:hi@example.com",
		"javascript:alert(1)":     "#",
		" JavaScript:alert(1) ":   "#",
		"data:text/html,<b>x</b>": "#",
	}
	for in, want := range tests {
		assert.Equal(t, want, render.SafeURL(in), in)
	}
}

func TestBlockHelpers(t *testing.T) {
	t.Parallel()

	b := render.El("div", "box").Append(render.Block{}, render.Text("p", "", "kept"))
	assert.Len(t, b.Children, 1)
	assert.Equal(t, b, b.WithAttr("href", ""))

	paras := render.Paragraphs("", "first\n\n  \n\nsecond")
	require.Len(t, paras, 2)
	assert.Equal(t, "second", paras[1].Text)
}
