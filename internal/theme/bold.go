package theme

import (
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/render"
)

// Bold renders the same content as Classic with alternate layouts.
const Bold = "bold"

const defaultEyebrow = "New"

func boldComponents() map[string]render.Component {
	return map[string]render.Component{
		TypeHeader: func(n domain.ComponentNode, children []render.Block) render.Block {
			b := render.El("header", "masthead").Append(render.Text("div", "masthead__brand", n.Content))
			if len(children) > 0 {
				b = b.Append(render.El("nav", "masthead__nav", children...))
			}
			return b
		},
		TypeNavLink: func(n domain.ComponentNode, _ []render.Block) render.Block {
			return render.Text("a", "masthead__link", n.Content).WithAttr("href", render.SafeURL(n.Prop("href")))
		},
		TypeFooter: func(n domain.ComponentNode, children []render.Block) render.Block {
			return render.El("footer", "footer footer--bold").
				Append(render.Text("small", "footer__text", n.Content)).
				Append(children...)
		},
		TypeHeroSection: func(n domain.ComponentNode, children []render.Block) render.Block {
			eyebrow := n.Prop("eyebrow")
			if eyebrow == "" {
				eyebrow = defaultEyebrow
			}
			return render.El("section", "hero hero--bold").
				Append(render.Text("span", "hero__eyebrow", eyebrow)).
				Append(render.Text("h1", "hero__title", n.Content)).
				Append(optionalText("p", "hero__lede", n.Prop("subtitle"))).
				Append(image("hero__image", n.Prop("image"), n.Prop("alt"))).
				Append(children...)
		},
		TypeFAQSection: func(n domain.ComponentNode, children []render.Block) render.Block {
			return render.El("section", "faq faq--bold").
				Append(optionalText("h2", "faq__title", n.Content)).
				Append(render.El("ul", "accordion", children...))
		},
		TypeFAQItem: func(n domain.ComponentNode, _ []render.Block) render.Block {
			return render.El("li", "accordion__item").
				Append(render.Text("button", "accordion__toggle", n.Prop("question")).WithAttr("type", "button")).
				Append(render.El("div", "accordion__panel", render.Paragraphs("", n.Content)...))
		},
		TypeTestimonialsSection: func(n domain.ComponentNode, children []render.Block) render.Block {
			return render.El("section", "quotes").
				Append(optionalText("h2", "quotes__title", n.Content)).
				Append(render.El("div", "quotes__grid", children...))
		},
		TypeTestimonial: func(n domain.ComponentNode, _ []render.Block) render.Block {
			return render.El("figure", "quote").
				Append(render.Text("blockquote", "quote__text", n.Content)).
				Append(optionalText("figcaption", "quote__author", n.Prop("author")))
		},
		TypePricingSection: func(n domain.ComponentNode, children []render.Block) render.Block {
			return render.El("section", "plans").
				Append(optionalText("h2", "plans__title", n.Content)).
				Append(render.El("div", "plans__grid", children...))
		},
		TypePricingTier: func(n domain.ComponentNode, _ []render.Block) render.Block {
			head := render.El("header", "plan__header").
				Append(render.Text("h3", "plan__name", n.Content)).
				Append(optionalText("strong", "plan__price", price(n.Prop("price"), n.Prop("period"))))
			return render.El("article", "plan").
				Append(head).
				Append(optionalText("p", "plan__description", n.Prop("description")))
		},
		TypeCallToAction: func(n domain.ComponentNode, _ []render.Block) render.Block {
			return render.El("section", "cta cta--bold").
				Append(render.Text("a", "button button--large", n.Content).WithAttr("href", render.SafeURL(n.Prop("href"))))
		},
		TypeRichText: func(n domain.ComponentNode, _ []render.Block) render.Block {
			return render.El("div", "prose prose--bold").Append(render.Paragraphs("", n.Content)...)
		},
		TypeImage: func(n domain.ComponentNode, _ []render.Block) render.Block {
			img := image("image__media", n.Prop("src"), n.Prop("alt"))
			if img.IsEmpty() {
				return img
			}
			return render.El("figure", "image image--bold").
				Append(img).
				Append(optionalText("figcaption", "image__caption", n.Prop("caption")))
		},
	}
}
