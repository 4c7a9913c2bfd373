package theme

import (
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/render"
)

// Classic is the default theme: conventional semantic markup.
const Classic = "classic"

func classicComponents() map[string]render.Component {
	return map[string]render.Component{
		TypeHeader: func(n domain.ComponentNode, children []render.Block) render.Block {
			b := render.El("header", "site-header").Append(render.Text("h1", "site-header__title", n.Content))
			if len(children) > 0 {
				b = b.Append(render.El("nav", "site-header__nav", children...))
			}
			return b
		},
		TypeNavLink: func(n domain.ComponentNode, _ []render.Block) render.Block {
			return render.Text("a", "nav-link", n.Content).WithAttr("href", render.SafeURL(n.Prop("href")))
		},
		TypeFooter: func(n domain.ComponentNode, children []render.Block) render.Block {
			return render.El("footer", "site-footer").
				Append(render.Text("p", "site-footer__text", n.Content)).
				Append(children...)
		},
		TypeHeroSection: func(n domain.ComponentNode, children []render.Block) render.Block {
			return render.El("section", "hero hero--classic").
				Append(render.Text("h2", "hero__title", n.Content)).
				Append(optionalText("p", "hero__subtitle", n.Prop("subtitle"))).
				Append(image("hero__image", n.Prop("image"), n.Prop("alt"))).
				Append(children...)
		},
		TypeFAQSection: func(n domain.ComponentNode, children []render.Block) render.Block {
			return render.El("section", "faq faq--classic").
				Append(optionalText("h2", "faq__title", n.Content)).
				Append(children...)
		},
		TypeFAQItem: func(n domain.ComponentNode, _ []render.Block) render.Block {
			return render.El("details", "faq-item").
				Append(render.Text("summary", "faq-item__question", n.Prop("question"))).
				Append(render.Paragraphs("faq-item__answer", n.Content)...)
		},
		TypeTestimonialsSection: func(n domain.ComponentNode, children []render.Block) render.Block {
			return render.El("section", "testimonials").
				Append(optionalText("h2", "testimonials__title", n.Content)).
				Append(children...)
		},
		TypeTestimonial: func(n domain.ComponentNode, _ []render.Block) render.Block {
			return render.El("blockquote", "testimonial").
				Append(render.Text("p", "testimonial__quote", n.Content)).
				Append(optionalText("cite", "testimonial__author", n.Prop("author")))
		},
		TypePricingSection: func(n domain.ComponentNode, children []render.Block) render.Block {
			return render.El("section", "pricing").
				Append(optionalText("h2", "pricing__title", n.Content)).
				Append(render.El("div", "pricing__tiers", children...))
		},
		TypePricingTier: func(n domain.ComponentNode, _ []render.Block) render.Block {
			return render.El("div", "pricing-tier").
				Append(render.Text("h3", "pricing-tier__name", n.Content)).
				Append(optionalText("p", "pricing-tier__price", price(n.Prop("price"), n.Prop("period")))).
				Append(optionalText("p", "pricing-tier__description", n.Prop("description")))
		},
		TypeCallToAction: func(n domain.ComponentNode, _ []render.Block) render.Block {
			return render.El("section", "cta cta--classic").
				Append(render.Text("a", "button", n.Content).WithAttr("href", render.SafeURL(n.Prop("href"))))
		},
		TypeRichText: func(n domain.ComponentNode, _ []render.Block) render.Block {
			return render.El("div", "rich-text").Append(render.Paragraphs("", n.Content)...)
		},
		TypeImage: func(n domain.ComponentNode, _ []render.Block) render.Block {
			return image("image", n.Prop("src"), n.Prop("alt"))
		},
	}
}
