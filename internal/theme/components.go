package theme

import "github.com/jonesrussell/north-cloud/site-renderer/internal/render"

// Component types every built-in theme implements.
const (
	TypeHeader              = "Header"
	TypeNavLink             = "NavLink"
	TypeFooter              = "Footer"
	TypeHeroSection         = "HeroSection"
	TypeFAQSection          = "FAQSection"
	TypeFAQItem             = "FAQItem"
	TypeTestimonialsSection = "TestimonialsSection"
	TypeTestimonial         = "Testimonial"
	TypePricingSection      = "PricingSection"
	TypePricingTier         = "PricingTier"
	TypeCallToAction        = "CallToAction"
	TypeRichText            = "RichText"
	TypeImage               = "Image"
)

// optionalText is a text block, or nothing when text is empty.
func optionalText(tag, class, text string) render.Block {
	if text == "" {
		return render.Block{}
	}
	return render.Text(tag, class, text)
}

// image renders <img>, or nothing without a source. src is an opaque media URL.
func image(class, src, alt string) render.Block {
	if src == "" {
		return render.Block{}
	}
	return render.Block{Tag: "img", Class: class}.
		WithAttr("src", render.SafeURL(src)).
		WithAttr("alt", alt).
		WithAttr("loading", "lazy")
}

func price(amount, period string) string {
	if amount == "" || period == "" {
		return amount
	}
	return amount + " / " + period
}
