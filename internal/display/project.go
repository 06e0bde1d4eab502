// Package display projects a priced order draft and discount result into a
// deterministic list of text updates for the page's price regions. It is a
// pure mapping; the Renderer that applies the updates lives with the caller.
package display

import (
	"github.com/solbruket/storefront-engine/internal/catalog"
	"github.com/solbruket/storefront-engine/internal/greentech"
	"github.com/solbruket/storefront-engine/internal/money"
	"github.com/solbruket/storefront-engine/internal/pricing"
)

// Style controls how a price line is rendered.
type Style int

const (
	StyleNormal Style = iota
	StyleStrikethrough
)

// Well-known update targets, matching the element ids the theme templates use.
const (
	TargetMainPrice     = "current-price"
	TargetComparePrice  = "compare-price"
	TargetInstallation  = "installation-price"
	TargetTotal         = "total-price-display"
	TargetAfterDiscount = "discount-price-display"

	upsellTargetPrefix = "upsell-price-"
)

// UpsellTarget returns the update target for an upsell line.
func UpsellTarget(variantID string) string {
	return upsellTargetPrefix + variantID
}

// Update is one (target, text) assignment. An empty Text means the region has
// nothing to show and should be hidden.
type Update struct {
	Target string
	Text   string
	Style  Style
}

// Project emits exactly one update per price-bearing region. The main
// product's own unit price is never struck through or discounted; when a
// deduction tier is active the strikethrough applies to upsell and
// installation lines and to the bar total, and the after-discount line carries
// the final price. This asymmetry is the confirmed product display rule.
func Project(main catalog.Variant, draft pricing.OrderDraft, res greentech.Result, discounted bool) []Update {
	updates := make([]Update, 0, len(draft.Items)+4)

	updates = append(updates, Update{
		Target: TargetMainPrice,
		Text:   money.Format(main.UnitPrice),
		Style:  StyleNormal,
	})

	compare := Update{Target: TargetComparePrice, Style: StyleStrikethrough}
	if main.OnSale() {
		compare.Text = money.Format(main.CompareAtPrice)
	}
	updates = append(updates, compare)

	lineStyle := StyleNormal
	if discounted {
		lineStyle = StyleStrikethrough
	}
	for _, it := range draft.Items {
		switch it.Source {
		case pricing.SourceUpsell:
			updates = append(updates, Update{
				Target: UpsellTarget(it.VariantID),
				Text:   money.Format(it.UnitPrice),
				Style:  lineStyle,
			})
		case pricing.SourceInstallation:
			updates = append(updates, Update{
				Target: TargetInstallation,
				Text:   money.Format(it.UnitPrice),
				Style:  lineStyle,
			})
		}
	}

	updates = append(updates, Update{
		Target: TargetTotal,
		Text:   money.Format(res.Subtotal),
		Style:  lineStyle,
	})

	after := Update{Target: TargetAfterDiscount, Style: StyleNormal}
	if discounted {
		after.Text = money.Format(res.Final)
	}
	updates = append(updates, after)

	return updates
}
