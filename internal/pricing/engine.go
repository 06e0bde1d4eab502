package pricing

import (
	"github.com/solbruket/storefront-engine/internal/catalog"
	"github.com/solbruket/storefront-engine/internal/money"
)

// Source identifies which storefront control contributed a line item.
type Source string

const (
	SourceMain         Source = "main"
	SourceUpsell       Source = "upsell"
	SourceInstallation Source = "installation"
)

// LineItem is one priced line of an order draft.
type LineItem struct {
	Source    Source
	VariantID string
	Title     string
	UnitPrice money.Money
	Quantity  int
}

// Total returns the exact line total with no intermediate rounding.
func (li LineItem) Total() money.Money {
	if li.Quantity <= 0 {
		return 0
	}
	return li.UnitPrice * money.Money(li.Quantity)
}

// OrderDraft is the short-lived priced view of the current selection. It is
// rebuilt from scratch on every input change and never persisted.
type OrderDraft struct {
	Items    []LineItem
	Subtotal money.Money
}

// Build assembles an order draft from the resolved main variant, the chosen
// quantity, zero or more upsell variants and an optional installation variant.
// Upsells and installation always contribute exactly one unit each.
func Build(main catalog.Variant, qty int, upsells []catalog.Variant, installation *catalog.Variant) OrderDraft {
	if qty < 1 {
		qty = 1
	}
	items := make([]LineItem, 0, len(upsells)+2)
	items = append(items, LineItem{
		Source:    SourceMain,
		VariantID: main.ID,
		Title:     main.Title,
		UnitPrice: main.UnitPrice,
		Quantity:  qty,
	})
	for _, u := range upsells {
		items = append(items, LineItem{
			Source:    SourceUpsell,
			VariantID: u.ID,
			Title:     u.Title,
			UnitPrice: u.UnitPrice,
			Quantity:  1,
		})
	}
	if installation != nil {
		items = append(items, LineItem{
			Source:    SourceInstallation,
			VariantID: installation.ID,
			Title:     installation.Title,
			UnitPrice: installation.UnitPrice,
			Quantity:  1,
		})
	}
	return OrderDraft{Items: items, Subtotal: Subtotal(items)}
}

// Subtotal sums line totals in exact integer space.
func Subtotal(items []LineItem) money.Money {
	var total money.Money
	for _, it := range items {
		total += it.Total()
	}
	return total
}

// Installation returns the installation line of the draft, if present.
func (d OrderDraft) Installation() (LineItem, bool) {
	for _, it := range d.Items {
		if it.Source == SourceInstallation {
			return it, true
		}
	}
	return LineItem{}, false
}
