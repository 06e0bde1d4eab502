package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/solbruket/storefront-engine/internal/money"
)

// ErrNoVariant is returned when no catalog entry matches the selection.
// Callers keep the previously resolved price state visible instead of
// rendering a broken price.
var ErrNoVariant = errors.New("catalog: no matching variant")

// MaxOptionPositions is the number of option slots a product can expose.
const MaxOptionPositions = 3

// Variant is one purchasable configuration of a product. Variants are loaded
// once from the page's embedded variant JSON and never mutated afterwards.
type Variant struct {
	ID             string
	Title          string
	UnitPrice      money.Money
	CompareAtPrice money.Money // 0 when the variant has no compare-at price
	Options        [MaxOptionPositions]string
}

// OnSale reports whether the compare-at price is a real markdown.
func (v Variant) OnSale() bool {
	return v.CompareAtPrice > v.UnitPrice
}

// Selection maps an option position (1-based) to the chosen value.
type Selection map[int]string

// Resolve finds the variant whose option values equal the selection at every
// selected position. Matching is strict equality; there is no partial or fuzzy
// fallback.
func Resolve(catalog []Variant, sel Selection) (Variant, error) {
	if len(sel) == 0 {
		return Variant{}, ErrNoVariant
	}
	for _, v := range catalog {
		if matches(v, sel) {
			return v, nil
		}
	}
	return Variant{}, ErrNoVariant
}

func matches(v Variant, sel Selection) bool {
	for pos, value := range sel {
		if pos < 1 || pos > MaxOptionPositions {
			return false
		}
		if v.Options[pos-1] != value {
			return false
		}
	}
	return true
}

type variantRow struct {
	ID             json.Number `json:"id"`
	Title          string      `json:"title"`
	Price          money.Money `json:"price"`
	CompareAtPrice money.Money `json:"compare_at_price"`
	Option1        string      `json:"option1"`
	Option2        string      `json:"option2"`
	Option3        string      `json:"option3"`
}

// ParseCatalog decodes the variant list embedded in the product page. Prices
// are minor units. Variant ids may arrive as JSON numbers or strings.
func ParseCatalog(data []byte) ([]Variant, error) {
	var rows []variantRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("catalog: parse variants: %w", err)
	}
	variants := make([]Variant, 0, len(rows))
	for i, row := range rows {
		id := strings.TrimSpace(row.ID.String())
		if id == "" {
			return nil, fmt.Errorf("catalog: variant %d has no id", i)
		}
		if row.Price < 0 {
			return nil, fmt.Errorf("catalog: variant %s has negative price", id)
		}
		compare := row.CompareAtPrice
		if compare < 0 {
			compare = 0
		}
		variants = append(variants, Variant{
			ID:             id,
			Title:          row.Title,
			UnitPrice:      row.Price,
			CompareAtPrice: compare,
			Options:        [MaxOptionPositions]string{row.Option1, row.Option2, row.Option3},
		})
	}
	return variants, nil
}
