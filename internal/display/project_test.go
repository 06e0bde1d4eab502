package display_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solbruket/storefront-engine/internal/catalog"
	"github.com/solbruket/storefront-engine/internal/display"
	"github.com/solbruket/storefront-engine/internal/greentech"
	"github.com/solbruket/storefront-engine/internal/pricing"
)

func find(t *testing.T, updates []display.Update, target string) display.Update {
	t.Helper()
	for _, u := range updates {
		if u.Target == target {
			return u
		}
	}
	t.Fatalf("no update for target %q", target)
	return display.Update{}
}

func TestProjectWithoutDiscount(t *testing.T) {
	t.Parallel()

	main := catalog.Variant{ID: "101", UnitPrice: 2_499_500}
	install := &catalog.Variant{ID: "301", UnitPrice: 495_000}
	draft := pricing.Build(main, 1, []catalog.Variant{{ID: "201", UnitPrice: 150_000}}, install)
	res := greentech.Apply(draft.Subtotal, greentech.PolicyFor(greentech.CodeNone, 0))

	updates := display.Project(main, draft, res, false)

	require.Equal(t, display.StyleNormal, find(t, updates, display.TargetMainPrice).Style)
	require.Equal(t, display.StyleNormal, find(t, updates, display.TargetTotal).Style)
	require.Equal(t, display.StyleNormal, find(t, updates, display.UpsellTarget("201")).Style)
	require.Equal(t, display.StyleNormal, find(t, updates, display.TargetInstallation).Style)

	// The after-discount region is emitted but empty.
	require.Empty(t, find(t, updates, display.TargetAfterDiscount).Text)
}

func TestProjectWithDiscount(t *testing.T) {
	t.Parallel()

	main := catalog.Variant{ID: "101", UnitPrice: 2_499_500}
	install := &catalog.Variant{ID: "301", UnitPrice: 495_000}
	draft := pricing.Build(main, 1, []catalog.Variant{{ID: "201", UnitPrice: 150_000}}, install)
	res := greentech.Apply(draft.Subtotal, greentech.PolicyFor(greentech.CodeTier1, 0))

	updates := display.Project(main, draft, res, true)

	// Main price never struck, even while the total is discounted.
	require.Equal(t, display.StyleNormal, find(t, updates, display.TargetMainPrice).Style)

	require.Equal(t, display.StyleStrikethrough, find(t, updates, display.TargetTotal).Style)
	require.Equal(t, display.StyleStrikethrough, find(t, updates, display.UpsellTarget("201")).Style)
	require.Equal(t, display.StyleStrikethrough, find(t, updates, display.TargetInstallation).Style)

	after := find(t, updates, display.TargetAfterDiscount)
	require.NotEmpty(t, after.Text)
	require.Equal(t, display.StyleNormal, after.Style)
}

func TestProjectComparePrice(t *testing.T) {
	t.Parallel()

	onSale := catalog.Variant{ID: "103", UnitPrice: 2_500, CompareAtPrice: 3_000}
	draft := pricing.Build(onSale, 1, nil, nil)
	res := greentech.Apply(draft.Subtotal, greentech.PolicyFor(greentech.CodeNone, 0))

	updates := display.Project(onSale, draft, res, false)
	compare := find(t, updates, display.TargetComparePrice)
	require.NotEmpty(t, compare.Text)
	require.Equal(t, display.StyleStrikethrough, compare.Style)

	// Compare-at below the unit price is not a markdown and stays hidden.
	notSale := catalog.Variant{ID: "101", UnitPrice: 2_500, CompareAtPrice: 2_000}
	draft = pricing.Build(notSale, 1, nil, nil)
	updates = display.Project(notSale, draft, res, false)
	require.Empty(t, find(t, updates, display.TargetComparePrice).Text)
}

func TestProjectEmitsOneUpdatePerRegion(t *testing.T) {
	t.Parallel()

	main := catalog.Variant{ID: "101", UnitPrice: 1_000}
	draft := pricing.Build(main, 2, []catalog.Variant{{ID: "201", UnitPrice: 500}, {ID: "202", UnitPrice: 700}}, nil)
	res := greentech.Apply(draft.Subtotal, greentech.PolicyFor(greentech.CodeNone, 0))

	updates := display.Project(main, draft, res, false)
	seen := map[string]int{}
	for _, u := range updates {
		seen[u.Target]++
	}
	for target, n := range seen {
		require.Equal(t, 1, n, "target %q emitted %d times", target, n)
	}
	// 4 fixed regions + 2 upsell lines, no installation line without installation.
	require.Len(t, updates, 6)
}
