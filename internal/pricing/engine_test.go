package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solbruket/storefront-engine/internal/catalog"
	"github.com/solbruket/storefront-engine/internal/pricing"
)

func TestBuildMainOnly(t *testing.T) {
	t.Parallel()

	main := catalog.Variant{ID: "101", UnitPrice: 2_500}
	draft := pricing.Build(main, 3, nil, nil)
	require.Len(t, draft.Items, 1)
	require.Equal(t, pricing.SourceMain, draft.Items[0].Source)
	require.Equal(t, 3, draft.Items[0].Quantity)
	require.Equal(t, int64(7_500), draft.Subtotal)
}

func TestBuildWithUpsellsAndInstallation(t *testing.T) {
	t.Parallel()

	main := catalog.Variant{ID: "101", UnitPrice: 2_499_500}
	upsells := []catalog.Variant{
		{ID: "201", UnitPrice: 150_000},
		{ID: "202", UnitPrice: 99_500},
	}
	install := &catalog.Variant{ID: "301", UnitPrice: 495_000}

	draft := pricing.Build(main, 2, upsells, install)
	require.Len(t, draft.Items, 4)
	require.Equal(t, int64(2*2_499_500+150_000+99_500+495_000), draft.Subtotal)

	// Upsells and installation are always a single unit.
	for _, it := range draft.Items[1:] {
		require.Equal(t, 1, it.Quantity)
	}

	line, ok := draft.Installation()
	require.True(t, ok)
	require.Equal(t, "301", line.VariantID)
}

func TestBuildFloorsQuantity(t *testing.T) {
	t.Parallel()

	main := catalog.Variant{ID: "101", UnitPrice: 2_500}
	draft := pricing.Build(main, 0, nil, nil)
	require.Equal(t, 1, draft.Items[0].Quantity)
	require.Equal(t, int64(2_500), draft.Subtotal)
}

func TestInstallationAbsent(t *testing.T) {
	t.Parallel()

	draft := pricing.Build(catalog.Variant{ID: "101", UnitPrice: 100}, 1, nil, nil)
	_, ok := draft.Installation()
	require.False(t, ok)
}
