package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solbruket/storefront-engine/internal/catalog"
)

func testCatalog() []catalog.Variant {
	return []catalog.Variant{
		{ID: "101", Title: "Svart / 5 kW", UnitPrice: 2_500, Options: [3]string{"Svart", "5 kW", ""}},
		{ID: "102", Title: "Svart / 10 kW", UnitPrice: 4_500, Options: [3]string{"Svart", "10 kW", ""}},
		{ID: "103", Title: "Vit / 5 kW", UnitPrice: 2_500, CompareAtPrice: 3_000, Options: [3]string{"Vit", "5 kW", ""}},
	}
}

func TestResolveExactMatch(t *testing.T) {
	t.Parallel()

	v, err := catalog.Resolve(testCatalog(), catalog.Selection{1: "Svart", 2: "10 kW"})
	require.NoError(t, err)
	require.Equal(t, "102", v.ID)
	require.Equal(t, int64(4_500), v.UnitPrice)
}

func TestResolveNoMatch(t *testing.T) {
	t.Parallel()

	_, err := catalog.Resolve(testCatalog(), catalog.Selection{1: "Svart", 2: "15 kW"})
	require.ErrorIs(t, err, catalog.ErrNoVariant)

	_, err = catalog.Resolve(testCatalog(), nil)
	require.ErrorIs(t, err, catalog.ErrNoVariant)

	_, err = catalog.Resolve(nil, catalog.Selection{1: "Svart"})
	require.ErrorIs(t, err, catalog.ErrNoVariant)
}

func TestResolveRejectsPartialMatch(t *testing.T) {
	t.Parallel()

	// Every selected position must match; a single mismatching position is a miss
	// even when the others agree.
	_, err := catalog.Resolve(testCatalog(), catalog.Selection{1: "Vit", 2: "10 kW"})
	require.ErrorIs(t, err, catalog.ErrNoVariant)
}

func TestResolveIgnoresInvalidPositions(t *testing.T) {
	t.Parallel()

	_, err := catalog.Resolve(testCatalog(), catalog.Selection{4: "Svart"})
	require.ErrorIs(t, err, catalog.ErrNoVariant)
}

func TestParseCatalog(t *testing.T) {
	t.Parallel()

	data := []byte(`[
		{"id": 40551234, "title": "Svart / 5 kW", "price": 2499500, "compare_at_price": 2799500, "option1": "Svart", "option2": "5 kW"},
		{"id": "40551235", "title": "Vit / 5 kW", "price": 2499500, "option1": "Vit", "option2": "5 kW"}
	]`)
	variants, err := catalog.ParseCatalog(data)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	require.Equal(t, "40551234", variants[0].ID)
	require.True(t, variants[0].OnSale())
	require.Equal(t, "40551235", variants[1].ID)
	require.False(t, variants[1].OnSale())
	require.Equal(t, "Vit", variants[1].Options[0])
}

func TestParseCatalogRejectsBadRows(t *testing.T) {
	t.Parallel()

	_, err := catalog.ParseCatalog([]byte(`{"not":"a list"}`))
	require.Error(t, err)

	_, err = catalog.ParseCatalog([]byte(`[{"title": "no id", "price": 100}]`))
	require.Error(t, err)

	_, err = catalog.ParseCatalog([]byte(`[{"id": 1, "price": -5}]`))
	require.Error(t, err)
}
