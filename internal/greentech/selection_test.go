package greentech_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solbruket/storefront-engine/internal/greentech"
)

func TestSelectRequiresInstallation(t *testing.T) {
	t.Parallel()

	var sel greentech.Selection
	require.False(t, sel.Select(greentech.CodeTier1))
	require.False(t, sel.Enabled())

	sel.SetInstallation(true)
	require.True(t, sel.Select(greentech.CodeTier1))
	require.Equal(t, greentech.CodeTier1, sel.Code())
}

func TestInstallationOffClearsTier(t *testing.T) {
	t.Parallel()

	var sel greentech.Selection
	sel.SetInstallation(true)
	require.True(t, sel.Select(greentech.CodeTier2))

	cleared := sel.SetInstallation(false)
	require.True(t, cleared)
	require.Equal(t, greentech.CodeNone, sel.Code())
	require.False(t, sel.Enabled())

	// Turning installation back on does not resurrect the old tier.
	cleared = sel.SetInstallation(true)
	require.False(t, cleared)
	require.False(t, sel.Enabled())
}

func TestSelectNoneAlwaysAllowed(t *testing.T) {
	t.Parallel()

	var sel greentech.Selection
	sel.SetInstallation(true)
	require.True(t, sel.Select(greentech.CodeTier1))
	require.True(t, sel.Select(greentech.CodeNone))
	require.False(t, sel.Enabled())
}

func TestSelectRejectsUnknownCode(t *testing.T) {
	t.Parallel()

	var sel greentech.Selection
	sel.SetInstallation(true)
	require.False(t, sel.Select(greentech.Code("RABATT99")))
	require.False(t, sel.Enabled())
}
