package greentech_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solbruket/storefront-engine/internal/greentech"
	"github.com/solbruket/storefront-engine/internal/money"
)

func TestApplyNoneIsIdentity(t *testing.T) {
	t.Parallel()

	for _, subtotal := range []money.Money{0, 1, 10_000, 12_000_000} {
		res := greentech.Apply(subtotal, greentech.PolicyFor(greentech.CodeNone, 0))
		require.Equal(t, money.Money(0), res.Deduction)
		require.Equal(t, subtotal, res.Final)
		require.Equal(t, subtotal, res.Subtotal)
	}
}

func TestApplyScenarioA(t *testing.T) {
	t.Parallel()

	// 100,00 kr at a 48.5% deduction share.
	res := greentech.Apply(10_000, greentech.PolicyFor(greentech.CodeTier1, 4850))
	require.Equal(t, money.Money(4_850), res.Deduction)
	require.Equal(t, money.Money(5_150), res.Final)
	require.Equal(t, res.Subtotal, res.Deduction+res.Final)
}

func TestApplyScenarioBClampsToTierCap(t *testing.T) {
	t.Parallel()

	// 120 000 kr order: the raw deduction exceeds the one-beneficiary cap.
	res := greentech.Apply(12_000_000, greentech.PolicyFor(greentech.CodeTier1, 0))
	require.Equal(t, money.Money(5_000_000), res.Deduction)
	require.Equal(t, money.Money(7_000_000), res.Final)

	// Two beneficiaries double the cap.
	res = greentech.Apply(12_000_000, greentech.PolicyFor(greentech.CodeTier2, 0))
	require.Equal(t, money.Money(6_000_000), res.Deduction)
}

func TestApplyExactSplitNoDrift(t *testing.T) {
	t.Parallel()

	policy := greentech.PolicyFor(greentech.CodeTier1, 5551)
	for _, subtotal := range []money.Money{1, 3, 99, 101, 9_999, 2_499_500} {
		res := greentech.Apply(subtotal, policy)
		require.Equal(t, subtotal, res.Deduction+res.Final, "subtotal %d", subtotal)
	}
}

func TestApplyIdempotent(t *testing.T) {
	t.Parallel()

	policy := greentech.PolicyFor(greentech.CodeTier2, 4850)
	first := greentech.Apply(7_654_321, policy)
	second := greentech.Apply(7_654_321, policy)
	require.Equal(t, first, second)
}

func TestApplyMonotonicUntilCap(t *testing.T) {
	t.Parallel()

	policy := greentech.PolicyFor(greentech.CodeTier1, 5000)
	var prev money.Money
	capped := false
	for subtotal := money.Money(0); subtotal <= 11_000_000; subtotal += 137_531 {
		res := greentech.Apply(subtotal, policy)
		require.GreaterOrEqual(t, res.Deduction, prev)
		if capped {
			require.Equal(t, policy.Cap, res.Deduction)
		}
		if res.Deduction == policy.Cap {
			capped = true
		}
		prev = res.Deduction
	}
	require.True(t, capped)
}

func TestApplyCapBoundaryNoDoubleRound(t *testing.T) {
	t.Parallel()

	// subtotal * rate lands exactly on the cap; the deduction must be the cap,
	// not a half-unit above it.
	policy := greentech.PolicyFor(greentech.CodeTier1, 5000)
	res := greentech.Apply(10_000_000, policy)
	require.Equal(t, policy.Cap, res.Deduction)
	require.Equal(t, money.Money(5_000_000), res.Final)
}

func TestApplyNegativeSubtotalClamped(t *testing.T) {
	t.Parallel()

	res := greentech.Apply(-500, greentech.PolicyFor(greentech.CodeTier1, 0))
	require.Equal(t, money.Money(0), res.Subtotal)
	require.Equal(t, money.Money(0), res.Deduction)
	require.Equal(t, money.Money(0), res.Final)
}

func TestPolicyForFallsBackToDefaultRate(t *testing.T) {
	t.Parallel()

	p := greentech.PolicyFor(greentech.CodeTier1, 0)
	require.Equal(t, greentech.DefaultRateBps, p.RateBps)

	p = greentech.PolicyFor(greentech.CodeTier1, 20_000)
	require.Equal(t, greentech.DefaultRateBps, p.RateBps)
}

func TestParseCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, greentech.CodeTier1, greentech.ParseCode("AVDRAG1"))
	require.Equal(t, greentech.CodeTier2, greentech.ParseCode("AVDRAG2"))
	require.Equal(t, greentech.CodeNone, greentech.ParseCode(""))
	require.Equal(t, greentech.CodeNone, greentech.ParseCode("RABATT99"))
}
