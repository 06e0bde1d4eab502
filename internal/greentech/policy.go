// Package greentech implements the Swedish "grön teknik" tax deduction as a
// rate-and-cap discount over an order subtotal.
package greentech

import (
	"github.com/solbruket/storefront-engine/internal/money"
)

// Code identifies the selected deduction tier. The raw values are the discount
// codes the storefront templates emit in data-discount-code attributes.
type Code string

const (
	CodeNone  Code = ""
	CodeTier1 Code = "AVDRAG1" // one beneficiary
	CodeTier2 Code = "AVDRAG2" // two beneficiaries
)

// DefaultRateBps is the statutory deduction share for battery storage and
// charging-point installations: 50% of the eligible cost. Products override it
// through the data-green-rate attribute.
const DefaultRateBps int64 = 5000

// CapPerBeneficiary is the program's yearly maximum per person, in öre.
const CapPerBeneficiary money.Money = 5_000_000

// Policy is the discount rule for the currently selected tier.
type Policy struct {
	Code    Code
	RateBps int64
	Cap     money.Money
}

// Beneficiaries returns the beneficiary count the code stands for.
func (c Code) Beneficiaries() int {
	switch c {
	case CodeTier1:
		return 1
	case CodeTier2:
		return 2
	default:
		return 0
	}
}

// Valid reports whether the code is one of the recognised tiers or none.
func (c Code) Valid() bool {
	switch c {
	case CodeNone, CodeTier1, CodeTier2:
		return true
	}
	return false
}

// ParseCode normalises a data-discount-code attribute value. Unknown codes
// map to CodeNone so a bad attribute can never enable a deduction.
func ParseCode(raw string) Code {
	c := Code(raw)
	if !c.Valid() {
		return CodeNone
	}
	return c
}

// PolicyFor builds the policy for a tier. rateBps <= 0 selects the default
// rate, covering the malformed-attribute fallback.
func PolicyFor(code Code, rateBps int64) Policy {
	if rateBps <= 0 || rateBps > money.BpsScale {
		rateBps = DefaultRateBps
	}
	return Policy{
		Code:    code,
		RateBps: rateBps,
		Cap:     CapPerBeneficiary * money.Money(code.Beneficiaries()),
	}
}

// Result is the deduction split for one subtotal. Deduction+Final equals the
// subtotal exactly unless the final price was clamped at zero.
type Result struct {
	Subtotal  money.Money
	Deduction money.Money
	Final     money.Money
}

// Apply computes the deduction for a subtotal under the given policy. The raw
// deduction is rounded half-up exactly once, then clamped to the tier cap; the
// final price is derived by subtraction and clamped at zero.
func Apply(subtotal money.Money, p Policy) Result {
	if subtotal < 0 {
		subtotal = 0
	}
	if p.Code == CodeNone {
		return Result{Subtotal: subtotal, Deduction: 0, Final: subtotal}
	}
	deduction := money.ApplyRate(subtotal, p.RateBps)
	if deduction > p.Cap {
		deduction = p.Cap
	}
	final := subtotal - deduction
	if final < 0 {
		final = 0
	}
	return Result{Subtotal: subtotal, Deduction: deduction, Final: final}
}
