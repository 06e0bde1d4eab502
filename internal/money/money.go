package money

import (
	"strconv"
	"strings"
)

// Money represents a monetary value stored in minor units (öre).
type Money = int64

// BpsScale is the basis-point denominator: 10000 bps == 100%.
const BpsScale = 10000

// ApplyRate multiplies amount by a basis-point rate and rounds half-up to the
// nearest minor unit. Rounding happens exactly once here; derived values must
// be obtained by subtraction, never by re-rounding.
func ApplyRate(amount Money, rateBps int64) Money {
	if amount <= 0 || rateBps <= 0 {
		return 0
	}
	return (amount*rateBps + BpsScale/2) / BpsScale
}

// ParseRateBps converts a rate attribute into basis points. Accepted forms are
// a decimal fraction ("0.485") or a percent string ("48.5%" or "48.5").
// Values above 1 without a percent sign are treated as percentages, matching
// how the storefront templates emit the attribute. The boolean reports whether
// the input was usable; callers fall back to their configured default when it
// is not.
func ParseRateBps(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "-") {
		return 0, false
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || whole < 0 {
		return 0, false
	}
	// Scale the fraction to four decimal places with half-up rounding on the
	// fifth digit, all in integer space.
	frac := int64(0)
	if fracPart != "" {
		digits := fracPart
		if len(digits) > 5 {
			digits = digits[:5]
		}
		v, err := strconv.ParseInt(digits, 10, 64)
		if err != nil || v < 0 {
			return 0, false
		}
		for i := len(digits); i < 5; i++ {
			v *= 10
		}
		frac = (v + 5) / 10
	}

	bps := whole*BpsScale + frac
	if !percent && whole == 0 {
		// fraction form: 0.485 -> 4850 bps
		return clampBps(bps), true
	}
	if !percent && whole == 1 && frac == 0 {
		return BpsScale, true
	}
	// percent form: 48.5 -> 4850 bps
	return clampBps(bps / 100), true
}

func clampBps(bps int64) int64 {
	if bps < 0 {
		return 0
	}
	if bps > BpsScale {
		return BpsScale
	}
	return bps
}

// Format renders an amount as Swedish kronor, e.g. "1 234,56 kr". Grouping
// uses a non-breaking space to match the storefront locale output.
func Format(amount Money) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	whole := amount / 100
	cents := amount % 100

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteString(" ")
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteString(" ")
		}
	}
	b.WriteByte(',')
	if cents < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(cents, 10))
	b.WriteString(" kr")
	return b.String()
}
