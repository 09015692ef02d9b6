package valueobjects

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// MicroPerUnit is 1 currency unit in micro-units (6 decimals).
	MicroPerUnit = 1_000_000
	// SuffixUnitMicro is the value of suffix 1 in micro-units. The suffix
	// occupies the last three decimal digits of the payment amount.
	SuffixUnitMicro = 1_000
	// MinSuffix and MaxSuffix bound the disambiguation pool. Suffix 0 is
	// excluded: a whole-number amount means "no disambiguation applied".
	MinSuffix = 1
	MaxSuffix = 999
	// MaxAmountMicro caps plausible amounts at one billion units. Anything
	// larger is rejected before conversion, which would otherwise overflow
	// the int64 micro representation.
	MaxAmountMicro = int64(1_000_000_000) * MicroPerUnit
)

// MicroFromDecimal converts a decimal amount to micro-units exactly.
// Amounts with more than 6 fractional digits are rejected rather than
// silently truncated.
func MicroFromDecimal(d decimal.Decimal) (int64, error) {
	scaled := d.Mul(decimal.NewFromInt(MicroPerUnit))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than 6 decimal places", d)
	}
	if scaled.IsNegative() {
		return 0, fmt.Errorf("amount %s is negative", d)
	}
	if scaled.Cmp(decimal.NewFromInt(MaxAmountMicro)) > 0 {
		return 0, fmt.Errorf("amount %s exceeds the maximum", d)
	}
	return scaled.IntPart(), nil
}

// MicroFromString parses a decimal string and converts it to micro-units.
func MicroFromString(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return MicroFromDecimal(d)
}

// MicroFromReceived converts an amount as delivered by the watcher layer to
// micro-units, rounding to the nearest micro. Watchers may deliver amounts
// as floating-point JSON numbers, so the string form may carry binary noise
// beyond the sixth decimal; rounding then comparing as integers is the only
// correct equality test.
func MicroFromReceived(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q is negative", s)
	}
	scaled := d.Mul(decimal.NewFromInt(MicroPerUnit)).Round(0)
	if scaled.Cmp(decimal.NewFromInt(MaxAmountMicro)) > 0 {
		return 0, fmt.Errorf("amount %q exceeds the maximum", s)
	}
	return scaled.IntPart(), nil
}

// PaymentAmountMicro computes base + suffix expressed in micro-units, where
// the suffix occupies the last three decimal digits.
func PaymentAmountMicro(baseMicro int64, suffix int) int64 {
	return baseMicro + int64(suffix)*SuffixUnitMicro
}

// VerifyAmount reports whether a received decimal amount equals the
// expected micro-unit total after rounding to the nearest micro.
func VerifyAmount(expectedMicro int64, received string) bool {
	got, err := MicroFromReceived(received)
	if err != nil {
		return false
	}
	return got == expectedMicro
}

// ExtractSuffix recovers the disambiguation suffix from a micro-unit
// amount. The second return is false when the amount carries no suffix in
// [MinSuffix, MaxSuffix], e.g. a whole-number top-up.
func ExtractSuffix(amountMicro int64) (int, bool) {
	suffix := int((amountMicro / SuffixUnitMicro) % 1000)
	if suffix < MinSuffix || suffix > MaxSuffix {
		return 0, false
	}
	return suffix, true
}

// FormatMicro renders a micro-unit amount as a decimal string without
// trailing zeros (10123000 -> "10.123").
func FormatMicro(amountMicro int64) string {
	return decimal.New(amountMicro, -6).String()
}
