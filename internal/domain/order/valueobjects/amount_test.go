package valueobjects

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMicroFromString(t *testing.T) {
	t.Run("converts decimal amounts exactly", func(t *testing.T) {
		got, err := MicroFromString("10.123")
		require.NoError(t, err)
		assert.Equal(t, int64(10_123_000), got)
	})

	t.Run("trailing zeros do not change the value", func(t *testing.T) {
		a, err := MicroFromString("10.123000")
		require.NoError(t, err)
		b, err := MicroFromString("10.123")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("whole numbers", func(t *testing.T) {
		got, err := MicroFromString("50")
		require.NoError(t, err)
		assert.Equal(t, int64(50_000_000), got)
	})

	t.Run("rejects more than six decimal places", func(t *testing.T) {
		_, err := MicroFromString("10.1234567")
		assert.Error(t, err)
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		_, err := MicroFromString("-1.5")
		assert.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := MicroFromString("not-a-number")
		assert.Error(t, err)
	})
}

func TestMicroFromDecimal(t *testing.T) {
	t.Run("six decimal places is the limit", func(t *testing.T) {
		got, err := MicroFromDecimal(decimal.RequireFromString("0.000001"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})

	t.Run("seventh decimal place is rejected", func(t *testing.T) {
		_, err := MicroFromDecimal(decimal.RequireFromString("0.0000001"))
		assert.Error(t, err)
	})
}

func TestMicroFromReceived(t *testing.T) {
	t.Run("rounds float noise to the nearest micro", func(t *testing.T) {
		// 10.123 rendered through a float64 can come out as
		// 10.122999999999999 on the wire.
		got, err := MicroFromReceived("10.122999999999999")
		require.NoError(t, err)
		assert.Equal(t, int64(10_123_000), got)

		got, err = MicroFromReceived("10.123000000000001")
		require.NoError(t, err)
		assert.Equal(t, int64(10_123_000), got)
	})

	t.Run("exact amounts pass through unchanged", func(t *testing.T) {
		got, err := MicroFromReceived("10.123")
		require.NoError(t, err)
		assert.Equal(t, int64(10_123_000), got)
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		_, err := MicroFromReceived("-10.123")
		assert.Error(t, err)
	})

	t.Run("rejects amounts beyond the maximum", func(t *testing.T) {
		// An absurd magnitude would overflow int64 micro-units if it ever
		// reached conversion.
		_, err := MicroFromReceived("1e30")
		assert.ErrorContains(t, err, "maximum")

		_, err = MicroFromReceived("1000000001")
		assert.ErrorContains(t, err, "maximum")

		got, err := MicroFromReceived("1000000000")
		require.NoError(t, err)
		assert.Equal(t, MaxAmountMicro, got)
	})
}

func TestPaymentAmountMicro(t *testing.T) {
	assert.Equal(t, int64(10_123_000), PaymentAmountMicro(10_000_000, 123))
	assert.Equal(t, int64(10_001_000), PaymentAmountMicro(10_000_000, 1))
	assert.Equal(t, int64(10_999_000), PaymentAmountMicro(10_000_000, 999))
}

func TestVerifyAmount(t *testing.T) {
	expected := PaymentAmountMicro(10_000_000, 123)

	assert.True(t, VerifyAmount(expected, "10.123"))
	assert.True(t, VerifyAmount(expected, "10.123000"))
	assert.True(t, VerifyAmount(expected, "10.122999999999999"))

	// One suffix step off must never verify: that is a different order.
	assert.False(t, VerifyAmount(expected, "10.122"))
	assert.False(t, VerifyAmount(expected, "10.124"))
	assert.False(t, VerifyAmount(expected, "10.1235"))
	assert.False(t, VerifyAmount(expected, "bogus"))
}

func TestExtractSuffix(t *testing.T) {
	t.Run("recovers the suffix from a disambiguated amount", func(t *testing.T) {
		suffix, ok := ExtractSuffix(10_123_000)
		require.True(t, ok)
		assert.Equal(t, 123, suffix)

		suffix, ok = ExtractSuffix(10_001_000)
		require.True(t, ok)
		assert.Equal(t, 1, suffix)

		suffix, ok = ExtractSuffix(10_999_000)
		require.True(t, ok)
		assert.Equal(t, 999, suffix)
	})

	t.Run("whole-number amounts carry no suffix", func(t *testing.T) {
		_, ok := ExtractSuffix(10_000_000)
		assert.False(t, ok)
	})

	t.Run("sub-suffix micros are ignored", func(t *testing.T) {
		suffix, ok := ExtractSuffix(10_123_456)
		require.True(t, ok)
		assert.Equal(t, 123, suffix)
	})
}

func TestFormatMicro(t *testing.T) {
	assert.Equal(t, "10.123", FormatMicro(10_123_000))
	assert.Equal(t, "10", FormatMicro(10_000_000))
	assert.Equal(t, "0.000001", FormatMicro(1))
	assert.Equal(t, "10.5", FormatMicro(10_500_000))
}
