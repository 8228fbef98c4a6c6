package pgtype

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormatBoolRoundTrip(t *testing.T) {
	v, err := ParseBool("t")
	require.NoError(t, err)
	assert.True(t, v)
	assert.Equal(t, "t", FormatBool(true))

	v, err = ParseBool("f")
	require.NoError(t, err)
	assert.False(t, v)
	assert.Equal(t, "f", FormatBool(false))

	_, err = ParseBool("true")
	assert.Error(t, err)
}

func TestParseFormatInt64RoundTrip(t *testing.T) {
	v, err := ParseInt64("-4242")
	require.NoError(t, err)
	assert.EqualValues(t, -4242, v)
	assert.Equal(t, "-4242", FormatInt64(-4242))

	_, err = ParseInt64("not-a-number")
	assert.Error(t, err)
}

func TestParseFormatFloat64SpecialValues(t *testing.T) {
	for _, tc := range []struct {
		text string
		want float64
	}{
		{"NaN", math.NaN()},
		{"Infinity", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
		{"3.25", 3.25},
	} {
		v, err := ParseFloat64(tc.text)
		require.NoError(t, err)
		if math.IsNaN(tc.want) {
			assert.True(t, math.IsNaN(v))
		} else {
			assert.Equal(t, tc.want, v)
		}
		assert.Equal(t, tc.text, FormatFloat64(tc.want))
	}
}

func TestParseDecimalPreservesScale(t *testing.T) {
	d, err := ParseDecimal("19.900")
	require.NoError(t, err)
	assert.Equal(t, "19.900", FormatDecimal(d))
}

func TestParseDecimalNaN(t *testing.T) {
	d, err := ParseDecimal("NaN")
	require.NoError(t, err)
	assert.Equal(t, "NaN", FormatDecimal(d))
}

func TestParseFormatByteaRoundTrip(t *testing.T) {
	b, err := ParseBytea(`\xdeadbeef`)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, b)
	assert.Equal(t, `\xdeadbeef`, FormatBytea(b))
}

func TestParseByteaRejectsMissingPrefix(t *testing.T) {
	_, err := ParseBytea("deadbeef")
	assert.Error(t, err)
}
