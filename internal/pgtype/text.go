package pgtype

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// ParseBool decodes Postgres's text boolean form: "t" or "f".
func ParseBool(s string) (bool, error) {
	switch s {
	case "t":
		return true, nil
	case "f":
		return false, nil
	}
	return false, fmt.Errorf("pgtype: invalid bool text %q, want \"t\" or \"f\"", s)
}

// FormatBool encodes a bool the way Postgres expects it on the wire.
func FormatBool(b bool) string {
	if b {
		return "t"
	}
	return "f"
}

// ParseInt64 decodes int2/int4/int8 text: a decimal integer with an
// optional leading '-'. Never truncates: an out-of-range literal is a
// conversion error, not a wraparound.
func ParseInt64(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("pgtype: invalid integer text %q: %w", s, err)
	}
	return v, nil
}

// FormatInt64 encodes an int64 as Postgres integer text.
func FormatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}

// ParseFloat64 decodes float4/float8 text, including the special values
// Postgres emits: NaN, Infinity, -Infinity.
func ParseFloat64(s string) (float64, error) {
	switch s {
	case "NaN":
		return math.NaN(), nil
	case "Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("pgtype: invalid float text %q: %w", s, err)
	}
	return v, nil
}

// FormatFloat64 encodes a float64 as Postgres float text.
func FormatFloat64(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseDecimal decodes numeric text into an arbitrary-precision decimal,
// preserving scale (trailing zeros) and accepting "NaN".
func ParseDecimal(s string) (apd.Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return apd.Decimal{}, fmt.Errorf("pgtype: invalid numeric text %q: %w", s, err)
	}
	return *d, nil
}

// FormatDecimal encodes a decimal as Postgres numeric text, preserving
// the coefficient's scale exactly (no trailing-zero trimming, no
// scientific notation for Postgres-representable values).
func FormatDecimal(d apd.Decimal) string {
	if d.Form == apd.NaN || d.Form == apd.NaNSignaling {
		return "NaN"
	}
	return d.Text('f')
}

// ParseBytea decodes the hex bytea input form: \x<hex digits>.
func ParseBytea(s string) ([]byte, error) {
	if !strings.HasPrefix(s, `\x`) {
		return nil, fmt.Errorf(`pgtype: invalid bytea text %q, want \x-prefixed hex`, s)
	}
	b, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil, fmt.Errorf("pgtype: invalid bytea hex %q: %w", s, err)
	}
	return b, nil
}

// FormatBytea encodes raw bytes in the hex bytea output form.
func FormatBytea(b []byte) string {
	return `\x` + hex.EncodeToString(b)
}
