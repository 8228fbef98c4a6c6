package pgtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormatDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-03-07")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2024, Month: 3, Day: 7}, d)
	assert.Equal(t, "2024-03-07", FormatDate(d))
}

func TestParseFormatDateBC(t *testing.T) {
	d, err := ParseDate("4713-01-01 BC")
	require.NoError(t, err)
	assert.True(t, d.BC)
	assert.Equal(t, "4713-01-01 BC", FormatDate(d))
}

func TestParseFormatTimeWithFraction(t *testing.T) {
	tm, err := ParseTime("13:45:07.123456")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 13, Minute: 45, Second: 7, Nanosecond: 123456000}, tm.TimeOfDay)
	assert.False(t, tm.HasOffset)
	assert.Equal(t, "13:45:07.123456", FormatTime(tm))
}

func TestParseFormatTimeWithOffset(t *testing.T) {
	tm, err := ParseTime("13:45:07-05:30")
	require.NoError(t, err)
	assert.True(t, tm.HasOffset)
	assert.Equal(t, -(5*3600 + 30*60), tm.OffsetSeconds)
	assert.Equal(t, "13:45:07-05:30", FormatTime(tm))
}

func TestParseFormatTimestampRoundTrip(t *testing.T) {
	ts, err := ParseTimestamp("2024-03-07 13:45:07.5")
	require.NoError(t, err)
	assert.Equal(t, 2024, ts.Date.Year)
	assert.Equal(t, 500000, ts.TimeOfDay.Nanosecond/1000)
	assert.Equal(t, "2024-03-07 13:45:07.500000", FormatTimestamp(ts))
}

func TestParseFormatTimestampTZRoundTrip(t *testing.T) {
	ts, err := ParseTimestampTZ("2024-03-07 13:45:07+00")
	require.NoError(t, err)
	assert.Equal(t, 0, ts.OffsetSeconds)
	assert.Equal(t, "2024-03-07 13:45:07+00", FormatTimestampTZ(ts))
}

func TestParseIntervalISOForm(t *testing.T) {
	iv, err := ParseInterval("P1Y2M3DT4H5M6S")
	require.NoError(t, err)
	assert.Equal(t, 14, iv.Months)
	assert.Equal(t, 3, iv.Days)
	assert.EqualValues(t, (4*3600+5*60+6)*1e6, iv.Micros)
}

func TestParseIntervalVerboseForm(t *testing.T) {
	iv, err := ParseInterval("1 year 2 mons 3 days 04:05:06")
	require.NoError(t, err)
	assert.Equal(t, 14, iv.Months)
	assert.Equal(t, 3, iv.Days)
	assert.EqualValues(t, (4*3600+5*60+6)*1e6, iv.Micros)
}

func TestParseIntervalVerboseAgoNegates(t *testing.T) {
	iv, err := ParseInterval("3 days ago")
	require.NoError(t, err)
	assert.Equal(t, -3, iv.Days)
}

func TestFormatIntervalAlwaysISO(t *testing.T) {
	iv, err := ParseInterval("1 year 2 mons 3 days 04:05:06")
	require.NoError(t, err)
	assert.Equal(t, "P1Y2M3DT4H5M6S", FormatInterval(iv))
}

func TestFormatIntervalZero(t *testing.T) {
	assert.Equal(t, "PT0S", FormatInterval(Interval{}))
}

func TestParseDateRejectsMalformedText(t *testing.T) {
	_, err := ParseDate("not-a-date")
	assert.Error(t, err)
}
