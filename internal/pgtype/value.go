package pgtype

import "github.com/cockroachdb/apd/v3"

// Kind discriminates the PostgresValue tagged union.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt64
	KindFloat64
	KindDecimal
	KindBool
	KindByteString
	KindDate
	KindTime
	KindTimestamp
	KindTimestampTZ
	KindInterval
)

// Date is a calendar date with no associated clock time, carrying a BC
// flag rather than a signed proleptic year so "4713-01-01 BC" round-trips
// exactly as Postgres prints it.
type Date struct {
	Year  int
	Month int
	Day   int
	BC    bool
}

// TimeOfDay is a wall-clock time. Nanosecond keeps whatever fraction was
// parsed (up to nanoseconds); formatting emits at most microseconds, the
// finest grain Postgres's time/timestamp types carry.
type TimeOfDay struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// Time is a time-of-day value, with an optional UTC offset (timetz).
type Time struct {
	TimeOfDay
	HasOffset     bool
	OffsetSeconds int // seconds east of UTC
}

// Timestamp is a calendar timestamp with no time zone.
type Timestamp struct {
	Date
	TimeOfDay
}

// TimestampTZ is a calendar timestamp carrying a UTC offset. The core
// always operates with session TimeZone=UTC (see Conn startup), so
// OffsetSeconds is always 0 for values this client produces itself, but a
// parsed value preserves whatever offset the server actually sent.
type TimestampTZ struct {
	Date
	TimeOfDay
	OffsetSeconds int
}

// Interval is a Postgres INTERVAL, stored as the three independent
// components Postgres itself never collapses into one another (a month
// has no fixed number of days).
type Interval struct {
	Months int
	Days   int
	Micros int64
}

// Value is a tagged Postgres value: one of {null, string, integer, double,
// decimal, bool, byteString, date, time, timestamp-without-timezone,
// timestamp-with-timezone, interval}.
//
// Only the field matching Kind is meaningful; all others are zero.
type Value struct {
	Kind Kind

	Str         string
	Int         int64
	Float       float64
	Decimal     apd.Decimal
	Bool        bool
	Bytes       []byte
	Date        Date
	Time        Time
	Timestamp   Timestamp
	TimestampTZ TimestampTZ
	Interval    Interval
}

func Null() Value                { return Value{Kind: KindNull} }
func IsNull(v Value) bool        { return v.Kind == KindNull }
func String(s string) Value      { return Value{Kind: KindString, Str: s} }
func Int64(i int64) Value        { return Value{Kind: KindInt64, Int: i} }
func Float64(f float64) Value    { return Value{Kind: KindFloat64, Float: f} }
func Bool(b bool) Value          { return Value{Kind: KindBool, Bool: b} }
func ByteString(b []byte) Value  { return Value{Kind: KindByteString, Bytes: b} }
func DateValue(d Date) Value     { return Value{Kind: KindDate, Date: d} }
func TimeValue(t Time) Value     { return Value{Kind: KindTime, Time: t} }
func IntervalValue(i Interval) Value {
	return Value{Kind: KindInterval, Interval: i}
}
