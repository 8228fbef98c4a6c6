// Package pgtype implements the typed value model described by the
// specification: a tagged PostgresValue plus the bidirectional text codec
// between Postgres's wire textual representation and host values.
package pgtype

import "github.com/lib/pq/oid"

// OID is re-exported from github.com/lib/pq/oid rather than hand-rolled
// into a private _BOOLOID/_INT4OID/... table: this canonical constant
// table is already imported for exactly this purpose by a
// Postgres-protocol honeypot and a toy SQL engine's libpq package
// elsewhere in this ecosystem.
type OID = oid.Oid

// OID constants carry an "OID" suffix to avoid colliding with the Value
// kind constructors (Bool, String, ...) and the calendar types (Date,
// Time, Timestamp, TimestampTZ, Interval) this same package declares.
const (
	BoolOID        = oid.T_bool
	ByteaOID       = oid.T_bytea
	CharOID        = oid.T_char
	NameOID        = oid.T_name
	Int8OID        = oid.T_int8
	Int2OID        = oid.T_int2
	Int4OID        = oid.T_int4
	TextOID        = oid.T_text
	Float4OID      = oid.T_float4
	Float8OID      = oid.T_float8
	UnknownOID     = oid.T_unknown
	BPCharOID      = oid.T_bpchar
	VarcharOID     = oid.T_varchar
	DateOID        = oid.T_date
	TimeOID        = oid.T_time
	TimestampOID   = oid.T_timestamp
	TimestampTZOID = oid.T_timestamptz
	IntervalOID    = oid.T_interval
	TimeTZOID      = oid.T_timetz
	NumericOID     = oid.T_numeric
)

// KindForOID maps a wire data-type OID to the Value Kind used to represent
// it. Unrecognized OIDs decode as KindString (raw UTF-8 passthrough), the
// same fallback Postgres's own text/varchar types get.
func KindForOID(o OID) Kind {
	switch o {
	case BoolOID:
		return KindBool
	case Int2OID, Int4OID, Int8OID:
		return KindInt64
	case Float4OID, Float8OID:
		return KindFloat64
	case NumericOID:
		return KindDecimal
	case ByteaOID:
		return KindByteString
	case DateOID:
		return KindDate
	case TimeOID:
		return KindTime
	case TimeTZOID:
		return KindTime
	case TimestampOID:
		return KindTimestamp
	case TimestampTZOID:
		return KindTimestampTZ
	case IntervalOID:
		return KindInterval
	case TextOID, VarcharOID, CharOID, BPCharOID, NameOID:
		return KindString
	default:
		return KindString
	}
}
