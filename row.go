package pgwire

import (
	"github.com/wtemperley/pgwire/internal/pgtype"
	"github.com/wtemperley/pgwire/internal/protocol"
	"github.com/wtemperley/pgwire/pgerror"
)

// ColumnMetadata describes one column of a Cursor's result, derived from
// a RowDescription message. Cursor.Columns carries it for a prepared Query
// (which requests a portal-level Describe) and, once Next has read the
// RowDescription, for a parameterless Query; Statement.ResultColumns
// carries it from Prepare. A portal executed without a Describe (as
// Statement.Execute does) leaves Cursor.Columns nil.
type ColumnMetadata struct {
	Name             string
	TableOID         int32
	ColumnAttrNumber int16
	DataTypeOID      int32
	DataTypeSize     int16
	DataTypeModifier int32
}

// Column is one value of a Row: either a UTF-8 textual representation or
// an explicit null. Every conversion method is explicit, and every
// failure is reported rather than silenced, per spec.md §4.5.
type Column struct {
	name   string
	raw    []byte // nil means SQL NULL
	isNull bool
	oid    pgtype.OID
}

func newColumn(name string, raw []byte, dataTypeOID int32) Column {
	return Column{name: name, raw: raw, isNull: raw == nil, oid: pgtype.OID(dataTypeOID)}
}

// columnMetadataFromFields converts a decoded RowDescription into the
// ColumnMetadata slice a Cursor or Statement exposes to callers.
func columnMetadataFromFields(fields []protocol.FieldDescription) []ColumnMetadata {
	cols := make([]ColumnMetadata, len(fields))
	for i, f := range fields {
		cols[i] = ColumnMetadata{
			Name:             f.Name,
			TableOID:         f.TableOID,
			ColumnAttrNumber: f.ColumnAttNum,
			DataTypeOID:      f.DataTypeOID,
			DataTypeSize:     f.DataTypeSize,
			DataTypeModifier: f.TypeModifier,
		}
	}
	return cols
}

// IsNull reports whether the column holds SQL NULL.
func (c Column) IsNull() bool { return c.isNull }

// Raw returns the column's raw textual bytes, or nil if null. It performs
// no conversion and never fails.
func (c Column) Raw() []byte { return c.raw }

func (c Column) requireNonNull() error {
	if c.isNull {
		return pgerror.ValueIsNull(c.name)
	}
	return nil
}

// Bool converts the column to bool. Fails if the column is null or not
// parseable as a Postgres boolean.
func (c Column) Bool() (bool, error) {
	if err := c.requireNonNull(); err != nil {
		return false, err
	}
	v, err := pgtype.ParseBool(string(c.raw))
	if err != nil {
		return false, pgerror.ValueConversion(c.name, "bool", err.Error())
	}
	return v, nil
}

// OptionalBool returns nil for null, and fails only on a genuine parse
// error.
func (c Column) OptionalBool() (*bool, error) {
	if c.isNull {
		return nil, nil
	}
	v, err := c.Bool()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Int converts the column to int64. Fails if null or unparseable; never
// truncates or silently coerces a float.
func (c Column) Int() (int64, error) {
	if err := c.requireNonNull(); err != nil {
		return 0, err
	}
	v, err := pgtype.ParseInt64(string(c.raw))
	if err != nil {
		return 0, pgerror.ValueConversion(c.name, "int64", err.Error())
	}
	return v, nil
}

func (c Column) OptionalInt() (*int64, error) {
	if c.isNull {
		return nil, nil
	}
	v, err := c.Int()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Float converts the column to float64, including Postgres's NaN /
// Infinity / -Infinity spellings.
func (c Column) Float() (float64, error) {
	if err := c.requireNonNull(); err != nil {
		return 0, err
	}
	v, err := pgtype.ParseFloat64(string(c.raw))
	if err != nil {
		return 0, pgerror.ValueConversion(c.name, "float64", err.Error())
	}
	return v, nil
}

func (c Column) OptionalFloat() (*float64, error) {
	if c.isNull {
		return nil, nil
	}
	v, err := c.Float()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Decimal converts the column to an arbitrary-precision decimal,
// preserving scale and accepting NaN, for NUMERIC columns.
func (c Column) Decimal() (pgtype.Value, error) {
	if err := c.requireNonNull(); err != nil {
		return pgtype.Value{}, err
	}
	d, err := pgtype.ParseDecimal(string(c.raw))
	if err != nil {
		return pgtype.Value{}, pgerror.ValueConversion(c.name, "decimal", err.Error())
	}
	return pgtype.Value{Kind: pgtype.KindDecimal, Decimal: d}, nil
}

// String returns the column's raw UTF-8 text unmodified. Fails only if
// null.
func (c Column) String() (string, error) {
	if err := c.requireNonNull(); err != nil {
		return "", err
	}
	return string(c.raw), nil
}

func (c Column) OptionalString() (*string, error) {
	if c.isNull {
		return nil, nil
	}
	v, err := c.String()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Bytes decodes a bytea column from its \x-prefixed hex form.
func (c Column) Bytes() ([]byte, error) {
	if err := c.requireNonNull(); err != nil {
		return nil, err
	}
	v, err := pgtype.ParseBytea(string(c.raw))
	if err != nil {
		return nil, pgerror.ValueConversion(c.name, "bytea", err.Error())
	}
	return v, nil
}

// Date converts the column to a calendar Date.
func (c Column) Date() (pgtype.Date, error) {
	if err := c.requireNonNull(); err != nil {
		return pgtype.Date{}, err
	}
	v, err := pgtype.ParseDate(string(c.raw))
	if err != nil {
		return pgtype.Date{}, pgerror.ValueConversion(c.name, "date", err.Error())
	}
	return v, nil
}

// Time converts the column to a calendar time-of-day (time or timetz).
func (c Column) Time() (pgtype.Time, error) {
	if err := c.requireNonNull(); err != nil {
		return pgtype.Time{}, err
	}
	v, err := pgtype.ParseTime(string(c.raw))
	if err != nil {
		return pgtype.Time{}, pgerror.ValueConversion(c.name, "time", err.Error())
	}
	return v, nil
}

// Timestamp converts the column to a timestamp without time zone.
func (c Column) Timestamp() (pgtype.Timestamp, error) {
	if err := c.requireNonNull(); err != nil {
		return pgtype.Timestamp{}, err
	}
	v, err := pgtype.ParseTimestamp(string(c.raw))
	if err != nil {
		return pgtype.Timestamp{}, pgerror.ValueConversion(c.name, "timestamp", err.Error())
	}
	return v, nil
}

// TimestampTZ converts the column to a timestamp with time zone.
func (c Column) TimestampTZ() (pgtype.TimestampTZ, error) {
	if err := c.requireNonNull(); err != nil {
		return pgtype.TimestampTZ{}, err
	}
	v, err := pgtype.ParseTimestampTZ(string(c.raw))
	if err != nil {
		return pgtype.TimestampTZ{}, pgerror.ValueConversion(c.name, "timestamptz", err.Error())
	}
	return v, nil
}

// Interval converts the column to an Interval.
func (c Column) Interval() (pgtype.Interval, error) {
	if err := c.requireNonNull(); err != nil {
		return pgtype.Interval{}, err
	}
	v, err := pgtype.ParseInterval(string(c.raw))
	if err != nil {
		return pgtype.Interval{}, pgerror.ValueConversion(c.name, "interval", err.Error())
	}
	return v, nil
}

// Value converts the column using the Kind its wire data-type OID maps to
// (see pgtype.KindForOID), for callers that want to switch on a tagged
// union instead of calling a specific typed accessor up front. Null
// columns return pgtype.Null() rather than failing.
func (c Column) Value() (pgtype.Value, error) {
	if c.isNull {
		return pgtype.Null(), nil
	}
	switch pgtype.KindForOID(c.oid) {
	case pgtype.KindBool:
		v, err := c.Bool()
		return pgtype.Bool(v), err
	case pgtype.KindInt64:
		v, err := c.Int()
		return pgtype.Int64(v), err
	case pgtype.KindFloat64:
		v, err := c.Float()
		return pgtype.Float64(v), err
	case pgtype.KindDecimal:
		return c.Decimal()
	case pgtype.KindByteString:
		v, err := c.Bytes()
		return pgtype.ByteString(v), err
	case pgtype.KindDate:
		v, err := c.Date()
		return pgtype.DateValue(v), err
	case pgtype.KindTime:
		v, err := c.Time()
		return pgtype.TimeValue(v), err
	case pgtype.KindTimestamp:
		v, err := c.Timestamp()
		if err != nil {
			return pgtype.Value{}, err
		}
		return pgtype.Value{Kind: pgtype.KindTimestamp, Timestamp: v}, nil
	case pgtype.KindTimestampTZ:
		v, err := c.TimestampTZ()
		if err != nil {
			return pgtype.Value{}, err
		}
		return pgtype.Value{Kind: pgtype.KindTimestampTZ, TimestampTZ: v}, nil
	case pgtype.KindInterval:
		v, err := c.Interval()
		return pgtype.IntervalValue(v), err
	default:
		v, err := c.String()
		return pgtype.String(v), err
	}
}

// Row is an ordered sequence of column values for one DataRow message.
type Row struct {
	columns []Column
}

// ColumnCount returns the number of columns in the row.
func (r Row) ColumnCount() int { return len(r.columns) }

// Column returns the column at the given 0-based ordinal position.
func (r Row) Column(ord int) Column { return r.columns[ord] }
