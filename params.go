package pgwire

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"github.com/wtemperley/pgwire/internal/pgtype"
	"github.com/wtemperley/pgwire/pgerror"
)

// encodeParamValue converts a bind parameter to its textual wire
// representation. nil encodes as SQL NULL (a nil []byte). Supported Go
// types mirror internal/pgtype's read-side conversions, so a value
// written through this path and read back through a Row's Column method
// round-trips exactly.
func encodeParamValue(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return []byte(pgtype.FormatBool(val)), nil
	case int:
		return []byte(pgtype.FormatInt64(int64(val))), nil
	case int16:
		return []byte(pgtype.FormatInt64(int64(val))), nil
	case int32:
		return []byte(pgtype.FormatInt64(int64(val))), nil
	case int64:
		return []byte(pgtype.FormatInt64(val)), nil
	case float32:
		return []byte(pgtype.FormatFloat64(float64(val))), nil
	case float64:
		return []byte(pgtype.FormatFloat64(val)), nil
	case string:
		return []byte(val), nil
	case []byte:
		return []byte(pgtype.FormatBytea(val)), nil
	case apd.Decimal:
		return []byte(pgtype.FormatDecimal(val)), nil
	case pgtype.Date:
		return []byte(pgtype.FormatDate(val)), nil
	case pgtype.Time:
		return []byte(pgtype.FormatTime(val)), nil
	case pgtype.Timestamp:
		return []byte(pgtype.FormatTimestamp(val)), nil
	case pgtype.TimestampTZ:
		return []byte(pgtype.FormatTimestampTZ(val)), nil
	case pgtype.Interval:
		return []byte(pgtype.FormatInterval(val)), nil
	default:
		return nil, fmt.Errorf("pgwire: unsupported parameter type %T", v)
	}
}

func encodeParamValues(params []interface{}) ([][]byte, error) {
	if len(params) > 65535 {
		return nil, pgerror.TooManyParameters(len(params))
	}
	values := make([][]byte, len(params))
	for i, p := range params {
		v, err := encodeParamValue(p)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
