package protocol

import "fmt"

// AuthenticationRequestBody is the decoded body of an 'R' message.
type AuthenticationRequestBody struct {
	Type AuthType

	// AuthMD5Password
	MD5Salt []byte

	// AuthSASL: mechanisms the server is willing to accept, in order.
	SASLMechanisms []string

	// AuthSASLContinue / AuthSASLFinal: the raw exchange payload.
	SASLData []byte
}

func DecodeAuthenticationRequest(body []byte) (AuthenticationRequestBody, error) {
	f := NewFieldReader(body)
	typ, ok := f.Int32()
	if !ok {
		return AuthenticationRequestBody{}, fmt.Errorf("protocol: truncated AuthenticationRequestBody")
	}

	req := AuthenticationRequestBody{Type: AuthType(typ)}

	switch req.Type {
	case AuthOK, AuthCleartextPassword:
		// no further payload

	case AuthMD5Password:
		salt, ok := f.Bytes(4)
		if !ok {
			return req, fmt.Errorf("protocol: truncated AuthenticationMD5Password salt")
		}
		req.MD5Salt = salt

	case AuthSASL:
		for {
			name, ok := f.String()
			if !ok {
				return req, fmt.Errorf("protocol: truncated AuthenticationSASL mechanism list")
			}
			if name == "" {
				break
			}
			req.SASLMechanisms = append(req.SASLMechanisms, name)
		}

	case AuthSASLContinue, AuthSASLFinal:
		req.SASLData = f.Rest()

	default:
		return req, fmt.Errorf("protocol: unsupported authentication type %d", typ)
	}

	return req, nil
}

// BackendKeyDataBody is the decoded body of a 'K' message.
type BackendKeyDataBody struct {
	ProcessID int32
	SecretKey int32
}

func DecodeBackendKeyData(body []byte) (BackendKeyDataBody, error) {
	f := NewFieldReader(body)
	pid, ok1 := f.Int32()
	secret, ok2 := f.Int32()
	if !ok1 || !ok2 {
		return BackendKeyDataBody{}, fmt.Errorf("protocol: truncated BackendKeyDataBody")
	}
	return BackendKeyDataBody{ProcessID: pid, SecretKey: secret}, nil
}

// ParameterStatusBody is the decoded body of an 'S' message.
type ParameterStatusBody struct {
	Name  string
	Value string
}

func DecodeParameterStatus(body []byte) (ParameterStatusBody, error) {
	f := NewFieldReader(body)
	name, ok1 := f.String()
	value, ok2 := f.String()
	if !ok1 || !ok2 {
		return ParameterStatusBody{}, fmt.Errorf("protocol: truncated ParameterStatusBody")
	}
	return ParameterStatusBody{Name: name, Value: value}, nil
}

// DecodeReadyForQuery decodes the transaction status byte of a 'Z' message.
func DecodeReadyForQuery(body []byte) (TxStatus, error) {
	f := NewFieldReader(body)
	b, ok := f.Byte()
	if !ok {
		return 0, fmt.Errorf("protocol: truncated ReadyForQuery")
	}
	return TxStatus(b), nil
}

// FieldDescription is one column of a RowDescription.
type FieldDescription struct {
	Name         string
	TableOID     int32
	ColumnAttNum int16
	DataTypeOID  int32
	DataTypeSize int16
	TypeModifier int32
	Format       FieldFormat
}

func DecodeRowDescription(body []byte) ([]FieldDescription, error) {
	f := NewFieldReader(body)
	count, ok := f.Int16()
	if !ok {
		return nil, fmt.Errorf("protocol: truncated RowDescription")
	}

	fields := make([]FieldDescription, count)
	for i := range fields {
		name, ok := f.String()
		tableOID, ok2 := f.Int32()
		attNum, ok3 := f.Int16()
		typeOID, ok4 := f.Int32()
		typeSize, ok5 := f.Int16()
		typeMod, ok6 := f.Int32()
		format, ok7 := f.Int16()
		if !ok || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 || !ok7 {
			return nil, fmt.Errorf("protocol: truncated RowDescription field %d", i)
		}
		fields[i] = FieldDescription{
			Name:         name,
			TableOID:     tableOID,
			ColumnAttNum: attNum,
			DataTypeOID:  typeOID,
			DataTypeSize: typeSize,
			TypeModifier: typeMod,
			Format:       FieldFormat(format),
		}
	}
	return fields, nil
}

// DecodeParameterDescription decodes a 't' message body: the OID of
// each parameter the server inferred for a prepared statement.
func DecodeParameterDescription(body []byte) ([]int32, error) {
	f := NewFieldReader(body)
	count, ok := f.Int16()
	if !ok {
		return nil, fmt.Errorf("protocol: truncated ParameterDescription")
	}
	oids := make([]int32, count)
	for i := range oids {
		v, ok := f.Int32()
		if !ok {
			return nil, fmt.Errorf("protocol: truncated ParameterDescription oid %d", i)
		}
		oids[i] = v
	}
	return oids, nil
}

// DecodeDataRow decodes a 'D' message body: one raw column value per
// field, nil for SQL NULL.
func DecodeDataRow(body []byte) ([][]byte, error) {
	f := NewFieldReader(body)
	count, ok := f.Int16()
	if !ok {
		return nil, fmt.Errorf("protocol: truncated DataRow")
	}
	values := make([][]byte, count)
	for i := range values {
		n, ok := f.Int32()
		if !ok {
			return nil, fmt.Errorf("protocol: truncated DataRow length %d", i)
		}
		v, ok := f.Bytes(n)
		if !ok {
			return nil, fmt.Errorf("protocol: truncated DataRow value %d", i)
		}
		values[i] = v
	}
	return values, nil
}

// DecodeCommandComplete decodes a 'C' message body: the raw tag text, e.g.
// "SELECT 42", "UPDATE 17", "INSERT 0 3".
func DecodeCommandComplete(body []byte) (string, error) {
	f := NewFieldReader(body)
	tag, ok := f.String()
	if !ok {
		return "", fmt.Errorf("protocol: truncated CommandComplete")
	}
	return tag, nil
}

// NoticeOrErrorFields is the decoded field set of an 'E'/'N' message,
// keyed by the single-byte field type codes Postgres defines.
type NoticeOrErrorFields map[byte]string

func DecodeNoticeOrError(body []byte) (NoticeOrErrorFields, error) {
	f := NewFieldReader(body)
	fields := make(NoticeOrErrorFields)
	for {
		tag, ok := f.Byte()
		if !ok {
			return nil, fmt.Errorf("protocol: truncated ErrorResponse/NoticeResponse")
		}
		if tag == 0 {
			return fields, nil
		}
		val, ok := f.String()
		if !ok {
			return nil, fmt.Errorf("protocol: truncated ErrorResponse/NoticeResponse field %q", tag)
		}
		fields[tag] = val
	}
}

// Field type codes within an ErrorResponse/NoticeResponse, per the
// Postgres protocol docs.
const (
	FieldSeverity         byte = 'S'
	FieldSeverityNonLocal byte = 'V'
	FieldSQLSTATE         byte = 'C'
	FieldMessage          byte = 'M'
	FieldDetail           byte = 'D'
	FieldHint             byte = 'H'
	FieldPosition         byte = 'P'
	FieldInternalPosition byte = 'p'
	FieldInternalQuery    byte = 'q'
	FieldWhere            byte = 'W'
	FieldSchema           byte = 's'
	FieldTable            byte = 't'
	FieldColumn           byte = 'c'
	FieldDataType         byte = 'd'
	FieldConstraint       byte = 'n'
	FieldFile             byte = 'F'
	FieldLine             byte = 'L'
	FieldRoutine          byte = 'R'
)
