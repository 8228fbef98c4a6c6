package protocol

// EncodeSSLRequest returns the fixed 8-byte SSLRequest preamble:
// length(8) | 80877103.
func EncodeSSLRequest(w *Writer) []byte {
	w.Reset(0)
	w.Int32(SSLRequestCode)
	return w.Finish()
}

// StartupParam is one key/value pair of a StartupMessage. A slice (rather
// than a map) keeps the wire order deterministic.
type StartupParam struct {
	Key   string
	Value string
}

// EncodeStartup builds a StartupMessage carrying params in order.
func EncodeStartup(w *Writer, params []StartupParam) []byte {
	w.Reset(0)
	w.Int32(ProtocolVersion3)
	for _, p := range params {
		w.String(p.Key)
		w.String(p.Value)
	}
	w.Byte(0)
	return w.Finish()
}

// EncodePasswordMessage builds a PasswordMessage ('p'), used for
// cleartext/MD5 password responses and as the carrier for SASL frames.
func EncodePasswordMessage(w *Writer, payload string) []byte {
	w.Reset(byte(PasswordMessage))
	w.String(payload)
	return w.Finish()
}

// EncodeSASLInitialResponse builds the SASLInitialResponse, sent as a
// PasswordMessage carrying a mechanism name and an optional
// client-first-message.
func EncodeSASLInitialResponse(w *Writer, mechanism string, clientFirstMessage []byte) []byte {
	w.Reset(byte(PasswordMessage))
	w.String(mechanism)
	w.RawBytesWithLength(clientFirstMessage)
	return w.Finish()
}

// EncodeSASLResponse builds a SASLResponse ('p') carrying raw SCRAM
// response bytes (no length-prefixed wrapper, unlike the initial
// response).
func EncodeSASLResponse(w *Writer, response []byte) []byte {
	w.Reset(byte(PasswordMessage))
	w.Bytes(response)
	return w.Finish()
}

// EncodeQuery builds a simple-query message ('Q').
func EncodeQuery(w *Writer, sql string) []byte {
	w.Reset(byte(Query))
	w.String(sql)
	return w.Finish()
}

// EncodeParse builds a Parse message ('P') naming a prepared statement,
// its SQL text, and the OIDs of its parameters (0 lets the server infer a
// type).
func EncodeParse(w *Writer, stmtName, sql string, paramOIDs []uint32) []byte {
	w.Reset(byte(Parse))
	w.String(stmtName)
	w.String(sql)
	w.Int16(int16(len(paramOIDs)))
	for _, oid := range paramOIDs {
		w.Int32(int32(oid))
	}
	return w.Finish()
}

// EncodeBind builds a Bind message ('B') binding portalName to stmtName
// with the given textual parameter values (nil entries encode as SQL
// NULL). Results are always requested in text format.
func EncodeBind(w *Writer, portalName, stmtName string, params [][]byte) []byte {
	w.Reset(byte(Bind))
	w.String(portalName)
	w.String(stmtName)

	// parameter format codes: one code (0 = text) applies to all.
	w.Int16(1)
	w.Int16(int16(TextFormat))

	w.Int16(int16(len(params)))
	for _, p := range params {
		w.RawBytesWithLength(p)
	}

	// result format codes: one code (0 = text) applies to all columns.
	w.Int16(1)
	w.Int16(int16(TextFormat))

	return w.Finish()
}

// EncodeDescribe builds a Describe message ('D') for a statement or
// portal.
func EncodeDescribe(w *Writer, target CloseTarget, name string) []byte {
	w.Reset(byte(Describe))
	w.Byte(byte(target))
	w.String(name)
	return w.Finish()
}

// EncodeExecute builds an Execute message ('E'). maxRows of 0 means
// unlimited.
func EncodeExecute(w *Writer, portalName string, maxRows int32) []byte {
	w.Reset(byte(Execute))
	w.String(portalName)
	w.Int32(maxRows)
	return w.Finish()
}

// EncodeClose builds a Close message ('C') for a statement or portal.
func EncodeClose(w *Writer, target CloseTarget, name string) []byte {
	w.Reset(byte(Close))
	w.Byte(byte(target))
	w.String(name)
	return w.Finish()
}

// EncodeFlush builds a Flush message ('H').
func EncodeFlush(w *Writer) []byte {
	w.Reset(byte(Flush))
	return w.Finish()
}

// EncodeSync builds a Sync message ('S').
func EncodeSync(w *Writer) []byte {
	w.Reset(byte(Sync))
	return w.Finish()
}

// EncodeTerminate builds a Terminate message ('X').
func EncodeTerminate(w *Writer) []byte {
	w.Reset(byte(Terminate))
	return w.Finish()
}
