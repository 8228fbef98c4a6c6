package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterFinishComputesLength(t *testing.T) {
	var w Writer
	frame := EncodeSync(&w)
	require.Equal(t, []byte{'S', 0, 0, 0, 4}, frame)
}

func TestWriterUntaggedStartup(t *testing.T) {
	var w Writer
	frame := EncodeStartup(&w, []StartupParam{{Key: "user", Value: "alice"}})
	require.Equal(t, byte(0), frame[4]) // first byte of protocol version high word
	// length word excludes nothing extra; no tag byte present.
	require.Equal(t, 4+4+len("user")+1+len("alice")+1+1, int(frame[3])|int(frame[2])<<8|int(frame[1])<<16|int(frame[0])<<24)
}

func TestReadMessageRoundTrip(t *testing.T) {
	var w Writer
	frame := EncodeQuery(&w, "SELECT 1")

	r := NewReader(bytes.NewReader(frame))
	tag, body, err := r.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, Query, FrontendTag(tag))
	require.Equal(t, "SELECT 1\x00", string(body))
}

func TestReadMessageRejectsShortLength(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{'Z', 0, 0, 0, 2}))
	_, _, err := r.ReadMessage()
	require.Error(t, err)
}

func TestDecodeDataRowWithNull(t *testing.T) {
	var w Writer
	w.Reset(byte(DataRow))
	w.Int16(2)
	w.RawBytesWithLength([]byte("hello"))
	w.RawBytesWithLength(nil)
	frame := w.Finish()

	r := NewReader(bytes.NewReader(frame))
	tag, body, err := r.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, DataRow, tag)

	values, err := DecodeDataRow(body)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("hello"), nil}, values)
}

func TestDecodeNoticeOrError(t *testing.T) {
	var w Writer
	w.Reset(byte(ErrorResponse))
	w.Byte('S')
	w.String("ERROR")
	w.Byte('C')
	w.String("42601")
	w.Byte('M')
	w.String("syntax error")
	w.Byte(0)
	frame := w.Finish()

	r := NewReader(bytes.NewReader(frame))
	_, body, err := r.ReadMessage()
	require.NoError(t, err)

	fields, err := DecodeNoticeOrError(body)
	require.NoError(t, err)
	require.Equal(t, "ERROR", fields[FieldSeverity])
	require.Equal(t, "42601", fields[FieldSQLSTATE])
	require.Equal(t, "syntax error", fields[FieldMessage])
}
