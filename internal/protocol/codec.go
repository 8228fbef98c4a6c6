package protocol

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Writer builds a single frontend message body, then Finish prefixes it
// with the tag and big-endian length the way every v3 frame requires.
//
// A Writer is reused across messages; call Reset before building the next
// one.
type Writer struct {
	buf    []byte
	tagged bool
}

// Reset clears the builder and reserves the tag+length header for fill-in
// by Finish. tag is 0 for the untagged startup/SSLRequest messages.
func (w *Writer) Reset(tag byte) {
	w.buf = w.buf[:0]
	w.tagged = tag != 0
	if w.tagged {
		w.buf = append(w.buf, tag)
	}
	// placeholder for the length word, patched in Finish.
	w.buf = append(w.buf, 0, 0, 0, 0)
}

func (w *Writer) Byte(b byte) *Writer {
	w.buf = append(w.buf, b)
	return w
}

func (w *Writer) Bytes(b []byte) *Writer {
	w.buf = append(w.buf, b...)
	return w
}

func (w *Writer) Int16(v int16) *Writer {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	w.buf = append(w.buf, b[:]...)
	return w
}

func (w *Writer) Int32(v int32) *Writer {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
	return w
}

// String writes s followed by a NUL terminator, as every wire string
// requires.
func (w *Writer) String(s string) *Writer {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
	return w
}

// RawBytesWithLength writes a 4-byte length prefix followed by b, or -1
// with no payload when b is nil (the DataRow/Bind NULL convention).
func (w *Writer) RawBytesWithLength(b []byte) *Writer {
	if b == nil {
		return w.Int32(-1)
	}
	w.Int32(int32(len(b)))
	return w.Bytes(b)
}

// Finish patches in the length word (which includes itself but excludes
// the tag byte) and returns the complete frame, valid until the next
// Reset.
func (w *Writer) Finish() []byte {
	lenOffset := 0
	if w.hasTag() {
		lenOffset = 1
	}
	binary.BigEndian.PutUint32(w.buf[lenOffset:lenOffset+4], uint32(len(w.buf)-lenOffset))
	return w.buf
}

func (w *Writer) hasTag() bool {
	return w.tagged
}

// Reader pulls complete backend frames off a buffered byte stream. It
// never returns a partial message: a short read simply blocks (via the
// underlying bufio.Reader) until a full frame is available or the
// connection fails.
type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 16*1024)}
}

// ReadMessage blocks until one full tagged backend message is available
// and returns its tag and body (the body excludes the tag and the length
// word).
func (r *Reader) ReadMessage() (BackendTag, []byte, error) {
	tag, err := r.r.ReadByte()
	if err != nil {
		return 0, nil, err
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(r.r, lenBuf[:]); err != nil {
		return 0, nil, err
	}
	msgLen := int32(binary.BigEndian.Uint32(lenBuf[:]))
	if msgLen < 4 {
		return 0, nil, fmt.Errorf("protocol: malformed frame, length %d < 4", msgLen)
	}

	body := make([]byte, msgLen-4)
	if _, err := io.ReadFull(r.r, body); err != nil {
		return 0, nil, err
	}

	return BackendTag(tag), body, nil
}

// ReadSSLResponse reads the single-byte reply to an SSLRequest.
func (r *Reader) ReadSSLResponse() (byte, error) {
	return r.r.ReadByte()
}

// FieldReader walks a message body field by field in wire order. It never
// returns a partial scalar: on a short body it reports an error via ok.
type FieldReader struct {
	b   []byte
	pos int
}

func NewFieldReader(body []byte) *FieldReader {
	return &FieldReader{b: body}
}

func (f *FieldReader) Remaining() int { return len(f.b) - f.pos }

func (f *FieldReader) Byte() (byte, bool) {
	if f.pos >= len(f.b) {
		return 0, false
	}
	v := f.b[f.pos]
	f.pos++
	return v, true
}

func (f *FieldReader) Int16() (int16, bool) {
	if f.pos+2 > len(f.b) {
		return 0, false
	}
	v := int16(binary.BigEndian.Uint16(f.b[f.pos : f.pos+2]))
	f.pos += 2
	return v, true
}

func (f *FieldReader) Int32() (int32, bool) {
	if f.pos+4 > len(f.b) {
		return 0, false
	}
	v := int32(binary.BigEndian.Uint32(f.b[f.pos : f.pos+4]))
	f.pos += 4
	return v, true
}

// String reads a NUL-terminated wire string.
func (f *FieldReader) String() (string, bool) {
	for i := f.pos; i < len(f.b); i++ {
		if f.b[i] == 0 {
			s := string(f.b[f.pos:i])
			f.pos = i + 1
			return s, true
		}
	}
	return "", false
}

// Bytes reads n raw bytes, or returns the NULL sentinel (nil, true) when n
// is -1, matching the DataRow/Bind NULL convention.
func (f *FieldReader) Bytes(n int32) ([]byte, bool) {
	if n == -1 {
		return nil, true
	}
	if n < 0 || f.pos+int(n) > len(f.b) {
		return nil, false
	}
	v := f.b[f.pos : f.pos+int(n)]
	f.pos += int(n)
	return v, true
}

// Rest returns every remaining byte in the body.
func (f *FieldReader) Rest() []byte {
	v := f.b[f.pos:]
	f.pos = len(f.b)
	return v
}
