package pgwire

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtemperley/pgwire/internal/faketransport"
	"github.com/wtemperley/pgwire/internal/protocol"
)

func testConfig() *Config {
	return &Config{
		Credential: Credential{Username: "testuser", Password: "testpassword"},
		Database:   "testdatabase",
	}
}

// writeBackendMessage appends a tag+length+body frame, the same shape
// protocol.Reader.ReadMessage consumes.
func writeBackendMessage(conn net.Conn, tag protocol.BackendTag, body []byte) error {
	frame := make([]byte, 0, 5+len(body))
	frame = append(frame, byte(tag))
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(4+len(body)))
	frame = append(frame, lenBuf[:]...)
	frame = append(frame, body...)
	_, err := conn.Write(frame)
	return err
}

func backendString(s string) []byte { return append([]byte(s), 0) }

func authenticationOKBody() []byte {
	body := make([]byte, 4)
	binary.BigEndian.PutUint32(body, 0)
	return body
}

func parameterStatusBody(name, value string) []byte {
	body := backendString(name)
	return append(body, backendString(value)...)
}

func backendKeyDataBody(pid, secret int32) []byte {
	body := make([]byte, 8)
	binary.BigEndian.PutUint32(body[0:4], uint32(pid))
	binary.BigEndian.PutUint32(body[4:8], uint32(secret))
	return body
}

func readyForQueryBody(status byte) []byte { return []byte{status} }

func commandCompleteBody(tag string) []byte { return backendString(tag) }

// readRawFrame reads one length-prefixed frame off conn without assuming a
// leading tag byte, matching the StartupMessage/SSLRequest wire shape.
func readRawFrame(conn net.Conn) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return nil, err
	}
	msgLen := binary.BigEndian.Uint32(lenBuf[:])
	body := make([]byte, msgLen-4)
	if _, err := io.ReadFull(conn, body); err != nil {
		return nil, err
	}
	return body, nil
}

// readTaggedFrame discards one tag+length+body frontend frame, used by the
// scripted server to consume Query/Parse/Bind/Execute/Sync messages it
// doesn't need to inspect.
func readTaggedFrame(conn net.Conn) (byte, []byte, error) {
	var tagBuf [1]byte
	if _, err := io.ReadFull(conn, tagBuf[:]); err != nil {
		return 0, nil, err
	}
	body, err := readRawFrame(conn)
	return tagBuf[0], body, err
}

// respondReadyForQuery drains one simple-query round trip (Query -> Sync
// isn't sent for simple queries, just a bare CommandComplete+ReadyForQuery)
// for the SET statements Connect issues after authentication.
func respondReadyForQuery(t *testing.T, conn net.Conn, commandTag string) {
	t.Helper()
	frontendTag, _, err := readTaggedFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, byte(protocol.Query), frontendTag)
	require.NoError(t, writeBackendMessage(conn, protocol.CommandComplete, commandCompleteBody(commandTag)))
	require.NoError(t, writeBackendMessage(conn, protocol.ReadyForQuery, readyForQueryBody('I')))
}

func scriptSuccessfulHandshake(t *testing.T, server net.Conn) {
	t.Helper()

	_, err := readRawFrame(server) // StartupMessage
	require.NoError(t, err)

	require.NoError(t, writeBackendMessage(server, protocol.AuthenticationRequest, authenticationOKBody()))
	require.NoError(t, writeBackendMessage(server, protocol.ParameterStatus, parameterStatusBody("DateStyle", "ISO, MDY")))
	require.NoError(t, writeBackendMessage(server, protocol.ParameterStatus, parameterStatusBody("TimeZone", "UTC")))
	require.NoError(t, writeBackendMessage(server, protocol.BackendKeyData, backendKeyDataBody(4242, 99)))
	require.NoError(t, writeBackendMessage(server, protocol.ReadyForQuery, readyForQueryBody('I')))

	respondReadyForQuery(t, server, "SET")
	respondReadyForQuery(t, server, "SET")
}

func TestConnectOverTransportSucceedsOnAuthenticationOK(t *testing.T) {
	client, server := faketransport.New()

	done := make(chan struct{})
	go func() {
		defer close(done)
		scriptSuccessfulHandshake(t, server)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := connectOverTransport(ctx, testConfig(), client)
	require.NoError(t, err)
	require.NotNil(t, conn)
	defer conn.Close()
	defer server.Close()

	assert.Equal(t, StateReady, conn.State())
	assert.Equal(t, TransactionIdle, conn.TransactionStatus())
	assert.EqualValues(t, 4242, conn.backendPID)

	dateStyle, ok := conn.RuntimeParameter("DateStyle")
	assert.True(t, ok)
	assert.Equal(t, "ISO, MDY", dateStyle)

	<-done
}

func TestConnectOverTransportWarnsOnUnexpectedDateStyle(t *testing.T) {
	client, server := faketransport.New()

	done := make(chan struct{})
	go func() {
		defer close(done)

		_, err := readRawFrame(server)
		require.NoError(t, err)

		require.NoError(t, writeBackendMessage(server, protocol.AuthenticationRequest, authenticationOKBody()))
		require.NoError(t, writeBackendMessage(server, protocol.ParameterStatus, parameterStatusBody("DateStyle", "Postgres, MDY")))
		require.NoError(t, writeBackendMessage(server, protocol.BackendKeyData, backendKeyDataBody(1, 1)))
		require.NoError(t, writeBackendMessage(server, protocol.ReadyForQuery, readyForQueryBody('I')))

		respondReadyForQuery(t, server, "SET")
		respondReadyForQuery(t, server, "SET")
	}()

	var warnings []string
	cfg := testConfig()
	cfg.Logger = recordingLogger{warnf: func(format string, args ...interface{}) {
		warnings = append(warnings, format)
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := connectOverTransport(ctx, cfg, client)
	require.NoError(t, err)
	defer conn.Close()
	defer server.Close()

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "DateStyle")

	<-done
}

func TestConnectOverTransportFailsOnStartupErrorResponse(t *testing.T) {
	client, server := faketransport.New()
	defer server.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)

		_, err := readRawFrame(server)
		require.NoError(t, err)

		body := append([]byte{protocol.FieldSeverity}, backendString("FATAL")...)
		body = append(body, protocol.FieldMessage)
		body = append(body, backendString("database \"testdatabase\" does not exist")...)
		body = append(body, 0)
		require.NoError(t, writeBackendMessage(server, protocol.ErrorResponse, body))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := connectOverTransport(ctx, testConfig(), client)
	require.Error(t, err)
	assert.Nil(t, conn)
	assert.Contains(t, err.Error(), "does not exist")

	<-done
}

func TestConnectOverTransportRejectsInvalidConfig(t *testing.T) {
	client, server := faketransport.New()
	defer server.Close()
	defer client.Close()

	cfg := &Config{}
	_, err := connectOverTransport(context.Background(), cfg, client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username")
}

// recordingLogger is a Logger stub that captures Warnf calls for assertions;
// every other level is discarded.
type recordingLogger struct {
	warnf func(format string, args ...interface{})
}

func (l recordingLogger) Debugf(format string, args ...interface{}) {}
func (l recordingLogger) Infof(format string, args ...interface{})  {}
func (l recordingLogger) Errorf(format string, args ...interface{}) {}
func (l recordingLogger) Warnf(format string, args ...interface{}) {
	if l.warnf != nil {
		l.warnf(format, args...)
	}
}
