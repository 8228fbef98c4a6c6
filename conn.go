package pgwire

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/wtemperley/pgwire/internal/protocol"
	"github.com/wtemperley/pgwire/internal/scram"
	"github.com/wtemperley/pgwire/pgerror"
)

// TransactionStatus is the transaction status byte carried by every
// ReadyForQuery message.
type TransactionStatus byte

const (
	TransactionIdle     TransactionStatus = TransactionStatus(protocol.TxIdle)
	TransactionInBlock  TransactionStatus = TransactionStatus(protocol.TxInBlock)
	TransactionInFailed TransactionStatus = TransactionStatus(protocol.TxInFailed)
)

func (s TransactionStatus) String() string { return protocol.TxStatus(s).String() }

// connectionClosed wraps a transport-level read/write failure as a
// KindConnectionClosed error, preserving the underlying cause.
func connectionClosed(cause error) *pgerror.Error {
	err := pgerror.ConnectionClosed()
	err.Cause = cause
	return err
}

// Conn is a single PostgreSQL v3 session. It is not safe for concurrent
// use — open one Conn per goroutine that needs a session.
type Conn struct {
	cfg       *Config
	transport Transport
	reader    *protocol.Reader
	ctxR      *ctxReader
	writer    protocol.Writer
	logger    Logger

	state             ConnState
	backendPID        int32
	backendSecretKey  int32
	runtimeParameters map[string]string
	txStatus          TransactionStatus

	nextStatementID uint64
	nextPortalID    uint64

	channelBindingUsed bool
}

// ctxReader adapts a context-aware Transport to io.Reader so it can back
// a buffered protocol.Reader; Conn repoints its ctx field before every
// blocking call.
type ctxReader struct {
	t   Transport
	ctx context.Context
}

func (r *ctxReader) Read(p []byte) (int, error) { return r.t.Read(r.ctx, p) }

// Connect dials cfg.Host:cfg.Port, negotiates TLS if configured,
// authenticates, and drives the connection to the ready state, applying
// ISO/MDY date style and UTC time zone so wire text round-trips losslessly
// through internal/pgtype.
func Connect(ctx context.Context, cfg *Config) (*Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport, err := dialTCPTransport(ctx, cfg.address())
	if err != nil {
		return nil, pgerror.Socket(err)
	}

	return connectOver(ctx, cfg, transport)
}

// connectOverTransport drives the startup/authentication handshake over a
// caller-supplied Transport. Exposed for tests (see internal/faketransport)
// that need to script backend bytes without a live server.
func connectOverTransport(ctx context.Context, cfg *Config, transport Transport) (*Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return connectOver(ctx, cfg, transport)
}

func connectOver(ctx context.Context, cfg *Config, transport Transport) (*Conn, error) {
	c := &Conn{
		cfg:               cfg,
		transport:         transport,
		logger:            cfg.Logger,
		runtimeParameters: make(map[string]string),
		state:             StateDisconnected,
	}
	c.ctxR = &ctxReader{t: transport, ctx: ctx}
	c.reader = protocol.NewReader(c.ctxR)

	var channelBinding []byte
	if cfg.TLSConfig != nil {
		var err error
		channelBinding, err = c.negotiateTLS(ctx)
		if err != nil {
			transport.Close()
			return nil, err
		}
	}

	if err := c.startup(ctx, channelBinding); err != nil {
		transport.Close()
		return nil, err
	}

	c.state = StateReady

	if err := c.applySessionDefaults(ctx); err != nil {
		transport.Close()
		return nil, err
	}

	return c, nil
}

func (c *Conn) negotiateTLS(ctx context.Context) ([]byte, error) {
	frame := protocol.EncodeSSLRequest(&c.writer)
	if _, err := c.transport.Write(ctx, frame); err != nil {
		return nil, pgerror.SSL("sending SSLRequest", err)
	}

	resp, err := c.reader.ReadSSLResponse()
	if err != nil {
		return nil, pgerror.SSL("reading SSLRequest response", err)
	}
	if resp != 'S' {
		return nil, pgerror.SSL(fmt.Sprintf("server refused SSLRequest (sent %q)", resp), nil)
	}

	fingerprint, err := c.transport.UpgradeTLS(ctx, c.cfg.TLSConfig)
	if err != nil {
		return nil, pgerror.SSL("TLS handshake", err)
	}
	return fingerprint, nil
}

func (c *Conn) startup(ctx context.Context, channelBinding []byte) error {
	params := []protocol.StartupParam{
		{Key: "user", Value: c.cfg.Credential.Username},
		{Key: "database", Value: c.cfg.Database},
	}
	if c.cfg.ApplicationName != "" {
		params = append(params, protocol.StartupParam{Key: "application_name", Value: c.cfg.ApplicationName})
	}

	frame := protocol.EncodeStartup(&c.writer, params)
	if _, err := c.transport.Write(ctx, frame); err != nil {
		return connectionClosed(err)
	}

	return c.drainUntilReady(ctx, func(tag protocol.BackendTag, body []byte) (bool, error) {
		if tag == protocol.AuthenticationRequest {
			return false, c.handleAuthenticationRequest(ctx, body, channelBinding)
		}
		return false, nil
	})
}

func (c *Conn) handleAuthenticationRequest(ctx context.Context, body []byte, channelBinding []byte) error {
	req, err := protocol.DecodeAuthenticationRequest(body)
	if err != nil {
		return pgerror.Protocol("%v", err)
	}

	switch req.Type {
	case protocol.AuthOK:
		return nil

	case protocol.AuthCleartextPassword:
		frame := protocol.EncodePasswordMessage(&c.writer, c.cfg.Credential.Password)
		if _, err := c.transport.Write(ctx, frame); err != nil {
			return connectionClosed(err)
		}
		return nil

	case protocol.AuthMD5Password:
		hashed := md5PasswordHash(c.cfg.Credential.Username, c.cfg.Credential.Password, req.MD5Salt)
		frame := protocol.EncodePasswordMessage(&c.writer, hashed)
		if _, err := c.transport.Write(ctx, frame); err != nil {
			return connectionClosed(err)
		}
		return nil

	case protocol.AuthSASL:
		return c.runSCRAMExchange(ctx, req.SASLMechanisms, channelBinding)

	default:
		return pgerror.Authentication("unsupported authentication type %v", req.Type)
	}
}

func (c *Conn) runSCRAMExchange(ctx context.Context, serverMechanisms []string, channelBinding []byte) error {
	client, usedPlus, err := scram.NewClient(c.cfg.ChannelBindingPolicy.toSCRAM(), serverMechanisms, channelBinding, c.cfg.Credential.Password)
	if err != nil {
		if c.cfg.ChannelBindingPolicy == ChannelBindingRequired {
			return pgerror.ChannelBindingRequired(err.Error())
		}
		return pgerror.Authentication("%v", err)
	}
	if c.cfg.ChannelBindingPolicy == ChannelBindingPreferred && !usedPlus {
		c.logger.Warnf("pgwire: channel binding unavailable, falling back to %s", scram.MechanismSHA256)
	}
	c.channelBindingUsed = usedPlus

	frame := protocol.EncodeSASLInitialResponse(&c.writer, client.Mechanism(), client.FirstMessage())
	if _, err := c.transport.Write(ctx, frame); err != nil {
		return pgerror.Authentication("%v", err)
	}

	tag, body, err := c.reader.ReadMessage()
	if err != nil {
		return pgerror.Authentication("%v", err)
	}
	serverFirst, err := c.expectSASLContinue(tag, body)
	if err != nil {
		return err
	}
	if err := client.SetServerFirstMessage(string(serverFirst)); err != nil {
		return pgerror.Authentication("%v", err)
	}

	finalMessage, err := client.FinalMessage()
	if err != nil {
		return pgerror.Authentication("%v", err)
	}
	frame = protocol.EncodeSASLResponse(&c.writer, []byte(finalMessage))
	if _, err := c.transport.Write(ctx, frame); err != nil {
		return pgerror.Authentication("%v", err)
	}

	tag, body, err = c.reader.ReadMessage()
	if err != nil {
		return pgerror.Authentication("%v", err)
	}
	serverFinal, err := c.expectSASLFinal(tag, body)
	if err != nil {
		return err
	}
	if err := client.ValidateServerFinalMessage(string(serverFinal)); err != nil {
		return pgerror.Authentication("%v", err)
	}

	// The server still owes us a final AuthenticationOK, read here; the
	// startup loop that called us then reads on until ReadyForQuery.
	tag, body, err = c.reader.ReadMessage()
	if err != nil {
		return pgerror.Authentication("%v", err)
	}
	if tag != protocol.AuthenticationRequest {
		return pgerror.Protocol("expected AuthenticationOK after SCRAM exchange, got %v", tag)
	}
	req, err := protocol.DecodeAuthenticationRequest(body)
	if err != nil {
		return pgerror.Protocol("%v", err)
	}
	if req.Type != protocol.AuthOK {
		return pgerror.Authentication("expected AuthenticationOK, got auth type %v", req.Type)
	}
	return nil
}

func (c *Conn) expectSASLContinue(tag protocol.BackendTag, body []byte) ([]byte, error) {
	if tag != protocol.AuthenticationRequest {
		return nil, pgerror.Protocol("expected AuthenticationSASLContinue, got %v", tag)
	}
	req, err := protocol.DecodeAuthenticationRequest(body)
	if err != nil {
		return nil, pgerror.Protocol("%v", err)
	}
	if req.Type != protocol.AuthSASLContinue {
		return nil, pgerror.Authentication("expected AuthenticationSASLContinue, got auth type %v", req.Type)
	}
	return req.SASLData, nil
}

func (c *Conn) expectSASLFinal(tag protocol.BackendTag, body []byte) ([]byte, error) {
	if tag != protocol.AuthenticationRequest {
		return nil, pgerror.Protocol("expected AuthenticationSASLFinal, got %v", tag)
	}
	req, err := protocol.DecodeAuthenticationRequest(body)
	if err != nil {
		return nil, pgerror.Protocol("%v", err)
	}
	if req.Type != protocol.AuthSASLFinal {
		return nil, pgerror.Authentication("expected AuthenticationSASLFinal, got auth type %v", req.Type)
	}
	return req.SASLData, nil
}

func md5PasswordHash(user, password string, salt []byte) string {
	inner := md5.Sum([]byte(password + user))
	innerHex := hex.EncodeToString(inner[:])
	outer := md5.Sum(append([]byte(innerHex), salt...))
	return "md5" + hex.EncodeToString(outer[:])
}

// drainUntilReady reads backend messages, dispatching ParameterStatus,
// BackendKeyData and ErrorResponse itself and delegating everything else
// to handle, until ReadyForQuery arrives.
func (c *Conn) drainUntilReady(ctx context.Context, handle func(tag protocol.BackendTag, body []byte) (stop bool, err error)) error {
	c.ctxR.ctx = ctx
	for {
		tag, body, err := c.reader.ReadMessage()
		if err != nil {
			return connectionClosed(err)
		}

		switch tag {
		case protocol.ParameterStatus:
			ps, err := protocol.DecodeParameterStatus(body)
			if err != nil {
				return pgerror.Protocol("%v", err)
			}
			c.runtimeParameters[ps.Name] = ps.Value
			c.warnOnUnsupportedSessionSetting(ps)

		case protocol.BackendKeyData:
			bk, err := protocol.DecodeBackendKeyData(body)
			if err != nil {
				return pgerror.Protocol("%v", err)
			}
			c.backendPID = bk.ProcessID
			c.backendSecretKey = bk.SecretKey

		case protocol.NoticeResponse:
			fields, err := protocol.DecodeNoticeOrError(body)
			if err != nil {
				return pgerror.Protocol("%v", err)
			}
			c.logger.Infof("pgwire: notice: %s", fields[protocol.FieldMessage])

		case protocol.ErrorResponse:
			fields, err := protocol.DecodeNoticeOrError(body)
			if err != nil {
				return pgerror.Protocol("%v", err)
			}
			return pgerror.Server(fields)

		case protocol.ReadyForQuery:
			status, err := protocol.DecodeReadyForQuery(body)
			if err != nil {
				return pgerror.Protocol("%v", err)
			}
			c.txStatus = TransactionStatus(status)
			return nil

		default:
			if handle != nil {
				if stop, err := handle(tag, body); err != nil {
					return err
				} else if stop {
					return nil
				}
			}
		}
	}
}

// warnOnUnsupportedSessionSetting logs if the server's DateStyle/TimeZone
// diverges from the ISO/MDY and UTC assumptions internal/pgtype relies on
// for lossless text round-tripping.
func (c *Conn) warnOnUnsupportedSessionSetting(ps protocol.ParameterStatusBody) {
	switch ps.Name {
	case "DateStyle":
		if ps.Value != "ISO, MDY" && ps.Value != "ISO" {
			c.logger.Warnf("pgwire: server DateStyle %q is not ISO/MDY; date/time values may not round-trip", ps.Value)
		}
	case "TimeZone":
		if ps.Value != "UTC" {
			c.logger.Warnf("pgwire: server TimeZone %q is not UTC; timestamptz values may not round-trip", ps.Value)
		}
	}
}

// applySessionDefaults pins DateStyle and TimeZone so internal/pgtype's
// calendar-field parsing assumptions hold for the lifetime of the
// connection, regardless of the server's configured defaults.
func (c *Conn) applySessionDefaults(ctx context.Context) error {
	for _, stmt := range []string{"SET DateStyle = 'ISO, MDY'", "SET TimeZone = 'UTC'"} {
		if err := c.simpleExec(ctx, stmt); err != nil {
			return fmt.Errorf("pgwire: applying session default %q: %w", stmt, err)
		}
	}
	return nil
}

// simpleExec runs sql through the simple query protocol and discards any
// row data, used internally for session setup statements.
func (c *Conn) simpleExec(ctx context.Context, sql string) error {
	if err := c.requireState(StateReady); err != nil {
		return err
	}
	c.state = StateBusy
	defer func() { c.state = StateReady }()

	c.ctxR.ctx = ctx
	frame := protocol.EncodeQuery(&c.writer, sql)
	if _, err := c.transport.Write(ctx, frame); err != nil {
		return connectionClosed(err)
	}

	return c.drainUntilReady(ctx, nil)
}

// Close sends Terminate and releases the underlying transport. Close is
// idempotent; calling it on an already-closed Conn is a no-op.
func (c *Conn) Close() error {
	if c.state == StateClosed {
		return nil
	}
	frame := protocol.EncodeTerminate(&c.writer)
	ctx := context.Background()
	c.transport.Write(ctx, frame)
	c.state = StateClosed
	return c.transport.Close()
}

// State returns the connection's current lifecycle phase.
func (c *Conn) State() ConnState { return c.state }

// TransactionStatus returns the transaction status last reported by the
// server's ReadyForQuery message.
func (c *Conn) TransactionStatus() TransactionStatus { return c.txStatus }

// RuntimeParameter returns a server-reported runtime setting (e.g.
// "server_version"), and whether it has been seen yet.
func (c *Conn) RuntimeParameter(name string) (string, bool) {
	v, ok := c.runtimeParameters[name]
	return v, ok
}

func (c *Conn) nextStatementName() string {
	c.nextStatementID++
	return fmt.Sprintf("pgwire_stmt_%d", c.nextStatementID)
}

func (c *Conn) nextPortalName() string {
	c.nextPortalID++
	return fmt.Sprintf("pgwire_portal_%d", c.nextPortalID)
}
