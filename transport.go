package pgwire

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"
)

// Transport is the network collaborator a Conn reads and writes
// frontend/backend messages through. The default implementation wraps a
// TCP socket, optionally upgraded to TLS; tests substitute
// internal/faketransport so the state machine and codec can be exercised
// without a live server.
type Transport interface {
	Read(ctx context.Context, p []byte) (int, error)
	Write(ctx context.Context, p []byte) (int, error)

	// UpgradeTLS replaces the transport's underlying connection with a TLS
	// client connection negotiated over the same socket, and returns the
	// tls-server-end-point channel-binding fingerprint (SHA-256 of the
	// peer's leaf certificate DER, RFC 5929) for use by SCRAM-SHA-256-PLUS.
	// A nil fingerprint means no certificate was available to bind to.
	UpgradeTLS(ctx context.Context, cfg *tls.Config) (channelBinding []byte, err error)

	Close() error

	// RemoteClosed reports whether any Read so far has observed the peer
	// close its end of the connection; once true it stays true.
	RemoteClosed() bool
}

// tcpTransport is the default Transport, a plain or TLS-upgraded TCP
// socket.
type tcpTransport struct {
	conn         net.Conn
	remoteClosed bool
}

// dialTCPTransport opens a TCP connection to address, honoring ctx for
// cancellation and deadline.
func dialTCPTransport(ctx context.Context, address string) (*tcpTransport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("pgwire: dialing %s: %w", address, err)
	}
	return &tcpTransport{conn: conn}, nil
}

func (t *tcpTransport) Read(ctx context.Context, p []byte) (int, error) {
	if err := t.applyDeadline(ctx); err != nil {
		return 0, err
	}
	n, err := t.conn.Read(p)
	if err == io.EOF {
		t.remoteClosed = true
	}
	return n, err
}

func (t *tcpTransport) Write(ctx context.Context, p []byte) (int, error) {
	if err := t.applyDeadline(ctx); err != nil {
		return 0, err
	}
	return t.conn.Write(p)
}

func (t *tcpTransport) applyDeadline(ctx context.Context) error {
	if deadline, ok := ctx.Deadline(); ok {
		return t.conn.SetDeadline(deadline)
	}
	return t.conn.SetDeadline(time.Time{})
}

func (t *tcpTransport) UpgradeTLS(ctx context.Context, cfg *tls.Config) ([]byte, error) {
	cfg = cfg.Clone()
	cfg.NextProtos = []string{"postgresql"}

	tlsConn := tls.Client(t.conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, fmt.Errorf("pgwire: TLS handshake: %w", err)
	}
	t.conn = tlsConn

	state := tlsConn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, nil
	}
	sum := sha256.Sum256(state.PeerCertificates[0].Raw)
	return sum[:], nil
}

func (t *tcpTransport) Close() error { return t.conn.Close() }

func (t *tcpTransport) RemoteClosed() bool { return t.remoteClosed }
