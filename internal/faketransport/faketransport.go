// Package faketransport provides an in-memory pgwire.Transport backed by
// net.Pipe, so the connection state machine, codec and SCRAM exchange can
// be exercised in tests by scripting raw bytes on the server side of the
// pipe, without a live PostgreSQL server.
package faketransport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"
)

// Transport is the client side of an in-memory duplex pipe.
type Transport struct {
	conn         net.Conn
	remoteClosed bool
}

// New returns a client-side Transport and the paired server-side net.Conn
// a test can read from and write to in order to script backend behavior.
func New() (*Transport, net.Conn) {
	client, server := net.Pipe()
	return &Transport{conn: client}, server
}

func (t *Transport) Read(ctx context.Context, p []byte) (int, error) {
	if err := t.applyReadDeadline(ctx); err != nil {
		return 0, err
	}
	n, err := t.conn.Read(p)
	if err != nil {
		t.remoteClosed = true
	}
	return n, err
}

func (t *Transport) Write(ctx context.Context, p []byte) (int, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetWriteDeadline(deadline); err != nil {
			return 0, err
		}
	} else {
		t.conn.SetWriteDeadline(time.Time{})
	}
	return t.conn.Write(p)
}

func (t *Transport) applyReadDeadline(ctx context.Context) error {
	if deadline, ok := ctx.Deadline(); ok {
		return t.conn.SetReadDeadline(deadline)
	}
	return t.conn.SetReadDeadline(time.Time{})
}

// UpgradeTLS is not supported over the in-memory pipe; tests that need
// SCRAM-SHA-256-PLUS coverage construct a scram.Client directly instead of
// driving it through Conn.
func (t *Transport) UpgradeTLS(ctx context.Context, cfg *tls.Config) ([]byte, error) {
	return nil, fmt.Errorf("faketransport: TLS upgrade is not supported")
}

func (t *Transport) Close() error { return t.conn.Close() }

func (t *Transport) RemoteClosed() bool { return t.remoteClosed }
