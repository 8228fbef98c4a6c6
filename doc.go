// Package pgwire is a native client for the PostgreSQL v3
// frontend/backend wire protocol: it opens a TCP session, upgraded to TLS
// when Config.TLSConfig is set (a nil TLSConfig, which ParseConfig yields
// for an absent or "disable" sslmode, leaves the session unencrypted),
// authenticates with SCRAM-SHA-256 (optionally channel-bound to the TLS
// channel), issues parameterized SQL through the extended query
// protocol, and exposes results as a lazy stream of typed rows.
//
// A Conn is not safe for concurrent use; each goroutine that needs a
// session should open its own.
package pgwire
