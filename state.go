package pgwire

import "fmt"

// ConnState is the coarse phase of a Conn's lifecycle, mirroring the
// startup -> ready -> busy -> closed progression a v3 session goes
// through exactly once per TCP connection.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateReady
	StateBusy
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateReady:
		return "ready"
	case StateBusy:
		return "busy"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// requireState guards an operation against being issued from the wrong
// phase of the connection lifecycle — the modern equivalent of the
// per-state "invalid operation for this state" panic: every entry point
// that depends on a specific ConnState checks it explicitly and returns
// an error instead of panicking.
func (c *Conn) requireState(want ConnState) error {
	if c.state != want {
		return fmt.Errorf("pgwire: operation requires connection state %s, have %s", want, c.state)
	}
	return nil
}
