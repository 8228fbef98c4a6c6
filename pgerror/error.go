// Package pgerror defines the single sum-typed error taxonomy surfaced to
// callers of pgwire: every backend-reported field is funneled through one
// discriminated Kind instead of a flat struct shape.
package pgerror

import "fmt"

// Kind discriminates the error taxonomy.
type Kind int

const (
	KindSocket Kind = iota
	KindSSL
	KindServer
	KindProtocol
	KindAuthentication
	KindChannelBinding
	KindConnectionClosed
	KindValueConversion
	KindValueIsNull
	KindStatementClosed
	KindCursorClosed
	KindTooManyParameters
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindSocket:
		return "socket"
	case KindSSL:
		return "ssl"
	case KindServer:
		return "server"
	case KindProtocol:
		return "protocol"
	case KindAuthentication:
		return "authentication"
	case KindChannelBinding:
		return "channel_binding_required"
	case KindConnectionClosed:
		return "connection_closed"
	case KindValueConversion:
		return "value_conversion"
	case KindValueIsNull:
		return "value_is_null"
	case KindStatementClosed:
		return "statement_closed"
	case KindCursorClosed:
		return "cursor_closed"
	case KindTooManyParameters:
		return "too_many_parameters"
	case KindTimeout:
		return "timeout"
	}
	return "unknown"
}

// Error is the error type pgwire returns for transport, TLS, server,
// protocol, authentication, closed-resource, parameter-count and value
// conversion failures. Config validation, connection-state guards, pool
// misuse and unsupported parameter types are reported as plain errors,
// not as *Error, and a failure applying Connect's session defaults is a
// plain error wrapping the underlying *Error. Inspect Kind to decide how to react; kind-specific fields
// are populated only for their own kind.
type Error struct {
	Kind Kind

	// Message is a human-readable summary, always populated.
	Message string

	// Cause is the underlying error (transport failure, parse error, ...),
	// if any.
	Cause error

	// KindServer payload: fields parsed out of an ErrorResponse.
	Severity         string
	Code             string // SQLSTATE, compare against github.com/jackc/pgerrcode constants
	Detail           string
	Hint             string
	Position         string
	InternalPosition string
	InternalQuery    string
	Where            string
	Schema           string
	Table            string
	Column           string
	DataTypeName     string
	Constraint       string
	File             string
	Line             string
	Routine          string

	// KindValueConversion / KindValueIsNull payload.
	ColumnName string
	TargetType string
	Reason     string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("pgwire: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("pgwire: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a *Error with the same Kind, so callers can
// write errors.Is(err, pgerror.Timeout("")) style checks if they prefer
// that over inspecting Kind directly. Two *Error values are considered
// equal for Is purposes purely by Kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func Socket(cause error) *Error {
	return &Error{Kind: KindSocket, Message: "transport failure", Cause: cause}
}

func SSL(message string, cause error) *Error {
	return &Error{Kind: KindSSL, Message: message, Cause: cause}
}

func Protocol(format string, args ...interface{}) *Error {
	return &Error{Kind: KindProtocol, Message: fmt.Sprintf(format, args...)}
}

func Authentication(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthentication, Message: fmt.Sprintf(format, args...)}
}

func ChannelBindingRequired(message string) *Error {
	return &Error{Kind: KindChannelBinding, Message: message}
}

func ConnectionClosed() *Error {
	return &Error{Kind: KindConnectionClosed, Message: "operation attempted after close"}
}

func StatementClosed() *Error {
	return &Error{Kind: KindStatementClosed, Message: "statement is closed"}
}

func CursorClosed() *Error {
	return &Error{Kind: KindCursorClosed, Message: "cursor is closed"}
}

func TooManyParameters(count int) *Error {
	return &Error{Kind: KindTooManyParameters, Message: fmt.Sprintf("%d parameters exceeds the 65535 bind-parameter limit", count)}
}

func Timeout(message string) *Error {
	return &Error{Kind: KindTimeout, Message: message}
}

func ValueIsNull(column string) *Error {
	return &Error{Kind: KindValueIsNull, Message: fmt.Sprintf("column %q is null", column), ColumnName: column}
}

func ValueConversion(column, targetType, reason string) *Error {
	return &Error{
		Kind:       KindValueConversion,
		Message:    fmt.Sprintf("cannot convert column %q to %s: %s", column, targetType, reason),
		ColumnName: column,
		TargetType: targetType,
		Reason:     reason,
	}
}

// Server builds a KindServer error from the raw field map of an
// ErrorResponse message (see internal/protocol.NoticeOrErrorFields).
func Server(fields map[byte]string) *Error {
	e := &Error{
		Kind:             KindServer,
		Severity:         fields['S'],
		Code:             fields['C'],
		Message:          fields['M'],
		Detail:           fields['D'],
		Hint:             fields['H'],
		Position:         fields['P'],
		InternalPosition: fields['p'],
		InternalQuery:    fields['q'],
		Where:            fields['W'],
		Schema:           fields['s'],
		Table:            fields['t'],
		Column:           fields['c'],
		DataTypeName:     fields['d'],
		Constraint:       fields['n'],
		File:             fields['F'],
		Line:             fields['L'],
		Routine:          fields['R'],
	}
	return e
}
