// Package protocol implements the length-prefixed framing and message
// vocabulary of the PostgreSQL v3 frontend/backend wire protocol.
package protocol

// BackendTag identifies the type of a backend (server-to-client) message.
type BackendTag byte

const (
	AuthenticationRequest BackendTag = 'R'
	BackendKeyData        BackendTag = 'K'
	BindComplete          BackendTag = '2'
	CloseComplete         BackendTag = '3'
	CommandComplete       BackendTag = 'C'
	DataRow               BackendTag = 'D'
	EmptyQueryResponse    BackendTag = 'I'
	ErrorResponse         BackendTag = 'E'
	NoData                BackendTag = 'n'
	NoticeResponse        BackendTag = 'N'
	NotificationResponse  BackendTag = 'A'
	ParameterDescription  BackendTag = 't'
	ParameterStatus       BackendTag = 'S'
	ParseComplete         BackendTag = '1'
	PortalSuspended       BackendTag = 's'
	ReadyForQuery         BackendTag = 'Z'
	RowDescription        BackendTag = 'T'
)

var backendTagNames = map[BackendTag]string{
	AuthenticationRequest: "AuthenticationRequest",
	BackendKeyData:        "BackendKeyData",
	BindComplete:          "BindComplete",
	CloseComplete:         "CloseComplete",
	CommandComplete:       "CommandComplete",
	DataRow:               "DataRow",
	EmptyQueryResponse:    "EmptyQueryResponse",
	ErrorResponse:         "ErrorResponse",
	NoData:                "NoData",
	NoticeResponse:        "NoticeResponse",
	NotificationResponse:  "NotificationResponse",
	ParameterDescription:  "ParameterDescription",
	ParameterStatus:       "ParameterStatus",
	ParseComplete:         "ParseComplete",
	PortalSuspended:       "PortalSuspended",
	ReadyForQuery:         "ReadyForQuery",
	RowDescription:        "RowDescription",
}

func (t BackendTag) String() string {
	if s, ok := backendTagNames[t]; ok {
		return s
	}
	return "Unknown(" + string(byte(t)) + ")"
}

// FrontendTag identifies the type of a frontend (client-to-server) message.
type FrontendTag byte

const (
	Bind            FrontendTag = 'B'
	Close           FrontendTag = 'C'
	Describe        FrontendTag = 'D'
	Execute         FrontendTag = 'E'
	Flush           FrontendTag = 'H'
	Parse           FrontendTag = 'P'
	PasswordMessage FrontendTag = 'p'
	Query           FrontendTag = 'Q'
	Sync            FrontendTag = 'S'
	Terminate       FrontendTag = 'X'
)

var frontendTagNames = map[FrontendTag]string{
	Bind:            "Bind",
	Close:           "Close",
	Describe:        "Describe",
	Execute:         "Execute",
	Flush:           "Flush",
	Parse:           "Parse",
	PasswordMessage: "PasswordMessage",
	Query:           "Query",
	Sync:            "Sync",
	Terminate:       "Terminate",
}

func (t FrontendTag) String() string {
	if s, ok := frontendTagNames[t]; ok {
		return s
	}
	return "Unknown(" + string(byte(t)) + ")"
}

// AuthType identifies the sub-kind of an AuthenticationRequest message.
type AuthType int32

const (
	AuthOK                AuthType = 0
	AuthKerberosV5        AuthType = 2
	AuthCleartextPassword AuthType = 3
	AuthMD5Password       AuthType = 5
	AuthSCM               AuthType = 6
	AuthGSS               AuthType = 7
	AuthGSSContinue       AuthType = 8
	AuthSSPI              AuthType = 9
	AuthSASL              AuthType = 10
	AuthSASLContinue      AuthType = 11
	AuthSASLFinal         AuthType = 12
)

// CloseTarget identifies whether a Close/Describe message targets a
// prepared statement or a portal.
type CloseTarget byte

const (
	CloseStatement CloseTarget = 'S'
	ClosePortal    CloseTarget = 'P'
)

// TxStatus is the transaction status byte carried by ReadyForQuery.
type TxStatus byte

const (
	TxIdle     TxStatus = 'I'
	TxInBlock  TxStatus = 'T'
	TxInFailed TxStatus = 'E'
)

func (s TxStatus) String() string {
	switch s {
	case TxIdle:
		return "idle"
	case TxInBlock:
		return "in_transaction"
	case TxInFailed:
		return "failed_transaction"
	}
	return "unknown"
}

// FieldFormat is the wire format code carried in Bind/RowDescription.
type FieldFormat int16

const (
	TextFormat   FieldFormat = 0
	BinaryFormat FieldFormat = 1
)

// ProtocolVersion3 is the only startup protocol version this client speaks.
const ProtocolVersion3 int32 = 3 << 16

// SSLRequestCode is the magic value sent in the body of an SSLRequest.
const SSLRequestCode int32 = 80877103
