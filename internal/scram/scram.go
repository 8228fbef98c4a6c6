// Package scram implements the client side of a SCRAM-SHA-256 and
// SCRAM-SHA-256-PLUS exchange (RFC 5802, RFC 7677), including optional
// tls-server-end-point channel binding (RFC 5929).
package scram

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Mechanism names as advertised by AuthenticationSASL and selected in
// SASLInitialResponse.
const (
	MechanismSHA256     = "SCRAM-SHA-256"
	MechanismSHA256Plus = "SCRAM-SHA-256-PLUS"
)

const minIterationCount = 4096

// ChannelBindingPolicy mirrors the connection-level setting that decides
// whether channel binding is mandatory, opportunistic, or never attempted.
type ChannelBindingPolicy int

const (
	ChannelBindingPreferred ChannelBindingPolicy = iota
	ChannelBindingRequired
	ChannelBindingDisabled
)

// Client drives one SCRAM exchange from client-first-message through
// verification of the server's final signature. It is single-use: create
// a new Client per authentication attempt.
type Client struct {
	mechanism   string
	gs2Header   string
	cbindData   []byte
	clientNonce string
	password    string

	clientFirstMessageBare string
	serverFirstMessage     string
	serverNonce            string
	saltedPassword         []byte

	expectedServerSignature []byte
}

// NewClient selects a mechanism from the server's advertised list
// according to policy and the available channel-binding fingerprint
// (nil if none), then builds the client-first-message. usedPlus reports
// whether SCRAM-SHA-256-PLUS was selected, so the caller can log a
// downgrade warning when policy was only "preferred".
func NewClient(policy ChannelBindingPolicy, serverMechanisms []string, cbindData []byte, password string) (client *Client, usedPlus bool, err error) {
	hasPlus := contains(serverMechanisms, MechanismSHA256Plus) && cbindData != nil

	switch policy {
	case ChannelBindingRequired:
		if !hasPlus {
			return nil, false, fmt.Errorf("scram: channel binding required but server/connection cannot provide it")
		}
	case ChannelBindingDisabled:
		hasPlus = false
	case ChannelBindingPreferred:
		// use hasPlus as computed
	default:
		return nil, false, fmt.Errorf("scram: unknown channel binding policy %d", policy)
	}

	if !contains(serverMechanisms, MechanismSHA256) && !hasPlus {
		return nil, false, fmt.Errorf("scram: server does not advertise %s or %s", MechanismSHA256, MechanismSHA256Plus)
	}

	nonce, err := generateNonce()
	if err != nil {
		return nil, false, err
	}

	c := &Client{
		clientNonce: nonce,
		password:    SASLPrep(password),
	}
	if hasPlus {
		c.mechanism = MechanismSHA256Plus
		c.gs2Header = "p=tls-server-end-point,,"
		c.cbindData = cbindData
	} else {
		c.mechanism = MechanismSHA256
		c.gs2Header = "n,,"
	}
	c.clientFirstMessageBare = "n=,r=" + c.clientNonce
	return c, hasPlus, nil
}

// Mechanism returns the SASL mechanism name selected by NewClient.
func (c *Client) Mechanism() string { return c.mechanism }

// FirstMessage returns the client-first-message to send as the
// SASLInitialResponse payload.
func (c *Client) FirstMessage() []byte {
	return []byte(c.gs2Header + c.clientFirstMessageBare)
}

// SetServerFirstMessage parses the server-first-message from
// AuthenticationSASLContinue, validates the returned nonce begins with
// the client nonce and the iteration count meets the RFC 7677 floor, and
// derives the salted password.
func (c *Client) SetServerFirstMessage(msg string) error {
	attrs, err := parseAttributes(msg)
	if err != nil {
		return fmt.Errorf("scram: malformed server-first-message: %w", err)
	}

	nonce, ok := attrs["r"]
	if !ok {
		return fmt.Errorf("scram: server-first-message missing r attribute")
	}
	if !strings.HasPrefix(nonce, c.clientNonce) {
		return fmt.Errorf("scram: server nonce does not extend client nonce")
	}

	saltB64, ok := attrs["s"]
	if !ok {
		return fmt.Errorf("scram: server-first-message missing s attribute")
	}
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return fmt.Errorf("scram: invalid salt encoding: %w", err)
	}

	iterStr, ok := attrs["i"]
	if !ok {
		return fmt.Errorf("scram: server-first-message missing i attribute")
	}
	iterations, err := strconv.Atoi(iterStr)
	if err != nil {
		return fmt.Errorf("scram: invalid iteration count %q: %w", iterStr, err)
	}
	if iterations < minIterationCount {
		return fmt.Errorf("scram: iteration count %d below minimum %d", iterations, minIterationCount)
	}

	c.serverNonce = nonce
	c.serverFirstMessage = msg
	c.saltedPassword = pbkdf2.Key([]byte(c.password), salt, iterations, sha256.Size, sha256.New)
	return nil
}

// FinalMessage computes the client-final-message, including the channel
// binding attribute and client proof, and remembers the server signature
// it expects in return.
func (c *Client) FinalMessage() (string, error) {
	if c.saltedPassword == nil {
		return "", fmt.Errorf("scram: FinalMessage called before SetServerFirstMessage")
	}

	channelBindingInput := append([]byte(c.gs2Header), c.cbindData...)
	cbind := base64.StdEncoding.EncodeToString(channelBindingInput)
	withoutProof := "c=" + cbind + ",r=" + c.serverNonce

	authMessage := c.clientFirstMessageBare + "," + c.serverFirstMessage + "," + withoutProof

	clientKey := hmacSHA256(c.saltedPassword, []byte("Client Key"))
	storedKey := sha256.Sum256(clientKey)
	clientSignature := hmacSHA256(storedKey[:], []byte(authMessage))
	clientProof := xorBytes(clientKey, clientSignature)

	serverKey := hmacSHA256(c.saltedPassword, []byte("Server Key"))
	c.expectedServerSignature = hmacSHA256(serverKey, []byte(authMessage))

	proof := base64.StdEncoding.EncodeToString(clientProof)
	return withoutProof + ",p=" + proof, nil
}

// ValidateServerFinalMessage parses the server-final-message from
// AuthenticationSASLFinal and verifies its server signature matches the
// one computed in FinalMessage.
func (c *Client) ValidateServerFinalMessage(msg string) error {
	attrs, err := parseAttributes(msg)
	if err != nil {
		return fmt.Errorf("scram: malformed server-final-message: %w", err)
	}
	if errMsg, ok := attrs["e"]; ok {
		return fmt.Errorf("scram: server reports authentication error: %s", errMsg)
	}
	sigB64, ok := attrs["v"]
	if !ok {
		return fmt.Errorf("scram: server-final-message missing v attribute")
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return fmt.Errorf("scram: invalid server signature encoding: %w", err)
	}
	if !hmac.Equal(sig, c.expectedServerSignature) {
		return fmt.Errorf("scram: server signature mismatch")
	}
	return nil
}

func generateNonce() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("scram: generating nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func parseAttributes(msg string) (map[string]string, error) {
	attrs := make(map[string]string)
	for _, part := range strings.Split(msg, ",") {
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, fmt.Errorf("invalid attribute %q", part)
		}
		attrs[kv[0]] = kv[1]
	}
	return attrs, nil
}

func contains(items []string, target string) bool {
	for _, it := range items {
		if it == target {
			return true
		}
	}
	return false
}
