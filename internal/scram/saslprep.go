package scram

import "golang.org/x/text/secure/precis"

// SASLPrep normalizes a password with the PRECIS OpaqueString profile
// (RFC 8265, the successor to RFC 4013 SASLprep). It never rejects a
// password: one that the profile refuses (e.g. because it contains a
// prohibited or unassigned code point, or violates the bidirectional
// rule) is returned unmodified, and the server then decides the exchange.
func SASLPrep(password string) string {
	prepped, err := precis.OpaqueString.String(password)
	if err != nil {
		return password
	}
	return prepped
}
