// Package sasl implements the client side of the SASL mechanisms this
// module supports during IRCv3 CAP negotiation. Only PLAIN is implemented;
// spec.md's Non-goals exclude SCRAM and other credential-hashing
// mechanisms.
package sasl

import (
	"encoding/base64"
	"strings"
)

// EncodePlain builds the base64 response for SASL PLAIN (RFC 4616):
// authzid NUL authcid NUL password.
func EncodePlain(authzid, authcid, password string) string {
	var b strings.Builder
	b.WriteString(authzid)
	b.WriteByte(0)
	b.WriteString(authcid)
	b.WriteByte(0)
	b.WriteString(password)
	return base64.StdEncoding.EncodeToString([]byte(b.String()))
}
