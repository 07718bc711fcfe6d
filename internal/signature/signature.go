// internal/signature/signature.go
//
// Keyed request signing for the backend ↔ CMS channel.
//
// Context
//   Every message crossing the signed channel carries two headers: the Unix
//   timestamp at signing time and an HMAC-SHA256 digest over the literal
//   byte sequence "<timestamp>.<body>".  Binding the timestamp into the
//   signed material (instead of merely transmitting it alongside) means an
//   attacker cannot lift an old signature and re-stamp it with a fresh
//   timestamp.  Freshness itself is enforced by the credential gate, which
//   rejects timestamps outside its acceptance window.
//
// Workflow
//   •  Sign(secret, ts, body)            → lowercase hex digest for headers.
//   •  Verify(secret, ts, body, cand)    → constant-time recompute-and-compare.
//
// Notes
//   •  The body must be the exact transmitted bytes.  Re-serializing a decoded
//      payload can reorder fields or change whitespace and silently break
//      verification, so callers hold on to the raw buffer.
//   •  Oxford commas, two spaces after periods.
//
//------------------------------------------------------------------------------

package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Header names used on both the inbound (CMS → backend) and outbound
// (backend → CMS) legs of the signed channel.
const (
	HeaderTimestamp = "X-Timestamp"
	HeaderSignature = "X-Signature"
)

// Sign returns the lowercase hex HMAC-SHA256 of "<ts>.<body>" under secret.
// ts is Unix seconds; body is the exact byte sequence to be transmitted.
func Sign(secret string, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature for (ts, body) and compares it against
// candidate in constant time.  Unequal-length candidates compare false
// without inspecting content.
func Verify(secret string, ts int64, body []byte, candidate string) bool {
	want := Sign(secret, ts, body)
	return hmac.Equal([]byte(want), []byte(candidate))
}
