// internal/auth/gate.go
//
// Credential gate: the two trust models guarding the HTTP surface.
//
// Context
//   Two caller populations reach this service, and each authenticates
//   differently:
//
//     •  Administrative callers (upsert, resolve, publish, toggle) present a
//        static pre-shared bearer token.
//     •  Runtime callers (the CMS fetching config or render payloads) present
//        a timestamp plus an HMAC signature over the exact request body.
//
//   Each model is a Gate variant with a single Authorize capability; handlers
//   declare which gate guards them, so trust is selected by the operation,
//   never by inspecting the request shape at runtime.
//
// Workflow
//   •  AdminToken{secret}                      – byte-for-byte bearer match.
//   •  SignedRequest{secret, window, clock}    – presence → freshness → HMAC.
//   •  Middleware(gate)                        – chi wrapper answering 401.
//
// Notes
//   •  Both gates fail closed: an empty server-side secret rejects every
//      caller of that model rather than waving traffic through.
//   •  Denial codes are deliberately coarse.  A forger learns which stage
//      failed, never how close the attempt was.
//   •  Oxford commas, two spaces after periods.
//
//------------------------------------------------------------------------------

package auth

import (
	"bytes"
	"crypto/hmac"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Hassan7885m/secure-collections/internal/metrics"
	"github.com/Hassan7885m/secure-collections/internal/signature"
)

// Denial codes surfaced to rejected callers.
const (
	CodeUnauthorized     = "unauthorized"
	CodeMissingSignature = "missing_signature"
	CodeStaleSignature   = "stale_signature"
	CodeBadSignature     = "bad_signature"
)

// DefaultMaxSkew is the acceptance window for signed-request timestamps.
// It is the sole replay defence on the signed channel, so widening it is a
// direct security/usability trade.
const DefaultMaxSkew = 300 * time.Second

// Denial describes a rejected request.  nil means authorized.
type Denial struct {
	Code string
}

// Gate authorizes one inbound request under a single trust model.
type Gate interface {
	Authorize(r *http.Request) *Denial
}

// Compile-time assertions: both variants satisfy Gate.
var (
	_ Gate = AdminToken{}
	_ Gate = SignedRequest{}
)

/*──────────────────────────── administrative ───────────────────────────────*/

// AdminToken authorizes trusted backend-to-backend callers via a static
// bearer secret.
type AdminToken struct {
	Secret string
}

// Authorize checks `Authorization: Bearer <secret>`.  The scheme keyword is
// case-sensitive, and the token is compared in constant time.  Any failure
// collapses to the one generic code.
func (g AdminToken) Authorize(r *http.Request) *Denial {
	if g.Secret == "" {
		return &Denial{Code: CodeUnauthorized}
	}

	header := r.Header.Get("Authorization")
	const scheme = "Bearer "
	if !strings.HasPrefix(header, scheme) {
		return &Denial{Code: CodeUnauthorized}
	}

	token := header[len(scheme):]
	if !hmac.Equal([]byte(token), []byte(g.Secret)) {
		return &Denial{Code: CodeUnauthorized}
	}
	return nil
}

/*─────────────────────────────── runtime ───────────────────────────────────*/

// SignedRequest authorizes CMS-originated callers via a timestamped HMAC
// signature over the raw request body.
type SignedRequest struct {
	Secret  string
	MaxSkew time.Duration
	Now     func() time.Time // nil → time.Now
}

// Authorize runs the verification ladder: headers present → timestamp fresh
// → signature matches the exact received bytes.  The body is restored on the
// request afterwards so handlers can decode it.
func (g SignedRequest) Authorize(r *http.Request) *Denial {
	if g.Secret == "" {
		return &Denial{Code: CodeUnauthorized}
	}

	tsHeader := r.Header.Get(signature.HeaderTimestamp)
	sigHeader := r.Header.Get(signature.HeaderSignature)
	if tsHeader == "" || sigHeader == "" {
		return &Denial{Code: CodeMissingSignature}
	}

	ts, err := strconv.ParseInt(tsHeader, 10, 64)
	if err != nil {
		return &Denial{Code: CodeStaleSignature}
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	skew := g.MaxSkew
	if skew <= 0 {
		skew = DefaultMaxSkew
	}
	drift := now().Unix() - ts
	if drift < 0 {
		drift = -drift
	}
	if time.Duration(drift)*time.Second > skew {
		return &Denial{Code: CodeStaleSignature}
	}

	// Verification must run over the bytes as received.  Decoding and
	// re-encoding can reorder fields or alter whitespace, so the raw buffer
	// is captured here and handed back to the handler untouched.
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return &Denial{Code: CodeBadSignature}
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if !signature.Verify(g.Secret, ts, body, sigHeader) {
		return &Denial{Code: CodeBadSignature}
	}
	return nil
}

/*────────────────────────────── middleware ─────────────────────────────────*/

type denialBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Middleware adapts a Gate into a chi middleware.  Denials answer 401 with
// the gate's code and never reach the wrapped handler.
func Middleware(g Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d := g.Authorize(r); d != nil {
				metrics.AuthDeniedTotal.Inc()
				zap.L().Warn("credential gate denial",
					zap.String("code", d.Code),
					zap.String("path", r.URL.Path),
					zap.String("remote", r.RemoteAddr))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(denialBody{OK: false, Error: d.Code})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
