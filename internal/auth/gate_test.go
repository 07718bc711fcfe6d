// internal/auth/gate_test.go
//
// Unit-tests for both credential-gate variants and the middleware adapter.
//
// Workflow
// --------
// Signed-request cases pin the clock to a fixed instant so the freshness
// window is deterministic.  Each case builds an httptest request, runs the
// gate directly (or through Middleware), and asserts the denial code.
//
// Run: go test ./internal/auth -v

package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Hassan7885m/secure-collections/internal/signature"
)

const frozenNow = int64(1700000000)

func frozenClock() time.Time { return time.Unix(frozenNow, 0) }

func signedRequest(t *testing.T, secret string, ts int64, body []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/runtime/render", bytes.NewReader(body))
	req.Header.Set(signature.HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(signature.HeaderSignature, signature.Sign(secret, ts, body))
	return req
}

/*──────────────────────────── AdminToken ───────────────────────────────────*/

func TestAdminToken(t *testing.T) {
	gate := AdminToken{Secret: "super-secret"}

	cases := []struct {
		name   string
		header string
		want   string // "" means authorized
	}{
		{"valid token", "Bearer super-secret", ""},
		{"wrong token", "Bearer wrong", CodeUnauthorized},
		{"lowercase scheme", "bearer super-secret", CodeUnauthorized},
		{"no scheme", "super-secret", CodeUnauthorized},
		{"missing header", "", CodeUnauthorized},
		{"token is a prefix", "Bearer super-secre", CodeUnauthorized},
		{"token has suffix", "Bearer super-secret2", CodeUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/collections/upsert", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			d := gate.Authorize(req)
			if tc.want == "" {
				if d != nil {
					t.Fatalf("denied with %q, want authorized", d.Code)
				}
				return
			}
			if d == nil || d.Code != tc.want {
				t.Fatalf("denial = %v, want code %q", d, tc.want)
			}
		})
	}
}

func TestAdminTokenFailsClosedWithoutSecret(t *testing.T) {
	gate := AdminToken{Secret: ""}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer ")

	if d := gate.Authorize(req); d == nil || d.Code != CodeUnauthorized {
		t.Fatalf("unconfigured secret must reject every caller, got %v", d)
	}
}

/*─────────────────────────── SignedRequest ─────────────────────────────────*/

func TestSignedRequestAccepted(t *testing.T) {
	gate := SignedRequest{Secret: "shared", Now: frozenClock}
	body := []byte(`{"site_host":"example.com","slug":"summer-sunglasses"}`)

	req := signedRequest(t, "shared", frozenNow-10, body)
	if d := gate.Authorize(req); d != nil {
		t.Fatalf("valid signed request denied with %q", d.Code)
	}

	// The handler must still be able to read the body after verification.
	got, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatalf("re-read body: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("body mutated by gate: %q", got)
	}
}

func TestSignedRequestDenials(t *testing.T) {
	body := []byte(`{"site_host":"example.com"}`)

	cases := []struct {
		name string
		req  func(t *testing.T) *http.Request
		want string
	}{
		{
			"missing both headers",
			func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
			},
			CodeMissingSignature,
		},
		{
			"missing signature header",
			func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
				req.Header.Set(signature.HeaderTimestamp, strconv.FormatInt(frozenNow, 10))
				return req
			},
			CodeMissingSignature,
		},
		{
			"non-integer timestamp",
			func(t *testing.T) *http.Request {
				req := signedRequest(t, "shared", frozenNow, body)
				req.Header.Set(signature.HeaderTimestamp, "yesterday")
				return req
			},
			CodeStaleSignature,
		},
		{
			"timestamp too old",
			func(t *testing.T) *http.Request {
				return signedRequest(t, "shared", frozenNow-301, body)
			},
			CodeStaleSignature,
		},
		{
			"timestamp too far ahead",
			func(t *testing.T) *http.Request {
				return signedRequest(t, "shared", frozenNow+301, body)
			},
			CodeStaleSignature,
		},
		{
			"body altered after signing",
			func(t *testing.T) *http.Request {
				req := signedRequest(t, "shared", frozenNow, body)
				altered := []byte(`{"site_host":"example.org"}`)
				req.Body = io.NopCloser(bytes.NewReader(altered))
				req.ContentLength = int64(len(altered))
				return req
			},
			CodeBadSignature,
		},
		{
			"signed with different secret",
			func(t *testing.T) *http.Request {
				return signedRequest(t, "other", frozenNow, body)
			},
			CodeBadSignature,
		},
	}

	gate := SignedRequest{Secret: "shared", Now: frozenClock}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := gate.Authorize(tc.req(t))
			if d == nil || d.Code != tc.want {
				t.Fatalf("denial = %v, want code %q", d, tc.want)
			}
		})
	}
}

func TestSignedRequestEdgeOfWindow(t *testing.T) {
	gate := SignedRequest{Secret: "shared", Now: frozenClock}
	body := []byte(`{}`)

	// Exactly 300 s of drift is still inside the window.
	if d := gate.Authorize(signedRequest(t, "shared", frozenNow-300, body)); d != nil {
		t.Fatalf("300 s drift denied with %q, want authorized", d.Code)
	}
}

func TestSignedRequestFailsClosedWithoutSecret(t *testing.T) {
	gate := SignedRequest{Secret: "", Now: frozenClock}
	body := []byte(`{}`)

	// Even a request correctly signed with an empty secret is rejected.
	if d := gate.Authorize(signedRequest(t, "", frozenNow, body)); d == nil || d.Code != CodeUnauthorized {
		t.Fatalf("unconfigured secret must reject every caller, got %v", d)
	}
}

/*────────────────────────────── middleware ─────────────────────────────────*/

func TestMiddlewareDenialShape(t *testing.T) {
	handlerRan := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/collections/publish", nil)
	rr := httptest.NewRecorder()

	Middleware(AdminToken{Secret: "super-secret"})(next).ServeHTTP(rr, req)

	if handlerRan {
		t.Fatal("handler ran despite denial")
	}
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}

	var payload struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode denial body: %v", err)
	}
	if payload.OK || payload.Error != CodeUnauthorized {
		t.Fatalf("denial body = %+v", payload)
	}
}

func TestMiddlewarePassesAuthorized(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer super-secret")
	rr := httptest.NewRecorder()

	Middleware(AdminToken{Secret: "super-secret"})(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}
