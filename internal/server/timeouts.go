// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
// Production hardening recommends:
//
//   • ReadTimeout   – abort slow-loris headers (10 s)
//   • WriteTimeout  – cap total response time (120 s)
//   • IdleTimeout   – close keep-alives on idle clients (60 s)
//
// WriteTimeout is deliberately generous: resolve and publish are synchronous
// and walk the product catalog one SKU at a time with an inter-call pause,
// so the cap must outlive a large collection's full walk plus one CMS push.
//
// This helper centralises those defaults so cmd/collectionsd doesn’t repeat
// boilerplate.
//

package server

import (
	"net/http"
	"time"
)

// New constructs an *http.Server with sensible defaults.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
		// TLSConfig may be injected by callers (e.g., autocert).
	}
}
