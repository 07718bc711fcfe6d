// internal/pushlog/pushlog.go
//
// Append-only audit trail of CMS delivery attempts.
//
// Notes
//   - Every attempt is recorded, successful or not.  A transport-level
//     failure (connection refused, timeout) is logged with http_status 0 and
//     the error text in place of a response body.
//   - Rows are never updated or deleted here; the log is the evidence trail
//     for "what did we send, when, and what came back".
package pushlog

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Entry mirrors one row in the `push_log` table.
type Entry struct {
	ID         string    `db:"id" json:"id"`
	SiteHost   string    `db:"site_host" json:"site_host"`
	Slug       string    `db:"slug" json:"slug"`
	Version    int64     `db:"version" json:"version"`
	HTTPStatus int       `db:"http_status" json:"http_status"`
	Response   string    `db:"response" json:"response"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Store wraps the shared connection pool with push-log queries.
type Store struct {
	db *sqlx.DB
}

// NewStore returns a Store bound to the supplied pool.
func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

// Append records one delivery attempt, assigning the entry ID when the
// caller has not.
func (s *Store) Append(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	const q = `
	INSERT INTO push_log (id, site_host, slug, version, http_status, response)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		e.ID, e.SiteHost, e.Slug, e.Version, e.HTTPStatus, e.Response)
	return err
}

// ResponseText normalizes a CMS response body for the audit row: valid JSON
// is compacted, anything else is stored as opaque text.
func ResponseText(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if json.Valid(body) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, body); err == nil {
			return buf.String()
		}
	}
	return string(body)
}
