// internal/settings/settings.go
//
// Per-site runtime settings for the collections feature.
//
// Context
//   Each storefront carries one row: whether collection pages are enabled,
//   the maintenance copy shown while they are not, and the base path the
//   CMS mounts its sync endpoints under.  Runtime reads treat a missing row
//   as "site not provisioned"; outbound pushes instead fall back to
//   Defaults so a site that has never been toggled can still receive
//   deliveries.
package settings

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// DefaultBasePath is where the CMS plugin mounts its endpoints unless the
// site row overrides it.
const DefaultBasePath = "/wp-json/collections/v1"

// ErrNotFound is returned when the site has no settings row.
var ErrNotFound = errors.New("site settings not found")

// Record mirrors one row in the `site_settings` table.
type Record struct {
	ID                 uint64 `db:"id" json:"-"`
	SiteHost           string `db:"site_host" json:"site_host"`
	Enabled            bool   `db:"collections_enabled" json:"enabled"`
	MaintenanceMessage string `db:"maintenance_message" json:"maintenance_message"`
	CMSBasePath        string `db:"cms_base_path" json:"cms_base_path"`
}

// Defaults returns the settings assumed for a site with no stored row.
func Defaults(siteHost string) *Record {
	return &Record{
		SiteHost:    siteHost,
		Enabled:     true,
		CMSBasePath: DefaultBasePath,
	}
}

// Store wraps the shared connection pool with settings queries.
type Store struct {
	db *sqlx.DB
}

// NewStore returns a Store bound to the supplied pool.
func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

// ByHost returns the settings row for the site.
func (s *Store) ByHost(ctx context.Context, siteHost string) (*Record, error) {
	const q = `
	SELECT id, site_host, collections_enabled, maintenance_message,
	       cms_base_path
	FROM   site_settings
	WHERE  site_host = ?
	LIMIT  1`

	var rec Record
	if err := s.db.GetContext(ctx, &rec, q, siteHost); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// SetEnabled flips the feature flag, creating the row with defaults when the
// site has never been toggled before.
func (s *Store) SetEnabled(ctx context.Context, siteHost string, enabled bool) error {
	const q = `
	INSERT INTO site_settings (site_host, collections_enabled, maintenance_message, cms_base_path)
	VALUES (?, ?, '', ?)
	ON DUPLICATE KEY UPDATE
	       collections_enabled = VALUES(collections_enabled),
	       updated_at          = NOW()`

	_, err := s.db.ExecContext(ctx, q, siteHost, enabled, DefaultBasePath)
	return err
}
