// internal/collection/repository.go
//
// MySQL persistence for collection records.
//
// Workflow
//   1. Upsert writes the admin-authored fields.  Inserts start at version 1
//      in draft; updates bump the version counter and leave product_ids and
//      status untouched.
//   2. SaveProductIDs stores the derived identifier list after catalog
//      resolution.  It does not bump the version; identifiers are a
//      projection of the SKU list, not an edit.
//   3. MarkPublished advances the status after a confirmed CMS delivery.
package collection

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when no collection matches the requested key.
var ErrNotFound = errors.New("collection not found")

// Store wraps the shared connection pool with collection queries.
type Store struct {
	db *sqlx.DB
}

// NewStore returns a Store bound to the supplied pool.
func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

const selectCols = `
	       id, site_host, slug, title, heading, meta_title,
	       meta_description, canonical_url, description, faq, skus,
	       product_ids, sort_order, page_size, version, status,
	       created_at, updated_at`

// BySlug returns the collection matching (siteHost, slug).
func (s *Store) BySlug(ctx context.Context, siteHost, slug string) (*Record, error) {
	const q = `
	SELECT` + selectCols + `
	FROM   collection
	WHERE  site_host = ? AND slug = ?
	LIMIT  1`

	var rec Record
	if err := s.db.GetContext(ctx, &rec, q, siteHost, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// BySite returns every collection for the site, ordered by slug.
func (s *Store) BySite(ctx context.Context, siteHost string) ([]Record, error) {
	const q = `
	SELECT` + selectCols + `
	FROM   collection
	WHERE  site_host = ?
	ORDER  BY slug`

	var recs []Record
	if err := s.db.SelectContext(ctx, &recs, q, siteHost); err != nil {
		return nil, err
	}
	return recs, nil
}

// Upsert inserts the record or refreshes its admin-authored fields.  The
// (site_host, slug) unique key decides which; there is no separate create
// call.  Derived and lifecycle columns are never written on update: the
// identifier list survives until the next resolution and a published page
// stays published through edits.
func (s *Store) Upsert(ctx context.Context, rec *Record) error {
	const q = `
	INSERT INTO collection
	       (site_host, slug, title, heading, meta_title, meta_description,
	        canonical_url, description, faq, skus, product_ids, sort_order,
	        page_size, version, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, 'draft')
	ON DUPLICATE KEY UPDATE
	       title            = VALUES(title),
	       heading          = VALUES(heading),
	       meta_title       = VALUES(meta_title),
	       meta_description = VALUES(meta_description),
	       canonical_url    = VALUES(canonical_url),
	       description      = VALUES(description),
	       faq              = VALUES(faq),
	       skus             = VALUES(skus),
	       sort_order       = VALUES(sort_order),
	       page_size        = VALUES(page_size),
	       version          = version + 1,
	       updated_at       = NOW()`

	_, err := s.db.ExecContext(ctx, q,
		rec.SiteHost, rec.Slug, rec.Title, rec.Heading, rec.MetaTitle,
		rec.MetaDescription, rec.CanonicalURL, rec.Description,
		rec.FAQ, rec.SKUs, rec.ProductIDs, rec.SortOrder, rec.PageSize)
	return err
}

// SaveProductIDs replaces the derived identifier list.
func (s *Store) SaveProductIDs(ctx context.Context, siteHost, slug string, ids IntList) error {
	const q = `
	UPDATE collection
	SET    product_ids = ?, updated_at = NOW()
	WHERE  site_host = ? AND slug = ?`

	_, err := s.db.ExecContext(ctx, q, ids, siteHost, slug)
	return err
}

// MarkPublished advances the record to published.  Idempotent; publishing a
// published collection is a refresh, not an error.
func (s *Store) MarkPublished(ctx context.Context, siteHost, slug string) error {
	const q = `
	UPDATE collection
	SET    status = 'published', updated_at = NOW()
	WHERE  site_host = ? AND slug = ?`

	_, err := s.db.ExecContext(ctx, q, siteHost, slug)
	return err
}
