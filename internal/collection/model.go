// internal/collection/model.go
//
// Collection record: one curated product listing page, keyed by
// (site_host, slug).
//
// Context
//   Display fields are admin-authored through upsert.  The SKU list is also
//   admin-authored; the product-identifier list is derived from it by catalog
//   resolution and must never be edited directly.  Identifiers are a
//   projection of the SKU list as of the last successful resolution, so a
//   SKU removed from the list invalidates its identifier even while the old
//   value is still stored.
//
//   Status is a two-state machine: draft → published, advanced only by a
//   successful CMS delivery.  Nothing in this subsystem moves a record
//   backwards.
package collection

import "time"

// Collection statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Page-size bounds for the rendered listing.
const (
	DefaultPageSize = 24
	MaxPageSize     = 100
)

// SortDefault leaves ordering to the CMS-side default.
const SortDefault = ""

// sortOrders is the closed set of accepted catalog orderings.  The values
// mirror the commerce catalog's own orderby vocabulary.
var sortOrders = map[string]struct{}{
	SortDefault:  {},
	"popularity": {},
	"rating":     {},
	"date":       {},
	"price":      {},
	"price-desc": {},
	"title":      {},
}

// Record mirrors one row in the `collection` table.
type Record struct {
	ID              uint64     `db:"id" json:"-"`
	SiteHost        string     `db:"site_host" json:"site_host"`
	Slug            string     `db:"slug" json:"slug"`
	Title           string     `db:"title" json:"title"`
	Heading         string     `db:"heading" json:"heading"`
	MetaTitle       string     `db:"meta_title" json:"meta_title"`
	MetaDescription string     `db:"meta_description" json:"meta_description"`
	CanonicalURL    string     `db:"canonical_url" json:"canonical_url"`
	Description     string     `db:"description" json:"description"`
	FAQ             FAQList    `db:"faq" json:"faq"`
	SKUs            StringList `db:"skus" json:"skus"`
	ProductIDs      IntList    `db:"product_ids" json:"product_ids"`
	SortOrder       string     `db:"sort_order" json:"sort_order"`
	PageSize        int        `db:"page_size" json:"page_size"`
	Version         int64      `db:"version" json:"version"`
	Status          string     `db:"status" json:"status"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// IsPublished reports whether the record has been delivered at least once.
func (r *Record) IsPublished() bool { return r.Status == StatusPublished }

// FAQEntry is one question/answer pair rendered below the listing.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// NormalizeSort maps unknown orderings to the default rather than erroring;
// the set is bounded, not caller-extensible.
func NormalizeSort(s string) string {
	if _, ok := sortOrders[s]; ok {
		return s
	}
	return SortDefault
}

// ClampPageSize bounds the listing page size to [1, MaxPageSize], with zero
// and negatives falling back to the default.
func ClampPageSize(n int) int {
	switch {
	case n <= 0:
		return DefaultPageSize
	case n > MaxPageSize:
		return MaxPageSize
	default:
		return n
	}
}
