// internal/cms/payload.go
//
// Outbound envelope for collection deliveries.
//
// Context
//   The CMS plugin accepts exactly this field set and nothing else, so the
//   envelope is a deliberate projection of the stored record rather than a
//   raw dump.  Internal columns (row id, site_host, the SKU source list)
//   never leave the service; adding a field here is a cross-team contract
//   change, not a refactor.
package cms

import (
	"time"

	"github.com/Hassan7885m/secure-collections/internal/collection"
)

// Payload is the canonical body POSTed to the CMS sync endpoint.
type Payload struct {
	Slug            string             `json:"slug"`
	Title           string             `json:"title"`
	Heading         string             `json:"heading"`
	MetaTitle       string             `json:"meta_title"`
	MetaDescription string             `json:"meta_description"`
	CanonicalURL    string             `json:"canonical_url"`
	Description     string             `json:"description"`
	FAQ             collection.FAQList `json:"faq"`
	ProductIDs      collection.IntList `json:"product_ids"`
	SortOrder       string             `json:"sort_order"`
	PageSize        int                `json:"page_size"`
	Version         int64              `json:"version"`
	Status          string             `json:"status"`
	UpdatedAt       string             `json:"updated_at"`
}

// PayloadFrom projects a stored record into the envelope.  Timestamps are
// normalized to RFC 3339 UTC so the same record serializes identically no
// matter which node built the payload.
func PayloadFrom(rec *collection.Record) *Payload {
	return &Payload{
		Slug:            rec.Slug,
		Title:           rec.Title,
		Heading:         rec.Heading,
		MetaTitle:       rec.MetaTitle,
		MetaDescription: rec.MetaDescription,
		CanonicalURL:    rec.CanonicalURL,
		Description:     rec.Description,
		FAQ:             rec.FAQ,
		ProductIDs:      rec.ProductIDs,
		SortOrder:       rec.SortOrder,
		PageSize:        rec.PageSize,
		Version:         rec.Version,
		Status:          rec.Status,
		UpdatedAt:       rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
