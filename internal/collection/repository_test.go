// internal/collection/repository_test.go
//
// Unit-tests for the collection store using sqlmock.
//
// Run: go test ./internal/collection -v

package collection

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	return NewStore(sqlx.NewDb(raw, "mysql")), mock
}

var recordCols = []string{
	"id", "site_host", "slug", "title", "heading", "meta_title",
	"meta_description", "canonical_url", "description", "faq", "skus",
	"product_ids", "sort_order", "page_size", "version", "status",
	"created_at", "updated_at",
}

func TestBySlug(t *testing.T) {
	store, mock := newStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, site_host, slug, title, heading, meta_title, meta_description, canonical_url, description, faq, skus, product_ids, sort_order, page_size, version, status, created_at, updated_at FROM collection WHERE site_host = ? AND slug = ? LIMIT 1`,
	)).
		WithArgs("shop.example.com", "summer-sunglasses").
		WillReturnRows(sqlmock.NewRows(recordCols).AddRow(
			7, "shop.example.com", "summer-sunglasses",
			"Summer Sunglasses", "Shades for the season",
			"Summer Sunglasses | Shop", "Hand-picked sunglasses.",
			"https://shop.example.com/collections/summer-sunglasses",
			"Long-form copy.",
			[]byte(`[{"question":"Polarized?","answer":"Yes."}]`),
			[]byte(`["SUN123","SUN456"]`),
			[]byte(`[501]`),
			"popularity", 24, int64(3), "draft", now, now,
		))

	got, err := store.BySlug(context.Background(), "shop.example.com", "summer-sunglasses")
	if err != nil {
		t.Fatalf("BySlug error: %v", err)
	}
	if got.Slug != "summer-sunglasses" || got.Version != 3 || got.Status != StatusDraft {
		t.Fatalf("unexpected record: %#v", got)
	}
	if len(got.SKUs) != 2 || got.SKUs[1] != "SUN456" {
		t.Fatalf("unexpected skus: %#v", got.SKUs)
	}
	if len(got.ProductIDs) != 1 || got.ProductIDs[0] != 501 {
		t.Fatalf("unexpected product ids: %#v", got.ProductIDs)
	}
	if len(got.FAQ) != 1 || got.FAQ[0].Question != "Polarized?" {
		t.Fatalf("unexpected faq: %#v", got.FAQ)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestBySlugNotFound(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT`)).
		WithArgs("shop.example.com", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.BySlug(context.Background(), "shop.example.com", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBySite(t *testing.T) {
	store, mock := newStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, site_host, slug, title, heading, meta_title, meta_description, canonical_url, description, faq, skus, product_ids, sort_order, page_size, version, status, created_at, updated_at FROM collection WHERE site_host = ? ORDER BY slug`,
	)).
		WithArgs("shop.example.com").
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow(1, "shop.example.com", "beach-towels", "Beach Towels", "", "", "", "", "",
				[]byte(`[]`), []byte(`[]`), []byte(`[]`), "", 24, int64(1), "published", now, now).
			AddRow(2, "shop.example.com", "summer-sunglasses", "Summer Sunglasses", "", "", "", "", "",
				[]byte(`[]`), []byte(`["SUN123"]`), []byte(`[]`), "", 24, int64(1), "draft", now, now))

	got, err := store.BySite(context.Background(), "shop.example.com")
	if err != nil {
		t.Fatalf("BySite error: %v", err)
	}
	if len(got) != 2 || got[0].Slug != "beach-towels" || got[1].Slug != "summer-sunglasses" {
		t.Fatalf("unexpected records: %#v", got)
	}
	if !got[0].IsPublished() || got[1].IsPublished() {
		t.Fatalf("unexpected statuses: %q / %q", got[0].Status, got[1].Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestUpsert(t *testing.T) {
	store, mock := newStore(t)

	// New rows start at version 1 in draft; conflicting rows bump the
	// version and keep product_ids and status as they were.
	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO collection (site_host, slug, title, heading, meta_title, meta_description, canonical_url, description, faq, skus, product_ids, sort_order, page_size, version, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, 'draft') ON DUPLICATE KEY UPDATE title = VALUES(title), heading = VALUES(heading), meta_title = VALUES(meta_title), meta_description = VALUES(meta_description), canonical_url = VALUES(canonical_url), description = VALUES(description), faq = VALUES(faq), skus = VALUES(skus), sort_order = VALUES(sort_order), page_size = VALUES(page_size), version = version + 1, updated_at = NOW()`,
	)).
		WithArgs("shop.example.com", "summer-sunglasses", "Summer Sunglasses",
			"Shades for the season", "Summer Sunglasses | Shop",
			"Hand-picked sunglasses.", "", "Long-form copy.",
			FAQList{{Question: "Polarized?", Answer: "Yes."}},
			StringList{"SUN123", "SUN456"},
			IntList(nil), "popularity", 24).
		WillReturnResult(sqlmock.NewResult(7, 1))

	rec := &Record{
		SiteHost:        "shop.example.com",
		Slug:            "summer-sunglasses",
		Title:           "Summer Sunglasses",
		Heading:         "Shades for the season",
		MetaTitle:       "Summer Sunglasses | Shop",
		MetaDescription: "Hand-picked sunglasses.",
		Description:     "Long-form copy.",
		FAQ:             FAQList{{Question: "Polarized?", Answer: "Yes."}},
		SKUs:            StringList{"SUN123", "SUN456"},
		SortOrder:       "popularity",
		PageSize:        24,
	}
	if err := store.Upsert(context.Background(), rec); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSaveProductIDs(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE collection SET product_ids = ?, updated_at = NOW() WHERE site_host = ? AND slug = ?`,
	)).
		WithArgs(IntList{501}, "shop.example.com", "summer-sunglasses").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SaveProductIDs(context.Background(), "shop.example.com", "summer-sunglasses", IntList{501})
	if err != nil {
		t.Fatalf("SaveProductIDs error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestMarkPublished(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE collection SET status = 'published', updated_at = NOW() WHERE site_host = ? AND slug = ?`,
	)).
		WithArgs("shop.example.com", "summer-sunglasses").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.MarkPublished(context.Background(), "shop.example.com", "summer-sunglasses")
	if err != nil {
		t.Fatalf("MarkPublished error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
