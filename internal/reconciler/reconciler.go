// internal/reconciler/reconciler.go
//
// Orchestration between the collection store, the catalog resolver, and the
// CMS transport.
//
// Context
//   Writes land in the store first; the CMS copy is brought up to date
//   afterwards.  The store is the source of truth and a failed delivery
//   never unwinds a store write — publish leaves the record draft and
//   toggle reports an unmirrored flag, both retryable by running the same
//   operation again.
//
// Workflow (publish)
//   1. Load the record and project it into the outbound envelope, using
//      the identifier list persisted by the last resolution.  Publish never
//      re-resolves; what was reviewed is what ships.
//   2. Push, then append exactly one audit row for the attempt whatever the
//      outcome.  A transport-level failure is recorded with http_status 0
//      and the error text in place of a body.
//   3. Only a confirmed 2xx advances the record to published.
package reconciler

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Hassan7885m/secure-collections/internal/catalog"
	"github.com/Hassan7885m/secure-collections/internal/cms"
	"github.com/Hassan7885m/secure-collections/internal/collection"
	"github.com/Hassan7885m/secure-collections/internal/metrics"
	"github.com/Hassan7885m/secure-collections/internal/pushlog"
	"github.com/Hassan7885m/secure-collections/internal/settings"
)

// CollectionStore is the slice of the collection repository the service uses.
type CollectionStore interface {
	BySlug(ctx context.Context, siteHost, slug string) (*collection.Record, error)
	BySite(ctx context.Context, siteHost string) ([]collection.Record, error)
	Upsert(ctx context.Context, rec *collection.Record) error
	SaveProductIDs(ctx context.Context, siteHost, slug string, ids collection.IntList) error
	MarkPublished(ctx context.Context, siteHost, slug string) error
}

// SettingsStore reads and flips per-site settings.
type SettingsStore interface {
	ByHost(ctx context.Context, siteHost string) (*settings.Record, error)
	SetEnabled(ctx context.Context, siteHost string, enabled bool) error
}

// PushLog appends delivery-attempt audit rows.
type PushLog interface {
	Append(ctx context.Context, e *pushlog.Entry) error
}

// Resolver maps SKUs to catalog identifiers.
type Resolver interface {
	ResolveAll(ctx context.Context, skus []string) ([]int64, []string, error)
}

// Pusher delivers signed envelopes to a site's CMS.
type Pusher interface {
	PushCollection(ctx context.Context, siteHost, basePath string, p *cms.Payload) (cms.Delivery, error)
	PushToggle(ctx context.Context, siteHost, basePath string, enabled bool) (cms.Delivery, error)
}

// The production implementations must keep satisfying these.
var (
	_ CollectionStore = (*collection.Store)(nil)
	_ SettingsStore   = (*settings.Store)(nil)
	_ PushLog         = (*pushlog.Store)(nil)
	_ Resolver        = (*catalog.Client)(nil)
	_ Pusher          = (*cms.Client)(nil)
)

// Deps bundles the service's collaborators.
type Deps struct {
	Collections CollectionStore
	Settings    SettingsStore
	Audit       PushLog
	Resolver    Resolver
	Pusher      Pusher
	Log         *zap.SugaredLogger
}

// Service coordinates collection lifecycle operations.
type Service struct {
	collections CollectionStore
	settings    SettingsStore
	audit       PushLog
	resolver    Resolver
	pusher      Pusher
	log         *zap.SugaredLogger
}

// New wires a Service.  A nil logger falls back to the process-wide zap
// logger.
func New(d Deps) *Service {
	if d.Log == nil {
		d.Log = zap.S()
	}
	return &Service{
		collections: d.Collections,
		settings:    d.Settings,
		audit:       d.Audit,
		resolver:    d.Resolver,
		pusher:      d.Pusher,
		log:         d.Log,
	}
}

/*───────────────────────────── outcomes ────────────────────────────*/

// Resolution reports one catalog-resolution run.
type Resolution struct {
	Slug       string             `json:"slug"`
	Resolved   int                `json:"resolved"`
	Missing    []string           `json:"missing"`
	ProductIDs collection.IntList `json:"product_ids"`
}

// Publication reports one publish attempt.  Pushed mirrors the CMS verdict;
// Status is the record's status after the attempt.
type Publication struct {
	Slug         string `json:"slug"`
	Version      int64  `json:"version"`
	Pushed       bool   `json:"pushed"`
	RemoteStatus int    `json:"remote_status"`
	LogID        string `json:"log_id"`
	Status       string `json:"status"`
}

// ToggleOutcome reports a flag flip and whether the CMS mirror took it.
type ToggleOutcome struct {
	SiteHost     string `json:"site_host"`
	Enabled      bool   `json:"enabled"`
	Mirrored     bool   `json:"mirrored"`
	RemoteStatus int    `json:"remote_status,omitempty"`
}

// Page is the runtime render result: the site's settings plus the canonical
// collection envelope.
type Page struct {
	Settings   *settings.Record `json:"settings"`
	Collection *cms.Payload     `json:"collection"`
}

/*───────────────────────────── operations ──────────────────────────*/

// Upsert normalizes and stores admin-authored fields, then returns the
// record as stored (insert lands at version 1 draft, update bumps the
// version).
func (s *Service) Upsert(ctx context.Context, rec *collection.Record) (*collection.Record, error) {
	rec.SortOrder = collection.NormalizeSort(rec.SortOrder)
	rec.PageSize = collection.ClampPageSize(rec.PageSize)

	if err := s.collections.Upsert(ctx, rec); err != nil {
		return nil, err
	}
	return s.collections.BySlug(ctx, rec.SiteHost, rec.Slug)
}

// Resolve maps the record's SKU list to catalog identifiers and persists the
// result.  Partial results persist too: a collection with discontinued SKUs
// still gets its resolvable identifiers stored, with the misses reported.
func (s *Service) Resolve(ctx context.Context, siteHost, slug string) (*Resolution, error) {
	rec, err := s.collections.BySlug(ctx, siteHost, slug)
	if err != nil {
		return nil, err
	}

	// Nothing to look up; store the empty projection without touching the
	// catalog.
	if len(rec.SKUs) == 0 {
		if err := s.collections.SaveProductIDs(ctx, siteHost, slug, collection.IntList{}); err != nil {
			return nil, err
		}
		return &Resolution{Slug: slug, Missing: []string{}, ProductIDs: collection.IntList{}}, nil
	}

	ids, missing, err := s.resolver.ResolveAll(ctx, rec.SKUs)
	if err != nil {
		return nil, err
	}
	list := collection.IntList(ids)
	if err := s.collections.SaveProductIDs(ctx, siteHost, slug, list); err != nil {
		return nil, err
	}

	s.log.Infow("collection resolved",
		"site", siteHost, "slug", slug,
		"resolved", len(ids), "missing", len(missing))
	return &Resolution{Slug: slug, Resolved: len(ids), Missing: missing, ProductIDs: list}, nil
}

// Publish delivers the stored record to the site's CMS and records the
// attempt.  The returned Publication carries the CMS verdict; only load and
// audit-path store errors surface as errors.
func (s *Service) Publish(ctx context.Context, siteHost, slug string) (*Publication, error) {
	rec, err := s.collections.BySlug(ctx, siteHost, slug)
	if err != nil {
		return nil, err
	}

	payload := cms.PayloadFrom(rec)
	// The envelope describes the state the page takes on delivery; the CMS
	// only ever receives pages that are going live.
	payload.Status = collection.StatusPublished

	metrics.PushTotal.Inc()
	delivery, pushErr := s.pusher.PushCollection(ctx, siteHost, s.basePath(ctx, siteHost), payload)

	entry := &pushlog.Entry{SiteHost: siteHost, Slug: slug, Version: rec.Version}
	if pushErr != nil {
		entry.Response = pushErr.Error()
	} else {
		entry.HTTPStatus = delivery.Status
		entry.Response = pushlog.ResponseText(delivery.Body)
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		// The delivery already happened (or failed) out there; losing the
		// audit row is bad but refusing the result would not undo it.
		s.log.Errorw("push log append failed",
			"site", siteHost, "slug", slug, "error", err)
	}

	pub := &Publication{
		Slug:    slug,
		Version: rec.Version,
		LogID:   entry.ID,
		Status:  rec.Status,
	}

	if pushErr != nil {
		metrics.PushFailureTotal.Inc()
		s.log.Warnw("collection push failed",
			"site", siteHost, "slug", slug, "error", pushErr)
		return pub, nil
	}
	pub.RemoteStatus = delivery.Status
	if !delivery.OK() {
		metrics.PushFailureTotal.Inc()
		s.log.Warnw("collection push rejected",
			"site", siteHost, "slug", slug, "status", delivery.Status)
		return pub, nil
	}

	pub.Pushed = true
	if err := s.collections.MarkPublished(ctx, siteHost, slug); err != nil {
		// The CMS has the page but the store still says draft.  The next
		// publish repeats the delivery and heals the gap.
		s.log.Errorw("status write failed after confirmed delivery",
			"site", siteHost, "slug", slug, "error", err)
	} else {
		pub.Status = collection.StatusPublished
	}

	s.log.Infow("collection published",
		"site", siteHost, "slug", slug, "version", rec.Version,
		"remote_status", delivery.Status)
	return pub, nil
}

// Render returns what the storefront needs to draw the page: the site's
// settings row (required; a site with no row is not provisioned) and the
// canonical envelope.  When refresh is set and the record has SKUs, the
// identifier list is re-resolved inline and the fresher list served.
func (s *Service) Render(ctx context.Context, siteHost, slug string, refresh bool) (*Page, error) {
	st, err := s.settings.ByHost(ctx, siteHost)
	if err != nil {
		return nil, err
	}
	rec, err := s.collections.BySlug(ctx, siteHost, slug)
	if err != nil {
		return nil, err
	}

	if refresh && len(rec.SKUs) > 0 {
		ids, _, err := s.resolver.ResolveAll(ctx, rec.SKUs)
		if err != nil {
			return nil, err
		}
		rec.ProductIDs = collection.IntList(ids)
		if err := s.collections.SaveProductIDs(ctx, siteHost, slug, rec.ProductIDs); err != nil {
			// Serve the fresh list anyway; the write retries on the next
			// resolution.
			s.log.Warnw("identifier save failed during render",
				"site", siteHost, "slug", slug, "error", err)
		}
	}

	return &Page{Settings: st, Collection: cms.PayloadFrom(rec)}, nil
}

// SiteConfig returns the site's settings row.
func (s *Service) SiteConfig(ctx context.Context, siteHost string) (*settings.Record, error) {
	return s.settings.ByHost(ctx, siteHost)
}

// Toggle flips the per-site feature flag and mirrors it to the CMS.  The
// store write is authoritative; a failed mirror is reported, not rolled
// back, and the flag converges when the CMS next fetches its config.
func (s *Service) Toggle(ctx context.Context, siteHost string, enabled bool) (*ToggleOutcome, error) {
	if err := s.settings.SetEnabled(ctx, siteHost, enabled); err != nil {
		return nil, err
	}

	out := &ToggleOutcome{SiteHost: siteHost, Enabled: enabled}
	delivery, err := s.pusher.PushToggle(ctx, siteHost, s.basePath(ctx, siteHost), enabled)
	if err != nil {
		s.log.Warnw("toggle mirror failed", "site", siteHost, "error", err)
		return out, nil
	}
	out.RemoteStatus = delivery.Status
	out.Mirrored = delivery.OK()
	if !out.Mirrored {
		s.log.Warnw("toggle mirror rejected",
			"site", siteHost, "status", delivery.Status)
	}
	return out, nil
}

// List returns every collection for the site.
func (s *Service) List(ctx context.Context, siteHost string) ([]collection.Record, error) {
	return s.collections.BySite(ctx, siteHost)
}

// basePath looks up where the site's CMS mounts its endpoints.  Outbound
// deliveries must keep working for sites that have never stored a settings
// row, so absence falls back to the default mount.
func (s *Service) basePath(ctx context.Context, siteHost string) string {
	st, err := s.settings.ByHost(ctx, siteHost)
	if err != nil {
		if !errors.Is(err, settings.ErrNotFound) {
			s.log.Warnw("settings lookup failed, using defaults",
				"site", siteHost, "error", err)
		}
		return settings.DefaultBasePath
	}
	if st.CMSBasePath == "" {
		return settings.DefaultBasePath
	}
	return st.CMSBasePath
}
