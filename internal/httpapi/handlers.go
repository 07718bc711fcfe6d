// internal/httpapi/handlers.go
//
// Request decoding, validation, and status mapping for every operation.
//
// Context
//   Handlers stay thin: decode, validate the request shape, call the
//   reconciler, map the outcome.  Validation order is fixed — malformed
//   body, then slug, then site host — so callers see stable codes when a
//   request fails on several counts at once.
//
// Notes
//   - A publish the CMS refused answers 502 cms_push_failed; the audit row
//     id and remote status ride along for the admin tooling.
//   - Unrecognized store errors answer 500 with the store's message in the
//     error field.

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Hassan7885m/secure-collections/internal/collection"
	"github.com/Hassan7885m/secure-collections/internal/reconciler"
	"github.com/Hassan7885m/secure-collections/internal/settings"
)

// API exposes the reconciler over HTTP.
type API struct {
	svc *reconciler.Service
	log *zap.SugaredLogger
}

/*──────────────────────── request shapes ───────────────────────────*/

type upsertRequest struct {
	SiteHost        string                `json:"site_host"`
	Slug            string                `json:"slug"`
	Title           string                `json:"title"`
	Heading         string                `json:"heading"`
	MetaTitle       string                `json:"meta_title"`
	MetaDescription string                `json:"meta_description"`
	CanonicalURL    string                `json:"canonical_url"`
	Description     string                `json:"description"`
	FAQ             collection.FAQList    `json:"faq"`
	SKUs            collection.StringList `json:"skus"`
	SortOrder       string                `json:"sort_order"`
	PageSize        int                   `json:"page_size"`
}

type slugRequest struct {
	SiteHost string `json:"site_host"`
	Slug     string `json:"slug"`
}

type toggleRequest struct {
	SiteHost string `json:"site_host"`
	Enabled  *bool  `json:"enabled"`
}

type renderRequest struct {
	SiteHost string `json:"site_host"`
	Slug     string `json:"slug"`
	Resolve  bool   `json:"resolve"`
}

type siteRequest struct {
	SiteHost string `json:"site_host"`
}

/*───────────────────────── admin handlers ──────────────────────────*/

func (a *API) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, codeInvalidJSON)
		return
	}
	if strings.TrimSpace(req.Slug) == "" {
		writeErr(w, http.StatusBadRequest, codeSlugRequired)
		return
	}
	if strings.TrimSpace(req.SiteHost) == "" {
		writeErr(w, http.StatusBadRequest, codeSiteHostRequired)
		return
	}

	rec, err := a.svc.Upsert(r.Context(), &collection.Record{
		SiteHost:        req.SiteHost,
		Slug:            req.Slug,
		Title:           req.Title,
		Heading:         req.Heading,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		CanonicalURL:    req.CanonicalURL,
		Description:     req.Description,
		FAQ:             req.FAQ,
		SKUs:            req.SKUs,
		SortOrder:       req.SortOrder,
		PageSize:        req.PageSize,
	})
	if err != nil {
		a.writeStoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		OK         bool               `json:"ok"`
		Collection *collection.Record `json:"collection"`
	}{true, rec})
}

func (a *API) handleResolve(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSlugRequest(w, r)
	if !ok {
		return
	}

	res, err := a.svc.Resolve(r.Context(), req.SiteHost, req.Slug)
	if err != nil {
		a.writeStoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
		*reconciler.Resolution
	}{true, res})
}

func (a *API) handlePublish(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSlugRequest(w, r)
	if !ok {
		return
	}

	pub, err := a.svc.Publish(r.Context(), req.SiteHost, req.Slug)
	if err != nil {
		a.writeStoreErr(w, err)
		return
	}
	if !pub.Pushed {
		writeJSON(w, http.StatusBadGateway, struct {
			OK           bool   `json:"ok"`
			Error        string `json:"error"`
			RemoteStatus int    `json:"remote_status"`
			LogID        string `json:"log_id,omitempty"`
		}{false, codeCMSPushFailed, pub.RemoteStatus, pub.LogID})
		return
	}
	writeJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
		*reconciler.Publication
	}{true, pub})
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	siteHost := strings.TrimSpace(r.URL.Query().Get("site_host"))
	if siteHost == "" {
		writeErr(w, http.StatusBadRequest, codeSiteHostRequired)
		return
	}

	recs, err := a.svc.List(r.Context(), siteHost)
	if err != nil {
		a.writeStoreErr(w, err)
		return
	}
	if recs == nil {
		recs = []collection.Record{}
	}
	writeJSON(w, http.StatusOK, struct {
		OK          bool                `json:"ok"`
		Collections []collection.Record `json:"collections"`
	}{true, recs})
}

func (a *API) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, codeInvalidJSON)
		return
	}
	// A toggle without the flag is malformed, not "false": absence must
	// never disable a storefront feature by accident.
	if req.Enabled == nil {
		writeErr(w, http.StatusBadRequest, codeInvalidJSON)
		return
	}
	if strings.TrimSpace(req.SiteHost) == "" {
		writeErr(w, http.StatusBadRequest, codeSiteHostRequired)
		return
	}

	out, err := a.svc.Toggle(r.Context(), req.SiteHost, *req.Enabled)
	if err != nil {
		a.writeStoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
		*reconciler.ToggleOutcome
	}{true, out})
}

/*──────────────────────── runtime handlers ─────────────────────────*/

func (a *API) handleConfig(w http.ResponseWriter, r *http.Request) {
	var req siteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, codeInvalidJSON)
		return
	}
	if strings.TrimSpace(req.SiteHost) == "" {
		writeErr(w, http.StatusBadRequest, codeSiteHostRequired)
		return
	}

	st, err := a.svc.SiteConfig(r.Context(), req.SiteHost)
	if err != nil {
		a.writeStoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		OK       bool             `json:"ok"`
		Settings *settings.Record `json:"settings"`
	}{true, st})
}

func (a *API) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, codeInvalidJSON)
		return
	}
	if strings.TrimSpace(req.Slug) == "" {
		writeErr(w, http.StatusBadRequest, codeSlugRequired)
		return
	}
	if strings.TrimSpace(req.SiteHost) == "" {
		writeErr(w, http.StatusBadRequest, codeSiteHostRequired)
		return
	}

	page, err := a.svc.Render(r.Context(), req.SiteHost, req.Slug, req.Resolve)
	if err != nil {
		a.writeStoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
		*reconciler.Page
	}{true, page})
}

/*───────────────────────────── shared ──────────────────────────────*/

// decodeSlugRequest handles the common {site_host, slug} body.
func decodeSlugRequest(w http.ResponseWriter, r *http.Request) (slugRequest, bool) {
	var req slugRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, codeInvalidJSON)
		return req, false
	}
	if strings.TrimSpace(req.Slug) == "" {
		writeErr(w, http.StatusBadRequest, codeSlugRequired)
		return req, false
	}
	if strings.TrimSpace(req.SiteHost) == "" {
		writeErr(w, http.StatusBadRequest, codeSiteHostRequired)
		return req, false
	}
	return req, true
}

// writeStoreErr maps service errors onto the wire contract.
func (a *API) writeStoreErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, collection.ErrNotFound):
		writeErr(w, http.StatusNotFound, codeCollectionNotFound)
	case errors.Is(err, settings.ErrNotFound):
		writeErr(w, http.StatusNotFound, codeSettingsNotFound)
	default:
		a.log.Errorw("request failed", "error", err)
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}
