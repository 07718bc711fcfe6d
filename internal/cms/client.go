// internal/cms/client.go
//
// Signed HTTP transport to the per-site CMS plugin.
//
// Workflow
//   1. Serialize the payload once; the signature is computed over those
//      exact bytes, so the body must never be re-marshaled afterwards.
//   2. Stamp X-Timestamp and X-Signature and POST to the site's endpoint:
//      <scheme>://<site_host><base_path>/sync for collection deliveries,
//      …/toggle for feature-flag mirrors.
//   3. Hand back the CMS's verdict verbatim.  This layer decides nothing:
//      interpreting the status code and recording the attempt belong to the
//      reconciler and its audit log.
//
// Notes
//   - Response bodies are capped at 1 MiB.  The audit log stores them and a
//     misbehaving plugin should not be able to bloat it.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Hassan7885m/secure-collections/internal/signature"
)

const maxResponseBytes = 1 << 20

// Transport defaults.
const (
	DefaultScheme  = "https"
	DefaultTimeout = 15 * time.Second
)

// Config carries the outbound transport settings.
type Config struct {
	Secret  string        // shared HMAC secret for outbound signing
	Scheme  string        // DefaultScheme unless overridden (tests use http)
	Timeout time.Duration // per-delivery; DefaultTimeout when zero
}

// Delivery is the CMS's verdict on one attempt: the status code and the raw
// response body.  Transport-level failures never produce a Delivery; they
// surface as errors.
type Delivery struct {
	Status int
	Body   []byte
}

// OK reports whether the CMS confirmed receipt.
func (d Delivery) OK() bool { return d.Status >= 200 && d.Status < 300 }

// Client pushes signed envelopes to site CMS endpoints.
type Client struct {
	httpc  *http.Client
	scheme string
	secret string
	now    func() time.Time
	log    *zap.SugaredLogger
}

// New returns a Client signing with the supplied secret.  A nil logger falls
// back to the process-wide zap logger.
func New(cfg Config, log *zap.SugaredLogger) *Client {
	if cfg.Scheme == "" {
		cfg.Scheme = DefaultScheme
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.S()
	}
	return &Client{
		httpc:  &http.Client{Timeout: cfg.Timeout},
		scheme: cfg.Scheme,
		secret: cfg.Secret,
		now:    time.Now,
		log:    log,
	}
}

// PushCollection delivers a collection envelope to the site's sync endpoint.
func (c *Client) PushCollection(ctx context.Context, siteHost, basePath string, p *Payload) (Delivery, error) {
	return c.post(ctx, siteHost, basePath, "/sync", p)
}

// PushToggle mirrors the feature flag to the site's toggle endpoint.
func (c *Client) PushToggle(ctx context.Context, siteHost, basePath string, enabled bool) (Delivery, error) {
	body := struct {
		Enabled bool `json:"enabled"`
	}{Enabled: enabled}
	return c.post(ctx, siteHost, basePath, "/toggle", body)
}

func (c *Client) post(ctx context.Context, siteHost, basePath, endpoint string, v any) (Delivery, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Delivery{}, err
	}

	ts := c.now().Unix()
	u := endpointURL(c.scheme, siteHost, basePath, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return Delivery{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signature.HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(signature.HeaderSignature, signature.Sign(c.secret, ts, body))

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Warnw("cms push transport failure",
			"site", siteHost, "endpoint", endpoint, "error", err)
		return Delivery{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Delivery{}, err
	}
	return Delivery{Status: resp.StatusCode, Body: raw}, nil
}

// endpointURL joins scheme, host, and paths without doubling slashes; the
// stored base path may or may not carry them.
func endpointURL(scheme, host, basePath, endpoint string) string {
	base := strings.Trim(basePath, "/")
	if base != "" {
		base = "/" + base
	}
	return scheme + "://" + host + base + endpoint
}
