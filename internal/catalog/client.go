// internal/catalog/client.go
//
// HTTP client for the commerce catalog's product lookup endpoint.
//
// Workflow
//   1. Each SKU is looked up with GET {base}/products?sku=…; credentials
//      travel as consumer_key / consumer_secret query parameters, which is
//      how the catalog API authenticates read access.
//   2. Lookups run strictly one at a time with a pause between them.  The
//      catalog rate-limits aggressively and a burst of parallel lookups
//      trips it; a short fixed pace keeps resolution well under the limit.
//   3. A lookup failure of any kind classifies the SKU as missing.  Misses
//      are reported, never fatal: a collection with a discontinued SKU must
//      still resolve the rest of its list.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Hassan7885m/secure-collections/internal/metrics"
)

// Pacing and transport defaults.
const (
	DefaultPace    = 100 * time.Millisecond
	DefaultTimeout = 10 * time.Second
)

var errNotFound = errors.New("sku not in catalog")

// Config carries the catalog endpoint and its read credentials.
type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration // per-lookup; DefaultTimeout when zero
	Pace           time.Duration // gap between lookups; DefaultPace when zero
}

// Client resolves SKUs to catalog product identifiers.
type Client struct {
	base   string
	key    string
	secret string
	httpc  *http.Client
	pace   time.Duration
	log    *zap.SugaredLogger
}

// New returns a Client for the configured catalog.  A nil logger falls back
// to the process-wide zap logger.
func New(cfg Config, log *zap.SugaredLogger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Pace == 0 {
		cfg.Pace = DefaultPace
	}
	if log == nil {
		log = zap.S()
	}
	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		key:    cfg.ConsumerKey,
		secret: cfg.ConsumerSecret,
		httpc:  &http.Client{Timeout: cfg.Timeout},
		pace:   cfg.Pace,
		log:    log,
	}
}

// ResolveAll looks up every SKU in order and splits the input into resolved
// identifiers and missing SKUs.  Duplicates are looked up again, not
// collapsed, so every input SKU lands in exactly one of the two outputs.
// The only error returned is context cancellation; both result slices are
// non-nil on success even when empty.
func (c *Client) ResolveAll(ctx context.Context, skus []string) ([]int64, []string, error) {
	ids := make([]int64, 0, len(skus))
	missing := make([]string, 0)

	for i, sku := range skus {
		if i > 0 {
			if err := c.pause(ctx); err != nil {
				return nil, nil, err
			}
		}

		id, err := c.lookupOne(ctx, sku)
		switch {
		case err == nil:
			metrics.SKUResolvedTotal.Inc()
			ids = append(ids, id)
		case ctx.Err() != nil:
			return nil, nil, ctx.Err()
		case errors.Is(err, errNotFound):
			metrics.SKUMissingTotal.Inc()
			c.log.Infow("sku not in catalog", "sku", sku)
			missing = append(missing, sku)
		default:
			metrics.SKUMissingTotal.Inc()
			c.log.Warnw("sku lookup failed", "sku", sku, "error", err)
			missing = append(missing, sku)
		}
	}
	return ids, missing, nil
}

// lookupOne fetches a single SKU and returns the first matching identifier.
func (c *Client) lookupOne(ctx context.Context, sku string) (int64, error) {
	q := url.Values{}
	q.Set("sku", sku)
	q.Set("consumer_key", c.key)
	q.Set("consumer_secret", c.secret)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.base+"/products?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("catalog returned %d", resp.StatusCode)
	}

	var products []struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return 0, fmt.Errorf("decode catalog response: %w", err)
	}
	if len(products) == 0 {
		return 0, errNotFound
	}
	return products[0].ID, nil
}

// pause waits out the inter-lookup gap, bailing early on cancellation.
func (c *Client) pause(ctx context.Context) error {
	if c.pace <= 0 {
		return nil
	}
	t := time.NewTimer(c.pace)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
