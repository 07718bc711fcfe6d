// internal/config/model.go
//
// Typed configuration model.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                               – dotenv values,
//   • `conf/global.yaml`                            – primary static file,
//   • `COLLECTIONS_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client before unmarshalling, so the model never stores
// Vault URIs—only plain strings.  Both shared secrets usually arrive that
// way.
//
// Validation happens immediately after unmarshal; the binary fails fast if
// required fields are missing.  The auth secrets are deliberately NOT
// required: an empty secret is legal configuration whose effect is a gate
// that rejects every caller.  Denying at the gate beats refusing to boot,
// because the other trust domain keeps working.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • Durations accept Go syntax ("100ms", "15s") via the unmarshal hook.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import (
	"time"

	"github.com/Hassan7885m/secure-collections/internal/auth"
	"github.com/Hassan7885m/secure-collections/internal/catalog"
	cmsclient "github.com/Hassan7885m/secure-collections/internal/cms"
)

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
}

//
// Database section
//

// Database holds the MySQL DSN.  The credential portion normally arrives
// through a `vault:` reference resolved at load time.
type Database struct {
	DSN string `koanf:"dsn" validate:"required"`
}

//
// Auth section
//

// Auth carries the two trust-domain secrets and the signature freshness
// window.
type Auth struct {
	AdminToken    string        `koanf:"admin_token"`
	SigningSecret string        `koanf:"signing_secret"`
	MaxSkew       time.Duration `koanf:"max_skew"`
}

//
// Catalog section
//

// Catalog configures the commerce-catalog lookup client.
type Catalog struct {
	BaseURL        string        `koanf:"base_url" validate:"required,url"`
	ConsumerKey    string        `koanf:"consumer_key"`
	ConsumerSecret string        `koanf:"consumer_secret"`
	LookupPace     time.Duration `koanf:"lookup_pace"`
	Timeout        time.Duration `koanf:"timeout"`
}

//
// CMS section
//

// CMS configures the outbound push transport.
type CMS struct {
	Scheme  string        `koanf:"scheme" validate:"omitempty,oneof=http https"`
	Timeout time.Duration `koanf:"timeout"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or COLLECTIONS_ROOT override) so later code
// can build absolute file paths.
type Paths struct {
	Root string // COLLECTIONS_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the process lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Auth     Auth     `koanf:"auth"`
	Catalog  Catalog  `koanf:"catalog"`
	CMS      CMS      `koanf:"cms"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}

// applyDefaults fills the tunables the YAML may omit.
func (c *Config) applyDefaults() {
	if c.Auth.MaxSkew <= 0 {
		c.Auth.MaxSkew = auth.DefaultMaxSkew
	}
	if c.Catalog.LookupPace == 0 {
		c.Catalog.LookupPace = catalog.DefaultPace
	}
	if c.Catalog.Timeout <= 0 {
		c.Catalog.Timeout = catalog.DefaultTimeout
	}
	if c.CMS.Scheme == "" {
		c.CMS.Scheme = cmsclient.DefaultScheme
	}
	if c.CMS.Timeout <= 0 {
		c.CMS.Timeout = cmsclient.DefaultTimeout
	}
}
