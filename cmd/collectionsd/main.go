// cmd/collectionsd/main.go
//
// Collections service – HTTP entry point.
//
// Boot life-cycle
// ---------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Load layered config (global.yaml → COLLECTIONS_* env → vault refs).
//
//  4. Open the collections DB and log a row-count sanity check.
//
//  5. Wire stores, the catalog resolver, the CMS pusher, and the
//     reconciler service on top of one shared pool.
//
//  6. Build the chi router: admin surface behind the bearer gate, runtime
//     surface behind the signed-request gate, /healthz and /metrics open.
//
//  7. Serve with hardened timeouts; SIGINT/SIGTERM drain in-flight
//     requests for up to ten seconds before exit.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Hassan7885m/secure-collections/internal/auth"
	"github.com/Hassan7885m/secure-collections/internal/catalog"
	"github.com/Hassan7885m/secure-collections/internal/cms"
	"github.com/Hassan7885m/secure-collections/internal/collection"
	"github.com/Hassan7885m/secure-collections/internal/config"
	"github.com/Hassan7885m/secure-collections/internal/database"
	"github.com/Hassan7885m/secure-collections/internal/httpapi"
	"github.com/Hassan7885m/secure-collections/internal/logger"
	"github.com/Hassan7885m/secure-collections/internal/pushlog"
	"github.com/Hassan7885m/secure-collections/internal/reconciler"
	"github.com/Hassan7885m/secure-collections/internal/server"
	"github.com/Hassan7885m/secure-collections/internal/settings"
)

const serverEnvPath = "/usr/local/etc/secure-collections/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	//
	// ── 1.  Config (yaml → env → vault) ────────────────────────────────
	//
	cfg, err := config.Load(ctx)
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}

	//
	// ── 2.  Database connect ───────────────────────────────────────────
	//
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		logOut.Fatalf("connect DB: %v", err)
	}
	defer db.Close()
	logOut.Infow("database online")

	// Log collection count as an early sanity check.
	var total int
	_ = db.Get(&total, `SELECT COUNT(*) FROM collection`)
	logOut.Infof("%d collection(s) found", total)

	//
	// ── 3.  Service wiring ─────────────────────────────────────────────
	//
	svc := reconciler.New(reconciler.Deps{
		Collections: collection.NewStore(db),
		Settings:    settings.NewStore(db),
		Audit:       pushlog.NewStore(db),
		Resolver: catalog.New(catalog.Config{
			BaseURL:        cfg.Catalog.BaseURL,
			ConsumerKey:    cfg.Catalog.ConsumerKey,
			ConsumerSecret: cfg.Catalog.ConsumerSecret,
			Timeout:        cfg.Catalog.Timeout,
			Pace:           cfg.Catalog.LookupPace,
		}, logOut),
		Pusher: cms.New(cms.Config{
			Secret:  cfg.Auth.SigningSecret,
			Scheme:  cfg.CMS.Scheme,
			Timeout: cfg.CMS.Timeout,
		}, logOut),
		Log: logOut,
	})

	handler := httpapi.NewRouter(httpapi.Deps{
		Service:     svc,
		AdminGate:   auth.AdminToken{Secret: cfg.Auth.AdminToken},
		RuntimeGate: auth.SignedRequest{Secret: cfg.Auth.SigningSecret, MaxSkew: cfg.Auth.MaxSkew},
		Log:         logOut,
	})

	//
	// ── 4.  Serve until signalled, then drain ──────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		logOut.Fatalf("server: %v", err)
	}
	logOut.Infow("shutdown complete")
}
