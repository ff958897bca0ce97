// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	flag "github.com/spf13/pflag"

	"github.com/bureau-foundation/passvault/lib/clock"
	"github.com/bureau-foundation/passvault/lib/config"
	"github.com/bureau-foundation/passvault/lib/keyring"
	"github.com/bureau-foundation/passvault/lib/ownerauth"
	"github.com/bureau-foundation/passvault/lib/process"
	"github.com/bureau-foundation/passvault/lib/recordstore"
	"github.com/bureau-foundation/passvault/lib/service"
	"github.com/bureau-foundation/passvault/lib/sharetoken"
	"github.com/bureau-foundation/passvault/lib/vault"
	"github.com/bureau-foundation/passvault/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		listen      string
		showVersion bool
	)
	flag.StringVarP(&configPath, "config", "c", "", "path to YAML config file (default $"+config.FileVariable+")")
	flag.StringVar(&listen, "listen", "", "override the listen address")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("passvault-server %s\n", version.Full())
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Listen = listen
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := process.SignalContext(context.Background())
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app, err := newApplication(ctx, cfg, applicationDeps{
		Logger:   logger,
		Registry: registry,
	})
	if err != nil {
		return err
	}
	defer app.Close()

	server := service.NewHTTPServer(service.HTTPServerConfig{
		Address: cfg.Listen,
		Handler: app.Handler(),
		Logger:  logger,
	})

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()

	select {
	case <-server.Ready():
		logger.Info("passvault listening",
			"address", server.Addr().String(),
			"environment", cfg.Environment,
			"database", cfg.Database,
			"share_token_ttl", cfg.ShareTokenTTL.Std(),
			"version", version.Info(),
		)
	case err := <-serveDone:
		return err
	}

	err = <-serveDone
	logger.Info("passvault stopped")
	return err
}

// applicationDeps are the collaborators newApplication does not build
// from configuration.
type applicationDeps struct {
	// Logger defaults to discarding.
	Logger *slog.Logger

	// Registry receives the vault's collectors and is served at
	// /metrics. Nil uses a fresh registry.
	Registry *prometheus.Registry

	// Clock defaults to the real clock.
	Clock clock.Clock
}

// application owns every long-lived resource of the server.
type application struct {
	keys   *keyring.Keyring
	store  *recordstore.Store
	server *server
}

// newApplication loads the keys, opens the database and assembles the
// HTTP handler. Any failure releases what was already opened.
func newApplication(ctx context.Context, cfg *config.Config, deps applicationDeps) (_ *application, err error) {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	keys, err := keyring.Load(cfg.CipherKey, cfg.SigningKey)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			keys.Close()
		}
	}()

	store, err := recordstore.Open(ctx, recordstore.Config{
		Path:   cfg.Database,
		Clock:  clk,
		Logger: deps.Logger,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			store.Close()
		}
	}()

	tokens, err := sharetoken.NewAuthority(keys.SigningKey(), cfg.ShareTokenTTL.Std(), clk)
	if err != nil {
		return nil, err
	}

	passwords, err := vault.New(vault.Config{
		Store:      store,
		Cipher:     keys.CipherKey(),
		Tokens:     tokens,
		Logger:     deps.Logger,
		Registerer: deps.Registry,
	})
	if err != nil {
		return nil, err
	}

	hashKey, blockKey := keys.SessionKeys()
	auth, err := ownerauth.New(ownerauth.Config{
		PasswordHash:    cfg.OwnerPasswordHash,
		HashKey:         hashKey,
		BlockKey:        blockKey,
		SessionTTL:      cfg.SessionTTL.Std(),
		InsecureCookies: cfg.InsecureCookies,
		Clock:           clk,
		Logger:          deps.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &application{
		keys:  keys,
		store: store,
		server: &server{
			vault:    passwords,
			auth:     auth,
			gatherer: deps.Registry,
			logger:   deps.Logger,
		},
	}, nil
}

// Handler returns the root HTTP handler.
func (a *application) Handler() http.Handler {
	return a.server.routes()
}

// Close releases the database and zeroes the keys.
func (a *application) Close() error {
	return errors.Join(a.store.Close(), a.keys.Close())
}
