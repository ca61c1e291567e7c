// Copyright 2026 The Dramaforge Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dramaforge/dramaforge/pkg/breaker"
	"github.com/dramaforge/dramaforge/pkg/config"
	"github.com/dramaforge/dramaforge/pkg/notify"
	"github.com/dramaforge/dramaforge/pkg/observability"
	"github.com/dramaforge/dramaforge/pkg/progress"
	"github.com/dramaforge/dramaforge/pkg/quota"
	"github.com/dramaforge/dramaforge/pkg/ratelimit"
	"github.com/dramaforge/dramaforge/pkg/tenancy"
	"github.com/dramaforge/dramaforge/pkg/transport"
)

// ServeCmd starts the server.
type ServeCmd struct {
	Port  int  `help:"Port to listen on." default:"0"`
	Watch bool `help:"Watch config file for changes."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	limiter := ratelimit.New(nil)

	var (
		cfg    *config.Config
		loader *config.Loader
		err    error
	)
	if cli.Config != "" {
		// Limit tables can be edited without a restart; the reload
		// callback swaps them in place.
		cfg, loader, err = config.LoadFile(ctx, cli.Config,
			config.WithOnChange(func(newCfg *config.Config) {
				limiter.SetRules(ratelimit.RulesFromConfig(&newCfg.Isolation))
			}))
		if err != nil {
			return err
		}
		defer loader.Close()
	} else {
		cfg = config.Default()
	}

	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	// Re-initialize logging now that the config file is known; CLI flags
	// and env vars keep precedence over the logger section.
	logCleanup, err := initLogger(cli.LogLevel, cli.LogFile, cli.LogFormat, &cfg.Logger)
	if err != nil {
		return err
	}
	if logCleanup != nil {
		defer logCleanup()
	}

	if c.Watch && loader != nil {
		go func() {
			if err := loader.Watch(ctx); err != nil && ctx.Err() == nil {
				slog.Error("Config watch error", "error", err)
			}
		}()
	}

	limiter.SetRules(ratelimit.RulesFromConfig(&cfg.Isolation))

	metrics, err := observability.InitMetrics(ctx, cfg.Metrics)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	observability.SetGlobalMetrics(metrics)

	var resolver *tenancy.Resolver
	if cfg.Auth.IsEnabled() {
		resolver, err = tenancy.NewResolver(ctx, cfg.Auth.JWKSURL, cfg.Auth.Issuer, cfg.Auth.Audience)
		if err != nil {
			return fmt.Errorf("failed to create tenant resolver: %w", err)
		}
		slog.Info("Tenant resolution enabled", "jwks_url", cfg.Auth.JWKSURL)
	} else {
		slog.Warn("Auth not configured, all requests run as anonymous")
	}

	// Shared pool so SQLite archives don't fight over the file lock.
	dbPool := config.NewDBPool()
	defer dbPool.Close()

	var registryOpts []progress.RegistryOption
	if cfg.Progress.Archive.Enabled {
		dbCfg, ok := cfg.GetDatabase(cfg.Progress.Archive.Database)
		if !ok {
			return fmt.Errorf("archive database %q is not configured", cfg.Progress.Archive.Database)
		}
		db, err := dbPool.Get(dbCfg)
		if err != nil {
			return fmt.Errorf("failed to open archive database: %w", err)
		}
		archive, err := progress.NewSQLArchive(db, dbCfg.Dialect())
		if err != nil {
			return fmt.Errorf("failed to create task archive: %w", err)
		}
		registryOpts = append(registryOpts, progress.WithArchiver(archive))
		slog.Info("Task archiving enabled", "database", cfg.Progress.Archive.Database)
	}

	registry := progress.NewRegistry(registryOpts...)
	hub := notify.NewHub()

	srv := transport.NewServer(transport.Deps{
		Config:   cfg,
		Limiter:  limiter,
		Breaker:  breaker.FromConfig(&cfg.Isolation.Breaker),
		Tracker:  quota.FromConfig(&cfg.Isolation.Quota),
		Registry: registry,
		Hub:      hub,
		Feedback: notify.NewFeedback(registry, hub),
		Resolver: resolver,
		Metrics:  metrics,
	})

	fmt.Printf("Dramaforge ready on http://%s\n", cfg.Server.Address())
	fmt.Printf("   Health:  http://%s/healthz\n", cfg.Server.Address())
	if cfg.Metrics.Enabled {
		fmt.Printf("   Metrics: http://%s/metrics\n", cfg.Server.Address())
	}
	fmt.Printf("   Push:    ws://%s/ws/notifications\n", cfg.Server.Address())

	start := time.Now()
	err = srv.Start(ctx)
	slog.Info("Server stopped", "uptime", time.Since(start).Round(time.Second))
	return err
}
