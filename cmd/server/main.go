package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/patchbay/internal/api"
	"github.com/gyaneshwarpardhi/patchbay/internal/config"
	"github.com/gyaneshwarpardhi/patchbay/internal/nodedef"
	"github.com/gyaneshwarpardhi/patchbay/internal/project"
	"github.com/gyaneshwarpardhi/patchbay/internal/session"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	cfgPath := flag.String("config", "configs/patchbay.yaml", "Path to YAML config (empty for defaults)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	var loader *config.Loader
	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		loader, err = config.NewLoader(*cfgPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
		cfg = loader.Config()
	}
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	// ── Node catalog ──────────────────────────────────────────────────────────
	reg, err := loadCatalog(cfg)
	if err != nil {
		slog.Error("failed to load node catalog", "err", err)
		os.Exit(1)
	}
	slog.Info("node catalog loaded", "kinds", len(reg.Kinds()))

	// ── Project store ─────────────────────────────────────────────────────────
	projects, err := openProjects(cfg.Projects)
	if err != nil {
		slog.Error("failed to open project store", "err", err)
		os.Exit(1)
	}
	defer projects.Close()

	// ── Sessions ──────────────────────────────────────────────────────────────
	sessions := session.NewManager(session.SettingsFrom(cfg, reg), logger)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	if loader != nil {
		loader.OnChange(func(newCfg *config.Config) {
			if err := config.Validate(newCfg); err != nil {
				slog.Warn("hot-reload skipped: config invalid", "err", err)
				return
			}
			newReg, err := loadCatalog(newCfg)
			if err != nil {
				slog.Warn("hot-reload skipped: catalog failed", "err", err)
				return
			}
			sessions.SetSettings(session.SettingsFrom(newCfg, newReg))
		})
		stopWatch, err := loader.Watch()
		if err != nil {
			slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
		} else {
			defer stopWatch()
		}
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.New(sessions, projects, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	sessions.Shutdown()
	slog.Info("goodbye")
}

func loadCatalog(cfg *config.Config) (*nodedef.Registry, error) {
	if cfg.Catalog == "" {
		return nodedef.Builtin(), nil
	}
	return nodedef.LoadFile(cfg.Catalog)
}

func openProjects(conf config.ProjectsConf) (project.Store, error) {
	switch conf.Backend {
	case "file":
		return project.NewFileStore(conf.Dir)
	case "sqlite":
		return project.NewSQLiteStore(conf.SQLitePath)
	}
	return nil, fmt.Errorf("unknown project backend %q", conf.Backend)
}
