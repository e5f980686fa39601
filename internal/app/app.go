// Package app wires the server components together and owns their
// lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/joho/godotenv"

	"chatd/internal/retention"
	"chatd/pkg/attach"
	"chatd/pkg/banner"
	"chatd/pkg/config"
	"chatd/pkg/fanout"
	"chatd/pkg/hub"
	"chatd/pkg/logger"
	"chatd/pkg/presence"
	"chatd/pkg/store"
	"chatd/pkg/users"
	"chatd/pkg/ws"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	local    *hub.Hub
	router   hub.Router
	backbone *hub.Backbone
	tracker  *presence.Tracker
	dir      users.Directory
	fanout   *fanout.Service
	handlers *ws.Handlers

	srv *http.Server
}

// New initializes resources that do not require a running context: the
// store, the broadcast router and the dispatch collaborators. Call Run to
// start the fanout workers, retention and the HTTP server.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	if err := validateConfig(eff); err != nil {
		return nil, err
	}
	cfg := eff.Config

	logger.InitWithLevel(cfg.Logging.Level)

	if err := store.Open(eff.DBPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", eff.DBPath, err)
	}
	store.SetAttachmentProcessor(&attach.Processor{
		Blobs:          attach.NewMemoryBlobs(),
		ThumbnailMaxPx: cfg.Media.ThumbnailMaxPx,
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
	})

	a := &App{eff: eff, version: version, commit: commit, buildDate: buildDate}
	a.local = hub.New()
	a.router = a.local
	if cfg.Backbone.Enabled {
		bb, err := hub.NewBackbone(a.local, cfg.Backbone)
		if err != nil {
			return nil, fmt.Errorf("failed to start broadcast backbone: %w", err)
		}
		a.backbone = bb
		a.router = bb
	}

	a.tracker = presence.NewTracker()
	a.dir = users.NewStaticDirectory()
	a.fanout = fanout.New(a.router, a.dir, cfg.Fanout.Workers, cfg.Fanout.Queue)
	a.handlers = ws.NewHandlers(a.router, a.fanout, a.tracker, a.dir, cfg)
	return a, nil
}

// Run starts the background components and the HTTP server, and blocks
// until ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	a.fanout.Start(ctx)
	defer a.fanout.Stop()

	if a.backbone != nil {
		go a.backbone.Run(ctx)
		defer a.backbone.Close()
	}

	stopRetention, err := retention.Start(ctx, a.eff.Config)
	if err != nil {
		return err
	}
	defer stopRetention()

	a.printBanner()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		a.shutdownHTTP()
		return nil
	case err := <-errCh:
		return err
	}
}

func (a *App) printBanner() {
	verStr := a.version
	if a.commit != "" && a.commit != "none" {
		verStr += " (" + a.commit + ")"
	}
	if a.buildDate != "" && a.buildDate != "unknown" {
		verStr += " @ " + a.buildDate
	}
	banner.Print(a.eff, verStr)
}

// validateConfig rejects configs the server cannot run with.
func validateConfig(eff config.EffectiveConfigResult) error {
	if eff.Config == nil {
		return fmt.Errorf("nil config")
	}
	if eff.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	cfg := eff.Config
	if cfg.Backbone.Enabled && cfg.Backbone.Publish == "" {
		return fmt.Errorf("backbone enabled without a publish endpoint")
	}
	tls := cfg.Server.TLS
	if (tls.CertFile == "") != (tls.KeyFile == "") {
		return fmt.Errorf("tls requires both cert_file and key_file")
	}
	return nil
}
