package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatd/pkg/logger"
	"chatd/pkg/store"
	"chatd/pkg/utils"
)

// startHTTP builds the router, starts the HTTP server in a goroutine and
// returns a channel that will contain any server error.
func (a *App) startHTTP(_ context.Context) <-chan error {
	r := mux.NewRouter()
	r.HandleFunc("/ws/chat/{conversationID}", a.handlers.HandleChat)
	r.HandleFunc("/ws/presence/{userID}", a.handlers.HandlePresence)
	r.HandleFunc("/healthz", healthzHandler)
	r.HandleFunc("/readyz", a.readyzHandler)
	r.Handle("/metrics", promhttp.Handler())

	a.srv = &http.Server{Addr: a.eff.Addr, Handler: r}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listening", "addr", a.eff.Addr)
		tls := a.eff.Config.Server.TLS
		var err error
		if tls.CertFile != "" && tls.KeyFile != "" {
			err = a.srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = a.srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// shutdownHTTP drains the server with a bounded grace period. Websocket
// connections end when their sockets close.
func (a *App) shutdownHTTP() {
	if a.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(ctx); err != nil {
		logger.Warn("http_shutdown_incomplete", "error", err)
		_ = a.srv.Close()
	}
	if err := store.Close(); err != nil {
		logger.Error("store_close_failed", "error", err)
	}
}

// healthzHandler handles the /healthz endpoint.
func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyzHandler reports ready once the store is open.
func (a *App) readyzHandler(w http.ResponseWriter, _ *http.Request) {
	if !store.Ready() {
		utils.JSONError(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	ver := a.version
	if ver == "" {
		ver = "dev"
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok", "version": ver})
}
