// Package app wires configuration, the session backend and the router
// into a runnable HTTP service.
package app

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/duynhne/sut-service/config"
	"github.com/duynhne/sut-service/internal/router"
	"github.com/rs/zerolog/log"
)

// Mode selects which listener a shell runs.
type Mode int

const (
	// ModeServe listens on service.port.
	ModeServe Mode = iota
	// ModeDev listens on service.dev_port and serves static.dir,
	// defaulting to ./public.
	ModeDev
)

// DefaultDevStaticDir is served by ModeDev when static.dir is unset.
const DefaultDevStaticDir = "public"

type App struct {
	httpServer *http.Server
	infra      *Infra
	draining   atomic.Bool
}

// New builds the App. cfg is not modified.
func New(ctx context.Context, cfg *config.Config, mode Mode) (*App, error) {
	local := *cfg
	port := local.Service.Port
	if mode == ModeDev {
		port = local.Service.DevPort
		if local.Static.Dir == "" {
			local.Static.Dir = DefaultDevStaticDir
		}
	}

	infra, err := setupInfra(ctx, &local)
	if err != nil {
		return nil, err
	}

	a := &App{infra: infra}
	a.httpServer = &http.Server{
		Addr:              ":" + port,
		Handler:           router.New(&local, infra.Sessions, &a.draining),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return a.httpServer.Addr }

// Handler returns the assembled router.
func (a *App) Handler() http.Handler { return a.httpServer.Handler }

// Run blocks serving HTTP until Shutdown is called.
func (a *App) Run() error {
	if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Drain fails readiness and waits delay so load balancers stop routing
// new traffic before the listener closes.
func (a *App) Drain(delay time.Duration) {
	a.draining.Store(true)
	if delay <= 0 {
		return
	}
	log.Info().Dur("delay", delay).Msg("Readiness drain delay started")
	time.Sleep(delay)
	log.Info().Dur("delay", delay).Msg("Readiness drain delay completed")
}

// Shutdown stops accepting connections, waits for in-flight requests
// (delayed ones included) within ctx, then closes the session backend.
func (a *App) Shutdown(ctx context.Context) error {
	a.draining.Store(true)
	serverErr := a.httpServer.Shutdown(ctx)
	if serverErr != nil {
		log.Error().Err(serverErr).Msg("HTTP server shutdown error")
	} else {
		log.Info().Msg("HTTP server shutdown complete")
	}
	return errors.Join(serverErr, a.infra.Close())
}
