// Package api serves run progress and path results over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quatton/aimless/pkg/alog"
	"github.com/quatton/aimless/pkg/shooter"
)

// Source is the run being observed.
type Source interface {
	Progress() shooter.Progress
	Results() *shooter.Results
}

type Api struct {
	Api    huma.API
	Router *chi.Mux
}

func NewApi(src Source, version string) *Api {
	router := chi.NewMux()
	router.Use(middleware.Recoverer)
	router.Handle("/metrics", promhttp.Handler())

	config := huma.DefaultConfig("aimless", version)
	api := humachi.New(router, config)

	RegisterHealth(api)
	RegisterRun(api, src)
	return &Api{Api: api, Router: router}
}

// Serve runs the API on addr until ctx is done.
func Serve(ctx context.Context, addr string, handler http.Handler, log *alog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("Status API listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
