// Package routes wires the HTTP surface: the image endpoint plus health
// check. Responses deliberately forbid downstream caching; freshness is
// owned by the pool, not by HTTP caches.
package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/connorshinn/unsplash-Backgrounds/internal/cachekey"
	"github.com/connorshinn/unsplash-Backgrounds/internal/pool"
)

// ImageServer is the slice of the pool manager the HTTP layer needs.
type ImageServer interface {
	Serve(ctx context.Context, key string, p cachekey.Params) (*pool.ServedImage, error)
}

type Server struct {
	Router *chi.Mux

	images ImageServer
	logger zerolog.Logger

	// bindingErr, when set, means a required backing service is not
	// configured. The endpoint answers 500 with the reason instead of
	// half-working.
	bindingErr error
}

type ServerOptions struct {
	Images     ImageServer
	Logger     zerolog.Logger
	BindingErr error
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	s := &Server{
		Router:     r,
		images:     opts.Images,
		logger:     opts.Logger,
		bindingErr: opts.BindingErr,
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			s.logger.Error().Err(err).Msg("health check write failed")
		}
	})

	r.Get("/", s.handleImage)

	return s
}
