package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/campus-eats/internal/auth"
	"github.com/vasiliy-maslov/campus-eats/internal/catalog"
	"github.com/vasiliy-maslov/campus-eats/internal/order"
	"github.com/vasiliy-maslov/campus-eats/internal/user"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Tokens interface {
	auth.TokenParser
	TokenIssuer
}

type RouterDeps struct {
	Catalog  catalog.Service
	Orders   order.Service
	Users    user.Service
	Tokens   Tokens
	Realtime http.Handler
	DB       Pinger
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(deps.DB))
	if deps.Realtime != nil {
		r.Handle("/ws", deps.Realtime)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(accessLog)
		r.Use(auth.Authenticate(deps.Tokens))

		NewCatalogHandler(deps.Catalog).RegisterRoutes(r)
		NewUserHandler(deps.Users, deps.Tokens).RegisterRoutes(r)
		NewOrderHandler(deps.Orders).RegisterRoutes(r)
	})

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				log.Error().Err(err).Msg("http: health check failed")
				respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// accessLog writes one zerolog event per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http: request handled")
		}()

		next.ServeHTTP(ww, r)
	})
}
