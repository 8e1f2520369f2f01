// Package api implements the verification collaborator: the server
// side of the zero-knowledge protocol. It stores per-account derivation
// parameters, a hash of the client's authentication tag, and opaque
// encrypted blobs. It never sees the master key, a TOTP seed, or any
// record plaintext.
package api

import (
	"log/slog"
	"net/http"
	"os"

	_ "embed"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/jmcleod/keywarden/storage"
)

//go:embed openapi.yaml
var openapiSpec []byte

// API holds the dependencies needed by the REST handlers. All account
// state, including the auth-tag hashes checked at login, lives in the
// storage.Repository so it shares the backend's durability.
type API struct {
	repo   storage.Repository
	tokens *tokenIssuer
	audit  *auditLogger
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for audit events. If not set,
// a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.audit = newAuditLogger(logger)
	}
}

// New creates a new API instance.
func New(repo storage.Repository, cfg Config, opts ...Option) *API {
	a := &API{
		repo:   repo,
		tokens: newTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.audit == nil {
		a.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/redoc",
	}, nil))

	r.Post("/auth/register", a.Register)
	r.Get("/auth/params", a.DerivationParams)
	r.Post("/auth/login", a.Login)

	r.Route("/blobs", func(r chi.Router) {
		r.Use(a.AuthMiddleware)
		r.Get("/", a.ListBlobs)
		r.Put("/{blobID}", a.PutBlob)
		r.Get("/{blobID}", a.GetBlob)
		r.Delete("/{blobID}", a.DeleteBlob)
	})

	return r
}
