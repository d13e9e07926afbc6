// Package vulnapi exposes vulnerability records and their grouped view over HTTP.
package vulnapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/warden/internal/authmw"
	"github.com/linnemanlabs/warden/internal/vuln"
)

// VulnService defines the business operations vulnapi needs.
type VulnService interface {
	Create(ctx context.Context, in vuln.Input) (*vuln.Record, error)
	Update(ctx context.Context, id string, in vuln.Input) (*vuln.Record, bool, error)
	Get(ctx context.Context, id string) (*vuln.Record, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	Groups(ctx context.Context) ([]vuln.TaggedRecord, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    VulnService
	token  string
}

// New creates a new API handler. Write routes require token as a bearer
// token; an empty token leaves them open.
func New(logger log.Logger, svc VulnService, token string) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("vulnerability service is required"))
	}
	return &API{
		logger: logger,
		svc:    svc,
		token:  token,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/vulnerabilities", func(r chi.Router) {
		r.Get("/", a.handleListGroups)
		r.Get("/{id}", a.handleGetVulnerability)

		r.Group(func(r chi.Router) {
			if a.token != "" {
				r.Use(authmw.BearerToken(a.token))
			}
			r.Post("/", a.handleCreateVulnerability)
			r.Put("/{id}", a.handleUpdateVulnerability)
			r.Delete("/{id}", a.handleDeleteVulnerability)
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// nothing to do with errors here
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
