package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"rest-gateway/middleware/ratelimit/infra"
)

type statsPayload struct {
	Total   infra.Counters            `json:"total"`
	ByRoute map[string]infra.Counters `json:"by_route"`
	ByKey   map[string]infra.Counters `json:"by_key,omitempty"`
}

type AdminOptions struct {
	// Stats habilita GET /stats.
	Stats *infra.MemoryStatsStore
	// Metrics habilita GET /metrics.
	Metrics *Metrics
	// CORSOrigins vazio não aplica CORS.
	CORSOrigins []string
}

// NewAdminRouter monta o router do listener de administração:
// GET /healthz sempre; /stats e /metrics quando configurados.
func NewAdminRouter(opts AdminOptions) http.Handler {
	r := chi.NewRouter()

	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", defaultContentType)
		_, _ = w.Write([]byte("ok\n"))
	})

	if stats := opts.Stats; stats != nil {
		r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(statsPayload{
				Total:   stats.Total(),
				ByRoute: stats.ByRoute(),
				ByKey:   stats.ByKey(),
			})
		})
	}

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	return r
}
