// Package httpapi exposes the lifecycle operations as a JSON HTTP API.
package httpapi

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/mesh-intelligence/ellie/internal/lifecycle"
)

// Options tunes the router. The zero value disables rate limiting, serves an
// empty /metrics and logs requests to stderr.
type Options struct {
	// WriteRate is the sustained number of mutating requests per second.
	// Zero or less disables the limit.
	WriteRate float64
	// WriteBurst is the number of mutating requests allowed at once.
	WriteBurst int
	// Gatherer backs the /metrics endpoint.
	Gatherer prometheus.Gatherer
	// Logger receives one line per request. Nil uses stderr.
	Logger *log.Logger
}

// handler carries the dependencies of every route.
type handler struct {
	svc    *lifecycle.Service
	logger *log.Logger
}

// NewRouter builds the routes for svc.
func NewRouter(svc *lifecycle.Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "http: ", log.LstdFlags)
	}
	h := &handler{svc: svc, logger: logger}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.NewRegistry()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(limitWrites(newLimiter(opts.WriteRate, opts.WriteBurst)))

		r.Route("/equipment", func(r chi.Router) {
			r.Get("/", h.listEquipment)
			r.Post("/", h.addEquipment)
			r.Get("/{id}", h.getEquipment)
			r.Put("/{id}", h.updateEquipment)
			r.Delete("/{id}", h.deleteEquipment)
			r.Get("/{id}/checkouts", h.history)
		})
		r.Route("/people", func(r chi.Router) {
			r.Get("/", h.listPeople)
			r.Post("/", h.addPerson)
			r.Get("/{id}", h.getPerson)
			r.Put("/{id}", h.updatePerson)
			r.Delete("/{id}", h.deletePerson)
		})
		r.Post("/checkout", h.checkout)
		r.Post("/checkin", h.checkin)
		r.Post("/transfer", h.transfer)
		r.Get("/checkouts/overdue", h.overdue)
	})

	return r
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// limitWrites rejects mutating requests beyond the limiter's budget with 429.
// Reads are never limited.
func limitWrites(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
			default:
				if !limiter.Allow() {
					writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
