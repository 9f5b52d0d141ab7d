// Package api exposes the scoring service over HTTP with a chi router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/sells-group/circularity-cli/internal/config"
	"github.com/sells-group/circularity-cli/internal/service"
)

// maxBodyBytes bounds JSON request bodies. Benchmark uploads use
// maxUploadBytes instead.
const (
	maxBodyBytes   = 1 << 20
	maxUploadBytes = 32 << 20
)

// Options configures the router.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
}

// OptionsFromConfig derives router options from the server config.
func OptionsFromConfig(c config.ServerConfig) Options {
	return Options{
		RateLimitRPS:   c.RateLimitRPS,
		RateLimitBurst: c.RateLimitBurst,
		AllowedOrigins: c.AllowedOrigins,
	}
}

// Server holds the HTTP handlers.
type Server struct {
	svc      *service.Service
	validate *validator.Validate
}

// NewServer creates a Server backed by svc.
func NewServer(svc *service.Service) *Server {
	return &Server{svc: svc, validate: validator.New()}
}

// NewRouter builds the HTTP handler for svc.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	s := NewServer(svc)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))
	if opts.RateLimitRPS > 0 {
		r.Use(RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))
	}
	r.Use(middleware.Timeout(30 * time.Second))

	s.Routes(r)
	return r
}

// Routes mounts the API routes on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.health)

	r.Route("/companies", func(r chi.Router) {
		r.Post("/", s.createCompany)
		r.Get("/", s.listCompanies)
		r.Get("/{id}", s.getCompany)
		r.Get("/{id}/scores", s.companyScores)
	})

	r.Route("/scores", func(r chi.Router) {
		r.Post("/calculate", s.calculateScore)
		r.Post("/comparative", s.comparativeScore)
		r.Get("/{id}", s.getScore)
		r.Post("/{id}/action-plan", s.generateActionPlan)
	})

	r.Get("/questionnaires/{sector}", s.questionnaire)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/stats", s.dashboardStats)
		r.Get("/benchmarks", s.listBenchmarks)
		r.Post("/benchmarks/import", s.importBenchmarks)
		r.Delete("/benchmarks", s.deleteAllBenchmarks)
		r.Delete("/benchmarks/{id}", s.deleteBenchmark)
	})
}
