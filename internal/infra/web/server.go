package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-gate-bot/internal/usecase"
)

// Server is the admin HTTP surface: course CRUD, stats, health, metrics.
// All /api/v1 routes except login sit behind JWT bearer auth.
type Server struct {
	courseUC usecase.CourseUseCase
	statsUC  usecase.StatsUseCase
	auth     *AuthManager
	apiKey   string
	log      *zerolog.Logger
}

func NewServer(
	courseUC usecase.CourseUseCase,
	statsUC usecase.StatsUseCase,
	auth *AuthManager,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	webLog := logger.With().Str("component", "AdminWeb").Logger()
	return &Server{
		courseUC: courseUC,
		statsUC:  statsUC,
		auth:     auth,
		apiKey:   apiKey,
		log:      &webLog,
	}
}

// Router builds the chi router for the admin server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/stats", s.handleStats)
			r.Route("/courses", func(r chi.Router) {
				r.Get("/", s.handleListCourses)
				r.Post("/", s.handleCreateCourse)
				r.Get("/{id}", s.handleGetCourse)
				r.Delete("/{id}", s.handleDeleteCourse)
			})
		})
	})

	return r
}

// authMiddleware requires a valid admin JWT on every request.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.auth.cfg.HMACSecret) == 0 {
			s.log.Error().Msg("admin JWT secret is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil || claims.Role != "admin" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
