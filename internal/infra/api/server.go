package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"lms-personalization/internal/domain/ports/adapter"
	"lms-personalization/internal/domain/ports/repository"
	"lms-personalization/internal/usecase"
)

// Server is the HTTP layer. All personalization routes, the primary one and
// the regeneration fallbacks alike, delegate to the same orchestrator so the
// job semantics stay single-sourced.
type Server struct {
	orchestrator usecase.JobOrchestrator
	profiles     usecase.ProfileResolver
	enrollments  repository.EnrollmentRepository
	verifier     adapter.TokenVerifier
	timeout      time.Duration
	log          *zerolog.Logger
}

func NewServer(
	orchestrator usecase.JobOrchestrator,
	profiles usecase.ProfileResolver,
	enrollments repository.EnrollmentRepository,
	verifier adapter.TokenVerifier,
	requestTimeout time.Duration,
	log *zerolog.Logger,
) *Server {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &Server{
		orchestrator: orchestrator,
		profiles:     profiles,
		enrollments:  enrollments,
		verifier:     verifier,
		timeout:      requestTimeout,
		log:          log,
	}
}

// Router builds the chi mux with the middleware stack applied to the API
// routes. Health and metrics stay outside the auth/CORS surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		wrap := func(h http.Handler) http.Handler {
			return Chain(h,
				TraceID(),
				RequestLog(s.log),
				Recover(s.log),
				CORS(),
				Timeout(s.timeout),
			)
		}

		r.Method(http.MethodPost, "/personalize-content", wrap(http.HandlerFunc(s.handlePersonalize)))
		r.Method(http.MethodOptions, "/personalize-content", wrap(http.NotFoundHandler()))

		r.Method(http.MethodGet, "/jobs/{jobId}", wrap(http.HandlerFunc(s.handleJobStatus)))

		// Regeneration fallbacks. Same operation, three transports: path
		// param, query param, body field.
		r.Method(http.MethodPost, "/courses/{courseID}/regenerate", wrap(s.handleRegenerate(courseIDFromPath)))
		r.Method(http.MethodGet, "/regenerate-course", wrap(s.handleRegenerate(courseIDFromQuery)))
		r.Method(http.MethodPost, "/regenerate-content-fallback", wrap(s.handleRegenerate(courseIDFromBody)))

		r.Method(http.MethodOptions, "/courses/{courseID}/regenerate", wrap(http.NotFoundHandler()))
		r.Method(http.MethodOptions, "/regenerate-course", wrap(http.NotFoundHandler()))
		r.Method(http.MethodOptions, "/regenerate-content-fallback", wrap(http.NotFoundHandler()))
	})

	return r
}
