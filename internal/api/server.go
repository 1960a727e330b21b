package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/soochol/flowmart/internal/auth"
	"github.com/soochol/flowmart/internal/flowmart"
	"github.com/soochol/flowmart/internal/gateway"
	"github.com/soochol/flowmart/internal/generate"
)

// CredentialManager stores and lists a caller's site credentials.
type CredentialManager interface {
	Save(ctx context.Context, userID, siteName string, bundle flowmart.Bundle) (flowmart.SiteCredentialSafe, error)
	List(ctx context.Context, userID string) ([]flowmart.SiteCredentialSafe, error)
	Delete(ctx context.Context, userID, siteName string) error
}

type Server struct {
	gateway        *gateway.Gateway
	credentials    CredentialManager
	generator      *generate.Generator
	authenticator  auth.Authenticator
	allowedOrigins []string
	maxUploadBytes int64
}

func NewServer(gw *gateway.Gateway, credentials CredentialManager, authenticator auth.Authenticator) *Server {
	return &Server{
		gateway:        gw,
		credentials:    credentials,
		authenticator:  authenticator,
		allowedOrigins: []string{"*"},
		maxUploadBytes: 32 << 20,
	}
}

// SetGenerator configures the listing content generator. Without one the
// content endpoint returns default content.
func (s *Server) SetGenerator(gen *generate.Generator) {
	s.generator = gen
}

// SetAllowedOrigins configures CORS origins for the dashboard.
func (s *Server) SetAllowedOrigins(origins []string) {
	if len(origins) > 0 {
		s.allowedOrigins = origins
	}
}

// SetMaxUploadBytes bounds inbound gateway bodies.
func (s *Server) SetMaxUploadBytes(n int64) {
	s.maxUploadBytes = n
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	if s.authenticator != nil {
		r.Use(auth.Middleware(s.authenticator))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/portfolio/{siteName}", s.forwardToSite)
		r.Route("/workflows", func(r chi.Router) {
			r.Post("/generate-content", s.generateContent)
			r.Post("/analyze", s.analyzeWorkflow)
		})
		if s.credentials != nil {
			r.Route("/sites", func(r chi.Router) {
				r.Get("/", s.listSites)
				r.Put("/{siteName}/credentials", s.saveSiteCredentials)
				r.Delete("/{siteName}/credentials", s.deleteSiteCredentials)
			})
		}
	})
	return r
}
