// Package api wires the HTTP surface: contract upload and analysis,
// credit balances, payment links and billing webhooks.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	creditmw "github.com/contractai/backend/middleware/http"
	"github.com/contractai/backend/pkg/ai"
	"github.com/contractai/backend/pkg/billing"
	"github.com/contractai/backend/pkg/contracts"
	"github.com/contractai/backend/pkg/ledger"
)

const version = "1.0.0"

// Config holds server dependencies.
type Config struct {
	// Ledger is the credit ledger (required).
	Ledger *ledger.Service

	// Contracts is the upload store (required).
	Contracts *contracts.Store

	// AI is the analysis client. When nil, analysis endpoints degrade
	// gracefully the way an unconfigured API key does.
	AI *ai.Client

	// Dodo handles checkout links and webhook deliveries.
	Dodo billing.Provider

	// Stripe is the secondary payment path.
	Stripe billing.Provider

	// Logger receives request-level logs. Defaults to no-op.
	Logger ledger.Logger

	// FrontendURL is the allowed CORS origin.
	FrontendURL string

	// EnforceCredits gates analysis endpoints on the caller's balance.
	EnforceCredits bool
}

// Server is the HTTP API.
type Server struct {
	config Config
}

// NewServer validates dependencies and returns a server.
func NewServer(config Config) (*Server, error) {
	if config.Ledger == nil {
		return nil, fmt.Errorf("api: ledger is required")
	}
	if config.Contracts == nil {
		return nil, fmt.Errorf("api: contract store is required")
	}
	if config.Logger == nil {
		config.Logger = &ledger.NoopLogger{}
	}
	return &Server{config: config}, nil
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	if s.config.FrontendURL != "" {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   []string{s.config.FrontendURL},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler)
	}

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.config.EnforceCredits {
			r.Use(creditmw.Middleware(creditmw.Config{
				Ledger:   s.config.Ledger,
				GetEmail: creditmw.FromHeader("X-User-Email"),
			}))
		}
		r.Post("/upload", s.handleUpload)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/ask-question", s.handleAskQuestion)
		r.Post("/generate-email", s.handleGenerateEmail)
	})

	r.Get("/contracts", s.handleListContracts)
	r.Delete("/contracts/{filename}", s.handleDeleteContract)

	r.Get("/credits/{email}", s.handleCredits)
	r.Get("/payments/pro/link", s.handlePaymentLink)

	if s.config.Dodo != nil {
		r.Method(http.MethodPost, "/webhooks/dodo", s.config.Dodo.WebhookHandler())
	}
	if s.config.Stripe != nil {
		r.Method(http.MethodPost, "/webhooks/stripe", s.config.Stripe.WebhookHandler())
	}

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Contract AI Backend is running",
		"status":  "healthy",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"service":        "Contract AI Backend",
		"version":        version,
		"llm_configured": s.config.AI != nil,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]string{"detail": fmt.Sprintf(format, args...)})
}
