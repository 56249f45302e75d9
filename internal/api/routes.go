package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/founders-outreach/internal/pkg/httputil"
)

// SetupRoutes configures all API routes
func SetupRoutes(h *Handlers, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(5 * time.Minute))

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health
	r.Get("/health", h.HandleHealth)
	if h.deps.Health != nil {
		r.Get("/health/ready", h.deps.Health.HandleReadiness)
	}

	// Public tracking surfaces
	r.Get("/t/open", h.TrackOpen)
	r.Get("/t/click", h.TrackClick)
	r.Post("/webhooks/sendgrid", h.SendGridWebhook)
	r.Get("/unsubscribe/{rid}", h.UnsubscribeRecipient)
	r.Post("/unsubscribe/{rid}", h.UnsubscribeRecipient)
	r.Post("/unsubscribe", h.UnsubscribeByToken)

	// Operator and cron routes
	r.Route("/api", func(r chi.Router) {
		r.Use(opsAuth(h.deps.OpsToken))

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Post("/", h.CreateCampaign)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetCampaign)
				r.Post("/activate", h.ActivateCampaign)
				r.Post("/pause", h.PauseCampaign)
				r.Post("/resume", h.ResumeCampaign)
				r.Post("/complete", h.CompleteCampaign)

				r.Post("/recipients", h.IngestRecipients)
				r.Post("/recipients/csv", h.IngestRecipientsCSV)
				r.Post("/recipients/import", h.ImportRecipients)
			})
		})

		r.Post("/drip/run", h.RunDrip)
		r.Post("/phase-guard/run", h.RunPhaseGuard)
		r.Get("/phase", h.GetPhase)
	})

	return r
}

// opsAuth requires "Authorization: Bearer <token>". An empty configured
// token rejects every request.
func opsAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				httputil.Unauthorized(w, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
