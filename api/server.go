/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the roster frontend

ROUTE GROUPS:
  /api/members                       Member list
  /api/periods/{period}/days         Calendar
  /api/periods/{period}/roster/*     Roster, edits, exports
  /api/periods/{period}/preferences* Saturday availability, leave requests
  /api/scenarios/*                   Demo scenarios
  /metrics                           Prometheus scrape endpoint
  /*                                 Static files (frontend)

STATIC FILE SERVING:
  Serves the built frontend from web/dist/ when present. Falls back to
  index.html for client-side routing.

SECURITY NOTE:
  No authentication middleware. All endpoints are public and meant for the
  office network only.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins is used when RouterOptions.AllowedOrigins is empty.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// RouterOptions configures NewRouter.
type RouterOptions struct {
	AllowedOrigins []string
	Metrics        http.Handler // mounted at /metrics when non-nil
	StaticDir      string       // defaults to ./web/dist
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = DefaultAllowedOrigins
	}

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/members", h.ListMembers)

		r.Route("/periods/{period}", func(r chi.Router) {
			r.Get("/days", h.ListDays)

			// Roster routes
			r.Route("/roster", func(r chi.Router) {
				r.Get("/", h.GetRoster)
				r.Post("/generate", h.GenerateRoster)
				r.Post("/reset", h.ResetRoster)
				r.Post("/toggle", h.ToggleCell)
				r.Post("/assign", h.AssignCell)
				r.Post("/confirm/{memberID}", h.ConfirmRequests)
				r.Get("/violations", h.ListViolations)
				r.Get("/history", h.ListHistory)
				r.Get("/export.csv", h.ExportCSV)
				r.Get("/print", h.PrintJob)
			})

			// Preference routes
			r.Route("/preferences", func(r chi.Router) {
				r.Get("/", h.GetPreferences)
				r.Put("/", h.PutPreferences)
				r.Post("/saturdays/toggle", h.ToggleSaturday)
				r.Post("/saturdays/bulk", h.BulkSaturdays)
				r.Post("/requests/toggle", h.ToggleLeaveRequest)
				r.Delete("/requests", h.ClearLeaveRequests)
				r.Post("/reflect-saturdays", h.ReflectSaturdays)
			})
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	// Serve static files (frontend)
	// First try ./web/dist (development), then fall back to message
	staticDir := opts.StaticDir
	if staticDir == "" {
		staticDir = "./web/dist"
		if _, err := os.Stat(staticDir); os.IsNotExist(err) {
			// Try relative to executable
			exe, _ := os.Executable()
			staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
		}
	}

	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			fullPath := filepath.Join(staticDir, r.URL.Path)

			// SPA routing: serve index.html for unknown paths
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Duty Roster</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Duty Roster API</h1>
<p>The frontend is not built. The API is available under /api.</p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/members">/api/members</a> - List members</li>
<li><a href="/api/scenarios">/api/scenarios</a> - List demo scenarios</li>
<li><a href="/metrics">/metrics</a> - Prometheus metrics</li>
</ul>
</body>
</html>`))
		})
	}

	return r
}
