package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Authentication
	mux.HandleFunc("/api/auth/register", s.app.AuthHandler.RegisterHandler)
	mux.HandleFunc("/api/auth/login", s.app.AuthHandler.LoginHandler)
	mux.HandleFunc("/api/auth/logout", s.app.AuthHandler.LogoutHandler)
	mux.HandleFunc("/api/auth/me", s.app.AuthHandler.AccountHandler)
	mux.HandleFunc("/api/auth/resend-verification", s.app.AuthHandler.ResendVerificationHandler)

	// API routes - Chart creation wizard
	mux.HandleFunc("/api/wizard", s.app.WizardHandler.CreateHandler) // POST - new session (?chart_id= for edit)
	mux.HandleFunc("/api/wizard/", s.handleWizardRoutes)             // /{id} and subpaths

	// API routes - Charts
	mux.HandleFunc("/api/charts", s.app.ChartHandler.ListHandler) // GET - list charts
	mux.HandleFunc("/api/charts/", s.handleChartRoutes)           // /{id} and subpaths

	// API routes - Geocoding (anonymous)
	mux.HandleFunc("/api/geocode", s.app.GeocodingHandler.SearchHandler)

	// API routes - Famous charts (anonymous)
	mux.HandleFunc("/api/famous", s.app.FamousHandler.ListHandler)
	mux.HandleFunc("/api/famous/", s.handleFamousRoutes) // GET /{slug}

	// API routes - Language
	mux.HandleFunc("/api/language", s.handleLanguageRoute) // GET - current, POST - change

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleWizardRoutes routes wizard session requests to the appropriate handler
func (s *Server) handleWizardRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/wizard/")
	parts := strings.Split(path, "/")

	id := parts[0]
	if id == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	// /api/wizard/{id}
	if len(parts) == 1 {
		RouteCRUD(w, r,
			func(w http.ResponseWriter, r *http.Request) { s.app.WizardHandler.GetHandler(w, r, id) },
			nil, nil,
			func(w http.ResponseWriter, r *http.Request) { s.app.WizardHandler.DeleteHandler(w, r, id) },
		)
		return
	}

	// /api/wizard/{id}/{action}
	switch parts[1] {
	case "form":
		RouteByMethod(w, r, MethodRouter{
			"PUT": func(w http.ResponseWriter, r *http.Request) { s.app.WizardHandler.UpdateFormHandler(w, r, id) },
		})
	case "next":
		RouteByMethod(w, r, MethodRouter{
			"POST": func(w http.ResponseWriter, r *http.Request) { s.app.WizardHandler.NextHandler(w, r, id) },
		})
	case "previous":
		RouteByMethod(w, r, MethodRouter{
			"POST": func(w http.ResponseWriter, r *http.Request) { s.app.WizardHandler.PreviousHandler(w, r, id) },
		})
	case "jump":
		RouteByMethod(w, r, MethodRouter{
			"POST": func(w http.ResponseWriter, r *http.Request) { s.app.WizardHandler.JumpHandler(w, r, id) },
		})
	case "submit":
		RouteByMethod(w, r, MethodRouter{
			"POST": func(w http.ResponseWriter, r *http.Request) { s.app.WizardHandler.SubmitHandler(w, r, id) },
		})
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleChartRoutes routes chart requests to the chart, interpretation,
// and PDF export handlers
func (s *Server) handleChartRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/charts/")
	parts := strings.Split(path, "/")

	chartID := parts[0]
	if chartID == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	// /api/charts/{id}
	if len(parts) == 1 {
		RouteCRUD(w, r,
			func(w http.ResponseWriter, r *http.Request) { s.app.ChartHandler.GetHandler(w, r, chartID) },
			nil, nil,
			func(w http.ResponseWriter, r *http.Request) { s.app.ChartHandler.DeleteHandler(w, r, chartID) },
		)
		return
	}

	// /api/charts/{id}/{action} and deeper
	switch parts[1] {
	case "status":
		RouteByMethod(w, r, MethodRouter{
			"GET": func(w http.ResponseWriter, r *http.Request) { s.app.ChartHandler.StatusHandler(w, r, chartID) },
		})
	case "watch":
		RouteByMethod(w, r, MethodRouter{
			"POST": func(w http.ResponseWriter, r *http.Request) { s.app.ChartHandler.WatchHandler(w, r, chartID) },
		})
	case "interpretations":
		// POST /api/charts/{id}/interpretations/regenerate
		if len(parts) > 2 && parts[2] == "regenerate" {
			RouteByMethod(w, r, MethodRouter{
				"POST": func(w http.ResponseWriter, r *http.Request) {
					s.app.InterpretationHandler.RegenerateHandler(w, r, chartID)
				},
			})
			return
		}
		RouteByMethod(w, r, MethodRouter{
			"GET": func(w http.ResponseWriter, r *http.Request) {
				s.app.InterpretationHandler.GetHandler(w, r, chartID)
			},
		})
	case "export":
		// POST /api/charts/{id}/export/cancel
		if len(parts) > 2 && parts[2] == "cancel" {
			RouteByMethod(w, r, MethodRouter{
				"POST": func(w http.ResponseWriter, r *http.Request) { s.app.PDFHandler.CancelHandler(w, r, chartID) },
			})
			return
		}
		RouteByMethod(w, r, MethodRouter{
			"POST": func(w http.ResponseWriter, r *http.Request) { s.app.PDFHandler.ExportHandler(w, r, chartID) },
		})
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleFamousRoutes routes famous chart requests by slug
func (s *Server) handleFamousRoutes(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimPrefix(r.URL.Path, "/api/famous/")
	if slug == "" || strings.Contains(slug, "/") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	RouteByMethod(w, r, MethodRouter{
		"GET": func(w http.ResponseWriter, r *http.Request) { s.app.FamousHandler.GetHandler(w, r, slug) },
	})
}

// handleLanguageRoute routes language requests by method
func (s *Server) handleLanguageRoute(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		"GET":  s.app.LanguageHandler.CurrentHandler,
		"POST": s.app.LanguageHandler.ChangeHandler,
	})
}
