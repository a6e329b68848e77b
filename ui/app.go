// Package ui hosts the dashboard over HTTP: the page shell, the session actions and the event
// stream every map command and state change is pushed through.
package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"resultsdash/internal"
	"resultsdash/internal/api"
	"resultsdash/ports"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Config holds UI application configuration
type Config struct {
	Port          string
	GinMode       string
	SessionCookie string
}

// App represents the UI application
type App struct {
	config    Config
	router    *chi.Mux
	sessions  *Registry
	data      ports.DataSource
	hub       *api.SSEHub
	templates *template.Template
	log       *internal.Logger
}

// NewApp creates the UI application around a session registry
func NewApp(config Config, sessions *Registry, data ports.DataSource, hub *api.SSEHub, logger *internal.Logger) (*App, error) {
	if sessions == nil || data == nil || hub == nil {
		return nil, fmt.Errorf("sessions, data source and hub are required")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if config.SessionCookie == "" {
		config.SessionCookie = "resultsdash_session"
	}

	templates, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		config:    config,
		router:    chi.NewRouter(),
		sessions:  sessions,
		data:      data,
		hub:       hub,
		templates: templates,
		log:       logger.With("ui"),
	}

	a.setupMiddleware()
	a.setupRoutes()
	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/healthz", a.handleHealth)

	// the event stream is served by the hub's gin engine
	a.router.Handle("/events", a.hub.Engine(a.config.GinMode, a.sessionFromCookie))

	a.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Post("/sessions", a.handleOpenSession)
		r.Get("/issues/export.xlsx", a.handleExportIssues)

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(a.withSession)
			r.Get("/state", a.handleState)
			r.Post("/navigate", a.handleNavigate)
			r.Post("/map-click", a.handleMapClick)
			r.Post("/filter/clear", a.handleClearFilter)
			r.Post("/subtabs/{link}", a.handleSelectSubTab)
		})
	})
}

// ServeHTTP implements http.Handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Start serves until ctx is done, then shuts down gracefully
func (a *App) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.config.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting dashboard server on :%s", a.config.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// end open event streams first so Shutdown does not wait on them
	a.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// sessionFromCookie lets the event stream find the session without a query parameter
func (a *App) sessionFromCookie(c *gin.Context) {
	if cookie, err := c.Cookie(a.config.SessionCookie); err == nil && cookie != "" {
		c.Set("session_id", cookie)
	}
	c.Next()
}

func (a *App) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, name, data); err != nil {
		a.log.Error("template %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
