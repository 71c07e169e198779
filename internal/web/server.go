// Package web is the board's HTTP surface: a JSON management API, a
// small read-only dashboard, and a WebSocket push channel bridging the
// notification broker out to remote clients.
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/boardops/boardops/internal/boardlog"
	"github.com/boardops/boardops/internal/config"
	"github.com/boardops/boardops/internal/db"
	"github.com/boardops/boardops/internal/door"
	"github.com/boardops/boardops/internal/notify"
	"github.com/boardops/boardops/internal/sysop"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Dependencies collects the collaborators the web server dispatches to.
// It never constructs them itself — cmd/boardops wires concrete
// implementations in at startup.
type Dependencies struct {
	DB     *db.DB
	Broker *notify.Broker
	Doors  *door.Manager
	Pager  *sysop.Pager
	Log    boardlog.Logger
}

// Server is the board's HTTP server: the management API, dashboard, and
// WebSocket push channel all share one *http.Server and ServeMux.
type Server struct {
	cfg      *config.Config
	deps     Dependencies
	mux      *http.ServeMux
	tmpl     *template.Template
	server   *http.Server
	upgrader websocket.Upgrader
}

// New builds a Server wired to deps, with routes and templates ready to
// serve. Call Start to begin listening.
func New(cfg *config.Config, deps Dependencies) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mux:  http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The push channel is read by arbitrary terminal emulators and
			// dashboard clients; origin checking is left to a reverse proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.parseTemplates()
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      s.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // the push channel holds long-lived connections open
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins serving HTTP requests. It blocks until the server is shut down.
func (s *Server) Start() error {
	s.deps.Log.Info("http server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) parseTemplates() {
	funcMap := template.FuncMap{
		"fmtTime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04:05 UTC")
		},
		"fmtTimePtr": func(t *time.Time) string {
			if t == nil {
				return "--"
			}
			return t.Format("2006-01-02 15:04:05 UTC")
		},
		"statusClass": func(state string) string {
			switch state {
			case "active":
				return "status-healthy"
			case "saved":
				return "status-running"
			case "terminated":
				return "status-down"
			default:
				return "status-unknown"
			}
		},
		"renderMarkdown": func(body string) template.HTML {
			gm := goldmark.New(goldmark.WithExtensions(extension.GFM))
			var buf bytes.Buffer
			if err := gm.Convert([]byte(body), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(body))
			}
			return template.HTML(buf.String())
		},
	}

	s.tmpl = template.Must(
		template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html"),
	)
}

func (s *Server) registerRoutes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("GET /{$}", s.handleDashboard)
	s.mux.HandleFunc("GET /message-bases", s.handleDashboardMessageBases)
	s.mux.HandleFunc("GET /message-bases/{id}/messages", s.handleDashboardMessages)
	s.mux.HandleFunc("GET /door-sessions", s.handleDashboardDoorSessions)

	s.mux.HandleFunc("GET /api/v1/health", s.handleAPIHealth)
	s.mux.HandleFunc("GET /api/v1/stats", s.handleAPIBrokerStats)

	s.mux.HandleFunc("GET /api/v1/users", s.handleAPIListUsers)
	s.mux.HandleFunc("POST /api/v1/users", s.handleAPICreateUser)

	s.mux.HandleFunc("GET /api/v1/message-bases", s.handleAPIListMessageBases)
	s.mux.HandleFunc("POST /api/v1/message-bases", s.handleAPICreateMessageBase)
	s.mux.HandleFunc("GET /api/v1/message-bases/{id}/messages", s.handleAPIListMessages)
	s.mux.HandleFunc("POST /api/v1/message-bases/{id}/messages", s.handleAPICreateMessage)

	s.mux.HandleFunc("GET /api/v1/door-sessions", s.handleAPIListDoorSessions)

	s.mux.HandleFunc("POST /api/v1/system/announcement", s.handleAPISystemAnnouncement)
	s.mux.HandleFunc("POST /api/v1/sysop/page", s.handleAPISysopPage)

	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
}

// render executes a content template, then wraps it in the dashboard
// layout unless the request is an HTMX partial fetch.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.deps.Log.Error("template render failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	if r.Header.Get("HX-Request") != "" {
		_, _ = w.Write(buf.Bytes())
		return
	}

	layoutData := struct {
		Page    string
		Content template.HTML
		Version string
	}{
		Page:    name,
		Content: template.HTML(buf.String()),
		Version: config.Version,
	}
	if err := s.tmpl.ExecuteTemplate(w, "layout.html", layoutData); err != nil {
		s.deps.Log.Error("layout render failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}
