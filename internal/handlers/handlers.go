package handlers

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/swelljoe/wthr-daily/internal/dashboard"
	"github.com/swelljoe/wthr-daily/internal/db"
	"github.com/swelljoe/wthr-daily/internal/render"
)

const (
	sessionCookie = "wthr_session"
	maxFormBytes  = 64 << 10
	minQueryLen   = 2
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

var templates = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

// Database defines the interface for database operations needed by handlers
type Database interface {
	SearchPlaces(query string) ([]db.Place, error)
	Ping() error
}

// Handlers holds dependencies for HTTP handlers
type Handlers struct {
	db        Database
	sessions  *dashboard.Registry
	templates *template.Template
	logger    *slog.Logger
}

// New creates a new Handlers instance. database may be nil, in which case
// place search is unavailable.
func New(sessions *dashboard.Registry, database Database, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		db:        database,
		sessions:  sessions,
		templates: templates,
		logger:    logger,
	}
}

// Routes builds the router with the middleware chain and every endpoint.
func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", h.HandleIndex)
	r.Post("/", h.HandleSubmit)
	r.Get("/results", h.HandleResults)
	r.Get("/events", h.HandleEvents)
	r.Get("/api/state", h.HandleState)
	r.Get("/api/places", h.HandleSearch)
	r.Get("/health", h.HandleHealth)

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	return r
}

// session returns the caller's session, issuing a cookie for a new one.
// Only the form page and submissions create sessions.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) *dashboard.Session {
	sess, created := h.sessions.GetOrCreate(sessionID(r))
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// existingSession returns the caller's session, or nil when the request
// carries no known session cookie.
func (h *Handlers) existingSession(r *http.Request) *dashboard.Session {
	id := sessionID(r)
	if id == "" {
		return nil
	}
	sess, ok := h.sessions.Get(id)
	if !ok {
		return nil
	}
	return sess
}

// currentSnapshot is the caller's state, or the idle state without a session.
func (h *Handlers) currentSnapshot(r *http.Request) dashboard.Snapshot {
	if sess := h.existingSession(r); sess != nil {
		return sess.Snapshot()
	}
	return dashboard.Snapshot{Phase: dashboard.PhaseIdle}
}

func sessionID(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// HandleIndex renders the form and the session's current result or error
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	sess := h.session(w, r)
	h.renderPage(w, http.StatusOK, render.Page(sess.Snapshot(), nil))
}

// HandleSubmit accepts the form. A complete form triggers exactly one
// forecast fetch and redirects back to the page; an incomplete one is
// re-rendered with field messages and fetches nothing.
func (h *Handlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := dashboard.FormState{
		Latitude:  r.PostFormValue("latitude"),
		Longitude: r.PostFormValue("longitude"),
		Date:      r.PostFormValue("date"),
	}

	sess := h.session(w, r)
	if fieldErrors := form.Validate(); fieldErrors != nil {
		view := render.Page(sess.Snapshot(), fieldErrors)
		view.Form = form
		h.renderPage(w, http.StatusUnprocessableEntity, view)
		return
	}

	// A dropped connection must not turn into a failure that wipes the
	// session's last result; the client timeout still bounds the fetch.
	snap := sess.Submit(context.WithoutCancel(r.Context()), form)
	h.logger.Info("forecast submitted",
		"session", sess.ID,
		"phase", string(snap.Phase),
		"request_id", middleware.GetReqID(r.Context()),
	)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleResults renders just the results area
func (h *Handlers) HandleResults(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, "results", render.Page(h.currentSnapshot(r), nil)); err != nil {
		h.logger.Error("template error", "template", "results", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// HandleState returns the session's page view as JSON
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, render.Page(h.currentSnapshot(r), nil))
}

// HandleEvents streams the results fragment as a server-sent event after
// every state transition of the caller's session. Without a session the
// idle state is sent once and the stream stays open with nothing to follow.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	initial := dashboard.Snapshot{Phase: dashboard.PhaseIdle}
	var updates <-chan dashboard.Snapshot
	if sess := h.existingSession(r); sess != nil {
		var cancel func()
		updates, cancel = sess.Subscribe()
		defer cancel()
		initial = sess.Snapshot()
	}

	rc := http.NewResponseController(w)
	// The server's write timeout would otherwise end the stream.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(s dashboard.Snapshot) bool {
		var buf bytes.Buffer
		if err := h.templates.ExecuteTemplate(&buf, "results", render.Page(s, nil)); err != nil {
			h.logger.Error("template error", "template", "results", "error", err)
			return false
		}
		if err := writeEvent(w, "state", buf.String()); err != nil {
			return false
		}
		return rc.Flush() == nil
	}

	if !send(initial) {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case s, ok := <-updates:
			if !ok || !send(s) {
				return
			}
		}
	}
}

// writeEvent writes one server-sent event, prefixing every line of data.
func writeEvent(w http.ResponseWriter, event, data string) error {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(event)
	b.WriteString("\n")
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(strings.TrimRight(line, "\r"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	_, err := w.Write([]byte(b.String()))
	return err
}

// HandleHealth handles health check endpoint
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "ok"
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			status = "degraded"
		}
	} else {
		status = "no_database"
	}

	w.Write([]byte(`{"status":"` + status + `"}`))
}

// HandleSearch performs place lookup for filling the coordinate inputs
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if len(strings.TrimSpace(q)) < minQueryLen {
		writeJSON(w, h.logger, http.StatusOK, []db.Place{})
		return
	}

	if h.db == nil {
		writeJSON(w, h.logger, http.StatusServiceUnavailable, []db.Place{})
		return
	}

	places, err := h.db.SearchPlaces(q)
	if err != nil {
		h.logger.Error("search error", "query", q, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if places == nil {
		places = []db.Place{}
	}
	writeJSON(w, h.logger, http.StatusOK, places)
}

func (h *Handlers) renderPage(w http.ResponseWriter, status int, view render.PageView) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, "index.html", view); err != nil {
		h.logger.Error("template error", "template", "index.html", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("JSON encode error", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logger.Error("response write error", "error", err)
	}
}
