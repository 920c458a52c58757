package web

import (
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"os"
	"time"

	"daycount/internal/calendar"
	"daycount/internal/config"
	"daycount/internal/events"
	appLog "daycount/internal/log"
	"daycount/internal/model"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// Server serves the calendar page and its JSON API.
type Server struct {
	cfg   *config.Config
	store *events.Store
	loc   *time.Location
	mux   *http.ServeMux
	page  *template.Template

	// now is swapped in tests.
	now func() time.Time
}

// NewServer constructs a new Server. The page template is parsed once here.
func NewServer(cfg *config.Config, store *events.Store) (*Server, error) {
	s := &Server{
		cfg:   cfg,
		store: store,
		loc:   ResolveLocation(cfg.Timezone),
		mux:   http.NewServeMux(),
		now:   time.Now,
	}

	page, err := template.New("calendar.gohtml").Funcs(s.templateFuncs()).ParseFS(templateFS, "templates/calendar.gohtml")
	if err != nil {
		return nil, err
	}
	s.page = page

	s.registerRoutes()
	return s, nil
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="daycount", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
	s.mux.HandleFunc("GET /{$}", s.handlePage)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) today() calendar.Date {
	return calendar.FromTime(s.now().In(s.loc))
}

// anchorFrom reads ?date=YYYY-MM-DD, defaulting to today.
func (s *Server) anchorFrom(r *http.Request) (calendar.Date, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return s.today(), nil
	}
	return calendar.ParseDate(raw)
}

// buildView runs one full render pass for the request's anchor.
func (s *Server) buildView(r *http.Request) (calendar.View, error) {
	anchor, err := s.anchorFrom(r)
	if err != nil {
		return calendar.View{}, err
	}
	opts := s.cfg.CalendarOptions()
	first, last := calendar.Window(anchor, opts)

	idx, err := s.store.Index(first, last)
	if err != nil {
		return calendar.View{}, err
	}

	start := time.Now()
	view, err := calendar.BuildView(anchor, s.today(), idx, opts)
	if err != nil {
		return calendar.View{}, err
	}
	appLog.Debug("render pass",
		"anchor", anchor.Key(),
		"months", len(view.Months()),
		"events", idx.Len(),
		"elapsed", time.Since(start),
	)
	return view, nil
}

type calendarResponse struct {
	calendar.View
	EventCollapseThreshold int       `json:"event_collapse_threshold"`
	EventsLoadedAt         time.Time `json:"events_loaded_at"`
}

// handleCalendar returns the full view as JSON.
//
// GET /api/calendar?date=2024-03-15
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	view, err := s.buildView(r)
	if err != nil {
		s.writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calendarResponse{
		View:                   view,
		EventCollapseThreshold: view.Options.CollapseAt,
		EventsLoadedAt:         s.store.LoadedAt(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	anchor, err := s.anchorFrom(r)
	if err != nil {
		s.writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calendar.BuildStats(anchor))
}

type eventsResponse struct {
	First  calendar.Date `json:"first"`
	Last   calendar.Date `json:"last"`
	Events []model.Event `json:"events"`
}

// handleEvents lists the events covering the view window of ?date=.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	anchor, err := s.anchorFrom(r)
	if err != nil {
		s.writeViewError(w, err)
		return
	}
	first, last := calendar.Window(anchor, s.cfg.CalendarOptions())
	list, err := s.store.Events(first, last)
	if err != nil {
		s.writeViewError(w, err)
		return
	}
	if list == nil {
		list = []model.Event{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{First: first, Last: last, Events: list})
}

// handlePage renders the HTML calendar.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	view, err := s.buildView(r)
	if err != nil {
		if errors.Is(err, calendar.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		appLog.Error("render page failed", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := s.renderPage(w, view); err != nil {
		appLog.Error("render page failed", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// handlePreview serves the last captured PNG snapshot.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	path := s.cfg.Capture.Output
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) writeViewError(w http.ResponseWriter, err error) {
	if errors.Is(err, calendar.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appLog.Error("calendar request failed", err)
	writeError(w, http.StatusInternalServerError, "failed to build calendar")
}

// ResolveLocation loads an IANA zone, falling back to time.Local.
func ResolveLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
