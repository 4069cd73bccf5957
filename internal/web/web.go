package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"suncal/internal/config"
	"suncal/internal/ics"
	appLog "suncal/internal/log"
	"suncal/internal/model"
	"suncal/internal/suncal"
	"suncal/internal/timeutil"
)

// maxDays bounds days and backfill so one request cannot ask for decades.
const maxDays = 366

// Server serves the configured feeds as JSON and as subscribable .ics
// calendars.
type Server struct {
	mu  sync.RWMutex
	cfg *config.Config

	pipeline *suncal.Pipeline
	router   *mux.Router
	now      func() time.Time

	// Generated feeds keyed by feed and range. Dropped by Refresh and when
	// the configuration changes; entries also expire after cacheTTL.
	cacheMu  sync.Mutex
	cache    map[cacheKey]*feedCache
	cacheTTL time.Duration
}

type cacheKey struct {
	feed     string
	from, to timeutil.Date
}

type feedCache struct {
	events    []model.CalendarEvent
	updatedAt time.Time
}

// NewServer returns a Server for cfg. Routes are registered immediately.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: suncal.New(nil),
		router:   mux.NewRouter(),
		now:      time.Now,
		cache:    make(map[cacheKey]*feedCache),
		cacheTTL: 6 * time.Hour,
	}
	s.registerRoutes()
	return s
}

// SetConfig swaps the configuration and drops every cached feed.
func (s *Server) SetConfig(cfg *config.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.Refresh()
}

func (s *Server) config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Refresh drops the feed cache; the next request recomputes.
func (s *Server) Refresh() {
	s.cacheMu.Lock()
	n := len(s.cache)
	s.cache = make(map[cacheKey]*feedCache)
	s.cacheMu.Unlock()
	appLog.Debug("feed cache cleared", "entries", n)
}

// Handler returns the root http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.basicAuthMiddleware(s.router)
}

// Run serves on cfg.Listen until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen := s.config().Listen
	srv := &http.Server{
		Addr:              listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	s.router.HandleFunc("/api/feeds", s.handleFeeds).Methods(http.MethodGet)
	s.router.HandleFunc("/api/events", s.handleEvents).Methods(http.MethodGet)
	s.router.HandleFunc("/calendar/{feed}.ics", s.handleCalendar).Methods(http.MethodGet, http.MethodHead)
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth
// when credentials are configured.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := s.config().BasicAuth
		// Empty username or password disables auth.
		if r.URL.Path == "/health" || auth == nil || auth.Username == "" || auth.Password == "" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, auth.Username) || !secureCompare(p, auth.Password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="suncal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type feedDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Event string `json:"event"`
	URL   string `json:"url"`
}

func (s *Server) handleFeeds(w http.ResponseWriter, _ *http.Request) {
	cfg := s.config()
	out := make([]feedDTO, 0, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		out = append(out, feedDTO{ID: f.ID, Name: f.Name, Event: f.Event, URL: "/calendar/" + f.ID + ".ics"})
	}
	writeJSON(w, http.StatusOK, out)
}

// eventsResponse is the body of /api/events.
type eventsResponse struct {
	Feed     string          `json:"feed"`
	Name     string          `json:"name"`
	Event    string          `json:"event"`
	Timezone string          `json:"timezone"`
	From     timeutil.Date   `json:"from"`
	To       timeutil.Date   `json:"to"`
	Events   []model.Payload `json:"events"`
}

// handleEvents returns a feed's events as payloads.
//
// GET /api/events?feed=sunrise&days=30&backfill=0
//   - feed:     feed ID (default: the first configured feed)
//   - days:     days from today, today included (default horizon_days)
//   - backfill: past days to include (default backfill_days)
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	cfg := s.config()
	q := r.URL.Query()

	feedID := q.Get("feed")
	if feedID == "" && len(cfg.Feeds) > 0 {
		feedID = cfg.Feeds[0].ID
	}
	feed, ok := cfg.Feed(feedID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown feed")
		return
	}

	days := clampDays(parseIntDefault(q.Get("days"), cfg.HorizonDays), 1)
	backfill := clampDays(parseIntDefault(q.Get("backfill"), cfg.BackfillDays), 0)

	from, to, events, err := s.feedEvents(cfg, feed, days, backfill)
	if err != nil {
		appLog.Error("api events: compute failed", err, "feed", feed.ID)
		writeError(w, http.StatusInternalServerError, "failed to compute events")
		return
	}

	payloads := make([]model.Payload, 0, len(events))
	for _, ev := range events {
		payloads = append(payloads, ev.Payload())
	}
	writeJSON(w, http.StatusOK, eventsResponse{
		Feed:     feed.ID,
		Name:     feed.Name,
		Event:    feed.Event,
		Timezone: cfg.Location.Timezone,
		From:     from,
		To:       to,
		Events:   payloads,
	})
}

// handleCalendar serves a feed as an iCalendar document over the configured
// horizon.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	cfg := s.config()
	feed, ok := cfg.Feed(mux.Vars(r)["feed"])
	if !ok {
		http.NotFound(w, r)
		return
	}

	_, _, events, err := s.feedEvents(cfg, feed, clampDays(cfg.HorizonDays, 1), clampDays(cfg.BackfillDays, 0))
	if err != nil {
		appLog.Error("calendar feed: compute failed", err, "feed", feed.ID)
		http.Error(w, "failed to compute events", http.StatusInternalServerError)
		return
	}

	lines := ics.Encode(ics.CalendarMeta{Name: feed.Name, Timezone: cfg.Location.Timezone}, events)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="`+feed.ID+ics.Ext+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(strings.Join(lines, "\r\n") + "\r\n"))
}

// feedEvents returns the events of feed for [today-backfill, today+days-1]
// in the configured zone, from cache when fresh.
func (s *Server) feedEvents(cfg *config.Config, feed config.FeedConfig, days, backfill int) (from, to timeutil.Date, events []model.CalendarEvent, err error) {
	loc, err := timeutil.LoadLocation(cfg.Location.Timezone)
	if err != nil {
		return from, to, nil, err
	}
	now := s.now()
	today := timeutil.DateOf(now.In(loc))
	from, to = today.AddDays(-backfill), today.AddDays(days-1)
	key := cacheKey{feed: feed.ID, from: from, to: to}

	s.cacheMu.Lock()
	fc := s.cache[key]
	s.cacheMu.Unlock()
	if fc != nil && now.Sub(fc.updatedAt) < s.cacheTTL {
		return from, to, fc.events, nil
	}

	kind, err := suncal.ParseEventKind(feed.Event)
	if err != nil {
		return from, to, nil, err
	}
	events, err = s.pipeline.CreateCalendarEvents(suncal.Request{
		Kind:     kind,
		From:     from,
		To:       to,
		Location: cfg.Location,
	})
	if err != nil {
		return from, to, nil, err
	}

	appLog.Info("feed computed", "feed", feed.ID, "from", from, "to", to, "events", len(events))

	s.cacheMu.Lock()
	s.cache[key] = &feedCache{events: events, updatedAt: now}
	s.cacheMu.Unlock()
	return from, to, events, nil
}

func clampDays(n, lo int) int {
	return max(lo, min(n, maxDays))
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
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
