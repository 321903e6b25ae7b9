package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/semaphore"
	"nhooyr.io/websocket"

	"github.com/odvcencio/crawlterm/pkg/bus"
	"github.com/odvcencio/crawlterm/pkg/logging"
	"github.com/odvcencio/crawlterm/pkg/storage"
	"github.com/odvcencio/crawlterm/pkg/telemetry"
)

const defaultMaxSpectators = 16

// Config configures the debug server.
type Config struct {
	Addr string
	// Spectators enables /ws/watch.
	Spectators    bool
	MaxSpectators int64
	// OriginPatterns are passed to the websocket handshake; empty means
	// same-origin only.
	OriginPatterns []string
}

// StatusFunc reports the live session. It returns false while no
// session is running.
type StatusFunc func() (bus.Status, bool)

// Server is the debug HTTP endpoint.
type Server struct {
	cfg        Config
	hub        *Hub
	store      *storage.Store
	status     StatusFunc
	log        *logging.Logger
	spectators *semaphore.Weighted
	router     chi.Router
}

// NewServer builds the router. store and status may be nil.
func NewServer(cfg Config, hub *Hub, store *storage.Store, status StatusFunc, log *logging.Logger) *Server {
	if cfg.MaxSpectators <= 0 {
		cfg.MaxSpectators = defaultMaxSpectators
	}
	s := &Server{
		cfg:        cfg,
		hub:        hub,
		store:      store,
		status:     status,
		log:        log,
		spectators: semaphore.NewWeighted(cfg.MaxSpectators),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(securityHeadersMiddleware)
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{sessionID}", s.handleSessionDetail)
		r.Get("/sessions/{sessionID}/events", s.handleSessionEvents)
	})
	if cfg.Spectators {
		r.Get("/ws/watch", s.handleWatch)
	}
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	if !isLoopbackBindAddress(s.cfg.Addr) {
		return fmt.Errorf("refusing to bind debug endpoint to %q: only loopback addresses are allowed", s.cfg.Addr)
	}
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		s.log.Info(logging.CategoryNetwork, "debug_listen", "serving debug endpoint", map[string]any{"addr": ln.Addr().String()})
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, errors.New("database unavailable"))
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"time":       time.Now().UTC().Format(time.RFC3339),
		"spectators": s.hub.Spectators(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no session"))
		return
	}
	st, ok := s.status()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, errors.New("no session"))
		return
	}
	st.Spectators = s.hub.Watching(st.SessionID)
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []storage.Session{})
		return
	}
	sessions, err := s.store.ListSessions(queryLimit(r, 20))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleSessionDetail(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	sess, err := s.store.GetSession(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []storage.SessionEvent{})
		return
	}
	events, err := s.store.ListEvents(chi.URLParam(r, "sessionID"), queryLimit(r, 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if events == nil {
		events = []storage.SessionEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// handleWatch streams hub events to a spectator. ?session=<id> limits
// the stream to one session.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	if !s.spectators.TryAcquire(1) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many spectators"))
		return
	}
	defer s.spectators.Release(1)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.cfg.OriginPatterns})
	if err != nil {
		s.log.Warn(logging.CategoryNetwork, "watch_accept_failed", err.Error(), nil)
		return
	}
	// Spectators only listen; CloseRead ends ctx when they hang up.
	ctx := conn.CloseRead(r.Context())

	session := r.URL.Query().Get("session")
	sp := s.hub.join(conn, session)
	defer s.hub.leave(sp)

	s.log.Info(logging.CategoryNetwork, "spectator_joined", "spectator connected", map[string]any{
		"remote":  r.RemoteAddr,
		"session": session,
	})
	err = sp.stream(ctx, pingInterval)
	switch {
	case err == nil:
		conn.Close(websocket.StatusPolicyViolation, "spectator too slow")
	case errors.Is(err, context.Canceled):
		conn.Close(websocket.StatusNormalClosure, "")
	default:
		conn.Close(websocket.StatusInternalError, "write failed")
	}
}
