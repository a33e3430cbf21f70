// Package httpapi serves the FocusFlow JSON API and the live timer stream.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/xvierd/focusflow/internal/auth"
	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/httpmw"
	"github.com/xvierd/focusflow/internal/services"
)

// Services are the application services behind the API.
type Services struct {
	Auth         *auth.Service
	Timer        *services.TimerService
	Sessions     *services.SessionGateway
	Tasks        *services.TaskService
	Distractions *services.DistractionService
	Analytics    *services.AnalyticsService
	Settings     *services.SettingsService
}

// Options configures the listener.
type Options struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	Compress          bool
	OriginPatterns    []string
	Logger            *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	svc        Services
	logger     *slog.Logger
	handler    http.Handler
	httpServer *http.Server
	opts       Options
}

// New builds the server and its routes.
func New(svc Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:8080"
	}
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = 10 * time.Second
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	srv := &Server{svc: svc, logger: opts.Logger, opts: opts}
	srv.handler = httpmw.Chain(srv.routes(),
		httpmw.WithRequestID,
		httpmw.WithRecover(srv.logger),
		httpmw.WithAccessLog(srv.logger),
	)
	srv.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           srv.handler,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
	}
	return srv
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("GET /healthz", s.handleHealth)

	api.HandleFunc("POST /api/auth/register", s.handleRegister)
	api.HandleFunc("POST /api/auth/login", s.handleLogin)
	api.HandleFunc("POST /api/auth/logout", s.handleLogout)
	api.Handle("GET /api/auth/me", s.authed(s.handleMe))

	api.Handle("GET /api/settings", s.authed(s.handleGetSettings))
	api.Handle("PUT /api/settings", s.authed(s.handleUpdateSettings))

	api.Handle("POST /api/sessions", s.authed(s.handleCreateSession))
	api.Handle("GET /api/sessions", s.authed(s.handleListSessions))
	api.Handle("GET /api/sessions/active", s.authed(s.handleActiveSession))
	api.Handle("PATCH /api/sessions/{id}", s.authed(s.handleUpdateSession))

	api.Handle("POST /api/tasks", s.authed(s.handleCreateTask))
	api.Handle("GET /api/tasks", s.authed(s.handleListTasks))
	api.Handle("GET /api/tasks/{id}", s.authed(s.handleGetTask))
	api.Handle("PATCH /api/tasks/{id}", s.authed(s.handleUpdateTask))
	api.Handle("DELETE /api/tasks/{id}", s.authed(s.handleDeleteTask))

	api.Handle("POST /api/distractions", s.authed(s.handleLogDistraction))
	api.Handle("GET /api/distractions/{sessionId}", s.authed(s.handleListDistractions))

	api.Handle("GET /api/analytics/stats", s.authed(s.handleStats))
	api.Handle("GET /api/analytics/heatmap", s.authed(s.handleHeatmap))

	api.Handle("GET /api/timer", s.authed(s.handleTimerSnapshot))
	api.Handle("GET /api/timer/presets", s.authed(s.handlePresets))
	api.Handle("POST /api/timer/mode", s.authed(s.handleTimerMode))
	api.Handle("POST /api/timer/task", s.authed(s.handleTimerTask))
	api.Handle("POST /api/timer/{command}", s.authed(s.handleTimerCommand))

	var body http.Handler = api
	if s.opts.Compress {
		body = gzhttp.GzipHandler(api)
	}

	// The stream is hijacked by the websocket and must bypass compression.
	root := http.NewServeMux()
	root.Handle("/", body)
	root.Handle("GET /api/timer/stream", s.authed(s.handleTimerStream))
	return root
}

type userHandler func(w http.ResponseWriter, r *http.Request, user *domain.User)

// authed wraps h so it only runs for requests carrying a valid session
// cookie.
func (s *Server) authed(h userHandler) http.Handler {
	return s.svc.Auth.RequireAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		h(w, r, user)
	}))
}

// Serve listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.opts.Addr, err)
	}
	s.logger.Info("http server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
