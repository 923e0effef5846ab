// Package targetsrv is a small login target to point runs at locally.
package targetsrv

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"loginload/internal/loginreq"
)

type Server struct {
	store  UserStore
	logger *zap.Logger
	router *mux.Router
}

func NewServer(store UserStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{store: store, logger: logger, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/login.php", s.handleLogin).Methods(http.MethodPost)

	// Fast Endpoint (10-50ms)
	s.router.HandleFunc("/fast", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(rand.IntN(40)+10) * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Fast response"))
	})

	// Slow Endpoint (1s-2s), for timeouts and queuing
	s.router.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(rand.IntN(1000)+1000) * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Slow response"))
	})

	// Error Endpoint (Random failures)
	s.router.HandleFunc("/error", func(w http.ResponseWriter, r *http.Request) {
		rnd := rand.Float32()
		if rnd < 0.2 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("500 Internal Server Error"))
		} else if rnd < 0.4 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("429 Too Many Requests"))
		} else {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		}
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}
	login := r.PostForm.Get(loginreq.FieldLogin)
	password := r.PostForm.Get(loginreq.FieldPassword)
	if login == "" {
		http.Error(w, "missing login", http.StatusBadRequest)
		return
	}

	ok, err := s.store.Verify(r.Context(), login, password)
	if err != nil {
		s.logger.Error("user lookup failed", zap.String("login", login), zap.Error(err))
		http.Error(w, "Error checking username", http.StatusInternalServerError)
		return
	}
	if !ok {
		s.logger.Debug("login rejected", zap.String("login", login))
		http.Error(w, "Invalid username or password", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Login successful"))
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("target server listening",
			zap.String("addr", addr),
			zap.Strings("endpoints", []string{"/login.php", "/fast", "/slow", "/error"}))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("target server stopped")
		return nil
	}
}
