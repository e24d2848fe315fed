package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	wordpipeline "ccdemo/contexts/streaming/word-pipeline"
	domainerrors "ccdemo/contexts/streaming/word-pipeline/domain/errors"
	httptransport "ccdemo/contexts/streaming/word-pipeline/transport/http"
	_ "ccdemo/internal/platform/httpserver/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

const shutdownTimeout = 5 * time.Second

// RequestObserver records request latency by route pattern and status.
type RequestObserver interface {
	ObserveHTTPRequest(route string, status int, elapsed time.Duration)
}

type Server struct {
	mux      *http.ServeMux
	handler  http.Handler
	logger   *slog.Logger
	addr     string
	words    wordpipeline.Module
	observer RequestObserver
}

type Options struct {
	Addr string
	// Metrics, when set, is mounted at /metrics.
	Metrics  http.Handler
	Observer RequestObserver
	Logger   *slog.Logger
}

func New(words wordpipeline.Module, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		words:    words,
		observer: opts.Observer,
	}
	s.registerRoutes(opts.Metrics)
	s.handler = s.logRequests(s.mux)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", listener.Addr().String(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http server stopped",
		"event", "http_server_stopped",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	return nil
}

func (s *Server) registerRoutes(metricsHandler http.Handler) {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET "+httptransport.WordsPath, s.handleListWords)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if metricsHandler != nil {
		s.mux.Handle("GET /metrics", metricsHandler)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(httptransport.IndexHTML))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleListWords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := httptransport.ListWordsRequest{Limit: 1}

	if cursorRaw := strings.TrimSpace(query.Get("cursor")); cursorRaw != "" {
		cursor, err := strconv.ParseInt(cursorRaw, 10, 64)
		if err != nil {
			writeDomainError(w, fmt.Errorf("%w: %q", domainerrors.ErrInvalidCursor, cursorRaw))
			return
		}
		req.Cursor = &cursor
	}
	if limitRaw := strings.TrimSpace(query.Get("limit")); limitRaw != "" {
		limit, err := strconv.ParseInt(limitRaw, 10, 64)
		if err != nil {
			writeDomainError(w, fmt.Errorf("%w: %q", domainerrors.ErrInvalidLimit, limitRaw))
			return
		}
		req.Limit = limit
	}

	resp, err := s.words.Handler.ListWordsHandler(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := httptransport.RenderRows(w, resp); err != nil {
		s.logger.Error("render rows failed",
			"event", "http_render_rows_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrInvalidCursor):
		writeText(w, http.StatusBadRequest, domainerrors.ErrInvalidCursor.Error())
	case errors.Is(err, domainerrors.ErrInvalidLimit):
		writeText(w, http.StatusBadRequest, domainerrors.ErrInvalidLimit.Error())
	default:
		writeText(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}
