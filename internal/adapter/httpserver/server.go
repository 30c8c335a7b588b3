package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Server struct {
	http   *http.Server
	logger *slog.Logger
}

type Options struct {
	Addr    string
	Metrics http.Handler
}

// NewRouter builds the gin engine serving api.
func NewRouter(api *API, metrics http.Handler, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	_ = router.SetTrustedProxies(nil)
	router.Use(requestID(), requestLogger(logger), gin.CustomRecovery(recoveryWithLog(logger)))
	api.RegisterRoutes(router)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}
	return router
}

func NewServer(opts Options, api *API, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := NewRouter(api, opts.Metrics, logger)

	// No write timeout: a throughput probe can run for tens of seconds.
	s := &http.Server{
		Addr:              opts.Addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{http: s, logger: logger}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
