package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nguyentantai21042004/mockjson/internal/config"
	"github.com/nguyentantai21042004/mockjson/internal/cors"
	"github.com/nguyentantai21042004/mockjson/internal/logger"
	"github.com/nguyentantai21042004/mockjson/internal/router"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	http   *http.Server
	logger logger.Logger
}

// New builds the HTTP server around a gin engine with CORS and request
// logging applied to every route.
func New(cfg *config.Config, rt router.Router, log logger.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: Engine(cfg, rt, log),
		},
		logger: log,
	}
}

// Engine assembles the gin engine; exposed separately so tests can drive
// it with httptest.
func Engine(cfg *config.Config, rt router.Router, log logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(
		gin.Recovery(),
		cors.Middleware(cors.Options{
			Origin:  cfg.CORS.Origin,
			Methods: cfg.CORS.Methods,
			Headers: cfg.CORS.Headers,
		}),
		requestLogger(log),
	)
	rt.Register(e)
	return e
}

// Run serves until the context is cancelled, then drains in-flight
// requests. A bind failure is returned immediately and is fatal.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	s.logger.Info(ctx, "HTTP server listening on %s", s.http.Addr)

	select {
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug(c.Request.Context(), "%s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
