// Package http exposes the credential operations and the protected jokes
// resource over a gin router.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// Credentials is the subset of services.UserService the handlers need.
type Credentials interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
}

// Authorizer admits or rejects a request by its Authorization header.
type Authorizer interface {
	Authorize(header string) auth.AuthResult
}

type HTTPServer struct {
	address string
	logger  logging.Logger
	users   Credentials
	gate    Authorizer
	metrics http.Handler
	engine  *gin.Engine
}

// NewHTTPServer builds the router. metrics may be nil, in which case
// /metrics is not mounted.
func NewHTTPServer(a string, l logging.Logger, us Credentials, g Authorizer, metrics http.Handler) *HTTPServer {
	s := &HTTPServer{
		address: a,
		logger:  l.With("module", "http_server"),
		users:   us,
		gate:    g,
		metrics: metrics,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the router, mostly for httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Recovery(s.logger), RequestLogger(s.logger))

	r.GET("/healthz", s.healthz)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}

	api := r.Group("/api")
	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)
	api.GET("/jokes", RequireAuth(s.gate, s.logger), s.jokes)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve serves on listen until ctx is cancelled. It returns only after
// in-flight requests have drained or shutdownTimeout has passed.
func (s *HTTPServer) Serve(ctx context.Context, listen net.Listener) error {

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	// Serve returns ErrServerClosed as soon as Shutdown starts.
	<-stopped
	return nil
}
