// Package server wires the authkeeper components together: it opens the
// user store, builds the credential services and runs the HTTP and gRPC
// endpoints until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/gin-gonic/gin"

	gs "github.com/dmitrijs2005/authkeeper/internal/server/grpc"
	hs "github.com/dmitrijs2005/authkeeper/internal/server/http"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repos       repomanager.RepositoryManager
	metrics     *metrics.Metrics
	gate        *auth.Gate
	userService *services.UserService
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)

	if strings.EqualFold(c.LogLevel, "debug") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	rm, err := repomanager.NewRepositoryManager(c.StoreDSN)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	tokens, err := auth.NewTokenService([]byte(c.SecretKey), c.AccessTokenValidityDuration)
	if err != nil {
		rm.Close()
		return nil, fmt.Errorf("token service init error: %w", err)
	}

	m := metrics.New()
	gate := auth.NewGate(tokens, auth.WithObserver(m))
	us := services.NewUserService(rm.Users(), auth.NewBcryptHasher(c.BcryptCost), tokens, m)

	return &App{
		config:      c,
		logger:      logger,
		repos:       rm,
		metrics:     m,
		gate:        gate,
		userService: us,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) func() {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := hs.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.userService, app.gate, app.metrics.Handler())

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server error", "error", err)
		cancelFunc()
	}
}

// newGRPCServer builds the gRPC endpoint with the gated jokes service mounted.
func (app *App) newGRPCServer() *gs.GRPCServer {
	return gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.gate, gs.RegisterJokes(services.Jokes))
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := app.newGRPCServer()

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server error", "error", err)
		cancelFunc()
	}
}

// Run migrates the store and serves until ctx is cancelled, a shutdown
// signal arrives or one of the servers fails. The store is closed on return.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	defer func() {
		if err := app.repos.Close(); err != nil {
			app.logger.Error(ctx, "store close error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting app...", "store", storeKind(app.config.StoreDSN))

	if app.config.UsesDefaultSecret() {
		app.logger.Warn(ctx, "JWT_SECRET is not set, tokens are signed with the built-in development key")
	}

	if err := app.repos.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	stop := app.initSignalHandler(cancelFunc)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.EndpointAddrGRPC != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return nil
}

// storeKind names the backend without leaking credentials from the DSN.
func storeKind(dsn string) string {
	kind, _, found := strings.Cut(dsn, ":")
	if !found || kind == "" {
		return "memory"
	}
	return kind
}
