// Package grpc runs the gRPC endpoint. Every registered method sits behind
// the authorization gate except the standard health service.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Authorizer admits or rejects a call by its authorization metadata.
type Authorizer interface {
	Authorize(header string) auth.AuthResult
}

// ServiceRegistrar attaches additional (gated) services to the server.
type ServiceRegistrar func(grpc.ServiceRegistrar)

type GRPCServer struct {
	address    string
	logger     logging.Logger
	gate       Authorizer
	registrars []ServiceRegistrar
}

func NewGRPCServer(a string, l logging.Logger, g Authorizer, registrars ...ServiceRegistrar) *GRPCServer {
	return &GRPCServer{
		address:    a,
		logger:     l.With("module", "grpc_server"),
		gate:       g,
		registrars: registrars,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {

	// creates gRPC-server
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	for _, register := range s.registrars {
		register(srv)
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
