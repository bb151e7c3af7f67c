package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// authorizationMetadataKey is the Authorization header as gRPC metadata.
const authorizationMetadataKey = "authorization"

// publicMethodPrefixes are reachable without a token.
var publicMethodPrefixes = []string{
	"/grpc.health.v1.Health/",
}

func isPublic(fullMethod string) bool {
	for _, p := range publicMethodPrefixes {
		if strings.HasPrefix(fullMethod, p) {
			return true
		}
	}
	return false
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if isPublic(info.FullMethod) {
		return handler(ctx, req)
	}

	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(authorizationMetadataKey)
		if len(values) > 0 {
			header = values[0]
		}
	}

	res := s.gate.Authorize(header)
	if !res.Authorized {
		s.logger.Debug(ctx, "call rejected", "method", info.FullMethod, "reason", string(res.Reason))

		// expired tokens read as invalid to the caller
		msg := common.ErrInvalidToken.Error()
		if res.Reason == auth.ReasonTokenMissing {
			msg = common.ErrTokenMissing.Error()
		}
		return nil, status.Error(codes.Unauthenticated, msg)
	}

	return handler(auth.WithIdentity(ctx, res.Identity), req)
}
