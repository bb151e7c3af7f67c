package grpc

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// JokesListMethod is the full name of the protected jokes call.
const JokesListMethod = "/authkeeper.v1.Jokes/List"

// JokesServer serves the protected jokes resource. Each list element is a
// struct with "id" and "joke" string fields.
type JokesServer interface {
	List(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
}

type jokesServer struct {
	source func() []services.Joke
}

func (s jokesServer) List(_ context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	jokes := s.source()

	values := make([]*structpb.Value, 0, len(jokes))
	for _, j := range jokes {
		values = append(values, structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				"id":   structpb.NewStringValue(j.ID),
				"joke": structpb.NewStringValue(j.Joke),
			},
		}))
	}

	return &structpb.ListValue{Values: values}, nil
}

func jokesListHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(JokesServer).List(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: JokesListMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(JokesServer).List(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var jokesServiceDesc = grpc.ServiceDesc{
	ServiceName: "authkeeper.v1.Jokes",
	HandlerType: (*JokesServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "List",
			Handler:    jokesListHandler,
		},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterJokes returns a registrar that mounts the jokes service backed by
// source. The service is not in publicMethodPrefixes, so every call passes
// through the gate.
func RegisterJokes(source func() []services.Joke) ServiceRegistrar {
	return func(r grpc.ServiceRegistrar) {
		r.RegisterService(&jokesServiceDesc, jokesServer{source: source})
	}
}
