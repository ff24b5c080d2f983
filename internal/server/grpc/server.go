package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/passvault/internal/logging"
	"github.com/dmitrijs2005/passvault/internal/protocol"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address   string
	handler   *protocol.Handler
	logger    logging.Logger
	jwtSecret []byte
}

// NewGRPCServer builds the daemon's request channel. An empty secretKey
// disables token checks.
func NewGRPCServer(a string, l logging.Logger, h *protocol.Handler, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		handler:   h,
		jwtSecret: []byte(secretKey),
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	protocol.RegisterDispatchServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
