package grpc

import (
	"context"

	"github.com/dmitrijs2005/passvault/internal/protocol"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Dispatch decodes one request, runs it and encodes its response.
// Malformed requests get an in-band failure, not a transport error.
func (s *GRPCServer) Dispatch(ctx context.Context, req *structpb.Struct) (*structpb.Value, error) {
	var resp any

	r, err := protocol.DecodeRequest(req)
	if err != nil {
		resp = protocol.Failure(err.Error())
	} else {
		resp = s.handler.Handle(ctx, r)
	}

	out, err := protocol.EncodeResponse(resp)
	if err != nil {
		s.logger.Error(ctx, "response encoding failed", "type", r.Type, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}
