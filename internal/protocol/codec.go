package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/passvault/internal/common"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// EncodeRequest converts req into the wire struct.
func EncodeRequest(req Request) (*structpb.Struct, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeRequest converts a wire struct into a Request.
func DecodeRequest(in *structpb.Struct) (Request, error) {
	var req Request
	if in == nil {
		return req, fmt.Errorf("%w: empty request", common.ErrInvalidRequest)
	}
	raw, err := protojson.Marshal(in)
	if err != nil {
		return req, fmt.Errorf("%w: %v", common.ErrInvalidRequest, err)
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("%w: %v", common.ErrInvalidRequest, err)
	}
	if req.Type == "" {
		return req, fmt.Errorf("%w: missing type", common.ErrInvalidRequest)
	}
	return req, nil
}

// EncodeResponse converts any JSON-encodable response, including nil,
// into a wire value.
func EncodeResponse(v any) (*structpb.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Value{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeResponse decodes a wire value into out. A null value sets a
// pointer target to nil.
func DecodeResponse(in *structpb.Value, out any) error {
	if in == nil {
		return nil
	}
	raw, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
