package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/models"
	"github.com/dmitrijs2005/passvault/internal/protocol"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ Client = (*GRPCClient)(nil)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	accessToken string
	timeout     time.Duration
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.accessToken != "" {
		ctx = withAccessToken(ctx, s.accessToken)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient connects lazily to endpointURL. Extra dial options are
// appended after the defaults (insecure local transport, token interceptor).
func NewGRPCClient(endpointURL, accessToken string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken, timeout: timeout}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

// do sends req and decodes the response into out.
func (s *GRPCClient) do(ctx context.Context, req protocol.Request, out any) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	in, err := protocol.EncodeRequest(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	resp := &structpb.Value{}
	if err := s.conn.Invoke(ctx, protocol.DispatchMethod, in, resp); err != nil {
		return s.mapError(err)
	}

	if err := protocol.DecodeResponse(resp, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func rejected(r protocol.Result) error {
	if r.Success {
		return nil
	}
	return &RejectedError{Message: r.Error}
}

func (s *GRPCClient) Status(ctx context.Context) (models.LockStatus, error) {
	var resp protocol.LockStateResponse
	if err := s.do(ctx, protocol.Request{Type: protocol.CheckLockState}, &resp); err != nil {
		return models.LockStatus{}, err
	}
	return models.LockStatus{Setup: resp.Setup, Unlocked: resp.Unlocked}, nil
}

func (s *GRPCClient) simple(ctx context.Context, req protocol.Request) error {
	var resp protocol.Result
	if err := s.do(ctx, req, &resp); err != nil {
		return err
	}
	return rejected(resp)
}

func (s *GRPCClient) Setup(ctx context.Context, password string) error {
	return s.simple(ctx, protocol.Request{Type: protocol.SetMasterPassword, Password: password})
}

func (s *GRPCClient) Unlock(ctx context.Context, password string) error {
	return s.simple(ctx, protocol.Request{Type: protocol.UnlockVault, Password: password})
}

func (s *GRPCClient) Lock(ctx context.Context) error {
	return s.simple(ctx, protocol.Request{Type: protocol.LockVault})
}

// ChangeMasterPassword returns the IDs of records left under the old key.
func (s *GRPCClient) ChangeMasterPassword(ctx context.Context, oldPassword, newPassword string) ([]string, error) {
	var resp protocol.ChangePasswordResponse
	req := protocol.Request{Type: protocol.ChangeMasterPassword, OldPassword: oldPassword, NewPassword: newPassword}
	if err := s.do(ctx, req, &resp); err != nil {
		return nil, err
	}
	return resp.Degraded, rejected(resp.Result)
}

func (s *GRPCClient) GetCredentials(ctx context.Context, domain string) (protocol.CredentialsResponse, error) {
	var resp protocol.CredentialsResponse
	if err := s.do(ctx, protocol.Request{Type: protocol.GetCredentials, Domain: domain}, &resp); err != nil {
		return resp, err
	}
	// No matches is answered with success=false and no message.
	if !resp.Success && resp.Error == "" {
		return resp, nil
	}
	return resp, rejected(resp.Result)
}

func (s *GRPCClient) DecryptPassword(ctx context.Context, id string) (string, error) {
	var resp protocol.PasswordResponse
	if err := s.do(ctx, protocol.Request{Type: protocol.DecryptPassword, ID: id}, &resp); err != nil {
		return "", err
	}
	return resp.Password, rejected(resp.Result)
}

func (s *GRPCClient) SaveCandidate(ctx context.Context, candidate models.PendingSaveCandidate) error {
	return s.simple(ctx, protocol.Request{Type: protocol.SaveCandidate, Payload: &candidate})
}

// PendingSave returns the pending candidate or nil.
func (s *GRPCClient) PendingSave(ctx context.Context) (*models.PendingSaveCandidate, error) {
	var resp *models.PendingSaveCandidate
	if err := s.do(ctx, protocol.Request{Type: protocol.CheckPendingSave}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ConfirmSave stores candidate and returns the record id.
func (s *GRPCClient) ConfirmSave(ctx context.Context, candidate models.PendingSaveCandidate) (string, error) {
	var resp protocol.SaveResponse
	if err := s.do(ctx, protocol.Request{Type: protocol.ConfirmSave, Payload: &candidate}, &resp); err != nil {
		return "", err
	}
	return resp.ID, rejected(resp.Result)
}

func (s *GRPCClient) ClearCandidate(ctx context.Context) error {
	return s.simple(ctx, protocol.Request{Type: protocol.ClearCandidate})
}

func (s *GRPCClient) List(ctx context.Context) ([]models.CredentialRecord, error) {
	var resp protocol.ListResponse
	if err := s.do(ctx, protocol.Request{Type: protocol.ListCredentials}, &resp); err != nil {
		return nil, err
	}
	return resp.Records, rejected(resp.Result)
}

func (s *GRPCClient) Delete(ctx context.Context, id string) (bool, error) {
	var resp protocol.DeleteResponse
	if err := s.do(ctx, protocol.Request{Type: protocol.DeleteCredential, ID: id}, &resp); err != nil {
		return false, err
	}
	return resp.Deleted, rejected(resp.Result)
}

func (s *GRPCClient) GeneratePassword(ctx context.Context, length int) (string, error) {
	var resp protocol.PasswordResponse
	if err := s.do(ctx, protocol.Request{Type: protocol.GeneratePassword, Length: length}, &resp); err != nil {
		return "", err
	}
	return resp.Password, rejected(resp.Result)
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
