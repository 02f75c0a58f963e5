package grpcapi

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/go-socfony/internal/application/accesstoken"
	"github.com/go-socfony/internal/application/storage"
	"github.com/go-socfony/internal/application/user"
	"github.com/go-socfony/internal/domain"
	"github.com/go-socfony/internal/pkg/validate"
)

// Server implements the user and storage gRPC services. Every method requires
// a bearer credential in the "authorization" metadata.
type Server struct {
	tokens  accesstoken.Service
	users   user.Service
	storage storage.Service
	logger  *slog.Logger
}

func NewServer(tokens accesstoken.Service, users user.Service, storage storage.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{tokens: tokens, users: users, storage: storage, logger: logger}
}

func (s *Server) UpdatePhone(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	t, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	req := domain.UpdatePhoneRequest{
		Phone: stringField(in, "phone"),
		Code:  stringField(in, "code"),
	}
	if old := stringField(in, "old_phone_code"); old != "" {
		req.OldPhoneCode = &old
	}
	if err := validate.Struct(req); err != nil {
		return nil, mapDomainError(fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest))
	}

	u, err := s.users.UpdatePhone(ctx, t.UserID, req)
	if err != nil {
		return nil, mapDomainError(err)
	}
	return userStruct(u)
}

func (s *Server) UpdateName(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	t, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.users.UpdateUsername(ctx, t.UserID, in.GetValue())
	if err != nil {
		return nil, mapDomainError(err)
	}
	return userStruct(u)
}

func (s *Server) CreateUploadIntent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	t, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	size, err := intField(in, "size")
	if err != nil {
		return nil, mapDomainError(err)
	}
	req := domain.CreateUploadIntentRequest{
		MD5:      stringField(in, "md5"),
		Size:     size,
		MimeType: stringField(in, "mime_type"),
	}
	if err := validate.Struct(req); err != nil {
		return nil, mapDomainError(fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest))
	}

	intent, err := s.storage.CreateUploadIntent(ctx, t.UserID, req)
	if err != nil {
		return nil, mapDomainError(err)
	}
	out, err := structpb.NewStruct(map[string]any{
		"id":      intent.ID,
		"url":     intent.URL,
		"headers": intent.Headers,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return out, nil
}

func (s *Server) ResolveDownloadURL(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	if _, err := s.authenticate(ctx); err != nil {
		return nil, err
	}

	location := stringField(in, "location")
	if location == "" {
		return nil, mapDomainError(fmt.Errorf("location is required: %w", domain.ErrBadRequest))
	}
	signed, err := s.storage.ResolveDownloadURL(ctx, location, stringField(in, "query"))
	if err != nil {
		return nil, mapDomainError(err)
	}
	return wrapperspb.String(signed), nil
}

func (s *Server) authenticate(ctx context.Context) (*domain.AccessToken, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	t, err := s.tokens.VerifyMetadata(ctx, md, false)
	if err != nil {
		return nil, mapDomainError(err)
	}
	return t, nil
}

func stringField(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

func intField(in *structpb.Struct, key string) (int64, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return 0, fmt.Errorf("%s is required: %w", key, domain.ErrBadRequest)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > 1<<53 {
		return 0, fmt.Errorf("%s must be an integer: %w", key, domain.ErrBadRequest)
	}
	return int64(n.NumberValue), nil
}

// userStruct renders the caller's own account, contact details included.
func userStruct(u *domain.User) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]any{
		"id":       u.UserID,
		"username": optional(u.Username),
		"phone":    optional(u.Phone),
		"email":    optional(u.Email),
		"created":  u.CreatedAt.UTC().Format(time.RFC3339),
		"updated":  u.UpdatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return out, nil
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
