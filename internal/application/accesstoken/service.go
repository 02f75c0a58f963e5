package accesstoken

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-socfony/internal/application/verification"
	"github.com/go-socfony/internal/domain"
	jwtinfra "github.com/go-socfony/internal/infrastructure/jwt"
	"github.com/go-socfony/internal/pkg/id"
	pkgtoken "github.com/go-socfony/internal/pkg/token"
	"google.golang.org/grpc/metadata"
)

type tokenStore interface {
	Put(ctx context.Context, t *domain.AccessToken) error
	Get(ctx context.Context, tokenID string) (*domain.AccessToken, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.AccessToken, error)
	// Rotate fails with ErrUnauthorized once oldRefresh has been replaced.
	Rotate(ctx context.Context, tokenID, oldRefresh, refreshToken string, expiresAt time.Time, refreshExpiresAt int64) error
	Delete(ctx context.Context, tokenID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

// jwtSigner issues and checks bearer JWTs; *jwtinfra.Provider satisfies it.
type jwtSigner interface {
	Sign(userID, tokenID string, expiresAt time.Time) (string, error)
	Verify(tokenStr string) (*jwtinfra.Claims, error)
	Expiry() time.Duration
}

type LoginResult struct {
	Bearer       string
	RefreshToken string
	Token        *domain.AccessToken
}

type Service interface {
	// Create logs in with a phone OTP, creating the account on first use.
	Create(ctx context.Context, req domain.CreateAccessTokenRequest) (*LoginResult, error)
	Verify(ctx context.Context, bearer string, includeUser bool) (*domain.AccessToken, error)
	VerifyMetadata(ctx context.Context, md metadata.MD, includeUser bool) (*domain.AccessToken, error)
	Refresh(ctx context.Context, refreshToken string) (bearer, newRefreshToken string, err error)
	Revoke(ctx context.Context, tokenID string) error
}

type ServiceDeps struct {
	Tokens          tokenStore
	Users           userStore
	Verification    verification.Service
	Signer          jwtSigner
	RefreshTokenDur time.Duration
	Now             func() time.Time
}

type service struct {
	tokens          tokenStore
	users           userStore
	verification    verification.Service
	signer          jwtSigner
	refreshTokenDur time.Duration
	now             func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tokens:          deps.Tokens,
		users:           deps.Users,
		verification:    deps.Verification,
		signer:          deps.Signer,
		refreshTokenDur: deps.RefreshTokenDur,
		now:             now,
	}
}

var errInvalidCredential = fmt.Errorf("invalid or expired access token: %w", domain.ErrUnauthorized)

func (s *service) Create(ctx context.Context, req domain.CreateAccessTokenRequest) (*LoginResult, error) {
	v, err := s.verification.Verify(ctx, req.Phone, req.OTP)
	if err != nil {
		return nil, err
	}
	u, err := s.findOrCreateUser(ctx, v.Phone)
	if err != nil {
		return nil, err
	}

	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	tokenID, err := id.Long()
	if err != nil {
		return nil, fmt.Errorf("generate token id: %w", err)
	}
	now := s.now().UTC()
	t := &domain.AccessToken{
		TokenID:          tokenID,
		UserID:           u.UserID,
		ExpiresAt:        now.Add(s.signer.Expiry()),
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
	}
	if err := s.tokens.Put(ctx, t); err != nil {
		return nil, err
	}
	bearer, err := s.signer.Sign(u.UserID, t.TokenID, t.ExpiresAt)
	if err != nil {
		return nil, err
	}
	s.verification.Consume(ctx, v.Phone)

	t.User = u
	return &LoginResult{Bearer: bearer, RefreshToken: refreshToken, Token: t}, nil
}

func (s *service) findOrCreateUser(ctx context.Context, phone string) (*domain.User, error) {
	u, err := s.users.GetByPhone(ctx, phone)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	now := s.now().UTC()
	u = &domain.User{
		UserID:    id.New(),
		Phone:     &phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Verify(ctx context.Context, bearer string, includeUser bool) (*domain.AccessToken, error) {
	claims, err := s.signer.Verify(bearer)
	if err != nil {
		return nil, errInvalidCredential
	}
	t, err := s.tokens.Get(ctx, claims.TokenID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errInvalidCredential
	}
	if err != nil {
		return nil, err
	}
	if t.UserID != claims.UserID || !t.ExpiresAt.After(s.now()) {
		return nil, errInvalidCredential
	}
	if includeUser {
		u, err := s.users.Get(ctx, t.UserID)
		if err != nil {
			return nil, err
		}
		t.User = u
	}
	return t, nil
}

func (s *service) VerifyMetadata(ctx context.Context, md metadata.MD, includeUser bool) (*domain.AccessToken, error) {
	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, fmt.Errorf("missing authorization metadata: %w", domain.ErrUnauthorized)
	}
	bearer, ok := pkgtoken.FromAuthorization(values[0])
	if !ok {
		return nil, fmt.Errorf("malformed authorization metadata: %w", domain.ErrUnauthorized)
	}
	return s.Verify(ctx, bearer, includeUser)
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	t, err := s.tokens.GetByRefreshToken(ctx, refreshToken)
	if errors.Is(err, domain.ErrNotFound) {
		return "", "", fmt.Errorf("invalid or expired refresh token: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return "", "", err
	}
	now := s.now().UTC()
	if t.RefreshExpiresAt < now.Unix() {
		return "", "", fmt.Errorf("invalid or expired refresh token: %w", domain.ErrUnauthorized)
	}

	newRefresh, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	expiresAt := now.Add(s.signer.Expiry())
	if err := s.tokens.Rotate(ctx, t.TokenID, refreshToken, newRefresh, expiresAt, now.Add(s.refreshTokenDur).Unix()); err != nil {
		return "", "", err
	}
	bearer, err := s.signer.Sign(t.UserID, t.TokenID, expiresAt)
	if err != nil {
		return "", "", err
	}
	return bearer, newRefresh, nil
}

func (s *service) Revoke(ctx context.Context, tokenID string) error {
	return s.tokens.Delete(ctx, tokenID)
}
