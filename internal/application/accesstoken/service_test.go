package accesstoken

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-socfony/internal/domain"
	jwtinfra "github.com/go-socfony/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
)

// --- mocks ---

type mockTokenStore struct{ mock.Mock }

func (m *mockTokenStore) Put(ctx context.Context, t *domain.AccessToken) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockTokenStore) Get(ctx context.Context, tokenID string) (*domain.AccessToken, error) {
	args := m.Called(ctx, tokenID)
	if t, _ := args.Get(0).(*domain.AccessToken); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTokenStore) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.AccessToken, error) {
	args := m.Called(ctx, refreshToken)
	if t, _ := args.Get(0).(*domain.AccessToken); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTokenStore) Rotate(ctx context.Context, tokenID, oldRefresh, refreshToken string, expiresAt time.Time, refreshExpiresAt int64) error {
	return m.Called(ctx, tokenID, oldRefresh, refreshToken, expiresAt, refreshExpiresAt).Error(0)
}
func (m *mockTokenStore) Delete(ctx context.Context, tokenID string) error {
	return m.Called(ctx, tokenID).Error(0)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	args := m.Called(ctx, phone)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

type mockVerification struct{ mock.Mock }

func (m *mockVerification) SendPhoneOTP(ctx context.Context, phone string) error {
	return m.Called(ctx, phone).Error(0)
}
func (m *mockVerification) Verify(ctx context.Context, phone, code string) (*domain.VerificationCode, error) {
	args := m.Called(ctx, phone, code)
	if v, _ := args.Get(0).(*domain.VerificationCode); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockVerification) Consume(ctx context.Context, phone string) {
	m.Called(ctx, phone)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(userID, tokenID string, expiresAt time.Time) (string, error) {
	args := m.Called(userID, tokenID, expiresAt)
	return args.String(0), args.Error(1)
}
func (m *mockSigner) Verify(tokenStr string) (*jwtinfra.Claims, error) {
	args := m.Called(tokenStr)
	if c, _ := args.Get(0).(*jwtinfra.Claims); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSigner) Expiry() time.Duration { return time.Hour }

// --- helpers ---

const testPhone = "+8613800138000"

var fixedNow = time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

type fixture struct {
	tokens *mockTokenStore
	users  *mockUserStore
	verif  *mockVerification
	signer *mockSigner
	svc    Service
}

func newFixture() *fixture {
	f := &fixture{
		tokens: new(mockTokenStore),
		users:  new(mockUserStore),
		verif:  new(mockVerification),
		signer: new(mockSigner),
	}
	f.svc = NewService(ServiceDeps{
		Tokens:          f.tokens,
		Users:           f.users,
		Verification:    f.verif,
		Signer:          f.signer,
		RefreshTokenDur: 24 * time.Hour,
		Now:             func() time.Time { return fixedNow },
	})
	return f
}

// --- Create ---

func TestCreate_ExistingUser(t *testing.T) {
	f := newFixture()
	phone := testPhone
	u := &domain.User{UserID: "u1", Phone: &phone}

	f.verif.On("Verify", mock.Anything, testPhone, "123456").Return(&domain.VerificationCode{Phone: testPhone}, nil)
	f.users.On("GetByPhone", mock.Anything, testPhone).Return(u, nil)
	f.tokens.On("Put", mock.Anything, mock.AnythingOfType("*domain.AccessToken")).Return(nil)
	f.signer.On("Sign", "u1", mock.AnythingOfType("string"), fixedNow.Add(time.Hour)).Return("jwt", nil)
	f.verif.On("Consume", mock.Anything, testPhone).Return()

	res, err := f.svc.Create(context.Background(), domain.CreateAccessTokenRequest{Phone: testPhone, OTP: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.Bearer)
	assert.Regexp(t, `^[A-Za-z0-9_-]{64}$`, res.Token.TokenID)
	f.signer.AssertCalled(t, "Sign", "u1", res.Token.TokenID, fixedNow.Add(time.Hour))
	assert.Len(t, res.RefreshToken, 64)
	assert.Equal(t, res.RefreshToken, res.Token.RefreshToken)
	assert.Equal(t, fixedNow.Add(24*time.Hour).Unix(), res.Token.RefreshExpiresAt)
	assert.Same(t, u, res.Token.User)
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.verif.AssertExpectations(t)
}

func TestCreate_NewUserOnFirstLogin(t *testing.T) {
	f := newFixture()
	f.verif.On("Verify", mock.Anything, testPhone, "123456").Return(&domain.VerificationCode{Phone: testPhone}, nil)
	f.users.On("GetByPhone", mock.Anything, testPhone).Return(nil, domain.ErrNotFound)

	var created *domain.User
	f.users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.User) }).
		Return(nil)
	f.tokens.On("Put", mock.Anything, mock.Anything).Return(nil)
	f.signer.On("Sign", mock.Anything, mock.Anything, mock.Anything).Return("jwt", nil)
	f.verif.On("Consume", mock.Anything, testPhone).Return()

	res, err := f.svc.Create(context.Background(), domain.CreateAccessTokenRequest{Phone: testPhone, OTP: "123456"})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, testPhone, *created.Phone)
	assert.Equal(t, created.UserID, res.Token.UserID)
}

func TestCreate_BadOTP(t *testing.T) {
	f := newFixture()
	f.verif.On("Verify", mock.Anything, testPhone, "000000").Return(nil, domain.ErrUnauthorized)

	_, err := f.svc.Create(context.Background(), domain.CreateAccessTokenRequest{Phone: testPhone, OTP: "000000"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	f.tokens.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	f.verif.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything)
}

// --- Verify ---

func TestVerify_Success(t *testing.T) {
	f := newFixture()
	f.signer.On("Verify", "jwt").Return(&jwtinfra.Claims{UserID: "u1", TokenID: "t1"}, nil)
	f.tokens.On("Get", mock.Anything, "t1").Return(&domain.AccessToken{TokenID: "t1", UserID: "u1", ExpiresAt: fixedNow.Add(time.Minute)}, nil)
	f.users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	tok, err := f.svc.Verify(context.Background(), "jwt", true)
	require.NoError(t, err)
	assert.Equal(t, "t1", tok.TokenID)
	require.NotNil(t, tok.User)
	assert.Equal(t, "u1", tok.User.UserID)
}

func TestVerify_WithoutUser(t *testing.T) {
	f := newFixture()
	f.signer.On("Verify", "jwt").Return(&jwtinfra.Claims{UserID: "u1", TokenID: "t1"}, nil)
	f.tokens.On("Get", mock.Anything, "t1").Return(&domain.AccessToken{TokenID: "t1", UserID: "u1", ExpiresAt: fixedNow.Add(time.Minute)}, nil)

	tok, err := f.svc.Verify(context.Background(), "jwt", false)
	require.NoError(t, err)
	assert.Nil(t, tok.User)
	f.users.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestVerify_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{"bad signature", func(f *fixture) {
			f.signer.On("Verify", "jwt").Return(nil, errors.New("bad signature"))
		}},
		{"revoked", func(f *fixture) {
			f.signer.On("Verify", "jwt").Return(&jwtinfra.Claims{UserID: "u1", TokenID: "t1"}, nil)
			f.tokens.On("Get", mock.Anything, "t1").Return(nil, domain.ErrNotFound)
		}},
		{"expired", func(f *fixture) {
			f.signer.On("Verify", "jwt").Return(&jwtinfra.Claims{UserID: "u1", TokenID: "t1"}, nil)
			f.tokens.On("Get", mock.Anything, "t1").Return(&domain.AccessToken{TokenID: "t1", UserID: "u1", ExpiresAt: fixedNow}, nil)
		}},
		{"user mismatch", func(f *fixture) {
			f.signer.On("Verify", "jwt").Return(&jwtinfra.Claims{UserID: "u2", TokenID: "t1"}, nil)
			f.tokens.On("Get", mock.Anything, "t1").Return(&domain.AccessToken{TokenID: "t1", UserID: "u1", ExpiresAt: fixedNow.Add(time.Hour)}, nil)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)
			_, err := f.svc.Verify(context.Background(), "jwt", false)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestVerifyMetadata(t *testing.T) {
	f := newFixture()
	f.signer.On("Verify", "jwt").Return(&jwtinfra.Claims{UserID: "u1", TokenID: "t1"}, nil)
	f.tokens.On("Get", mock.Anything, "t1").Return(&domain.AccessToken{TokenID: "t1", UserID: "u1", ExpiresAt: fixedNow.Add(time.Minute)}, nil)

	tok, err := f.svc.VerifyMetadata(context.Background(), metadata.Pairs("authorization", "Bearer jwt"), false)
	require.NoError(t, err)
	assert.Equal(t, "t1", tok.TokenID)

	_, err = f.svc.VerifyMetadata(context.Background(), metadata.MD{}, false)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.VerifyMetadata(context.Background(), metadata.Pairs("authorization", "Basic abc"), false)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// --- Refresh / Revoke ---

func TestRefresh_Success(t *testing.T) {
	f := newFixture()
	f.tokens.On("GetByRefreshToken", mock.Anything, "old").
		Return(&domain.AccessToken{TokenID: "t1", UserID: "u1", RefreshExpiresAt: fixedNow.Add(time.Hour).Unix()}, nil)
	f.tokens.On("Rotate", mock.Anything, "t1", "old", mock.AnythingOfType("string"), fixedNow.Add(time.Hour), fixedNow.Add(24*time.Hour).Unix()).Return(nil)
	f.signer.On("Sign", "u1", "t1", fixedNow.Add(time.Hour)).Return("jwt2", nil)

	bearer, refresh, err := f.svc.Refresh(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, "jwt2", bearer)
	assert.Len(t, refresh, 64)
	assert.NotEqual(t, "old", refresh)
}

func TestRefresh_Expired(t *testing.T) {
	f := newFixture()
	f.tokens.On("GetByRefreshToken", mock.Anything, "old").
		Return(&domain.AccessToken{TokenID: "t1", UserID: "u1", RefreshExpiresAt: fixedNow.Add(-time.Second).Unix()}, nil)

	_, _, err := f.svc.Refresh(context.Background(), "old")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	f.tokens.AssertNotCalled(t, "Rotate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_AlreadyRotated(t *testing.T) {
	f := newFixture()
	f.tokens.On("GetByRefreshToken", mock.Anything, "old").
		Return(&domain.AccessToken{TokenID: "t1", UserID: "u1", RefreshExpiresAt: fixedNow.Add(time.Hour).Unix()}, nil)
	f.tokens.On("Rotate", mock.Anything, "t1", "old", mock.Anything, mock.Anything, mock.Anything).
		Return(fmt.Errorf("refresh token already rotated: %w", domain.ErrUnauthorized))

	bearer, refresh, err := f.svc.Refresh(context.Background(), "old")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, bearer)
	assert.Empty(t, refresh)
	f.signer.AssertNotCalled(t, "Sign", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_Unknown(t *testing.T) {
	f := newFixture()
	f.tokens.On("GetByRefreshToken", mock.Anything, "nope").Return(nil, domain.ErrNotFound)

	_, _, err := f.svc.Refresh(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRevoke(t *testing.T) {
	f := newFixture()
	f.tokens.On("Delete", mock.Anything, "t1").Return(nil)

	require.NoError(t, f.svc.Revoke(context.Background(), "t1"))
	f.tokens.AssertExpectations(t)
}
