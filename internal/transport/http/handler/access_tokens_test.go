package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-socfony/internal/application/accesstoken"
	"github.com/go-socfony/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
)

// --- mocks ---

type mockTokenSvc struct{ mock.Mock }

func (m *mockTokenSvc) Create(ctx context.Context, req domain.CreateAccessTokenRequest) (*accesstoken.LoginResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*accesstoken.LoginResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTokenSvc) Verify(ctx context.Context, bearer string, includeUser bool) (*domain.AccessToken, error) {
	args := m.Called(ctx, bearer, includeUser)
	if t, _ := args.Get(0).(*domain.AccessToken); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTokenSvc) VerifyMetadata(ctx context.Context, md metadata.MD, includeUser bool) (*domain.AccessToken, error) {
	args := m.Called(ctx, md, includeUser)
	if t, _ := args.Get(0).(*domain.AccessToken); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTokenSvc) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.String(1), args.Error(2)
}
func (m *mockTokenSvc) Revoke(ctx context.Context, tokenID string) error {
	return m.Called(ctx, tokenID).Error(0)
}

type mockVerificationSvc struct{ mock.Mock }

func (m *mockVerificationSvc) SendPhoneOTP(ctx context.Context, phone string) error {
	return m.Called(ctx, phone).Error(0)
}
func (m *mockVerificationSvc) Verify(ctx context.Context, phone, code string) (*domain.VerificationCode, error) {
	args := m.Called(ctx, phone, code)
	if v, _ := args.Get(0).(*domain.VerificationCode); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockVerificationSvc) Consume(ctx context.Context, phone string) {
	m.Called(ctx, phone)
}

// --- OTP ---

func TestSendPhoneOTP_OK(t *testing.T) {
	tokens, verif := &mockTokenSvc{}, &mockVerificationSvc{}
	verif.On("SendPhoneOTP", mock.Anything, "+8613800138000").Return(nil)
	h := NewAccessTokenHandler(tokens, verif)

	rr := httptest.NewRecorder()
	h.SendPhoneOTP(rr, httptest.NewRequest(http.MethodPost, "/v1/otp/phone", jsonBody(t, map[string]string{"phone": "+8613800138000"})))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
}

func TestSendPhoneOTP_Cooldown(t *testing.T) {
	tokens, verif := &mockTokenSvc{}, &mockVerificationSvc{}
	verif.On("SendPhoneOTP", mock.Anything, "+8613800138000").Return(domain.ErrTooManyRequests)
	h := NewAccessTokenHandler(tokens, verif)

	rr := httptest.NewRecorder()
	h.SendPhoneOTP(rr, httptest.NewRequest(http.MethodPost, "/v1/otp/phone", jsonBody(t, map[string]string{"phone": "+8613800138000"})))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", decodeError(t, rr).ErrorCode)
}

func TestSendPhoneOTP_MissingPhone(t *testing.T) {
	tokens, verif := &mockTokenSvc{}, &mockVerificationSvc{}
	h := NewAccessTokenHandler(tokens, verif)

	rr := httptest.NewRecorder()
	h.SendPhoneOTP(rr, httptest.NewRequest(http.MethodPost, "/v1/otp/phone", jsonBody(t, map[string]string{})))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	verif.AssertNotCalled(t, "SendPhoneOTP", mock.Anything, mock.Anything)
}

// --- login / refresh / revoke ---

func TestCreateAccessToken_OK(t *testing.T) {
	tokens, verif := &mockTokenSvc{}, &mockVerificationSvc{}
	req := domain.CreateAccessTokenRequest{Phone: "+8613800138000", OTP: "123456"}
	tok := &domain.AccessToken{
		TokenID:      "t1",
		UserID:       "u1",
		ExpiresAt:    time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC),
		RefreshToken: "secret",
		User:         &domain.User{UserID: "u1"},
	}
	tokens.On("Create", mock.Anything, req).Return(&accesstoken.LoginResult{Bearer: "jwt", RefreshToken: "secret", Token: tok}, nil)
	h := NewAccessTokenHandler(tokens, verif)

	rr := httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/v1/access-tokens", jsonBody(t, req)))
	require.Equal(t, http.StatusCreated, rr.Code)

	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "jwt", got["bearer"])
	assert.Equal(t, "secret", got["refresh_token"])
	accessToken := got["access_token"].(map[string]interface{})
	assert.Equal(t, "t1", accessToken["id"])
	assert.NotContains(t, accessToken, "refresh_token")
	assert.Equal(t, "u1", got["user"].(map[string]interface{})["id"])
}

func TestCreateAccessToken_BadOTP(t *testing.T) {
	tokens, verif := &mockTokenSvc{}, &mockVerificationSvc{}
	req := domain.CreateAccessTokenRequest{Phone: "+8613800138000", OTP: "000000"}
	tokens.On("Create", mock.Anything, req).Return(nil, domain.ErrUnauthorized)
	h := NewAccessTokenHandler(tokens, verif)

	rr := httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/v1/access-tokens", jsonBody(t, req)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRefreshAccessToken_RejectsMalformed(t *testing.T) {
	tokens, verif := &mockTokenSvc{}, &mockVerificationSvc{}
	h := NewAccessTokenHandler(tokens, verif)

	rr := httptest.NewRecorder()
	h.Refresh(rr, httptest.NewRequest(http.MethodPost, "/v1/access-tokens/refresh", jsonBody(t, map[string]string{"refresh_token": "short"})))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	tokens.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestRevokeAccessToken_UsesCurrentToken(t *testing.T) {
	tokens, verif := &mockTokenSvc{}, &mockVerificationSvc{}
	tokens.On("Revoke", mock.Anything, "tok-u1").Return(nil)
	h := NewAccessTokenHandler(tokens, verif)

	rr := httptest.NewRecorder()
	h.Revoke(rr, asViewer(httptest.NewRequest(http.MethodDelete, "/v1/access-tokens/current", nil), "u1"))
	assert.Equal(t, http.StatusOK, rr.Code)
	tokens.AssertExpectations(t)
}

func TestCurrentAccessToken_Unauthenticated(t *testing.T) {
	h := NewAccessTokenHandler(&mockTokenSvc{}, &mockVerificationSvc{})

	rr := httptest.NewRecorder()
	h.Current(rr, httptest.NewRequest(http.MethodGet, "/v1/access-tokens/current", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
