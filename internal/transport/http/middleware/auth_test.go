package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-socfony/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) Verify(ctx context.Context, bearer string, includeUser bool) (*domain.AccessToken, error) {
	args := m.Called(ctx, bearer, includeUser)
	if t, _ := args.Get(0).(*domain.AccessToken); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestAuth_MissingHeader(t *testing.T) {
	v := new(mockVerifier)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	Auth(v)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "UNAUTHORIZED", body["error_code"])
	v.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuth_WrongScheme(t *testing.T) {
	v := new(mockVerifier)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rr := httptest.NewRecorder()
	Auth(v)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_RejectedToken(t *testing.T) {
	v := new(mockVerifier)
	v.On("Verify", mock.Anything, "revoked", false).Return(nil, domain.ErrUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer revoked")
	rr := httptest.NewRecorder()
	Auth(v)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_ValidToken_InjectsToken(t *testing.T) {
	v := new(mockVerifier)
	v.On("Verify", mock.Anything, "good", false).Return(&domain.AccessToken{TokenID: "t1", UserID: "u1"}, nil)

	var got *domain.AccessToken
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = TokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer good")
	rr := httptest.NewRecorder()
	Auth(v)(capture).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "t1", got.TokenID)
}

func TestOptionalAuth(t *testing.T) {
	v := new(mockVerifier)
	v.On("Verify", mock.Anything, "good", false).Return(&domain.AccessToken{TokenID: "t1", UserID: "u1"}, nil)
	v.On("Verify", mock.Anything, "bad", false).Return(nil, domain.ErrUnauthorized)

	var viewer string
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer = ViewerID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	for header, want := range map[string]string{"": "", "Bearer bad": "", "Bearer good": "u1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		OptionalAuth(v)(capture).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, want, viewer, header)
	}
}
