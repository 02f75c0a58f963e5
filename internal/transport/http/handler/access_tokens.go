package handler

import (
	"net/http"

	"github.com/go-socfony/internal/application/accesstoken"
	"github.com/go-socfony/internal/application/verification"
	"github.com/go-socfony/internal/domain"
	"github.com/go-socfony/internal/transport/http/middleware"
)

// AccessTokenHandler handles phone OTP login and token lifecycle endpoints.
type AccessTokenHandler struct {
	svc          accesstoken.Service
	verification verification.Service
}

func NewAccessTokenHandler(svc accesstoken.Service, verification verification.Service) *AccessTokenHandler {
	return &AccessTokenHandler{svc: svc, verification: verification}
}

func (h *AccessTokenHandler) SendPhoneOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.SendPhoneOTPRequest
	if err := decodeBody(r, &req); err != nil {
		httpError(w, err)
		return
	}
	if err := h.verification.SendPhoneOTP(r.Context(), req.Phone); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *AccessTokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAccessTokenRequest
	if err := decodeBody(r, &req); err != nil {
		httpError(w, err)
		return
	}
	res, err := h.svc.Create(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthEnvelope{
		Bearer:       res.Bearer,
		RefreshToken: res.RefreshToken,
		AccessToken:  res.Token,
		User:         res.Token.User,
	})
}

func (h *AccessTokenHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshAccessTokenRequest
	if err := decodeBody(r, &req); err != nil {
		httpError(w, err)
		return
	}
	bearer, refreshToken, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Bearer: bearer, RefreshToken: refreshToken})
}

func (h *AccessTokenHandler) Current(w http.ResponseWriter, r *http.Request) {
	t, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *AccessTokenHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	t, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	if err := h.svc.Revoke(r.Context(), t.TokenID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "access token revoked"})
}
