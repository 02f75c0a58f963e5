package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-socfony/internal/application/user"
	"github.com/go-socfony/internal/domain"
	"github.com/go-socfony/internal/transport/http/middleware"
)

// UserHandler handles account endpoints.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userView(u, middleware.ViewerID(r.Context())))
}

// Find resolves ?username=, ?phone= or ?email= (exactly one).
func (h *UserHandler) Find(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	u, err := h.svc.FindUnique(r.Context(), domain.UserWhereUnique{
		ID:       q.Get("id"),
		Email:    q.Get("email"),
		Phone:    q.Get("phone"),
		Username: q.Get("username"),
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userView(u, middleware.ViewerID(r.Context())))
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), middleware.ViewerID(r.Context()))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateUsernameRequest
	if err := decodeBody(r, &req); err != nil {
		httpError(w, err)
		return
	}
	u, err := h.svc.UpdateUsername(r.Context(), middleware.ViewerID(r.Context()), req.Username)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) UpdatePhone(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdatePhoneRequest
	if err := decodeBody(r, &req); err != nil {
		httpError(w, err)
		return
	}
	u, err := h.svc.UpdatePhone(r.Context(), middleware.ViewerID(r.Context()), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
