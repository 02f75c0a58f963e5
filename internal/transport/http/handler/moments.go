package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-socfony/internal/application/moment"
	"github.com/go-socfony/internal/domain"
	"github.com/go-socfony/internal/transport/http/middleware"
)

// MomentHandler handles moments, likes and comments.
type MomentHandler struct {
	svc moment.Service
}

func NewMomentHandler(svc moment.Service) *MomentHandler { return &MomentHandler{svc: svc} }

func (h *MomentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	moments, next, err := h.svc.List(r.Context(), domain.MomentQuery{
		UserID: q.Get("user_id"),
		Title:  q.Get("title"),
		Take:   queryInt(r, "take"),
		Cursor: q.Get("cursor"),
	})
	if err != nil {
		httpError(w, err)
		return
	}
	views, err := h.views(r.Context(), moments)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MomentPageEnvelope{Data: views, NextCursor: next})
}

func (h *MomentHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	views, err := h.views(r.Context(), []domain.Moment{*m})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views[0])
}

func (h *MomentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMomentRequest
	if err := decodeBody(r, &req); err != nil {
		httpError(w, err)
		return
	}
	m, err := h.svc.Create(r.Context(), middleware.ViewerID(r.Context()), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MomentView{Moment: m})
}

func (h *MomentHandler) Like(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Like(r.Context(), middleware.ViewerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MomentView{Moment: m, Liked: true})
}

func (h *MomentHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Unlike(r.Context(), middleware.ViewerID(r.Context()), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *MomentHandler) LikedUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.LikedUsers(r.Context(), chi.URLParam(r, "id"), queryInt(r, "take"), queryInt(r, "skip"))
	if err != nil {
		httpError(w, err)
		return
	}
	viewer := middleware.ViewerID(r.Context())
	out := make([]*domain.User, len(users))
	for i := range users {
		out[i] = userView(&users[i], viewer)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *MomentHandler) Comments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.Comments(r.Context(), chi.URLParam(r, "id"), queryInt(r, "take"), queryInt(r, "skip"))
	if err != nil {
		httpError(w, err)
		return
	}
	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.UserID
	}
	authors, err := h.svc.Authors(r.Context(), ids)
	if err != nil {
		httpError(w, err)
		return
	}
	viewer := middleware.ViewerID(r.Context())
	out := make([]CommentView, len(comments))
	for i := range comments {
		out[i] = CommentView{Comment: &comments[i], User: userView(authors[comments[i].UserID], viewer)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *MomentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCommentRequest
	if err := decodeBody(r, &req); err != nil {
		httpError(w, err)
		return
	}
	c, err := h.svc.CreateComment(r.Context(), middleware.ViewerID(r.Context()), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CommentView{Comment: c})
}

func (h *MomentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteComment(r.Context(), middleware.ViewerID(r.Context()), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// views resolves authors in one batch and the viewer's like state per moment.
func (h *MomentHandler) views(ctx context.Context, moments []domain.Moment) ([]MomentView, error) {
	ids := make([]string, len(moments))
	for i, m := range moments {
		ids[i] = m.UserID
	}
	authors, err := h.svc.Authors(ctx, ids)
	if err != nil {
		return nil, err
	}
	viewer := middleware.ViewerID(ctx)
	out := make([]MomentView, len(moments))
	for i := range moments {
		liked, err := h.svc.Liked(ctx, viewer, moments[i].MomentID)
		if err != nil {
			return nil, err
		}
		out[i] = MomentView{
			Moment: &moments[i],
			User:   userView(authors[moments[i].UserID], viewer),
			Liked:  liked,
		}
	}
	return out, nil
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
