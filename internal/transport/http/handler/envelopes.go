package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-socfony/internal/domain"
	"github.com/go-socfony/internal/pkg/validate"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

// AuthEnvelope wraps login and refresh responses.
type AuthEnvelope struct {
	Bearer       string              `json:"bearer"`
	RefreshToken string              `json:"refresh_token"`
	AccessToken  *domain.AccessToken `json:"access_token,omitempty"`
	User         *domain.User        `json:"user,omitempty"`
}

// MomentView is a moment with its resolved author and the viewer's like state.
type MomentView struct {
	*domain.Moment
	User  *domain.User `json:"user,omitempty"`
	Liked bool         `json:"liked"`
}

// CommentView is a comment with its resolved author.
type CommentView struct {
	*domain.Comment
	User *domain.User `json:"user,omitempty"`
}

type MomentPageEnvelope struct {
	Data       []MomentView `json:"data"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// StorageEnvelope is a storage record plus a signed download URL.
type StorageEnvelope struct {
	*domain.StorageObject
	URL string `json:"url"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, ErrorCode: code})
}

// decodeBody decodes the JSON body into dst and runs its validate tags.
func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", domain.ErrBadRequest)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	return nil
}

// userView hides contact details unless the viewer owns the account.
func userView(u *domain.User, viewerID string) *domain.User {
	if u == nil || u.UserID == viewerID {
		return u
	}
	return u.Public()
}
