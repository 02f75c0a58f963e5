package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-socfony/internal/domain"
)

// httpError maps a service error onto a status code and a machine-readable
// error_code and writes it.
func httpError(w http.ResponseWriter, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		status := http.StatusInternalServerError
		if de.Kind == domain.KindUnsupportedMediaType {
			status = http.StatusUnsupportedMediaType
		} else {
			slog.Error("request failed", "kind", de.Kind, "err", err)
		}
		writeError(w, status, string(de.Kind), de.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, domain.ErrTooManyRequests):
		writeError(w, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", err.Error())
	default:
		slog.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}
