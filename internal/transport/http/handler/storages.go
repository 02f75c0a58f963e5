package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-socfony/internal/application/storage"
	"github.com/go-socfony/internal/domain"
	"github.com/go-socfony/internal/transport/http/middleware"
)

// StorageHandler brokers signed object-store URLs.
type StorageHandler struct {
	svc storage.Service
}

func NewStorageHandler(svc storage.Service) *StorageHandler { return &StorageHandler{svc: svc} }

func (h *StorageHandler) CreateUploadIntent(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUploadIntentRequest
	if err := decodeBody(r, &req); err != nil {
		httpError(w, err)
		return
	}
	intent, err := h.svc.CreateUploadIntent(r.Context(), middleware.ViewerID(r.Context()), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, intent)
}

// Get returns the storage record and a GET URL; ?query= carries the
// key=value overrides to sign into it.
func (h *StorageHandler) Get(w http.ResponseWriter, r *http.Request) {
	obj, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	url, err := h.svc.ResolveDownloadURL(r.Context(), obj.Location, r.URL.Query().Get("query"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StorageEnvelope{StorageObject: obj, URL: url})
}
