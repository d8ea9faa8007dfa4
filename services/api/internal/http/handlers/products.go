package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/md-ataur/watch-redux-server/services/api/internal/service"
	"github.com/md-ataur/watch-redux-server/shared/pkg/models"
)

type ProductsHandler struct {
	Products *service.ProductsService
	Log      zerolog.Logger
}

func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if err := decode(r, w, &p); err != nil {
		writeError(w, h.Log, err)
		return
	}
	res, err := h.Products.Create(r.Context(), p)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.Products.List(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.Products.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
