package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/md-ataur/watch-redux-server/services/api/internal/identity"
	"github.com/md-ataur/watch-redux-server/services/api/internal/service"
	"github.com/md-ataur/watch-redux-server/shared/pkg/models"
)

type OrdersHandler struct {
	Orders   *service.OrdersService
	Identity *identity.Verifier
	Log      zerolog.Logger
}

type statusReq struct {
	Status string `json:"status"`
}

// identify verifies the bearer token when the route needs an identity and
// returns an empty Unverified result otherwise, so the external verifier is
// only consulted for gated routes.
func (h *OrdersHandler) identify(r *http.Request, needed bool) identity.Result {
	if !needed {
		return identity.Result{}
	}
	return h.Identity.Verify(r.Context(), r.Header.Get("Authorization"))
}

func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	who := h.identify(r, h.Orders.StrictOwnership)

	var o models.Order
	if err := decode(r, w, &o); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if strings.TrimSpace(o.Email) == "" {
		writeError(w, h.Log, fmt.Errorf("%w: email is required", errBadRequest))
		return
	}
	res, err := h.Orders.Create(r.Context(), who, o)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	who := h.identify(r, h.Orders.AdminOnly)
	out, err := h.Orders.ListAll(r.Context(), who)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ByEmail is POST /orders/byemail: the caller's own orders only.
func (h *OrdersHandler) ByEmail(w http.ResponseWriter, r *http.Request) {
	who := h.identify(r, true)

	var req emailReq
	if err := decode(r, w, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	out, err := h.Orders.ListForPrincipal(r.Context(), who, req.Email)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	who := h.identify(r, h.Orders.AdminOnly)

	var req statusReq
	if err := decode(r, w, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	res, err := h.Orders.UpdateStatus(r.Context(), who, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *OrdersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	who := h.identify(r, h.Orders.AdminOnly)
	res, err := h.Orders.Delete(r.Context(), who, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
