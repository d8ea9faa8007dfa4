package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/md-ataur/watch-redux-server/services/api/internal/identity"
	"github.com/md-ataur/watch-redux-server/services/api/internal/service"
	"github.com/md-ataur/watch-redux-server/shared/pkg/models"
)

type UsersHandler struct {
	Users    *service.UsersService
	Identity *identity.Verifier
	Log      zerolog.Logger
}

type emailReq struct {
	Email string `json:"email"`
}

type adminResp struct {
	Admin bool `json:"admin"`
}

func decodeProfile(w http.ResponseWriter, r *http.Request) (models.UserProfile, error) {
	var p models.UserProfile
	if err := decode(r, w, &p); err != nil {
		return p, err
	}
	if strings.TrimSpace(p.Email) == "" {
		return p, fmt.Errorf("%w: email is required", errBadRequest)
	}
	return p, nil
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := decodeProfile(w, r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	res, err := h.Users.Create(r.Context(), p)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *UsersHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	p, err := decodeProfile(w, r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	res, err := h.Users.Upsert(r.Context(), p)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Promote is PUT /users/admin. The caller's identity comes from the bearer
// token; the body names the user to promote.
func (h *UsersHandler) Promote(w http.ResponseWriter, r *http.Request) {
	who := h.Identity.Verify(r.Context(), r.Header.Get("Authorization"))

	var req emailReq
	if err := decode(r, w, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	res, err := h.Users.PromoteToAdmin(r.Context(), who, req.Email)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *UsersHandler) AdminStatus(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, h.Log, fmt.Errorf("%w: malformed email in path", errBadRequest))
		return
	}
	admin, err := h.Users.IsAdmin(r.Context(), email)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, adminResp{Admin: admin})
}
