package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/md-ataur/watch-redux-server/services/api/internal/authz"
	"github.com/md-ataur/watch-redux-server/services/api/internal/payment"
	"github.com/md-ataur/watch-redux-server/services/api/internal/store"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

type messageResp struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResp{Message: msg})
}

// decode reads exactly one JSON object into dst. Unknown fields are an
// error, so a client cannot smuggle in fields such as role.
func decode(r *http.Request, w http.ResponseWriter, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON body", errBadRequest)
	}
	return nil
}

// writeError maps workflow errors to responses. Authorization failures of
// any kind are 401 with a message body.
func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var (
		denied *authz.DeniedError
		gwErr  *payment.GatewayError
	)
	switch {
	case errors.As(err, &denied):
		if denied.Reason == authz.ReasonForbidden {
			writeMessage(w, http.StatusUnauthorized, "You are not authorized")
			return
		}
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, errBadRequest):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrInvalidID):
		writeMessage(w, http.StatusBadRequest, "invalid id")
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrDuplicate):
		writeMessage(w, http.StatusConflict, "already exists")
	case errors.As(err, &gwErr):
		if errors.Is(err, payment.ErrInvalidAmount) {
			writeMessage(w, http.StatusBadGateway, "payment gateway rejected the amount")
			return
		}
		writeMessage(w, http.StatusBadGateway, "payment gateway error")
	default:
		log.Error().Err(err).Msg("request failed")
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}
