package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/md-ataur/watch-redux-server/services/api/internal/payment"
)

type PaymentsHandler struct {
	Payments *payment.Translator
	Log      zerolog.Logger
}

type paymentReq struct {
	TotalPrice float64 `json:"totalPrice"`
}

type paymentResp struct {
	ClientSecret string `json:"clientSecret"`
}

// CreateIntent is POST /create-payment-intent. It is not auth-gated.
func (h *PaymentsHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req paymentReq
	if err := decode(r, w, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	secret, err := h.Payments.CreatePaymentIntent(r.Context(), req.TotalPrice)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResp{ClientSecret: secret})
}
