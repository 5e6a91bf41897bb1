package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/contractai/backend/pkg/billing"
	"github.com/contractai/backend/pkg/ledger"
)

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "email")
	email, err := url.PathUnescape(raw)
	if err != nil {
		email = raw
	}

	email = ledger.NormalizeEmail(email)
	if email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	credits, err := s.config.Ledger.Balance(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error reading balance")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"email":   email,
		"credits": credits,
	})
}

func (s *Server) handlePaymentLink(w http.ResponseWriter, r *http.Request) {
	if s.config.Dodo == nil {
		writeError(w, http.StatusInternalServerError, "Payment link not configured")
		return
	}

	query := r.URL.Query()

	quantity := 1
	if raw := query.Get("quantity"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			quantity = n
		}
	}

	link, err := s.config.Dodo.CheckoutURL(r.Context(), billing.CheckoutOptions{
		Quantity:         quantity,
		RedirectURL:      query.Get("redirect_url"),
		Email:            query.Get("email"),
		FirstName:        query.Get("firstName"),
		LastName:         query.Get("lastName"),
		DisableEmail:     query.Get("disableEmail"),
		DisableFirstName: query.Get("disableFirstName"),
		DisableLastName:  query.Get("disableLastName"),
		ShowDiscounts:    query.Get("showDiscounts"),
	})
	if err != nil {
		s.config.Logger.Error("building payment link failed",
			ledger.Field{Key: "error", Value: err.Error()})
		if errors.Is(err, billing.ErrMissingRedirectURL) {
			writeError(w, http.StatusInternalServerError, "redirect_url is required but not provided")
			return
		}
		writeError(w, http.StatusInternalServerError, "Payment link not configured")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"paymentLink": link})
}
