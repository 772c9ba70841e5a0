package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"

	"github.com/avvvet/idcard-services/internal/cardsvc/apperr"
	"github.com/avvvet/idcard-services/internal/cardsvc/models"
)

type registerCardRequest struct {
	DisplayName string `json:"display_name"`
}

type registerCardResponse struct {
	models.Card
	Existed bool `json:"existed"`
}

// RegisterCard answers 201 for a new card and 200 when a card with the same
// name already existed.
func (h *Handler) RegisterCard(w http.ResponseWriter, r *http.Request) {
	var req registerCardRequest
	if err := h.decode(w, r, &req); err != nil {
		h.CreateError(w, r, err)
		return
	}

	card, existed, err := h.cards.Register(r.Context(), req.DisplayName)
	if err != nil {
		h.CreateError(w, r, err)
		return
	}

	code := http.StatusCreated
	if existed {
		code = http.StatusOK
	}
	h.CreateResponse(w, code, registerCardResponse{Card: *card, Existed: existed})
}

func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.cards.Lookup(r.Context(), chi.URLParam(r, "cardID"))
	if err != nil {
		h.CreateError(w, r, err)
		return
	}
	h.CreateResponse(w, http.StatusOK, card)
}

// GetCardToken mints a fresh QR token for the card. An optional ttl query
// parameter (seconds) overrides the default lifetime.
func (h *Handler) GetCardToken(w http.ResponseWriter, r *http.Request) {
	var ttl time.Duration
	if raw := r.URL.Query().Get("ttl"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			h.CreateError(w, r, apperr.Validation("http.GetCardToken", "ttl must be a positive number of seconds"))
			return
		}
		ttl = time.Duration(secs) * time.Second
	}

	issued, err := h.issuer.Issue(r.Context(), chi.URLParam(r, "cardID"), ttl)
	if err != nil {
		h.CreateError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	h.CreateResponse(w, http.StatusOK, issued)
}
