package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/avvvet/idcard-services/internal/cardsvc/apperr"
	"github.com/avvvet/idcard-services/internal/cardsvc/metrics"
	"github.com/avvvet/idcard-services/internal/cardsvc/service"
)

const maxBodyBytes = 64 << 10

type Handler struct {
	cards   *service.CardService
	issuer  *service.TokenIssuer
	scans   *service.ScanService
	metrics *metrics.Metrics
}

func NewHandler(cards *service.CardService, issuer *service.TokenIssuer, scans *service.ScanService, m *metrics.Metrics) *Handler {
	return &Handler{
		cards:   cards,
		issuer:  issuer,
		scans:   scans,
		metrics: m,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

// CreateError maps an error kind to a status code. Store and configuration
// failures are logged in full and answered generically.
func (h *Handler) CreateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case apperr.IsValidation(err):
		h.CreateResponse(w, http.StatusBadRequest, ErrorResponse{Error: message(err)})
	case apperr.IsInvalidToken(err):
		h.CreateResponse(w, http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired token"})
	case apperr.IsUnauthorized(err):
		h.CreateResponse(w, http.StatusUnauthorized, ErrorResponse{Error: "Operator not authorized"})
	case apperr.IsNotFound(err):
		h.CreateResponse(w, http.StatusNotFound, ErrorResponse{Error: "Not found"})
	default:
		log.WithFields(log.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		}).WithError(err).Error("request failed")
		h.CreateResponse(w, http.StatusInternalServerError, ErrorResponse{Error: "Server error"})
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("http.decode", "malformed JSON body")
	}
	return nil
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// message returns the caller-safe part of a validation error.
func message(err error) string {
	var op apperr.OpError
	if errors.As(err, &op) && op.Msg != "" {
		return op.Msg
	}
	return "invalid request"
}
