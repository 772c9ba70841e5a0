package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/avvvet/idcard-services/internal/cardsvc/service"
)

// DefaultEventName is recorded when a scan omits event_name.
const DefaultEventName = "Respawn"

type scanRequest struct {
	// Token is whatever the scanner produced: a string, an object with
	// rawValue/data, or an array of those.
	Token            json.RawMessage `json:"token"`
	EventName        string          `json:"event_name"`
	DisplayName      string          `json:"display_name"`
	OperatorIdentity string          `json:"operator_identity"`
}

type scanResponse struct {
	OK          bool             `json:"ok"`
	CardID      string           `json:"card_id,omitempty"`
	DisplayName string           `json:"display_name,omitempty"`
	Path        service.ScanPath `json:"path"`
	Provisioned bool             `json:"provisioned"`
}

type createLogRequest struct {
	EventName        string `json:"event_name"`
	DisplayName      string `json:"display_name"`
	CardID           string `json:"card_id"`
	OperatorIdentity string `json:"operator_identity"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := h.decode(w, r, &req); err != nil {
		h.CreateError(w, r, err)
		return
	}

	raw, err := service.NormalizeScanPayload(req.Token)
	if err != nil {
		h.CreateError(w, r, err)
		return
	}

	eventName := strings.TrimSpace(req.EventName)
	if eventName == "" {
		eventName = DefaultEventName
	}

	res, err := h.scans.Submit(r.Context(), service.ScanRequest{
		Raw:              raw,
		EventName:        eventName,
		DisplayName:      req.DisplayName,
		OperatorIdentity: req.OperatorIdentity,
	})
	if err != nil {
		h.CreateError(w, r, err)
		return
	}

	h.CreateResponse(w, http.StatusOK, scanResponse{
		OK:          true,
		CardID:      res.CardID,
		DisplayName: res.DisplayName,
		Path:        res.Path,
		Provisioned: res.Provisioned,
	})
}

// CreateLog is the direct manual-entry path. No token is involved.
func (h *Handler) CreateLog(w http.ResponseWriter, r *http.Request) {
	var req createLogRequest
	if err := h.decode(w, r, &req); err != nil {
		h.CreateError(w, r, err)
		return
	}

	_, err := h.scans.RecordManual(r.Context(), service.LogInput{
		EventName:        req.EventName,
		DisplayName:      req.DisplayName,
		CardID:           req.CardID,
		OperatorIdentity: req.OperatorIdentity,
	})
	if err != nil {
		h.CreateError(w, r, err)
		return
	}

	h.CreateResponse(w, http.StatusOK, okResponse{OK: true})
}
