package service

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/avvvet/idcard-services/internal/cardsvc/apperr"
	"github.com/avvvet/idcard-services/internal/cardsvc/metrics"
	"github.com/avvvet/idcard-services/internal/cardsvc/models"
)

// ScanRequest is one scan submission. Raw is the scanned text after payload
// normalization. DisplayName is the operator's optional manual entry used on
// the legacy path.
type ScanRequest struct {
	Raw              string
	EventName        string
	DisplayName      string
	OperatorIdentity string
}

type ScanResult struct {
	Path        ScanPath
	CardID      string
	DisplayName string
	// Provisioned is set when the legacy path obtained the card id by
	// registering DisplayName.
	Provisioned bool
	Entry       *models.LogEntry
}

// ScanService resolves a scan to a card identity and commits one log entry.
// Submissions are independent; nothing is locked per card or operator.
type ScanService struct {
	tokens   TokenVerifier
	gate     *OperatorGate
	cards    *CardService
	logs     *LogService
	notifier ScanNotifier
	metrics  *metrics.Metrics
}

func NewScanService(tokens TokenVerifier, gate *OperatorGate, cards *CardService, logs *LogService,
	notifier ScanNotifier, m *metrics.Metrics) *ScanService {
	return &ScanService{
		tokens:   tokens,
		gate:     gate,
		cards:    cards,
		logs:     logs,
		notifier: notifier,
		metrics:  m,
	}
}

// Submit runs one submission through classify, verify, authorize, resolve
// and commit. Rejections write nothing.
func (s *ScanService) Submit(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	const op = "scan.Submit"

	raw := strings.TrimSpace(req.Raw)
	input := ClassifyScan(raw)
	path := input.Path()

	if raw == "" && strings.TrimSpace(req.DisplayName) == "" {
		s.reject(path, "validation", req)
		return nil, apperr.Validation(op, "no scan content or display_name")
	}
	if strings.TrimSpace(req.OperatorIdentity) == "" {
		s.reject(path, "validation", req)
		return nil, apperr.Validation(op, "operator_identity required")
	}
	if strings.TrimSpace(req.EventName) == "" {
		s.reject(path, "validation", req)
		return nil, apperr.Validation(op, "event_name required")
	}

	res := &ScanResult{Path: path}

	// Token verification is pure, so it may run before the gate. Everything
	// that writes runs after it.
	if in, ok := input.(TokenInput); ok {
		claims, err := s.tokens.Verify(in.Raw)
		if err != nil {
			s.reject(path, "invalid_token", req)
			return nil, err
		}
		res.CardID = claims.CardID
		res.DisplayName = claims.DisplayName
	}

	if !s.gate.IsAuthorized(req.OperatorIdentity) {
		s.reject(path, "unauthorized", req)
		return nil, apperr.Unauthorized(op, "operator not on allow-list")
	}

	if in, ok := input.(LegacyInput); ok {
		res.CardID = in.CardID
		res.DisplayName = strings.TrimSpace(req.DisplayName)

		if res.CardID == "" {
			if res.DisplayName == "" {
				s.reject(path, "validation", req)
				return nil, apperr.Validation(op, "no card id detected, provide a display_name to auto-create")
			}
			card, _, err := s.cards.Register(ctx, res.DisplayName)
			if err != nil {
				s.reject(path, "error", req)
				return nil, err
			}
			res.CardID = card.CardID
			res.DisplayName = card.DisplayName
			res.Provisioned = true
		}
	}

	entry, err := s.logs.Append(ctx, LogInput{
		EventName:        req.EventName,
		DisplayName:      res.DisplayName,
		CardID:           res.CardID,
		OperatorIdentity: req.OperatorIdentity,
	})
	if err != nil {
		s.reject(path, "error", req)
		return nil, err
	}
	res.Entry = entry

	s.metrics.Scan(string(path), "accepted")
	if s.notifier != nil {
		s.notifier.NotifyScan(*entry, path)
	}

	log.WithFields(log.Fields{
		"path":     path,
		"card_id":  res.CardID,
		"event":    entry.EventName,
		"operator": entry.OperatorIdentity,
		"log_id":   entry.ID,
	}).Info("scan logged")

	return res, nil
}

// RecordManual is the direct log path used for manual entry. It skips token
// verification but not the operator gate.
func (s *ScanService) RecordManual(ctx context.Context, in LogInput) (*models.LogEntry, error) {
	const op = "scan.RecordManual"

	if strings.TrimSpace(in.OperatorIdentity) == "" {
		return nil, apperr.Validation(op, "operator_identity required")
	}
	if !s.gate.IsAuthorized(in.OperatorIdentity) {
		s.metrics.Scan(string(PathManual), "unauthorized")
		return nil, apperr.Unauthorized(op, "operator not on allow-list")
	}

	entry, err := s.logs.Append(ctx, in)
	if err != nil {
		return nil, err
	}

	s.metrics.Scan(string(PathManual), "accepted")
	if s.notifier != nil {
		s.notifier.NotifyScan(*entry, PathManual)
	}
	return entry, nil
}

func (s *ScanService) reject(path ScanPath, reason string, req ScanRequest) {
	s.metrics.Scan(string(path), reason)
	log.WithFields(log.Fields{
		"path":     path,
		"reason":   reason,
		"operator": req.OperatorIdentity,
	}).Warn("scan rejected")
}
