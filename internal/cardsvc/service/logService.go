package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/avvvet/idcard-services/internal/cardsvc/apperr"
	"github.com/avvvet/idcard-services/internal/cardsvc/metrics"
	"github.com/avvvet/idcard-services/internal/cardsvc/models"
)

const MaxEventNameLen = 128

// LogInput is the write request for one log entry. Blank DisplayName and
// CardID are stored as NULL.
type LogInput struct {
	EventName        string
	DisplayName      string
	CardID           string
	OperatorIdentity string
}

// LogService is the append-only event log. Duplicate appends are valid and
// produce distinct entries.
type LogService struct {
	store   LogStore
	metrics *metrics.Metrics
}

func NewLogService(store LogStore, m *metrics.Metrics) *LogService {
	return &LogService{store: store, metrics: m}
}

func (s *LogService) Append(ctx context.Context, in LogInput) (*models.LogEntry, error) {
	const op = "log.Append"

	eventName := strings.TrimSpace(in.EventName)
	if eventName == "" {
		return nil, apperr.Validation(op, "event_name required")
	}
	if utf8.RuneCountInString(eventName) > MaxEventNameLen {
		return nil, apperr.Validation(op, "event_name too long")
	}
	operator := strings.TrimSpace(in.OperatorIdentity)
	if operator == "" {
		return nil, apperr.Validation(op, "operator_identity required")
	}

	entry, err := s.store.Append(ctx, models.LogEntry{
		EventName:        eventName,
		DisplayName:      optional(in.DisplayName),
		CardID:           optional(in.CardID),
		OperatorIdentity: operator,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.LogAppended()
	return entry, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
