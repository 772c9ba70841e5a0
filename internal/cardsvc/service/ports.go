package service

import (
	"context"

	"github.com/avvvet/idcard-services/internal/cardsvc/models"
	"github.com/avvvet/idcard-services/internal/cardsvc/token"
)

type CardStore interface {
	InsertOrGetByName(ctx context.Context, cardID, displayName string) (*models.Card, bool, error)
	GetByID(ctx context.Context, cardID string) (*models.Card, error)
}

type LogStore interface {
	Append(ctx context.Context, entry models.LogEntry) (*models.LogEntry, error)
}

// TokenVerifier is implemented by token.Service.
type TokenVerifier interface {
	Verify(raw string) (token.Claims, error)
}

// ScanNotifier receives every committed log entry. Implementations must not
// block the request for long and must not fail it.
type ScanNotifier interface {
	NotifyScan(entry models.LogEntry, path ScanPath)
}
