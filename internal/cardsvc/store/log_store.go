package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avvvet/idcard-services/internal/cardsvc/apperr"
	"github.com/avvvet/idcard-services/internal/cardsvc/models"
)

// LogStore is append-only: it has no update or delete statements.
type LogStore struct {
	db *pgxpool.Pool
}

func NewLogStore(db *pgxpool.Pool) *LogStore {
	return &LogStore{db: db}
}

func (s *LogStore) Append(ctx context.Context, entry models.LogEntry) (*models.LogEntry, error) {
	query := `
        INSERT INTO logs (event_name, display_name, card_id, operator_identity)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at;
    `

	out := entry
	err := s.db.QueryRow(ctx, query,
		entry.EventName,
		entry.DisplayName,
		entry.CardID,
		entry.OperatorIdentity,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, apperr.Store("store.AppendLog", err)
	}

	return &out, nil
}
