package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avvvet/idcard-services/internal/cardsvc/apperr"
	"github.com/avvvet/idcard-services/internal/cardsvc/models"
)

type CardStore struct {
	db *pgxpool.Pool
}

func NewCardStore(db *pgxpool.Pool) *CardStore {
	return &CardStore{db: db}
}

// InsertOrGetByName inserts a card with the given id unless a card with the
// same case-insensitive display name exists, in which case that card is
// returned with existed=true. The no-op DO UPDATE makes a losing concurrent
// insert wait for the winner and return its row.
func (s *CardStore) InsertOrGetByName(ctx context.Context, cardID, displayName string) (*models.Card, bool, error) {
	const query = `
INSERT INTO cards (card_id, display_name)
VALUES ($1, $2)
ON CONFLICT ((lower(display_name))) DO UPDATE SET display_name = cards.display_name
RETURNING card_id, display_name, created_at, card_id <> $1 AS existed
`
	card := &models.Card{}
	var existed bool
	err := s.db.QueryRow(ctx, query, cardID, displayName).Scan(
		&card.CardID,
		&card.DisplayName,
		&card.CreatedAt,
		&existed,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// card_id collision, never expected with uuid v4
			return nil, false, apperr.Store("store.InsertOrGetByName", fmt.Errorf("card_id %s already taken: %w", cardID, err))
		}
		return nil, false, apperr.Store("store.InsertOrGetByName", err)
	}

	return card, existed, nil
}

func (s *CardStore) GetByID(ctx context.Context, cardID string) (*models.Card, error) {
	query := `
		SELECT card_id, display_name, created_at
		FROM cards
		WHERE card_id = $1
	`

	card := &models.Card{}
	err := s.db.QueryRow(ctx, query, cardID).Scan(
		&card.CardID,
		&card.DisplayName,
		&card.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("store.GetByID", "card "+cardID)
		}
		return nil, apperr.Store("store.GetByID", err)
	}

	return card, nil
}
