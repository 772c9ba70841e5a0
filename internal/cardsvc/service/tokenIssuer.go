package service

import (
	"context"
	"time"

	"github.com/avvvet/idcard-services/internal/cardsvc/metrics"
)

type TokenMinter interface {
	MintWithTTL(cardID, displayName string, ttl time.Duration) (string, time.Time, error)
}

// IssuedToken is what the card renderer embeds in the QR code.
type IssuedToken struct {
	Token       string    `json:"token"`
	CardID      string    `json:"card_id"`
	DisplayName string    `json:"display_name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenIssuer mints a fresh token for a registered card each time the card
// is rendered.
type TokenIssuer struct {
	cards   *CardService
	minter  TokenMinter
	metrics *metrics.Metrics
}

func NewTokenIssuer(cards *CardService, minter TokenMinter, m *metrics.Metrics) *TokenIssuer {
	return &TokenIssuer{cards: cards, minter: minter, metrics: m}
}

// Issue looks the card up and mints a token bound to its id and name.
// ttl <= 0 selects the minter's default.
func (i *TokenIssuer) Issue(ctx context.Context, cardID string, ttl time.Duration) (*IssuedToken, error) {
	card, err := i.cards.Lookup(ctx, cardID)
	if err != nil {
		return nil, err
	}

	raw, exp, err := i.minter.MintWithTTL(card.CardID, card.DisplayName, ttl)
	if err != nil {
		return nil, err
	}
	i.metrics.TokenMinted()

	return &IssuedToken{
		Token:       raw,
		CardID:      card.CardID,
		DisplayName: card.DisplayName,
		ExpiresAt:   exp,
	}, nil
}
