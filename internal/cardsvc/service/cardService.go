package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"github.com/avvvet/idcard-services/internal/cardsvc/apperr"
	"github.com/avvvet/idcard-services/internal/cardsvc/metrics"
	"github.com/avvvet/idcard-services/internal/cardsvc/models"
)

const (
	MaxDisplayNameLen = 64

	cardCacheTTL     = 10 * time.Minute
	cardCacheCleanup = 20 * time.Minute
)

// CardService is the card registry. Registration is idempotent by
// case-insensitive display name.
type CardService struct {
	store   CardStore
	cache   *cache.Cache
	metrics *metrics.Metrics
	newID   func() string
}

func NewCardService(store CardStore, m *metrics.Metrics) *CardService {
	return &CardService{
		store:   store,
		cache:   cache.New(cardCacheTTL, cardCacheCleanup),
		metrics: m,
		newID:   uuid.NewString,
	}
}

// NormalizeDisplayName trims name and enforces the 1-64 character rule.
func NormalizeDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("card.Register", "display_name required")
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLen {
		return "", apperr.Validation("card.Register", "display_name longer than 64 characters")
	}
	return name, nil
}

// Register returns the card for displayName, creating it when no card with
// the same case-insensitive name exists. existed reports which case applied.
func (s *CardService) Register(ctx context.Context, displayName string) (*models.Card, bool, error) {
	name, err := NormalizeDisplayName(displayName)
	if err != nil {
		return nil, false, err
	}

	card, existed, err := s.store.InsertOrGetByName(ctx, s.newID(), name)
	if err != nil {
		return nil, false, err
	}

	s.cache.Set(card.CardID, *card, cache.DefaultExpiration)
	s.metrics.CardRegistered(existed)

	if !existed {
		log.WithField("card_id", card.CardID).Info("card registered")
	}
	return card, existed, nil
}

// Lookup fetches a card by id. Cards are immutable, so cached copies never
// go stale.
func (s *CardService) Lookup(ctx context.Context, cardID string) (*models.Card, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return nil, apperr.Validation("card.Lookup", "card_id required")
	}

	if v, ok := s.cache.Get(cardID); ok {
		card := v.(models.Card)
		return &card, nil
	}

	card, err := s.store.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(card.CardID, *card, cache.DefaultExpiration)
	return card, nil
}
