package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/avvvet/idcard-services/internal/cardsvc/apperr"
	"github.com/avvvet/idcard-services/internal/cardsvc/models"
)

// memCardStore mirrors the dedup semantics of store.CardStore.
type memCardStore struct {
	mu      sync.Mutex
	byID    map[string]models.Card
	byName  map[string]string
	getHits int
	err     error
}

func newMemCardStore() *memCardStore {
	return &memCardStore{byID: map[string]models.Card{}, byName: map[string]string{}}
}

func (m *memCardStore) InsertOrGetByName(ctx context.Context, cardID, displayName string) (*models.Card, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}

	key := strings.ToLower(displayName)
	if id, ok := m.byName[key]; ok {
		c := m.byID[id]
		return &c, true, nil
	}
	if _, ok := m.byID[cardID]; ok {
		return nil, false, apperr.Store("mem.InsertOrGetByName", errors.New("duplicate card_id"))
	}
	c := models.Card{CardID: cardID, DisplayName: displayName, CreatedAt: time.Now().UTC()}
	m.byID[cardID] = c
	m.byName[key] = cardID
	return &c, false, nil
}

func (m *memCardStore) GetByID(ctx context.Context, cardID string) (*models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getHits++
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.byID[cardID]
	if !ok {
		return nil, apperr.NotFound("mem.GetByID", cardID)
	}
	return &c, nil
}

func (m *memCardStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memLogStore struct {
	mu      sync.Mutex
	entries []models.LogEntry
	err     error
}

func (m *memLogStore) Append(ctx context.Context, entry models.LogEntry) (*models.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	entry.ID = int64(len(m.entries) + 1)
	entry.CreatedAt = time.Now().UTC()
	m.entries = append(m.entries, entry)
	return &entry, nil
}

func (m *memLogStore) rows() []models.LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.LogEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []ScanPath
}

func (n *recordingNotifier) NotifyScan(entry models.LogEntry, path ScanPath) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, path)
}
