package broker

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/idcard-services/internal/cardsvc/models"
	"github.com/avvvet/idcard-services/internal/cardsvc/service"
	"github.com/avvvet/idcard-services/internal/comm"
)

type capturePublisher struct {
	subject string
	data    []byte
	err     error
}

func (p *capturePublisher) Publish(subject string, data []byte) error {
	p.subject = subject
	p.data = data
	return p.err
}

func TestNotifyScanPublishesEvent(t *testing.T) {
	pub := &capturePublisher{}
	b := NewBroker(pub)

	cardID := "abc-123"
	created := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	b.NotifyScan(models.LogEntry{
		ID:               7,
		EventName:        "Respawn",
		CardID:           &cardID,
		OperatorIdentity: "ops@example.com",
		CreatedAt:        created,
	}, service.PathLegacy)

	require.Equal(t, comm.SubjectScanLogged, pub.subject)

	var ev comm.ScanEvent
	require.NoError(t, json.Unmarshal(pub.data, &ev))
	assert.Len(t, ev.ID, 26)
	assert.Equal(t, int64(7), ev.LogID)
	assert.Equal(t, "legacy", ev.Path)
	assert.Nil(t, ev.DisplayName)
	require.NotNil(t, ev.CardID)
	assert.Equal(t, cardID, *ev.CardID)
	assert.True(t, created.Equal(ev.CreatedAt))
}

func TestNotifyScanSwallowsPublishErrors(t *testing.T) {
	pub := &capturePublisher{err: errors.New("nats: connection closed")}
	b := NewBroker(pub)

	assert.NotPanics(t, func() {
		b.NotifyScan(models.LogEntry{ID: 1, EventName: "Respawn", OperatorIdentity: "ops@example.com"}, service.PathToken)
	})

	var nilBroker *Broker
	assert.NotPanics(t, func() {
		nilBroker.NotifyScan(models.LogEntry{}, service.PathToken)
	})
}
