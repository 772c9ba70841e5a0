package broker

import (
	"crypto/rand"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	log "github.com/sirupsen/logrus"

	"github.com/avvvet/idcard-services/internal/cardsvc/models"
	"github.com/avvvet/idcard-services/internal/cardsvc/service"
	"github.com/avvvet/idcard-services/internal/comm"
)

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Broker fans committed log entries out to the message bus. It is
// best effort: the entry is already committed when NotifyScan runs, so a
// publish failure is logged and dropped, never retried.
type Broker struct {
	Conn    Publisher
	Subject string
	now     func() time.Time
}

func NewBroker(conn Publisher) *Broker {
	return &Broker{
		Conn:    conn,
		Subject: comm.SubjectScanLogged,
		now:     time.Now,
	}
}

func (b *Broker) NotifyScan(entry models.LogEntry, path service.ScanPath) {
	if b == nil || b.Conn == nil {
		return
	}

	id, err := ulid.New(ulid.Timestamp(b.now()), rand.Reader)
	if err != nil {
		log.Errorf("Error generating scan event id: %s", err)
		return
	}

	event := comm.ScanEvent{
		ID:               id.String(),
		LogID:            entry.ID,
		EventName:        entry.EventName,
		DisplayName:      entry.DisplayName,
		CardID:           entry.CardID,
		OperatorIdentity: entry.OperatorIdentity,
		Path:             string(path),
		CreatedAt:        entry.CreatedAt,
	}

	bytes, err := json.Marshal(event)
	if err != nil {
		log.Errorf("Failed to marshal ScanEvent: %v", err)
		return
	}

	if err := b.Conn.Publish(b.Subject, bytes); err != nil {
		log.Errorf("Error publishing to topic %s: %s", b.Subject, err)
	}
}
