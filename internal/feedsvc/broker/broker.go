package broker

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/avvvet/idcard-services/internal/comm"
)

type Broker struct {
	Conn      *nats.Conn
	Broadcast func(*comm.WSMessage)
}

func NewBroker(conn *nats.Conn, fncBroadcast func(*comm.WSMessage)) *Broker {
	return &Broker{
		Conn:      conn,
		Broadcast: fncBroadcast,
	}
}

// consume scan events from the card service
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// handleMessages forwards a ScanEvent to every web client
func (b *Broker) handleMessages(msgNats *nats.Msg) {
	event := comm.ScanEvent{}
	if err := json.Unmarshal(msgNats.Data, &event); err != nil {
		log.Errorf("Error: malformed scan event on %s: %s", msgNats.Subject, err)
		return
	}
	if event.ID == "" || event.EventName == "" {
		log.Warnf("Dropping incomplete scan event on %s", msgNats.Subject)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Errorf("Failed to marshal ScanEvent: %v", err)
		return
	}

	b.Broadcast(&comm.WSMessage{Type: comm.MsgScanLogged, Data: data})
	log.Debugf("forwarded scan event %s (log %d)", event.ID, event.LogID)
}
