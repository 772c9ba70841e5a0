package comm

import (
	"encoding/json"
	"time"
)

const (
	// SubjectScanLogged carries a ScanEvent for every committed log entry.
	SubjectScanLogged = "scan.logged"

	// MsgScanLogged is the websocket message type for forwarded ScanEvents.
	MsgScanLogged = "scan-logged"

	MsgPing  = "ping"
	MsgPong  = "pong"
	MsgError = "error"
)

type WSMessage struct {
	Type     string          `json:"type"` // e.g. "scan-logged", "error"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid,omitempty"`
}

// ScanEvent is published after a log entry is committed.
type ScanEvent struct {
	ID               string    `json:"id"` // ulid, sortable by publish time
	LogID            int64     `json:"log_id"`
	EventName        string    `json:"event_name"`
	DisplayName      *string   `json:"display_name"`
	CardID           *string   `json:"card_id"`
	OperatorIdentity string    `json:"operator_identity"`
	Path             string    `json:"path"` // token, legacy or manual
	CreatedAt        time.Time `json:"created_at"`
}

// ErrorMessage builds the websocket reply for a rejected client message.
func ErrorMessage(msg string) *WSMessage {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return &WSMessage{Type: MsgError, Data: data}
}
