package models

import "time"

// LogEntry is one immutable scan/check-in fact. CardID is denormalized at
// write time and may reference a card that does not exist.
type LogEntry struct {
	ID               int64     `json:"id"`
	EventName        string    `json:"event_name"`
	DisplayName      *string   `json:"display_name"`
	CardID           *string   `json:"card_id"`
	OperatorIdentity string    `json:"operator_identity"`
	CreatedAt        time.Time `json:"created_at"`
}
