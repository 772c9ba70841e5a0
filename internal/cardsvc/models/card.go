package models

import "time"

type Card struct {
	CardID      string    `json:"card_id"`      // Primary key, server generated
	DisplayName string    `json:"display_name"` // Trimmed, 1-64 characters
	CreatedAt   time.Time `json:"created_at"`
}
