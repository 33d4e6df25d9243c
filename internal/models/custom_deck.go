// internal/models/custom_deck.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// CustomDeck is a user-supplied, named card set persisted outside the game process.
type CustomDeck struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Cards     []Card            `json:"cards"`
	Rules     map[string]string `json:"rules"`
	CreatedAt time.Time         `json:"createdAt"`
}
