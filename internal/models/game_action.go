// internal/models/game_action.go
package models

import "github.com/google/uuid"

// SessionAction captures one accepted mutation of a game session, in the order it was applied.
type SessionAction struct {
	ID          uuid.UUID              `json:"id"`
	SessionID   string                 `json:"session_id"`
	ActionIndex int                    `json:"action_index"`
	Actor       string                 `json:"actor"`
	ActionType  string                 `json:"action_type"`
	Payload     map[string]interface{} `json:"action_payload"`
	Timestamp   int64                  `json:"timestamp"`
}
