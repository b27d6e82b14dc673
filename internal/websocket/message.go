package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Actions carried by event feed messages.
const (
	ActionTaskCreated    = "task_created"
	ActionTaskUpdated    = "task_updated"
	ActionTaskDeleted    = "task_deleted"
	ActionProfileUpdated = "profile_updated"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewMessage encodes an event feed message, returning nil if the payload
// cannot be marshalled.
func NewMessage(action string, payload interface{}) []byte {
	data, err := json.Marshal(Message{Action: action, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode websocket message")
		return nil
	}
	return data
}
