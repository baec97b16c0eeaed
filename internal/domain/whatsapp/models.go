package whatsapp

import "time"

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Intents recognized in inbound messages.
const (
	IntentGreeting     = "greeting"
	IntentRequestLeave = "request_leave"
	IntentStatus       = "status"
	IntentUnknown      = "unknown"
)

type Message struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	UserID    string    `json:"userId,omitempty"`
	Direction string    `json:"direction"`
	Body      string    `json:"message"`
	Intent    string    `json:"intent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
