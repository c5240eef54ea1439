package models

// Live feed event types
const (
	EventDecisionNew = "decision.new"
	EventLogsCleared = "logs.cleared"
	EventError       = "error"
)

type WSMessage struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type WSErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
