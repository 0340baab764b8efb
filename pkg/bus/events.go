package bus

import "time"

type EventType string

const (
	EventCommandHandled    EventType = "command_handled"
	EventPhotoReceived     EventType = "photo_received"
	EventDescribeCompleted EventType = "describe_completed"
	EventDescribeFailed    EventType = "describe_failed"
	EventStageFailed       EventType = "stage_failed"
	EventOtherHandled      EventType = "other_handled"
)

type Event struct {
	Type      EventType         `json:"type"`
	At        time.Time         `json:"at"`
	ChatID    int64             `json:"chat_id,omitempty"`
	MessageID int               `json:"message_id,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Duration  time.Duration     `json:"duration,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
	Error     string            `json:"error,omitempty"`
}
