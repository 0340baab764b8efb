package dispatch

import "photoscribe/pkg/media"

// Kind discriminates inbound events.
type Kind string

const (
	KindCommand Kind = "command"
	KindPhoto   Kind = "photo"
	KindOther   Kind = "other"
)

// Event is one inbound chat message, already classified by the transport.
type Event struct {
	Kind      Kind
	ChatID    int64
	MessageID int
	SenderID  int64

	// Command is the bare command name ("start") for KindCommand.
	Command string

	// Photo is set for KindPhoto and references the largest photo variant.
	Photo *media.PhotoRef
}
