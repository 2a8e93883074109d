package events

const (
	// KindStatusChanged identifies a change of the displayed mode.
	KindStatusChanged Kind = "session.status_changed"
	// KindMessageAppended identifies a new transcript entry.
	KindMessageAppended Kind = "session.message_appended"
	// KindCaptureUnavailable identifies a missing speech recognizer.
	KindCaptureUnavailable Kind = "session.capture_unavailable"
)

// StatusChanged carries the newly projected status ("Idle", "Listening" or
// "Speaking").
type StatusChanged struct {
	Base
	Status string
}

// NewStatusChanged creates a status changed event.
func NewStatusChanged(status string) StatusChanged {
	return StatusChanged{Base: NewBase(KindStatusChanged), Status: status}
}

// MessageAppended carries a transcript entry for display.
type MessageAppended struct {
	Base
	Sender string
	Text   string
}

// NewMessageAppended creates a message appended event.
func NewMessageAppended(sender, text string) MessageAppended {
	return MessageAppended{Base: NewBase(KindMessageAppended), Sender: sender, Text: text}
}

// CaptureUnavailable marks that speech capture is not supported.
type CaptureUnavailable struct {
	Base
	Reason string
}

// NewCaptureUnavailable creates a capture unavailable event.
func NewCaptureUnavailable(reason string) CaptureUnavailable {
	return CaptureUnavailable{Base: NewBase(KindCaptureUnavailable), Reason: reason}
}
