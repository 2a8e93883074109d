package events

const (
	// KindCaptureStartRequested identifies a push-to-talk press.
	KindCaptureStartRequested Kind = "capture.start_requested"
	// KindCaptureStopRequested identifies a push-to-talk release.
	KindCaptureStopRequested Kind = "capture.stop_requested"
	// KindCaptureAttemptStarted identifies recognizer confirmation of an attempt.
	KindCaptureAttemptStarted Kind = "capture.attempt_started"
	// KindCaptureAttemptResult identifies a finalized attempt transcript.
	KindCaptureAttemptResult Kind = "capture.attempt_result"
	// KindCaptureAttemptEnded identifies normal attempt termination.
	KindCaptureAttemptEnded Kind = "capture.attempt_ended"
	// KindCaptureAttemptFailed identifies attempt termination with an error code.
	KindCaptureAttemptFailed Kind = "capture.attempt_failed"
)

// CaptureStartRequested marks a push-to-talk press.
type CaptureStartRequested struct{ Base }

// NewCaptureStartRequested creates a capture start request event.
func NewCaptureStartRequested() CaptureStartRequested {
	return CaptureStartRequested{Base: NewBase(KindCaptureStartRequested)}
}

// CaptureStopRequested marks a push-to-talk release.
type CaptureStopRequested struct{ Base }

// NewCaptureStopRequested creates a capture stop request event.
func NewCaptureStopRequested() CaptureStopRequested {
	return CaptureStopRequested{Base: NewBase(KindCaptureStopRequested)}
}

// CaptureAttemptStarted marks that the recognizer started listening for the
// given attempt.
type CaptureAttemptStarted struct {
	Base
	Attempt uint64
}

// NewCaptureAttemptStarted creates an attempt started event.
func NewCaptureAttemptStarted(attempt uint64) CaptureAttemptStarted {
	return CaptureAttemptStarted{Base: NewBase(KindCaptureAttemptStarted), Attempt: attempt}
}

// CaptureAttemptResult carries the finalized transcript of an attempt.
type CaptureAttemptResult struct {
	Base
	Attempt    uint64
	Transcript string
}

// NewCaptureAttemptResult creates an attempt result event.
func NewCaptureAttemptResult(attempt uint64, transcript string) CaptureAttemptResult {
	return CaptureAttemptResult{Base: NewBase(KindCaptureAttemptResult), Attempt: attempt, Transcript: transcript}
}

// CaptureAttemptEnded marks normal termination of an attempt.
type CaptureAttemptEnded struct {
	Base
	Attempt uint64
}

// NewCaptureAttemptEnded creates an attempt ended event.
func NewCaptureAttemptEnded(attempt uint64) CaptureAttemptEnded {
	return CaptureAttemptEnded{Base: NewBase(KindCaptureAttemptEnded), Attempt: attempt}
}

// CaptureAttemptFailed marks termination of an attempt with a recognizer
// error code such as "no-speech" or "network".
type CaptureAttemptFailed struct {
	Base
	Attempt uint64
	Code    string
}

// NewCaptureAttemptFailed creates an attempt failed event.
func NewCaptureAttemptFailed(attempt uint64, code string) CaptureAttemptFailed {
	return CaptureAttemptFailed{Base: NewBase(KindCaptureAttemptFailed), Attempt: attempt, Code: code}
}
