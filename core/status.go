package orchestration

import "github.com/koscakluka/sunday/core/events"

// Status is the single user-visible mode of the client.
type Status string

const (
	StatusIdle      Status = "Idle"
	StatusListening Status = "Listening"
	StatusSpeaking  Status = "Speaking"
)

func (s Status) String() string { return string(s) }

// CaptureState is the internal state of the capture session.
type CaptureState int

const (
	CaptureIdle CaptureState = iota
	CaptureListening
	// CaptureRestarting means an attempt has ended while the key is still
	// held and the next attempt has been requested but has not started.
	CaptureRestarting
)

func (s CaptureState) String() string {
	switch s {
	case CaptureIdle:
		return "idle"
	case CaptureListening:
		return "listening"
	case CaptureRestarting:
		return "restarting"
	default:
		return "unknown"
	}
}

// ProjectStatus derives the displayed status. Speaking takes precedence over
// listening; a restarting capture still counts as listening.
func ProjectStatus(capture CaptureState, playbackAlive bool) Status {
	switch {
	case playbackAlive:
		return StatusSpeaking
	case capture == CaptureListening, capture == CaptureRestarting:
		return StatusListening
	default:
		return StatusIdle
	}
}

// recomputeStatus publishes the projected status when it differs from the
// last published one.
func (o *Orchestrator) recomputeStatus() {
	status := ProjectStatus(o.capture.state, o.playback.isAlive())
	if status == o.status.Load().(Status) {
		return
	}

	logger.Debug("status changed", "from", o.status.Load(), "to", status)
	o.status.Store(status)
	o.emitEvent(events.NewStatusChanged(string(status)))
}
