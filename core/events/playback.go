package events

const (
	// KindPlaybackCancelRequested identifies an explicit playback cancellation.
	KindPlaybackCancelRequested Kind = "playback.cancel_requested"
	// KindPlaybackEnded identifies playback completion of a handle.
	KindPlaybackEnded Kind = "playback.ended"
	// KindPlaybackFailed identifies a playback error of a handle.
	KindPlaybackFailed Kind = "playback.failed"
)

// PlaybackCancelRequested asks the playback owner to drop the active handle.
type PlaybackCancelRequested struct{ Base }

// NewPlaybackCancelRequested creates a playback cancel request event.
func NewPlaybackCancelRequested() PlaybackCancelRequested {
	return PlaybackCancelRequested{Base: NewBase(KindPlaybackCancelRequested)}
}

// PlaybackEnded marks that the playback handle with the given id finished.
type PlaybackEnded struct {
	Base
	Handle string
}

// NewPlaybackEnded creates a playback ended event.
func NewPlaybackEnded(handle string) PlaybackEnded {
	return PlaybackEnded{Base: NewBase(KindPlaybackEnded), Handle: handle}
}

// PlaybackFailed marks that the playback handle with the given id errored.
type PlaybackFailed struct {
	Base
	Handle string
	Err    error
}

// NewPlaybackFailed creates a playback failed event.
func NewPlaybackFailed(handle string, err error) PlaybackFailed {
	return PlaybackFailed{Base: NewBase(KindPlaybackFailed), Handle: handle, Err: err}
}
