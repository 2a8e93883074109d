package orchestration

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/koscakluka/sunday/core/audio"
	"github.com/koscakluka/sunday/core/events"
)

var errNoAudioPlayer = errors.New("no audio player configured")

// playbackOwner holds the single playback slot. It is only touched from the
// event loop.
type playbackOwner struct {
	player AudioPlayer
	post   func(events.Event)

	current *playbackHandle
}

type playbackHandle struct {
	id       string
	playback audio.Playback
}

func newPlaybackOwner(player AudioPlayer, post func(events.Event)) *playbackOwner {
	return &playbackOwner{player: player, post: post}
}

func (p *playbackOwner) isAlive() bool {
	return p.current != nil
}

// cancel stops and releases the live handle, if any, and reports whether
// there was one.
func (p *playbackOwner) cancel() bool {
	if p.current == nil {
		return false
	}

	handle := p.current
	p.current = nil
	p.release(handle)
	logger.Debug("playback cancelled", "handle", handle.id)
	return true
}

// play replaces whatever is playing with speech. A non-nil error means the
// slot is empty afterwards.
func (p *playbackOwner) play(speech []byte) error {
	p.cancel()

	if p.player == nil {
		return errNoAudioPlayer
	}

	var playback audio.Playback
	if err := panicSafe("audio player load", func() (err error) {
		playback, err = p.player.Load(speech)
		return err
	}); err != nil {
		return fmt.Errorf("failed to load audio: %w", err)
	}

	handle := &playbackHandle{id: uuid.NewString(), playback: playback}
	p.current = handle

	err := panicSafe("playback start", func() error {
		return playback.Play(
			func() { p.post(events.NewPlaybackEnded(handle.id)) },
			func(err error) { p.post(events.NewPlaybackFailed(handle.id, err)) },
		)
	})
	if err != nil {
		if p.current == handle {
			p.current = nil
		}
		p.release(handle)
		return fmt.Errorf("failed to start playback: %w", err)
	}

	logger.Debug("playback started", "handle", handle.id)
	return nil
}

// finished handles the end or failure of a handle. Callbacks from a handle
// that is no longer current are ignored; it reports whether the slot changed.
func (p *playbackOwner) finished(handleID string, cause error) bool {
	if p.current == nil || p.current.id != handleID {
		logger.Debug("ignoring stale playback callback", "handle", handleID)
		return false
	}

	handle := p.current
	p.current = nil
	p.release(handle)

	if cause != nil {
		logger.Warn("playback failed", "handle", handleID, "error", cause)
	} else {
		logger.Debug("playback ended", "handle", handleID)
	}
	return true
}

func (p *playbackOwner) release(handle *playbackHandle) {
	if err := panicSafe("playback stop", handle.playback.Stop); err != nil {
		logger.Warn("failed to release playback", "handle", handle.id, "error", err)
	}
}
