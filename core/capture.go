package orchestration

import (
	"context"
	"errors"
	"strings"

	"github.com/koscakluka/sunday/core/events"
	"github.com/koscakluka/sunday/core/speechtotext"
)

// captureSession turns push-to-talk presses into recognition attempts. While
// the key is held, every attempt that ends is immediately replaced by a new
// one. It is only touched from the event loop.
type captureSession struct {
	recognizer SpeechRecognizer
	options    []speechtotext.TranscriptionOption
	playback   *playbackOwner
	post       func(events.Event)

	onUtterance func(ctx context.Context, attempt uint64, utterance string)
	onChanged   func()

	state CaptureState
	held  bool

	// attempt is the id of the last attempt the recognizer accepted.
	attempt     uint64
	lastAttempt uint64
	terminated  bool
}

func (s *captureSession) available() bool {
	return s.recognizer != nil
}

// start handles a push-to-talk press. Playback is cancelled before the
// attempt is requested so the assistant never talks over the user.
func (s *captureSession) start(ctx context.Context) {
	if !s.available() {
		logger.Warn("capture start ignored, no speech recognizer configured")
		return
	}

	s.held = true
	if s.playback.cancel() {
		s.onChanged()
	}

	if err := s.requestAttempt(ctx); err != nil {
		if errors.Is(err, speechtotext.ErrAttemptActive) {
			logger.Debug("previous attempt still active, restarting when it ends")
			return
		}
		logger.Error("failed to start speech recognition", "error", err)
	}
}

// stop handles a push-to-talk release. The state stays as it is until the
// recognizer reports the attempt's end.
func (s *captureSession) stop() {
	if !s.available() || !s.held {
		return
	}

	s.held = false
	if err := panicSafe("speech recognizer stop", s.recognizer.Stop); err != nil {
		logger.Warn("failed to stop speech recognition", "error", err)
	}
}

func (s *captureSession) requestAttempt(ctx context.Context) error {
	s.lastAttempt++
	id := s.lastAttempt

	opts := append([]speechtotext.TranscriptionOption{}, s.options...)
	opts = append(opts,
		speechtotext.WithAttemptStartedCallback(func() {
			s.post(events.NewCaptureAttemptStarted(id))
		}),
		speechtotext.WithTranscriptionCallback(func(transcript string) {
			s.post(events.NewCaptureAttemptResult(id, transcript))
		}),
		speechtotext.WithAttemptEndedCallback(func() {
			s.post(events.NewCaptureAttemptEnded(id))
		}),
		speechtotext.WithAttemptFailedCallback(func(code string) {
			s.post(events.NewCaptureAttemptFailed(id, code))
		}),
	)

	if err := panicSafe("speech recognizer transcribe", func() error {
		return s.recognizer.Transcribe(ctx, opts...)
	}); err != nil {
		return err
	}

	s.attempt = id
	s.terminated = false
	return nil
}

func (s *captureSession) isCurrent(id uint64) bool {
	return id == s.attempt && !s.terminated
}

func (s *captureSession) attemptStarted(id uint64) {
	if !s.isCurrent(id) {
		logger.Debug("ignoring start of stale attempt", "attempt", id)
		return
	}

	s.state = CaptureListening
	s.onChanged()
}

func (s *captureSession) attemptResult(ctx context.Context, id uint64, transcript string) bool {
	if !s.isCurrent(id) {
		logger.Debug("ignoring result of stale attempt", "attempt", id)
		return false
	}

	utterance := strings.TrimSpace(transcript)
	if utterance == "" {
		return false
	}

	s.onUtterance(ctx, id, utterance)
	return true
}

// attemptTerminated handles both a normal end and a failure. Failure codes
// are only logged; every termination is followed by a restart while held.
func (s *captureSession) attemptTerminated(ctx context.Context, id uint64, code string) {
	if !s.isCurrent(id) {
		logger.Debug("ignoring termination of stale attempt", "attempt", id)
		return
	}
	s.terminated = true

	if code != "" {
		logger.Info("recognition attempt failed", "attempt", id, "code", code)
	}

	if !s.held {
		s.state = CaptureIdle
		s.onChanged()
		return
	}

	s.state = CaptureRestarting
	restartCounter.Add(ctx, 1)
	if err := s.requestAttempt(ctx); err != nil {
		logger.Error("failed to restart speech recognition", "error", err)
		s.state = CaptureIdle
	}
	s.onChanged()
}
