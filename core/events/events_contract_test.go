package events

import (
	"errors"
	"testing"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "capture start requested", event: NewCaptureStartRequested(), expected: KindCaptureStartRequested},
		{name: "capture stop requested", event: NewCaptureStopRequested(), expected: KindCaptureStopRequested},
		{name: "capture attempt started", event: NewCaptureAttemptStarted(1), expected: KindCaptureAttemptStarted},
		{name: "capture attempt result", event: NewCaptureAttemptResult(1, "hello"), expected: KindCaptureAttemptResult},
		{name: "capture attempt ended", event: NewCaptureAttemptEnded(1), expected: KindCaptureAttemptEnded},
		{name: "capture attempt failed", event: NewCaptureAttemptFailed(1, "no-speech"), expected: KindCaptureAttemptFailed},
		{name: "playback cancel requested", event: NewPlaybackCancelRequested(), expected: KindPlaybackCancelRequested},
		{name: "playback ended", event: NewPlaybackEnded("h"), expected: KindPlaybackEnded},
		{name: "playback failed", event: NewPlaybackFailed("h", errors.New("boom")), expected: KindPlaybackFailed},
		{name: "user prompt submitted", event: NewUserPromptSubmitted("hi"), expected: KindUserPromptSubmitted},
		{name: "turn replied", event: NewTurnReplied("t", "reply"), expected: KindTurnReplied},
		{name: "turn synthesized", event: NewTurnSynthesized("t", []byte{1}), expected: KindTurnSynthesized},
		{name: "turn failed", event: NewTurnFailed("t", TurnStageChat, errors.New("boom")), expected: KindTurnFailed},
		{name: "status changed", event: NewStatusChanged("Idle"), expected: KindStatusChanged},
		{name: "message appended", event: NewMessageAppended("You", "hi"), expected: KindMessageAppended},
		{name: "capture unavailable", event: NewCaptureUnavailable("no recognizer"), expected: KindCaptureUnavailable},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
			if testCase.event.Timestamp().IsZero() {
				t.Fatalf("expected timestamp to be set")
			}
		})
	}
}

func TestAttemptEndedAndFailedKindsAreDistinct(t *testing.T) {
	ended := NewCaptureAttemptEnded(1)
	failed := NewCaptureAttemptFailed(1, "aborted")

	if ended.Kind() == failed.Kind() {
		t.Fatalf("expected attempt ended and attempt failed kinds to differ, both were %q", ended.Kind())
	}
}
