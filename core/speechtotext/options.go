// Package speechtotext describes the recognizer attempt contract consumed by
// the push-to-talk capture session.
//
// One call to Transcribe starts one recognition attempt. An attempt reports
// AttemptStarted once it is listening, at most one final transcription, and
// then exactly one terminal callback: AttemptEnded or AttemptFailed.
package speechtotext

import (
	"errors"
	"time"

	"github.com/koscakluka/sunday/core/audio"
)

// ErrAttemptActive is returned by Transcribe when the previous attempt has
// not delivered its terminal callback yet.
var ErrAttemptActive = errors.New("recognition attempt already active")

// Error codes reported through AttemptFailedCallback.
const (
	ErrorCodeNoSpeech     = "no-speech"
	ErrorCodeAborted      = "aborted"
	ErrorCodeAudioCapture = "audio-capture"
	ErrorCodeNetwork      = "network"
)

const DefaultNoSpeechTimeout = 8 * time.Second

type TranscriptionOptions struct {
	AttemptStartedCallback func()
	TranscriptionCallback  func(transcript string)
	AttemptEndedCallback   func()
	AttemptFailedCallback  func(code string)

	EncodingInfo    audio.EncodingInfo
	Language        string
	NoSpeechTimeout time.Duration
}

type TranscriptionOption func(*TranscriptionOptions)

// NewTranscriptionOptions applies opts over the defaults. Unset callbacks are
// replaced with no-ops so implementations can call them unconditionally.
func NewTranscriptionOptions(opts ...TranscriptionOption) TranscriptionOptions {
	options := TranscriptionOptions{
		EncodingInfo:    audio.GetDefaultEncodingInfo(),
		Language:        "en-US",
		NoSpeechTimeout: DefaultNoSpeechTimeout,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.AttemptStartedCallback == nil {
		options.AttemptStartedCallback = func() {}
	}
	if options.TranscriptionCallback == nil {
		options.TranscriptionCallback = func(string) {}
	}
	if options.AttemptEndedCallback == nil {
		options.AttemptEndedCallback = func() {}
	}
	if options.AttemptFailedCallback == nil {
		options.AttemptFailedCallback = func(string) {}
	}

	return options
}

func WithAttemptStartedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.AttemptStartedCallback = callback
	}
}

func WithTranscriptionCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.TranscriptionCallback = callback
	}
}

func WithAttemptEndedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.AttemptEndedCallback = callback
	}
}

func WithAttemptFailedCallback(callback func(code string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.AttemptFailedCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EncodingInfo = encodingInfo
	}
}

func WithLanguage(language string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.Language = language
	}
}

// WithNoSpeechTimeout sets how long an attempt may listen without producing a
// transcript before it fails with ErrorCodeNoSpeech. Zero disables the timeout.
func WithNoSpeechTimeout(timeout time.Duration) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.NoSpeechTimeout = timeout
	}
}
