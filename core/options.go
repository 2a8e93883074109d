package orchestration

import (
	"context"
	"time"

	"github.com/koscakluka/sunday/core/audio"
	"github.com/koscakluka/sunday/core/speechtotext"
)

type OrchestratorOption func(*Orchestrator)

// SpeechRecognizer runs one recognition attempt per Transcribe call. Stop asks
// the current attempt to end; the attempt still reports its terminal
// callback.
type SpeechRecognizer interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	Stop() error
}

// WithSpeechRecognizer enables push-to-talk capture. Without a recognizer the
// orchestrator reports capture as unavailable and only accepts typed text.
func WithSpeechRecognizer(recognizer SpeechRecognizer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.recognizer = recognizer
	}
}

// AudioPlayer turns synthesized audio into a playback handle.
type AudioPlayer interface {
	Load(audio []byte) (audio.Playback, error)
}

// WithAudioPlayer sets the player used for synthesized replies.
func WithAudioPlayer(player AudioPlayer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.player = player
	}
}

// ChatClient answers one user message with the assistant's reply.
type ChatClient interface {
	Chat(ctx context.Context, message string) (string, error)
}

// WithChatClient sets the client for the chat stage of a turn.
func WithChatClient(client ChatClient) OrchestratorOption {
	return func(o *Orchestrator) {
		o.chat = client
	}
}

// SpeechSynthesizer turns reply text into encoded audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// WithSpeechSynthesizer sets the client for the synthesis stage of a turn.
func WithSpeechSynthesizer(synthesizer SpeechSynthesizer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.synthesizer = synthesizer
	}
}

// Backend serves both the chat and the synthesis stage of a turn.
type Backend interface {
	ChatClient
	SpeechSynthesizer
}

// WithBackend uses one client for both stages of a turn.
func WithBackend(backend Backend) OrchestratorOption {
	return func(o *Orchestrator) {
		o.chat = backend
		o.synthesizer = backend
	}
}

// WithTranscriptionOptions forwards extra options to every recognition
// attempt, e.g. speechtotext.WithLanguage.
func WithTranscriptionOptions(opts ...speechtotext.TranscriptionOption) OrchestratorOption {
	return func(o *Orchestrator) {
		o.transcriptionOptions = append(o.transcriptionOptions, opts...)
	}
}

// Message is one transcript entry.
type Message struct {
	Sender    string
	Text      string
	Timestamp time.Time
}

const (
	SenderUser      = "You"
	SenderAssistant = "Sunday"
	SenderSystem    = "System"
)

// OrchestrateOptions holds the callbacks of a running orchestrator. All
// callbacks are invoked from the event loop and should return quickly.
type OrchestrateOptions struct {
	onMessage            func(message Message)
	onStatusChanged      func(status Status)
	onCaptureUnavailable func(reason string)
	onTranscription      func(transcript string)
}

type OrchestrateOption func(*OrchestrateOptions)

// WithMessageCallback registers a callback for every transcript entry: user
// utterances, assistant replies and system error messages.
func WithMessageCallback(callback func(message Message)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onMessage = callback
	}
}

// WithStatusCallback registers a callback invoked with the initial status and
// every time the projected status changes.
func WithStatusCallback(callback func(status Status)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onStatusChanged = callback
	}
}

// WithCaptureUnavailableCallback registers a callback invoked once when no
// speech recognizer is configured.
func WithCaptureUnavailableCallback(callback func(reason string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onCaptureUnavailable = callback
	}
}

// WithTranscriptionCallback registers a callback for the trimmed, non-empty
// utterances produced by the recognizer.
//
// Text submitted through [Orchestrator.SendText] does not trigger this
// callback.
func WithTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onTranscription = callback
	}
}
