package orchestration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/koscakluka/sunday/core/events"
	"github.com/koscakluka/sunday/core/speechtotext"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const captureUnavailableReason = "speech recognition not supported"

// Orchestrator is the push-to-talk session. All state changes happen on one
// event loop goroutine; the exported methods only post events to it.
type Orchestrator struct {
	recognizer           SpeechRecognizer
	transcriptionOptions []speechtotext.TranscriptionOption
	player               AudioPlayer
	chat                 ChatClient
	synthesizer          SpeechSynthesizer

	queue    *eventQueue
	capture  *captureSession
	playback *playbackOwner
	turns    *turnOrchestrator

	emitEvent eventEmitter
	status    atomic.Value

	mu          sync.Mutex
	started     bool
	closed      bool
	cancel      context.CancelFunc
	done        chan struct{}
	baseContext context.Context
	closeOnce   sync.Once
}

// NewOrchestrator wires the collaborators given in opts. Nothing runs until
// Orchestrate is called.
func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		queue:       newEventQueue(),
		emitEvent:   noopEventEmitter,
		baseContext: context.Background(),
	}
	o.status.Store(StatusIdle)

	for _, opt := range opts {
		opt(o)
	}

	o.playback = newPlaybackOwner(o.player, o.queue.push)
	o.turns = newTurnOrchestrator(o.chat, o.synthesizer, o.playback, o.queue.push)
	o.turns.emit = o.emit
	o.turns.onChanged = o.recomputeStatus
	o.capture = &captureSession{
		recognizer:  o.recognizer,
		options:     o.transcriptionOptions,
		playback:    o.playback,
		post:        o.queue.push,
		onUtterance: o.handleUtterance,
		onChanged:   o.recomputeStatus,
	}

	return o
}

// Orchestrate starts the event loop and returns immediately. The loop runs
// until ctx is done or Close is called.
//
// ctx is used as the base context for recognition attempts and backend
// requests.
func (o *Orchestrator) Orchestrate(ctx context.Context, opts ...OrchestrateOption) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		logger.Warn("orchestrator already closed, skipping Orchestrate")
		return
	}
	if o.started {
		o.mu.Unlock()
		logger.Warn("orchestrator already started, skipping Orchestrate")
		return
	}
	o.started = true

	options := OrchestrateOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	o.emitEvent = newCallbackEventEmitter(options)

	loopCtx, cancel := context.WithCancel(ctx)
	o.baseContext = loopCtx
	o.cancel = cancel
	o.done = make(chan struct{})
	o.mu.Unlock()

	logger.Info("client boot",
		"capture_available", o.CanCapture(),
		"playback_available", o.player != nil,
		"chat_available", o.chat != nil,
		"synthesis_available", o.synthesizer != nil,
	)

	o.emitEvent(events.NewStatusChanged(string(StatusIdle)))
	if !o.CanCapture() {
		logger.Warn("speech recognition unavailable, push-to-talk disabled")
		o.emitEvent(events.NewCaptureUnavailable(captureUnavailableReason))
	}

	go o.run(loopCtx)
	context.AfterFunc(loopCtx, o.Close)
}

// Close stops the loop, releases any live playback, stops recognition and
// waits for in-flight backend requests to return. It is safe to call more
// than once, but not from inside an orchestrator callback.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		cancel, done := o.cancel, o.done
		o.mu.Unlock()

		if cancel != nil {
			cancel()
			<-done
		}
		o.queue.close()

		o.playback.cancel()
		if o.capture.available() {
			o.capture.held = false
			if err := panicSafe("speech recognizer stop", o.recognizer.Stop); err != nil {
				recordedErr := fmt.Errorf("failed to stop speech recognizer: %w", err)
				span := trace.SpanFromContext(o.baseContext)
				span.RecordError(recordedErr)
				span.SetStatus(codes.Error, recordedErr.Error())
			}
		}

		o.turns.wait()
		o.turns.endAll()
		logger.Info("orchestrator closed")
	})
}

// StartListening is the push-to-talk press. Any playing reply is cut off
// before recognition starts.
func (o *Orchestrator) StartListening() {
	o.queue.push(events.NewCaptureStartRequested())
}

// StopListening is the push-to-talk release. Releasing without a prior press
// is harmless.
func (o *Orchestrator) StopListening() {
	o.queue.push(events.NewCaptureStopRequested())
}

// SendText submits typed text as if it had been spoken. Blank text is
// ignored.
func (o *Orchestrator) SendText(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	o.queue.push(events.NewUserPromptSubmitted(text))
}

// CancelPlayback stops the reply that is currently playing, if any.
func (o *Orchestrator) CancelPlayback() {
	o.queue.push(events.NewPlaybackCancelRequested())
}

// Status reports the last published status. It is safe to call from any
// goroutine.
func (o *Orchestrator) Status() Status {
	return o.status.Load().(Status)
}

// CanCapture reports whether push-to-talk is available.
func (o *Orchestrator) CanCapture() bool {
	return o.capture.available()
}

func (o *Orchestrator) emit(event events.Event) {
	o.emitEvent(event)
}

func (o *Orchestrator) run(ctx context.Context) {
	defer close(o.done)

	for {
		event, ok := o.queue.pop(ctx)
		if !ok {
			return
		}
		o.dispatch(ctx, event)
	}
}

// dispatch applies one event to the session state. A panic while handling an
// event is logged and the loop continues with the next one.
func (o *Orchestrator) dispatch(ctx context.Context, event events.Event) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("event handler panicked", "kind", event.Kind(), "panic", recovered)
		}
	}()

	switch typedEvent := event.(type) {
	case events.CaptureStartRequested:
		o.capture.start(ctx)
	case events.CaptureStopRequested:
		o.capture.stop()
	case events.CaptureAttemptStarted:
		o.capture.attemptStarted(typedEvent.Attempt)
	case events.CaptureAttemptResult:
		o.capture.attemptResult(ctx, typedEvent.Attempt, typedEvent.Transcript)
	case events.CaptureAttemptEnded:
		o.capture.attemptTerminated(ctx, typedEvent.Attempt, "")
	case events.CaptureAttemptFailed:
		code := typedEvent.Code
		if code == "" {
			code = "unknown"
		}
		o.capture.attemptTerminated(ctx, typedEvent.Attempt, code)

	case events.PlaybackCancelRequested:
		if o.playback.cancel() {
			o.recomputeStatus()
		}
	case events.PlaybackEnded:
		if o.playback.finished(typedEvent.Handle, nil) {
			o.recomputeStatus()
		}
	case events.PlaybackFailed:
		if o.playback.finished(typedEvent.Handle, typedEvent.Err) {
			o.recomputeStatus()
		}

	case events.UserPromptSubmitted:
		o.turns.handle(ctx, typedEvent.Text)
	case events.TurnReplied:
		o.turns.replied(typedEvent.Turn, typedEvent.Reply)
	case events.TurnSynthesized:
		o.turns.synthesized(typedEvent.Turn, typedEvent.Audio)
	case events.TurnFailed:
		o.turns.failed(typedEvent.Turn, typedEvent.Stage, typedEvent.Err)

	default:
		logger.Debug("ignoring unhandled event", "kind", event.Kind())
	}
}

// handleUtterance reports a recognized utterance and starts its turn.
func (o *Orchestrator) handleUtterance(ctx context.Context, attempt uint64, utterance string) {
	o.emit(events.NewCaptureAttemptResult(attempt, utterance))
	o.turns.handle(ctx, utterance)
}
