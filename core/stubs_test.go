package orchestration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/sunday/core/audio"
	"github.com/koscakluka/sunday/core/events"
	"github.com/koscakluka/sunday/core/speechtotext"
)

// callLog records collaborator calls across stubs so tests can assert their
// relative order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *callLog) indexOf(call string) int {
	for i, c := range l.snapshot() {
		if c == call {
			return i
		}
	}
	return -1
}

type recognizerStub struct {
	log *callLog

	mu             sync.Mutex
	attempts       []speechtotext.TranscriptionOptions
	transcribeErrs []error
	stopCalls      int
}

func (r *recognizerStub) Transcribe(_ context.Context, opts ...speechtotext.TranscriptionOption) error {
	r.log.add("recognizer.transcribe")

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.transcribeErrs) > 0 {
		err := r.transcribeErrs[0]
		r.transcribeErrs = r.transcribeErrs[1:]
		if err != nil {
			return err
		}
	}
	r.attempts = append(r.attempts, speechtotext.NewTranscriptionOptions(opts...))
	return nil
}

func (r *recognizerStub) Stop() error {
	r.log.add("recognizer.stop")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopCalls++
	return nil
}

func (r *recognizerStub) failNext(errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcribeErrs = append(r.transcribeErrs, errs...)
}

func (r *recognizerStub) attempt(t *testing.T, i int) speechtotext.TranscriptionOptions {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if i >= len(r.attempts) {
		t.Fatalf("expected at least %d attempts, got %d", i+1, len(r.attempts))
	}
	return r.attempts[i]
}

func (r *recognizerStub) attemptCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}

func (r *recognizerStub) stopCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopCalls
}

type playerStub struct {
	log *callLog

	mu        sync.Mutex
	loaded    []*playbackStub
	loadErr   error
	playErr   error
	stopErr   error
	stopPanic bool
}

func (p *playerStub) Load(speech []byte) (audio.Playback, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return nil, p.loadErr
	}

	playback := &playbackStub{
		name:      string(speech),
		log:       p.log,
		playErr:   p.playErr,
		stopErr:   p.stopErr,
		stopPanic: p.stopPanic,
	}
	p.loaded = append(p.loaded, playback)
	return playback, nil
}

func (p *playerStub) playback(t *testing.T, i int) *playbackStub {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if i >= len(p.loaded) {
		t.Fatalf("expected at least %d loaded playbacks, got %d", i+1, len(p.loaded))
	}
	return p.loaded[i]
}

type playbackStub struct {
	name      string
	log       *callLog
	playErr   error
	stopErr   error
	stopPanic bool

	mu      sync.Mutex
	onEnded func()
	onError func(error)
	played  bool
	stops   int
}

func (p *playbackStub) Play(onEnded func(), onError func(error)) error {
	p.log.add("playback.play:" + p.name)
	if p.playErr != nil {
		return p.playErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = true
	p.onEnded = onEnded
	p.onError = onError
	return nil
}

func (p *playbackStub) Stop() error {
	p.log.add("playback.stop:" + p.name)

	p.mu.Lock()
	p.stops++
	p.mu.Unlock()

	if p.stopPanic {
		panic("device gone")
	}
	return p.stopErr
}

func (p *playbackStub) end() {
	p.mu.Lock()
	onEnded := p.onEnded
	p.mu.Unlock()
	onEnded()
}

func (p *playbackStub) fail(err error) {
	p.mu.Lock()
	onError := p.onError
	p.mu.Unlock()
	onError(err)
}

func (p *playbackStub) stopCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops
}

// backendStub answers chat and synthesis requests. When the gate channels are
// set, requests block until a value is sent on them.
type backendStub struct {
	mu         sync.Mutex
	chatCalls  []string
	synthCalls []string
	chatGate   chan string
	synthGate  chan string
	reply      func(message string) (string, error)
	synthesize func(text string) ([]byte, error)
}

func (b *backendStub) Chat(ctx context.Context, message string) (string, error) {
	b.mu.Lock()
	b.chatCalls = append(b.chatCalls, message)
	gate := b.chatGate
	reply := b.reply
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if reply == nil {
		return "reply to " + message, nil
	}
	return reply(message)
}

func (b *backendStub) Synthesize(ctx context.Context, text string) ([]byte, error) {
	b.mu.Lock()
	b.synthCalls = append(b.synthCalls, text)
	gate := b.synthGate
	synthesize := b.synthesize
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if synthesize == nil {
		return []byte(text), nil
	}
	return synthesize(text)
}

func (b *backendStub) chatMessages() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.chatCalls...)
}

func (b *backendStub) synthTexts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.synthCalls...)
}

// sessionRecorder collects what the orchestrator publishes through its
// callbacks.
type sessionRecorder struct {
	mu          sync.Mutex
	statuses    []Status
	messages    []Message
	unavailable []string
	transcripts []string
}

func (r *sessionRecorder) options() []OrchestrateOption {
	return []OrchestrateOption{
		WithStatusCallback(func(status Status) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.statuses = append(r.statuses, status)
		}),
		WithMessageCallback(func(message Message) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.messages = append(r.messages, message)
		}),
		WithCaptureUnavailableCallback(func(reason string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.unavailable = append(r.unavailable, reason)
		}),
		WithTranscriptionCallback(func(transcript string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.transcripts = append(r.transcripts, transcript)
		}),
	}
}

func (r *sessionRecorder) statusHistory() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.statuses...)
}

func (r *sessionRecorder) messageHistory() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

func (r *sessionRecorder) lastMessage(t *testing.T) Message {
	t.Helper()
	messages := r.messageHistory()
	if len(messages) == 0 {
		t.Fatalf("expected at least one message, got none")
	}
	return messages[len(messages)-1]
}

// newSteppedOrchestrator builds an orchestrator whose event loop is driven
// by the test through drain and dispatchUntil instead of a goroutine.
func newSteppedOrchestrator(t *testing.T, opts ...OrchestratorOption) (*Orchestrator, *sessionRecorder) {
	t.Helper()

	recorder := &sessionRecorder{}
	o := NewOrchestrator(opts...)
	options := OrchestrateOptions{}
	for _, opt := range recorder.options() {
		opt(&options)
	}
	o.emitEvent = newCallbackEventEmitter(options)

	ctx, cancel := context.WithCancel(context.Background())
	o.baseContext = ctx
	t.Cleanup(func() {
		cancel()
		o.queue.close()
		o.turns.wait()
	})
	return o, recorder
}

// drain dispatches every event that is already queued, including events
// queued while dispatching.
func drain(t *testing.T, o *Orchestrator) {
	t.Helper()
	for {
		event, ok := o.queue.tryPop()
		if !ok {
			return
		}
		o.dispatch(o.baseContext, event)
	}
}

// dispatchUntil dispatches queued events, waiting for asynchronous ones,
// until an event of kind has been dispatched.
func dispatchUntil(t *testing.T, o *Orchestrator, kind events.Kind) events.Event {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		event, ok := o.queue.pop(ctx)
		if !ok {
			t.Fatalf("expected %s event, got timeout", kind)
		}
		o.dispatch(o.baseContext, event)
		if event.Kind() == kind {
			return event
		}
	}
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for condition")
}
