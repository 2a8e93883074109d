package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/koscakluka/sunday/core/backend"
	"github.com/koscakluka/sunday/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const emptyReplyPlaceholder = "[no reply]"

var (
	errNoChatClient  = errors.New("no chat client configured")
	errNoSynthesizer = errors.New("no speech synthesizer configured")
)

// turnOrchestrator drives utterance -> chat -> synthesis -> playback. Network
// stages run off the loop and post their results back; turn bookkeeping is
// only touched from the event loop.
type turnOrchestrator struct {
	chat        ChatClient
	synthesizer SpeechSynthesizer
	playback    *playbackOwner
	post        func(events.Event)
	emit        func(events.Event)
	onChanged   func()

	inFlight map[string]*turn
	workers  sync.WaitGroup
}

type turn struct {
	id   string
	ctx  context.Context
	span trace.Span
}

func newTurnOrchestrator(chat ChatClient, synthesizer SpeechSynthesizer, playback *playbackOwner, post func(events.Event)) *turnOrchestrator {
	return &turnOrchestrator{
		chat:        chat,
		synthesizer: synthesizer,
		playback:    playback,
		post:        post,
		emit:        noopEventEmitter,
		onChanged:   func() {},
		inFlight:    map[string]*turn{},
	}
}

// handle starts a new turn for utterance. Earlier turns keep running; no
// ordering is imposed between them.
func (t *turnOrchestrator) handle(ctx context.Context, utterance string) {
	t.emit(events.NewMessageAppended(SenderUser, utterance))

	id := uuid.NewString()
	turnCtx, span := tracer.Start(ctx, "handle turn", trace.WithAttributes(
		attribute.String("turn.id", id),
		attribute.Int("turn.utterance_length", len(utterance)),
	))
	t.inFlight[id] = &turn{id: id, ctx: turnCtx, span: span}
	turnCounter.Add(ctx, 1)

	t.spawn(turnCtx, id, events.TurnStageChat, func(ctx context.Context) error {
		reply, err := t.requestChat(ctx, utterance)
		if err != nil {
			return err
		}
		t.post(events.NewTurnReplied(id, reply))
		return nil
	})
}

func (t *turnOrchestrator) replied(turnID, reply string) {
	current, ok := t.inFlight[turnID]
	if !ok {
		logger.Debug("ignoring reply for unknown turn", "turn", turnID)
		return
	}

	if reply == "" {
		reply = emptyReplyPlaceholder
	}
	t.emit(events.NewMessageAppended(SenderAssistant, reply))

	t.spawn(current.ctx, turnID, events.TurnStageSynthesis, func(ctx context.Context) error {
		speech, err := t.requestSynthesis(ctx, reply)
		if err != nil {
			return err
		}
		t.post(events.NewTurnSynthesized(turnID, speech))
		return nil
	})
}

// synthesized hands the turn's audio to the playback owner, replacing
// whatever is playing.
func (t *turnOrchestrator) synthesized(turnID string, speech []byte) {
	current, ok := t.inFlight[turnID]
	if !ok {
		logger.Debug("ignoring audio for unknown turn", "turn", turnID)
		return
	}
	delete(t.inFlight, turnID)

	if err := t.playback.play(speech); err != nil {
		logger.Error("failed to play reply", "turn", turnID, "error", err)
		current.span.RecordError(err)
	}
	current.span.End()
	t.onChanged()
}

func (t *turnOrchestrator) failed(turnID string, stage events.TurnStage, cause error) {
	current, ok := t.inFlight[turnID]
	if !ok {
		logger.Debug("ignoring failure of unknown turn", "turn", turnID)
		return
	}
	delete(t.inFlight, turnID)

	logger.Warn("turn failed", "turn", turnID, "stage", stage, "error", cause)
	turnFailureCounter.Add(current.ctx, 1, metric.WithAttributes(attribute.String("stage", string(stage))))
	current.span.RecordError(cause)
	current.span.SetStatus(codes.Error, cause.Error())
	current.span.End()

	t.emit(events.NewMessageAppended(SenderSystem, failureMessage(stage, cause)))
	t.onChanged()
}

func (t *turnOrchestrator) requestChat(ctx context.Context, utterance string) (string, error) {
	ctx, span := tracer.Start(ctx, "request chat reply")
	defer span.End()

	if t.chat == nil {
		return "", errNoChatClient
	}

	reply, err := t.chat.Chat(ctx, utterance)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return reply, nil
}

func (t *turnOrchestrator) requestSynthesis(ctx context.Context, text string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "request speech synthesis")
	defer span.End()

	if t.synthesizer == nil {
		return nil, errNoSynthesizer
	}

	speech, err := t.synthesizer.Synthesize(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return speech, nil
}

// spawn runs a network stage off the loop. An error or panic in the stage is
// posted back as a failure of the turn.
func (t *turnOrchestrator) spawn(ctx context.Context, turnID string, stage events.TurnStage, run func(context.Context) error) {
	t.workers.Add(1)
	go func() {
		defer t.workers.Done()
		if err := panicSafeNamedWorker(string(stage), run)(ctx); err != nil {
			t.post(events.NewTurnFailed(turnID, stage, err))
		}
	}()
}

func (t *turnOrchestrator) wait() {
	t.workers.Wait()
}

// endAll closes the spans of turns that will never complete.
func (t *turnOrchestrator) endAll() {
	for id, current := range t.inFlight {
		current.span.SetStatus(codes.Error, "orchestrator closed")
		current.span.End()
		delete(t.inFlight, id)
	}
}

// failureMessage renders the system message shown for a failed turn.
// Responses with an error status show their detail; anything else is
// reported as a network error against the endpoint.
func failureMessage(stage events.TurnStage, cause error) string {
	var statusErr *backend.StatusError
	hasStatus := errors.As(cause, &statusErr)

	switch stage {
	case events.TurnStageSynthesis:
		if hasStatus {
			return "TTS error: " + statusErr.Detail
		}
		return fmt.Sprintf("Network error contacting %s", backend.TTSPath)
	default:
		if hasStatus {
			return "Chat error: " + statusErr.Detail
		}
		return fmt.Sprintf("Network error contacting %s", backend.ChatPath)
	}
}
