package events

const (
	// KindUserPromptSubmitted identifies typed text submitted as an utterance.
	KindUserPromptSubmitted Kind = "turn.prompt_submitted"
	// KindTurnReplied identifies a chat reply for a turn.
	KindTurnReplied Kind = "turn.replied"
	// KindTurnSynthesized identifies synthesized audio for a turn.
	KindTurnSynthesized Kind = "turn.synthesized"
	// KindTurnFailed identifies a failed turn stage.
	KindTurnFailed Kind = "turn.failed"
)

// TurnStage names the network stage of a turn.
type TurnStage string

const (
	TurnStageChat      TurnStage = "chat"
	TurnStageSynthesis TurnStage = "synthesis"
)

// UserPromptSubmitted carries typed text to be handled like an utterance.
type UserPromptSubmitted struct {
	Base
	Text string
}

// NewUserPromptSubmitted creates a prompt submitted event.
func NewUserPromptSubmitted(text string) UserPromptSubmitted {
	return UserPromptSubmitted{Base: NewBase(KindUserPromptSubmitted), Text: text}
}

// TurnReplied carries the chat reply of a turn.
type TurnReplied struct {
	Base
	Turn  string
	Reply string
}

// NewTurnReplied creates a turn replied event.
func NewTurnReplied(turn, reply string) TurnReplied {
	return TurnReplied{Base: NewBase(KindTurnReplied), Turn: turn, Reply: reply}
}

// TurnSynthesized carries the synthesized reply audio of a turn.
type TurnSynthesized struct {
	Base
	Turn  string
	Audio []byte
}

// NewTurnSynthesized creates a turn synthesized event.
func NewTurnSynthesized(turn string, audio []byte) TurnSynthesized {
	return TurnSynthesized{Base: NewBase(KindTurnSynthesized), Turn: turn, Audio: audio}
}

// TurnFailed marks a failed chat or synthesis stage.
type TurnFailed struct {
	Base
	Turn  string
	Stage TurnStage
	Err   error
}

// NewTurnFailed creates a turn failed event.
func NewTurnFailed(turn string, stage TurnStage, err error) TurnFailed {
	return TurnFailed{Base: NewBase(KindTurnFailed), Turn: turn, Stage: stage, Err: err}
}
