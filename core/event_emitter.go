package orchestration

import "github.com/koscakluka/sunday/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts OrchestrateOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.StatusChanged:
			if opts.onStatusChanged != nil {
				opts.onStatusChanged(Status(typedEvent.Status))
			}
		case events.MessageAppended:
			if opts.onMessage != nil {
				opts.onMessage(Message{
					Sender:    typedEvent.Sender,
					Text:      typedEvent.Text,
					Timestamp: typedEvent.Timestamp(),
				})
			}
		case events.CaptureUnavailable:
			if opts.onCaptureUnavailable != nil {
				opts.onCaptureUnavailable(typedEvent.Reason)
			}
		case events.CaptureAttemptResult:
			if opts.onTranscription != nil {
				opts.onTranscription(typedEvent.Transcript)
			}
		}
	}
}
