package orchestration

import "github.com/koscakluka/ema-polyglot/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

type eventCallbacks struct {
	onEvent           func(events.Event)
	onStateChanged    func(from, to State)
	onLanguageChanged func(from, to string)
	onTranscription   func(transcript, language string)
	onResponse        func(segment string)
}

func (c eventCallbacks) isEmpty() bool {
	return c.onEvent == nil && c.onStateChanged == nil && c.onLanguageChanged == nil &&
		c.onTranscription == nil && c.onResponse == nil
}

func newCallbackEventEmitter(callbacks eventCallbacks) eventEmitter {
	if callbacks.isEmpty() {
		return noopEventEmitter
	}

	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.SessionStateChanged:
			if callbacks.onStateChanged != nil {
				callbacks.onStateChanged(State(typedEvent.From), State(typedEvent.To))
			}
		case events.LanguageChanged:
			if callbacks.onLanguageChanged != nil {
				callbacks.onLanguageChanged(typedEvent.From, typedEvent.To)
			}
		case events.UserTranscriptFinal:
			if callbacks.onTranscription != nil {
				callbacks.onTranscription(typedEvent.Transcript, typedEvent.Language)
			}
		case events.AssistantResponseSegment:
			if callbacks.onResponse != nil {
				callbacks.onResponse(typedEvent.Segment)
			}
		}

		if callbacks.onEvent != nil {
			callbacks.onEvent(event)
		}
	}
}
