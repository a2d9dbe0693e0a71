package orchestration

import (
	"fmt"

	"github.com/koscakluka/ema-polyglot/core/events"
	"github.com/koscakluka/ema-polyglot/core/language"
)

// AssistantInstructions is the personality every session agent is bound to.
const AssistantInstructions = "You are a helpful multilingual voice AI assistant. " +
	"When the user speaks, automatically detect the language and respond in that language. " +
	"Keep replies concise and conversational."

// Agent is the personality a transport runs in a room together with the
// engines serving it.
type Agent struct {
	Instructions string
	Pipeline     *Pipeline
	// Events reports what happens in the room to the session's observers.
	// It is never nil for agents handed out by the orchestrator.
	Events func(events.Event)
}

// SteeringInstructions tells the generation engine to mirror the user's
// language and to fall back to defaultCode when unsure.
func SteeringInstructions(supported language.Set, defaultCode string) string {
	return fmt.Sprintf("Be polite and concise. Mirror the user's language (%s). "+
		"If you cannot determine the language, prefer %s.",
		supported.DisplayNames("or"), language.DisplayName(defaultCode))
}
