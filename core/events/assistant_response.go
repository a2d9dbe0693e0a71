package events

const (
	// KindAssistantResponseSegment identifies streamed assistant reply text.
	KindAssistantResponseSegment Kind = "assistant_response.segment"
	// KindAssistantResponseFinal identifies the end of an assistant reply.
	KindAssistantResponseFinal Kind = "assistant_response.final"
)

// AssistantResponseSegment carries a piece of reply text as the generation
// engine streams it.
type AssistantResponseSegment struct {
	Base
	Segment string
}

func NewAssistantResponseSegment(segment string) AssistantResponseSegment {
	return AssistantResponseSegment{Base: NewBase(KindAssistantResponseSegment), Segment: segment}
}

// AssistantResponseFinal marks the end of a reply. Text holds the assembled
// reply when the engine produced text, it is empty for audio-only replies.
type AssistantResponseFinal struct {
	Base
	Text string
}

func NewAssistantResponseFinal(text string) AssistantResponseFinal {
	return AssistantResponseFinal{Base: NewBase(KindAssistantResponseFinal), Text: text}
}
