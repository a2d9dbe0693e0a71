package events

// KindAssistantSpeechFrame identifies assistant speech audio.
const KindAssistantSpeechFrame Kind = "assistant_speech.frame"

// AssistantSpeechFrame carries assistant speech audio. Language is the
// session language the audio was synthesized in, empty when the generation
// engine speaks for itself.
type AssistantSpeechFrame struct {
	Base
	Audio    []byte
	Language string
}

// NewAssistantSpeechFrame creates an assistant speech audio frame event.
func NewAssistantSpeechFrame(audio []byte, language string) AssistantSpeechFrame {
	return AssistantSpeechFrame{Base: NewBase(KindAssistantSpeechFrame), Audio: audio, Language: language}
}
