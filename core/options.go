package orchestration

import (
	"context"
	"log/slog"

	"github.com/koscakluka/ema-polyglot/core/config"
	"github.com/koscakluka/ema-polyglot/core/events"
	"github.com/koscakluka/ema-polyglot/core/speechtotext"
)

type OrchestratorOption func(*Orchestrator)

type RecognitionEngine interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
	Close(ctx context.Context) error
}

// FinalResultNotifier is implemented by recognition engines that report
// finalized results together with the detected language.
type FinalResultNotifier interface {
	OnFinalResult(callback func(speechtotext.FinalResult)) (unsubscribe func())
}

type GenerationEngine interface {
	GenerateReply(ctx context.Context, instructions string) error
	Close(ctx context.Context) error
}

// InstructionBinder is implemented by generation engines that take the agent
// personality as system instructions.
type InstructionBinder interface {
	BindInstructions(instructions string)
}

type SynthesisEngine interface {
	Synthesize(ctx context.Context, languageCode, text string) ([]byte, error)
	Close(ctx context.Context) error
}

// Room identifies the media room a session runs in.
type Room struct {
	Name string
}

// NoiseCanceller cleans up a frame of captured audio before recognition.
type NoiseCanceller interface {
	Process(frame []byte) []byte
}

type InputOptions struct {
	// NoiseCancellation is nil when input audio is passed through untouched.
	NoiseCancellation NoiseCanceller
}

// Transport runs an agent against a room's media. Start is called once per
// session, Done closes when the room's conversation is over.
type Transport interface {
	Start(ctx context.Context, room Room, agent Agent, opts InputOptions) error
	Done() <-chan struct{}
	Close() error
}

func WithConfig(cfg config.Config) OrchestratorOption {
	return func(o *Orchestrator) { o.config = cfg.Clone() }
}

func WithEngineFactory(factory EngineFactory) OrchestratorOption {
	return func(o *Orchestrator) {
		if factory != nil {
			o.factory = factory
		}
	}
}

func WithTransport(transport Transport) OrchestratorOption {
	return func(o *Orchestrator) { o.transport = transport }
}

// WithNoiseCanceller sets the canceller used when the configuration enables
// noise cancellation.
func WithNoiseCanceller(canceller NoiseCanceller) OrchestratorOption {
	return func(o *Orchestrator) { o.noiseCanceller = canceller }
}

func WithLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithEventCallback registers a callback receiving every session event.
// Transcript and language events arrive from a session goroutine in the order
// recognition reported them, the rest inline on the path producing them.
// Callbacks must not stop the session.
func WithEventCallback(callback func(events.Event)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onEvent = callback }
}

func WithStateChangedCallback(callback func(from, to State)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onStateChanged = callback }
}

func WithLanguageChangedCallback(callback func(from, to string)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onLanguageChanged = callback }
}

// WithTranscriptionCallback registers a callback for final transcripts and
// the language they were recognized in, empty when none was reported.
func WithTranscriptionCallback(callback func(transcript, language string)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onTranscription = callback }
}

func WithResponseCallback(callback func(segment string)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onResponse = callback }
}
