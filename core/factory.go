package orchestration

import (
	"context"
	"fmt"

	"github.com/koscakluka/ema-polyglot/core/config"
	"github.com/koscakluka/ema-polyglot/core/language"
	"github.com/koscakluka/ema-polyglot/core/llms/gemini"
	"github.com/koscakluka/ema-polyglot/core/speechtotext/deepgram"
	"github.com/koscakluka/ema-polyglot/core/texttospeech/google"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// EngineFactory builds the engines of a session pipeline. Every build either
// returns a ready engine or fails before the pipeline is used.
type EngineFactory interface {
	BuildRecognitionEngine(ctx context.Context, cfg config.Recognition) (RecognitionEngine, error)
	BuildGenerationEngine(ctx context.Context, cfg config.Generation) (GenerationEngine, error)
	BuildSynthesisEngine(ctx context.Context, cfg config.Synthesis, supported language.Set) (SynthesisEngine, error)
}

type engineFactory struct{}

// NewEngineFactory returns the factory building Deepgram recognition, Gemini
// Live generation and Google Cloud synthesis engines.
func NewEngineFactory() EngineFactory {
	return engineFactory{}
}

func (engineFactory) BuildRecognitionEngine(ctx context.Context, cfg config.Recognition) (RecognitionEngine, error) {
	_, span := tracer.Start(ctx, "build recognition engine",
		trace.WithAttributes(attribute.String("recognition.model", cfg.Model)))
	defer span.End()

	if err := validateRecognition(cfg); err != nil {
		return nil, recordSpanError(span, err)
	}

	client, err := deepgram.NewTranscriptionClient(cfg.APIKey, cfg.Model)
	if err != nil {
		return nil, recordSpanError(span, fmt.Errorf("failed to create recognition engine: %w", err))
	}
	return client, nil
}

func (engineFactory) BuildGenerationEngine(ctx context.Context, cfg config.Generation) (GenerationEngine, error) {
	ctx, span := tracer.Start(ctx, "build generation engine",
		trace.WithAttributes(
			attribute.String("generation.model", cfg.Model),
			attribute.String("generation.voice", cfg.Voice),
		))
	defer span.End()

	if err := validateGeneration(cfg); err != nil {
		return nil, recordSpanError(span, err)
	}

	modality := gemini.ModalityAudio
	if cfg.Replies == config.ReplyText {
		modality = gemini.ModalityText
	}

	model, err := gemini.NewRealtimeModel(ctx, gemini.Options{
		APIKey:       cfg.APIKey,
		Model:        cfg.Model,
		Voice:        cfg.Voice,
		Temperature:  float32(cfg.Temperature),
		Instructions: cfg.Instructions,
		Modality:     modality,
	})
	if err != nil {
		return nil, recordSpanError(span, fmt.Errorf("failed to create generation engine: %w", err))
	}
	return model, nil
}

func (engineFactory) BuildSynthesisEngine(ctx context.Context, cfg config.Synthesis, supported language.Set) (SynthesisEngine, error) {
	ctx, span := tracer.Start(ctx, "build synthesis engine",
		trace.WithAttributes(attribute.String("synthesis.languages", supported.String())))
	defer span.End()

	if err := validateSynthesis(cfg, supported); err != nil {
		return nil, recordSpanError(span, err)
	}

	client, err := google.NewClient(ctx, cfg.APIKey, cfg.Voices)
	if err != nil {
		return nil, recordSpanError(span, fmt.Errorf("failed to create synthesis engine: %w", err))
	}
	return client, nil
}

func validateRecognition(cfg config.Recognition) error {
	if cfg.APIKey == "" {
		return &ConfigurationError{Engine: "recognition", Field: "api_key", Detail: "set " + config.EnvDeepgramAPIKey}
	}
	if cfg.Model == "" {
		return &ConfigurationError{Engine: "recognition", Field: "model", Detail: "required"}
	}
	return nil
}

func validateGeneration(cfg config.Generation) error {
	if cfg.APIKey == "" {
		return &ConfigurationError{Engine: "generation", Field: "api_key", Detail: "set " + config.EnvGoogleAPIKey}
	}
	if cfg.Model == "" {
		return &ConfigurationError{Engine: "generation", Field: "model", Detail: "required"}
	}
	return nil
}

func validateSynthesis(cfg config.Synthesis, supported language.Set) error {
	if cfg.APIKey == "" {
		return &ConfigurationError{Engine: "synthesis", Field: "api_key", Detail: "set " + config.EnvGoogleAPIKey}
	}

	voices := make(map[string]string, len(cfg.Voices))
	for code, voice := range cfg.Voices {
		voices[language.Primary(code)] = voice
	}
	for _, code := range supported.Codes() {
		if voices[code] == "" {
			return &ConfigurationError{Engine: "synthesis", Field: "voices", Detail: fmt.Sprintf("no voice for language %q", code)}
		}
	}
	return nil
}

func recordSpanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
