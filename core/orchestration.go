package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-polyglot/core/config"
	"github.com/koscakluka/ema-polyglot/core/events"
	"github.com/koscakluka/ema-polyglot/core/language"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNoTransport      = errors.New("no transport configured")
	ErrSessionNotActive = errors.New("session is not active")
)

// Orchestrator runs one voice session: it builds the engine pipeline, starts
// the transport, greets the user and keeps the session language in step with
// what the user speaks.
type Orchestrator struct {
	id             string
	config         config.Config
	factory        EngineFactory
	transport      Transport
	noiseCanceller NoiseCanceller
	logger         *slog.Logger
	callbacks      eventCallbacks
	emitEvent      eventEmitter

	mu               sync.RWMutex
	state            State
	tracker          *language.Tracker
	pipeline         *Pipeline
	bridge           *bridge
	transportStarted bool

	endOnce sync.Once
	endErr  error
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		id:      uuid.NewString(),
		config:  config.Default(),
		factory: NewEngineFactory(),
		logger:  logger,
		state:   StateUnconfigured,
	}

	for _, opt := range opts {
		opt(o)
	}

	o.logger = o.logger.With("session_id", o.id)
	o.emitEvent = newCallbackEventEmitter(o.callbacks)

	return o
}

func (o *Orchestrator) SessionID() string { return o.id }

func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// CurrentLanguage returns the session language, the configured default
// until the session has been built.
func (o *Orchestrator) CurrentLanguage() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.tracker == nil {
		return language.Normalize(o.config.DefaultLanguage)
	}
	return o.tracker.Current()
}

// Pipeline returns the session engines, nil until the session is ready.
func (o *Orchestrator) Pipeline() *Pipeline {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.pipeline
}

// Start builds the pipeline, starts the transport in room and greets the
// user. It may be called once. Any failure ends the session.
//
// Recognition results delivered before the greeting request has returned
// are applied only after it.
func (o *Orchestrator) Start(ctx context.Context, room Room) error {
	ctx, span := tracer.Start(ctx, "start session", trace.WithAttributes(
		attribute.String("session.id", o.id),
		attribute.String("session.room", room.Name),
	))
	defer span.End()

	if o.transport == nil {
		return recordSpanError(span, fmt.Errorf("failed to start session %s: %w", o.id, ErrNoTransport))
	}
	if err := o.transition(EventStart); err != nil {
		return recordSpanError(span, fmt.Errorf("failed to start session %s: %w", o.id, err))
	}

	pipeline, err := o.build(ctx)
	if err != nil {
		o.end(ctx, EventFail)
		return recordSpanError(span, fmt.Errorf("failed to build session %s: %w", o.id, err))
	}

	agent := Agent{
		Instructions: AssistantInstructions,
		Pipeline:     pipeline,
		Events:       o.emitEvent,
	}
	if binder, ok := pipeline.Generation.(InstructionBinder); ok {
		binder.BindInstructions(agent.Instructions)
	}

	if err := o.transition(EventBuilt); err != nil {
		o.end(ctx, EventFail)
		return recordSpanError(span, fmt.Errorf("failed to start session %s: %w", o.id, err))
	}

	o.mu.Lock()
	o.transportStarted = true
	o.mu.Unlock()
	if err := o.transport.Start(ctx, room, agent, o.inputOptions()); err != nil {
		o.end(ctx, EventFail)
		return recordSpanError(span, fmt.Errorf("failed to start transport for session %s: %w", o.id, err))
	}

	if err := o.transition(EventActivate); err != nil {
		o.end(ctx, EventFail)
		return recordSpanError(span, fmt.Errorf("failed to start session %s: %w", o.id, err))
	}

	if err := o.greet(ctx, pipeline.Generation); err != nil {
		o.end(ctx, EventFail)
		return recordSpanError(span, fmt.Errorf("failed to greet in session %s: %w", o.id, err))
	}

	o.mu.RLock()
	b := o.bridge
	o.mu.RUnlock()
	b.open()

	o.logger.Info("session active", "room", room.Name, "language", o.CurrentLanguage())
	return nil
}

// build creates the tracker and the engines in order, stopping at the first
// failure. Engines built before the failure are closed.
func (o *Orchestrator) build(ctx context.Context) (*Pipeline, error) {
	if err := o.config.Validate(); err != nil {
		return nil, &ConfigurationError{Engine: "session", Field: "config", Detail: err.Error()}
	}

	supported, err := o.config.LanguageSet()
	if err != nil {
		return nil, &ConfigurationError{Engine: "session", Field: "languages", Detail: err.Error()}
	}
	defaultCode := language.Normalize(o.config.DefaultLanguage)
	tracker, err := language.NewTracker(supported, defaultCode)
	if err != nil {
		return nil, &ConfigurationError{Engine: "session", Field: "default_language", Detail: err.Error()}
	}

	pipeline := &Pipeline{Language: tracker}

	pipeline.Recognition, err = o.factory.BuildRecognitionEngine(ctx, o.config.Recognition)
	if err != nil {
		return nil, err
	}

	generation := o.config.Generation
	if generation.Instructions == "" {
		generation.Instructions = SteeringInstructions(supported, defaultCode)
	}
	pipeline.Generation, err = o.factory.BuildGenerationEngine(ctx, generation)
	if err != nil {
		o.closePipeline(ctx, pipeline)
		return nil, err
	}

	if o.config.Synthesis != nil {
		pipeline.Synthesis, err = o.factory.BuildSynthesisEngine(ctx, *o.config.Synthesis, supported)
		if err != nil {
			o.closePipeline(ctx, pipeline)
			return nil, err
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateBuilding {
		o.closePipeline(ctx, pipeline)
		return nil, ErrSessionNotActive
	}
	o.tracker = tracker
	o.pipeline = pipeline
	o.bridge = attachBridge(ctx, pipeline.Recognition, tracker, o.emitEvent, o.logger)
	return pipeline, nil
}

func (o *Orchestrator) closePipeline(ctx context.Context, pipeline *Pipeline) {
	if err := pipeline.close(ctx); err != nil {
		o.logger.Warn("failed to release engines", "error", err)
	}
}

func (o *Orchestrator) greet(ctx context.Context, generation GenerationEngine) error {
	ctx, span := tracer.Start(ctx, "generate greeting")
	defer span.End()

	greeting := o.config.Greeting
	if greeting == "" {
		greeting = config.DefaultGreeting
	}

	o.emitEvent(events.NewGreetingRequested(greeting))
	if err := generation.GenerateReply(ctx, greeting); err != nil {
		return recordSpanError(span, fmt.Errorf("failed to generate greeting: %w", err))
	}
	return nil
}

func (o *Orchestrator) inputOptions() InputOptions {
	if !o.config.NoiseCancellation {
		return InputOptions{}
	}
	if o.noiseCanceller == nil {
		o.logger.Debug("noise cancellation enabled without a canceller, input is passed through")
	}
	return InputOptions{NoiseCancellation: o.noiseCanceller}
}

// Speak synthesizes text in the current session language.
func (o *Orchestrator) Speak(ctx context.Context, text string) ([]byte, error) {
	if o.State() != StateActive {
		return nil, ErrSessionNotActive
	}

	audio, code, err := o.Pipeline().Speak(ctx, text)
	if err != nil {
		return nil, err
	}
	o.emitEvent(events.NewAssistantSpeechFrame(audio, code))
	return audio, nil
}

// Wait blocks until the transport is done or ctx is cancelled and then stops
// the session.
func (o *Orchestrator) Wait(ctx context.Context) error {
	o.mu.RLock()
	started := o.transportStarted
	o.mu.RUnlock()
	if !started {
		return ErrSessionNotActive
	}

	select {
	case <-o.transport.Done():
	case <-ctx.Done():
	}
	return o.Stop(context.WithoutCancel(ctx))
}

// Stop ends the session. Language tracking is detached before any engine is
// released. Repeated calls return the first result.
func (o *Orchestrator) Stop(ctx context.Context) error {
	return o.end(ctx, EventStop)
}

func (o *Orchestrator) end(ctx context.Context, event Event) error {
	o.endOnce.Do(func() {
		ctx, span := tracer.Start(ctx, "stop session", trace.WithAttributes(
			attribute.String("session.id", o.id),
			attribute.String("session.end", string(event)),
		))
		defer span.End()

		o.mu.Lock()
		b, pipeline, transportStarted := o.bridge, o.pipeline, o.transportStarted
		o.mu.Unlock()

		b.detach()

		var errs []error
		if err := pipeline.close(ctx); err != nil {
			errs = append(errs, err)
		}
		if transportStarted {
			if err := o.transport.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close transport: %w", err))
			}
		}

		if err := o.transition(event); err != nil {
			errs = append(errs, err)
		}

		o.endErr = errors.Join(errs...)
		if o.endErr != nil {
			recordSpanError(span, o.endErr)
			o.logger.Warn("session ended with errors", "error", o.endErr)
			return
		}
		o.logger.Info("session ended")
	})
	return o.endErr
}

func (o *Orchestrator) transition(event Event) error {
	o.mu.Lock()
	from := o.state
	next, err := Transition(from, event)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	o.state = next
	o.mu.Unlock()

	if from != next {
		o.logger.Debug("session state changed", "from", from, "to", next)
		o.emitEvent(events.NewSessionStateChanged(string(from), string(next)))
	}
	return nil
}
