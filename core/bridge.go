package orchestration

import (
	"context"
	"log/slog"
	"sync"

	"github.com/koscakluka/ema-polyglot/core/events"
	"github.com/koscakluka/ema-polyglot/core/language"
	"github.com/koscakluka/ema-polyglot/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// maxGatedResults bounds the results held back until the bridge opens.
const maxGatedResults = 32

// maxQueuedEvents bounds the events waiting for session observers. Events
// beyond it are dropped.
const maxQueuedEvents = 64

// bridge forwards languages detected by the recognition engine into the
// session's language tracker. Results delivered before open are held back and
// applied in order once the bridge opens.
//
// The tracker is updated on the delivering goroutine. Events for observers
// are queued and emitted from the bridge's own goroutine, so a slow observer
// never holds up recognition.
type bridge struct {
	ctx         context.Context
	tracker     *language.Tracker
	logger      *slog.Logger
	unsubscribe func()

	mu       sync.Mutex
	opened   bool
	detached bool
	gated    []speechtotext.FinalResult
	inFlight sync.WaitGroup

	queue      chan events.Event
	dispatched chan struct{}
	detachOnce sync.Once
}

// attachBridge subscribes to final results of engine. Engines without the
// capability leave language tracking at the default language.
func attachBridge(ctx context.Context, engine RecognitionEngine, tracker *language.Tracker, emitEvent eventEmitter, logger *slog.Logger) *bridge {
	if emitEvent == nil {
		emitEvent = noopEventEmitter
	}
	b := &bridge{
		ctx:     context.WithoutCancel(ctx),
		tracker: tracker,
		logger:  logger,
	}

	switch notifier := engine.(type) {
	case FinalResultNotifier:
		b.queue = make(chan events.Event, maxQueuedEvents)
		b.dispatched = make(chan struct{})
		go b.dispatch(emitEvent)
		b.unsubscribe = notifier.OnFinalResult(b.handle)
	default:
		logger.Warn("recognition engine does not report final results, language stays at default",
			"default_language", tracker.Current())
	}
	return b
}

func (b *bridge) isAttached() bool {
	return b != nil && b.unsubscribe != nil
}

// open applies the held back results and lets later ones through.
func (b *bridge) open() {
	if b == nil {
		return
	}

	b.mu.Lock()
	if b.opened || b.detached {
		b.mu.Unlock()
		return
	}
	b.opened = true
	gated := b.gated
	b.gated = nil
	b.inFlight.Add(1)
	b.mu.Unlock()
	defer b.inFlight.Done()

	for _, result := range gated {
		b.apply(result)
	}
}

// detach stops delivery. When it returns no result is being applied and
// every queued event has reached the observers. Repeated calls are no-ops.
func (b *bridge) detach() {
	if b == nil {
		return
	}

	b.detachOnce.Do(func() {
		b.mu.Lock()
		b.detached = true
		b.gated = nil
		b.mu.Unlock()

		if b.unsubscribe != nil {
			b.unsubscribe()
		}
		b.inFlight.Wait()

		if b.queue != nil {
			close(b.queue)
			<-b.dispatched
		}
	})
}

func (b *bridge) handle(result speechtotext.FinalResult) {
	b.mu.Lock()
	if b.detached {
		b.mu.Unlock()
		return
	}
	if !b.opened {
		if len(b.gated) == maxGatedResults {
			b.gated = b.gated[1:]
		}
		b.gated = append(b.gated, result)
		b.mu.Unlock()
		return
	}
	b.inFlight.Add(1)
	b.mu.Unlock()
	defer b.inFlight.Done()

	b.apply(result)
}

func (b *bridge) apply(result speechtotext.FinalResult) {
	b.emit(events.NewUserTranscriptFinal(result.Transcript, result.Language))

	if !result.HasLanguage() {
		return
	}

	accepted := b.tracker.Supported().Contains(result.Language)
	b.emit(events.NewLanguageDetected(result.Language, accepted))
	if !accepted {
		b.logger.Debug("ignoring unsupported language", "language", result.Language)
		return
	}

	from := b.tracker.Current()
	if changed := b.tracker.Update(result.Language); !changed {
		return
	}

	b.logger.Info("session language changed", "from", from, "to", result.Language)
	languageSwitches.Add(b.ctx, 1, metric.WithAttributes(
		attribute.String("language.from", from),
		attribute.String("language.to", result.Language),
	))
	b.emit(events.NewLanguageChanged(from, result.Language))
}

func (b *bridge) emit(event events.Event) {
	select {
	case b.queue <- event:
	default:
		b.logger.Warn("dropping session event, observers are falling behind", "kind", event.Kind())
	}
}

func (b *bridge) dispatch(emitEvent eventEmitter) {
	defer close(b.dispatched)
	for event := range b.queue {
		emitEvent(event)
	}
}
