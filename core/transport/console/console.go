// Package console runs a session agent against the local microphone and
// speakers.
package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	orchestration "github.com/koscakluka/ema-polyglot/core"
	"github.com/koscakluka/ema-polyglot/core/audio"
	"github.com/koscakluka/ema-polyglot/core/events"
	"github.com/koscakluka/ema-polyglot/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrAlreadyStarted = errors.New("console transport already started")

// AudioDevice captures user audio and plays assistant speech.
type AudioDevice interface {
	Stream(ctx context.Context, onAudio func(audio []byte)) error
	SendAudio(audio []byte) error
	ClearBuffer()
	Close() error
	EncodingInfo() audio.EncodingInfo
}

type connector interface {
	Connect(ctx context.Context) error
}

type audioSender interface {
	SendAudio(audio []byte) error
}

// replyStreamer is implemented by generation engines that stream their
// replies back instead of leaving playback to the transport's caller.
type replyStreamer interface {
	OnAudio(callback func(audio []byte))
	OnText(callback func(text string))
	OnTurnEnd(callback func())
}

// Transport is a single local room: the user at the console.
type Transport struct {
	device AudioDevice

	mu      sync.Mutex
	started bool
	agent   orchestration.Agent
	opts    orchestration.InputOptions
	ctx     context.Context
	reply   strings.Builder

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func New(device AudioDevice) *Transport {
	return &Transport{device: device, done: make(chan struct{})}
}

// Start connects the agent's engines to the device. Captured audio goes to
// recognition and, when it listens, to the generation engine.
func (t *Transport) Start(ctx context.Context, room orchestration.Room, agent orchestration.Agent, opts orchestration.InputOptions) error {
	ctx, span := tracer.Start(ctx, "start console transport", trace.WithAttributes(
		attribute.String("room.name", room.Name),
	))
	defer span.End()

	if agent.Pipeline == nil {
		return recordError(span, fmt.Errorf("agent has no pipeline"))
	}

	if agent.Events == nil {
		agent.Events = func(events.Event) {}
	}

	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	t.started = true
	t.agent = agent
	t.opts = opts
	t.ctx = context.WithoutCancel(ctx)
	t.mu.Unlock()

	generation := agent.Pipeline.Generation
	if streamer, ok := generation.(replyStreamer); ok {
		streamer.OnAudio(t.playGenerated)
		streamer.OnText(t.collectText)
		streamer.OnTurnEnd(t.finishReply)
	}
	if c, ok := generation.(connector); ok {
		if err := c.Connect(ctx); err != nil {
			return recordError(span, fmt.Errorf("failed to connect generation engine: %w", err))
		}
	}

	if err := agent.Pipeline.Recognition.Transcribe(ctx,
		speechtotext.WithEncodingInfo(t.device.EncodingInfo()),
		speechtotext.WithInterimTranscriptionCallback(func(transcript string) {
			t.emit(events.NewUserTranscriptInterimUpdated(transcript))
		}),
		speechtotext.WithSpeechStartedCallback(func() {
			t.device.ClearBuffer()
			t.emit(events.NewUserSpeechStarted())
		}),
		speechtotext.WithSpeechEndedCallback(func() {
			t.emit(events.NewUserSpeechEnded())
		}),
	); err != nil {
		return recordError(span, fmt.Errorf("failed to start transcription: %w", err))
	}

	if err := t.device.Stream(ctx, t.forwardAudio); err != nil {
		return recordError(span, fmt.Errorf("failed to start audio capture: %w", err))
	}

	go func() {
		select {
		case <-ctx.Done():
			t.Close()
		case <-t.done:
		}
	}()

	logger.Info("console transport started", "room", room.Name)
	return nil
}

func (t *Transport) forwardAudio(frame []byte) {
	t.mu.Lock()
	pipeline, canceller := t.agent.Pipeline, t.opts.NoiseCancellation
	t.mu.Unlock()

	if canceller != nil {
		frame = canceller.Process(frame)
	}
	if len(frame) == 0 {
		return
	}

	if err := pipeline.Recognition.SendAudio(frame); err != nil {
		logger.Debug("failed to send audio to recognition", "error", err)
	}
	if sender, ok := pipeline.Generation.(audioSender); ok {
		if err := sender.SendAudio(frame); err != nil {
			logger.Debug("failed to send audio to generation", "error", err)
		}
	}
}

func (t *Transport) playGenerated(audio []byte) {
	t.play(audio, "")
}

func (t *Transport) play(audio []byte, language string) {
	if err := t.device.SendAudio(audio); err != nil {
		logger.Warn("failed to play assistant speech", "error", err)
		return
	}
	t.emit(events.NewAssistantSpeechFrame(audio, language))
}

func (t *Transport) collectText(text string) {
	t.mu.Lock()
	t.reply.WriteString(text)
	t.mu.Unlock()
	t.emit(events.NewAssistantResponseSegment(text))
}

// finishReply closes the current reply. Text replies are spoken in the
// session language when a synthesis engine is configured.
func (t *Transport) finishReply() {
	t.mu.Lock()
	text := strings.TrimSpace(t.reply.String())
	t.reply.Reset()
	pipeline, ctx := t.agent.Pipeline, t.ctx
	t.mu.Unlock()

	t.emit(events.NewAssistantResponseFinal(text))
	if text == "" || !pipeline.HasSynthesis() {
		return
	}

	audio, language, err := pipeline.Speak(ctx, text)
	if err != nil {
		logger.Warn("failed to speak reply", "error", err, "language", language)
		return
	}
	t.play(audio, language)
}

func (t *Transport) emit(event events.Event) {
	t.mu.Lock()
	emit := t.agent.Events
	t.mu.Unlock()
	if emit != nil {
		emit(event)
	}
}

// Done closes once the transport is closed or its start context ends.
func (t *Transport) Done() <-chan struct{} { return t.done }

func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
		if err := t.device.Close(); err != nil {
			t.closeErr = fmt.Errorf("failed to close audio device: %w", err)
		}
	})
	return t.closeErr
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
