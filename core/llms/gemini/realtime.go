// Package gemini provides a realtime generation engine on top of the Gemini
// Live API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const inputAudioMIMEType = "audio/pcm;rate=16000"

var (
	ErrMissingAPIKey = errors.New("gemini: api key required")
	ErrNotConnected  = errors.New("gemini: live session not connected")
)

// Modality selects what the model answers with.
type Modality string

const (
	ModalityAudio Modality = "audio"
	ModalityText  Modality = "text"
)

type Options struct {
	APIKey      string
	Model       string
	Voice       string
	Temperature float32
	// Instructions are the system-level steering instructions. Agent
	// instructions bound later are appended to them.
	Instructions string
	Modality     Modality
}

type liveSession interface {
	SendClientContent(genai.LiveClientContentInput) error
	SendRealtimeInput(genai.LiveRealtimeInput) error
	Receive() (*genai.LiveServerMessage, error)
	Close() error
}

type connectFunc func(ctx context.Context, model string, config *genai.LiveConnectConfig) (liveSession, error)

// RealtimeModel is a Gemini Live session. The connection is opened by
// Connect, system instructions are fixed from then on.
type RealtimeModel struct {
	options           Options
	agentInstructions string
	connect           connectFunc

	mu      sync.Mutex
	session liveSession

	// writeMu serializes writes, the live session's websocket allows a
	// single writer.
	writeMu sync.Mutex

	callbacksMu sync.RWMutex
	onAudio     func([]byte)
	onText      func(string)
	onTurnEnd   func()

	closeOnce sync.Once
	done      chan struct{}
}

func NewRealtimeModel(ctx context.Context, options Options) (*RealtimeModel, error) {
	if options.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if options.Model == "" {
		return nil, fmt.Errorf("gemini: model required")
	}
	if options.Modality == "" {
		options.Modality = ModalityAudio
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     options.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newRealtimeModel(options, func(ctx context.Context, model string, config *genai.LiveConnectConfig) (liveSession, error) {
		return client.Live.Connect(ctx, model, config)
	}), nil
}

func newRealtimeModel(options Options, connect connectFunc) *RealtimeModel {
	return &RealtimeModel{
		options: options,
		connect: connect,
		done:    make(chan struct{}),
	}
}

// BindInstructions appends agent instructions to the system instructions.
// It has no effect once the session is connected.
func (m *RealtimeModel) BindInstructions(instructions string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agentInstructions = instructions
}

func (m *RealtimeModel) systemInstructions() string {
	parts := make([]string, 0, 2)
	for _, part := range []string{m.agentInstructions, m.options.Instructions} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (m *RealtimeModel) connectConfig() *genai.LiveConnectConfig {
	config := &genai.LiveConnectConfig{
		Temperature: genai.Ptr(m.options.Temperature),
	}
	if instructions := m.systemInstructions(); instructions != "" {
		config.SystemInstruction = genai.NewContentFromText(instructions, genai.RoleUser)
	}

	switch m.options.Modality {
	case ModalityText:
		config.ResponseModalities = []genai.Modality{genai.ModalityText}
	default:
		config.ResponseModalities = []genai.Modality{genai.ModalityAudio}
		if m.options.Voice != "" {
			config.SpeechConfig = &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: m.options.Voice},
				},
			}
		}
	}
	return config
}

// Connect opens the live session and starts delivering model output to the
// registered callbacks. Repeated calls are no-ops.
func (m *RealtimeModel) Connect(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "connect gemini live session")
	defer span.End()
	span.SetAttributes(attribute.String("gemini.model", m.options.Model))

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		return nil
	}

	session, err := m.connect(ctx, m.options.Model, m.connectConfig())
	if err != nil {
		err = fmt.Errorf("failed to connect gemini live session: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	m.session = session
	go m.receive(session)
	return nil
}

func (m *RealtimeModel) currentSession() (liveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, ErrNotConnected
	}
	return m.session, nil
}

// GenerateReply asks the model for a reply following instructions.
func (m *RealtimeModel) GenerateReply(ctx context.Context, instructions string) error {
	_, span := tracer.Start(ctx, "generate reply")
	defer span.End()

	session, err := m.currentSession()
	if err != nil {
		return err
	}

	m.writeMu.Lock()
	err = session.SendClientContent(genai.LiveClientContentInput{
		Turns: []*genai.Content{genai.NewContentFromText(instructions, genai.RoleUser)},
	})
	m.writeMu.Unlock()
	if err != nil {
		err = fmt.Errorf("failed to send reply request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// SendAudio streams 16kHz linear16 user audio to the model.
func (m *RealtimeModel) SendAudio(audio []byte) error {
	session, err := m.currentSession()
	if err != nil {
		return err
	}

	m.writeMu.Lock()
	err = session.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{Data: audio, MIMEType: inputAudioMIMEType},
	})
	m.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to send audio to gemini: %w", err)
	}
	return nil
}

func (m *RealtimeModel) OnAudio(callback func(audio []byte)) {
	m.callbacksMu.Lock()
	defer m.callbacksMu.Unlock()
	m.onAudio = callback
}

func (m *RealtimeModel) OnText(callback func(text string)) {
	m.callbacksMu.Lock()
	defer m.callbacksMu.Unlock()
	m.onText = callback
}

func (m *RealtimeModel) OnTurnEnd(callback func()) {
	m.callbacksMu.Lock()
	defer m.callbacksMu.Unlock()
	m.onTurnEnd = callback
}

func (m *RealtimeModel) receive(session liveSession) {
	for {
		message, err := session.Receive()
		if err != nil {
			select {
			case <-m.done:
			default:
				logger.Warn("gemini live session ended", "error", err)
			}
			return
		}
		m.dispatch(message)
	}
}

func (m *RealtimeModel) dispatch(message *genai.LiveServerMessage) {
	if message == nil || message.ServerContent == nil {
		return
	}

	m.callbacksMu.RLock()
	onAudio, onText, onTurnEnd := m.onAudio, m.onText, m.onTurnEnd
	m.callbacksMu.RUnlock()

	content := message.ServerContent
	if content.ModelTurn != nil {
		for _, part := range content.ModelTurn.Parts {
			switch {
			case part == nil:
			case part.InlineData != nil && onAudio != nil:
				onAudio(part.InlineData.Data)
			case part.Text != "" && onText != nil:
				onText(part.Text)
			}
		}
	}
	if content.TurnComplete && onTurnEnd != nil {
		onTurnEnd()
	}
}

func (m *RealtimeModel) Close(_ context.Context) error {
	var err error
	m.closeOnce.Do(func() {
		close(m.done)

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.session != nil {
			if closeErr := m.session.Close(); closeErr != nil {
				err = fmt.Errorf("failed to close gemini live session: %w", closeErr)
			}
			m.session = nil
		}
	})
	return err
}
