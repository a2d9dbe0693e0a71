package gemini

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/genai"
)

type fakeSession struct {
	mu       sync.Mutex
	content  []genai.LiveClientContentInput
	realtime []genai.LiveRealtimeInput
	messages chan *genai.LiveServerMessage
	closed   chan struct{}
	once     sync.Once

	// writers counts sends in progress, overlaps records sends that started
	// while another one was still writing.
	writers  atomic.Int32
	overlaps atomic.Int32
}

func (s *fakeSession) write() {
	if s.writers.Add(1) > 1 {
		s.overlaps.Add(1)
	}
	time.Sleep(time.Millisecond)
	s.writers.Add(-1)
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		messages: make(chan *genai.LiveServerMessage, 4),
		closed:   make(chan struct{}),
	}
}

func (s *fakeSession) SendClientContent(input genai.LiveClientContentInput) error {
	s.write()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = append(s.content, input)
	return nil
}

func (s *fakeSession) SendRealtimeInput(input genai.LiveRealtimeInput) error {
	s.write()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.realtime = append(s.realtime, input)
	return nil
}

func (s *fakeSession) Receive() (*genai.LiveServerMessage, error) {
	select {
	case message := <-s.messages:
		return message, nil
	case <-s.closed:
		return nil, io.EOF
	}
}

func (s *fakeSession) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func connectTo(session *fakeSession, configs *[]*genai.LiveConnectConfig) connectFunc {
	return func(_ context.Context, _ string, config *genai.LiveConnectConfig) (liveSession, error) {
		*configs = append(*configs, config)
		return session, nil
	}
}

func TestNewRealtimeModelRequiresAPIKey(t *testing.T) {
	_, err := NewRealtimeModel(context.Background(), Options{Model: "gemini-2.0-flash-exp"})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected missing api key error, got %v", err)
	}
}

func TestConnectConfigForAudioReplies(t *testing.T) {
	var configs []*genai.LiveConnectConfig
	model := newRealtimeModel(Options{
		Model:        "gemini-2.0-flash-exp",
		Voice:        "Puck",
		Temperature:  0.7,
		Instructions: "Mirror the user's language.",
		Modality:     ModalityAudio,
	}, connectTo(newFakeSession(), &configs))
	model.BindInstructions("You are a helpful assistant.")

	if err := model.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	defer model.Close(context.Background())

	if len(configs) != 1 {
		t.Fatalf("expected one connection, got %d", len(configs))
	}
	config := configs[0]
	if len(config.ResponseModalities) != 1 || config.ResponseModalities[0] != genai.ModalityAudio {
		t.Fatalf("expected audio modality, got %v", config.ResponseModalities)
	}
	if config.SpeechConfig == nil || config.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName != "Puck" {
		t.Fatalf("expected Puck voice, got %+v", config.SpeechConfig)
	}
	if config.Temperature == nil || *config.Temperature != 0.7 {
		t.Fatalf("expected temperature 0.7, got %v", config.Temperature)
	}
	want := "You are a helpful assistant.\n\nMirror the user's language."
	if got := config.SystemInstruction.Parts[0].Text; got != want {
		t.Fatalf("expected system instructions %q, got %q", want, got)
	}
}

func TestConnectConfigForTextReplies(t *testing.T) {
	var configs []*genai.LiveConnectConfig
	model := newRealtimeModel(Options{Model: "m", Voice: "Puck", Modality: ModalityText},
		connectTo(newFakeSession(), &configs))

	if err := model.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	if err := model.Connect(context.Background()); err != nil {
		t.Fatalf("expected second connect to be a no-op, got %v", err)
	}
	defer model.Close(context.Background())

	if len(configs) != 1 {
		t.Fatalf("expected a single connection, got %d", len(configs))
	}
	if configs[0].ResponseModalities[0] != genai.ModalityText {
		t.Fatalf("expected text modality, got %v", configs[0].ResponseModalities)
	}
	if configs[0].SpeechConfig != nil {
		t.Fatalf("expected no speech config for text replies")
	}
	if configs[0].SystemInstruction != nil {
		t.Fatalf("expected no system instruction")
	}
}

func TestGenerateReplyRequiresConnection(t *testing.T) {
	var configs []*genai.LiveConnectConfig
	model := newRealtimeModel(Options{Model: "m"}, connectTo(newFakeSession(), &configs))

	if err := model.GenerateReply(context.Background(), "Greet the user"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected not connected error, got %v", err)
	}
	if err := model.SendAudio([]byte{1}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected not connected error, got %v", err)
	}
}

func TestGenerateReplyAndAudioAreSent(t *testing.T) {
	session := newFakeSession()
	var configs []*genai.LiveConnectConfig
	model := newRealtimeModel(Options{Model: "m"}, connectTo(session, &configs))
	if err := model.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	defer model.Close(context.Background())

	if err := model.GenerateReply(context.Background(), "Greet the user"); err != nil {
		t.Fatalf("expected reply request to be sent, got %v", err)
	}
	if err := model.SendAudio([]byte{1, 2}); err != nil {
		t.Fatalf("expected audio to be sent, got %v", err)
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if len(session.content) != 1 || session.content[0].Turns[0].Parts[0].Text != "Greet the user" {
		t.Fatalf("expected greeting turn, got %+v", session.content)
	}
	if len(session.realtime) != 1 || session.realtime[0].Audio.MIMEType != inputAudioMIMEType {
		t.Fatalf("expected one pcm chunk, got %+v", session.realtime)
	}
}

func TestReceivedContentReachesCallbacks(t *testing.T) {
	session := newFakeSession()
	var configs []*genai.LiveConnectConfig
	model := newRealtimeModel(Options{Model: "m"}, connectTo(session, &configs))

	audio := make(chan []byte, 1)
	text := make(chan string, 1)
	turnEnded := make(chan struct{}, 1)
	model.OnAudio(func(data []byte) { audio <- data })
	model.OnText(func(s string) { text <- s })
	model.OnTurnEnd(func() { turnEnded <- struct{}{} })

	if err := model.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	defer model.Close(context.Background())

	session.messages <- &genai.LiveServerMessage{ServerContent: &genai.LiveServerContent{
		ModelTurn: &genai.Content{Parts: []*genai.Part{
			{InlineData: &genai.Blob{Data: []byte{9}}},
			{Text: "namaste"},
		}},
		TurnComplete: true,
	}}

	select {
	case data := <-audio:
		if len(data) != 1 || data[0] != 9 {
			t.Fatalf("expected audio [9], got %v", data)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for audio")
	}
	select {
	case s := <-text:
		if s != "namaste" {
			t.Fatalf("expected text namaste, got %q", s)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for text")
	}
	select {
	case <-turnEnded:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for turn end")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	session := newFakeSession()
	var configs []*genai.LiveConnectConfig
	model := newRealtimeModel(Options{Model: "m"}, connectTo(session, &configs))
	if err := model.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}

	if err := model.Close(context.Background()); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}
	if err := model.Close(context.Background()); err != nil {
		t.Fatalf("expected second close to succeed, got %v", err)
	}
	select {
	case <-session.closed:
	default:
		t.Fatalf("expected live session to be closed")
	}
}

func TestConcurrentSendsDoNotOverlap(t *testing.T) {
	session := newFakeSession()
	var configs []*genai.LiveConnectConfig
	model := newRealtimeModel(Options{Model: "m"}, connectTo(session, &configs))
	if err := model.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	defer model.Close(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if err := model.SendAudio([]byte{1, 2}); err != nil {
					t.Errorf("expected audio to be sent, got %v", err)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if err := model.GenerateReply(context.Background(), "Greet the user"); err != nil {
					t.Errorf("expected reply request to be sent, got %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if got := session.overlaps.Load(); got != 0 {
		t.Fatalf("expected sends to be serialized, %d overlapped", got)
	}
}
