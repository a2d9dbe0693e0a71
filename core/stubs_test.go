package orchestration

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/koscakluka/ema-polyglot/core/config"
	"github.com/koscakluka/ema-polyglot/core/events"
	"github.com/koscakluka/ema-polyglot/core/language"
	"github.com/koscakluka/ema-polyglot/core/speechtotext"
)

// callLog records the order of teardown calls across stubs.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type stubRecognition struct {
	log *callLog

	mu        sync.Mutex
	callbacks map[int]func(speechtotext.FinalResult)
	nextID    int

	closeCalls atomic.Int32
}

func newStubRecognition(log *callLog) *stubRecognition {
	return &stubRecognition{log: log, callbacks: map[int]func(speechtotext.FinalResult){}}
}

func (s *stubRecognition) Transcribe(context.Context, ...speechtotext.TranscriptionOption) error {
	return nil
}

func (s *stubRecognition) SendAudio([]byte) error { return nil }

func (s *stubRecognition) Close(context.Context) error {
	s.closeCalls.Add(1)
	s.log.add("close recognition")
	return nil
}

func (s *stubRecognition) OnFinalResult(callback func(speechtotext.FinalResult)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.callbacks[id] = callback

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.callbacks[id]; ok {
			delete(s.callbacks, id)
			s.log.add("unsubscribe")
		}
	}
}

func (s *stubRecognition) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.callbacks)
}

func (s *stubRecognition) deliver(result speechtotext.FinalResult) {
	s.mu.Lock()
	callbacks := make([]func(speechtotext.FinalResult), 0, len(s.callbacks))
	for _, callback := range s.callbacks {
		callbacks = append(callbacks, callback)
	}
	s.mu.Unlock()

	for _, callback := range callbacks {
		callback(result)
	}
}

// plainRecognition cannot report final results.
type plainRecognition struct {
	closeCalls atomic.Int32
}

func (p *plainRecognition) Transcribe(context.Context, ...speechtotext.TranscriptionOption) error {
	return nil
}
func (p *plainRecognition) SendAudio([]byte) error { return nil }
func (p *plainRecognition) Close(context.Context) error {
	p.closeCalls.Add(1)
	return nil
}

type stubGeneration struct {
	log           *callLog
	generateReply func(ctx context.Context, instructions string) error

	mu           sync.Mutex
	replies      []string
	instructions string

	closeCalls atomic.Int32
}

func (s *stubGeneration) GenerateReply(ctx context.Context, instructions string) error {
	s.mu.Lock()
	s.replies = append(s.replies, instructions)
	s.mu.Unlock()

	if s.generateReply != nil {
		return s.generateReply(ctx, instructions)
	}
	return nil
}

func (s *stubGeneration) BindInstructions(instructions string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instructions = instructions
}

func (s *stubGeneration) Close(context.Context) error {
	s.closeCalls.Add(1)
	s.log.add("close generation")
	return nil
}

func (s *stubGeneration) replyCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.replies...)
}

type stubSynthesis struct {
	log *callLog

	mu        sync.Mutex
	languages []string

	closeCalls atomic.Int32
}

func (s *stubSynthesis) Synthesize(_ context.Context, languageCode, text string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.languages = append(s.languages, languageCode)
	return []byte(languageCode + ":" + text), nil
}

func (s *stubSynthesis) Close(context.Context) error {
	s.closeCalls.Add(1)
	s.log.add("close synthesis")
	return nil
}

type stubFactory struct {
	buildRecognition func(ctx context.Context, cfg config.Recognition) (RecognitionEngine, error)
	buildGeneration  func(ctx context.Context, cfg config.Generation) (GenerationEngine, error)
	buildSynthesis   func(ctx context.Context, cfg config.Synthesis, supported language.Set) (SynthesisEngine, error)

	recognitionCalls atomic.Int32
	generationCalls  atomic.Int32
	synthesisCalls   atomic.Int32

	mu                sync.Mutex
	generationConfigs []config.Generation
}

func (f *stubFactory) BuildRecognitionEngine(ctx context.Context, cfg config.Recognition) (RecognitionEngine, error) {
	f.recognitionCalls.Add(1)
	return f.buildRecognition(ctx, cfg)
}

func (f *stubFactory) BuildGenerationEngine(ctx context.Context, cfg config.Generation) (GenerationEngine, error) {
	f.generationCalls.Add(1)
	f.mu.Lock()
	f.generationConfigs = append(f.generationConfigs, cfg)
	f.mu.Unlock()
	return f.buildGeneration(ctx, cfg)
}

func (f *stubFactory) BuildSynthesisEngine(ctx context.Context, cfg config.Synthesis, supported language.Set) (SynthesisEngine, error) {
	f.synthesisCalls.Add(1)
	return f.buildSynthesis(ctx, cfg, supported)
}

func factoryFor(recognition RecognitionEngine, generation GenerationEngine, synthesis SynthesisEngine) *stubFactory {
	return &stubFactory{
		buildRecognition: func(context.Context, config.Recognition) (RecognitionEngine, error) { return recognition, nil },
		buildGeneration:  func(context.Context, config.Generation) (GenerationEngine, error) { return generation, nil },
		buildSynthesis: func(context.Context, config.Synthesis, language.Set) (SynthesisEngine, error) {
			return synthesis, nil
		},
	}
}

type stubTransport struct {
	log   *callLog
	start func(ctx context.Context, room Room, agent Agent, opts InputOptions) error

	mu    sync.Mutex
	room  Room
	agent Agent
	opts  InputOptions

	startCalls atomic.Int32
	closeCalls atomic.Int32
	done       chan struct{}
	closeOnce  sync.Once
}

func newStubTransport(log *callLog) *stubTransport {
	return &stubTransport{log: log, done: make(chan struct{})}
}

func (t *stubTransport) Start(ctx context.Context, room Room, agent Agent, opts InputOptions) error {
	t.startCalls.Add(1)
	t.mu.Lock()
	t.room, t.agent, t.opts = room, agent, opts
	t.mu.Unlock()

	if t.start != nil {
		return t.start(ctx, room, agent, opts)
	}
	return nil
}

func (t *stubTransport) Done() <-chan struct{} { return t.done }

func (t *stubTransport) Close() error {
	t.closeCalls.Add(1)
	t.log.add("close transport")
	t.finish()
	return nil
}

func (t *stubTransport) finish() {
	t.closeOnce.Do(func() { close(t.done) })
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) record(event events.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) kinds() []events.Kind {
	l.mu.Lock()
	defer l.mu.Unlock()
	kinds := make([]events.Kind, 0, len(l.events))
	for _, event := range l.events {
		kinds = append(kinds, event.Kind())
	}
	return kinds
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Recognition.APIKey = "dg-key"
	cfg.Generation.APIKey = "google-key"
	return cfg
}

type stubCanceller struct{}

func (stubCanceller) Process(frame []byte) []byte { return frame }
