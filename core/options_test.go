package orchestration

import (
	"log/slog"
	"testing"

	"github.com/koscakluka/ema-polyglot/core/config"
	"github.com/koscakluka/ema-polyglot/core/events"
)

func TestWithConfigTakesSnapshot(t *testing.T) {
	cfg := testConfig()
	cfg.Synthesis = config.DefaultSynthesis()

	o := NewOrchestrator(WithConfig(cfg))
	cfg.Synthesis.Voices["hi"] = "changed"
	cfg.Languages[0] = "fr"

	if got := o.config.Synthesis.Voices["hi"]; got != config.DefaultVoices["hi"] {
		t.Fatalf("expected snapshot voice, got %q", got)
	}
	if got := o.config.Languages[0]; got != "hi" {
		t.Fatalf("expected snapshot languages, got %q", got)
	}
}

func TestWithEngineFactoryNilKeepsDefault(t *testing.T) {
	o := NewOrchestrator(WithEngineFactory(nil))

	if _, ok := o.factory.(engineFactory); !ok {
		t.Fatalf("expected default engine factory, got %T", o.factory)
	}
}

func TestWithLoggerNilKeepsDefault(t *testing.T) {
	o := NewOrchestrator(WithLogger(nil))
	if o.logger == nil {
		t.Fatalf("expected default logger")
	}

	o = NewOrchestrator(WithLogger(slog.Default()))
	if o.logger == nil {
		t.Fatalf("expected custom logger")
	}
}

func TestTypedCallbacksRunBeforeEventCallback(t *testing.T) {
	var order []string
	o := NewOrchestrator(
		WithLanguageChangedCallback(func(from, to string) { order = append(order, "language "+from+"->"+to) }),
		WithTranscriptionCallback(func(transcript, language string) { order = append(order, "transcript "+transcript+"@"+language) }),
		WithResponseCallback(func(segment string) { order = append(order, "response "+segment) }),
		WithStateChangedCallback(func(from, to State) { order = append(order, "state "+string(from)+"->"+string(to)) }),
		WithEventCallback(func(event events.Event) { order = append(order, "event "+string(event.Kind())) }),
	)

	o.emitEvent(events.NewLanguageChanged("en", "hi"))
	o.emitEvent(events.NewUserTranscriptFinal("namaste", "hi"))
	o.emitEvent(events.NewAssistantResponseSegment("hello"))
	o.emitEvent(events.NewSessionStateChanged("ready", "active"))

	want := []string{
		"language en->hi", "event " + string(events.KindLanguageChanged),
		"transcript namaste@hi", "event " + string(events.KindUserTranscriptFinal),
		"response hello", "event " + string(events.KindAssistantResponseSegment),
		"state ready->active", "event " + string(events.KindSessionStateChanged),
	}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}
