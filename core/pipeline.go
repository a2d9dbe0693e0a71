package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/koscakluka/ema-polyglot/core/language"
)

var ErrNoSynthesis = errors.New("no synthesis engine configured")

// Pipeline holds the engines of one session and the language they follow.
// Synthesis is nil when it is not configured.
type Pipeline struct {
	Recognition RecognitionEngine
	Generation  GenerationEngine
	Synthesis   SynthesisEngine
	Language    *language.Tracker
}

func (p *Pipeline) HasSynthesis() bool {
	return p != nil && p.Synthesis != nil
}

// Speak synthesizes text in the current session language and returns the
// audio together with the language it was spoken in.
func (p *Pipeline) Speak(ctx context.Context, text string) ([]byte, string, error) {
	if !p.HasSynthesis() {
		return nil, "", ErrNoSynthesis
	}

	code := p.Language.Current()
	audio, err := p.Synthesis.Synthesize(ctx, code, text)
	if err != nil {
		return nil, code, fmt.Errorf("failed to synthesize %s speech: %w", code, err)
	}
	return audio, code, nil
}

// close releases the engines in reverse build order.
func (p *Pipeline) close(ctx context.Context) error {
	if p == nil {
		return nil
	}

	var errs []error
	if p.Synthesis != nil {
		if err := p.Synthesis.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close synthesis engine: %w", err))
		}
	}
	if p.Generation != nil {
		if err := p.Generation.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close generation engine: %w", err))
		}
	}
	if p.Recognition != nil {
		if err := p.Recognition.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close recognition engine: %w", err))
		}
	}
	return errors.Join(errs...)
}
