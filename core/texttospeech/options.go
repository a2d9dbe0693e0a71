package texttospeech

import "github.com/koscakluka/ema-polyglot/core/audio"

type SynthesisOptions struct {
	EncodingInfo audio.EncodingInfo
}

type SynthesisOption func(*SynthesisOptions)

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SynthesisOption {
	return func(o *SynthesisOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}

// NewSynthesisOptions applies opts over 24kHz linear16 output.
func NewSynthesisOptions(opts ...SynthesisOption) SynthesisOptions {
	options := SynthesisOptions{
		EncodingInfo: audio.EncodingInfo{SampleRate: 24000, Format: audio.EncodingLinear16},
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
