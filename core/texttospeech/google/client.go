// Package google synthesizes speech with the Google Cloud Text-to-Speech API,
// picking one configured voice per language.
package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/koscakluka/ema-polyglot/core/audio"
	"github.com/koscakluka/ema-polyglot/core/language"
	"github.com/koscakluka/ema-polyglot/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/option"
	tts "google.golang.org/api/texttospeech/v1"
)

const wavHeaderSize = 44

var (
	ErrMissingAPIKey = errors.New("google tts: api key required")
	ErrNoVoice       = errors.New("google tts: no voice for language")
)

type synthesizeFunc func(ctx context.Context, request *tts.SynthesizeSpeechRequest) (*tts.SynthesizeSpeechResponse, error)

type Client struct {
	voices     map[string]string
	options    texttospeech.SynthesisOptions
	synthesize synthesizeFunc
}

// NewClient creates a client speaking each language in voices with the
// mapped voice name. Voice names carry their locale, e.g. hi-IN-Neural2-A.
func NewClient(ctx context.Context, apiKey string, voices map[string]string, opts ...texttospeech.SynthesisOption) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	service, err := tts.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech service: %w", err)
	}

	return newClient(voices, func(ctx context.Context, request *tts.SynthesizeSpeechRequest) (*tts.SynthesizeSpeechResponse, error) {
		return service.Text.Synthesize(request).Context(ctx).Do()
	}, opts...)
}

func newClient(voices map[string]string, synthesize synthesizeFunc, opts ...texttospeech.SynthesisOption) (*Client, error) {
	options := texttospeech.NewSynthesisOptions(opts...)
	if _, err := audioEncoding(options.EncodingInfo.Format); err != nil {
		return nil, err
	}

	normalized := make(map[string]string, len(voices))
	for code, voice := range voices {
		normalized[language.Primary(code)] = voice
	}

	return &Client{
		voices:     normalized,
		options:    options,
		synthesize: synthesize,
	}, nil
}

// Voice returns the voice configured for languageCode.
func (c *Client) Voice(languageCode string) (string, bool) {
	voice, ok := c.voices[language.Primary(languageCode)]
	return voice, ok && voice != ""
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return c.options.EncodingInfo
}

// Synthesize returns raw audio of text spoken with the voice of languageCode.
func (c *Client) Synthesize(ctx context.Context, languageCode, text string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()

	voice, ok := c.Voice(languageCode)
	if !ok {
		err := fmt.Errorf("%w %q", ErrNoVoice, languageCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("tts.language", languageCode),
		attribute.String("tts.voice", voice),
	)

	encoding, _ := audioEncoding(c.options.EncodingInfo.Format)
	response, err := c.synthesize(ctx, &tts.SynthesizeSpeechRequest{
		Input: &tts.SynthesisInput{Text: text},
		Voice: &tts.VoiceSelectionParams{
			LanguageCode: voiceLanguageCode(voice, languageCode),
			Name:         voice,
		},
		AudioConfig: &tts.AudioConfig{
			AudioEncoding:   encoding,
			SampleRateHertz: int64(c.options.EncodingInfo.SampleRate),
		},
	})
	if err != nil {
		err = fmt.Errorf("failed to synthesize speech: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(response.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("failed to decode synthesized audio: %w", err)
	}
	return stripWAVHeader(data), nil
}

func (c *Client) Close(_ context.Context) error {
	return nil
}

// voiceLanguageCode derives the BCP-47 locale from a voice name such as
// en-US-Neural2-C, falling back to the language code.
func voiceLanguageCode(voice, fallback string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) >= 2 && len(parts[0]) >= 2 && len(parts[1]) >= 2 {
		return parts[0] + "-" + parts[1]
	}
	return fallback
}

func audioEncoding(format audio.Format) (string, error) {
	switch format {
	case audio.EncodingLinear16:
		return "LINEAR16", nil
	case audio.EncodingMulaw:
		return "MULAW", nil
	case audio.EncodingALaw:
		return "ALAW", nil
	}
	return "", fmt.Errorf("google tts: unsupported audio format %q", format)
}

// stripWAVHeader drops the RIFF header the API puts in front of
// uncompressed audio.
func stripWAVHeader(data []byte) []byte {
	if len(data) >= wavHeaderSize && bytes.HasPrefix(data, []byte("RIFF")) {
		return data[wavHeaderSize:]
	}
	return data
}
