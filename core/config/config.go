// Package config holds the per-engine configuration of a voice session and
// loads it from the process environment and an optional JSON file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-polyglot/core/language"
)

const (
	// EnvDeepgramAPIKey holds the recognition engine credential.
	EnvDeepgramAPIKey = "DEEPGRAM_API_KEY"
	// EnvGoogleAPIKey holds the generation and synthesis engine credential.
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
)

const (
	DefaultLanguage         = "en"
	DefaultRecognitionModel = "nova-2"
	DefaultGenerationModel  = "gemini-2.0-flash-exp"
	DefaultGenerationVoice  = "Puck"
	DefaultTemperature      = 0.7

	// ReplyAudio has the generation engine speak its replies.
	ReplyAudio = "audio"
	// ReplyText has the generation engine answer in text that the synthesis
	// engine speaks in the session language.
	ReplyText = "text"

	DefaultGreeting = "नमस्ते! (Namaste!) Hello! I can speak in Hindi and English. " +
		"How can I help you today?"
)

// DefaultLanguages is the supported language set used when none is
// configured.
var DefaultLanguages = []string{"hi", "en"}

// DefaultVoices maps each default language to a Google neural voice.
var DefaultVoices = map[string]string{
	"hi": "hi-IN-Neural2-A",
	"en": "en-US-Neural2-C",
}

type Config struct {
	// Languages the session can route replies to.
	Languages []string `json:"languages" jsonschema:"minItems=1,example=hi,example=en"`
	// DefaultLanguage is used until a supported language is detected and
	// whenever detection is ambiguous.
	DefaultLanguage string `json:"default_language" jsonschema:"default=en"`
	// Greeting is sent once when the session becomes active. It is static
	// and should be understandable in every supported language.
	Greeting string `json:"greeting,omitempty"`

	Recognition Recognition `json:"recognition"`
	Generation  Generation  `json:"generation"`
	// Synthesis is optional, a nil value leaves it out of the pipeline.
	Synthesis *Synthesis `json:"synthesis,omitempty"`

	NoiseCancellation bool `json:"noise_cancellation" jsonschema:"default=true"`
}

type Recognition struct {
	APIKey string `json:"api_key,omitempty" jsonschema:"description=Falls back to DEEPGRAM_API_KEY"`
	Model  string `json:"model" jsonschema:"default=nova-2"`
}

type Generation struct {
	APIKey      string  `json:"api_key,omitempty" jsonschema:"description=Falls back to GOOGLE_API_KEY"`
	Model       string  `json:"model" jsonschema:"default=gemini-2.0-flash-exp"`
	Voice       string  `json:"voice" jsonschema:"default=Puck"`
	Temperature float64 `json:"temperature" jsonschema:"minimum=0,maximum=2,default=0.7"`
	Replies     string  `json:"replies" jsonschema:"enum=audio,enum=text,default=audio"`
	// Instructions steer the engine's language choice. Left empty, they are
	// derived from the supported languages and the default language.
	Instructions string `json:"instructions,omitempty"`
}

type Synthesis struct {
	APIKey string `json:"api_key,omitempty" jsonschema:"description=Falls back to GOOGLE_API_KEY"`
	// Voices maps every supported language code to a synthesis voice.
	Voices map[string]string `json:"voices"`
}

// Default returns a configuration without credentials and without a
// synthesis engine.
func Default() Config {
	return Config{
		Languages:       append([]string(nil), DefaultLanguages...),
		DefaultLanguage: DefaultLanguage,
		Greeting:        DefaultGreeting,
		Recognition: Recognition{
			Model: DefaultRecognitionModel,
		},
		Generation: Generation{
			Model:       DefaultGenerationModel,
			Voice:       DefaultGenerationVoice,
			Temperature: DefaultTemperature,
			Replies:     ReplyAudio,
		},
		NoiseCancellation: true,
	}
}

// DefaultSynthesis returns the synthesis configuration for the default
// languages.
func DefaultSynthesis() *Synthesis {
	voices := make(map[string]string, len(DefaultVoices))
	for code, voice := range DefaultVoices {
		voices[code] = voice
	}
	return &Synthesis{Voices: voices}
}

// FromEnv returns the default configuration with credentials read from the
// environment.
func FromEnv() Config {
	cfg := Default()
	cfg.ApplyEnv()
	return cfg
}

// Load reads a JSON configuration file on top of the defaults and fills
// missing credentials from the environment. An empty path only applies the
// environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv fills empty credentials from the environment. Credentials that
// are already set are kept.
func (c *Config) ApplyEnv() {
	if c.Recognition.APIKey == "" {
		c.Recognition.APIKey, _ = os.LookupEnv(EnvDeepgramAPIKey)
	}

	googleAPIKey, _ := os.LookupEnv(EnvGoogleAPIKey)
	if c.Generation.APIKey == "" {
		c.Generation.APIKey = googleAPIKey
	}
	if c.Synthesis != nil && c.Synthesis.APIKey == "" {
		c.Synthesis.APIKey = googleAPIKey
	}
}

// LanguageSet builds the supported language set.
func (c Config) LanguageSet() (language.Set, error) {
	return language.NewSet(c.Languages...)
}

// Validate checks the language settings and value ranges. Credentials are
// checked when the engines are built, not here.
func (c Config) Validate() error {
	set, err := c.LanguageSet()
	if err != nil {
		return err
	}
	if !set.Contains(language.Normalize(c.DefaultLanguage)) {
		return fmt.Errorf("config: default language %q is not one of %q", c.DefaultLanguage, set.String())
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return errors.New("config: generation temperature must be between 0 and 2")
	}
	switch c.Generation.Replies {
	case ReplyAudio:
	case ReplyText:
		if c.Synthesis == nil {
			return errors.New("config: text replies need a synthesis engine")
		}
	default:
		return fmt.Errorf("config: unknown reply mode %q", c.Generation.Replies)
	}
	return nil
}

// Clone returns a deep copy, so callers can hand out snapshots without
// sharing the voice map.
func (c Config) Clone() Config {
	var clone Config
	if err := copier.CopyWithOption(&clone, &c, copier.Option{DeepCopy: true}); err != nil {
		// Copying between identical types cannot fail.
		panic(fmt.Sprintf("config: failed to clone: %v", err))
	}
	return clone
}

// Redacted returns a deep copy with every credential masked.
func (c Config) Redacted() Config {
	clone := c.Clone()
	clone.Recognition.APIKey = redact(clone.Recognition.APIKey)
	clone.Generation.APIKey = redact(clone.Generation.APIKey)
	if clone.Synthesis != nil {
		clone.Synthesis.APIKey = redact(clone.Synthesis.APIKey)
	}
	return clone
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}

// Schema returns the JSON schema of the configuration file.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	return reflector.Reflect(&Config{})
}
