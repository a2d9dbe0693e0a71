package google

import "go.opentelemetry.io/otel"

const scopeName = "github.com/koscakluka/ema-polyglot/core/texttospeech/google"

var tracer = otel.Tracer(scopeName)
