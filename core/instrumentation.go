package orchestration

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const scopeName = "github.com/koscakluka/ema-polyglot/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var languageSwitches = newLanguageSwitchCounter()

func newLanguageSwitchCounter() metric.Int64Counter {
	counter, err := meter.Int64Counter("ema.language.switches",
		metric.WithDescription("Number of times the session language changed"),
		metric.WithUnit("{switch}"))
	if err != nil {
		otel.Handle(err)
		return noop.Int64Counter{}
	}
	return counter
}
