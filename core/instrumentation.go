package orchestration

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/sunday/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	turnCounter, _ = meter.Int64Counter("sunday.turns",
		metric.WithDescription("Turns started from an utterance or typed text."))
	turnFailureCounter, _ = meter.Int64Counter("sunday.turns.failed",
		metric.WithDescription("Turns that ended with a chat or synthesis error."))
	restartCounter, _ = meter.Int64Counter("sunday.capture.restarts",
		metric.WithDescription("Recognition attempts restarted while push-to-talk was held."))
)
