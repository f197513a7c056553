package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// Span names. A tick span parents the exchange it runs, which parents the
// selection and, when it runs, the conversation search.
const (
	SpanTick     = "ambient.tick"
	SpanExchange = "dialogue.exchange"
	SpanSelect   = "selector.select"
	SpanSearch   = "selector.search"
)

const scope = "github.com/frogmud/NEVERDIEGUY26-sub001"

func tracer() trace.Tracer { return otel.Tracer(scope) }

// StartSpan starts an internal span named name carrying attrs. End it with
// span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// TickAttrs describes an ambient tick over a world of npcs characters.
func TickAttrs(turn int64, npcs int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64("npc.turn", turn),
		attribute.Int("ambient.npcs", npcs),
	}
}

// TurnAttrs identifies one conversational turn.
func TurnAttrs(speaker, listener types.NPCID, turn int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("npc.speaker", string(speaker)),
		attribute.String("npc.listener", string(listener)),
		attribute.Int64("npc.turn", turn),
	}
}

// SearchAttrs describes the candidates and iteration cap of a search.
func SearchAttrs(candidates, maxIterations int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("search.candidates", candidates),
		attribute.Int("search.max_iterations", maxIterations),
	}
}

// CorrelationID is the trace id of the span in ctx, or "" outside a span.
// Every log line of one tick shares it.
func CorrelationID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default logger tagged with the correlation id of ctx.
func Logger(ctx context.Context) *slog.Logger {
	if id := CorrelationID(ctx); id != "" {
		return slog.Default().With(slog.String("trace_id", id))
	}
	return slog.Default()
}
