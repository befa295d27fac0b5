package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/rpggio/courseflow/internal/domain/enrollment"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the tracer used by this package.
const InstrumentationName = "github.com/rpggio/courseflow/internal/telemetry"

// Recorder implements enrollment.Telemetry. Each interaction becomes a short
// span and a debug log line.
type Recorder struct {
	tracer trace.Tracer
	logger *slog.Logger
}

// NewRecorder creates a recorder. A nil tp uses the global provider.
func NewRecorder(tp trace.TracerProvider, logger *slog.Logger) *Recorder {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{tracer: tp.Tracer(InstrumentationName), logger: logger}
}

// Interact records an interaction event.
func (r *Recorder) Interact(ctx context.Context, in enrollment.Interaction) {
	attrs := []attribute.KeyValue{
		attribute.String("interact.type", in.Type),
		attribute.String("interact.subtype", in.Subtype),
		attribute.String("interact.env", in.Env),
		attribute.String("interact.page_id", in.PageID),
		attribute.String("object.id", in.Object.ID),
		attribute.String("object.type", in.Object.Type),
	}
	if in.Object.Version != "" {
		attrs = append(attrs, attribute.String("object.version", in.Object.Version))
	}
	if len(in.Rollup) > 0 {
		attrs = append(attrs, attribute.StringSlice("object.rollup", in.Rollup))
	}
	if len(in.Correlation) > 0 {
		ids := make([]string, 0, len(in.Correlation))
		for _, c := range in.Correlation {
			ids = append(ids, c.Type+":"+c.ID)
		}
		attrs = append(attrs, attribute.StringSlice("correlation", ids))
	}
	if len(in.Values) > 0 {
		if data, err := json.Marshal(in.Values); err == nil {
			attrs = append(attrs, attribute.String("interact.values", string(data)))
		}
	}

	_, span := r.tracer.Start(ctx, "interact "+in.Subtype,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	span.End()

	r.logger.Debug("interaction", "subtype", in.Subtype, "page_id", in.PageID, "object_id", in.Object.ID)
}

// Tracer returns the tracer spans are recorded with.
func (r *Recorder) Tracer() trace.Tracer {
	return r.tracer
}
