package observer

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/codes"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/nevindra/pedforum/extract"
)

// ContentExtractor converts a document into HTML and images.
// *extract.Extractor satisfies it.
type ContentExtractor interface {
	Extract(data []byte, ext string) (extract.Content, error)
}

// ObservedExtractor wraps a ContentExtractor with OTEL instrumentation.
type ObservedExtractor struct {
	inner ContentExtractor
	inst  *Instruments
}

// WrapExtractor returns an instrumented extractor.
func WrapExtractor(inner ContentExtractor, inst *Instruments) *ObservedExtractor {
	return &ObservedExtractor{inner: inner, inst: inst}
}

// Extract runs the wrapped extractor without a parent span.
func (o *ObservedExtractor) Extract(data []byte, ext string) (extract.Content, error) {
	return o.ExtractContext(context.Background(), data, ext)
}

// ExtractContext runs the wrapped extractor inside an "extract" span that is
// a child of any span in ctx.
func (o *ObservedExtractor) ExtractContext(ctx context.Context, data []byte, ext string) (extract.Content, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "extract", trace.WithAttributes(
		AttrExtension.String(ext),
		AttrInputBytes.Int(len(data)),
	))
	defer span.End()
	start := time.Now()

	content, err := o.inner.Extract(data, ext)

	durationMs := float64(time.Since(start).Microseconds()) / 1000
	format := formatLabel(ext)
	status := statusOf(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.SetAttributes(
		AttrFormat.String(format),
		AttrStatus.String(status),
		AttrHTMLBytes.Int(len(content.HTML)),
		AttrImageCount.Int(len(content.Images)),
		AttrSkippedImages.Int(len(content.Skipped)),
	)

	attrs := metric.WithAttributes(AttrFormat.String(format), AttrStatus.String(status))
	o.inst.ExtractRequests.Add(ctx, 1, attrs)
	o.inst.ExtractDuration.Record(ctx, durationMs, metric.WithAttributes(AttrFormat.String(format)))
	o.inst.InputSize.Record(ctx, int64(len(data)), metric.WithAttributes(AttrFormat.String(format)))
	if n := len(content.Images); n > 0 {
		o.inst.ExtractedImages.Add(ctx, int64(n), metric.WithAttributes(AttrFormat.String(format)))
	}
	if n := len(content.Skipped); n > 0 {
		o.inst.SkippedImages.Add(ctx, int64(n), metric.WithAttributes(AttrFormat.String(format)))
	}

	// Structured log
	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	if err != nil {
		rec.SetSeverity(otellog.SeverityWarn)
	}
	rec.SetBody(otellog.StringValue("document extracted"))
	rec.AddAttributes(
		otellog.String("extract.extension", ext),
		otellog.String("extract.status", status),
		otellog.Int("extract.input_bytes", len(data)),
		otellog.Int("extract.image_count", len(content.Images)),
		otellog.Int("extract.skipped_images", len(content.Skipped)),
		otellog.Float64("extract.duration_ms", durationMs),
	)
	o.inst.Logger.Emit(ctx, rec)

	return content, err
}

// formatLabel bounds metric cardinality: unknown extensions share one label.
func formatLabel(ext string) string {
	f, err := extract.FormatFor(ext)
	if err != nil {
		return "unsupported"
	}
	return string(f)
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return "unsupported"
	case errors.Is(err, extract.ErrExtraction):
		return "invalid"
	default:
		return "error"
	}
}
