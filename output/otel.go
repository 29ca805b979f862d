package output

import (
	"context"
	"time"

	"entrosift/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	otelLog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

// otelLogger mirrors match and metrics records to an OTLP/HTTP logs
// endpoint. File paths are withheld unless explicitly opted in.
type otelLogger struct {
	provider     *sdklog.LoggerProvider
	logger       otelLog.Logger
	timeout      time.Duration
	includePaths bool
}

func newOtelLogger(cfg *config.Config) (*otelLogger, error) {
	if cfg == nil || cfg.OtelEndpoint == "" {
		return nil, nil
	}

	opts := []otlploghttp.Option{otlploghttp.WithEndpointURL(cfg.OtelEndpoint)}
	if len(cfg.OtelHeaders) > 0 {
		opts = append(opts, otlploghttp.WithHeaders(cfg.OtelHeaders))
	}
	if cfg.OtelTimeout > 0 {
		opts = append(opts, otlploghttp.WithTimeout(cfg.OtelTimeout))
	}

	exp, err := otlploghttp.New(context.Background(), opts...)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(cfg.OtelServiceName),
	)
	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
		sdklog.WithResource(res),
	)

	return &otelLogger{
		provider:     provider,
		logger:       provider.Logger("entrosift"),
		timeout:      cfg.OtelTimeout,
		includePaths: cfg.OtelExportPaths,
	}, nil
}

func (o *otelLogger) EmitMatch(rec *MatchRecord) {
	if o == nil || o.logger == nil || rec == nil {
		return
	}
	var record otelLog.Record
	record.SetTimestamp(time.Now())
	record.SetObservedTimestamp(time.Now())
	record.SetEventName("entrosift.match")
	record.AddAttributes(
		otelLog.String("record_type", "match"),
		otelLog.Float64("entropy", rec.Entropy),
		otelLog.String("method", rec.Method.String()),
		otelLog.Int64("size_bytes", rec.SizeBytes),
		otelLog.String("mime_type", rec.MimeType),
	)
	if o.includePaths {
		record.AddAttributes(otelLog.String("path", rec.Path))
	}
	o.logger.Emit(context.Background(), record)
}

func (o *otelLogger) EmitMetrics(metrics *Metrics) {
	if o == nil || o.logger == nil || metrics == nil {
		return
	}
	var record otelLog.Record
	record.SetTimestamp(time.Now())
	record.SetObservedTimestamp(time.Now())
	record.SetEventName("entrosift.metrics")
	record.AddAttributes(
		otelLog.String("record_type", "metrics"),
		otelLog.String("start_time", metrics.StartTime),
		otelLog.String("end_time", metrics.EndTime),
		otelLog.Int64("files_processed", metrics.FilesProcessed),
		otelLog.Int64("files_skipped", metrics.FilesSkipped),
		otelLog.Int64("matches_found", metrics.MatchesFound),
		otelLog.Int64("batches_flushed", int64(metrics.BatchesFlushed)),
	)
	o.logger.Emit(context.Background(), record)
}

func (o *otelLogger) Shutdown() {
	if o == nil || o.provider == nil {
		return
	}
	timeout := o.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = o.provider.Shutdown(ctx)
}
