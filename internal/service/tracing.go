package service

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/noah-isme/exam-portal-api/internal/service"

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// spanFailure marks the span failed and returns err unchanged.
func spanFailure(span trace.Span, err error, reason string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	return err
}
