package tracing

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanResolve = "extreg.resolve"
	SpanLoad    = "extreg.load"
)

// Span attribute keys.
const (
	AttrCorrelationID = "extreg.correlation_id"
	AttrDescriptors   = "extreg.descriptors"
	AttrGraphVersion  = "extreg.graph.version"
	AttrFingerprint   = "extreg.graph.fingerprint"
	AttrCacheHit      = "extreg.cache_hit"
	AttrPaths         = "extreg.paths"
	AttrErrorType     = "error.type"
)

// EndWithError records err on span, if any, and ends it.
func EndWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorType, fmt.Sprintf("%T", err)))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
