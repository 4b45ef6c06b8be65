package observability

import (
	"context"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// XRayTracer adds X-Ray subsegments under the segment Lambda opens for
// each invocation. Outside Lambda there is no segment and calls pass
// straight through.
type XRayTracer struct {
	serviceName string
}

// NewXRayTracer creates a new tracer instance
func NewXRayTracer(serviceName string) *XRayTracer {
	return &XRayTracer{serviceName: serviceName}
}

// TraceFunction runs fn inside a subsegment named name.
func (t *XRayTracer) TraceFunction(ctx context.Context, name string, fn func(context.Context) error) error {
	if xray.GetSegment(ctx) == nil {
		return fn(ctx)
	}
	ctx, seg := xray.BeginSubsegment(ctx, name)
	seg.AddAnnotation("service", t.serviceName)

	err := fn(ctx)
	seg.Close(err)
	return err
}

// AddAnnotation adds an indexed annotation to the current segment
func (t *XRayTracer) AddAnnotation(ctx context.Context, key, value string) {
	if seg := xray.GetSegment(ctx); seg != nil {
		_ = seg.AddAnnotation(key, value)
	}
}

// AddMetadata adds metadata to the current segment
func (t *XRayTracer) AddMetadata(ctx context.Context, key string, value interface{}) {
	if seg := xray.GetSegment(ctx); seg != nil {
		_ = seg.AddMetadata(key, value)
	}
}
