package restyutil

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentOutput receives the formatted exchange of every response.
type InstrumentOutput interface {
	Write(id string, contents string) error
}

type instrumentCtx struct {
	name      string
	output    InstrumentOutput
	tracer    trace.Tracer
	idcounter *uint64
}

type messageIDKeyType int

var messageIDKey messageIDKeyType

// InstrumentClient wraps every request of client in a span. When output is
// not nil the full request and response of every exchange is written to it,
// prefixed by name.
func InstrumentClient(client *resty.Client, name string, output InstrumentOutput) {
	var idcounter uint64
	i := instrumentCtx{
		name:      name,
		output:    output,
		tracer:    otel.Tracer(name),
		idcounter: &idcounter,
	}
	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

func (i instrumentCtx) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx, span := i.tracer.Start(req.Context(), fmt.Sprintf("http %s", req.Method))
	span.SetAttributes(
		semconv.HTTPRequestMethodKey.String(req.Method),
		semconv.URLFull(req.URL),
	)
	messageID := fmt.Sprintf("%s-%s", i.name, strconv.FormatUint(atomic.AddUint64(i.idcounter, 1), 10))
	req.SetContext(context.WithValue(ctx, messageIDKey, messageID))
	return nil
}

func (i instrumentCtx) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(semconv.HTTPResponseStatusCode(res.StatusCode()))
	if res.StatusCode() >= 500 {
		span.SetStatus(codes.Error, res.Status())
	}

	if i.output != nil {
		if messageID, ok := ctx.Value(messageIDKey).(string); ok {
			if err := i.output.Write(messageID, formatExchange(res)); err != nil {
				span.RecordError(fmt.Errorf("dump %s: %w", messageID, err))
			}
		}
	}
	return nil
}

func (i instrumentCtx) onError(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, "request failed")
}
