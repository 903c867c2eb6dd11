package grpc

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/unyt-org/datex-core-go/comhub"
	"github.com/unyt-org/datex-core-go/observability"
)

// tracer emits one span per block send/receive, so a block's path across
// the gRPC BlockTransport shows up alongside the otelgrpc-instrumented
// unary/stream calls the interceptors in interceptors.go already record.
var tracer = otel.Tracer("github.com/unyt-org/datex-core-go/transport/grpc")

// blockStream is the common surface of BlockTransport_StreamServer and
// BlockTransport_StreamClient that StreamInterface needs: both satisfy it
// structurally without either referencing the other.
type blockStream interface {
	Send(*wrapperspb.BytesValue) error
	Recv() (*wrapperspb.BytesValue, error)
}

// StreamInterface adapts one gRPC BlockTransport stream — either an
// accepted server-side stream or a dialed client-side stream — into a
// comhub.ComInterface. The ComHub's own deliverLoop goroutine owns all
// Recv calls; StreamInterface does no buffering of its own.
type StreamInterface struct {
	id     string
	props  comhub.Properties
	stream blockStream
	cancel context.CancelFunc
}

// NewStreamInterface wraps an established stream under id, reporting
// props to the ComHub's router. cancel, if non-nil, is called by Close to
// tear down the stream (e.g. the cancel of the client-side stream's context,
// or of the server-side stream's context); Dial closes the grpc.ClientConn
// separately.
func NewStreamInterface(id string, props comhub.Properties, stream blockStream, cancel context.CancelFunc) *StreamInterface {
	props.Channel = "grpc"
	props.ContinuousConnection = true
	return &StreamInterface{id: id, props: props, stream: stream, cancel: cancel}
}

func (s *StreamInterface) ID() string { return s.id }

func (s *StreamInterface) Properties() comhub.Properties { return s.props }

func (s *StreamInterface) Send(ctx context.Context, raw []byte) error {
	ctx, span := tracer.Start(ctx, "datex.block.send", trace.WithAttributes(
		attribute.String("datex.interface_id", s.id),
		attribute.Int("datex.block.bytes", len(raw)),
	))
	defer span.End()

	start := time.Now()
	err := s.stream.Send(wrapperspb.Bytes(raw))
	status := "OK"
	if err != nil {
		status = "Internal"
		span.RecordError(err)
	}
	observability.RecordGRPCRequest("/"+blockTransportServiceName+"/Send", status, int(time.Since(start).Milliseconds()))
	return err
}

func (s *StreamInterface) Receive(ctx context.Context) ([]byte, error) {
	_, span := tracer.Start(ctx, "datex.block.receive", trace.WithAttributes(
		attribute.String("datex.interface_id", s.id),
	))
	defer span.End()

	m, err := s.stream.Recv()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("grpc stream %s: %w", s.id, err)
	}
	span.SetAttributes(attribute.Int("datex.block.bytes", len(m.GetValue())))
	return m.GetValue(), nil
}

func (s *StreamInterface) Close(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}
