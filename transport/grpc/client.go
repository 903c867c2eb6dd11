package grpc

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/unyt-org/datex-core-go/comhub"
)

// Dial opens a BlockTransport stream to target and returns it wrapped as
// a comhub.ComInterface, along with a function that closes both the
// stream and the underlying connection.
func Dial(ctx context.Context, target string, logger Logger) (comhub.ComInterface, func() error, error) {
	if logger == nil {
		logger = NoopLogger()
	}

	conn, err := grpc.NewClient(target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("grpc: dial %s: %w", target, err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := NewBlockTransportClient(conn).Stream(streamCtx)
	if err != nil {
		cancel()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("grpc: open stream to %s: %w", target, err)
	}

	id := uuid.NewString()
	iface := NewStreamInterface(id, comhub.Properties{Direction: comhub.DirectionBidirectional}, stream, cancel)

	closeFn := func() error {
		iface.cancel()
		return conn.Close()
	}
	logger.Info("grpc dial established", "interface_id", id, "target", target)
	return iface, closeFn, nil
}
