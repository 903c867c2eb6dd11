package grpc

import (
	"context"

	"github.com/google/uuid"

	"github.com/unyt-org/datex-core-go/comhub"
)

// Service implements BlockTransportServer: every accepted stream is
// wrapped as a comhub.ComInterface and handed to onAccept, then the
// handler blocks until the stream's context is done. The actual reading
// of block bytes happens in the ComHub's own deliverLoop, started by
// onAccept registering the interface; Service itself defers all real work
// to the injected comhub.ComHub behind a constructor that takes a Logger
// and the onAccept callback.
type Service struct {
	logger   Logger
	onAccept func(iface comhub.ComInterface)
}

// NewService constructs a BlockTransportServer. onAccept is called once
// per accepted stream with the wrapped interface; the caller is expected
// to register it with a comhub.ComHub (and unregister it once Stream
// returns).
func NewService(logger Logger, onAccept func(iface comhub.ComInterface)) *Service {
	if logger == nil {
		logger = NoopLogger()
	}
	return &Service{logger: logger, onAccept: onAccept}
}

// Stream implements BlockTransportServer.
func (s *Service) Stream(stream BlockTransport_StreamServer) error {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(stream.Context())
	iface := NewStreamInterface(id, comhub.Properties{Direction: comhub.DirectionBidirectional}, stream, cancel)

	s.logger.Info("grpc stream accepted", "interface_id", id)
	if s.onAccept != nil {
		s.onAccept(iface)
	}

	<-ctx.Done()
	s.logger.Info("grpc stream closed", "interface_id", id)
	return stream.Context().Err()
}
