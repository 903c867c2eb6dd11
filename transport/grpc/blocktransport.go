package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// This file hand-authors the gRPC service descriptor for BlockTransport
// instead of generating it from a .proto file: the wire message is a
// single opaque byte string (wrapperspb.BytesValue already implements
// proto.Message), so the only thing protoc would otherwise generate —
// the ServiceDesc/client stub plumbing below — is small enough to write
// directly: there's no .proto at all, just a bidirectional stream of
// bytes.

const blockTransportServiceName = "datex.transport.BlockTransport"

// BlockTransportServer is implemented by a type that accepts a bidi
// stream of serialized routing.Block bytes.
type BlockTransportServer interface {
	Stream(BlockTransport_StreamServer) error
}

// BlockTransport_StreamServer is the server-side half of one accepted
// bidi stream.
type BlockTransport_StreamServer interface {
	Send(*wrapperspb.BytesValue) error
	Recv() (*wrapperspb.BytesValue, error)
	grpc.ServerStream
}

type blockTransportStreamServer struct {
	grpc.ServerStream
}

func (x *blockTransportStreamServer) Send(m *wrapperspb.BytesValue) error {
	return x.ServerStream.SendMsg(m)
}

func (x *blockTransportStreamServer) Recv() (*wrapperspb.BytesValue, error) {
	m := new(wrapperspb.BytesValue)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func blockTransportStreamHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(BlockTransportServer).Stream(&blockTransportStreamServer{stream})
}

// blockTransportServiceDesc is what protoc-gen-go-grpc would otherwise
// emit for a `service BlockTransport { rpc Stream(stream BytesValue)
// returns (stream BytesValue); }` definition.
var blockTransportServiceDesc = grpc.ServiceDesc{
	ServiceName: blockTransportServiceName,
	HandlerType: (*BlockTransportServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Stream",
			Handler:       blockTransportStreamHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "transport/grpc/blocktransport.go",
}

// RegisterBlockTransportServer attaches srv to s under the BlockTransport
// service name.
func RegisterBlockTransportServer(s grpc.ServiceRegistrar, srv BlockTransportServer) {
	s.RegisterService(&blockTransportServiceDesc, srv)
}

// BlockTransportClient opens outbound bidi streams to a remote
// BlockTransport service.
type BlockTransportClient interface {
	Stream(ctx context.Context, opts ...grpc.CallOption) (BlockTransport_StreamClient, error)
}

type blockTransportClient struct {
	cc grpc.ClientConnInterface
}

// NewBlockTransportClient wraps an established *grpc.ClientConn.
func NewBlockTransportClient(cc grpc.ClientConnInterface) BlockTransportClient {
	return &blockTransportClient{cc: cc}
}

func (c *blockTransportClient) Stream(ctx context.Context, opts ...grpc.CallOption) (BlockTransport_StreamClient, error) {
	stream, err := c.cc.NewStream(ctx, &blockTransportServiceDesc.Streams[0], "/"+blockTransportServiceName+"/Stream", opts...)
	if err != nil {
		return nil, err
	}
	return &blockTransportStreamClient{stream}, nil
}

// BlockTransport_StreamClient is the client-side half of one dialed bidi
// stream.
type BlockTransport_StreamClient interface {
	Send(*wrapperspb.BytesValue) error
	Recv() (*wrapperspb.BytesValue, error)
	grpc.ClientStream
}

type blockTransportStreamClient struct {
	grpc.ClientStream
}

func (x *blockTransportStreamClient) Send(m *wrapperspb.BytesValue) error {
	return x.ClientStream.SendMsg(m)
}

func (x *blockTransportStreamClient) Recv() (*wrapperspb.BytesValue, error) {
	m := new(wrapperspb.BytesValue)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
