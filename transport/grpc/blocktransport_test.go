package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/unyt-org/datex-core-go/comhub"
)

func startBufconnServer(t *testing.T, onAccept func(comhub.ComInterface)) (*bufconn.Listener, func()) {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterBlockTransportServer(srv, NewService(NoopLogger(), onAccept))

	go func() { _ = srv.Serve(lis) }()
	return lis, srv.Stop
}

func dialBufconn(t *testing.T, lis *bufconn.Listener) *grpc.ClientConn {
	t.Helper()
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	return conn
}

func TestStreamInterfaceSendReceiveRoundTrip(t *testing.T) {
	accepted := make(chan comhub.ComInterface, 1)
	lis, stop := startBufconnServer(t, func(iface comhub.ComInterface) {
		accepted <- iface
	})
	defer stop()

	conn := dialBufconn(t, lis)
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := NewBlockTransportClient(conn).Stream(ctx)
	require.NoError(t, err)
	clientIface := NewStreamInterface("client", comhub.Properties{}, stream, cancel)

	var serverIface comhub.ComInterface
	select {
	case serverIface = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted the stream")
	}

	require.NoError(t, clientIface.Send(ctx, []byte("hello")))
	got, err := serverIface.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	require.NoError(t, serverIface.Send(ctx, []byte("world")))
	got, err = clientIface.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), got)
}

func TestStreamInterfaceProperties(t *testing.T) {
	iface := NewStreamInterface("id-1", comhub.Properties{Latency: 5}, nil, nil)
	assert.Equal(t, "id-1", iface.ID())
	assert.Equal(t, "grpc", iface.Properties().Channel)
	assert.True(t, iface.Properties().ContinuousConnection)
	assert.Equal(t, float64(5), iface.Properties().Latency)
}

func TestStreamInterfaceCloseCancels(t *testing.T) {
	canceled := false
	iface := NewStreamInterface("id-2", comhub.Properties{}, nil, func() { canceled = true })
	require.NoError(t, iface.Close(context.Background()))
	assert.True(t, canceled)
}
