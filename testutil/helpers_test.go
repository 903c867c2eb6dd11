package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unyt-org/datex-core-go/comhub"
	"github.com/unyt-org/datex-core-go/routing"
)

func TestMustEndpoint(t *testing.T) {
	ep := MustEndpoint(t, "@alice")
	assert.Equal(t, "@alice", ep.String())
}

func TestLoopbackInterfaceSendReceive(t *testing.T) {
	l := NewLoopbackInterface("loop-1", comhub.Properties{})
	assert.Equal(t, "loop-1", l.ID())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, l.Send(ctx, []byte("payload")))

	got, err := l.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestLoopbackInterfaceReceiveRespectsContext(t *testing.T) {
	l := NewLoopbackInterface("loop-2", comhub.Properties{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := l.Receive(ctx)
	require.Error(t, err)
}

func TestNewTestBlockAddressing(t *testing.T) {
	alice := MustEndpoint(t, "@alice")
	bob := MustEndpoint(t, "@bob")

	blk := NewTestBlock(t, alice, bob, 7, 1, routing.BlockTypeRequest, []byte("x"))
	assert.True(t, alice.Equal(blk.Routing.Sender))
	assert.Equal(t, uint32(7), blk.Header.ContextID)
	assert.Equal(t, routing.BlockTypeRequest, blk.Header.Type)
	require.Len(t, blk.Routing.Receivers.Endpoints, 1)
	assert.True(t, bob.Equal(blk.Routing.Receivers.Endpoints[0]))
}

func TestLoggerCapturesEntries(t *testing.T) {
	logger := NewLogger()

	logger.Info("test message", "key", "value")
	logger.Error("error message", "error", "something")

	entries := logger.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "error", entries[1].Level)
	assert.True(t, logger.HasLog("info", "test message"))
	assert.True(t, logger.HasLog("error", "error message"))
	assert.Equal(t, "value", entries[0].Fields["key"])
}
