// Package testutil provides shared test helpers for the DATEX runtime's own
// test suites: an endpoint-parsing helper, a loopback comhub.ComInterface,
// a routing.Block builder, and a capturing Logger — the same small set of
// fixtures comhub/hub_test.go, runtime/runtime_test.go, and
// transport/grpc's tests would otherwise each redefine.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unyt-org/datex-core-go/comhub"
	"github.com/unyt-org/datex-core-go/endpoint"
	"github.com/unyt-org/datex-core-go/routing"
)

// MustEndpoint parses s, failing the test immediately on error.
func MustEndpoint(t *testing.T, s string) endpoint.Endpoint {
	t.Helper()
	ep, err := endpoint.Parse(s)
	require.NoError(t, err)
	return ep
}

// =============================================================================
// LOOPBACK COMINTERFACE
// =============================================================================

// LoopbackInterface is a comhub.ComInterface whose every Send feeds
// straight into its own inbound channel, simulating a transport whose
// other end is the same process. Grounded on comhub/hub_test.go's
// loopbackInterface, promoted here so other packages' tests (runtime,
// transport/grpc) can reuse it instead of redefining their own.
type LoopbackInterface struct {
	id    string
	props comhub.Properties
	in    chan []byte
}

// NewLoopbackInterface constructs a LoopbackInterface with a buffered
// inbound channel.
func NewLoopbackInterface(id string, props comhub.Properties) *LoopbackInterface {
	return &LoopbackInterface{id: id, props: props, in: make(chan []byte, 16)}
}

func (l *LoopbackInterface) ID() string                    { return l.id }
func (l *LoopbackInterface) Properties() comhub.Properties { return l.props }

func (l *LoopbackInterface) Send(ctx context.Context, raw []byte) error {
	select {
	case l.in <- raw:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *LoopbackInterface) Receive(ctx context.Context) ([]byte, error) {
	select {
	case b := <-l.in:
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *LoopbackInterface) Close(ctx context.Context) error { return nil }

// =============================================================================
// BLOCK BUILDER
// =============================================================================

// NewTestBlock builds a minimal, well-formed routing.Block addressed from
// sender to receiver, the shape every ComHub test needs and otherwise
// hand-assembles field by field.
func NewTestBlock(t *testing.T, sender, receiver endpoint.Endpoint, ctxID uint32, blockNo uint16, btype routing.BlockType, body []byte) routing.Block {
	t.Helper()
	return routing.Block{
		Routing: routing.RoutingHeader{
			Version: routing.SupportedVersion,
			TTL:     10,
			Flags: routing.RoutingFlags{
				ReceiverType:   routing.ReceiverReceivers,
				BlockSizeWidth: routing.BlockSizeDefault,
			},
			Sender:    sender,
			Receivers: routing.Receivers{Endpoints: []endpoint.Endpoint{receiver}},
		},
		Header: routing.BlockHeader{
			ContextID:         ctxID,
			BlockNumber:       blockNo,
			Type:              btype,
			AllowExecution:    true,
			IsEndOfSection:    true,
			CreationTimestamp: 1000,
		},
		Body: body,
	}
}

// =============================================================================
// CAPTURING LOGGER
// =============================================================================

// LogEntry is one captured call to a Logger method.
type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]any
}

// Logger captures every Debug/Info/Warn/Error call for assertion. Its
// method set matches comhub.Logger, engine.Logger, runtime.Logger, and
// transport/grpc.Logger exactly (all four are the same shape), so one
// value serves as the injected logger across every subsystem's tests.
type Logger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

// NewLogger constructs an empty capturing Logger.
func NewLogger() *Logger { return &Logger{} }

func (l *Logger) Debug(msg string, keysAndValues ...any) { l.log("debug", msg, keysAndValues...) }
func (l *Logger) Info(msg string, keysAndValues ...any)  { l.log("info", msg, keysAndValues...) }
func (l *Logger) Warn(msg string, keysAndValues ...any)  { l.log("warn", msg, keysAndValues...) }
func (l *Logger) Error(msg string, keysAndValues ...any) { l.log("error", msg, keysAndValues...) }

func (l *Logger) log(level, msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fields := make(map[string]any)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
	l.Logs = append(l.Logs, LogEntry{Level: level, Message: msg, Fields: fields})
}

// Entries returns a copy of the captured log entries.
func (l *Logger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.Logs))
	copy(out, l.Logs)
	return out
}

// HasLog reports whether a log entry at level with message was captured.
func (l *Logger) HasLog(level, message string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.Logs {
		if e.Level == level && e.Message == message {
			return true
		}
	}
	return false
}
