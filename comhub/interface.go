package comhub

import (
	"context"
	"fmt"
	"sync"

	"github.com/unyt-org/datex-core-go/routing"
)

// Direction discriminates which way a ComInterface's channel carries
// blocks.
type Direction uint8

const (
	DirectionIn Direction = iota
	DirectionOut
	DirectionBidirectional
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "in"
	case DirectionOut:
		return "out"
	case DirectionBidirectional:
		return "bidi"
	default:
		return "unknown"
	}
}

// Properties describes a ComInterface's routing-relevant characteristics.
// The ComHub's outbound router consults these when more than one interface
// can reach a receiver.
type Properties struct {
	Channel               string // "tcp", "websocket", "webrtc", "serial", "http", "grpc", ...
	Direction             Direction
	Latency               float64 // milliseconds, lower is preferred
	Bandwidth             float64 // bytes/sec, higher is preferred
	ContinuousConnection  bool // e.g. websocket/webrtc/grpc-stream vs. request/response http
	AllowRedirects        bool
}

// State is a ComInterface's lifecycle state.
type State uint8

const (
	NotConnected State = iota
	Connecting
	Connected
	Closing
	Destroyed
)

func (s State) String() string {
	switch s {
	case NotConnected:
		return "not_connected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closing:
		return "closing"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// validTransitions enumerates the legal State graph; a transition not
// listed here is a programming error in the calling ComInterface.
var validTransitions = map[State][]State{
	NotConnected: {Connecting, Destroyed},
	Connecting:   {Connected, NotConnected, Destroyed},
	Connected:    {Closing, Destroyed},
	Closing:      {NotConnected, Destroyed},
	Destroyed:    {},
}

func isValidTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// LifecycleEvent is delivered to subscribers every time a ComInterface's
// State changes.
type LifecycleEvent struct {
	InterfaceID string
	From        State
	To          State
}

// ComInterface is a pluggable transport binding: something capable of
// sending a serialized routing.Block to (and receiving one from) the other
// side of a wire. Concrete transports (TCP, WebSocket, WebRTC, serial,
// HTTP, gRPC) are external collaborators; the ComHub only depends on this
// contract.
type ComInterface interface {
	// ID uniquely identifies this interface instance within one ComHub.
	ID() string
	// Properties reports the interface's routing-relevant characteristics.
	Properties() Properties
	// Send transmits a serialized block. Send is asynchronous at the
	// ComHub layer: a nil error here means only that the interface
	// accepted the bytes, not that the remote end received them; any
	// later transport failure is surfaced via the wrapper's error channel.
	Send(ctx context.Context, raw []byte) error
	// Receive blocks until the interface has a complete incoming block's
	// bytes, or ctx is done.
	Receive(ctx context.Context) ([]byte, error)
	// Close releases the interface's resources.
	Close(ctx context.Context) error
}

// interfaceWrapper tracks a registered ComInterface's lifecycle state and
// fans out LifecycleEvents to the hub's subscriber list on every
// transition.
type interfaceWrapper struct {
	mu    sync.Mutex
	iface ComInterface
	state State

	hub *ComHub
}

func newInterfaceWrapper(hub *ComHub, iface ComInterface) *interfaceWrapper {
	return &interfaceWrapper{iface: iface, state: NotConnected, hub: hub}
}

func (w *interfaceWrapper) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// transition moves the wrapper to `to`, rejecting illegal transitions, and
// emits a LifecycleEvent to the hub on success.
func (w *interfaceWrapper) transition(to State) error {
	w.mu.Lock()
	from := w.state
	if !isValidTransition(from, to) {
		w.mu.Unlock()
		return fmt.Errorf("comhub: illegal interface state transition %s -> %s", from, to)
	}
	w.state = to
	w.mu.Unlock()

	w.hub.emitLifecycle(LifecycleEvent{InterfaceID: w.iface.ID(), From: from, To: to})
	return nil
}

// deliverLoop runs Receive in a loop, handing each inbound block's raw
// bytes to the hub's inbound dispatcher, until ctx is done or the
// interface errors out. A transport-level Receive error ends the loop: a
// broken stream never recovers by re-reading it.
func (w *interfaceWrapper) deliverLoop(ctx context.Context) {
	for {
		raw, err := w.iface.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.hub.emitInterfaceError(&InterfaceError{InterfaceID: w.iface.ID(), Cause: err})
			return
		}
		blk, err := routing.Parse(raw)
		if err != nil {
			w.hub.logger.Warn("comhub: dropped unparseable block", "interface", w.iface.ID(), "err", err)
			continue
		}
		w.hub.handleInbound(blk)
	}
}
