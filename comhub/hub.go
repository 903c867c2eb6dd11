// Package comhub implements the ComHub block router: a registry of
// pluggable ComInterface transports, inbound/outbound block dispatch,
// interface lifecycle tracking, and response correlation for
// request/response exchanges that span one or more receivers.
package comhub

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/unyt-org/datex-core-go/endpoint"
	"github.com/unyt-org/datex-core-go/observability"
	"github.com/unyt-org/datex-core-go/routing"
)

// Logger is the structured logging seam every ComHub subsystem takes by
// injection, mirroring the rest of this module's ambient logging contract.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type defaultLogger struct{}

func (defaultLogger) Debug(msg string, kv ...any) { log.Printf("[DEBUG] %s %v", msg, kv) }
func (defaultLogger) Info(msg string, kv ...any)  { log.Printf("[INFO] %s %v", msg, kv) }
func (defaultLogger) Warn(msg string, kv ...any)  { log.Printf("[WARN] %s %v", msg, kv) }
func (defaultLogger) Error(msg string, kv ...any) { log.Printf("[ERROR] %s %v", msg, kv) }

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NoopLogger returns a Logger that discards everything.
func NoopLogger() Logger { return noopLogger{} }

// Subscriber receives inbound blocks matching its context/type filter.
type Subscriber struct {
	// ContextID restricts delivery to blocks carrying this context_id.
	// Matches any context_id when MatchAnyContext is true.
	ContextID       uint32
	MatchAnyContext bool
	// BlockType, if BlockTypeSet is true, further restricts delivery to
	// blocks of exactly this routing.BlockType.
	BlockType    routing.BlockType
	BlockTypeSet bool

	Handle func(routing.Block)
}

type dedupKey struct {
	fp routing.Fingerprint
	ts uint64
}

// ComHub routes routing.Block values between local execution and remote
// endpoints over any number of registered ComInterface transports.
type ComHub struct {
	logger Logger
	self   endpoint.Endpoint

	mu         sync.RWMutex
	interfaces map[string]*interfaceWrapper
	routes     map[string]string // endpoint.String() -> interface ID, explicit overrides
	rrCursor   int

	seenMu sync.Mutex
	seen   map[dedupKey]time.Time

	subMu sync.Mutex
	subs  []*Subscriber

	lifecycleMu sync.Mutex
	lifecycle   []func(LifecycleEvent)

	errMu sync.Mutex
	errs  []func(*InterfaceError)

	cancels map[string]context.CancelFunc
}

// New constructs an empty ComHub for the given local endpoint identity. A
// nil logger installs the default log-package-backed Logger.
func New(self endpoint.Endpoint, logger Logger) *ComHub {
	if logger == nil {
		logger = defaultLogger{}
	}
	return &ComHub{
		logger:     logger,
		self:       self,
		interfaces: make(map[string]*interfaceWrapper),
		routes:     make(map[string]string),
		seen:       make(map[dedupKey]time.Time),
		cancels:    make(map[string]context.CancelFunc),
	}
}

// Self reports the ComHub's own endpoint identity.
func (h *ComHub) Self() endpoint.Endpoint { return h.self }

// RegisterInterface adds iface to the registry, transitions it
// NotConnected -> Connecting -> Connected, and starts its inbound delivery
// loop in a background goroutine bound to ctx.
func (h *ComHub) RegisterInterface(ctx context.Context, iface ComInterface) error {
	w := newInterfaceWrapper(h, iface)

	h.mu.Lock()
	h.interfaces[iface.ID()] = w
	ifaceCtx, cancel := context.WithCancel(ctx)
	h.cancels[iface.ID()] = cancel
	h.mu.Unlock()

	if err := w.transition(Connecting); err != nil {
		return err
	}
	if err := w.transition(Connected); err != nil {
		return err
	}
	go w.deliverLoop(ifaceCtx)
	return nil
}

// UnregisterInterface closes and removes an interface, transitioning it
// Connected -> Closing -> Destroyed.
func (h *ComHub) UnregisterInterface(ctx context.Context, id string) error {
	h.mu.Lock()
	w, ok := h.interfaces[id]
	cancel := h.cancels[id]
	delete(h.interfaces, id)
	delete(h.cancels, id)
	h.mu.Unlock()
	if !ok {
		return nil
	}
	if cancel != nil {
		cancel()
	}
	if err := w.transition(Closing); err != nil {
		return err
	}
	err := w.iface.Close(ctx)
	if tErr := w.transition(Destroyed); tErr != nil && err == nil {
		err = tErr
	}
	return err
}

// SetRoute pins ep to a specific registered interface ID, overriding the
// round-robin/continuous-preference selection in selectInterface.
func (h *ComHub) SetRoute(ep endpoint.Endpoint, ifaceID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes[ep.String()] = ifaceID
}

func (h *ComHub) emitLifecycle(ev LifecycleEvent) {
	h.lifecycleMu.Lock()
	subs := append([]func(LifecycleEvent){}, h.lifecycle...)
	h.lifecycleMu.Unlock()
	for _, f := range subs {
		f(ev)
	}
}

// OnLifecycleEvent registers f to be called on every interface State
// transition.
func (h *ComHub) OnLifecycleEvent(f func(LifecycleEvent)) {
	h.lifecycleMu.Lock()
	defer h.lifecycleMu.Unlock()
	h.lifecycle = append(h.lifecycle, f)
}

func (h *ComHub) emitInterfaceError(err *InterfaceError) {
	h.errMu.Lock()
	subs := append([]func(*InterfaceError){}, h.errs...)
	h.errMu.Unlock()
	for _, f := range subs {
		f(err)
	}
}

// OnInterfaceError registers f to be called whenever a registered
// interface reports a transport-level failure asynchronously.
func (h *ComHub) OnInterfaceError(f func(*InterfaceError)) {
	h.errMu.Lock()
	defer h.errMu.Unlock()
	h.errs = append(h.errs, f)
}

// Subscribe registers sub to receive inbound blocks matching its filter.
// Returns an unsubscribe function.
func (h *ComHub) Subscribe(sub *Subscriber) (unsubscribe func()) {
	h.subMu.Lock()
	h.subs = append(h.subs, sub)
	h.subMu.Unlock()
	return func() {
		h.subMu.Lock()
		defer h.subMu.Unlock()
		for i, s := range h.subs {
			if s == sub {
				h.subs = append(h.subs[:i], h.subs[i+1:]...)
				return
			}
		}
	}
}

// handleInbound deduplicates blk by (sender, context_id, block_number,
// creation_timestamp) and delivers it to every matching subscriber.
func (h *ComHub) handleInbound(blk routing.Block) {
	key := dedupKey{fp: blk.Fingerprint(), ts: blk.Header.CreationTimestamp}

	h.seenMu.Lock()
	if _, dup := h.seen[key]; dup {
		h.seenMu.Unlock()
		observability.RecordBlockDeduped()
		h.logger.Debug("comhub: dropped duplicate block", "context_id", blk.Header.ContextID, "block_number", blk.Header.BlockNumber)
		return
	}
	h.seen[key] = time.Now()
	h.seenMu.Unlock()

	observability.RecordBlockRouted("inbound", blk.Header.Type.String())

	h.subMu.Lock()
	subs := append([]*Subscriber{}, h.subs...)
	h.subMu.Unlock()

	for _, s := range subs {
		if !s.MatchAnyContext && s.ContextID != blk.Header.ContextID {
			continue
		}
		if s.BlockTypeSet && s.BlockType != blk.Header.Type {
			continue
		}
		s.Handle(blk)
	}
}

// Deliver feeds an already-parsed inbound block through dedup/dispatch,
// for callers (e.g. an in-process loopback interface, or tests) that skip
// the wire entirely.
func (h *ComHub) Deliver(blk routing.Block) { h.handleInbound(blk) }

// selectInterface picks a registered, Connected interface to reach ep.
// An explicit SetRoute wins; otherwise interfaces whose properties mark
// ContinuousConnection are preferred when preferContinuous is set
// (responses ride the connection the request arrived on whenever
// possible); ties, and the no-preference case, round-robin.
func (h *ComHub) selectInterface(ep endpoint.Endpoint, preferContinuous bool) (*interfaceWrapper, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if id, ok := h.routes[ep.String()]; ok {
		if w, ok := h.interfaces[id]; ok && w.State() == Connected {
			return w, true
		}
	}

	var candidates []*interfaceWrapper
	for _, w := range h.interfaces {
		if w.State() != Connected {
			continue
		}
		if w.iface.Properties().Direction == DirectionIn {
			continue
		}
		candidates = append(candidates, w)
	}
	if len(candidates) == 0 {
		return nil, false
	}

	if preferContinuous {
		var continuous []*interfaceWrapper
		for _, w := range candidates {
			if w.iface.Properties().ContinuousConnection {
				continuous = append(continuous, w)
			}
		}
		if len(continuous) > 0 {
			candidates = continuous
		}
	}

	h.rrCursor = (h.rrCursor + 1) % len(candidates)
	return candidates[h.rrCursor], true
}

// SendBlock serializes blk and hands it to the interface selected for its
// primary receiver. Send is infallible at this layer except for
// NotReachable (no interface registered at all) and serialization errors;
// a transport failure after acceptance surfaces asynchronously via
// OnInterfaceError.
func (h *ComHub) SendBlock(ctx context.Context, blk routing.Block) error {
	raw, err := routing.Serialize(blk)
	if err != nil {
		return err
	}

	target := primaryReceiver(blk)
	w, ok := h.selectInterface(target, blk.Header.Type.IsResponse())
	if !ok {
		return NewNotReachableError(target)
	}
	if err := w.iface.Send(ctx, raw); err != nil {
		return err
	}
	observability.RecordBlockRouted("outbound", blk.Header.Type.String())
	return nil
}

// primaryReceiver extracts a single representative endpoint from a
// block's routing header receivers section, used only to pick an
// interface; the wire addressing itself (pointer/receivers/keyed) is
// unaffected.
func primaryReceiver(blk routing.Block) endpoint.Endpoint {
	r := blk.Routing.Receivers
	switch {
	case r.Pointer != nil:
		return *r.Pointer
	case len(r.Endpoints) > 0:
		return r.Endpoints[0]
	case len(r.EndpointsWithKeys) > 0:
		return r.EndpointsWithKeys[0].Endpoint
	default:
		return endpoint.AnyEndpoint
	}
}

// receiverList enumerates every endpoint a block's routing header
// addresses, used by SendAndAwait to build its per-receiver pending set.
func receiverList(blk routing.Block) []endpoint.Endpoint {
	r := blk.Routing.Receivers
	switch {
	case r.Pointer != nil:
		return []endpoint.Endpoint{*r.Pointer}
	case len(r.Endpoints) > 0:
		return append([]endpoint.Endpoint(nil), r.Endpoints...)
	case len(r.EndpointsWithKeys) > 0:
		out := make([]endpoint.Endpoint, len(r.EndpointsWithKeys))
		for i, rk := range r.EndpointsWithKeys {
			out[i] = rk.Endpoint
		}
		return out
	default:
		return []endpoint.Endpoint{endpoint.AnyEndpoint}
	}
}
