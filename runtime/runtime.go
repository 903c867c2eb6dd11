// Package runtime wires the compiler, execution engine, ComHub router, and
// reference memory into one entry point: compile an AST, execute the
// resulting DXB body, resolve interrupts the engine cannot answer on its
// own, and observe/mutate the references that survive across calls.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unyt-org/datex-core-go/ast"
	"github.com/unyt-org/datex-core-go/comhub"
	"github.com/unyt-org/datex-core-go/compiler"
	"github.com/unyt-org/datex-core-go/dxb"
	"github.com/unyt-org/datex-core-go/endpoint"
	"github.com/unyt-org/datex-core-go/engine"
	"github.com/unyt-org/datex-core-go/observability"
	"github.com/unyt-org/datex-core-go/pointer"
	"github.com/unyt-org/datex-core-go/reference"
	"github.com/unyt-org/datex-core-go/value"
)

// Logger is the structured logging sink every subsystem a Runtime drives
// takes, shaped identically to engine.Logger/comhub.Logger so one
// implementation serves all three.
type Logger = comhub.Logger

// NoopLogger returns a Logger that discards everything.
func NoopLogger() Logger { return comhub.NoopLogger() }

// RemoteExecutor ships a RemoteExecution interrupt's body to target and
// returns the value it settles on. A Runtime with no RemoteExecutor
// configured fails any remote-execution attempt with ErrNoRemoteExecutor.
type RemoteExecutor func(ctx context.Context, target endpoint.Endpoint, body []byte) (value.ValueContainer, error)

// Applier resolves an Apply interrupt: invoking a non-native callee with
// the given arguments. A Runtime with no Applier configured fails any
// non-builtin apply with ErrNoApplier.
type Applier func(ctx context.Context, callee value.ValueContainer, args []value.ValueContainer) (value.ValueContainer, error)

// Config controls how a Runtime resolves interrupts and shapes its
// execution options. The zero Config is usable: it gets a fresh persistent
// Memory, a NoopLogger, and a WallClock.
type Config struct {
	Logger Logger
	// Memory backs every execution's GetReference/CreateRef*; if nil, New
	// allocates a fresh persistent Memory.
	Memory *Memory
	Clock  Clock
	UUIDs  UUIDSource

	Deterministic          bool
	AllowRemoteExecution   bool
	DefaultTimeout         time.Duration
	RemoteExecutionTimeout time.Duration

	RemoteExecutor RemoteExecutor
	Applier        Applier
}

func (c Config) logger() Logger {
	if c.Logger == nil {
		return NoopLogger()
	}
	return c.Logger
}

func (c Config) clock() Clock {
	if c.Clock != nil {
		return c.Clock
	}
	if c.Deterministic {
		return NewDeterministicClock(1)
	}
	return WallClock{}
}

func (c Config) uuids() UUIDSource {
	if c.UUIDs != nil {
		return c.UUIDs
	}
	if c.Deterministic {
		return &DeterministicUUIDSource{}
	}
	return RandomUUIDSource{}
}

// Runtime composes one endpoint's compiler, engine, ComHub, and reference
// memory behind the entry points a driver (a CLI, a server, a test) needs:
// Compile/CompileValue/DecompileBody to move between AST/Value and DXB
// bytes, Execute to run a body to completion (auto-resolving interrupts the
// configuration knows how to answer), and Memory/Observe/Unobserve to reach
// the persistent reference space directly.
type Runtime struct {
	self   endpoint.Endpoint
	cfg    Config
	mem    *Memory
	Hub    *comhub.ComHub
	logger Logger
	clock  Clock
	uuids  UUIDSource
}

// New constructs a Runtime for self. The returned Runtime's Hub is a fresh
// comhub.ComHub sharing the same Logger; register transports on it
// directly (Hub.RegisterInterface).
func New(self endpoint.Endpoint, cfg Config) *Runtime {
	mem := cfg.Memory
	if mem == nil {
		mem = NewMemory()
	}
	logger := cfg.logger()
	return &Runtime{
		self:   self,
		cfg:    cfg,
		mem:    mem,
		Hub:    comhub.New(self, logger),
		logger: logger,
		clock:  cfg.clock(),
		uuids:  cfg.uuids(),
	}
}

// Self returns the endpoint identity this Runtime executes as.
func (rt *Runtime) Self() endpoint.Endpoint { return rt.self }

// Memory returns the Runtime's persistent reference address space.
func (rt *Runtime) Memory() *Memory { return rt.mem }

// Clock returns the Runtime's timestamp source (a WallClock, or a
// DeterministicClock when Config.Deterministic was set).
func (rt *Runtime) Clock() Clock { return rt.clock }

// NewContextID draws the next context/session identifier from the
// Runtime's UUID source.
func (rt *Runtime) NewContextID() [16]byte { return [16]byte(rt.uuids.NewUUID()) }

// Compile precompiles root and emits it as a full top-level DXB body
// (CompileMetadata{IsOuterContext: true}). Parsing DATEX surface syntax
// into root is out of scope for this package — root is assumed already
// parsed by an external front end.
func (rt *Runtime) Compile(root ast.Expression) ([]byte, *ast.RichAST, error) {
	return rt.compile(root, compiler.CompileMetadata{IsOuterContext: true})
}

// CompileEmbedded precompiles root and emits it as an embedded value
// stream (CompileMetadata{IsOuterContext: false}), suitable for splicing
// into a larger DXB stream (e.g. a RemoteExecution body argument) rather
// than standing alone as a block body.
func (rt *Runtime) CompileEmbedded(root ast.Expression) ([]byte, *ast.RichAST, error) {
	return rt.compile(root, compiler.CompileMetadata{IsOuterContext: false})
}

func (rt *Runtime) compile(root ast.Expression, meta compiler.CompileMetadata) ([]byte, *ast.RichAST, error) {
	pc := ast.NewPrecompiler(ast.FailFast)
	rich, errs := pc.Precompile(root)
	if len(errs) > 0 {
		return nil, nil, newErr(PrecompileFailed, errs[0], "precompile failed with %d error(s)", len(errs))
	}
	body, err := compiler.CompileWithMetadata(rich, meta)
	if err != nil {
		observability.RecordCompilation("error", meta.IsOuterContext, 0)
		return nil, rich, err
	}
	observability.RecordCompilation("success", meta.IsOuterContext, len(body))
	return body, rich, nil
}

// CompileValue emits an already-evaluated container directly as a DXB
// body, bypassing the AST/compiler pipeline entirely (compile_value(v) ->
// dxb_body).
func (rt *Runtime) CompileValue(v value.ValueContainer) ([]byte, error) {
	return compiler.CompileValue(v)
}

// DecompileBody renders a DXB body back to DATEX surface text.
func (rt *Runtime) DecompileBody(body []byte, opts dxb.DecompileOptions) (string, error) {
	return dxb.Decompile(body, opts)
}

// engineOptions builds one Execute call's engine.Options from the
// Runtime's configuration and the precompiled AST's cross-realm slot
// metadata (nil meta is fine — CrossRealmSlots(nil) is never called by
// Execute in that case, SlotMetadata is simply omitted).
func (rt *Runtime) engineOptions(meta *ast.AstMetadata) engine.Options {
	opts := engine.Options{
		DefaultTimeout:  rt.cfg.DefaultTimeout,
		AllowRemoteExec: rt.cfg.AllowRemoteExecution,
		Deterministic:   rt.cfg.Deterministic,
		Memory:          rt.mem,
		Logger:          rt.logger,
	}
	if meta != nil {
		opts.SlotMetadata = compiler.CrossRealmSlots(meta)
	}
	return opts
}

// Execute runs body to completion, resolving every interrupt the engine
// raises using the Runtime's Memory, RemoteExecutor, and Applier. meta may
// be nil (no cross-realm slot table, e.g. for a CompileValue result that
// never went through the precompiler).
func (rt *Runtime) Execute(ctx context.Context, body []byte, meta *ast.AstMetadata) (value.ValueContainer, error) {
	start := time.Now()
	eng := engine.New(rt.engineOptions(meta))
	outcome, interrupt, err := eng.Run(ctx, body)
	for {
		if err != nil {
			observability.RecordExecution(executionStatus(err), time.Since(start).Seconds())
			return nil, err
		}
		if interrupt == nil {
			observability.RecordExecution("success", time.Since(start).Seconds())
			return outcome.Value, nil
		}
		observability.RecordInterrupt(interrupt.Kind.String())
		result, rerr := rt.resolveInterrupt(ctx, *interrupt)
		outcome, interrupt, err = eng.Resume(result, rerr)
	}
}

func executionStatus(err error) string {
	var engErr *engine.Error
	if errors.As(err, &engErr) && engErr.Kind == engine.Cancelled {
		return "cancelled"
	}
	return "error"
}

// resolveInterrupt answers one Interrupt using the Runtime's own Memory
// for pointer lookups and the configured RemoteExecutor/Applier for
// everything else; anything neither resolves is reported as
// UnresolvedInterrupt.
func (rt *Runtime) resolveInterrupt(ctx context.Context, it engine.Interrupt) (value.ValueContainer, error) {
	switch it.Kind {
	case engine.ResolvePointer, engine.ResolveLocalPointer:
		if ref, ok := rt.mem.GetReference(it.Address); ok {
			return ref, nil
		}
		return nil, newErr(UnresolvedInterrupt, nil, "no reference at address %s", it.Address)

	case engine.ResolveInternalPointer, engine.GetInternalSlotValue:
		return nil, newErr(UnresolvedInterrupt, nil, "internal slot/pointer resolution is not implemented by this Runtime")

	case engine.RemoteExecution:
		if rt.cfg.RemoteExecutor == nil {
			return nil, newErr(UnresolvedInterrupt, nil, "remote execution requested but no RemoteExecutor is configured")
		}
		rctx := ctx
		if rt.cfg.RemoteExecutionTimeout > 0 {
			var cancel context.CancelFunc
			rctx, cancel = context.WithTimeout(ctx, rt.cfg.RemoteExecutionTimeout)
			defer cancel()
		}
		return rt.cfg.RemoteExecutor(rctx, it.Target, it.Body)

	case engine.Apply:
		if rt.cfg.Applier == nil {
			return nil, newErr(UnresolvedInterrupt, nil, "apply requested but no Applier is configured")
		}
		return rt.cfg.Applier(ctx, it.Callee, it.Args)

	case engine.Result:
		return it.Final, nil

	default:
		return nil, newErr(UnresolvedInterrupt, nil, "unknown interrupt kind %v", it.Kind)
	}
}

// Observe registers handler on the reference at addr, returning its
// observer id (for Unobserve) or an error if the reference is not found
// or is not mutable.
func (rt *Runtime) Observe(addr pointer.Address, handler reference.ObserverFunc) (uint32, error) {
	ref, ok := rt.mem.GetReference(addr)
	if !ok {
		return 0, fmt.Errorf("runtime: no reference at address %s", addr)
	}
	return ref.Observe(handler)
}

// Unobserve removes a previously registered observer from the reference
// at addr.
func (rt *Runtime) Unobserve(addr pointer.Address, id uint32) bool {
	ref, ok := rt.mem.GetReference(addr)
	if !ok {
		return false
	}
	return ref.Unobserve(id)
}
