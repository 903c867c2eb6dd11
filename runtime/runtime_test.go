package runtime

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unyt-org/datex-core-go/ast"
	"github.com/unyt-org/datex-core-go/comhub"
	"github.com/unyt-org/datex-core-go/dxb"
	"github.com/unyt-org/datex-core-go/endpoint"
	"github.com/unyt-org/datex-core-go/reference"
	"github.com/unyt-org/datex-core-go/routing"
	"github.com/unyt-org/datex-core-go/value"
)

func mustSelf(t *testing.T) endpoint.Endpoint {
	t.Helper()
	ep, err := endpoint.Parse("@alice")
	require.NoError(t, err)
	return ep
}

func TestCompileAndExecuteArithmetic(t *testing.T) {
	rt := New(mustSelf(t), Config{})

	// 1 + 2
	root := ast.BinaryOperation{
		Op:    ast.OpAdd,
		Left:  ast.IntegerLiteral{Value: big.NewInt(1)},
		Right: ast.IntegerLiteral{Value: big.NewInt(2)},
	}
	body, rich, err := rt.Compile(root)
	require.NoError(t, err)
	require.NotEmpty(t, body)

	out, err := rt.Execute(context.Background(), body, rich.Metadata)
	require.NoError(t, err)
	v, ok := out.(value.Value)
	require.True(t, ok)
	i, ok := v.Inner.(value.Integer)
	require.True(t, ok)
	assert.Equal(t, int64(3), i.BigInt().Int64())
}

func TestCompileValueRoundTrip(t *testing.T) {
	rt := New(mustSelf(t), Config{})
	body, err := rt.CompileValue(value.NewValue(value.Text("hi")))
	require.NoError(t, err)

	out, err := rt.Execute(context.Background(), body, nil)
	require.NoError(t, err)
	v := out.(value.Value)
	assert.Equal(t, value.Text("hi"), v.Inner)
}

func TestDecompileBodyRoundTrip(t *testing.T) {
	rt := New(mustSelf(t), Config{})
	body, err := rt.CompileValue(value.NewValue(value.NewInteger(big.NewInt(42))))
	require.NoError(t, err)

	text, err := rt.DecompileBody(body, dxb.DefaultDecompileOptions())
	require.NoError(t, err)
	assert.Equal(t, "42;", text)
}

func TestExecuteRemoteExecutionInterruptUsesConfiguredExecutor(t *testing.T) {
	var sawTarget endpoint.Endpoint
	var sawBody []byte
	cfg := Config{
		AllowRemoteExecution: true,
		RemoteExecutor: func(ctx context.Context, target endpoint.Endpoint, body []byte) (value.ValueContainer, error) {
			sawTarget = target
			sawBody = body
			return value.NewValue(value.Boolean(true)), nil
		},
	}
	rt := New(mustSelf(t), cfg)

	bob, err := endpoint.Parse("@bob")
	require.NoError(t, err)

	root := ast.RemoteExecutionBlock{
		Target: ast.EndpointLiteral{Value: bob},
		Body:   ast.BooleanLiteral{Value: false},
	}
	body, rich, err := rt.Compile(root)
	require.NoError(t, err)

	out, err := rt.Execute(context.Background(), body, rich.Metadata)
	require.NoError(t, err)
	v := out.(value.Value)
	assert.Equal(t, value.Boolean(true), v.Inner)
	assert.True(t, bob.Equal(sawTarget))
	assert.NotEmpty(t, sawBody)
}

func TestExecuteRemoteExecutionWithoutExecutorFails(t *testing.T) {
	rt := New(mustSelf(t), Config{AllowRemoteExecution: true})
	bob, err := endpoint.Parse("@bob")
	require.NoError(t, err)

	root := ast.RemoteExecutionBlock{
		Target: ast.EndpointLiteral{Value: bob},
		Body:   ast.NullLiteral{},
	}
	body, rich, err := rt.Compile(root)
	require.NoError(t, err)

	_, err = rt.Execute(context.Background(), body, rich.Metadata)
	require.Error(t, err)
}

func TestVariableDeclarationAndReuse(t *testing.T) {
	rt := New(mustSelf(t), Config{})

	// var x: integer = 7; x + 1
	decl := ast.VariableDeclaration{
		Name:         "x",
		Kind:         ast.VariableVal,
		DeclaredType: &ast.TypeExpression{Path: "core.integer"},
		Init:         ast.IntegerLiteral{Value: big.NewInt(7)},
	}
	use := ast.BinaryOperation{
		Op:    ast.OpAdd,
		Left:  ast.Identifier{Name: "x"},
		Right: ast.IntegerLiteral{Value: big.NewInt(1)},
	}
	root := ast.StatementsBlock{Statements: []ast.Expression{decl, use}}

	body, rich, err := rt.Compile(root)
	require.NoError(t, err)

	out, err := rt.Execute(context.Background(), body, rich.Metadata)
	require.NoError(t, err)
	v := out.(value.Value)
	i, ok := v.Inner.(value.Integer)
	require.True(t, ok)
	assert.Equal(t, int64(8), i.BigInt().Int64())

	md, ok := rich.Metadata.VariableMetadata(0)
	require.True(t, ok)
	assert.Equal(t, "x", md.Name)
	assert.Equal(t, ast.ShapeValue, md.Shape.Kind)
	assert.False(t, md.IsCrossRealm)
	require.NotNil(t, md.DeclaredType)
	assert.Equal(t, "core:integer", md.DeclaredType.Type().Path.String())
}

// pipeInterface is one end of a cross-connected in-process transport pair:
// Send feeds the peer's inbound channel.
type pipeInterface struct {
	id   string
	in   chan []byte
	peer *pipeInterface
}

func newPipePair() (*pipeInterface, *pipeInterface) {
	a := &pipeInterface{id: "pipe-a", in: make(chan []byte, 16)}
	b := &pipeInterface{id: "pipe-b", in: make(chan []byte, 16)}
	a.peer, b.peer = b, a
	return a, b
}

func (p *pipeInterface) ID() string { return p.id }
func (p *pipeInterface) Properties() comhub.Properties {
	return comhub.Properties{Channel: "pipe", Direction: comhub.DirectionBidirectional, ContinuousConnection: true}
}
func (p *pipeInterface) Send(ctx context.Context, raw []byte) error {
	select {
	case p.peer.in <- raw:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
func (p *pipeInterface) Receive(ctx context.Context) ([]byte, error) {
	select {
	case b := <-p.in:
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
func (p *pipeInterface) Close(context.Context) error { return nil }

// A request block carrying "41 + 1" is executed by the receiving runtime,
// which answers with a response block whose body evaluates to 42; the
// sender's SendAndAwait resolves it under ReturnOnFirstResponse.
func TestRemoteEchoRequestResponse(t *testing.T) {
	alice := mustSelf(t)
	bob, err := endpoint.Parse("@bob")
	require.NoError(t, err)

	rtAlice := New(alice, Config{})
	rtBob := New(bob, Config{})

	sideA, sideB := newPipePair()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, rtAlice.Hub.RegisterInterface(ctx, sideA))
	require.NoError(t, rtBob.Hub.RegisterInterface(ctx, sideB))

	// Bob executes every inbound request body and answers with its value.
	rtBob.Hub.Subscribe(&comhub.Subscriber{
		MatchAnyContext: true,
		Handle: func(blk routing.Block) {
			if blk.Header.Type != routing.BlockTypeRequest || !blk.Header.AllowExecution {
				return
			}
			out, execErr := rtBob.Execute(context.Background(), blk.Body, nil)
			if execErr != nil {
				return
			}
			respBody, cErr := rtBob.CompileValue(out)
			if cErr != nil {
				return
			}
			resp := routing.Block{
				Routing: routing.RoutingHeader{
					Version: routing.SupportedVersion,
					TTL:     10,
					Flags: routing.RoutingFlags{
						ReceiverType:   routing.ReceiverReceivers,
						BlockSizeWidth: routing.BlockSizeDefault,
					},
					Sender:    bob,
					Receivers: routing.Receivers{Endpoints: []endpoint.Endpoint{blk.Routing.Sender}},
				},
				Header: routing.BlockHeader{
					ContextID:         blk.Header.ContextID,
					SectionIndex:      blk.Header.SectionIndex,
					Type:              routing.BlockTypeResponse,
					IsEndOfSection:    true,
					CreationTimestamp: 2000,
				},
				Body: respBody,
			}
			_ = rtBob.Hub.SendBlock(context.Background(), resp)
		},
	})

	// 41 + 1
	reqBody, _, err := rtAlice.Compile(ast.BinaryOperation{
		Op:    ast.OpAdd,
		Left:  ast.IntegerLiteral{Value: big.NewInt(41)},
		Right: ast.IntegerLiteral{Value: big.NewInt(1)},
	})
	require.NoError(t, err)

	req := routing.Block{
		Routing: routing.RoutingHeader{
			Version: routing.SupportedVersion,
			TTL:     10,
			Flags: routing.RoutingFlags{
				ReceiverType:   routing.ReceiverReceivers,
				BlockSizeWidth: routing.BlockSizeDefault,
			},
			Sender:    alice,
			Receivers: routing.Receivers{Endpoints: []endpoint.Endpoint{bob}},
		},
		Header: routing.BlockHeader{
			ContextID:         77,
			Type:              routing.BlockTypeRequest,
			AllowExecution:    true,
			IsEndOfSection:    true,
			CreationTimestamp: 1000,
		},
		Body: reqBody,
	}

	results, err := rtAlice.Hub.SendAndAwait(context.Background(), req, comhub.ResponseOptions{
		Strategy: comhub.ReturnOnFirstResponse,
		Timeout:  2 * time.Second,
	})
	require.NoError(t, err)

	r := results[bob.String()]
	require.NoError(t, r.Err)
	require.NotNil(t, r.Response)
	assert.Equal(t, comhub.ExactResponse, r.Response.Kind)

	out, err := rtAlice.Execute(context.Background(), r.Response.Block.Body, nil)
	require.NoError(t, err)
	v := out.(value.Value)
	i, ok := v.Inner.(value.Integer)
	require.True(t, ok)
	assert.Equal(t, int64(42), i.BigInt().Int64())
}

func TestObserveAndUnobserveReference(t *testing.T) {
	rt := New(mustSelf(t), Config{})
	ref := rt.Memory().Allocate(reference.Mutable, value.NewValue(value.Text("a")))

	var updates []reference.DIFUpdate
	id, err := rt.Observe(ref.Address(), func(update reference.DIFUpdate) {
		updates = append(updates, update)
	})
	require.NoError(t, err)

	require.NoError(t, ref.Set(value.NewValue(value.Text("b"))))
	require.Len(t, updates, 1)

	assert.True(t, rt.Unobserve(ref.Address(), id))
	require.NoError(t, ref.Set(value.NewValue(value.Text("c"))))
	assert.Len(t, updates, 1)
}

func TestDeterministicClockAndUUIDAreReproducible(t *testing.T) {
	c1 := NewDeterministicClock(1)
	c2 := NewDeterministicClock(1)
	assert.Equal(t, c1.NowMillis(), c2.NowMillis())
	assert.Equal(t, c1.NowMillis(), c2.NowMillis())

	u1 := &DeterministicUUIDSource{}
	u2 := &DeterministicUUIDSource{}
	assert.Equal(t, u1.NewUUID(), u2.NewUUID())
}
