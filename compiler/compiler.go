// Package compiler turns a precompiled ast.RichAST into a DXB instruction
// stream the engine package can execute. Every variable id the precompiler
// assigned (ast.AstMetadata, keyed by RichAST.Metadata) becomes a dxb.Slot
// with the same numeric value; a `ref`/`const` declaration allocates an
// actual reference cell (CreateRefMut/CreateRefFinal) and stores the
// reference itself in the slot, while a plain `val` declaration stores its
// value directly — reads and assignments branch on this at compile time so
// the emitted stream never has to re-derive it at runtime.
package compiler

import (
	"math/big"

	"github.com/unyt-org/datex-core-go/ast"
	"github.com/unyt-org/datex-core-go/dxb"
)

// Compiler holds the state needed to emit one RichAST: its variable
// metadata table and the identifier-to-slot bindings the precompiler
// resolved.
type Compiler struct {
	meta     *ast.AstMetadata
	resolved map[ast.Identifier]int

	// declCursor tracks, per name, how far into the metadata table earlier
	// declarations of that name have been consumed, so shadowing
	// declarations each bind their own id in walk order.
	declCursor map[string]int
}

// New constructs a Compiler for one precompiled tree.
func New(rich *ast.RichAST) *Compiler {
	return &Compiler{
		meta:       rich.Metadata,
		resolved:   rich.ResolvedIDs,
		declCursor: make(map[string]int),
	}
}

// Compile emits root as a standalone DXB body. Compile a ast.RichAST's Root
// directly; Compile does not itself run the precompiler. Equivalent to
// CompileWithMetadata(rich, CompileMetadata{IsOuterContext: true}).
func Compile(rich *ast.RichAST) ([]byte, error) {
	return CompileWithMetadata(rich, CompileMetadata{IsOuterContext: true})
}

// CompileMetadata controls the shape of the emitted top-level stream.
type CompileMetadata struct {
	// IsOuterContext selects a full block body carrying an implicit
	// top-level statements frame (StatementsBlock gets EndStatement
	// separators between its statements, including a trailing one when the
	// block is terminated) when true, or an embedded value stream — the
	// last statement's value always kept live — when false.
	IsOuterContext bool
}

// CompileWithMetadata emits rich.Root under explicit control of meta.
func CompileWithMetadata(rich *ast.RichAST, meta CompileMetadata) ([]byte, error) {
	c := New(rich)
	enc := dxb.NewEncoder()
	var err error
	if meta.IsOuterContext {
		err = c.compileTopLevel(enc, rich.Root)
	} else {
		err = c.compileEmbedded(enc, rich.Root)
	}
	if err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}

// compileEmbedded emits root as a bare value stream. A StatementsBlock
// root always leaves its last statement's value on the stack — even a
// terminated block — because an embedded stream exists only for the value
// it produces.
func (c *Compiler) compileEmbedded(enc *dxb.Encoder, root ast.Expression) error {
	if sb, ok := root.(ast.StatementsBlock); ok {
		sb.IsTerminated = false
		return c.compileBlock(enc, sb)
	}
	return c.compileExpr(enc, root)
}

// CrossRealmSlots reports which slot numbers the precompiler flagged as
// cross-realm, in the shape engine.Options.SlotMetadata expects.
func CrossRealmSlots(meta *ast.AstMetadata) map[uint32]bool {
	out := make(map[uint32]bool)
	for id, v := range meta.Variables {
		if v.IsCrossRealm {
			out[uint32(id)] = true
		}
	}
	return out
}

// compileTopLevel compiles root as a whole program: a StatementsBlock at
// the root compiles as a statement sequence (last statement's value
// survives unless the block is terminated); anything else compiles as one
// expression, leaving its value as the block's outcome.
func (c *Compiler) compileTopLevel(enc *dxb.Encoder, root ast.Expression) error {
	if sb, ok := root.(ast.StatementsBlock); ok {
		return c.compileBlock(enc, sb)
	}
	return c.compileExpr(enc, root)
}

// compileBlock emits each statement in order, inserting EndStatement after
// every statement except (when the block is not terminated) the last one,
// whose value then survives as the block's own value.
func (c *Compiler) compileBlock(enc *dxb.Encoder, sb ast.StatementsBlock) error {
	for i, stmt := range sb.Statements {
		if err := c.compileExpr(enc, stmt); err != nil {
			return err
		}
		last := i == len(sb.Statements)-1
		if !last || sb.IsTerminated {
			enc.EndStatement()
		}
	}
	if sb.IsTerminated || len(sb.Statements) == 0 {
		// A terminated (or empty) block yields null as its value.
		enc.Null()
	}
	return nil
}

func (c *Compiler) compileExpr(enc *dxb.Encoder, expr ast.Expression) error {
	switch n := expr.(type) {
	case ast.NullLiteral:
		enc.Null()
	case ast.BooleanLiteral:
		enc.Bool(n.Value)
	case ast.IntegerLiteral:
		encodeNarrowestInt(enc, n.Value)
	case ast.DecimalLiteral:
		enc.Decimal(n.Value)
	case ast.TextLiteral:
		enc.AutoText(n.Value)
	case ast.EndpointLiteral:
		enc.Endpoint(n.Value)

	case ast.ListExpression:
		enc.StartList()
		for _, item := range n.Items {
			if err := c.compileExpr(enc, item); err != nil {
				return err
			}
		}
		enc.EndList()

	case ast.TupleExpression:
		enc.StartTuple()
		for _, item := range n.Items {
			if err := c.compileExpr(enc, item); err != nil {
				return err
			}
		}
		enc.EndTuple()

	case ast.MapExpression:
		enc.StartMap()
		for _, e := range n.Entries {
			if err := c.compileExpr(enc, e.Key); err != nil {
				return err
			}
			if err := c.compileExpr(enc, e.Value); err != nil {
				return err
			}
			enc.KeyValuePair()
		}
		enc.EndMap()

	case ast.ObjectExpression:
		enc.StartObject()
		for _, f := range n.Fields {
			enc.AutoText(f.Name)
			if err := c.compileExpr(enc, f.Value); err != nil {
				return err
			}
			enc.KeyValuePair()
		}
		enc.EndObject()

	case ast.RangeExpression:
		if err := c.compileExpr(enc, n.Start); err != nil {
			return err
		}
		if err := c.compileExpr(enc, n.End); err != nil {
			return err
		}
		enc.Op(dxb.OpRange)

	case ast.Identifier:
		return c.compileIdentifierRead(enc, n)

	case ast.VariableDeclaration:
		return c.compileDeclaration(enc, n)

	case ast.BinaryOperation:
		if err := c.compileExpr(enc, n.Left); err != nil {
			return err
		}
		if err := c.compileExpr(enc, n.Right); err != nil {
			return err
		}
		enc.Op(binaryOpcode[n.Op])

	case ast.UnaryOperation:
		if err := c.compileExpr(enc, n.Operand); err != nil {
			return err
		}
		enc.Op(unaryOpcode[n.Op])

	case ast.Assignment:
		return c.compileAssignment(enc, n)

	case ast.DerefAssignment:
		return c.compileDerefAssignment(enc, n)

	case ast.PointerGetReference:
		enc.GetReference(n.Address)

	case ast.TypeDeclaration:
		return c.compileTypeDeclaration(enc, n)

	case ast.FunctionDeclaration, ast.InterfaceDeclaration:
		// These bind signatures for the precompiler's benefit; nothing in
		// the instruction stream can hold a function body yet.
		return newErr(UnsupportedDeclaration, "declaration node %T has no instruction-stream form", expr)

	case ast.PropertyAccess:
		if err := c.compileExpr(enc, n.Base); err != nil {
			return err
		}
		if err := c.compileExpr(enc, n.Property); err != nil {
			return err
		}
		enc.ApplyProperty()

	case ast.Apply:
		return c.compileApply(enc, n)

	case ast.StatementsBlock:
		return c.compileBlock(enc, n)

	case ast.ConditionalExpression:
		return c.compileConditional(enc, n)

	case ast.ReturnValue:
		if n.Value != nil {
			if err := c.compileExpr(enc, n.Value); err != nil {
				return err
			}
		} else {
			enc.Null()
		}
		enc.ReturnValue()

	case ast.RemoteExecutionBlock:
		return c.compileRemoteExecution(enc, n)

	case ast.TypeExpression:
		return c.compileTypeExpression(enc, n)

	default:
		return newErr(UnsupportedApply, "unhandled expression node %T", expr)
	}
	return nil
}

// compileIdentifierRead emits a slot read, auto-dereferencing ref/const
// bindings so every read yields the variable's value regardless of how it
// is declared.
func (c *Compiler) compileIdentifierRead(enc *dxb.Encoder, id ast.Identifier) error {
	slot, kind, err := c.lookup(id)
	if err != nil {
		return err
	}
	enc.GetSlotValue(slot)
	if kind != ast.VariableVal {
		enc.Deref()
	}
	return nil
}

func (c *Compiler) lookup(id ast.Identifier) (dxb.Slot, ast.VariableKind, error) {
	varID, ok := c.resolved[id]
	if !ok {
		return 0, 0, newErr(UnresolvedIdentifier, "identifier %q was not resolved by the precompiler", id.Name)
	}
	md, ok := c.meta.VariableMetadata(varID)
	if !ok {
		return 0, 0, newErr(UnresolvedIdentifier, "identifier %q has no variable metadata", id.Name)
	}
	return dxb.Slot(varID), md.Shape.Value, nil
}

// compileDeclaration allocates the slot and, for ref/const bindings, wraps
// the initial value in a fresh reference before storing it.
func (c *Compiler) compileDeclaration(enc *dxb.Encoder, decl ast.VariableDeclaration) error {
	varID, ok := c.findDeclaredID(decl.Name)
	if !ok {
		return newErr(UnresolvedIdentifier, "declaration of %q has no variable metadata", decl.Name)
	}
	slot := dxb.Slot(varID)
	enc.AllocateSlot(slot)
	if decl.Init == nil {
		// An uninitialized declaration still evaluates to null as a
		// statement.
		enc.Null()
		return nil
	}
	if err := c.compileExpr(enc, decl.Init); err != nil {
		return err
	}
	switch decl.Kind {
	case ast.VariableRef:
		enc.CreateRefMut()
	case ast.VariableConst:
		enc.CreateRefFinal()
	}
	enc.SetSlotValue(slot)
	return nil
}

// findDeclaredID locates the metadata entry this declaration produced. The
// precompiler does not thread the assigned id back onto the declaration
// node itself, so it is found by name in visitation order: declare()
// appends as the tree is walked, and compilation walks the same tree in
// the same order, so the next unconsumed entry with this name is this
// declaration's.
func (c *Compiler) findDeclaredID(name string) (int, bool) {
	for i := c.declCursor[name]; i < len(c.meta.Variables); i++ {
		if c.meta.Variables[i].Name == name {
			c.declCursor[name] = i + 1
			return i, true
		}
	}
	return 0, false
}

// compileAssignment routes a plain `val` target straight through
// SetSlotValue (bypassing the Assign* opcode block entirely) and a
// ref/const target through the Assign* opcodes, which operate on the
// reference itself.
func (c *Compiler) compileAssignment(enc *dxb.Encoder, a ast.Assignment) error {
	id, ok := a.Target.(ast.Identifier)
	if !ok {
		return newErr(InvalidAssignmentTarget, "assignment target must be a variable")
	}
	slot, kind, err := c.lookup(id)
	if err != nil {
		return err
	}

	if kind == ast.VariableVal {
		if a.Op != ast.AssignSet {
			// A plain slot has no prior-value fetch through an opcode;
			// compound assignment to a `val` binding is expressed as
			// value op= by reading the slot first.
			enc.GetSlotValue(slot)
			if err := c.compileExpr(enc, a.Value); err != nil {
				return err
			}
			enc.Op(compoundSlotOpcode[a.Op])
			enc.SetSlotValue(slot)
			return nil
		}
		if err := c.compileExpr(enc, a.Value); err != nil {
			return err
		}
		enc.SetSlotValue(slot)
		return nil
	}

	enc.GetSlotValue(slot)
	if err := c.compileExpr(enc, a.Value); err != nil {
		return err
	}
	enc.Op(assignOpcode[a.Op])
	return nil
}

// compileDerefAssignment emits the target (which must evaluate to a
// reference at run time), the value, and the Assign* opcode that writes
// through the reference. An identifier target keeps its reference form
// rather than auto-dereferencing the way a plain read would.
func (c *Compiler) compileDerefAssignment(enc *dxb.Encoder, a ast.DerefAssignment) error {
	switch target := a.Target.(type) {
	case ast.Identifier:
		slot, kind, err := c.lookup(target)
		if err != nil {
			return err
		}
		if kind == ast.VariableVal {
			return newErr(InvalidAssignmentTarget, "cannot write through %q: not a reference binding", target.Name)
		}
		enc.GetSlotValue(slot)
	default:
		if err := c.compileExpr(enc, a.Target); err != nil {
			return err
		}
	}
	if err := c.compileExpr(enc, a.Value); err != nil {
		return err
	}
	enc.Op(assignOpcode[a.Op])
	return nil
}

// compileTypeDeclaration binds the declared slot to the compiled type
// value, the same allocate/init/store shape a const variable gets.
func (c *Compiler) compileTypeDeclaration(enc *dxb.Encoder, decl ast.TypeDeclaration) error {
	varID, ok := c.findDeclaredID(decl.Name)
	if !ok {
		return newErr(UnresolvedIdentifier, "type declaration %q has no variable metadata", decl.Name)
	}
	slot := dxb.Slot(varID)
	enc.AllocateSlot(slot)
	if err := c.compileTypeExpression(enc, decl.Definition); err != nil {
		return err
	}
	enc.SetSlotValue(slot)
	return nil
}

func (c *Compiler) compileApply(enc *dxb.Encoder, a ast.Apply) error {
	if err := c.compileExpr(enc, a.Callee); err != nil {
		return err
	}
	switch a.Kind {
	case ast.ApplyFunctionKind:
		for _, arg := range a.Args {
			if err := c.compileExpr(enc, arg); err != nil {
				return err
			}
		}
		enc.ApplyFunction(uint32(len(a.Args)))
	case ast.ApplyGenericKind:
		if len(a.Args) != 1 {
			return newErr(UnsupportedApply, "generic apply takes exactly one argument, got %d", len(a.Args))
		}
		if err := c.compileExpr(enc, a.Args[0]); err != nil {
			return err
		}
		enc.ApplyGeneric()
	case ast.ApplyPropertyKind:
		if len(a.Args) != 1 {
			return newErr(UnsupportedApply, "property apply takes exactly one argument, got %d", len(a.Args))
		}
		if err := c.compileExpr(enc, a.Args[0]); err != nil {
			return err
		}
		enc.ApplyProperty()
	default:
		return newErr(UnsupportedApply, "unknown apply kind %d", a.Kind)
	}
	return nil
}

// compileConditional compiles Then/Else into independent sub-streams so
// only the taken branch is ever decoded at run time.
func (c *Compiler) compileConditional(enc *dxb.Encoder, n ast.ConditionalExpression) error {
	if err := c.compileExpr(enc, n.Condition); err != nil {
		return err
	}
	thenEnc := dxb.NewEncoder()
	if err := c.compileExpr(thenEnc, n.Then); err != nil {
		return err
	}
	elseEnc := dxb.NewEncoder()
	if err := c.compileExpr(elseEnc, n.Else); err != nil {
		return err
	}
	enc.Conditional(thenEnc.Bytes(), elseEnc.Bytes())
	return nil
}

// compileRemoteExecution requires a literal endpoint target; the body is
// compiled independently and lifted verbatim by the engine, never executed
// as part of the surrounding stream.
func (c *Compiler) compileRemoteExecution(enc *dxb.Encoder, n ast.RemoteExecutionBlock) error {
	target, ok := n.Target.(ast.EndpointLiteral)
	if !ok {
		return newErr(InvalidRemoteTarget, "remote execution target must be a literal endpoint")
	}
	bodyEnc := dxb.NewEncoder()
	if err := c.compileExpr(bodyEnc, n.Body); err != nil {
		return err
	}
	body := bodyEnc.Bytes()

	offset := enc.RemoteExecutionBegin(target.Value)
	enc.PatchLength(offset, uint32(len(body)))
	enc.Raw(body)
	enc.RemoteExecutionEnd()
	return nil
}

func (c *Compiler) compileTypeExpression(enc *dxb.Encoder, n ast.TypeExpression) error {
	switch n.Path {
	case "core.text":
		enc.StdTypeText()
	case "core.integer":
		enc.StdTypeInt()
	case "core.boolean":
		enc.StdTypeBoolean()
	case "core.decimal":
		enc.StdTypeDecimal()
	default:
		return newErr(UnsupportedType, "type %q has no compiled form beyond the four standard core types", n.Path)
	}
	return nil
}

var binaryOpcode = map[ast.BinaryOpKind]dxb.Opcode{
	ast.OpAdd: dxb.OpAdd, ast.OpSub: dxb.OpSub, ast.OpMul: dxb.OpMul, ast.OpDiv: dxb.OpDiv,
	ast.OpMod: dxb.OpMod, ast.OpPow: dxb.OpPow,
	ast.OpBitAnd: dxb.OpBitAnd, ast.OpBitOr: dxb.OpBitOr, ast.OpBitXor: dxb.OpBitXor,
	ast.OpShiftL: dxb.OpShiftL, ast.OpShiftR: dxb.OpShiftR,
	ast.OpLogicalAnd: dxb.OpLogAnd, ast.OpLogicalOr: dxb.OpLogOr,
	ast.OpEqual: dxb.OpEqual, ast.OpStructuralEqual: dxb.OpStructuralEqual,
	ast.OpNotEqual: dxb.OpNotEqual, ast.OpNotStructuralEqual: dxb.OpNotStructuralEqual,
	ast.OpIs: dxb.OpIs, ast.OpMatches: dxb.OpMatches,
	ast.OpLessThan: dxb.OpLessThan, ast.OpLessOrEqual: dxb.OpLessOrEqual,
	ast.OpGreaterThan: dxb.OpGreaterThan, ast.OpGreaterOrEqual: dxb.OpGreaterOrEqual,
}

var unaryOpcode = map[ast.UnaryOpKind]dxb.Opcode{
	ast.OpPlus: dxb.OpUnaryPlus, ast.OpMinus: dxb.OpUnaryMinus,
	ast.OpIncrement: dxb.OpIncrement, ast.OpDecrement: dxb.OpDecrement,
	ast.OpLogicalNot: dxb.OpLogNot, ast.OpBitNot: dxb.OpBitNot,
	ast.OpReference: dxb.OpReference, ast.OpDeref: dxb.OpDerefOp,
	ast.OpRefMut: dxb.OpRefMut, ast.OpRefFinal: dxb.OpRefFinal,
}

var assignOpcode = map[ast.AssignOpKind]dxb.Opcode{
	ast.AssignSet: dxb.OpAssign, ast.AssignAdd: dxb.OpAddAssign, ast.AssignSub: dxb.OpSubAssign,
	ast.AssignMul: dxb.OpMulAssign, ast.AssignDiv: dxb.OpDivAssign, ast.AssignMod: dxb.OpModAssign,
	ast.AssignPow: dxb.OpPowAssign, ast.AssignAnd: dxb.OpAndAssign, ast.AssignOr: dxb.OpOrAssign,
}

// compoundSlotOpcode maps a compound assignment operator to the plain
// binary/logical opcode used to combine a `val` slot's current value with
// the right-hand side (the Assign* opcodes are reserved for reference
// targets, so a `val` compound assignment computes the result itself and
// writes it back with SetSlotValue).
var compoundSlotOpcode = map[ast.AssignOpKind]dxb.Opcode{
	ast.AssignAdd: dxb.OpAdd, ast.AssignSub: dxb.OpSub, ast.AssignMul: dxb.OpMul,
	ast.AssignDiv: dxb.OpDiv, ast.AssignMod: dxb.OpMod, ast.AssignPow: dxb.OpPow,
	ast.AssignAnd: dxb.OpLogAnd, ast.AssignOr: dxb.OpLogOr,
}

// encodeNarrowestInt picks the smallest fixed-width opcode that holds v
// exactly, falling back to the arbitrary-precision encoding.
func encodeNarrowestInt(enc *dxb.Encoder, v *big.Int) {
	if v.IsInt64() {
		i := v.Int64()
		switch {
		case i >= -128 && i <= 127:
			enc.Int8(int8(i))
		case i >= -32768 && i <= 32767:
			enc.Int16(int16(i))
		case i >= -2147483648 && i <= 2147483647:
			enc.Int32(int32(i))
		default:
			enc.Int64(i)
		}
		return
	}
	enc.Integer(v)
}
