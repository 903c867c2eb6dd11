package ast

import (
	"math/big"

	"github.com/unyt-org/datex-core-go/endpoint"
	"github.com/unyt-org/datex-core-go/pointer"
)

// Expression is any node of the DATEX expression tree. Every concrete node
// type carries its own Span.
type Expression interface {
	Span() Span
}

// BinaryOpKind enumerates the binary operators lists.
type BinaryOpKind uint8

const (
	OpAdd BinaryOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShiftL
	OpShiftR
	OpLogicalAnd
	OpLogicalOr
	OpEqual
	OpStructuralEqual
	OpNotEqual
	OpNotStructuralEqual
	OpIs
	OpMatches
	OpLessThan
	OpLessOrEqual
	OpGreaterThan
	OpGreaterOrEqual
)

// UnaryOpKind enumerates the unary operators lists.
type UnaryOpKind uint8

const (
	OpPlus UnaryOpKind = iota
	OpMinus
	OpIncrement
	OpDecrement
	OpLogicalNot
	OpBitNot
	OpReference
	OpDeref
	OpRefMut
	OpRefFinal
)

// AssignOpKind enumerates the assignment operators lists.
type AssignOpKind uint8

const (
	AssignSet AssignOpKind = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignMod
	AssignPow
	AssignAnd
	AssignOr
)

// VariableKind is the declared binding mode of a variable (mirrors the
// reference package's Mutability, but named for declaration-site syntax
// rather than the runtime cell).
type VariableKind uint8

const (
	// VariableVal is a plain, non-reference slot binding.
	VariableVal VariableKind = iota
	// VariableRef is bound to a mutable reference.
	VariableRef
	// VariableConst is bound to a final (write-once) reference.
	VariableConst
)

func (k VariableKind) String() string {
	switch k {
	case VariableVal:
		return "val"
	case VariableRef:
		return "ref"
	case VariableConst:
		return "const"
	default:
		return "unknown"
	}
}

// ==== Leaf literals ====

type NullLiteral struct{ SpanVal Span }

func (n NullLiteral) Span() Span { return n.SpanVal }

type BooleanLiteral struct {
	SpanVal Span
	Value   bool
}

func (n BooleanLiteral) Span() Span { return n.SpanVal }

type IntegerLiteral struct {
	SpanVal Span
	Value   *big.Int
}

func (n IntegerLiteral) Span() Span { return n.SpanVal }

type DecimalLiteral struct {
	SpanVal Span
	Value   float64
}

func (n DecimalLiteral) Span() Span { return n.SpanVal }

type TextLiteral struct {
	SpanVal Span
	Value   string
}

func (n TextLiteral) Span() Span { return n.SpanVal }

type EndpointLiteral struct {
	SpanVal Span
	Value   endpoint.Endpoint
}

func (n EndpointLiteral) Span() Span { return n.SpanVal }

// ==== Collections ====

type ListExpression struct {
	SpanVal Span
	Items   []Expression
}

func (n ListExpression) Span() Span { return n.SpanVal }

type MapEntry struct {
	Key   Expression
	Value Expression
}

type MapExpression struct {
	SpanVal Span
	Entries []MapEntry
}

func (n MapExpression) Span() Span { return n.SpanVal }

type TupleExpression struct {
	SpanVal Span
	Items   []Expression
}

func (n TupleExpression) Span() Span { return n.SpanVal }

type ObjectField struct {
	Name  string
	Value Expression
}

type ObjectExpression struct {
	SpanVal  Span
	TypeName string
	Fields   []ObjectField
}

func (n ObjectExpression) Span() Span { return n.SpanVal }

type RangeExpression struct {
	SpanVal    Span
	Start, End Expression
}

func (n RangeExpression) Span() Span { return n.SpanVal }

// ==== Variables ====

// Identifier is a reference to a previously declared variable by name;
// the precompiler resolves it to a variable id (recorded out-of-band in
// AstMetadata, keyed by this node's identity via the ResolvedIDs map since
// the AST itself stays free of precompiler state).
type Identifier struct {
	SpanVal Span
	Name    string
}

func (n Identifier) Span() Span { return n.SpanVal }

type VariableDeclaration struct {
	SpanVal      Span
	Name         string
	Kind         VariableKind
	DeclaredType *TypeExpression // nil if untyped
	Init         Expression      // nil if uninitialized
}

func (n VariableDeclaration) Span() Span { return n.SpanVal }

// ==== Operators ====

type BinaryOperation struct {
	SpanVal     Span
	Left, Right Expression
	Op          BinaryOpKind
}

func (n BinaryOperation) Span() Span { return n.SpanVal }

type UnaryOperation struct {
	SpanVal Span
	Operand Expression
	Op      UnaryOpKind
}

func (n UnaryOperation) Span() Span { return n.SpanVal }

type Assignment struct {
	SpanVal Span
	Target  Expression
	Value   Expression
	Op      AssignOpKind
}

func (n Assignment) Span() Span { return n.SpanVal }

// DerefAssignment writes through a reference-valued target expression
// instead of rebinding a variable slot.
type DerefAssignment struct {
	SpanVal Span
	Target  Expression
	Value   Expression
	Op      AssignOpKind
}

func (n DerefAssignment) Span() Span { return n.SpanVal }

// PointerGetReference looks up the reference cell behind a literal pointer
// address ("$hex" in source form).
type PointerGetReference struct {
	SpanVal Span
	Address pointer.Address
}

func (n PointerGetReference) Span() Span { return n.SpanVal }

// ==== Access / application ====

type PropertyAccess struct {
	SpanVal  Span
	Base     Expression
	Property Expression
}

func (n PropertyAccess) Span() Span { return n.SpanVal }

// ApplyKind discriminates the three apply opcode shapes lists.
type ApplyKind uint8

const (
	ApplyFunctionKind ApplyKind = iota
	ApplyPropertyKind
	ApplyGenericKind
)

type Apply struct {
	SpanVal Span
	Callee  Expression
	Args    []Expression
	Kind    ApplyKind
}

func (n Apply) Span() Span { return n.SpanVal }

// ==== Control / blocks ====

// StatementsBlock is a sequence of statements; if IsTerminated is false the
// last statement's value survives as the block's value.
type StatementsBlock struct {
	SpanVal      Span
	Statements   []Expression
	IsTerminated bool
}

func (n StatementsBlock) Span() Span { return n.SpanVal }

type ConditionalExpression struct {
	SpanVal    Span
	Condition  Expression
	Then, Else Expression
}

func (n ConditionalExpression) Span() Span { return n.SpanVal }

type ReturnValue struct {
	SpanVal Span
	Value   Expression // nil for bare return
}

func (n ReturnValue) Span() Span { return n.SpanVal }

// RemoteExecutionBlock compiles to RemoteExecutionBegin/End, pushing a new
// realm for its Body.
type RemoteExecutionBlock struct {
	SpanVal Span
	Target  Expression
	Body    Expression
}

func (n RemoteExecutionBlock) Span() Span { return n.SpanVal }

// ==== Declarations ====

// FunctionParameter is one (name, type) pair of a function or interface
// signature.
type FunctionParameter struct {
	Name string
	Type TypeExpression
}

// FunctionDeclaration binds a named function. Its body lives in its own
// realm: variables captured from the surrounding realm become cross-realm.
type FunctionDeclaration struct {
	SpanVal    Span
	Name       string
	Parameters []FunctionParameter
	ReturnType *TypeExpression // nil if none declared
	Body       Expression
}

func (n FunctionDeclaration) Span() Span { return n.SpanVal }

// InterfaceDeclaration binds a named interface: a set of typed member
// signatures with no bodies.
type InterfaceDeclaration struct {
	SpanVal Span
	Name    string
	Members []FunctionParameter
}

func (n InterfaceDeclaration) Span() Span { return n.SpanVal }

// TypeDeclaration binds a name to a type expression.
type TypeDeclaration struct {
	SpanVal    Span
	Name       string
	Definition TypeExpression
}

func (n TypeDeclaration) Span() Span { return n.SpanVal }

// ==== Types ====

// TypeExpression is the subset of type syntax a declaration or literal can
// be annotated with; it resolves against a value.TypeRegistry at compile
// time.
type TypeExpression struct {
	SpanVal Span
	Path    string // dotted namespace.name, resolved via value.TypePath
}

func (n TypeExpression) Span() Span { return n.SpanVal }
