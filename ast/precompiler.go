package ast

import (
	"strings"

	"github.com/unyt-org/datex-core-go/value"
)

// ErrorMode controls whether Precompile stops at the first error or
// collects every error it can find — fail-fast for normal
// compilation, collect-all for tooling (LSP-style diagnostics).
type ErrorMode uint8

const (
	FailFast ErrorMode = iota
	CollectAll
)

// Precompiler walks an Expression tree once, resolving variable scopes,
// realms, and cross-realm flags, producing a RichAST. Grounded on the
// original PrecompilerScopeStack's "active scope" declaration rule and its
// cross-realm marking on lookup.
type Precompiler struct {
	mode   ErrorMode
	stack  *scopeStack
	meta   *AstMetadata
	ids    map[Identifier]int
	errors []*PrecompilerError
}

// NewPrecompiler constructs a Precompiler running in the given error mode.
func NewPrecompiler(mode ErrorMode) *Precompiler {
	return &Precompiler{
		mode:  mode,
		stack: newScopeStack(),
		meta:  &AstMetadata{},
		ids:   make(map[Identifier]int),
	}
}

// Precompile walks root and returns the resulting RichAST. In FailFast mode
// it returns on the first error; in CollectAll mode it keeps walking and
// returns every error found once the whole tree has been visited.
func (p *Precompiler) Precompile(root Expression) (*RichAST, []*PrecompilerError) {
	p.walk(root)
	if len(p.errors) > 0 {
		return nil, p.errors
	}
	return &RichAST{Root: root, Metadata: p.meta, ResolvedIDs: p.ids}, nil
}

func (p *Precompiler) fail(err *PrecompilerError) bool {
	p.errors = append(p.errors, err)
	return p.mode == FailFast
}

// walk dispatches on the concrete expression type, returning early (without
// visiting the rest of the tree) only in FailFast mode after an error.
func (p *Precompiler) walk(expr Expression) {
	if expr == nil {
		return
	}
	switch n := expr.(type) {
	case NullLiteral, BooleanLiteral, IntegerLiteral, DecimalLiteral, TextLiteral, EndpointLiteral:
		return

	case Identifier:
		p.resolveIdentifier(n)

	case VariableDeclaration:
		p.walk(n.Init)
		if p.stopped() {
			return
		}
		p.declareVariable(n)

	case ListExpression:
		for _, item := range n.Items {
			p.walk(item)
			if p.stopped() {
				return
			}
		}

	case MapExpression:
		for _, e := range n.Entries {
			p.walk(e.Key)
			if p.stopped() {
				return
			}
			p.walk(e.Value)
			if p.stopped() {
				return
			}
		}

	case TupleExpression:
		for _, item := range n.Items {
			p.walk(item)
			if p.stopped() {
				return
			}
		}

	case ObjectExpression:
		for _, f := range n.Fields {
			p.walk(f.Value)
			if p.stopped() {
				return
			}
		}

	case RangeExpression:
		p.walk(n.Start)
		if p.stopped() {
			return
		}
		p.walk(n.End)

	case BinaryOperation:
		p.walk(n.Left)
		if p.stopped() {
			return
		}
		p.walk(n.Right)

	case UnaryOperation:
		p.walk(n.Operand)

	case Assignment:
		p.walk(n.Target)
		if p.stopped() {
			return
		}
		p.walk(n.Value)

	case DerefAssignment:
		p.walk(n.Target)
		if p.stopped() {
			return
		}
		p.walk(n.Value)

	case PointerGetReference:
		return

	case PropertyAccess:
		p.walk(n.Base)
		if p.stopped() {
			return
		}
		p.walk(n.Property)

	case Apply:
		p.walk(n.Callee)
		if p.stopped() {
			return
		}
		for _, a := range n.Args {
			p.walk(a)
			if p.stopped() {
				return
			}
		}

	case StatementsBlock:
		// Two pushes: the block's own scope plus the transient top the
		// active-scope rule writes beneath, so the block's declarations die
		// with the block instead of leaking into its siblings.
		p.stack.pushScope()
		p.stack.pushScope()
		for _, stmt := range n.Statements {
			p.walk(stmt)
			if p.stopped() {
				p.stack.popScope()
				p.stack.popScope()
				return
			}
		}
		p.stack.popScope()
		p.stack.popScope()

	case ConditionalExpression:
		p.walk(n.Condition)
		if p.stopped() {
			return
		}
		p.walk(n.Then)
		if p.stopped() {
			return
		}
		p.walk(n.Else)

	case ReturnValue:
		p.walk(n.Value)

	case RemoteExecutionBlock:
		p.walk(n.Target)
		if p.stopped() {
			return
		}
		p.stack.pushScope()
		p.stack.incrementRealmIndex()
		p.stack.pushScope()
		p.walk(n.Body)
		p.stack.popScope()
		p.stack.popScope()

	case FunctionDeclaration:
		p.declareNamed(n.Name, n.SpanVal, VariableShape{Kind: ShapeValue, Value: VariableConst}, nil)
		if p.stopped() {
			return
		}
		// Parameter scope sits above the body's own block scope; the body
		// runs in a fresh realm, so captured outer variables go cross-realm.
		p.stack.pushScope()
		p.stack.incrementRealmIndex()
		p.stack.pushScope()
		for _, param := range n.Parameters {
			paramType := param.Type
			p.declareNamed(param.Name, n.SpanVal, VariableShape{Kind: ShapeValue, Value: VariableVal}, &paramType)
			if p.stopped() {
				p.stack.popScope()
				p.stack.popScope()
				return
			}
		}
		p.walk(n.Body)
		p.stack.popScope()
		p.stack.popScope()

	case InterfaceDeclaration:
		p.declareNamed(n.Name, n.SpanVal, VariableShape{Kind: ShapeType}, nil)

	case TypeDeclaration:
		def := n.Definition
		p.declareNamed(n.Name, n.SpanVal, VariableShape{Kind: ShapeType}, &def)

	case TypeExpression:
		return

	default:
		// Unknown node kinds are a programming error, not a user-facing
		// precompiler failure; panicking here surfaces it immediately.
		panic("ast: precompiler encountered an unhandled expression type")
	}
}

func (p *Precompiler) stopped() bool {
	return p.mode == FailFast && len(p.errors) > 0
}

func (p *Precompiler) resolveIdentifier(id Identifier) {
	varID, ok := p.stack.lookupVariable(id.Name)
	if !ok {
		p.fail(newError(UndeclaredVariable, id.SpanVal, "undeclared variable %q", id.Name))
		return
	}
	md, _ := p.meta.VariableMetadata(varID)
	if md.OriginalRealmIndex != p.stack.currentRealmIndex() {
		md.IsCrossRealm = true
	}
	p.ids[id] = varID
}

func (p *Precompiler) declareVariable(decl VariableDeclaration) {
	p.declareNamed(decl.Name, decl.SpanVal, VariableShape{Kind: ShapeValue, Value: decl.Kind}, decl.DeclaredType)
}

// declareNamed allocates metadata for any named declaration — variable,
// function, interface, or type alias — in the active scope.
func (p *Precompiler) declareNamed(name string, span Span, shape VariableShape, declaredType *TypeExpression) {
	if p.stack.activeScope().hasLocalVariable(name) {
		p.fail(newError(DuplicateDeclaration, span, "%q already declared in this scope", name))
		return
	}
	id := p.meta.declare(VariableMetadata{})
	md := p.stack.addNewVariable(name, id, shape)
	if declaredType != nil {
		tc := typeContainerForPath(declaredType.Path)
		md.DeclaredType = &tc
	}
	p.meta.Variables[id] = md
}

// typeContainerForPath builds an inline type container for a dotted
// "namespace.name" annotation path; a bare name defaults to the core
// namespace.
func typeContainerForPath(path string) value.TypeContainer {
	ns, name := "core", path
	if i := strings.IndexByte(path, '.'); i >= 0 {
		ns, name = path[:i], path[i+1:]
	}
	return value.NewInlineType(value.Type{
		Path:       value.TypePath{Namespace: ns, Name: name},
		Descriptor: value.DescriptorCore,
	})
}

func (s *scope) hasLocalVariable(name string) bool {
	_, ok := s.variableIDsByName[name]
	return ok
}
