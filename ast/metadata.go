package ast

import "github.com/unyt-org/datex-core-go/value"

// VariableShapeKind discriminates whether a variable slot holds a type or a
// value of a given declaration kind.
type VariableShapeKind uint8

const (
	ShapeType VariableShapeKind = iota
	ShapeValue
)

// VariableShape is VariableShapeKind paired with the VariableKind when it
// holds a value (mirrors the original's `Type | Value(VariableKind)` sum).
type VariableShape struct {
	Kind  VariableShapeKind
	Value VariableKind // meaningful only when Kind == ShapeValue
}

func (s VariableShape) String() string {
	if s.Kind == ShapeType {
		return "type"
	}
	return s.Value.String()
}

// VariableMetadata is the precompiler's record for one declared variable,
// indexed by its variable id in AstMetadata.Variables.
type VariableMetadata struct {
	OriginalRealmIndex int
	IsCrossRealm       bool
	Shape              VariableShape
	DeclaredType       *value.TypeContainer
	Name               string
}

// AstMetadata is the flat, append-only table of every variable declared
// while precompiling one AST. Declaring a variable allocates the
// next index; references record that index.
type AstMetadata struct {
	Variables []VariableMetadata
}

func (m *AstMetadata) VariableMetadata(id int) (*VariableMetadata, bool) {
	if id < 0 || id >= len(m.Variables) {
		return nil, false
	}
	return &m.Variables[id], true
}

// declare appends a new variable record and returns its id.
func (m *AstMetadata) declare(v VariableMetadata) int {
	id := len(m.Variables)
	m.Variables = append(m.Variables, v)
	return id
}

// RichAST pairs a precompiled expression tree with the metadata table the
// precompiler produced for it, plus the identifier-to-variable-id bindings
// resolved along the way.
type RichAST struct {
	Root        Expression
	Metadata    *AstMetadata
	ResolvedIDs map[Identifier]int
}
