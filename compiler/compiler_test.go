package compiler

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unyt-org/datex-core-go/ast"
	"github.com/unyt-org/datex-core-go/dxb"
	"github.com/unyt-org/datex-core-go/pointer"
	"github.com/unyt-org/datex-core-go/value"
)

func precompile(t *testing.T, root ast.Expression) *ast.RichAST {
	t.Helper()
	rich, errs := ast.NewPrecompiler(ast.FailFast).Precompile(root)
	require.Empty(t, errs)
	return rich
}

func TestCompileIntegerLiteralRoundTrips(t *testing.T) {
	rich := precompile(t, ast.IntegerLiteral{Value: big.NewInt(5)})
	body, err := Compile(rich)
	require.NoError(t, err)
	require.NotEmpty(t, body)

	text, err := dxb.Decompile(body, dxb.DefaultDecompileOptions())
	require.NoError(t, err)
	assert.Equal(t, "5;", text)
}

func TestCompileBinaryOperation(t *testing.T) {
	rich := precompile(t, ast.BinaryOperation{
		Op:    ast.OpAdd,
		Left:  ast.IntegerLiteral{Value: big.NewInt(1)},
		Right: ast.IntegerLiteral{Value: big.NewInt(2)},
	})
	body, err := Compile(rich)
	require.NoError(t, err)
	assert.NotEmpty(t, body)
}

func TestCompileWithMetadataEmbeddedOmitsStatementFraming(t *testing.T) {
	root := ast.StatementsBlock{
		Statements: []ast.Expression{
			ast.IntegerLiteral{Value: big.NewInt(1)},
			ast.IntegerLiteral{Value: big.NewInt(2)},
		},
		IsTerminated: true,
	}
	rich := precompile(t, root)

	outer, err := CompileWithMetadata(rich, CompileMetadata{IsOuterContext: true})
	require.NoError(t, err)

	embedded, err := CompileWithMetadata(rich, CompileMetadata{IsOuterContext: false})
	require.NoError(t, err)

	// The terminated outer body closes its last statement and yields null;
	// the embedded value stream keeps the last statement's value live
	// instead.
	require.Len(t, outer, len(embedded)+2)
	assert.Equal(t, embedded, outer[:len(embedded)])
	assert.Equal(t, dxb.OpEndStatement, dxb.Opcode(outer[len(embedded)]))
	assert.Equal(t, dxb.OpNull, dxb.Opcode(outer[len(embedded)+1]))
}

func TestCompileValueTextRoundTrips(t *testing.T) {
	body, err := CompileValue(value.NewValue(value.NewInteger(big.NewInt(42))))
	require.NoError(t, err)

	text, err := dxb.Decompile(body, dxb.DefaultDecompileOptions())
	require.NoError(t, err)
	assert.Equal(t, "42;", text)
}

func TestCompileDerefAssignmentWritesThroughReference(t *testing.T) {
	decl := ast.VariableDeclaration{Name: "r", Kind: ast.VariableRef, Init: ast.IntegerLiteral{Value: big.NewInt(1)}}
	write := ast.DerefAssignment{
		Target: ast.Identifier{Name: "r"},
		Value:  ast.IntegerLiteral{Value: big.NewInt(2)},
		Op:     ast.AssignSet,
	}
	rich := precompile(t, ast.StatementsBlock{Statements: []ast.Expression{decl, write}})

	body, err := Compile(rich)
	require.NoError(t, err)
	assert.Contains(t, body, byte(dxb.OpAssign))
}

func TestCompileDerefAssignmentToValBindingFails(t *testing.T) {
	decl := ast.VariableDeclaration{Name: "v", Kind: ast.VariableVal, Init: ast.IntegerLiteral{Value: big.NewInt(1)}}
	write := ast.DerefAssignment{
		Target: ast.Identifier{Name: "v"},
		Value:  ast.IntegerLiteral{Value: big.NewInt(2)},
		Op:     ast.AssignSet,
	}
	rich := precompile(t, ast.StatementsBlock{Statements: []ast.Expression{decl, write}})

	_, err := Compile(rich)
	require.Error(t, err)
	var cErr *Error
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, InvalidAssignmentTarget, cErr.Kind)
}

func TestCompilePointerGetReference(t *testing.T) {
	addr := pointer.NewLocal([5]byte{1, 0, 0, 0, 0})
	rich := precompile(t, ast.PointerGetReference{Address: addr})

	body, err := Compile(rich)
	require.NoError(t, err)
	require.NotEmpty(t, body)
	assert.Equal(t, byte(dxb.OpGetReference), body[0])
}

func TestCompileTypeDeclarationBindsSlot(t *testing.T) {
	root := ast.StatementsBlock{
		Statements: []ast.Expression{
			ast.TypeDeclaration{Name: "T", Definition: ast.TypeExpression{Path: "core.text"}},
		},
		IsTerminated: true,
	}
	rich := precompile(t, root)

	body, err := Compile(rich)
	require.NoError(t, err)
	require.NotEmpty(t, body)
	assert.Equal(t, byte(dxb.OpAllocateSlot), body[0])
	assert.Contains(t, body, byte(dxb.OpStdTypeText))
}

func TestCompileFunctionDeclarationHasNoStreamForm(t *testing.T) {
	root := ast.FunctionDeclaration{
		Name: "f",
		Body: ast.IntegerLiteral{Value: big.NewInt(1)},
	}
	rich := precompile(t, root)

	_, err := Compile(rich)
	require.Error(t, err)
	var cErr *Error
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, UnsupportedDeclaration, cErr.Kind)
}

func TestCrossRealmSlotsSelectsOnlyFlaggedVariables(t *testing.T) {
	meta := &ast.AstMetadata{
		Variables: []ast.VariableMetadata{
			{Name: "local", IsCrossRealm: false},
			{Name: "shared", IsCrossRealm: true},
			{Name: "other", IsCrossRealm: false},
			{Name: "shared2", IsCrossRealm: true},
		},
	}

	slots := CrossRealmSlots(meta)
	assert.Equal(t, map[uint32]bool{1: true, 3: true}, slots)
}
