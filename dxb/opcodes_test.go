package dxb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "INT8", OpInt8.String())
	assert.Equal(t, "ADD", OpAdd.String())
	assert.Equal(t, "UNKNOWN", Opcode(0xFF).String())
}

func TestOpcodeClassifiers(t *testing.T) {
	assert.True(t, OpInt8.IsLiteral())
	assert.False(t, OpAdd.IsLiteral())
	assert.True(t, OpAdd.IsOperator())
	assert.True(t, OpAssign.IsAssignment())
	assert.False(t, OpAdd.IsAssignment())
}
