package dxb

import (
	"math/big"

	"github.com/unyt-org/datex-core-go/endpoint"
	"github.com/unyt-org/datex-core-go/pointer"
	"github.com/unyt-org/datex-core-go/value"
)

// Instruction is one decoded DXB unit: an opcode plus whichever operand
// fields it carries. Only the fields relevant to Op are populated.
type Instruction struct {
	Op Opcode

	Int         *big.Int
	Denominator *big.Int // valid only for OpFraction: Int holds the numerator
	IntWidth    value.IntWidth
	Float       float64
	FloatWidth  value.FloatWidth
	Bool        bool
	Text        string
	Endpoint    endpoint.Endpoint
	Address     pointer.Address
	Slot        Slot
	Count       uint32 // ApplyFunction arg count / RemoteExecutionBegin body length

	ThenBody []byte // OpConditional: the Then branch, verbatim
	ElseBody []byte // OpConditional: the Else branch, verbatim
}
