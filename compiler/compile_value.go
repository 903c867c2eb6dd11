package compiler

import (
	"github.com/unyt-org/datex-core-go/dxb"
	"github.com/unyt-org/datex-core-go/reference"
	"github.com/unyt-org/datex-core-go/value"
)

// CompileValue emits a standalone DXB body for a single already-evaluated
// container, the `compile_value(v) -> dxb_body` surface used to serialize a
// computed result onto the wire without re-running it through the AST
// pipeline (e.g. encoding a response body). A reference argument is
// resolved to its current target before encoding: the wire form of a
// result is always the value it currently holds, never a pointer handle.
func CompileValue(c value.ValueContainer) ([]byte, error) {
	enc := dxb.NewEncoder()
	if err := encodeContainerValue(enc, c); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}

func encodeContainerValue(enc *dxb.Encoder, c value.ValueContainer) error {
	switch vv := c.(type) {
	case value.Value:
		return dxb.EncodeValue(enc, vv)
	case *reference.Reference:
		return encodeContainerValue(enc, vv.Get())
	default:
		return newErr(UnsupportedApply, "cannot compile value container of type %T", c)
	}
}
