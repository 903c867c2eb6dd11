// Package dxb implements the DATEX Binary Exchange wire format: the opcode
// table, a little-endian encoder/decoder pair, and a decompiler that
// reconstructs human-readable DATEX text from a byte stream.
package dxb

// Opcode is one byte of a DXB instruction stream.
type Opcode byte

const (
	OpNull Opcode = iota + 0x01
	OpTrue
	OpFalse
	OpInt8
	OpInt16
	OpInt32
	OpInt64
	OpInt128
	OpUInt8
	OpUInt16
	OpUInt32
	OpUInt64
	OpUInt128
	OpInteger // arbitrary precision: sign byte + length-prefixed magnitude
	OpFloat32
	OpFloat64
	OpDecimal
	OpInfinityPos
	OpInfinityNeg
	OpNaN
	OpFraction
	OpText       // length-prefixed (u32) UTF-8
	OpShortText  // length-prefixed (u8) UTF-8
	OpEndpoint
	OpPointerAddress
	OpEmptyList
	OpEmptyMap
)

const (
	OpStartList Opcode = iota + 0x30
	OpEndList
	OpStartMap
	OpEndMap
	OpStartObject
	OpEndObject
	OpStartTuple
	OpEndTuple
	OpKeyValuePair
	OpRange
)

const (
	OpAdd Opcode = iota + 0x50
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpBitAnd
	OpBitOr
	OpBitXor
	OpBitNot
	OpShiftL
	OpShiftR
	OpLogAnd
	OpLogOr
	OpLogNot
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
	OpUnaryPlus
	OpUnaryMinus
	OpIncrement
	OpDecrement
	OpReference
	OpDerefOp
	OpRefMut
	OpRefFinal
)

const (
	OpAssign Opcode = iota + 0x80
	OpAddAssign
	OpSubAssign
	OpMulAssign
	OpDivAssign
	OpModAssign
	OpPowAssign
	OpAndAssign
	OpOrAssign
)

const (
	OpEndStatement Opcode = iota + 0x90
	OpConditional
	OpReturnValue
)

const (
	OpAllocateSlot Opcode = iota + 0xA0
	OpGetSlotValue
	OpSetSlotValue
	OpDropSlot
)

const (
	OpGetReference Opcode = iota + 0xB0
	OpCreateRef
	OpCreateRefMut
	OpCreateRefFinal
	OpDeref
)

const (
	OpApplyFunction Opcode = iota + 0xC0
	OpApplyProperty
	OpApplyGeneric
)

const (
	OpTypeReference Opcode = iota + 0xD0
	OpTypeWithImpls
	OpTypeStructural
	OpTypeIntersection
	OpTypeUnion
	OpTypeFunction
	OpTypeCollection
	OpTypeLiteralInteger
	OpTypeLiteralText
	OpTypeStruct
	OpStdTypeText
	OpStdTypeInt
	OpStdTypeBoolean
	OpStdTypeDecimal
)

const (
	OpRemoteExecutionBegin Opcode = iota + 0xE0
	OpRemoteExecutionEnd
)

var names = map[Opcode]string{
	OpNull: "NULL", OpTrue: "TRUE", OpFalse: "FALSE",
	OpInt8: "INT8", OpInt16: "INT16", OpInt32: "INT32", OpInt64: "INT64", OpInt128: "INT128",
	OpUInt8: "UINT8", OpUInt16: "UINT16", OpUInt32: "UINT32", OpUInt64: "UINT64", OpUInt128: "UINT128",
	OpInteger: "INTEGER", OpFloat32: "FLOAT32", OpFloat64: "FLOAT64", OpDecimal: "DECIMAL",
	OpInfinityPos: "INFINITY_POS", OpInfinityNeg: "INFINITY_NEG", OpNaN: "NAN", OpFraction: "FRACTION",
	OpText: "TEXT", OpShortText: "SHORT_TEXT", OpEndpoint: "ENDPOINT", OpPointerAddress: "POINTER_ADDRESS",
	OpEmptyList: "EMPTY_LIST", OpEmptyMap: "EMPTY_MAP",
	OpStartList: "START_LIST", OpEndList: "END_LIST", OpStartMap: "START_MAP", OpEndMap: "END_MAP",
	OpStartObject: "START_OBJECT", OpEndObject: "END_OBJECT", OpStartTuple: "START_TUPLE", OpEndTuple: "END_TUPLE",
	OpKeyValuePair: "KEY_VALUE_PAIR", OpRange: "RANGE",
	OpAdd: "ADD", OpSub: "SUB", OpMul: "MUL", OpDiv: "DIV", OpMod: "MOD", OpPow: "POW",
	OpBitAnd: "BIT_AND", OpBitOr: "BIT_OR", OpBitXor: "BIT_XOR", OpBitNot: "BIT_NOT",
	OpShiftL: "SHIFT_L", OpShiftR: "SHIFT_R",
	OpLogAnd: "LOG_AND", OpLogOr: "LOG_OR", OpLogNot: "LOG_NOT",
	OpEqual: "EQUAL", OpStructuralEqual: "STRUCTURAL_EQUAL", OpNotEqual: "NOT_EQUAL",
	OpNotStructuralEqual: "NOT_STRUCTURAL_EQUAL", OpIs: "IS", OpMatches: "MATCHES",
	OpLessThan: "LESS_THAN", OpLessOrEqual: "LESS_OR_EQUAL", OpGreaterThan: "GREATER_THAN", OpGreaterOrEqual: "GREATER_OR_EQUAL",
	OpUnaryPlus: "UNARY_PLUS", OpUnaryMinus: "UNARY_MINUS", OpIncrement: "INCREMENT", OpDecrement: "DECREMENT",
	OpReference: "REFERENCE", OpDerefOp: "DEREF_OP", OpRefMut: "REF_MUT", OpRefFinal: "REF_FINAL",
	OpAssign: "ASSIGN", OpAddAssign: "ADD_ASSIGN", OpSubAssign: "SUB_ASSIGN", OpMulAssign: "MUL_ASSIGN",
	OpDivAssign: "DIV_ASSIGN", OpModAssign: "MOD_ASSIGN", OpPowAssign: "POW_ASSIGN",
	OpAndAssign: "AND_ASSIGN", OpOrAssign: "OR_ASSIGN",
	OpEndStatement: "END_STATEMENT", OpConditional: "CONDITIONAL", OpReturnValue: "RETURN_VALUE",
	OpAllocateSlot: "ALLOCATE_SLOT", OpGetSlotValue: "GET_SLOT_VALUE", OpSetSlotValue: "SET_SLOT_VALUE", OpDropSlot: "DROP_SLOT",
	OpGetReference: "GET_REFERENCE", OpCreateRef: "CREATE_REF", OpCreateRefMut: "CREATE_REF_MUT",
	OpCreateRefFinal: "CREATE_REF_FINAL", OpDeref: "DEREF",
	OpApplyFunction: "APPLY_FUNCTION", OpApplyProperty: "APPLY_PROPERTY", OpApplyGeneric: "APPLY_GENERIC",
	OpTypeReference: "TYPE_REFERENCE", OpTypeWithImpls: "TYPE_WITH_IMPLS", OpTypeStructural: "TYPE_STRUCTURAL",
	OpTypeIntersection: "TYPE_INTERSECTION", OpTypeUnion: "TYPE_UNION", OpTypeFunction: "TYPE_FUNCTION",
	OpTypeCollection: "TYPE_COLLECTION", OpTypeLiteralInteger: "TYPE_LITERAL_INTEGER", OpTypeLiteralText: "TYPE_LITERAL_TEXT",
	OpTypeStruct: "TYPE_STRUCT", OpStdTypeText: "STD_TYPE_TEXT", OpStdTypeInt: "STD_TYPE_INT",
	OpStdTypeBoolean: "STD_TYPE_BOOLEAN", OpStdTypeDecimal: "STD_TYPE_DECIMAL",
	OpRemoteExecutionBegin: "REMOTE_EXECUTION_BEGIN", OpRemoteExecutionEnd: "REMOTE_EXECUTION_END",
}

func (o Opcode) String() string {
	if n, ok := names[o]; ok {
		return n
	}
	return "UNKNOWN"
}

// IsOperator reports whether o is a binary/unary operator opcode.
func (o Opcode) IsOperator() bool {
	return o >= OpAdd && o <= OpRefFinal
}

// IsLiteral reports whether o introduces a literal value.
func (o Opcode) IsLiteral() bool {
	return o >= OpNull && o <= OpEmptyMap
}

// IsAssignment reports whether o is an assignment opcode.
func (o Opcode) IsAssignment() bool {
	return o >= OpAssign && o <= OpOrAssign
}
