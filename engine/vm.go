package engine

import (
	"context"

	"github.com/unyt-org/datex-core-go/dxb"
	"github.com/unyt-org/datex-core-go/pointer"
	"github.com/unyt-org/datex-core-go/reference"
	"github.com/unyt-org/datex-core-go/value"
)

// kvEntry is a pending key/value pair assembled by OpKeyValuePair while a
// Map or Object constructor is open; it lives on the operand stack
// alongside plain value.ValueContainer items until the matching End* opcode
// collects it.
type kvEntry struct {
	Key   value.ValueContainer
	Value value.ValueContainer
}

// vmState is one execution's operand stack and slot table. The whole
// instruction stream — including every nested list/map/tuple/object
// literal — runs against this single flat stack; there is never a
// recursive per-expression evaluator, so the only way to know where a
// sub-expression ends is the arity each opcode declares for itself
// (KeyValuePair always pops 2, ApplyFunction(n) pops n+1, End* pops back to
// the marker left by the matching Start*).
type vmState struct {
	eng   *Engine
	stack []any // value.ValueContainer or kvEntry
	marks []int
	slots map[dxb.Slot]value.ValueContainer
}

func newVMState(eng *Engine) *vmState {
	return &vmState{slots: make(map[dxb.Slot]value.ValueContainer), eng: eng}
}

func (vm *vmState) push(c value.ValueContainer) { vm.stack = append(vm.stack, c) }
func (vm *vmState) pushEntry(e kvEntry)         { vm.stack = append(vm.stack, e) }

func (vm *vmState) popAny() (any, error) {
	if len(vm.stack) == 0 {
		return nil, newErr(StackUnderflow, "operand stack is empty")
	}
	top := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return top, nil
}

func (vm *vmState) popValue() (value.ValueContainer, error) {
	a, err := vm.popAny()
	if err != nil {
		return nil, err
	}
	c, ok := a.(value.ValueContainer)
	if !ok {
		return nil, newErr(TypeMismatch, "expected a value on the operand stack, found a pending key/value pair")
	}
	return c, nil
}

func (vm *vmState) popEntry() (kvEntry, error) {
	a, err := vm.popAny()
	if err != nil {
		return kvEntry{}, err
	}
	e, ok := a.(kvEntry)
	if !ok {
		return kvEntry{}, newErr(TypeMismatch, "expected a pending key/value pair on the operand stack")
	}
	return e, nil
}

func (vm *vmState) popPlain() (value.Value, error) {
	c, err := vm.popValue()
	if err != nil {
		return value.Value{}, err
	}
	return resolveValue(c)
}

func (vm *vmState) pushMark() { vm.marks = append(vm.marks, len(vm.stack)) }

func (vm *vmState) popMark() (int, error) {
	if len(vm.marks) == 0 {
		return 0, newErr(StackUnderflow, "no matching constructor start for this end opcode")
	}
	m := vm.marks[len(vm.marks)-1]
	vm.marks = vm.marks[:len(vm.marks)-1]
	return m, nil
}

// run executes body to completion: a final Outcome, or a fatal *Error. It
// may block indefinitely inside eng.suspend while an Interrupt is pending —
// that's the goroutine half of the coroutine pair Run/Resume drive from the
// other side.
func (vm *vmState) run(ctx context.Context, body []byte) (Outcome, error) {
	d := dxb.NewDecoder(body)
	for !d.Done() {
		select {
		case <-ctx.Done():
			return Outcome{}, wrapErr(Cancelled, ctx.Err(), "execution cancelled")
		default:
		}

		instr, err := d.Next()
		if err != nil {
			return Outcome{}, wrapErr(TruncatedStream, err, "decode instruction")
		}

		switch instr.Op {
		case dxb.OpEndStatement:
			if _, err := vm.popValue(); err != nil {
				return Outcome{}, err
			}
			continue
		case dxb.OpReturnValue:
			v, err := vm.popValue()
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Value: v}, nil
		case dxb.OpConditional:
			if err := vm.execConditional(ctx, instr); err != nil {
				return Outcome{}, err
			}
			continue
		case dxb.OpRemoteExecutionBegin:
			if err := vm.execRemoteExecution(ctx, d, instr); err != nil {
				return Outcome{}, err
			}
			continue
		}

		if err := vm.exec(ctx, instr); err != nil {
			return Outcome{}, err
		}
	}

	if len(vm.stack) > 0 {
		v, err := vm.popValue()
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Value: v}, nil
	}
	return Outcome{Value: value.NewValue(value.Null{})}, nil
}

// execConditional runs only the taken branch: the untaken branch's bytes
// are never decoded, so any side effects it would have had never happen.
func (vm *vmState) execConditional(ctx context.Context, instr dxb.Instruction) error {
	cond, err := vm.popPlain()
	if err != nil {
		return err
	}
	b, ok := cond.Inner.(value.Boolean)
	if !ok {
		return newErr(TypeMismatch, "conditional expects a boolean, got %s", cond.Inner.Kind())
	}
	branch := instr.ElseBody
	if bool(b) {
		branch = instr.ThenBody
	}
	sub := &vmState{eng: vm.eng, slots: vm.slots}
	out, err := sub.run(ctx, branch)
	if err != nil {
		return err
	}
	vm.push(out.Value)
	return nil
}

// execRemoteExecution lifts the embedded body out of the surrounding stream
// verbatim and hands it to the driver via a RemoteExecution interrupt; the
// engine never locally decodes or runs a remote body.
func (vm *vmState) execRemoteExecution(ctx context.Context, d *dxb.Decoder, instr dxb.Instruction) error {
	if !vm.eng.opts.AllowRemoteExec {
		return newErr(RemoteError, "remote execution is disabled for this run")
	}
	body, err := d.ReadRaw(int(instr.Count))
	if err != nil {
		return wrapErr(TruncatedStream, err, "read remote execution body")
	}
	end, err := d.Next()
	if err != nil {
		return wrapErr(TruncatedStream, err, "expected remote execution end")
	}
	if end.Op != dxb.OpRemoteExecutionEnd {
		return newErr(UnknownOpcode, "expected REMOTE_EXECUTION_END, got %s", end.Op)
	}
	result, err := vm.eng.suspend(ctx, Interrupt{Kind: RemoteExecution, Target: instr.Endpoint, Body: body})
	if err != nil {
		return wrapErr(RemoteError, err, "remote execution failed")
	}
	vm.push(result)
	return nil
}

// exec dispatches every opcode that is not EndStatement/ReturnValue/
// Conditional/RemoteExecutionBegin (handled directly by run, since those
// need the surrounding decoder or control flow the others don't).
func (vm *vmState) exec(ctx context.Context, instr dxb.Instruction) error {
	switch {
	case instr.Op.IsLiteral():
		return vm.execLiteral(instr)
	case instr.Op.IsOperator():
		return vm.execOperator(ctx, instr)
	case instr.Op.IsAssignment():
		return vm.execAssignment(instr)
	}

	switch instr.Op {
	case dxb.OpStartList, dxb.OpStartTuple, dxb.OpStartMap, dxb.OpStartObject:
		vm.pushMark()
		return nil
	case dxb.OpEndList:
		return vm.endList()
	case dxb.OpEndTuple:
		return vm.endTuple()
	case dxb.OpKeyValuePair:
		val, err := vm.popValue()
		if err != nil {
			return err
		}
		key, err := vm.popValue()
		if err != nil {
			return err
		}
		vm.pushEntry(kvEntry{Key: key, Value: val})
		return nil
	case dxb.OpEndMap:
		return vm.endMap()
	case dxb.OpEndObject:
		return vm.endObject()
	case dxb.OpRange:
		return vm.execRange()

	case dxb.OpAllocateSlot:
		vm.slots[instr.Slot] = value.NewValue(value.Null{})
		return nil
	case dxb.OpGetSlotValue:
		return vm.execGetSlot(ctx, instr)
	case dxb.OpSetSlotValue:
		v, err := vm.popValue()
		if err != nil {
			return err
		}
		vm.slots[instr.Slot] = v
		vm.push(v)
		return nil
	case dxb.OpDropSlot:
		delete(vm.slots, instr.Slot)
		return nil

	case dxb.OpGetReference:
		return vm.execGetReference(ctx, instr)
	case dxb.OpCreateRef:
		return vm.execCreateRef(reference.Immutable)
	case dxb.OpCreateRefMut:
		return vm.execCreateRef(reference.Mutable)
	case dxb.OpCreateRefFinal:
		return vm.execCreateRef(reference.Final)
	case dxb.OpDeref:
		return vm.execDeref(ctx)

	case dxb.OpApplyFunction:
		return vm.execApplyFunction(ctx, instr)
	case dxb.OpApplyProperty:
		return vm.execApplyProperty()
	case dxb.OpApplyGeneric:
		return vm.execApplyGeneric(ctx)

	case dxb.OpStdTypeText:
		vm.push(value.NewValue(value.Type{Path: value.TypePath{Namespace: "core", Name: "text"}, Descriptor: value.DescriptorCore, CoreKind: value.KindText}))
		return nil
	case dxb.OpStdTypeInt:
		vm.push(value.NewValue(value.Type{Path: value.TypePath{Namespace: "core", Name: "integer"}, Descriptor: value.DescriptorCore, CoreKind: value.KindInteger}))
		return nil
	case dxb.OpStdTypeBoolean:
		vm.push(value.NewValue(value.Type{Path: value.TypePath{Namespace: "core", Name: "boolean"}, Descriptor: value.DescriptorCore, CoreKind: value.KindBoolean}))
		return nil
	case dxb.OpStdTypeDecimal:
		vm.push(value.NewValue(value.Type{Path: value.TypePath{Namespace: "core", Name: "decimal"}, Descriptor: value.DescriptorCore, CoreKind: value.KindDecimal}))
		return nil
	}

	return newErr(UnknownOpcode, "opcode %s is not handled by the execution engine", instr.Op)
}

func (vm *vmState) execLiteral(instr dxb.Instruction) error {
	switch instr.Op {
	case dxb.OpNull:
		vm.push(value.NewValue(value.Null{}))
	case dxb.OpTrue:
		vm.push(value.NewValue(value.Boolean(true)))
	case dxb.OpFalse:
		vm.push(value.NewValue(value.Boolean(false)))
	case dxb.OpInt8, dxb.OpInt16, dxb.OpInt32, dxb.OpInt64,
		dxb.OpUInt8, dxb.OpUInt16, dxb.OpUInt32, dxb.OpUInt64,
		dxb.OpInteger, dxb.OpInt128, dxb.OpUInt128:
		vm.push(value.NewValue(value.NewInteger(instr.Int)))
	case dxb.OpFloat32, dxb.OpFloat64:
		vm.push(value.NewValue(value.TypedDecimal{Width: instr.FloatWidth, Value: instr.Float}))
	case dxb.OpDecimal:
		vm.push(value.NewValue(value.NewFiniteDecimal(instr.Float)))
	case dxb.OpInfinityPos:
		vm.push(value.NewValue(value.PositiveInfinity))
	case dxb.OpInfinityNeg:
		vm.push(value.NewValue(value.NegativeInfinity))
	case dxb.OpNaN:
		vm.push(value.NewValue(value.NaN))
	case dxb.OpFraction:
		vm.push(value.NewValue(value.NewFractionDecimal(instr.Int, instr.Denominator)))
	case dxb.OpText, dxb.OpShortText:
		vm.push(value.NewValue(value.Text(instr.Text)))
	case dxb.OpEndpoint:
		vm.push(value.NewValue(value.EndpointValue{Endpoint: instr.Endpoint}))
	case dxb.OpPointerAddress:
		// A bare address literal (as opposed to GetReference, which looks the
		// cell up) has no dedicated core value kind; its canonical "$hex"
		// text form is the only faithful representation available.
		vm.push(value.NewValue(value.Text(instr.Address.String())))
	case dxb.OpEmptyList:
		vm.push(value.NewValue(value.NewList()))
	case dxb.OpEmptyMap:
		vm.push(value.NewValue(value.NewMap()))
	default:
		return newErr(UnknownOpcode, "unhandled literal opcode %s", instr.Op)
	}
	return nil
}

func (vm *vmState) endList() error {
	start, err := vm.popMark()
	if err != nil {
		return err
	}
	items := make([]value.ValueContainer, 0, len(vm.stack)-start)
	for _, it := range vm.stack[start:] {
		c, ok := it.(value.ValueContainer)
		if !ok {
			return newErr(TypeMismatch, "list item is a pending key/value pair")
		}
		items = append(items, c)
	}
	vm.stack = vm.stack[:start]
	vm.push(value.NewValue(value.NewList(items...)))
	return nil
}

func (vm *vmState) endTuple() error {
	start, err := vm.popMark()
	if err != nil {
		return err
	}
	items := make([]value.ValueContainer, 0, len(vm.stack)-start)
	for _, it := range vm.stack[start:] {
		c, ok := it.(value.ValueContainer)
		if !ok {
			return newErr(TypeMismatch, "tuple item is a pending key/value pair")
		}
		items = append(items, c)
	}
	vm.stack = vm.stack[:start]
	vm.push(value.NewValue(value.Tuple{Items: items}))
	return nil
}

func (vm *vmState) endMap() error {
	start, err := vm.popMark()
	if err != nil {
		return err
	}
	m := value.NewMap()
	for _, it := range vm.stack[start:] {
		e, ok := it.(kvEntry)
		if !ok {
			return newErr(TypeMismatch, "map entry is not a pending key/value pair")
		}
		m.Set(e.Key, e.Value)
	}
	vm.stack = vm.stack[:start]
	vm.push(value.NewValue(m))
	return nil
}

func (vm *vmState) endObject() error {
	start, err := vm.popMark()
	if err != nil {
		return err
	}
	var fields []value.ObjectField
	for _, it := range vm.stack[start:] {
		e, ok := it.(kvEntry)
		if !ok {
			return newErr(TypeMismatch, "object field is not a pending key/value pair")
		}
		name, ok := e.Key.(value.Value)
		if !ok {
			return newErr(TypeMismatch, "object field name is not a plain value")
		}
		text, ok := name.Inner.(value.Text)
		if !ok {
			return newErr(TypeMismatch, "object field name is not text")
		}
		fields = append(fields, value.ObjectField{Name: string(text), Value: e.Value})
	}
	vm.stack = vm.stack[:start]
	vm.push(value.NewValue(value.Object{Fields: fields}))
	return nil
}

func (vm *vmState) execRange() error {
	end, err := vm.popPlain()
	if err != nil {
		return err
	}
	start, err := vm.popPlain()
	if err != nil {
		return err
	}
	si, ok := asBigInt(start)
	if !ok {
		return newErr(TypeMismatch, "range start must be an integer")
	}
	ei, ok := asBigInt(end)
	if !ok {
		return newErr(TypeMismatch, "range end must be an integer")
	}
	vm.push(value.NewValue(value.Range{Start: si, End: ei}))
	return nil
}

func (vm *vmState) execOperator(ctx context.Context, instr dxb.Instruction) error {
	switch instr.Op {
	case dxb.OpUnaryPlus, dxb.OpUnaryMinus, dxb.OpIncrement, dxb.OpDecrement, dxb.OpLogNot, dxb.OpBitNot:
		v, err := vm.popPlain()
		if err != nil {
			return err
		}
		res, err := unaryArith(instr.Op, v)
		if err != nil {
			return err
		}
		vm.push(res)
		return nil

	case dxb.OpReference:
		return vm.execCreateRef(reference.Immutable)
	case dxb.OpRefMut:
		return vm.execCreateRef(reference.Mutable)
	case dxb.OpRefFinal:
		return vm.execCreateRef(reference.Final)
	case dxb.OpDerefOp:
		return vm.execDeref(ctx)

	case dxb.OpLogAnd, dxb.OpLogOr:
		b, err := vm.popPlain()
		if err != nil {
			return err
		}
		a, err := vm.popPlain()
		if err != nil {
			return err
		}
		res, err := logicalBinary(instr.Op, a, b)
		if err != nil {
			return err
		}
		vm.push(res)
		return nil

	case dxb.OpEqual, dxb.OpStructuralEqual, dxb.OpNotEqual, dxb.OpNotStructuralEqual,
		dxb.OpIs, dxb.OpMatches, dxb.OpLessThan, dxb.OpLessOrEqual, dxb.OpGreaterThan, dxb.OpGreaterOrEqual:
		bc, err := vm.popValue()
		if err != nil {
			return err
		}
		ac, err := vm.popValue()
		if err != nil {
			return err
		}
		if instr.Op == dxb.OpIs {
			vm.push(value.NewValue(value.Boolean(value.Identical(ac, bc))))
			return nil
		}
		a, err := resolveValue(ac)
		if err != nil {
			return err
		}
		b, err := resolveValue(bc)
		if err != nil {
			return err
		}
		res, err := compare(instr.Op, a, b)
		if err != nil {
			return err
		}
		vm.push(value.NewValue(value.Boolean(res)))
		return nil

	default:
		b, err := vm.popPlain()
		if err != nil {
			return err
		}
		a, err := vm.popPlain()
		if err != nil {
			return err
		}
		res, err := binaryArith(instr.Op, a, b)
		if err != nil {
			return err
		}
		vm.push(res)
		return nil
	}
}

// execAssignment implements the 0x80 Assign* block, reserved for reference
// targets: the target reference must already be on the stack (compiled via
// GetReference/CreateRef*), with the new value above it. A compound
// assignment (AddAssign etc.) reads the reference's current value first.
// Plain slot assignment never reaches here — the compiler emits
// SetSlotValue directly for that.
func (vm *vmState) execAssignment(instr dxb.Instruction) error {
	valC, err := vm.popValue()
	if err != nil {
		return err
	}
	refC, err := vm.popValue()
	if err != nil {
		return err
	}
	ref, ok := refC.(*reference.Reference)
	if !ok {
		return newErr(TypeMismatch, "assignment target is not a reference")
	}

	newVal, err := resolveValue(valC)
	if err != nil {
		return err
	}

	if instr.Op == dxb.OpAssign {
		if err := ref.Set(newVal); err != nil {
			return wrapErr(TypeMismatch, err, "assignment failed")
		}
		vm.push(newVal)
		return nil
	}

	current, err := resolveValue(ref)
	if err != nil {
		return err
	}

	var op dxb.Opcode
	switch instr.Op {
	case dxb.OpAddAssign:
		op = dxb.OpAdd
	case dxb.OpSubAssign:
		op = dxb.OpSub
	case dxb.OpMulAssign:
		op = dxb.OpMul
	case dxb.OpDivAssign:
		op = dxb.OpDiv
	case dxb.OpModAssign:
		op = dxb.OpMod
	case dxb.OpPowAssign:
		op = dxb.OpPow
	case dxb.OpAndAssign:
		res, err := logicalBinary(dxb.OpLogAnd, current, newVal)
		if err != nil {
			return err
		}
		if err := ref.Set(res); err != nil {
			return wrapErr(TypeMismatch, err, "assignment failed")
		}
		vm.push(res)
		return nil
	case dxb.OpOrAssign:
		res, err := logicalBinary(dxb.OpLogOr, current, newVal)
		if err != nil {
			return err
		}
		if err := ref.Set(res); err != nil {
			return wrapErr(TypeMismatch, err, "assignment failed")
		}
		vm.push(res)
		return nil
	default:
		return newErr(UnknownOpcode, "opcode %s is not an assignment operator", instr.Op)
	}

	res, err := binaryArith(op, current, newVal)
	if err != nil {
		return err
	}
	if err := ref.Set(res); err != nil {
		return wrapErr(TypeMismatch, err, "assignment failed")
	}
	vm.push(res)
	return nil
}

func (vm *vmState) execGetSlot(ctx context.Context, instr dxb.Instruction) error {
	if vm.eng.opts.SlotMetadata[uint32(instr.Slot)] {
		result, err := vm.eng.suspend(ctx, Interrupt{Kind: ResolveInternalPointer, Slot: instr.Slot})
		if err != nil {
			return err
		}
		vm.push(result)
		return nil
	}
	v, ok := vm.slots[instr.Slot]
	if !ok {
		return newErr(UndefinedSlot, "slot %d has no value", instr.Slot)
	}
	vm.push(v)
	return nil
}

func (vm *vmState) execGetReference(ctx context.Context, instr dxb.Instruction) error {
	if ref, ok := vm.eng.mem.Lookup(instr.Address); ok {
		vm.push(ref)
		return nil
	}
	kind := ResolveLocalPointer
	if instr.Address.Kind() == pointer.KindRemote {
		kind = ResolvePointer
	} else if instr.Address.Kind() == pointer.KindInternal {
		kind = ResolveInternalPointer
	}
	result, err := vm.eng.suspend(ctx, Interrupt{Kind: kind, Address: instr.Address})
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

func (vm *vmState) execCreateRef(mutability reference.Mutability) error {
	v, err := vm.popValue()
	if err != nil {
		return err
	}
	ref := vm.eng.mem.Allocate(mutability, v)
	vm.push(ref)
	return nil
}

func (vm *vmState) execDeref(ctx context.Context) error {
	c, err := vm.popValue()
	if err != nil {
		return err
	}
	der, ok := c.(value.Dereferencer)
	if !ok {
		return newErr(TypeMismatch, "deref operand is not a reference")
	}
	target, resolved := der.Deref()
	if resolved {
		vm.push(target)
		return nil
	}
	idf, ok := c.(value.Identifiable)
	if !ok {
		return newErr(TypeMismatch, "unresolved reference has no address to resolve")
	}
	addr, perr := pointer.Parse(idf.IdentityToken())
	if perr != nil {
		return wrapErr(TypeMismatch, perr, "malformed reference address")
	}
	result, err := vm.eng.suspend(ctx, Interrupt{Kind: ResolvePointer, Address: addr})
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

// execApplyFunction resolves integer/text indexing into a List/Tuple/Map
// locally; anything else is handed to the driver as an Apply interrupt.
func (vm *vmState) execApplyFunction(ctx context.Context, instr dxb.Instruction) error {
	n := int(instr.Count)
	args := make([]value.ValueContainer, n)
	for i := n - 1; i >= 0; i-- {
		a, err := vm.popValue()
		if err != nil {
			return err
		}
		args[i] = a
	}
	callee, err := vm.popValue()
	if err != nil {
		return err
	}
	if n == 1 {
		if result, ok, err := applyIndex(callee, args[0]); ok {
			if err != nil {
				return err
			}
			vm.push(result)
			return nil
		}
	}
	result, err := vm.eng.suspend(ctx, Interrupt{Kind: Apply, Callee: callee, Args: args})
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

func (vm *vmState) execApplyGeneric(ctx context.Context) error {
	arg, err := vm.popValue()
	if err != nil {
		return err
	}
	callee, err := vm.popValue()
	if err != nil {
		return err
	}
	if result, ok, err := applyIndex(callee, arg); ok {
		if err != nil {
			return err
		}
		vm.push(result)
		return nil
	}
	result, err := vm.eng.suspend(ctx, Interrupt{Kind: Apply, Callee: callee, Args: []value.ValueContainer{arg}})
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

// applyIndex resolves indexing/keyed access against a locally-held
// collection: list[int], tuple[int], map[key]. The bool result reports
// whether this was a recognized local shape at all (false means "hand this
// to the driver instead").
func applyIndex(calleeC, argC value.ValueContainer) (value.ValueContainer, bool, error) {
	callee, err := resolveValue(calleeC)
	if err != nil {
		return nil, false, nil
	}
	switch c := callee.Inner.(type) {
	case value.List:
		arg, err := resolveValue(argC)
		if err != nil {
			return nil, true, err
		}
		idx, ok := asBigInt(arg)
		if !ok {
			return nil, true, newErr(TypeMismatch, "list index must be an integer")
		}
		i := int(idx.Int64())
		if i < 0 || i >= len(c.Items) {
			return nil, true, newErr(TypeMismatch, "list index %d out of range", i)
		}
		return c.Items[i], true, nil
	case value.Tuple:
		arg, err := resolveValue(argC)
		if err != nil {
			return nil, true, err
		}
		idx, ok := asBigInt(arg)
		if !ok {
			return nil, true, newErr(TypeMismatch, "tuple index must be an integer")
		}
		i := int(idx.Int64())
		if i < 0 || i >= len(c.Items) {
			return nil, true, newErr(TypeMismatch, "tuple index %d out of range", i)
		}
		return c.Items[i], true, nil
	case *value.Map:
		val, ok := c.Get(argC)
		if !ok {
			return nil, true, newErr(TypeMismatch, "map has no such key")
		}
		return val, true, nil
	}
	return nil, false, nil
}

func (vm *vmState) execApplyProperty() error {
	propC, err := vm.popValue()
	if err != nil {
		return err
	}
	baseC, err := vm.popValue()
	if err != nil {
		return err
	}
	base, err := resolveValue(baseC)
	if err != nil {
		return err
	}
	prop, err := resolveValue(propC)
	if err != nil {
		return err
	}
	name, isText := prop.Inner.(value.Text)

	switch b := base.Inner.(type) {
	case value.Object:
		if !isText {
			return newErr(TypeMismatch, "object property access requires a text field name")
		}
		v, ok := b.Get(string(name))
		if !ok {
			return newErr(TypeMismatch, "object has no field %q", string(name))
		}
		vm.push(v)
		return nil
	case *value.Map:
		v, ok := b.Get(propC)
		if !ok {
			return newErr(TypeMismatch, "map has no such key")
		}
		vm.push(v)
		return nil
	case value.List:
		if idx, ok := asBigInt(prop); ok {
			i := int(idx.Int64())
			if i < 0 || i >= len(b.Items) {
				return newErr(TypeMismatch, "list index %d out of range", i)
			}
			vm.push(b.Items[i])
			return nil
		}
	case value.Tuple:
		if idx, ok := asBigInt(prop); ok {
			i := int(idx.Int64())
			if i < 0 || i >= len(b.Items) {
				return newErr(TypeMismatch, "tuple index %d out of range", i)
			}
			vm.push(b.Items[i])
			return nil
		}
	}
	return newErr(TypeMismatch, "no property access defined for %s", base.Inner.Kind())
}
