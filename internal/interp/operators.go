package interp

import (
	"math"

	"escargot/internal/bytecode"
	"escargot/internal/runtime"
)

// asBaseObject recovers the *runtime.BaseObject every heap entity that
// participates in property access embeds. It type-switches rather than
// requiring a shared interface method so that runtime's heap kinds
// (Obj, ArrayObject, RegExpObject) and bytecode's (FunctionObject,
// NativeFunctionObject) stay decoupled from each other and only this
// package, which already imports both, needs to know the full set.
func asBaseObject(v runtime.Value) (*runtime.BaseObject, bool) {
	if !v.IsPointer() {
		return nil, false
	}
	switch o := v.Pointer().(type) {
	case *runtime.Obj:
		return &o.BaseObject, true
	case *runtime.ArrayObject:
		return &o.BaseObject, true
	case *runtime.RegExpObject:
		return &o.BaseObject, true
	case *bytecode.FunctionObject:
		return &o.BaseObject, true
	case *bytecode.NativeFunctionObject:
		return &o.BaseObject, true
	default:
		return nil, false
	}
}

func (ip *Interp) asCallable(v runtime.Value) bytecode.Callable {
	if !v.IsPointer() {
		return nil
	}
	c, _ := v.Pointer().(bytecode.Callable)
	return c
}

func isStringVal(v runtime.Value) bool {
	if !v.IsPointer() {
		return false
	}
	switch v.Pointer().(type) {
	case *runtime.StringRaw, *runtime.StringRope:
		return true
	default:
		return false
	}
}

// isPlainObjectVal reports whether v is a heap entity other than a
// string (an object the == and ToPrimitive algorithms must coerce
// rather than compare directly).
func isPlainObjectVal(v runtime.Value) bool {
	return v.IsPointer() && !isStringVal(v)
}

func toHeapString(v runtime.Value) runtime.HeapObject {
	if isStringVal(v) {
		return v.Pointer()
	}
	return runtime.NewStringRaw(runtime.ToStringGo(v))
}

// toPrimitive implements the ToPrimitive abstract operation: strings
// and every non-pointer Value already is primitive; a heap object
// tries valueOf then toString (or the reverse order when hint is
// "string"), calling through to a user-defined method exactly like any
// other property access, falling back to a generic "[object Class]"
// string when neither produces a primitive.
func (ip *Interp) toPrimitive(v runtime.Value, hint string) (runtime.Value, error) {
	if !v.IsPointer() || isStringVal(v) {
		return v, nil
	}
	bo, ok := asBaseObject(v)
	if !ok {
		return v, nil
	}
	methods := [2]string{"valueOf", "toString"}
	if hint == "string" {
		methods = [2]string{"toString", "valueOf"}
	}
	for _, name := range methods {
		fnVal, err := ip.getProperty(v, name)
		if err != nil {
			return runtime.Value{}, err
		}
		if ip.asCallable(fnVal) == nil {
			continue
		}
		res, err := ip.invokeValue(fnVal, v, nil)
		if err != nil {
			return runtime.Value{}, err
		}
		if !isPlainObjectVal(res) {
			return res, nil
		}
	}
	return runtime.NewString("[object " + bo.Class + "]"), nil
}

func (ip *Interp) toNumber(v runtime.Value) (float64, error) {
	pv, err := ip.toPrimitive(v, "number")
	if err != nil {
		return 0, err
	}
	return runtime.ToNumber(pv), nil
}

// binaryAdd is the one arithmetic opcode whose abstract operation
// forks on operand type after ToPrimitive: string concatenation if
// either primitive came out a string, numeric addition otherwise.
func (ip *Interp) binaryAdd(a, b runtime.Value) (runtime.Value, error) {
	pa, err := ip.toPrimitive(a, "")
	if err != nil {
		return runtime.Value{}, err
	}
	pb, err := ip.toPrimitive(b, "")
	if err != nil {
		return runtime.Value{}, err
	}
	if isStringVal(pa) || isStringVal(pb) {
		return runtime.FromPointer(runtime.NewConcat(toHeapString(pa), toHeapString(pb))), nil
	}
	return runtime.Number(runtime.ToNumber(pa) + runtime.ToNumber(pb)), nil
}

func (ip *Interp) arith(op bytecode.Opcode, a, b runtime.Value) (runtime.Value, error) {
	if op == bytecode.OpPlus {
		return ip.binaryAdd(a, b)
	}
	na, err := ip.toNumber(a)
	if err != nil {
		return runtime.Value{}, err
	}
	nb, err := ip.toNumber(b)
	if err != nil {
		return runtime.Value{}, err
	}
	switch op {
	case bytecode.OpMinus:
		return runtime.Number(na - nb), nil
	case bytecode.OpMultiply:
		return runtime.Number(na * nb), nil
	case bytecode.OpDivision:
		return runtime.Number(na / nb), nil
	case bytecode.OpMod:
		return runtime.Number(math.Mod(na, nb)), nil
	default:
		return runtime.Value{}, errInternalf("arith: unhandled opcode %v", op)
	}
}

// relational implements the abstract relational comparison (<, <=, >,
// >=): string operands compare by UTF-16 code unit, everything else
// compares numerically with the usual NaN-is-never-ordered rule.
func (ip *Interp) relational(op bytecode.Opcode, a, b runtime.Value) (runtime.Value, error) {
	pa, err := ip.toPrimitive(a, "number")
	if err != nil {
		return runtime.Value{}, err
	}
	pb, err := ip.toPrimitive(b, "number")
	if err != nil {
		return runtime.Value{}, err
	}
	if isStringVal(pa) && isStringVal(pb) {
		sa, sb := runtime.ToStringGo(pa), runtime.ToStringGo(pb)
		var r bool
		switch op {
		case bytecode.OpLessThan:
			r = sa < sb
		case bytecode.OpLessThanOrEqual:
			r = sa <= sb
		case bytecode.OpGreaterThan:
			r = sa > sb
		case bytecode.OpGreaterThanOrEqual:
			r = sa >= sb
		}
		return runtime.Bool(r), nil
	}
	na, nb := runtime.ToNumber(pa), runtime.ToNumber(pb)
	if math.IsNaN(na) || math.IsNaN(nb) {
		return runtime.Bool(false), nil
	}
	var r bool
	switch op {
	case bytecode.OpLessThan:
		r = na < nb
	case bytecode.OpLessThanOrEqual:
		r = na <= nb
	case bytecode.OpGreaterThan:
		r = na > nb
	case bytecode.OpGreaterThanOrEqual:
		r = na >= nb
	}
	return runtime.Bool(r), nil
}

// looseEquals implements ==, coercing an object operand to a
// primitive (recursing at most twice, since a second pass always hits
// the same-kind or null/undefined base case) before falling back to
// runtime.AbstractEquals for the remaining primitive-to-primitive
// cases.
func (ip *Interp) looseEquals(a, b runtime.Value) (bool, error) {
	if a.Kind() == b.Kind() {
		return runtime.StrictEquals(a, b), nil
	}
	if a.IsNullOrUndefined() && b.IsNullOrUndefined() {
		return true, nil
	}
	if a.IsNullOrUndefined() || b.IsNullOrUndefined() {
		return false, nil
	}
	if (a.IsNumber() || isStringVal(a)) && isPlainObjectVal(b) {
		pb, err := ip.toPrimitive(b, "")
		if err != nil {
			return false, err
		}
		return ip.looseEquals(a, pb)
	}
	if (b.IsNumber() || isStringVal(b)) && isPlainObjectVal(a) {
		pa, err := ip.toPrimitive(a, "")
		if err != nil {
			return false, err
		}
		return ip.looseEquals(pa, b)
	}
	if a.IsBoolean() {
		return ip.looseEquals(runtime.Number(runtime.ToNumber(a)), b)
	}
	if b.IsBoolean() {
		return ip.looseEquals(a, runtime.Number(runtime.ToNumber(b)))
	}
	return runtime.AbstractEquals(a, b), nil
}

// instanceOf implements the instanceof operator against a function's
// own "prototype" property (installed by OpCreateFunction on every
// user-defined function), walking the candidate's prototype chain for
// identity with it.
func (ip *Interp) instanceOf(obj, ctor runtime.Value) (bool, error) {
	if ip.asCallable(ctor) == nil {
		return false, ip.throwType("right-hand side of instanceof is not callable")
	}
	ctorBO, ok := asBaseObject(ctor)
	if !ok {
		return false, ip.throwType("right-hand side of instanceof is not callable")
	}
	protoVal, found := runtime.GetOwn(ctorBO, "prototype")
	if !found || !protoVal.IsPointer() {
		return false, ip.throwType("function has non-object prototype in instanceof check")
	}
	if !obj.IsPointer() {
		return false, nil
	}
	objBO, ok := asBaseObject(obj)
	if !ok {
		return false, nil
	}
	for cur := objBO.Proto; cur.IsPointer(); {
		if cur.Pointer() == protoVal.Pointer() {
			return true, nil
		}
		curBO, ok := asBaseObject(cur)
		if !ok {
			return false, nil
		}
		cur = curBO.Proto
	}
	return false, nil
}

// stringIn implements the `in` operator: key coerced to a string,
// searched along obj's prototype chain via HasOwn.
func (ip *Interp) stringIn(key, obj runtime.Value) (bool, error) {
	bo, ok := asBaseObject(obj)
	if !ok {
		return false, ip.throwType("cannot use 'in' operator on a non-object")
	}
	name := toPropertyKey(key)
	if arr, isArr := obj.Pointer().(*runtime.ArrayObject); isArr {
		if idx, isIdx := parseArrayIndex(name); isIdx {
			_, ok := arr.Get(idx)
			if ok {
				return true, nil
			}
		}
	}
	for cur := bo; ; {
		if runtime.HasOwn(cur, name) {
			return true, nil
		}
		protoVal := cur.Proto
		if !protoVal.IsPointer() {
			return false, nil
		}
		next, ok := asBaseObject(protoVal)
		if !ok {
			return false, nil
		}
		cur = next
	}
}

func (ip *Interp) typeOf(v runtime.Value) string {
	return runtime.TypeOf(v, func(x runtime.Value) bool { return ip.asCallable(x) != nil })
}

func bitwise(op bytecode.Opcode, a, b runtime.Value) runtime.Value {
	switch op {
	case bytecode.OpBitwiseAnd:
		return runtime.Number(float64(runtime.ToInt32(a) & runtime.ToInt32(b)))
	case bytecode.OpBitwiseOr:
		return runtime.Number(float64(runtime.ToInt32(a) | runtime.ToInt32(b)))
	case bytecode.OpBitwiseXor:
		return runtime.Number(float64(runtime.ToInt32(a) ^ runtime.ToInt32(b)))
	case bytecode.OpLeftShift:
		return runtime.Number(float64(runtime.ToInt32(a) << (runtime.ToUint32(b) & 31)))
	case bytecode.OpSignedRightShift:
		return runtime.Number(float64(runtime.ToInt32(a) >> (runtime.ToUint32(b) & 31)))
	case bytecode.OpUnsignedRightShift:
		return runtime.Number(float64(runtime.ToUint32(a) >> (runtime.ToUint32(b) & 31)))
	default:
		return runtime.Undefined()
	}
}

func unaryMinus(v runtime.Value) runtime.Value { return runtime.Number(-runtime.ToNumber(v)) }
func unaryPlus(v runtime.Value) runtime.Value  { return runtime.Number(runtime.ToNumber(v)) }
func unaryNot(v runtime.Value) runtime.Value   { return runtime.Bool(!runtime.ToBoolean(v)) }
func unaryBitNot(v runtime.Value) runtime.Value {
	return runtime.Number(float64(^runtime.ToInt32(v)))
}
