package runtime

import (
	"math"
	"strconv"
)

// ToBoolean implements the ToBoolean abstract operation.
func ToBoolean(v Value) bool {
	switch v.Kind() {
	case KindUndefined, KindNull, KindEmpty:
		return false
	case KindBoolean:
		return v.Bool()
	case KindInt32:
		return v.Int32() != 0
	case KindDouble:
		d := v.Double()
		return d != 0 && !math.IsNaN(d)
	case KindPointer:
		if s, ok := asStringHeap(v); ok {
			return StringLen(s) != 0
		}
		return true
	default:
		return false
	}
}

func asStringHeap(v Value) (HeapObject, bool) {
	h := v.Pointer()
	switch h.(type) {
	case *StringRaw, *StringRope:
		return h, true
	default:
		return nil, false
	}
}

// ToNumber implements the ToNumber abstract operation for the subset
// of types the interpreter can produce (objects are coerced via
// ToPrimitive at a higher layer before reaching here; by the time a
// bare Value arrives here it is already a primitive).
func ToNumber(v Value) float64 {
	switch v.Kind() {
	case KindUndefined:
		return math.NaN()
	case KindNull:
		return 0
	case KindBoolean:
		if v.Bool() {
			return 1
		}
		return 0
	case KindInt32:
		return float64(v.Int32())
	case KindDouble:
		return v.Double()
	case KindPointer:
		if s, ok := asStringHeap(v); ok {
			return stringToNumber(Flatten(s).Go())
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

func stringToNumber(s string) float64 {
	t := trimJSWhitespace(s)
	if t == "" {
		return 0
	}
	if t == "Infinity" || t == "+Infinity" {
		return math.Inf(1)
	}
	if t == "-Infinity" {
		return math.Inf(-1)
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return f
	}
	if len(t) > 2 && t[0] == '0' && (t[1] == 'x' || t[1] == 'X') {
		if n, err := strconv.ParseUint(t[2:], 16, 64); err == nil {
			return float64(n)
		}
	}
	return math.NaN()
}

func trimJSWhitespace(s string) string {
	start, end := 0, len(s)
	isWS := func(b byte) bool {
		switch b {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			return true
		}
		return false
	}
	for start < end && isWS(s[start]) {
		start++
	}
	for end > start && isWS(s[end-1]) {
		end--
	}
	return s[start:end]
}

// ToInt32 implements the ToInt32 abstract operation.
func ToInt32(v Value) int32 {
	if v.IsInt32() {
		return v.Int32()
	}
	d := ToNumber(v)
	if math.IsNaN(d) || math.IsInf(d, 0) || d == 0 {
		return 0
	}
	m := math.Mod(math.Trunc(d), 4294967296)
	if m < 0 {
		m += 4294967296
	}
	if m >= 2147483648 {
		m -= 4294967296
	}
	return int32(m)
}

// ToUint32 implements the ToUint32 abstract operation.
func ToUint32(v Value) uint32 {
	if v.IsInt32() {
		return uint32(v.Int32())
	}
	d := ToNumber(v)
	if math.IsNaN(d) || math.IsInf(d, 0) || d == 0 {
		return 0
	}
	m := math.Mod(math.Trunc(d), 4294967296)
	if m < 0 {
		m += 4294967296
	}
	return uint32(m)
}

// ToStringGo implements ToString for values that never require
// invoking a user toString/valueOf method (objects are handled by the
// interpreter's ToPrimitive, which calls back into the opcode
// dispatcher before falling here).
func ToStringGo(v Value) string {
	switch v.Kind() {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		if v.Bool() {
			return "true"
		}
		return "false"
	case KindInt32, KindDouble:
		return NumberToStringGo(ToNumber(v))
	case KindPointer:
		if s, ok := asStringHeap(v); ok {
			return Flatten(s).Go()
		}
		return ""
	default:
		return ""
	}
}

// NumberToStringGo implements the Number::toString radix-10 abstract
// operation used whenever a number is coerced to a string (string
// concatenation, property-key folding, Array.prototype.join).
func NumberToStringGo(d float64) string {
	if math.IsNaN(d) {
		return "NaN"
	}
	if d == 0 {
		return "0"
	}
	if math.IsInf(d, 1) {
		return "Infinity"
	}
	if math.IsInf(d, -1) {
		return "-Infinity"
	}
	if d == math.Trunc(d) && math.Abs(d) < 1e21 {
		return strconv.FormatFloat(d, 'f', -1, 64)
	}
	return strconv.FormatFloat(d, 'g', -1, 64)
}

// TypeOf implements the `typeof` operator, with the function override
// supplied by the interpreter (runtime has no notion of callability by
// itself; FunctionObject lives in the bytecode package).
func TypeOf(v Value, isCallable func(Value) bool) string {
	if v.IsUndefined() {
		return "undefined"
	}
	if isCallable != nil && isCallable(v) {
		return "function"
	}
	switch v.Kind() {
	case KindNull:
		return "object"
	case KindPointer:
		if _, ok := asStringHeap(v); ok {
			return "string"
		}
		return "object"
	}
	return v.HeapTag()
}

// StrictEquals implements the === abstract operation.
func StrictEquals(a, b Value) bool {
	if a.Kind() != b.Kind() {
		if a.IsNumber() && b.IsNumber() {
			return ToNumber(a) == ToNumber(b)
		}
		return false
	}
	switch a.Kind() {
	case KindUndefined, KindNull, KindEmpty:
		return true
	case KindBoolean:
		return a.Bool() == b.Bool()
	case KindInt32:
		return a.Int32() == b.Int32()
	case KindDouble:
		return a.Double() == b.Double()
	case KindPointer:
		sa, aok := asStringHeap(a)
		sb, bok := asStringHeap(b)
		if aok && bok {
			return Flatten(sa).Go() == Flatten(sb).Go()
		}
		if aok != bok {
			return false
		}
		return a.Pointer() == b.Pointer()
	default:
		return false
	}
}

// SameValue implements the SameValue algorithm (distinguishes +0/-0
// and treats NaN as equal to itself), used by Object.is-style
// comparisons internal to the engine (e.g. shape key comparisons).
func SameValue(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		da, db := ToNumber(a), ToNumber(b)
		if math.IsNaN(da) && math.IsNaN(db) {
			return true
		}
		if da == 0 && db == 0 {
			return math.Signbit(da) == math.Signbit(db)
		}
		return da == db
	}
	return StrictEquals(a, b)
}

// AbstractEquals implements the == abstract operation for primitives;
// object-to-primitive coercion (the ToPrimitive calls needed when one
// operand is a Pointer to a non-string object) is performed by the
// interpreter before falling back to this function with both operands
// already primitive.
func AbstractEquals(a, b Value) bool {
	if a.Kind() == b.Kind() {
		return StrictEquals(a, b)
	}
	if a.IsNullOrUndefined() && b.IsNullOrUndefined() {
		return true
	}
	if a.IsNullOrUndefined() || b.IsNullOrUndefined() {
		return false
	}
	if a.IsNumber() && b.IsPointer() {
		if _, ok := asStringHeap(b); ok {
			return ToNumber(a) == ToNumber(b)
		}
	}
	if b.IsNumber() && a.IsPointer() {
		if _, ok := asStringHeap(a); ok {
			return ToNumber(a) == ToNumber(b)
		}
	}
	if a.IsBoolean() {
		return AbstractEquals(Number(ToNumber(a)), b)
	}
	if b.IsBoolean() {
		return AbstractEquals(a, Number(ToNumber(b)))
	}
	return false
}
