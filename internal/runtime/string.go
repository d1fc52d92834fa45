package runtime

import "unicode/utf16"

// StringRaw is the flat physical form of a string: an owned UTF-16
// code-unit array. ASCII is a cached fast-path flag set once at
// construction so operations that only need byte-for-byte comparison
// (property-name lookups against a shape key) can skip code-unit
// decoding.
type StringRaw struct {
	Units []uint16
	ASCII bool
}

func (*StringRaw) HeapTag() string { return "StringRaw" }

func NewStringRaw(s string) *StringRaw {
	units := utf16.Encode([]rune(s))
	ascii := true
	for _, u := range units {
		if u > 0x7F {
			ascii = false
			break
		}
	}
	return &StringRaw{Units: units, ASCII: ascii}
}

// Go renders the code-unit array back to a Go string for output and
// for operations the standard library expresses in terms of runes.
// Lone surrogates are replaced per utf16.Decode's usual behavior.
func (r *StringRaw) Go() string {
	return string(utf16.Decode(r.Units))
}

func (r *StringRaw) Len() int { return len(r.Units) }

// StringRope is an O(1) concatenation node: two string heap entities
// (StringRaw or StringRope) and their combined length. Any operation
// needing contiguous storage must call Flatten first.
type StringRope struct {
	Left, Right HeapObject
	TotalLength int
}

func (*StringRope) HeapTag() string { return "StringRope" }

func NewConcat(left, right HeapObject) HeapObject {
	ll, rl := StringLen(left), StringLen(right)
	if ll == 0 {
		return right
	}
	if rl == 0 {
		return left
	}
	return &StringRope{Left: left, Right: right, TotalLength: ll + rl}
}

func StringLen(h HeapObject) int {
	switch s := h.(type) {
	case *StringRaw:
		return s.Len()
	case *StringRope:
		return s.TotalLength
	default:
		return 0
	}
}

// Flatten forces a string heap entity to its StringRaw physical form,
// replacing ropes in place is the caller's responsibility (the slot
// holding h should be reassigned to the returned entity) so repeated
// flattening of the same rope does O(1) work after the first call.
func Flatten(h HeapObject) *StringRaw {
	switch s := h.(type) {
	case *StringRaw:
		return s
	case *StringRope:
		units := make([]uint16, 0, s.TotalLength)
		units = appendFlat(units, s.Left)
		units = appendFlat(units, s.Right)
		ascii := true
		for _, u := range units {
			if u > 0x7F {
				ascii = false
				break
			}
		}
		return &StringRaw{Units: units, ASCII: ascii}
	default:
		return &StringRaw{}
	}
}

func appendFlat(dst []uint16, h HeapObject) []uint16 {
	switch s := h.(type) {
	case *StringRaw:
		return append(dst, s.Units...)
	case *StringRope:
		dst = appendFlat(dst, s.Left)
		return appendFlat(dst, s.Right)
	default:
		return dst
	}
}

// NewString builds a Value wrapping a Go string as a StringRaw.
func NewString(s string) Value {
	return FromPointer(NewStringRaw(s))
}

// StringValueGo renders any string-kind Value (raw or rope) back to a
// Go string, flattening ropes as a side effect on the returned copy
// only (callers that want the flatten cached in place should use
// Flatten directly and store the result back).
func StringValueGo(v Value) string {
	if !v.IsPointer() {
		return ""
	}
	h := v.Pointer()
	switch h.(type) {
	case *StringRaw, *StringRope:
		return Flatten(h).Go()
	default:
		return ""
	}
}
