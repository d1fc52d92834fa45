package runtime

import "strconv"

// ArrayFastModeCap bounds how large a dense index run may grow while
// still living in an ArrayObject's packed vector; crossing it (or
// punching a hole, or overriding an index's attributes) demotes the
// array to slow mode, where indexed access falls through to the
// generic shape-based property machinery using stringified indices.
const ArrayFastModeCap = 1 << 20

// ArrayObject is the heap entity backing both array literals and
// `new Array(...)`. FastMode arrays store indices 0..Length-1 densely
// in Vector; Empty entries are holes. Once demoted, Vector is ignored
// and indexed properties live in the embedded BaseObject's shape like
// any other property name.
type ArrayObject struct {
	BaseObject
	Vector   []Value
	Length   uint32
	FastMode bool
}

func NewArray(proto Value) *ArrayObject {
	return &ArrayObject{
		BaseObject: BaseObject{Shape: RootShape(), Proto: proto, Extensible: true, Class: "Array"},
		FastMode:   true,
	}
}

func (a *ArrayObject) HeapTag() string { return "ArrayObject" }

// Get returns the value at index, Empty for a hole, and ok=false when
// index is out of bounds in fast mode (callers then walk the
// prototype chain as usual).
func (a *ArrayObject) Get(index uint32) (Value, bool) {
	if a.FastMode {
		if index >= uint32(len(a.Vector)) {
			return Value{}, false
		}
		return a.Vector[index], true
	}
	return GetOwn(&a.BaseObject, indexKey(index))
}

// Set writes index, appending to the vector when index is its current
// end, or demoting to slow mode when the write would leave any gap
// (index past the current end) or index reaches the fast-mode cap.
func (a *ArrayObject) Set(index uint32, v Value) {
	if a.FastMode {
		if index < ArrayFastModeCap && index <= uint32(len(a.Vector)) {
			if index == uint32(len(a.Vector)) {
				a.Vector = append(a.Vector, v)
			} else {
				a.Vector[index] = v
			}
			if index >= a.Length {
				a.Length = index + 1
			}
			return
		}
		a.demote()
	}
	PutOwn(&a.BaseObject, indexKey(index), v)
	if index >= a.Length {
		a.Length = index + 1
	}
}

// demote falls the array through to slow mode, migrating its packed
// vector into shape-tracked properties one time.
func (a *ArrayObject) demote() {
	for i, v := range a.Vector {
		if v.IsEmpty() {
			continue
		}
		PutOwn(&a.BaseObject, indexKey(uint32(i)), v)
	}
	a.Vector = nil
	a.FastMode = false
}

func indexKey(i uint32) string {
	return strconv.FormatUint(uint64(i), 10)
}
