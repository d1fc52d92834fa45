package bytecode

import "escargot/internal/runtime"

// InlineCache is a monomorphic property-access cache keyed by shape
// identity: GetObjectPreComputed/SetObjectPreComputed check the
// receiver's current shape against Shape before trusting SlotIndex; a
// mismatch does a full lookup and refills the cache in place, and the
// opcode is never rewritten to a slow-mode variant.
// WithUpdatedFlags/WithoutKey always allocate a new *Shape, so the
// pointer comparison alone catches attribute changes and deletes.
// Generation is not read or written by the interpreter.
type InlineCache struct {
	Shape      *runtime.Shape
	SlotIndex  int
	Generation uint32

	// Record/RecordIndex hold a resolved environment record and slot
	// (FillBinding). GetById/SetById sites carry a cache operand, but
	// the interpreter resolves the name through the environment chain
	// on every execution and never calls FillBinding, so these stay
	// unset.
	Record      runtime.EnvironmentRecord
	RecordIndex int
}

// Hit reports whether the cache currently matches shape s.
func (ic *InlineCache) Hit(s *runtime.Shape) bool {
	return ic.Shape == s
}

func (ic *InlineCache) Fill(s *runtime.Shape, slot int) {
	ic.Shape = s
	ic.SlotIndex = slot
}

func (ic *InlineCache) FillBinding(rec runtime.EnvironmentRecord, index int) {
	ic.Record = rec
	ic.RecordIndex = index
}
