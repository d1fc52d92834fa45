package compiler

// scope tracks one function's (or the top-level program's) compile-
// time local layout: the ordered name->slot-index map a
// runtime.IndexedEnvironment/ActivationRecord is populated from at
// call time. Index assignment happens once, before any eval-time
// CreateBinding call can append further names, so a resolved
// (upCount, index) pair stays valid for the lifetime of the record
// even when that record turns out to need activation.
type scope struct {
	names           map[string]int
	order           []string
	needsActivation bool
	parent          *scope
}

func newScope(parent *scope, needsActivation bool) *scope {
	return &scope{names: map[string]int{}, needsActivation: needsActivation, parent: parent}
}

// declare adds name to this scope if not already present and returns
// its slot index either way.
func (s *scope) declare(name string) int {
	if i, ok := s.names[name]; ok {
		return i
	}
	i := len(s.order)
	s.names[name] = i
	s.order = append(s.order, name)
	return i
}

func (s *scope) has(name string) (int, bool) {
	i, ok := s.names[name]
	return i, ok
}

// resolved is the outcome of walking the compile-time scope chain for
// an identifier: either a static (upCount, index) pair, or "not
// found" meaning the compiler must emit a dynamic by-name lookup.
type resolved struct {
	upCount         int
	index           int
	found           bool
	ownerActivation bool
}

func resolveIdentifier(s *scope, name string) resolved {
	up := 0
	for cur := s; cur != nil; cur = cur.parent {
		if cur.parent == nil {
			// The top-level program scope never backs a static slot: its
			// runtime counterpart is the GlobalRecord, which has no
			// indexed storage at all (see CompileProgram). Hoisted names
			// are still declared into this scope so the compiler can
			// report them on the CodeBlock, but lookups of them always
			// fall through to the dynamic GetById/SetById path below.
			break
		}
		if i, ok := cur.has(name); ok {
			return resolved{upCount: up, index: i, found: true, ownerActivation: cur.needsActivation}
		}
		up++
	}
	return resolved{}
}
