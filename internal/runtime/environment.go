package runtime

// EnvironmentRecord is the name-based binding interface: the one every
// record variant supports so identifier resolution that cannot be
// settled at compile time (globals, `eval`-introduced bindings,
// `with`-shadowed names) can walk the LexicalEnvironment chain
// uniformly. Index-resolved access (GetByIndex/SetByIndex, the common
// case once the compiler's scope-resolution pass has run) goes through
// IndexedEnvironment instead and never touches this interface.
type EnvironmentRecord interface {
	HasBinding(name string) bool
	GetBindingValue(name string) (Value, bool)
	SetBindingValue(name string, v Value) bool
	CreateBinding(name string, deletable bool, v Value)
	DeleteBinding(name string) bool
}

// IndexedEnvironment is implemented by every declarative record kind
// (Indexed, Activation, Function), letting the interpreter resolve a
// compile-time-known ScopeUpCount/ScopeIndex pair without a name
// lookup.
type IndexedEnvironment interface {
	GetIndex(i int) Value
	SetIndex(i int, v Value)
}

// IndexedRecord is a pure slots vector sized at function entry. It
// never supports name lookup: the compiler only emits GetByIndex for
// functions it proved never need activation (no eval, no with, no
// catch-introduced dynamic name, no closure capturing by name).
type IndexedRecord struct {
	Slots []Value
}

func NewIndexedRecord(size int) *IndexedRecord {
	s := make([]Value, size)
	for i := range s {
		s[i] = Empty()
	}
	return &IndexedRecord{Slots: s}
}

func (r *IndexedRecord) GetIndex(i int) Value     { return r.Slots[i] }
func (r *IndexedRecord) SetIndex(i int, v Value)  { r.Slots[i] = v }
func (r *IndexedRecord) HasBinding(string) bool   { return false }
func (r *IndexedRecord) GetBindingValue(string) (Value, bool) { return Value{}, false }
func (r *IndexedRecord) SetBindingValue(string, Value) bool   { return false }
func (r *IndexedRecord) CreateBinding(string, bool, Value)    {}
func (r *IndexedRecord) DeleteBinding(string) bool            { return false }

// ActivationRecord adds a name->index map over a slots vector, used
// whenever a closure can capture the record by name or eval/with can
// introduce bindings into it dynamically.
type ActivationRecord struct {
	Slots []Value
	Names map[string]int
}

func NewActivationRecord(names []string) *ActivationRecord {
	r := &ActivationRecord{Slots: make([]Value, len(names)), Names: make(map[string]int, len(names))}
	for i, n := range names {
		r.Slots[i] = Empty()
		r.Names[n] = i
	}
	return r
}

func (r *ActivationRecord) GetIndex(i int) Value    { return r.Slots[i] }
func (r *ActivationRecord) SetIndex(i int, v Value) { r.Slots[i] = v }

func (r *ActivationRecord) HasBinding(name string) bool {
	_, ok := r.Names[name]
	return ok
}

func (r *ActivationRecord) GetBindingValue(name string) (Value, bool) {
	i, ok := r.Names[name]
	if !ok {
		return Value{}, false
	}
	return r.Slots[i], true
}

func (r *ActivationRecord) SetBindingValue(name string, v Value) bool {
	i, ok := r.Names[name]
	if !ok {
		return false
	}
	r.Slots[i] = v
	return true
}

func (r *ActivationRecord) CreateBinding(name string, _ bool, v Value) {
	if i, ok := r.Names[name]; ok {
		r.Slots[i] = v
		return
	}
	r.Names[name] = len(r.Slots)
	r.Slots = append(r.Slots, v)
}

func (r *ActivationRecord) DeleteBinding(name string) bool {
	// var/function/parameter bindings in a declarative record, catch
	// clause parameters included, are non-deletable; only the global
	// object record's properties ever need deletion.
	return false
}

// ObjectRecord forwards bindings to a host object: the global object
// (properties declared via assignment) or a `with` statement's target.
type ObjectRecord struct {
	Bindings *Obj
	// ES5 has no Symbol.unscopables, so a with statement exposes every
	// key reachable from Bindings.
}

func NewObjectRecord(target *Obj) *ObjectRecord { return &ObjectRecord{Bindings: target} }

func (r *ObjectRecord) HasBinding(name string) bool {
	if HasOwn(&r.Bindings.BaseObject, name) {
		return true
	}
	return walksProtoHasOwn(r.Bindings.Proto, name)
}

func (r *ObjectRecord) GetBindingValue(name string) (Value, bool) {
	return getWithProto(r.Bindings.Proto, &r.Bindings.BaseObject, name)
}

func (r *ObjectRecord) SetBindingValue(name string, v Value) bool {
	PutOwn(&r.Bindings.BaseObject, name, v)
	return true
}

func (r *ObjectRecord) CreateBinding(name string, _ bool, v Value) {
	PutOwn(&r.Bindings.BaseObject, name, v)
}

func (r *ObjectRecord) DeleteBinding(name string) bool {
	return DeleteOwn(&r.Bindings.BaseObject, name)
}

func walksProtoHasOwn(proto Value, name string) bool {
	for proto.IsPointer() {
		o, ok := proto.Pointer().(*Obj)
		if !ok {
			return false
		}
		if HasOwn(&o.BaseObject, name) {
			return true
		}
		proto = o.Proto
	}
	return false
}

func getWithProto(proto Value, start *BaseObject, name string) (Value, bool) {
	if v, ok := GetOwn(start, name); ok {
		return v, true
	}
	cur := proto
	for cur.IsPointer() {
		o, ok := cur.Pointer().(*Obj)
		if !ok {
			return Value{}, false
		}
		if v, ok := GetOwn(&o.BaseObject, name); ok {
			return v, true
		}
		cur = o.Proto
	}
	return Value{}, false
}

// ThisStatus tracks a Function record's `this` binding lifecycle: it
// starts Uninitialized (reading it before the call's receiver is
// resolved is an internal error) and is bound exactly once per
// invocation.
type ThisStatus uint8

const (
	ThisUninitialized ThisStatus = iota
	ThisInitialized
)

// FunctionRecord is a Declarative(Indexed) record plus the per-call
// `this` binding. Embedding IndexedRecord gives it GetIndex/SetIndex
// for free so the interpreter's ScopeUpCount/ScopeIndex resolution
// doesn't need a separate case for function-vs-plain frames.
type FunctionRecord struct {
	*IndexedRecord
	ThisValue  Value
	ThisStatus ThisStatus
}

func NewFunctionRecord(size int) *FunctionRecord {
	return &FunctionRecord{IndexedRecord: NewIndexedRecord(size), ThisValue: Undefined()}
}

func (r *FunctionRecord) BindThis(v Value) {
	r.ThisValue = v
	r.ThisStatus = ThisInitialized
}

// GlobalRecord pairs an Object record (globals declared by property
// write, e.g. implicit `x = 1` in sloppy mode or `var` at top level
// once materialized onto the global object) with a Declarative record
// (var-hoisted names not yet assigned). Lookup checks the declarative
// side first.
type GlobalRecord struct {
	Declarative *ActivationRecord
	Object      *ObjectRecord
}

func NewGlobalRecord(globalObject *Obj) *GlobalRecord {
	return &GlobalRecord{Declarative: NewActivationRecord(nil), Object: NewObjectRecord(globalObject)}
}

func (r *GlobalRecord) HasBinding(name string) bool {
	return r.Declarative.HasBinding(name) || r.Object.HasBinding(name)
}

func (r *GlobalRecord) GetBindingValue(name string) (Value, bool) {
	if v, ok := r.Declarative.GetBindingValue(name); ok {
		return v, true
	}
	return r.Object.GetBindingValue(name)
}

func (r *GlobalRecord) SetBindingValue(name string, v Value) bool {
	if r.Declarative.HasBinding(name) {
		return r.Declarative.SetBindingValue(name, v)
	}
	return r.Object.SetBindingValue(name, v)
}

func (r *GlobalRecord) CreateBinding(name string, deletable bool, v Value) {
	if deletable {
		r.Object.CreateBinding(name, deletable, v)
		return
	}
	r.Declarative.CreateBinding(name, deletable, v)
}

func (r *GlobalRecord) DeleteBinding(name string) bool {
	if r.Declarative.HasBinding(name) {
		return false
	}
	return r.Object.DeleteBinding(name)
}

// LexicalEnvironment chains an EnvironmentRecord to its lexical
// parent. Identifier resolution that falls through compile-time
// ScopeUpCount/ScopeIndex (dynamic names) walks Outer calling
// GetBindingValue until a record has the name or the chain ends.
type LexicalEnvironment struct {
	Record EnvironmentRecord
	Outer  *LexicalEnvironment
}

func NewLexicalEnvironment(record EnvironmentRecord, outer *LexicalEnvironment) *LexicalEnvironment {
	return &LexicalEnvironment{Record: record, Outer: outer}
}

// Resolve walks the environment chain looking for name, returning the
// record that owns it (for SetBindingValue) along with its value.
func (e *LexicalEnvironment) Resolve(name string) (EnvironmentRecord, Value, bool) {
	for cur := e; cur != nil; cur = cur.Outer {
		if v, ok := cur.Record.GetBindingValue(name); ok {
			return cur.Record, v, true
		}
	}
	return nil, Value{}, false
}

// AtDepth walks up count lexical-environment links, for
// ScopeUpCount-driven index access.
func (e *LexicalEnvironment) AtDepth(count int) *LexicalEnvironment {
	cur := e
	for i := 0; i < count && cur != nil; i++ {
		cur = cur.Outer
	}
	return cur
}
