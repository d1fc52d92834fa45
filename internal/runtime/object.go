package runtime

// BaseObject is the field set every heap object variant (ordinary
// object, array, function, regexp, date, ...) embeds: the shape
// pointer, the slots vector it indexes into, the prototype link, and
// the extensibility bit.
type BaseObject struct {
	Shape      *Shape
	Slots      []Value
	Proto      Value // another Object pointer, or Null()
	Extensible bool
	Class      string // "Object", "Array", "Function", "Error", "RegExp", "Date", "String", "Arguments"
}

// AccessorPair is the heap entity a shape slot holds when its
// PropertyInfo has FlagAccessor set: Get/Set are callable Values (or
// Undefined when only one of the pair is defined).
type AccessorPair struct {
	Get Value
	Set Value
}

func (*AccessorPair) HeapTag() string { return "AccessorDescriptor" }

// Obj is a plain ECMAScript object: the common case for object
// literals, `new Object()`, and user-defined prototypes. Objects with
// more fields (arrays, functions) embed BaseObject directly and add
// their own HeapTag instead of wrapping Obj.
type Obj struct {
	BaseObject
	Internal map[string]Value // non-shape-tracked internal slots, e.g. boxed primitive for String/Boolean/Number wrapper objects
}

func NewObject(proto Value) *Obj {
	return &Obj{BaseObject: BaseObject{Shape: RootShape(), Proto: proto, Extensible: true, Class: "Object"}}
}

func (o *Obj) HeapTag() string { return "Object" }

// GetOwn returns the value of an own data property, or the
// AccessorPair for an own accessor property. ok is false when key is
// not an own property of o; callers must then walk o.Proto.
func GetOwn(o *BaseObject, key string) (Value, bool) {
	pi, ok := o.Shape.Lookup(key)
	if !ok {
		return Value{}, false
	}
	return o.Slots[pi.Index], true
}

// HasOwn reports whether key is an own property of o.
func HasOwn(o *BaseObject, key string) bool {
	return o.Shape.Has(key)
}

// PutOwn writes key's value, creating the property (via a shape
// transition) if it is not already own. Existing accessor properties
// are overwritten as plain data properties, matching assignment
// through `obj.x = v` rather than `Object.defineProperty`.
func PutOwn(o *BaseObject, key string, v Value) {
	if pi, ok := o.Shape.Lookup(key); ok {
		if pi.Flags&FlagAccessor != 0 {
			o.Shape = o.Shape.WithUpdatedFlags(key, DefaultDataFlags)
		}
		o.Slots[pi.Index] = v
		return
	}
	o.Shape = o.Shape.Transition(key, DefaultDataFlags)
	o.Slots = append(o.Slots, v)
}

// DefineAccessor installs key as an accessor property backed by an
// AccessorPair, merging with any pair already installed so that a
// getter and a later setter on the same key share one AccessorPair.
func DefineAccessor(o *BaseObject, key string, isGetter bool, fn Value) {
	var pair *AccessorPair
	if pi, ok := o.Shape.Lookup(key); ok && pi.Flags&FlagAccessor != 0 {
		pair, _ = o.Slots[pi.Index].Pointer().(*AccessorPair)
	}
	if pair == nil {
		pair = &AccessorPair{Get: Undefined(), Set: Undefined()}
	}
	if isGetter {
		pair.Get = fn
	} else {
		pair.Set = fn
	}
	v := FromPointer(pair)
	if pi, ok := o.Shape.Lookup(key); ok {
		if pi.Flags&FlagAccessor == 0 {
			o.Shape = o.Shape.WithUpdatedFlags(key, DefaultDataFlags|FlagAccessor)
		}
		o.Slots[pi.Index] = v
		return
	}
	o.Shape = o.Shape.Transition(key, DefaultDataFlags|FlagAccessor)
	o.Slots = append(o.Slots, v)
}

// DeleteOwn removes key, demoting o to a private dictionary shape per
// the data-model invariant that deletes never share shapes. ok is
// false (and nothing changes) when key is non-configurable.
func DeleteOwn(o *BaseObject, key string) bool {
	pi, ok := o.Shape.Lookup(key)
	if !ok {
		return true
	}
	if pi.Flags&FlagConfigurable == 0 {
		return false
	}
	newSlots := make([]Value, 0, len(o.Slots)-1)
	for _, p := range o.Shape.Properties {
		if p.Key == key {
			continue
		}
		newSlots = append(newSlots, o.Slots[p.Index])
	}
	o.Shape = o.Shape.WithoutKey(key)
	o.Slots = newSlots
	return true
}

// OwnKeys returns own enumerable-or-not property keys in insertion
// order, for Object.keys / for-in enumeration-state construction.
func OwnKeys(o *BaseObject) []string {
	keys := make([]string, len(o.Shape.Properties))
	for i, p := range o.Shape.Properties {
		keys[i] = p.Key
	}
	return keys
}
