package runtime

// PropertyFlag records the ECMAScript property attributes plus the
// accessor bit that tells the interpreter to dispatch through a
// getter/setter pair instead of reading the slot directly.
type PropertyFlag uint8

const (
	FlagWritable PropertyFlag = 1 << iota
	FlagEnumerable
	FlagConfigurable
	FlagAccessor
)

// DefaultDataFlags is what `obj.x = v` and object-literal properties
// get: writable, enumerable, configurable.
const DefaultDataFlags = FlagWritable | FlagEnumerable | FlagConfigurable

// PropertyInfo is one entry of a Shape's property list; Index is the
// slot offset into an object's slots vector.
type PropertyInfo struct {
	Key   string
	Flags PropertyFlag
	Index int
}

// Shape is a hidden class: a node in the transition DAG every object
// with the same own-property set (added in the same order, with the
// same attributes) shares. Adding a property either follows an
// existing transition or allocates one new child shape; shapes are
// never mutated once other objects may reference them, except to
// populate their own transitions map.
type Shape struct {
	Parent      *Shape
	AddedKey    string
	Properties  []PropertyInfo
	byKey       map[string]int // key -> index into Properties
	Transitions map[string]*Shape

	// Dictionary marks a shape produced by demoting an object after a
	// delete or an attribute change; dictionary shapes are never shared
	// and never transitioned further — every mutation allocates a fresh
	// private Shape copy.
	Dictionary bool
}

// RootShape returns a fresh empty shape, the transition DAG's root for
// a newly-allocated object with no own properties yet.
func RootShape() *Shape {
	return &Shape{byKey: map[string]int{}, Transitions: map[string]*Shape{}}
}

// Lookup finds key's PropertyInfo in this shape's (flattened) property
// list.
func (s *Shape) Lookup(key string) (PropertyInfo, bool) {
	idx, ok := s.byKey[key]
	if !ok {
		return PropertyInfo{}, false
	}
	return s.Properties[idx], true
}

// Has reports whether key is an own property under this shape.
func (s *Shape) Has(key string) bool {
	_, ok := s.byKey[key]
	return ok
}

// Transition returns the shape reached by adding key with flags to an
// object currently at shape s, reusing an existing transition edge
// when one matches and allocating a new child otherwise. On a
// Dictionary shape no edge is recorded and every call allocates a
// fresh child, so a dictionary shape never shares a transition.
func (s *Shape) Transition(key string, flags PropertyFlag) *Shape {
	if child, ok := s.Transitions[key]; ok && !s.Dictionary {
		return child
	}
	child := &Shape{
		Parent:      s,
		AddedKey:    key,
		Properties:  append(append([]PropertyInfo{}, s.Properties...), PropertyInfo{Key: key, Flags: flags, Index: len(s.Properties)}),
		byKey:       make(map[string]int, len(s.byKey)+1),
		Transitions: map[string]*Shape{},
	}
	for k, v := range s.byKey {
		child.byKey[k] = v
	}
	child.byKey[key] = len(s.Properties)
	if !s.Dictionary {
		s.Transitions[key] = child
	}
	return child
}

// WithUpdatedFlags returns a shape identical to s but with key's flags
// replaced, used for attribute changes (Object.defineProperty-style
// writes). Per the data-model invariant this always demotes to a
// private, unshared shape.
func (s *Shape) WithUpdatedFlags(key string, flags PropertyFlag) *Shape {
	d := s.toPrivateCopy()
	idx := d.byKey[key]
	d.Properties[idx].Flags = flags
	return d
}

// WithoutKey returns a dictionary-mode shape with key removed, used by
// the delete operator. Remaining properties keep their relative order
// but are renumbered, since a slot was freed.
func (s *Shape) WithoutKey(key string) *Shape {
	d := &Shape{Dictionary: true, byKey: map[string]int{}, Transitions: map[string]*Shape{}}
	for _, p := range s.Properties {
		if p.Key == key {
			continue
		}
		p.Index = len(d.Properties)
		d.byKey[p.Key] = len(d.Properties)
		d.Properties = append(d.Properties, p)
	}
	return d
}

func (s *Shape) toPrivateCopy() *Shape {
	d := &Shape{
		Dictionary:  true,
		Properties:  append([]PropertyInfo{}, s.Properties...),
		byKey:       make(map[string]int, len(s.byKey)),
		Transitions: map[string]*Shape{},
	}
	for k, v := range s.byKey {
		d.byKey[k] = v
	}
	return d
}

func (s *Shape) HeapTag() string { return "Shape" }
