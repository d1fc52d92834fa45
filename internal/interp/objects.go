package interp

import (
	"strconv"

	"escargot/internal/bytecode"
	"escargot/internal/runtime"
)

// toPropertyKey coerces a computed member-access key to the string
// every shape/array lookup indexes by. Grounded on operators.go's
// stringIn, which already needed this exact coercion for the `in`
// operator's left-hand side.
func toPropertyKey(v runtime.Value) string {
	if isStringVal(v) {
		return runtime.StringValueGo(v)
	}
	return runtime.ToStringGo(v)
}

// parseArrayIndex reports whether s is the canonical decimal spelling
// of a uint32 array index ("0", "1", "23", ...), rejecting leading
// zeros (other than "0" itself) and non-digit strings the way ES5's
// ToUint32-round-trip array index test does.
func parseArrayIndex(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	if s[0] == '0' && len(s) > 1 {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// getProperty implements [[Get]] for every receiver kind the
// interpreter can produce: primitives borrow their wrapper
// prototype's methods without ever being boxed, strings and arrays
// get their own fast paths for "length" and numeric indices ahead of
// the generic shape-based walk, and everything else routes through
// lookupChain.
func (ip *Interp) getProperty(v runtime.Value, name string) (runtime.Value, error) {
	if v.IsNullOrUndefined() {
		return runtime.Value{}, ip.throwType("cannot read property '%s' of %s", name, runtime.ToStringGo(v))
	}
	if v.IsNumber() {
		return ip.lookupChain(&ip.Realm.NumberProto.BaseObject, v, name)
	}
	if v.IsBoolean() {
		return ip.lookupChain(&ip.Realm.BooleanProto.BaseObject, v, name)
	}
	if isStringVal(v) {
		return ip.getStringProperty(v, name)
	}
	if arr, ok := v.Pointer().(*runtime.ArrayObject); ok {
		return ip.getArrayProperty(arr, v, name)
	}
	bo, ok := asBaseObject(v)
	if !ok {
		return runtime.Undefined(), nil
	}
	return ip.lookupChain(bo, v, name)
}

func (ip *Interp) getStringProperty(v runtime.Value, name string) (runtime.Value, error) {
	raw := runtime.Flatten(v.Pointer())
	if name == "length" {
		return runtime.Number(float64(raw.Len())), nil
	}
	if idx, ok := parseArrayIndex(name); ok {
		if int(idx) < len(raw.Units) {
			return runtime.FromPointer(&runtime.StringRaw{Units: []uint16{raw.Units[idx]}, ASCII: raw.Units[idx] <= 0x7F}), nil
		}
		return runtime.Undefined(), nil
	}
	return ip.lookupChain(&ip.Realm.StringProto.BaseObject, v, name)
}

func (ip *Interp) getArrayProperty(arr *runtime.ArrayObject, thisVal runtime.Value, name string) (runtime.Value, error) {
	if name == "length" {
		return runtime.Number(float64(arr.Length)), nil
	}
	if idx, ok := parseArrayIndex(name); ok {
		if v, ok := arr.Get(idx); ok {
			if v.IsEmpty() {
				return runtime.Undefined(), nil
			}
			return v, nil
		}
		return ip.lookupChain(&arr.BaseObject, thisVal, name)
	}
	return ip.lookupChain(&arr.BaseObject, thisVal, name)
}

// lookupChain walks bo's own shape and then its prototype chain,
// dispatching through an accessor's getter when the found property is
// one. It reads via Shape.Lookup directly rather than runtime.GetOwn,
// since GetOwn discards the PropertyInfo.Flags an accessor check
// needs.
func (ip *Interp) lookupChain(bo *runtime.BaseObject, thisVal runtime.Value, name string) (runtime.Value, error) {
	for cur := bo; cur != nil; {
		if pi, ok := cur.Shape.Lookup(name); ok {
			slot := cur.Slots[pi.Index]
			if pi.Flags&runtime.FlagAccessor != 0 {
				pair, _ := slot.Pointer().(*runtime.AccessorPair)
				if pair == nil || !pair.Get.IsPointer() {
					return runtime.Undefined(), nil
				}
				return ip.invokeValue(pair.Get, thisVal, nil)
			}
			return slot, nil
		}
		next, ok := asBaseObject(cur.Proto)
		if !ok {
			return runtime.Undefined(), nil
		}
		cur = next
	}
	return runtime.Undefined(), nil
}

// getPropertyCached is OpGetObjectPreComputed's fast path: a shape
// identity check against the site's inline cache short-circuits the
// shape lookup entirely on a hit, and a miss on a plain own data
// property refills the cache before falling through to the same
// result a cold lookupChain call would have produced. Arrays and
// strings are excluded since their "length"/numeric-index fast paths
// in getProperty never go through a shape slot.
func (ip *Interp) getPropertyCached(v runtime.Value, name string, ic *bytecode.InlineCache) (runtime.Value, error) {
	if _, isArr := v.Pointer().(*runtime.ArrayObject); !isArr && !isStringVal(v) {
		if bo, ok := asBaseObject(v); ok {
			if ic.Hit(bo.Shape) {
				ip.Metrics.ICHits.Inc()
				return bo.Slots[ic.SlotIndex], nil
			}
			ip.Metrics.ICMisses.Inc()
			if pi, found := bo.Shape.Lookup(name); found && pi.Flags&runtime.FlagAccessor == 0 {
				ic.Fill(bo.Shape, pi.Index)
				return bo.Slots[pi.Index], nil
			}
		}
	}
	return ip.getProperty(v, name)
}

// setProperty implements [[Set]]: null/undefined receivers throw,
// array "length"/index writes get dedicated fast paths, and every
// other receiver walks findAccessor before falling back to an
// unconditional own-property write, matching ES5's rule that the
// nearest property anywhere in the chain (whether data or accessor)
// decides whether assignment invokes a setter or simply shadows it
// with a new own property.
func (ip *Interp) setProperty(receiver runtime.Value, name string, val runtime.Value) error {
	if receiver.IsNullOrUndefined() {
		return ip.throwType("cannot set property '%s' of %s", name, runtime.ToStringGo(receiver))
	}
	if arr, ok := receiver.Pointer().(*runtime.ArrayObject); ok {
		return ip.setArrayProperty(arr, name, val)
	}
	bo, ok := asBaseObject(receiver)
	if !ok {
		// A bare primitive receiver (e.g. `(1).x = 2`): ES5 sloppy-mode
		// silently drops the write, since ToObject's wrapper is
		// discarded immediately afterward anyway.
		return nil
	}
	if pair := findAccessor(bo, name); pair != nil {
		if !pair.Set.IsPointer() {
			return nil
		}
		_, err := ip.invokeValue(pair.Set, receiver, []runtime.Value{val})
		return err
	}
	ip.putOwnTracked(bo, name, val)
	return nil
}

// putOwnTracked wraps runtime.PutOwn with a shape-identity check so the
// telemetry shape-transition counter reflects an actual Shape.Transition
// call (a brand new property key) rather than every property write.
func (ip *Interp) putOwnTracked(bo *runtime.BaseObject, name string, val runtime.Value) {
	before := bo.Shape
	runtime.PutOwn(bo, name, val)
	if bo.Shape != before {
		ip.Metrics.ShapeTransitions.Inc()
	}
}

func (ip *Interp) setArrayProperty(arr *runtime.ArrayObject, name string, val runtime.Value) error {
	if name == "length" {
		newLen := runtime.ToUint32(val)
		if arr.FastMode {
			if int(newLen) < len(arr.Vector) {
				arr.Vector = arr.Vector[:newLen]
			}
		}
		arr.Length = newLen
		return nil
	}
	if idx, ok := parseArrayIndex(name); ok {
		arr.Set(idx, val)
		return nil
	}
	if pair := findAccessor(&arr.BaseObject, name); pair != nil {
		if !pair.Set.IsPointer() {
			return nil
		}
		_, err := ip.invokeValue(pair.Set, runtime.FromPointer(arr), []runtime.Value{val})
		return err
	}
	ip.putOwnTracked(&arr.BaseObject, name, val)
	return nil
}

// setPropertyCached is OpSetObjectPreComputed's fast path, mirroring
// getPropertyCached: a shape hit writes the cached slot directly, a
// miss on an own non-accessor property refills the cache, anything
// else (accessor found, or name not yet own) falls to the full
// setProperty walk so inherited setters and shape transitions are
// handled correctly.
func (ip *Interp) setPropertyCached(v runtime.Value, name string, val runtime.Value, ic *bytecode.InlineCache) error {
	if _, isArr := v.Pointer().(*runtime.ArrayObject); !isArr && !isStringVal(v) {
		if bo, ok := asBaseObject(v); ok {
			if ic.Hit(bo.Shape) {
				ip.Metrics.ICHits.Inc()
				bo.Slots[ic.SlotIndex] = val
				return nil
			}
			ip.Metrics.ICMisses.Inc()
			if pi, found := bo.Shape.Lookup(name); found && pi.Flags&runtime.FlagAccessor == 0 {
				ic.Fill(bo.Shape, pi.Index)
				bo.Slots[pi.Index] = val
				return nil
			}
		}
	}
	return ip.setProperty(v, name, val)
}

// findAccessor walks bo's own-then-proto chain for name, returning the
// AccessorPair installed there, or nil the moment it finds *any*
// property (own or inherited) for name that is not an accessor: a
// data property anywhere in the chain shadows every more distant
// accessor and must never have a setter invoked through it.
func findAccessor(bo *runtime.BaseObject, name string) *runtime.AccessorPair {
	for cur := bo; cur != nil; {
		if pi, ok := cur.Shape.Lookup(name); ok {
			if pi.Flags&runtime.FlagAccessor == 0 {
				return nil
			}
			pair, _ := cur.Slots[pi.Index].Pointer().(*runtime.AccessorPair)
			return pair
		}
		next, ok := asBaseObject(cur.Proto)
		if !ok {
			return nil
		}
		cur = next
	}
	return nil
}

// deleteProperty implements the `delete obj.prop`/`delete obj[k]`
// operator on a resolved receiver. Array holes are represented by an
// Empty vector slot rather than a shape removal in fast mode, since
// demoting on every delete would defeat the point of the fast path.
func (ip *Interp) deleteProperty(obj runtime.Value, name string) (bool, error) {
	if arr, ok := obj.Pointer().(*runtime.ArrayObject); ok {
		if idx, ok := parseArrayIndex(name); ok {
			if arr.FastMode {
				if idx < uint32(len(arr.Vector)) {
					arr.Vector[idx] = runtime.Empty()
				}
				return true, nil
			}
			return runtime.DeleteOwn(&arr.BaseObject, name), nil
		}
		return runtime.DeleteOwn(&arr.BaseObject, name), nil
	}
	bo, ok := asBaseObject(obj)
	if !ok {
		return true, nil
	}
	return runtime.DeleteOwn(bo, name), nil
}

// opInitObject backs OpInitObject: an own-property define (object and
// array literal construction), never a [[Set]] walk. An ArrayObject
// receiver with a numeric-string key goes through Set so literal
// elements populate the fast-mode vector instead of spilling into
// shape-tracked properties.
func (ip *Interp) opInitObject(frame *Frame) error {
	nameIdx := frame.readU16()
	name := stringConstant(frame.cb, nameIdx)
	val := frame.pop()
	obj := frame.pop()
	if arr, ok := obj.Pointer().(*runtime.ArrayObject); ok {
		if idx, ok := parseArrayIndex(name); ok {
			arr.Set(idx, val)
			frame.push(val)
			return nil
		}
	}
	bo, ok := asBaseObject(obj)
	if !ok {
		return errInternalf("InitObject: receiver is not an object")
	}
	ip.putOwnTracked(bo, name, val)
	frame.push(val)
	return nil
}

func (ip *Interp) opSetAccessor(frame *Frame, isGetter bool) error {
	nameIdx := frame.readU16()
	name := stringConstant(frame.cb, nameIdx)
	fn := frame.pop()
	obj := frame.pop()
	bo, ok := asBaseObject(obj)
	if !ok {
		return errInternalf("SetObjectPropertyAccessor: receiver is not an object")
	}
	runtime.DefineAccessor(bo, name, isGetter, fn)
	frame.push(fn)
	return nil
}

// enumState is the heap entity OpEnumerateObject pushes and
// OpEnumerateObjectKey walks: a flat snapshot of the keys a for-in
// loop will visit, computed once up front rather than lazily so that
// the loop body mutating the object mid-iteration can't desync the
// enumeration (matching the teacher's evaluator's for-in, which
// likewise snapshots keys before iterating).
type enumState struct {
	keys []string
	pos  int
}

func (*enumState) HeapTag() string { return "EnumerationState" }

// buildEnumState computes the keys a for-in over v visits: an
// ArrayObject's dense fast-mode indices plus its own shape-enumerable
// keys, a string's numeric code-unit indices, or an ordinary object's
// own-enumerable-then-inherited-enumerable keys deduplicated by first
// occurrence (since a shadowing own property must win over a same-
// named inherited one without being listed twice).
func buildEnumState(v runtime.Value) *enumState {
	es := &enumState{}
	seen := map[string]bool{}

	if arr, ok := v.Pointer().(*runtime.ArrayObject); ok {
		if arr.FastMode {
			for i, el := range arr.Vector {
				if el.IsEmpty() {
					continue
				}
				k := strconv.Itoa(i)
				es.keys = append(es.keys, k)
				seen[k] = true
			}
		}
		addEnumerableOwn(es, seen, &arr.BaseObject)
		addEnumerableProto(es, seen, arr.Proto)
		return es
	}

	if isStringVal(v) {
		raw := runtime.Flatten(v.Pointer())
		for i := range raw.Units {
			k := strconv.Itoa(i)
			es.keys = append(es.keys, k)
			seen[k] = true
		}
		return es
	}

	for bo, ok := asBaseObject(v); ok; bo, ok = asBaseObject(bo.Proto) {
		addEnumerableOwn(es, seen, bo)
	}
	return es
}

func addEnumerableOwn(es *enumState, seen map[string]bool, bo *runtime.BaseObject) {
	for _, p := range bo.Shape.Properties {
		if p.Flags&runtime.FlagEnumerable == 0 || seen[p.Key] {
			continue
		}
		seen[p.Key] = true
		es.keys = append(es.keys, p.Key)
	}
}

func addEnumerableProto(es *enumState, seen map[string]bool, proto runtime.Value) {
	for bo, ok := asBaseObject(proto); ok; bo, ok = asBaseObject(bo.Proto) {
		addEnumerableOwn(es, seen, bo)
	}
}

// resolveDynamic is the name-based lookup every OpGetById/OpSetById
// site performs: `with` bindings (innermost first) shadow the static
// environment chain entirely, matching ES5's rule that a with object's
// own (or inherited) properties take priority over any enclosing
// binding of the same name.
func resolveDynamic(frame *Frame, name string) (runtime.EnvironmentRecord, runtime.Value, bool) {
	for i := len(frame.withStack) - 1; i >= 0; i-- {
		if frame.withStack[i].HasBinding(name) {
			v, _ := frame.withStack[i].GetBindingValue(name)
			return frame.withStack[i], v, true
		}
	}
	return frame.env.Resolve(name)
}

// opGetById backs OpGetById. The site's inline-cache operand is read
// and discarded: a per-site cached environment record is only safe to
// trust when the record is guaranteed to be the same instance on
// every execution of this bytecode offset, which does not hold for a
// CodeBlock shared across multiple closure instantiations of the same
// function (see DESIGN.md) — every lookup instead does a full dynamic
// resolve.
func (ip *Interp) opGetById(frame *Frame) error {
	nameIdx := frame.readU16()
	frame.readU16()
	safe := frame.readU8() != 0
	name := stringConstant(frame.cb, nameIdx)

	_, v, found := resolveDynamic(frame, name)
	if !found {
		if safe {
			frame.push(runtime.Undefined())
			return nil
		}
		return ip.throwReference("%s is not defined", name)
	}
	frame.push(v)
	return nil
}

// opSetById backs OpSetById: `with` bindings first, then the static
// environment chain, then (sloppy mode only) an implicit global
// created by bare assignment.
func (ip *Interp) opSetById(frame *Frame) error {
	nameIdx := frame.readU16()
	frame.readU16()
	name := stringConstant(frame.cb, nameIdx)
	val := frame.peek()

	for i := len(frame.withStack) - 1; i >= 0; i-- {
		if frame.withStack[i].HasBinding(name) {
			frame.withStack[i].SetBindingValue(name, val)
			return nil
		}
	}
	if rec, _, found := frame.env.Resolve(name); found {
		rec.SetBindingValue(name, val)
		return nil
	}
	if frame.cb.IsStrict {
		return ip.throwReference("%s is not defined", name)
	}
	ip.GlobalEnv.Record.CreateBinding(name, true, val)
	return nil
}
