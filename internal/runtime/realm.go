package runtime

// Realm collects the prototype objects every built-in constructor's
// instances link to through Proto. internal/interp consults it when
// fabricating a value with no literal-level prototype hint (object
// literals, array literals, function closures, internally-thrown
// errors); internal/builtins is responsible for populating each
// prototype's methods once that package exists; here they start as
// bare objects purely to give every heap entity a non-null Proto chain
// terminating at ObjectProto's own Proto, which is Null().
type Realm struct {
	ObjectProto   *Obj
	FunctionProto *Obj
	ArrayProto    *Obj
	StringProto   *Obj
	NumberProto   *Obj
	BooleanProto  *Obj
	RegExpProto   *Obj
	ErrorProto    *Obj

	// NativeErrorProtos holds one prototype per native error
	// constructor name (SyntaxError, TypeError, ReferenceError,
	// RangeError), each chained to ErrorProto.
	NativeErrorProtos map[string]*Obj

	GlobalObject *Obj
}

// NewRealm builds the bare prototype chain. Every *Obj here has
// Extensible=true and RootShape(), exactly like any user-constructed
// object, so a future internal/builtins pass can attach methods with
// the same PutOwn calls ordinary object construction uses.
func NewRealm() *Realm {
	r := &Realm{NativeErrorProtos: map[string]*Obj{}}

	r.ObjectProto = &Obj{BaseObject: BaseObject{Shape: RootShape(), Proto: Null(), Extensible: true, Class: "Object"}}
	objProto := FromPointer(r.ObjectProto)

	r.FunctionProto = NewObject(objProto)
	r.FunctionProto.Class = "Function"
	r.ArrayProto = NewObject(objProto)
	r.ArrayProto.Class = "Array"
	r.StringProto = NewObject(objProto)
	r.StringProto.Class = "String"
	r.NumberProto = NewObject(objProto)
	r.NumberProto.Class = "Number"
	r.BooleanProto = NewObject(objProto)
	r.BooleanProto.Class = "Boolean"
	r.RegExpProto = NewObject(objProto)
	r.RegExpProto.Class = "RegExp"
	r.ErrorProto = NewObject(objProto)
	r.ErrorProto.Class = "Error"
	PutOwn(&r.ErrorProto.BaseObject, "name", NewString("Error"))
	PutOwn(&r.ErrorProto.BaseObject, "message", NewString(""))

	errProto := FromPointer(r.ErrorProto)
	for _, name := range []string{"SyntaxError", "TypeError", "ReferenceError", "RangeError"} {
		p := NewObject(errProto)
		p.Class = "Error"
		PutOwn(&p.BaseObject, "name", NewString(name))
		r.NativeErrorProtos[name] = p
	}

	r.GlobalObject = NewObject(objProto)
	return r
}

// ErrorProtoFor returns the prototype a thrown error of the given
// native-error name should use, falling back to the generic
// Error.prototype for unrecognized names.
func (r *Realm) ErrorProtoFor(name string) Value {
	if p, ok := r.NativeErrorProtos[name]; ok {
		return FromPointer(p)
	}
	return FromPointer(r.ErrorProto)
}
