package runtime

// RegExpObject backs a regular expression literal or `new RegExp(...)`
// call. No matcher is compiled from Source/Flags here; the runtime
// representation carries the two strings plus the mutable state ES5
// exposes on every RegExp instance.
type RegExpObject struct {
	BaseObject
	Source     string
	Flags      string
	Global     bool
	IgnoreCase bool
	Multiline  bool
	LastIndex  uint32
}

func (*RegExpObject) HeapTag() string { return "RegExpObject" }

// NewRegExp builds a RegExpObject from a literal's pattern/flags pair,
// deriving the three ES5-visible boolean flags from the flags string.
func NewRegExp(proto Value, source, flags string) *RegExpObject {
	r := &RegExpObject{Source: source, Flags: flags}
	r.Proto = proto
	r.Extensible = true
	r.Shape = RootShape()
	for _, f := range flags {
		switch f {
		case 'g':
			r.Global = true
		case 'i':
			r.IgnoreCase = true
		case 'm':
			r.Multiline = true
		}
	}
	return r
}
